// Package payment verifies and refunds card payments.
package payment

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
)

const MethodCard = "card"

var (
	ErrNotSucceeded   = errors.New("payment has not succeeded")
	ErrAmountMismatch = errors.New("payment amount is below the amount due")
)

// Gateway is the card processor. A nil Gateway means card payments are
// recorded without verification.
type Gateway interface {
	VerifyPayment(ctx context.Context, reference string, amount float64) error
	Refund(ctx context.Context, reference string, amount float64) error
}

// IntentClient is the slice of the Stripe API the gateway calls.
type IntentClient interface {
	GetIntent(params *stripe.PaymentIntentParams, id string) (*stripe.PaymentIntent, error)
	NewRefund(params *stripe.RefundParams) (*stripe.Refund, error)
}

type stripeAPI struct{}

func (stripeAPI) GetIntent(params *stripe.PaymentIntentParams, id string) (*stripe.PaymentIntent, error) {
	return paymentintent.Get(id, params)
}

func (stripeAPI) NewRefund(params *stripe.RefundParams) (*stripe.Refund, error) {
	return refund.New(params)
}

// StripeGateway checks payment intents by id. The payment reference a
// client submits is the intent id (pi_...).
type StripeGateway struct {
	api IntentClient
}

// NewStripeGateway sets the global Stripe key and returns a gateway over
// the live API.
func NewStripeGateway(key string) *StripeGateway {
	stripe.Key = key
	return &StripeGateway{api: stripeAPI{}}
}

func NewStripeGatewayWithClient(api IntentClient) *StripeGateway {
	return &StripeGateway{api: api}
}

func (g *StripeGateway) VerifyPayment(ctx context.Context, reference string, amount float64) error {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.GetIntent(params, reference)
	if err != nil {
		return fmt.Errorf("stripe: get intent %s: %w", reference, err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return fmt.Errorf("intent %s is %s: %w", reference, pi.Status, ErrNotSucceeded)
	}
	if pi.AmountReceived < MinorUnits(amount) {
		return fmt.Errorf("intent %s received %d: %w", reference, pi.AmountReceived, ErrAmountMismatch)
	}
	return nil
}

func (g *StripeGateway) Refund(ctx context.Context, reference string, amount float64) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(reference),
		Amount:        stripe.Int64(MinorUnits(amount)),
	}
	params.Context = ctx
	if _, err := g.api.NewRefund(params); err != nil {
		return fmt.Errorf("stripe: refund %s: %w", reference, err)
	}
	return nil
}

// MinorUnits converts a decimal amount to cents.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
