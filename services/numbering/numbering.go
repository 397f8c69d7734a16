// Package numbering generates the human-readable booking and order numbers.
package numbering

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	counterRepo "wellbe/database/repository/counter"
)

const (
	bookingPrefix = "BK"
	dateLayout    = "20060102"
)

// Generator issues booking numbers from an atomic per-day counter.
type Generator struct {
	Counters counterRepo.CounterRepository
}

// BookingNumber returns BK + YYYYMMDD + a 4-digit sequence that restarts at
// 0001 every day. Concurrent callers never receive the same number.
func (g *Generator) BookingNumber(ctx context.Context, now time.Time) (string, error) {
	day := now.Format(dateLayout)
	seq, err := g.Counters.Next(ctx, "booking:"+day)
	if err != nil {
		return "", fmt.Errorf("booking number: %w", err)
	}
	return FormatBookingNumber(day, seq), nil
}

func FormatBookingNumber(day string, seq int64) string {
	return fmt.Sprintf("%s%s%04d", bookingPrefix, day, seq)
}

// OrderNumber returns ORD-<last 8 digits of unix millis>-<0..999>. The random
// suffix lowers but does not remove the chance of a clash; the orders
// collection carries a unique index and callers retry on a duplicate.
func OrderNumber(now time.Time) string {
	return formatOrderNumber(now, rand.IntN(1000))
}

func formatOrderNumber(now time.Time, suffix int) string {
	return fmt.Sprintf("ORD-%08d-%d", now.UnixMilli()%100000000, suffix)
}
