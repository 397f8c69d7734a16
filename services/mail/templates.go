package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"wellbe/models"
)

var bookingTmpl = template.Must(template.New("booking").Parse(`<h2>{{.Heading}}</h2>
<p>Booking <strong>{{.Booking.BookingNumber}}</strong> for {{.Booking.Service.Name}}.</p>
<p>When: {{.Booking.StartTime.Format "Mon 02 Jan 2006 15:04"}} ({{.Booking.Service.Duration}} min)</p>
<p>Status: {{.Booking.Status}}</p>
{{if .Booking.Notes}}<p>Notes: {{.Booking.Notes}}</p>{{end}}`))

// BookingConfirmation renders the message sent to one party of a new booking.
func BookingConfirmation(to string, b *models.Booking, forProfessional bool) (models.Email, error) {
	heading := "Your booking request was received"
	if b.Status == models.BookingConfirmed {
		heading = "Your booking is confirmed"
	}
	if forProfessional {
		heading = "You have a new booking"
	}

	var buf bytes.Buffer
	err := bookingTmpl.Execute(&buf, struct {
		Heading string
		Booking *models.Booking
	}{heading, b})
	if err != nil {
		return models.Email{}, fmt.Errorf("mail: render booking %s: %w", b.ID, err)
	}
	return models.Email{
		To:      to,
		Subject: fmt.Sprintf("%s - %s", heading, b.BookingNumber),
		Body:    buf.String(),
	}, nil
}
