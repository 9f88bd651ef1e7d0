package mail

import (
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/revstay/internal/money"
	"github.com/MrJamesThe3rd/revstay/internal/notify"
)

// Render builds the plain-text subject and body for msg.
func Render(msg notify.Message) (subject, body string, err error) {
	v := msg.Variables
	title := v["propertyTitle"]

	switch msg.Template {
	case notify.TemplateBookingConfirmation:
		subject = "Booking Confirmation: " + title
		body = fmt.Sprintf("Your booking for %s has been received.\n\nAmount: %s\n\n"+
			"Complete the payment to confirm your stay.", title, amount(v))
	case notify.TemplateBookingNotification:
		subject = "New Booking Notification: " + title
		body = fmt.Sprintf("%s has booked %s.\n\nAmount: %s\n\n"+
			"You will be notified once the payment is confirmed.", v["buyerName"], title, amount(v))
	case notify.TemplateStatusUpdateBuyer:
		subject = "Booking Status Update: " + title
		body = fmt.Sprintf("Your booking for %s is now %s.", title, strings.ToLower(v["status"]))
	case notify.TemplateStatusUpdateSeller:
		subject = "Booking Status Update: " + title
		body = fmt.Sprintf("The booking for your property %s is now %s.", title, strings.ToLower(v["status"]))
	default:
		return "", "", fmt.Errorf("unknown template %q", msg.Template)
	}

	return subject, body, nil
}

func amount(v map[string]string) string {
	minor, err := money.ParseMajor(v["amount"])
	if err != nil {
		return strings.TrimSpace(v["amount"] + " " + v["currency"])
	}

	return money.Format(minor, v["currency"])
}
