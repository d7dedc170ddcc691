package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// Email is a rendered notification.
type Email struct {
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers notifications through SendGrid.
type Mailer struct {
	from       *sgmail.Email
	subjPrefix string
	send       func(m *sgmail.SGMailV3) error
}

// NewMailer returns a Mailer sending from fromEmail as appName.
func NewMailer(key, appName, fromEmail string) *Mailer {
	return &Mailer{
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
		send: func(m *sgmail.SGMailV3) error {
			req := sendgrid.GetRequest(key, sendgridEndpoint, sendgridHost)
			req.Method = http.MethodPost
			req.Body = sgmail.GetRequestBody(m)
			res, err := sendgrid.API(req)
			if err != nil {
				return errors.Wrap(err, "sendgrid request")
			}
			if res.StatusCode >= http.StatusBadRequest {
				return errors.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
			}
			return nil
		},
	}
}

// Handle renders msg and sends it. It satisfies Handler.
func (m *Mailer) Handle(_ context.Context, msg Message) error {
	if msg.Email == "" {
		return errors.Errorf("notification %s has no recipient", msg.Kind)
	}
	email, err := Render(msg)
	if err != nil {
		return err
	}

	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + email.Subject
	p.AddTos(sgmail.NewEmail(msg.Name, msg.Email))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	v3.AddContent(
		sgmail.NewContent("text/plain", email.Text),
		sgmail.NewContent("text/html", email.HTML),
	)
	return m.send(v3)
}

// Render builds the email for msg.
func Render(msg Message) (Email, error) {
	when := msg.StartAt.Format("Monday, January 2 2006 at 15:04 MST")
	var e Email
	switch msg.Kind {
	case RegistrationConfirmed:
		e.Subject = "Registration received: " + msg.Title
		e.Text = fmt.Sprintf("Thank you for registering %d attendee(s) for %s on %s.", msg.Quantity, msg.Title, when)
		if msg.TotalCents > 0 {
			e.Text += fmt.Sprintf(" Amount due: %s.", FormatAmount(msg.TotalCents, msg.Currency))
		}
	case RegistrationPaid:
		e.Subject = "Payment received: " + msg.Title
		e.Text = fmt.Sprintf("We received your payment of %s for %s on %s. See you there!",
			FormatAmount(msg.TotalCents, msg.Currency), msg.Title, when)
	case RegistrationCancelled:
		e.Subject = "Registration cancelled: " + msg.Title
		e.Text = fmt.Sprintf("Your registration for %s on %s has been cancelled.", msg.Title, when)
	case BookingRequested:
		e.Subject = "Your campus tour request"
		e.Text = fmt.Sprintf("Hi %s, we received your tour request for %s. Our admissions team will confirm shortly.",
			firstNonEmpty(msg.Name, "there"), when)
	default:
		return Email{}, errors.Errorf("unknown notification kind %q", msg.Kind)
	}
	e.HTML = "<p>" + htmlEscaper.Replace(e.Text) + "</p>"
	return e, nil
}

// FormatAmount renders minor units as a decimal amount, e.g. 1250 usd -> "12.50 USD".
func FormatAmount(cents int64, currency string) string {
	amount := decimal.New(cents, -2).StringFixed(2)
	if currency == "" {
		return amount
	}
	return amount + " " + strings.ToUpper(currency)
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&#34;", "'", "&#39;")

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
