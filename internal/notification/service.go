package notification

import (
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/lesson-scheduler/internal/models"
)

type dispatcher interface {
	Dispatch(msg Message)
}

// Service turns booking events into messages for the customer and the staff
// mailbox.
type Service struct {
	out   dispatcher
	staff []string
	log   *zap.Logger
}

func NewService(out dispatcher, staff []string, log *zap.Logger) *Service {
	return &Service{out: out, staff: staff, log: log}
}

func (s *Service) recipients(user *models.User) []string {
	to := make([]string, 0, len(s.staff)+1)
	if user != nil && user.Email != "" {
		to = append(to, user.Email)
	}
	for _, addr := range s.staff {
		if user != nil && strings.EqualFold(addr, user.Email) {
			continue
		}
		to = append(to, addr)
	}
	return to
}

func (s *Service) BookingConfirmed(b *models.Booking, user *models.User) {
	msg := confirmationMessage(b, user)
	msg.To = s.recipients(user)
	s.out.Dispatch(msg)
}

func (s *Service) BookingCancelled(b *models.Booking, user *models.User) {
	msg := cancellationMessage(b, user)
	msg.To = s.recipients(user)
	s.out.Dispatch(msg)
}

func (s *Service) PaymentIssueRaised(issue *models.PaymentIssue, user *models.User) {
	if len(s.staff) == 0 {
		s.log.Warn("payment issue recorded but no staff recipients configured",
			zap.Uint("issue_id", issue.ID),
			zap.String("provider_payment_id", issue.ProviderPaymentID),
		)
		return
	}
	msg := paymentIssueMessage(issue, user)
	msg.To = append([]string(nil), s.staff...)
	s.out.Dispatch(msg)
}

var _ domain.Notifier = (*Service)(nil)

// --------------------------------------------------
// Message builders
// --------------------------------------------------

type line struct{ label, value string }

func render(heading string, lines []line) (string, string) {
	var text, body strings.Builder

	text.WriteString(heading + "\n\n")
	body.WriteString("<h2>" + html.EscapeString(heading) + "</h2>\n<table>\n")
	for _, l := range lines {
		if l.value == "" {
			continue
		}
		fmt.Fprintf(&text, "%s: %s\n", l.label, l.value)
		fmt.Fprintf(&body, "<tr><th align=\"left\">%s</th><td>%s</td></tr>\n",
			html.EscapeString(l.label), html.EscapeString(l.value))
	}
	body.WriteString("</table>\n")

	return text.String(), body.String()
}

func when(b *models.Booking) string {
	t, err := domain.ParseTime(b.Time)
	if err != nil {
		return b.Date + " " + b.Time
	}
	return b.Date + " " + t.Label()
}

func bookingLines(b *models.Booking, user *models.User) []line {
	lines := []line{
		{"Booking", fmt.Sprintf("#%d", b.ID)},
		{"When", when(b)},
		{"Duration", fmt.Sprintf("%d min", b.DurationMin)},
		{"Package", b.Package.Name},
		{"Instructor", b.Instructor.Name},
		{"Payment", b.PaymentMethod + " (" + b.PaymentStatus + ")"},
	}
	if b.Weapon != nil {
		lines = append(lines, line{"Weapon", b.Weapon.Name})
	}
	if b.Location != nil {
		lines = append(lines, line{"Location", b.Location.Name})
	}
	if user != nil {
		lines = append(lines, line{"Customer", user.Name + " <" + user.Email + ">"})
	}
	return append(lines, line{"Notes", b.Notes})
}

func confirmationMessage(b *models.Booking, user *models.User) Message {
	subject := fmt.Sprintf("Booking confirmed: %s", when(b))
	text, body := render("Your lesson is confirmed", bookingLines(b, user))
	return Message{Subject: subject, Text: text, HTML: body}
}

func cancellationMessage(b *models.Booking, user *models.User) Message {
	subject := fmt.Sprintf("Booking cancelled: %s", when(b))
	text, body := render("Your lesson was cancelled", bookingLines(b, user))
	return Message{Subject: subject, Text: text, HTML: body}
}

func paymentIssueMessage(issue *models.PaymentIssue, user *models.User) Message {
	lines := []line{
		{"Issue", fmt.Sprintf("#%d", issue.ID)},
		{"Reason", issue.Reason},
		{"Provider payment", issue.ProviderPaymentID},
		{"Requested booking", issue.Intent},
	}
	if user != nil {
		lines = append(lines, line{"Customer", user.Name + " <" + user.Email + ">"})
	}
	text, body := render("Payment received for a slot that is no longer free", lines)
	return Message{
		Subject: fmt.Sprintf("Action needed: payment %s has no booking", issue.ProviderPaymentID),
		Text:    text,
		HTML:    body,
	}
}
