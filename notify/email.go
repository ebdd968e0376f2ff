package notify

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/civicsetu/civic-voice-api/models"
	templates "github.com/civicsetu/civic-voice-api/templates/html"
)

// EscalationMailer emails a municipal inbox when a complaint lands at urgent
// priority. Best effort: callers log failures and move on.
type EscalationMailer struct {
	APIKey string
	From   string
	To     string
}

// NewEscalationMailer returns a mailer for the configured escalation inbox.
func NewEscalationMailer(apiKey, from, to string) *EscalationMailer {
	return &EscalationMailer{APIKey: apiKey, From: from, To: to}
}

// Enabled reports whether escalation email is configured at all.
func (m *EscalationMailer) Enabled() bool {
	return m.APIKey != "" && m.To != ""
}

// Send emails the escalation notice for one complaint.
func (m *EscalationMailer) Send(complaint models.Complaint) error {
	if !m.Enabled() {
		return fmt.Errorf("escalation email not configured")
	}

	subject := fmt.Sprintf("Urgent complaint %s: %s", complaint.TicketID(), complaint.Title)
	body := fmt.Sprintf(
		"Ticket: %s\nCategory: %s\nPriority: %s (score %d)\nDepartment: %s\nAddress: %s\n\n%s",
		complaint.TicketID(),
		complaint.Category,
		complaint.Priority,
		complaint.PriorityScore,
		complaint.SuggestedDepartment,
		complaint.Address,
		complaint.Description,
	)

	from := mail.NewEmail("Civic Setu", m.From)
	to := mail.NewEmail("Municipal Operations", m.To)
	msg := mail.NewSingleEmail(from, subject, to, body, templates.RenderEscalationEmail(subject, body))

	client := sendgrid.NewSendClient(m.APIKey)
	_, err := client.Send(msg)
	return err
}
