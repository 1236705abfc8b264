package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/assistaura/leadchat/internal/leads"
	"github.com/assistaura/leadchat/pkg/logging"
)

// Service emails the sales inbox when the chat captures a lead.
type Service struct {
	email      EmailSender
	recipients []string
	logger     *logging.Logger
}

// NewService returns a notifier for the given recipients. Blank recipients
// are dropped.
func NewService(email EmailSender, recipients []string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	var to []string
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			to = append(to, r)
		}
	}
	return &Service{
		email:      email,
		recipients: to,
		logger:     logger,
	}
}

func (s *Service) Name() string { return "email" }

// LeadCaptured sends one email per recipient. Every recipient is attempted
// before failures are reported.
func (s *Service) LeadCaptured(ctx context.Context, lead *leads.Lead) error {
	if s == nil || s.email == nil || len(s.recipients) == 0 || lead == nil {
		return nil
	}

	msg := EmailMessage{
		ReplyTo:  lead.Email,
		Subject:  fmt.Sprintf("New lead - %s (%s)", lead.Name, lead.Service),
		Text:     formatLeadText(lead),
		HTML:     formatLeadHTML(lead),
		Category: "lead-captured",
	}

	var errs []error
	for _, recipient := range s.recipients {
		msg.To = recipient
		if err := s.email.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d of %d lead email(s) failed: %w", len(errs), len(s.recipients), errors.Join(errs...))
	}
	s.logger.Debug("lead notification sent", "lead_id", lead.ID, "recipients", len(s.recipients))
	return nil
}

func formatLeadText(lead *leads.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A new lead came in through the website chat.\n\n")
	fmt.Fprintf(&b, "Name: %s\n", lead.Name)
	fmt.Fprintf(&b, "Email: %s\n", lead.Email)
	fmt.Fprintf(&b, "Phone: %s\n", lead.Phone)
	fmt.Fprintf(&b, "Service: %s\n", lead.Service)
	if lead.AdditionalMessage != "" {
		fmt.Fprintf(&b, "Message: %s\n", lead.AdditionalMessage)
	}
	fmt.Fprintf(&b, "Received: %s\n", lead.CreatedAt.UTC().Format(time.RFC1123))
	fmt.Fprintf(&b, "\nChat transcript (%d messages):\n", len(lead.Transcript))
	for _, entry := range lead.Transcript {
		fmt.Fprintf(&b, "%s: %s\n", entry.Role, truncate(entry.Content, 500))
	}
	return b.String()
}

func formatLeadHTML(lead *leads.Lead) string {
	var b strings.Builder
	b.WriteString("<h2>New website chat lead</h2><table>")
	row := func(label, value string) {
		fmt.Fprintf(&b, "<tr><th align=\"left\">%s</th><td>%s</td></tr>", label, html.EscapeString(value))
	}
	row("Name", lead.Name)
	row("Email", lead.Email)
	row("Phone", lead.Phone)
	row("Service", lead.Service)
	if lead.AdditionalMessage != "" {
		row("Message", lead.AdditionalMessage)
	}
	row("Received", lead.CreatedAt.UTC().Format(time.RFC1123))
	b.WriteString("</table>")
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
