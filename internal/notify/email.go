package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/assistaura/leadchat/pkg/logging"
)

const defaultFromName = "AssistAura"

// EmailSender delivers one email. SendGrid, SES and the stub implement it.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

type EmailMessage struct {
	To      string
	ToName  string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
	// Category tags the message in the provider's reporting.
	Category string
}

// htmlOrText falls back to the plain body so every message has an html part.
func (m EmailMessage) htmlOrText() string {
	if m.HTML != "" {
		return m.HTML
	}
	return m.Text
}

// sender is the From identity shared by the real providers.
type sender struct {
	email string
	name  string
}

func newSender(email, name string) sender {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultFromName
	}
	return sender{email: strings.TrimSpace(email), name: name}
}

func (s sender) header() string {
	return fmt.Sprintf("%s <%s>", s.name, s.email)
}

// StubEmailSender only logs. It stands in when no provider is configured.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Info("email delivery disabled, dropping message", "to", msg.To, "subject", msg.Subject, "category", msg.Category)
	return nil
}
