package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/assistaura/leadchat/internal/leads"
	"github.com/assistaura/leadchat/pkg/logging"
)

// natsConn is the part of *nats.Conn the publisher needs.
type natsConn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher announces captured leads on a NATS subject.
type NATSPublisher struct {
	conn    natsConn
	subject string
	logger  *logging.Logger
	now     func() time.Time
}

// ConnectNATS dials url and keeps reconnecting in the background while the
// server is unavailable.
func ConnectNATS(url, token string, logger *logging.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = logging.Default()
	}
	opts := []nats.Option{
		nats.Name("leadchat"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("events: nats connect: %w", err)
	}
	return NewNATSPublisher(nc, SubjectLeadCaptured, logger), nil
}

func NewNATSPublisher(conn natsConn, subject string, logger *logging.Logger) *NATSPublisher {
	if subject == "" {
		subject = SubjectLeadCaptured
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &NATSPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (p *NATSPublisher) Name() string { return "nats" }

// LeadCaptured publishes a LeadCapturedV1 and waits for the server to
// acknowledge the flush or ctx to expire.
func (p *NATSPublisher) LeadCaptured(ctx context.Context, lead *leads.Lead) error {
	if p == nil || p.conn == nil || lead == nil {
		return nil
	}
	evt := newLeadCapturedV1(lead, p.now())
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("events: marshal payload: %w", err)
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("events: publish %s: %w", p.subject, err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("events: flush %s: %w", p.subject, err)
	}
	p.logger.Debug("lead event published", "subject", p.subject, "lead_id", lead.ID, "event_id", evt.EventID)
	return nil
}

func (p *NATSPublisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}
