package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/assistaura/leadchat/internal/leads"
)

const (
	// SubjectLeadCaptured is the NATS subject a stored lead is announced on.
	SubjectLeadCaptured = "leads.captured"
	// EventTypeLeadCaptured labels the event on transports without subjects.
	EventTypeLeadCaptured = "lead.captured.v1"
)

// LeadCapturedV1 is published once a completed interview has been stored.
// The transcript stays in the lead store; consumers fetch it by LeadID.
type LeadCapturedV1 struct {
	EventID           string    `json:"event_id"`
	LeadID            string    `json:"lead_id"`
	SessionID         string    `json:"session_id"`
	Name              string    `json:"name"`
	Email             string    `json:"email,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	Service           string    `json:"service"`
	AdditionalMessage string    `json:"additional_message,omitempty"`
	TranscriptTurns   int       `json:"transcript_turns"`
	CapturedAt        time.Time `json:"captured_at"`
	PublishedAt       time.Time `json:"published_at"`
}

func newLeadCapturedV1(lead *leads.Lead, publishedAt time.Time) LeadCapturedV1 {
	return LeadCapturedV1{
		EventID:           uuid.NewString(),
		LeadID:            lead.ID,
		SessionID:         lead.SessionID,
		Name:              lead.Name,
		Email:             lead.Email,
		Phone:             lead.Phone,
		Service:           lead.Service,
		AdditionalMessage: lead.AdditionalMessage,
		TranscriptTurns:   len(lead.Transcript),
		CapturedAt:        lead.CreatedAt,
		PublishedAt:       publishedAt,
	}
}
