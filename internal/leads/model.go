package leads

import (
	"strings"
	"time"
)

// Services is the catalogue visitors pick from during the interview.
var Services = []string{
	"CGI Ads",
	"Graphic Design",
	"Web Development",
	"Shopify Services",
	"Amazon Services",
	"Meta Ads",
}

// TranscriptEntry is one chat message stored alongside a lead.
type TranscriptEntry struct {
	ID        string    `json:"id" dynamodbav:"id"`
	Role      string    `json:"role" dynamodbav:"role"` // "user" or "assistant"
	Content   string    `json:"content" dynamodbav:"content"`
	Timestamp time.Time `json:"timestamp" dynamodbav:"timestamp"`
}

// Lead represents contact details captured by the chat interview
type Lead struct {
	ID                string            `json:"id" dynamodbav:"id"`
	SessionID         string            `json:"session_id" dynamodbav:"sessionId"`
	Name              string            `json:"name" dynamodbav:"name"`
	Email             string            `json:"email" dynamodbav:"email"`
	Phone             string            `json:"phone" dynamodbav:"phone"`
	Service           string            `json:"service" dynamodbav:"service"`
	AdditionalMessage string            `json:"additional_message,omitempty" dynamodbav:"additionalMessage,omitempty"`
	Transcript        []TranscriptEntry `json:"chat_history" dynamodbav:"chatHistory"`
	CreatedAt         time.Time         `json:"created_at" dynamodbav:"createdAt"`
}

// CreateLeadRequest carries a completed interview to the repository
type CreateLeadRequest struct {
	SessionID         string            `json:"session_id"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	Phone             string            `json:"phone"`
	Service           string            `json:"service"`
	AdditionalMessage string            `json:"additional_message"`
	Transcript        []TranscriptEntry `json:"chat_history"`
}

// Validate validates the create lead request. Formats are not checked; the
// interview accepts whatever the visitor typed.
func (r *CreateLeadRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if strings.TrimSpace(r.Email) == "" && strings.TrimSpace(r.Phone) == "" {
		return ErrMissingContact
	}
	if strings.TrimSpace(r.Service) == "" {
		return ErrMissingService
	}
	return nil
}

func (r *CreateLeadRequest) toLead(id string, createdAt time.Time) *Lead {
	transcript := make([]TranscriptEntry, len(r.Transcript))
	copy(transcript, r.Transcript)
	return &Lead{
		ID:                id,
		SessionID:         r.SessionID,
		Name:              r.Name,
		Email:             r.Email,
		Phone:             r.Phone,
		Service:           r.Service,
		AdditionalMessage: r.AdditionalMessage,
		Transcript:        transcript,
		CreatedAt:         createdAt,
	}
}

// ListFilter narrows the admin lead listing.
type ListFilter struct {
	// Search matches name or email case-insensitively, or a phone substring.
	Search string
	// Service is a case-insensitive substring of the chosen service.
	Service string
	// Day keeps leads created on the same UTC calendar day. Zero disables it.
	Day    time.Time
	Limit  int
	Offset int
}

// Matches reports whether the lead passes the filter's predicates.
func (f ListFilter) Matches(lead *Lead) bool {
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		if !strings.Contains(strings.ToLower(lead.Name), search) &&
			!strings.Contains(strings.ToLower(lead.Email), search) &&
			!strings.Contains(lead.Phone, strings.TrimSpace(f.Search)) {
			return false
		}
	}
	if service := strings.ToLower(strings.TrimSpace(f.Service)); service != "" {
		if !strings.Contains(strings.ToLower(lead.Service), service) {
			return false
		}
	}
	if !f.Day.IsZero() {
		start, end := f.dayBounds()
		created := lead.CreatedAt.UTC()
		if created.Before(start) || !created.Before(end) {
			return false
		}
	}
	return true
}

func (f ListFilter) dayBounds() (time.Time, time.Time) {
	d := f.Day.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// paginate applies offset and limit to an already ordered slice.
func (f ListFilter) paginate(leads []*Lead) []*Lead {
	if f.Offset > 0 {
		if f.Offset >= len(leads) {
			return []*Lead{}
		}
		leads = leads[f.Offset:]
	}
	if f.Limit > 0 && len(leads) > f.Limit {
		leads = leads[:f.Limit]
	}
	return leads
}
