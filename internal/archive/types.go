package archive

import "time"

// LeadRecord is the JSON document written to S3 for each captured lead.
type LeadRecord struct {
	Version      string    `json:"version"` // "1.0"
	LeadID       string    `json:"lead_id"`
	SessionID    string    `json:"session_id"`
	Service      string    `json:"service"`
	ContactHash  string    `json:"contact_hash"` // sha256 of lowercased email, else phone
	CapturedAt   time.Time `json:"captured_at"`
	ArchivedAt   time.Time `json:"archived_at"`
	MessageCount int       `json:"message_count"`
	Messages     []Message `json:"messages"`
}

// Message is a single scrubbed chat message.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ManifestEntry is one line in the monthly JSONL manifest.
type ManifestEntry struct {
	LeadID       string `json:"lead_id"`
	S3Key        string `json:"s3_key"`
	Service      string `json:"service"`
	ArchivedAt   string `json:"archived_at"`
	MessageCount int    `json:"message_count"`
}
