package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/assistaura/leadchat/internal/leads"
)

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store archives scrubbed lead transcripts to S3.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *slog.Logger
	now      func() time.Time
}

// NewStore creates an archive Store. If bucket is empty, all operations are no-ops.
func NewStore(s3Client S3API, bucket string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		bucket:   bucket,
		s3Client: s3Client,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Enabled returns true if archival is configured (bucket is set).
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

func (s *Store) Name() string { return "archive" }

// LeadCaptured archives the lead's transcript with contact details scrubbed.
func (s *Store) LeadCaptured(ctx context.Context, lead *leads.Lead) error {
	if !s.Enabled() || lead == nil {
		return nil
	}
	return s.Archive(ctx, newLeadRecord(lead, s.now()))
}

func newLeadRecord(lead *leads.Lead, archivedAt time.Time) *LeadRecord {
	messages := make([]Message, 0, len(lead.Transcript))
	for _, entry := range lead.Transcript {
		messages = append(messages, Message{
			Role:      entry.Role,
			Content:   ScrubPII(entry.Content),
			Timestamp: entry.Timestamp,
		})
	}
	return &LeadRecord{
		Version:      "1.0",
		LeadID:       lead.ID,
		SessionID:    lead.SessionID,
		Service:      lead.Service,
		ContactHash:  HashContact(lead.Email, lead.Phone),
		CapturedAt:   lead.CreatedAt,
		ArchivedAt:   archivedAt,
		MessageCount: len(messages),
		Messages:     messages,
	}
}

// Archive writes a LeadRecord as JSON and appends it to the monthly manifest.
func (s *Store) Archive(ctx context.Context, record *LeadRecord) error {
	if !s.Enabled() {
		return nil
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("archive: marshal record: %w", err)
	}

	at := record.ArchivedAt
	if at.IsZero() {
		at = s.now()
	}
	key := fmt.Sprintf("leads/v1/by-date/%d/%02d/%02d/%s.json", at.Year(), at.Month(), at.Day(), record.LeadID)

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put %s: %w", key, err)
	}

	s.logger.Info("archived lead transcript to S3", "lead_id", record.LeadID, "s3_key", key, "message_count", record.MessageCount)

	entry := ManifestEntry{
		LeadID:       record.LeadID,
		S3Key:        key,
		Service:      record.Service,
		ArchivedAt:   at.Format(time.RFC3339),
		MessageCount: record.MessageCount,
	}
	if err := s.appendManifest(ctx, at, entry); err != nil {
		// the record itself is stored
		s.logger.Warn("failed to append manifest", "error", err, "lead_id", record.LeadID)
	}
	return nil
}

// appendManifest read-modify-writes the month's JSONL manifest; S3 has no append.
func (s *Store) appendManifest(ctx context.Context, at time.Time, entry ManifestEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest entry: %w", err)
	}

	key := fmt.Sprintf("leads/v1/manifests/%d-%02d.jsonl", at.Year(), at.Month())

	var existing []byte
	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		existing, err = io.ReadAll(out.Body)
		out.Body.Close()
		if err != nil {
			return fmt.Errorf("archive: read manifest: %w", err)
		}
	case isNotFound(err):
		s.logger.Debug("manifest not found, creating new", "key", key)
	default:
		return fmt.Errorf("archive: s3 get manifest: %w", err)
	}

	var buf bytes.Buffer
	if len(existing) > 0 {
		buf.Write(existing)
		if existing[len(existing)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	buf.Write(line)
	buf.WriteByte('\n')

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put manifest: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	return errors.As(err, &nsk)
}
