package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assistaura/leadchat/internal/leads"
)

// mockS3Client records PutObject/GetObject calls for testing.
type mockS3Client struct {
	putCalls []putCall
	objects  map[string][]byte // key -> body
	getErr   error
	putErr   error
}

type putCall struct {
	bucket string
	key    string
	body   []byte
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	body, _ := io.ReadAll(input.Body)
	m.putCalls = append(m.putCalls, putCall{
		bucket: *input.Bucket,
		key:    *input.Key,
		body:   body,
	})
	m.objects[*input.Key] = body
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(data)),
	}, nil
}

func testLead(id string) *leads.Lead {
	at := time.Date(2026, 4, 2, 17, 30, 0, 0, time.UTC)
	return &leads.Lead{
		ID:        id,
		SessionID: "sess-1",
		Name:      "Jane Doe",
		Email:     "jane@example.com",
		Phone:     "330-333-2654",
		Service:   "Web Development",
		Transcript: []leads.TranscriptEntry{
			{ID: "t1", Role: "user", Content: "my email is jane@example.com", Timestamp: at},
			{ID: "t2", Role: "assistant", Content: "Thanks!", Timestamp: at},
		},
		CreatedAt: at,
	}
}

func newTestStore(mock *mockS3Client) *Store {
	store := NewStore(mock, "test-bucket", nil)
	store.now = func() time.Time { return time.Date(2026, 4, 2, 18, 0, 0, 0, time.UTC) }
	return store
}

func TestStore_LeadCaptured(t *testing.T) {
	mock := newMockS3()
	store := newTestStore(mock)

	require.NoError(t, store.LeadCaptured(context.Background(), testLead("lead-1")))

	// record + manifest
	require.Len(t, mock.putCalls, 2)
	assert.Equal(t, "test-bucket", mock.putCalls[0].bucket)
	assert.Equal(t, "leads/v1/by-date/2026/04/02/lead-1.json", mock.putCalls[0].key)

	var stored LeadRecord
	require.NoError(t, json.Unmarshal(mock.putCalls[0].body, &stored))
	assert.Equal(t, "lead-1", stored.LeadID)
	assert.Equal(t, "sess-1", stored.SessionID)
	assert.Equal(t, "Web Development", stored.Service)
	assert.Equal(t, HashContact("jane@example.com", ""), stored.ContactHash)
	assert.Equal(t, 2, stored.MessageCount)
	assert.Equal(t, "my email is [EMAIL]", stored.Messages[0].Content)
	assert.NotContains(t, string(mock.putCalls[0].body), "jane@example.com")
	assert.NotContains(t, string(mock.putCalls[0].body), "Jane Doe")

	assert.Equal(t, "leads/v1/manifests/2026-04.jsonl", mock.putCalls[1].key)
	var entry ManifestEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(mock.putCalls[1].body), &entry))
	assert.Equal(t, "lead-1", entry.LeadID)
	assert.Equal(t, "leads/v1/by-date/2026/04/02/lead-1.json", entry.S3Key)
}

func TestStore_ManifestAppends(t *testing.T) {
	mock := newMockS3()
	store := newTestStore(mock)

	require.NoError(t, store.LeadCaptured(context.Background(), testLead("lead-1")))
	require.NoError(t, store.LeadCaptured(context.Background(), testLead("lead-2")))

	manifest := string(mock.objects["leads/v1/manifests/2026-04.jsonl"])
	lines := strings.Split(strings.TrimSpace(manifest), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "lead-1")
	assert.Contains(t, lines[1], "lead-2")
}

func TestStore_ManifestReadErrorDoesNotFailArchive(t *testing.T) {
	mock := newMockS3()
	mock.getErr = errors.New("access denied")
	store := newTestStore(mock)

	require.NoError(t, store.LeadCaptured(context.Background(), testLead("lead-1")))
	require.Len(t, mock.putCalls, 1)
}

func TestStore_PutError(t *testing.T) {
	mock := newMockS3()
	mock.putErr = errors.New("throttled")
	store := newTestStore(mock)

	err := store.LeadCaptured(context.Background(), testLead("lead-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestStore_Disabled(t *testing.T) {
	mock := newMockS3()
	store := NewStore(mock, "", nil)

	assert.False(t, store.Enabled())
	require.NoError(t, store.LeadCaptured(context.Background(), testLead("lead-1")))
	assert.Empty(t, mock.putCalls)

	var nilStore *Store
	assert.False(t, nilStore.Enabled())
	assert.Equal(t, "archive", store.Name())
}
