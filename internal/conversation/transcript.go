package conversation

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/assistaura/leadchat/internal/leads"
)

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerVisitor   Speaker = "visitor"
	SpeakerAssistant Speaker = "assistant"
)

// Role maps the speaker onto the chat role used in prompts and stored lead
// transcripts.
func (s Speaker) Role() string {
	if s == SpeakerVisitor {
		return ChatRoleUser
	}
	return ChatRoleAssistant
}

// Turn is one message in a session. Turns are never modified after append.
type Turn struct {
	ID        string    `json:"id"`
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// TurnObserver is notified after every append, in append order.
type TurnObserver func(Turn)

// Transcript is the append-only turn log owned by one session.
type Transcript struct {
	mu        sync.RWMutex
	turns     []Turn
	observers []TurnObserver
	now       func() time.Time
}

func NewTranscript() *Transcript {
	return &Transcript{now: func() time.Time { return time.Now().UTC() }}
}

// Observe registers fn for future appends.
func (t *Transcript) Observe(fn TurnObserver) {
	if fn == nil {
		return
	}
	t.mu.Lock()
	t.observers = append(t.observers, fn)
	t.mu.Unlock()
}

// Append assigns an id and timestamp to a new turn and stores it.
func (t *Transcript) Append(speaker Speaker, text string) Turn {
	t.mu.Lock()
	turn := Turn{
		ID:        uuid.NewString(),
		Speaker:   speaker,
		Text:      text,
		CreatedAt: t.now(),
	}
	t.turns = append(t.turns, turn)
	observers := t.observers
	t.mu.Unlock()

	for _, fn := range observers {
		fn(turn)
	}
	return turn
}

// All returns a snapshot of every turn in chronological order.
func (t *Transcript) All() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Window returns the most recent n turns. n <= 0 returns everything.
func (t *Transcript) Window(n int) []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	start := 0
	if n > 0 && len(t.turns) > n {
		start = len(t.turns) - n
	}
	out := make([]Turn, len(t.turns)-start)
	copy(out, t.turns[start:])
	return out
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}

// toLeadTranscript converts turns to the stored chat_history shape.
func toLeadTranscript(turns []Turn) []leads.TranscriptEntry {
	out := make([]leads.TranscriptEntry, 0, len(turns))
	for _, turn := range turns {
		out = append(out, leads.TranscriptEntry{
			ID:        turn.ID,
			Role:      turn.Speaker.Role(),
			Content:   turn.Text,
			Timestamp: turn.CreatedAt,
		})
	}
	return out
}
