package conversation

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Mode is the session's routing state.
type Mode string

const (
	// ModeFreeform forwards visitor turns to text generation.
	ModeFreeform Mode = "freeform"
	// ModeInterviewing treats visitor turns as interview answers.
	ModeInterviewing Mode = "interviewing"
	// ModeSaving refuses turns until the lead write resolves.
	ModeSaving Mode = "saving"
)

// Session is one visitor's conversation state. It is owned by a single
// Orchestrator; nothing in it is shared across sessions.
type Session struct {
	ID         string
	transcript *Transcript

	mu         sync.Mutex
	mode       Mode
	progress   *InterviewProgress
	busy       bool
	lastActive time.Time
	now        func() time.Time
}

// NewSession creates an empty Freeform session. An empty id gets a fresh uuid.
func NewSession(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	s := &Session{
		ID:         id,
		transcript: NewTranscript(),
		mode:       ModeFreeform,
		now:        time.Now,
	}
	s.lastActive = s.now()
	return s
}

// LastActive reports when the session last accepted a submission.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Progress returns a copy of the live interview progress, if any.
func (s *Session) Progress() (InterviewProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.progress == nil {
		return InterviewProgress{}, false
	}
	return InterviewProgress{
		Answers:        copyAnswers(s.progress.Answers),
		NextFieldIndex: s.progress.NextFieldIndex,
	}, true
}

func copyAnswers(in map[FieldName]string) map[FieldName]string {
	out := make(map[FieldName]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
