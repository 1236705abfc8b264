package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/assistaura/leadchat/internal/leads"
	"github.com/assistaura/leadchat/internal/observability/metrics"
	"github.com/assistaura/leadchat/pkg/logging"
)

var (
	// ErrBlankInput is returned for empty or whitespace-only submissions.
	ErrBlankInput = errors.New("conversation: blank input")
	// ErrBusy is returned while a generation or lead save is outstanding.
	ErrBusy = errors.New("conversation: session busy")
)

const (
	defaultAckDelay    = 2 * time.Second
	defaultPromptDelay = time.Second
	mirrorTimeout      = 2 * time.Second
)

// Generator produces assistant text for a freeform turn.
type Generator interface {
	Generate(ctx context.Context, userText string, history []Turn) Generation
}

// Persister stores a completed interview.
type Persister interface {
	Save(ctx context.Context, sessionID string, answers map[FieldName]string, transcript []Turn) (*leads.Lead, error)
}

// TranscriptMirror receives a copy of every appended turn.
type TranscriptMirror interface {
	Append(ctx context.Context, sessionID string, turn Turn) error
}

// Dependencies wires an Orchestrator. Generator and Persister are required.
type Dependencies struct {
	Generator Generator
	Persister Persister
	// Trigger defaults to ShouldStartInterview.
	Trigger   TriggerFunc
	Interview *InterviewEngine
	Mirror    TranscriptMirror
	Metrics   *metrics.ConversationMetrics
	Logger    *logging.Logger

	SupportEmail string
	// AckDelay and PromptDelay are pacing hints attached to the turns that
	// open an interview. Negative values disable them.
	AckDelay    time.Duration
	PromptDelay time.Duration
}

// PacedTurn is a newly appended turn with the pause a presentation layer
// should observe before showing it.
type PacedTurn struct {
	Turn  Turn
	Delay time.Duration
}

// Reply lists the turns appended by one submission, in order.
type Reply struct {
	Turns []PacedTurn
	Mode  Mode
	// Lead is set when the submission completed and stored an interview.
	Lead *leads.Lead
}

func (r *Reply) add(turn Turn, delay time.Duration) {
	r.Turns = append(r.Turns, PacedTurn{Turn: turn, Delay: delay})
}

// Orchestrator routes visitor turns for one session.
type Orchestrator struct {
	session   *Session
	generator Generator
	persister Persister
	trigger   TriggerFunc
	interview *InterviewEngine
	mirror    TranscriptMirror
	metrics   *metrics.ConversationMetrics
	logger    *logging.Logger

	ackDelay       time.Duration
	promptDelay    time.Duration
	saveFailedText string

	// unmirrored turns in append order, guarded by session.mu
	pending []Turn
	// serializes flushes so the mirror sees turns in order
	flushMu sync.Mutex
}

// NewOrchestrator takes ownership of session and seeds the greeting when the
// transcript is empty. The greeting reaches the mirror with the first
// submission.
func NewOrchestrator(session *Session, deps Dependencies) *Orchestrator {
	if session == nil {
		panic("conversation: session required")
	}
	if deps.Generator == nil {
		panic("conversation: generator required")
	}
	if deps.Persister == nil {
		panic("conversation: persister required")
	}
	if deps.Trigger == nil {
		deps.Trigger = ShouldStartInterview
	}
	if deps.Interview == nil {
		deps.Interview = NewInterviewEngine()
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	o := &Orchestrator{
		session:        session,
		generator:      deps.Generator,
		persister:      deps.Persister,
		trigger:        deps.Trigger,
		interview:      deps.Interview,
		mirror:         deps.Mirror,
		metrics:        deps.Metrics,
		logger:         deps.Logger.With("session_id", session.ID),
		ackDelay:       pacing(deps.AckDelay, defaultAckDelay),
		promptDelay:    pacing(deps.PromptDelay, defaultPromptDelay),
		saveFailedText: LeadSaveFailedText(deps.SupportEmail),
	}
	if o.mirror != nil {
		session.transcript.Observe(o.queueMirror)
	}

	session.mu.Lock()
	if session.transcript.Len() == 0 {
		o.appendLocked(SpeakerAssistant, GreetingText)
	}
	session.mu.Unlock()
	return o
}

func pacing(d, def time.Duration) time.Duration {
	switch {
	case d < 0:
		return 0
	case d == 0:
		return def
	default:
		return d
	}
}

// Session returns the session this orchestrator drives.
func (o *Orchestrator) Session() *Session { return o.session }

// Transcript returns a snapshot of the session's turns.
func (o *Orchestrator) Transcript() []Turn { return o.session.transcript.All() }

// IsBusy reports whether new submissions are currently refused.
func (o *Orchestrator) IsBusy() bool {
	s := o.session
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy || s.mode == ModeSaving
}

// Mode reports the session's current mode.
func (o *Orchestrator) Mode() Mode {
	s := o.session
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Submit handles one visitor turn. Blank text returns ErrBlankInput and a
// submission while a gateway call is outstanding returns ErrBusy; neither
// appends a turn. Gateway calls are detached from ctx's cancellation so
// their results are always applied.
func (o *Orchestrator) Submit(ctx context.Context, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, ErrBlankInput
	}

	s := o.session
	s.mu.Lock()
	if s.busy || s.mode == ModeSaving {
		s.mu.Unlock()
		return Reply{}, ErrBusy
	}
	s.lastActive = s.now()

	var (
		reply Reply
		err   error
	)
	if s.mode == ModeInterviewing {
		reply, err = o.answerLocked(ctx, text)
	} else {
		reply, err = o.converseLocked(ctx, text)
	}
	o.flushMirror()
	return reply, err
}

// converseLocked runs a freeform exchange. Called with s.mu held; returns
// with it released.
func (o *Orchestrator) converseLocked(ctx context.Context, text string) (Reply, error) {
	s := o.session
	history := s.transcript.All()

	var reply Reply
	reply.add(o.appendLocked(SpeakerVisitor, text), 0)
	s.busy = true
	s.mu.Unlock()

	gen := o.generator.Generate(context.WithoutCancel(ctx), text, history)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	reply.add(o.appendLocked(SpeakerAssistant, gen.Text), 0)

	// The fallback text is ours, not the model's, so only the visitor's words
	// count toward the trigger after a failure.
	assistantText := gen.Text
	if gen.Failed {
		assistantText = ""
	}
	if o.trigger(text, assistantText) {
		progress, prompt := o.interview.Start()
		reply.add(o.appendLocked(SpeakerAssistant, InterviewAckText), o.ackDelay)
		reply.add(o.appendLocked(SpeakerAssistant, prompt), o.promptDelay)
		s.progress = progress
		s.mode = ModeInterviewing
		o.metrics.InterviewStarted()
		o.logger.Info("interview started")
	}
	reply.Mode = s.mode
	return reply, nil
}

// answerLocked feeds an interview answer. Called with s.mu held; returns with
// it released.
func (o *Orchestrator) answerLocked(ctx context.Context, text string) (Reply, error) {
	s := o.session

	var reply Reply
	reply.add(o.appendLocked(SpeakerVisitor, text), 0)

	next, complete := o.interview.Accept(s.progress, text)
	if !complete {
		reply.add(o.appendLocked(SpeakerAssistant, next), 0)
		reply.Mode = s.mode
		s.mu.Unlock()
		return reply, nil
	}

	s.mode = ModeSaving
	answers := copyAnswers(s.progress.Answers)
	transcript := s.transcript.All()
	s.mu.Unlock()

	lead, err := o.persister.Save(context.WithoutCancel(ctx), s.ID, answers, transcript)

	s.mu.Lock()
	defer s.mu.Unlock()
	// Progress is discarded either way; after a failed save the visitor
	// starts over by showing intent again.
	s.progress = nil
	s.mode = ModeFreeform
	if err != nil {
		reply.add(o.appendLocked(SpeakerAssistant, o.saveFailedText), 0)
	} else {
		reply.Lead = lead
		reply.add(o.appendLocked(SpeakerAssistant, LeadSavedText), 0)
	}
	reply.Mode = s.mode
	return reply, nil
}

func (o *Orchestrator) appendLocked(speaker Speaker, text string) Turn {
	turn := o.session.transcript.Append(speaker, text)
	o.metrics.ObserveTurn(string(speaker), string(o.session.mode))
	return turn
}

// queueMirror runs inside Transcript.Append, which is only called with
// session.mu held.
func (o *Orchestrator) queueMirror(turn Turn) {
	o.pending = append(o.pending, turn)
}

// flushMirror copies queued turns to the mirror. It must be called without
// session.mu held; mirror latency never blocks the session.
func (o *Orchestrator) flushMirror() {
	if o.mirror == nil {
		return
	}
	o.flushMu.Lock()
	defer o.flushMu.Unlock()

	s := o.session
	s.mu.Lock()
	turns := o.pending
	o.pending = nil
	s.mu.Unlock()

	for _, turn := range turns {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		if err := o.mirror.Append(ctx, s.ID, turn); err != nil {
			o.logger.Warn("failed to mirror transcript turn", "error", err, "turn_id", turn.ID)
		}
		cancel()
	}
}
