package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/assistaura/leadchat/internal/leads"
	"github.com/assistaura/leadchat/internal/observability/metrics"
	"github.com/assistaura/leadchat/pkg/logging"
)

const defaultPersistenceTimeout = 15 * time.Second

// ErrPersistence wraps every failure to store a completed interview.
var ErrPersistence = errors.New("conversation: lead persistence failed")

// LeadObserver reacts to a stored lead (notifications, events, archives).
type LeadObserver interface {
	Name() string
	LeadCaptured(ctx context.Context, lead *leads.Lead) error
}

// PersistenceGateway turns a finished interview into a stored lead.
type PersistenceGateway struct {
	repo      leads.Repository
	timeout   time.Duration
	observers []LeadObserver
	logger    *logging.Logger
	metrics   *metrics.ConversationMetrics
	fanout    sync.WaitGroup
}

func NewPersistenceGateway(repo leads.Repository, timeout time.Duration, logger *logging.Logger, m *metrics.ConversationMetrics, observers ...LeadObserver) *PersistenceGateway {
	if repo == nil {
		panic("conversation: lead repository required")
	}
	if timeout <= 0 {
		timeout = defaultPersistenceTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PersistenceGateway{
		repo:      repo,
		timeout:   timeout,
		observers: observers,
		logger:    logger,
		metrics:   m,
	}
}

// Save stores the answers together with the full transcript. Observers are
// started after a successful write and run in the background; their failures
// are logged and never fail Save.
func (g *PersistenceGateway) Save(ctx context.Context, sessionID string, answers map[FieldName]string, transcript []Turn) (*leads.Lead, error) {
	req := &leads.CreateLeadRequest{
		SessionID:         sessionID,
		Name:              answers[FieldFullName],
		Email:             answers[FieldEmail],
		Phone:             answers[FieldPhone],
		Service:           answers[FieldServiceOfInterest],
		AdditionalMessage: answers[FieldAdditionalMessage],
		Transcript:        toLeadTranscript(transcript),
	}

	saveCtx, cancel := context.WithTimeout(ctx, g.timeout)
	lead, err := g.repo.Create(saveCtx, req)
	cancel()
	if err != nil {
		g.metrics.ObserveLeadSave(false)
		g.logger.Error("failed to save lead", "error", err, "session_id", sessionID)
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	g.metrics.ObserveLeadSave(true)
	g.logger.Info("lead captured", "lead_id", lead.ID, "session_id", sessionID, "service", lead.Service)

	g.dispatch(context.WithoutCancel(ctx), lead)
	return lead, nil
}

// dispatch runs every observer concurrently under one timeout.
func (g *PersistenceGateway) dispatch(ctx context.Context, lead *leads.Lead) {
	if len(g.observers) == 0 {
		return
	}
	g.fanout.Add(1)
	go func() {
		defer g.fanout.Done()
		ctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		var eg errgroup.Group
		for _, obs := range g.observers {
			eg.Go(func() error {
				if err := obs.LeadCaptured(ctx, lead); err != nil {
					g.metrics.ObserveObserverError(obs.Name())
					g.logger.Warn("lead observer failed", "observer", obs.Name(), "error", err, "lead_id", lead.ID)
				}
				return nil
			})
		}
		_ = eg.Wait()
	}()
}

// Wait blocks until every observer fan-out started so far has finished.
func (g *PersistenceGateway) Wait() {
	g.fanout.Wait()
}
