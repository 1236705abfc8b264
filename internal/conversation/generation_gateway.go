package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/assistaura/leadchat/internal/observability/metrics"
	"github.com/assistaura/leadchat/pkg/logging"
)

const (
	defaultHistoryWindow     = 10
	defaultGenerationTimeout = 30 * time.Second
)

var errEmptyCompletion = errors.New("conversation: empty completion")

// GenerationConfig tunes the gateway. Zero values pick defaults.
type GenerationConfig struct {
	Model         string
	HistoryWindow int
	Timeout       time.Duration
	SupportEmail  string
	MaxTokens     int32
	// Temperature < 0 keeps the provider default.
	Temperature float32
}

// Generation is the gateway's answer. Failed replies carry the fallback text.
type Generation struct {
	Text     string
	Failed   bool
	Provider string
}

// GenerationGateway renders the bounded prompt and calls the text generation
// service. It never returns an error: failures become fallback text.
type GenerationGateway struct {
	client        LLMClient
	cfg           GenerationConfig
	systemContext string
	fallbackText  string
	logger        *logging.Logger
	metrics       *metrics.ConversationMetrics
	tracer        trace.Tracer
}

func NewGenerationGateway(client LLMClient, cfg GenerationConfig, logger *logging.Logger, m *metrics.ConversationMetrics) *GenerationGateway {
	if client == nil {
		panic("conversation: llm client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = defaultHistoryWindow
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGenerationTimeout
	}
	return &GenerationGateway{
		client:        client,
		cfg:           cfg,
		systemContext: CompanyContext(cfg.SupportEmail),
		fallbackText:  GenerationFallbackText(cfg.SupportEmail),
		logger:        logger,
		metrics:       m,
		tracer:        otel.Tracer("leadchat.internal.conversation.generation"),
	}
}

// BuildPrompt renders system context, the last window turns of history, the
// new visitor text and a trailing cue for the assistant's continuation.
func BuildPrompt(systemContext string, history []Turn, userText string, window int) string {
	if window > 0 && len(history) > window {
		history = history[len(history)-window:]
	}

	var b strings.Builder
	b.WriteString(systemContext)
	b.WriteString("\n\nChat History:\n")
	for i, turn := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(turn.Speaker.Role())
		b.WriteString(": ")
		b.WriteString(turn.Text)
	}
	b.WriteString("\n\nUser: ")
	b.WriteString(userText)
	b.WriteString("\n\nAssistant:")
	return b.String()
}

// Generate asks the service to continue the conversation. history is the
// transcript before userText was appended.
func (g *GenerationGateway) Generate(ctx context.Context, userText string, history []Turn) Generation {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	ctx, span := g.tracer.Start(ctx, "conversation.generation.generate")
	defer span.End()
	span.SetAttributes(attribute.Int("history.turns", len(history)))

	req := LLMRequest{
		Model:       g.cfg.Model,
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: BuildPrompt(g.systemContext, history, userText, g.cfg.HistoryWindow)}},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	}

	started := time.Now()
	resp, err := g.client.Complete(ctx, req)
	elapsed := time.Since(started).Seconds()
	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = errEmptyCompletion
	}
	if err != nil {
		outcome := "error"
		if errors.Is(err, errEmptyCompletion) {
			outcome = "empty"
		}
		g.metrics.ObserveGeneration(outcome, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		g.logger.Error("text generation failed", "error", err, "elapsed_seconds", elapsed)
		return Generation{Text: g.fallbackText, Failed: true}
	}

	g.metrics.ObserveGeneration("ok", elapsed)
	span.SetAttributes(attribute.String("llm.provider", resp.Provider))
	return Generation{Text: resp.Text, Provider: resp.Provider}
}
