package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/assistaura/leadchat/cmd/mainconfig"
	"github.com/assistaura/leadchat/internal/api/router"
	"github.com/assistaura/leadchat/internal/archive"
	appconfig "github.com/assistaura/leadchat/internal/config"
	"github.com/assistaura/leadchat/internal/conversation"
	"github.com/assistaura/leadchat/internal/events"
	"github.com/assistaura/leadchat/internal/leads"
	"github.com/assistaura/leadchat/internal/notify"
	"github.com/assistaura/leadchat/internal/observability/metrics"
	"github.com/assistaura/leadchat/internal/webchat"
	"github.com/assistaura/leadchat/pkg/logging"
)

const generationTemperature = 0.7

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.NewWithFormat(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting leadchat API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"leads_backend", cfg.LeadsBackend,
		"llm_provider", cfg.LLMProvider,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// cleanup collects shutdown hooks, run in reverse order.
type cleanup []func()

func (c *cleanup) add(fn func()) { *c = append(*c, fn) }

func (c cleanup) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	var closers cleanup
	defer closers.run()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	m := metrics.NewConversationMetrics(prometheus.DefaultRegisterer)

	repo, err := setupLeadRepository(ctx, cfg, awsCfg, &closers)
	if err != nil {
		return err
	}

	llm, err := setupLLM(ctx, cfg, awsCfg, logger, &closers)
	if err != nil {
		return err
	}
	generator := conversation.NewGenerationGateway(llm, conversation.GenerationConfig{
		HistoryWindow: cfg.HistoryWindow,
		Timeout:       cfg.GenerationTimeout,
		SupportEmail:  cfg.SupportEmail,
		Temperature:   generationTemperature,
	}, logger, m)

	var (
		mirror  conversation.TranscriptMirror
		history webchat.HistoryReader
	)
	if redisClient := mainconfig.NewRedisClient(cfg); redisClient != nil {
		closers.add(func() { _ = redisClient.Close() })
		redisMirror := conversation.NewRedisTranscriptMirror(redisClient, 0)
		mirror, history = redisMirror, redisMirror
		logger.Info("redis transcript mirror enabled", "addr", cfg.RedisAddr)
	}

	observers := setupObservers(cfg, awsCfg, logger, &closers)
	persister := conversation.NewPersistenceGateway(repo, cfg.PersistenceTimeout, logger, m, observers...)
	// drain lead notifications before the observers' connections close
	closers.add(persister.Wait)

	sessions := webchat.NewRegistry(func(session *conversation.Session) *conversation.Orchestrator {
		return conversation.NewOrchestrator(session, conversation.Dependencies{
			Generator:    generator,
			Persister:    persister,
			Mirror:       mirror,
			Metrics:      m,
			Logger:       logger,
			SupportEmail: cfg.SupportEmail,
		})
	}, cfg.SessionIdleTTL, logger, m)
	go sessions.Run(ctx, 0)

	handler := router.New(&router.Config{
		Logger:             logger,
		WebChat:            webchat.NewHandler(sessions, history, logger),
		LeadsHandler:       leads.NewHandler(repo, logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})
	if cfg.AdminJWTSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET not set; lead dashboard endpoints are disabled")
	}

	// No read/write timeouts: hijacked websocket connections keep the
	// server's deadlines.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func setupLeadRepository(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, closers *cleanup) (leads.Repository, error) {
	switch cfg.LeadsBackend {
	case "", "memory":
		return leads.NewInMemoryRepository(), nil
	case "postgres":
		pool, err := mainconfig.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		closers.add(pool.Close)
		return leads.NewPostgresRepository(pool), nil
	case "dynamodb":
		return leads.NewDynamoRepository(dynamodb.NewFromConfig(awsCfg), cfg.LeadsTable), nil
	case "sqlite":
		db, err := leads.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		closers.add(func() { _ = db.Close() })
		repo := leads.NewSQLiteRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown LEADS_BACKEND %q", cfg.LeadsBackend)
	}
}

// setupLLM builds the configured provider, chained to the other one when it
// is also configured.
func setupLLM(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger, closers *cleanup) (conversation.LLMClient, error) {
	var gemini, bedrock conversation.LLMClient
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		client, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, err
		}
		closers.add(func() { _ = client.Close() })
		gemini = client
	}
	if strings.TrimSpace(cfg.BedrockModelID) != "" {
		bedrock = conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
	}

	primary, fallback := gemini, bedrock
	if cfg.LLMProvider == "bedrock" {
		primary, fallback = bedrock, gemini
	}
	if primary == nil {
		return nil, fmt.Errorf("llm provider %q is not configured", cfg.LLMProvider)
	}
	if fallback == nil {
		return primary, nil
	}
	logger.Info("llm fallback enabled", "primary", cfg.LLMProvider)
	return conversation.NewFallbackLLMClient(primary, fallback, logger), nil
}

// setupObservers wires the post-save fan-out: sales email, lead events on
// NATS or SQS, and the transcript archive. Each runs only when configured.
func setupObservers(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger, closers *cleanup) []conversation.LeadObserver {
	var observers []conversation.LeadObserver

	if recipients := splitList(cfg.LeadNotifyEmail); len(recipients) > 0 {
		observers = append(observers, notify.NewService(setupEmailSender(cfg, awsCfg, logger), recipients, logger))
	}

	if cfg.NATSURL != "" {
		pub, err := events.ConnectNATS(cfg.NATSURL, cfg.NATSToken, logger)
		if err != nil {
			logger.Error("nats unavailable; lead events disabled", "error", err)
		} else {
			closers.add(pub.Close)
			observers = append(observers, pub)
		}
	}

	if cfg.LeadEventsQueueURL != "" {
		observers = append(observers, events.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.LeadEventsQueueURL, logger))
	}

	if cfg.ArchiveBucket != "" {
		store := archive.NewStore(mainconfig.NewS3Client(awsCfg, cfg), cfg.ArchiveBucket, logger.Logger)
		observers = append(observers, store)
	}
	return observers
}

func setupEmailSender(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) notify.EmailSender {
	switch {
	case cfg.SendGridAPIKey != "":
		return notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	case cfg.SESFromEmail != "":
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail:        cfg.SESFromEmail,
			FromName:         cfg.SendGridFromName,
			ConfigurationSet: cfg.SESConfigSet,
		}, logger)
	default:
		logger.Warn("no email provider configured; lead notifications are logged only")
		return notify.NewStubEmailSender(logger)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
