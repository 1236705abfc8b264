// Command chatcli runs the lead-capture conversation in a terminal against
// the configured text generation provider. Captured leads go to the
// configured LEADS_BACKEND (in-memory by default).
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joho/godotenv"

	"github.com/assistaura/leadchat/cmd/mainconfig"
	appconfig "github.com/assistaura/leadchat/internal/config"
	"github.com/assistaura/leadchat/internal/conversation"
	"github.com/assistaura/leadchat/internal/leads"
	"github.com/assistaura/leadchat/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := appconfig.Load()
	logger := logging.NewWithFormat("error", "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	llm, err := newLLM(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	repo, err := newRepository(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	orch := conversation.NewOrchestrator(conversation.NewSession(""), conversation.Dependencies{
		Generator: conversation.NewGenerationGateway(llm, conversation.GenerationConfig{
			HistoryWindow: cfg.HistoryWindow,
			Timeout:       cfg.GenerationTimeout,
			SupportEmail:  cfg.SupportEmail,
			Temperature:   0.7,
		}, logger, nil),
		Persister:    conversation.NewPersistenceGateway(repo, cfg.PersistenceTimeout, logger, nil),
		Logger:       logger,
		SupportEmail: cfg.SupportEmail,
	})

	if err := chat(ctx, orch, os.Stdin, os.Stdout, time.Sleep); err != nil {
		log.Fatal(err)
	}
}

func newLLM(ctx context.Context, cfg *appconfig.Config) (conversation.LLMClient, error) {
	if cfg.LLMProvider == "bedrock" {
		if cfg.BedrockModelID == "" {
			return nil, errors.New("BEDROCK_MODEL_ID is required for the bedrock provider")
		}
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID), nil
	}
	return conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
}

func newRepository(ctx context.Context, cfg *appconfig.Config) (leads.Repository, error) {
	if cfg.LeadsBackend != "sqlite" {
		return leads.NewInMemoryRepository(), nil
	}
	db, err := leads.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	repo := leads.NewSQLiteRepository(db)
	return repo, repo.Migrate(ctx)
}

// chat reads visitor lines from in until EOF, printing each assistant turn
// after its pacing delay.
func chat(ctx context.Context, orch *conversation.Orchestrator, in io.Reader, out io.Writer, sleep func(time.Duration)) error {
	for _, turn := range orch.Transcript() {
		fmt.Fprintf(out, "assistant> %s\n", turn.Text)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		reply, err := orch.Submit(ctx, scanner.Text())
		if errors.Is(err, conversation.ErrBlankInput) {
			continue
		}
		if err != nil {
			return err
		}
		for _, pt := range reply.Turns {
			if pt.Turn.Speaker != conversation.SpeakerAssistant {
				continue
			}
			sleep(pt.Delay)
			fmt.Fprintf(out, "assistant> %s\n", strings.TrimSpace(pt.Turn.Text))
		}
		if reply.Lead != nil {
			fmt.Fprintf(out, "[lead %s saved for %s]\n", reply.Lead.ID, reply.Lead.Service)
		}
	}
}
