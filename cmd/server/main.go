package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"triage-assistant/internal/config"
	"triage-assistant/internal/core"
	"triage-assistant/internal/db"
	httpserver "triage-assistant/internal/http"
	"triage-assistant/internal/llm"
	"triage-assistant/internal/taxonomy"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Open database connection
	dbConn, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer dbConn.Close()

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}
	if err := db.Migrate(context.Background(), dbConn); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	repo := db.NewRepository(dbConn)

	tax, err := taxonomy.Load()
	if err != nil {
		log.Fatalf("failed to load taxonomy: %v", err)
	}

	// A single model client is constructed at startup and shared across all
	// invocations; it holds no per-call state.
	var llmClient llm.Client
	switch cfg.LLMProvider {
	case "openai":
		llmClient = llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.LLMModel)
	default:
		llmClient = llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.LLMModel)
	}

	triage := core.NewService(llmClient, tax,
		cfg.ConfidenceThreshold,
		core.SubspecialtyPolicy(cfg.SubspecialtyPolicy),
		cfg.HistoryWindow)

	srv := httpserver.NewServer(triage, repo, cfg.AllowedOrigins)

	addr := ":" + cfg.Port
	log.Printf("Listening on %s (provider=%s threshold=%.2f policy=%s)",
		addr, cfg.LLMProvider, cfg.ConfidenceThreshold, cfg.SubspecialtyPolicy)
	if err := http.ListenAndServe(addr, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
