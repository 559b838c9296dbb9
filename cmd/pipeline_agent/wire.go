package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/jonathan/job-pipeline/internal/config"
	"github.com/jonathan/job-pipeline/internal/db"
	"github.com/jonathan/job-pipeline/internal/docgen"
	"github.com/jonathan/job-pipeline/internal/llm"
	"github.com/jonathan/job-pipeline/internal/pipeline"
	"github.com/jonathan/job-pipeline/internal/processing"
	"github.com/jonathan/job-pipeline/internal/scoring"
	"github.com/jonathan/job-pipeline/internal/sources"
	"github.com/jonathan/job-pipeline/internal/tailoring"
	"github.com/jonathan/job-pipeline/internal/types"
)

// defaultProfilePath is used when neither config nor flags name a profile.
const defaultProfilePath = "profile.json"

// app holds the wired components shared by the run and serve commands.
type app struct {
	cfg      config.Config
	profile  *types.Profile
	database *db.DB
	llm      *llm.GeminiClient
	engine   *pipeline.Engine
	log      zerolog.Logger
}

// buildApp loads configuration, connects to external services, and wires the
// pipeline engine. The caller owns the returned app and must Close it.
func buildApp(ctx context.Context, cfg config.Config) (*app, error) {
	// Infrastructure values fall back to the environment so a bare
	// .env-driven deployment needs no config file.
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.WebhookURL == "" {
		cfg.WebhookURL = os.Getenv("WEBHOOK_URL")
	}
	if cfg.ProfilePath == "" {
		cfg.ProfilePath = defaultProfilePath
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL is required (set DATABASE_URL or database_url in config)")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or api_key in config)")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.ApplyDefaults()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if cfg.Verbose {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	llmClient, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	httpClient, err := sources.NewHTTPClient()
	if err != nil {
		database.Close()
		_ = llmClient.Close()
		return nil, fmt.Errorf("failed to create source HTTP client: %w", err)
	}

	aggregator := sources.NewAggregator(sources.Registry(httpClient), log)

	scorer := scoring.NewOrchestrator(
		database,
		scoring.NewGeminiScorer(llmClient),
		scoring.DefaultSponsorIndex(),
		log,
	)

	processor := processing.NewProcessor(
		database,
		tailoring.NewGeminiTailorer(llmClient),
		tailoring.NewGeminiProjectSelector(llmClient),
		docgen.NewChromePDF(profile, cfg.OutputDir),
		log,
	)

	engine := pipeline.NewEngine(cfg, profile, pipeline.Deps{
		Discoverer: aggregator,
		Jobs:       database,
		Runs:       database,
		Scorer:     scorer,
		Processor:  processor,
		Notifier:   pipeline.NewNotifier(cfg.WebhookURL, log),
	}, log)

	return &app{
		cfg:      cfg,
		profile:  profile,
		database: database,
		llm:      llmClient,
		engine:   engine,
		log:      log,
	}, nil
}

// Close releases the app's external connections.
func (a *app) Close() {
	if a.llm != nil {
		_ = a.llm.Close()
	}
	if a.database != nil {
		a.database.Close()
	}
}

// loadConfigFile reads and merges the optional --config file.
func loadConfigFile(path string) (config.Config, error) {
	if path == "" {
		return config.Config{}, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return *cfg, nil
}
