// Package app provides application-level wiring and dependency injection
// for ordersense.
package app

import (
	"database/sql"
	"log/slog"

	"ordersense/internal/config"
	"ordersense/internal/db/repository"
	"ordersense/internal/llm"
	"ordersense/internal/service/ingestion"
	"ordersense/internal/service/insight"
)

// Deps holds the external dependencies that main() must provide: config,
// database handles, and the logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
	// Oracle overrides the language-model client; nil wires the Anthropic
	// client from config. Tests inject deterministic stubs here.
	Oracle llm.Oracle
}

// Services groups the service pointers the API handler needs.
type Services struct {
	Insight   *insight.Service
	Ingestion *ingestion.Service
}

// App holds the fully-wired application.
type App struct {
	Services Services
}

// New wires repositories and services from the provided deps.
func New(deps Deps) *App {
	orderRepo := repository.NewOrderRepo(deps.WriteDB, deps.ReadDB)
	fileRepo := repository.NewUploadedFileRepo(deps.WriteDB, deps.ReadDB)

	oracle := deps.Oracle
	if oracle == nil {
		oracle = llm.NewAnthropicClient(deps.Cfg.AnthropicAPIKey, deps.Cfg.AnthropicModel)
	}

	insightSvc := insight.NewService(orderRepo, oracle, deps.Logger.With("component", "insight"))
	ingestionSvc := ingestion.NewService(orderRepo, fileRepo, deps.Logger.With("component", "ingestion"))

	return &App{
		Services: Services{
			Insight:   insightSvc,
			Ingestion: ingestionSvc,
		},
	}
}
