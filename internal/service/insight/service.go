package insight

import (
	"context"
	"log/slog"
	"strings"

	"ordersense/internal/domain"
	"ordersense/internal/llm"
)

// failedAnswer is the user-visible answer when the single bounded fetch
// of a non-sweep path fails.
const failedAnswer = "Dotaz se nepodařilo vyhodnotit, zkuste to prosím znovu."

// AskResult is the response of one question: prose plus the bounded
// result rows it was computed from.
type AskResult struct {
	Answer  string
	Results []domain.Row
}

// Service orchestrates the pipeline: describe, plan, execute, summarize.
// Stages run strictly sequentially; each one degrades locally rather
// than failing the request.
type Service struct {
	describer  *Describer
	planner    *Planner
	executor   *Executor
	summarizer *Summarizer
	logger     *slog.Logger
}

// NewService wires the pipeline over the given store and oracle.
func NewService(store domain.OrderStore, oracle llm.Oracle, logger *slog.Logger) *Service {
	return &Service{
		describer:  NewDescriber(store, logger.With("component", "describer")),
		planner:    NewPlanner(oracle, logger.With("component", "planner")),
		executor:   NewExecutor(store, logger.With("component", "executor")),
		summarizer: NewSummarizer(oracle, logger.With("component", "summarizer")),
		logger:     logger,
	}
}

// Ask answers one natural-language question against a source. The only
// errors it returns are input errors (empty question, unknown source);
// everything downstream degrades into the answer text instead.
func (s *Service) Ask(ctx context.Context, question, sourceName string) (*AskResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrValidation("query text is required")
	}

	schema, err := s.describer.Describe(ctx, sourceName)
	if err != nil {
		return nil, err
	}

	plan := s.planner.Plan(ctx, question, schema)

	rows, total, err := s.executor.Execute(ctx, schema.Source.Name, plan)
	if err != nil {
		s.logger.Error("plan execution failed", "source", schema.Source.Name, "error", err)
		return &AskResult{Answer: failedAnswer, Results: []domain.Row{}}, nil
	}

	count := len(rows)
	if total != nil {
		count = int(*total)
	}
	answer := s.summarizer.Summarize(ctx, question, rows, count)

	if rows == nil {
		rows = []domain.Row{}
	}
	return &AskResult{Answer: answer, Results: rows}, nil
}
