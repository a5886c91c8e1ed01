package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"ordersense/internal/domain"
	"ordersense/internal/llm"
)

// summaryRows is how many result rows are shown to the model; the full
// count is reported alongside.
const summaryRows = 10

// placeholderAnswer is returned when the summarization call fails. The
// computed result rows are still surfaced — only the prose is degraded.
const placeholderAnswer = "Výsledky jsou níže, shrnutí se nepodařilo vytvořit."

// Summarizer produces the short prose answer from the executed results.
type Summarizer struct {
	oracle llm.Oracle
	logger *slog.Logger
}

// NewSummarizer creates a Summarizer.
func NewSummarizer(oracle llm.Oracle, logger *slog.Logger) *Summarizer {
	return &Summarizer{oracle: oracle, logger: logger}
}

const summaryPrompt = `Jsi analytický asistent. Uživatel položil dotaz nad tabulkou objednávek
a dostal níže uvedené výsledky. Odpověz stručně česky, jednou až dvěma větami,
bez opakování tabulky.`

// Summarize asks the model for a short answer. A failed or non-text
// response yields the placeholder string, never an error.
func (s *Summarizer) Summarize(ctx context.Context, question string, rows []domain.Row, total int) string {
	shown := rows
	if len(shown) > summaryRows {
		shown = shown[:summaryRows]
	}
	sample, err := json.Marshal(shown)
	if err != nil {
		sample = []byte("[]")
	}

	user := fmt.Sprintf("Dotaz: %s\nPočet výsledků celkem: %d\nVýsledky (prvních %d): %s",
		question, total, len(shown), sample)

	answer, err := s.oracle.Complete(ctx, summaryPrompt, user)
	if err != nil || answer == "" {
		s.logger.Warn("summarization failed, using placeholder answer", "error", err)
		return placeholderAnswer
	}
	return answer
}
