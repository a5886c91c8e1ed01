package insight

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ordersense/internal/domain"
	"ordersense/internal/llm"
)

func TestSummarizerReturnsModelAnswer(t *testing.T) {
	var seenUser string
	oracle := llm.Func(func(_ context.Context, _, user string) (string, error) {
		seenUser = user
		return "Celkem 2 objednávky.", nil
	})
	s := NewSummarizer(oracle, testLogger())

	answer := s.Summarize(context.Background(), "kolik bylo objednávek",
		[]domain.Row{{keyOrderCount: int64(2)}}, 2)

	assert.Equal(t, "Celkem 2 objednávky.", answer)
	assert.Contains(t, seenUser, "kolik bylo objednávek")
	assert.Contains(t, seenUser, "pocet_objednavek")
}

func TestSummarizerShowsAtMostTenRows(t *testing.T) {
	var seenUser string
	oracle := llm.Func(func(_ context.Context, _, user string) (string, error) {
		seenUser = user
		return "ok", nil
	})
	s := NewSummarizer(oracle, testLogger())

	rows := make([]domain.Row, 25)
	for i := range rows {
		rows[i] = domain.Row{"code": "X"}
	}
	s.Summarize(context.Background(), "ukaž objednávky", rows, len(rows))

	assert.Contains(t, seenUser, "Počet výsledků celkem: 25")
	assert.Equal(t, summaryRows, strings.Count(seenUser, `"code"`))
}

func TestSummarizerFailureYieldsPlaceholder(t *testing.T) {
	oracle := llm.Func(func(context.Context, string, string) (string, error) {
		return "", errors.New("model unreachable")
	})
	s := NewSummarizer(oracle, testLogger())

	answer := s.Summarize(context.Background(), "kolik bylo objednávek", nil, 0)
	assert.Equal(t, placeholderAnswer, answer)
}
