package insight

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordersense/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestExecutor(store domain.OrderStore) *Executor {
	return NewExecutor(store, testLogger())
}

func TestExecutorPriceOrderIsNumericNotLexical(t *testing.T) {
	store := newStubStore([]domain.Row{
		orderRow("A-1", "2024-01-01", "5", "Praha", "done"),
		orderRow("A-2", "2024-02-01", "9", "Brno", "done"),
		orderRow("A-3", "2024-03-01", "10", "Praha", "done"),
	})
	exec := newTestExecutor(store)

	rows, total, err := exec.Execute(context.Background(), "orders", domain.Plan{
		Order: &domain.Ordering{Column: "total_price", Ascending: false},
		Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Lexical ordering would give 9, 5, 10.
	assert.Equal(t, "10", rows[0]["total_price"])
	assert.Equal(t, "9", rows[1]["total_price"])
	assert.Equal(t, "5", rows[2]["total_price"])

	require.NotNil(t, total)
	assert.Equal(t, int64(3), *total)
}

func TestExecutorPriceOrderAscending(t *testing.T) {
	store := newStubStore([]domain.Row{
		orderRow("A-1", "2024-01-01", "30", "Praha", "done"),
		orderRow("A-2", "2024-02-01", "100", "Brno", "done"),
		orderRow("A-3", "2024-03-01", "5", "Praha", "done"),
	})
	exec := newTestExecutor(store)

	rows, _, err := exec.Execute(context.Background(), "orders", domain.Plan{
		Order: &domain.Ordering{Column: "total_price", Ascending: true},
		Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "5", rows[0]["total_price"])
	assert.Equal(t, "30", rows[1]["total_price"])
	assert.Equal(t, "100", rows[2]["total_price"])
}

func TestExecutorDedupeKeepsGreatestPrice(t *testing.T) {
	store := newStubStore([]domain.Row{
		orderRow("OBJ-1", "2024-01-01", "40", "Praha", "done"),
		orderRow("OBJ-1", "2024-01-01", "55", "Praha", "done"),
		orderRow("OBJ-2", "2024-01-02", "20", "Brno", "done"),
	})
	exec := newTestExecutor(store)

	rows, total, err := exec.Execute(context.Background(), "orders_cz", domain.Plan{
		Order: &domain.Ordering{Column: "total_price", Ascending: false},
		Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "OBJ-1", rows[0]["code"])
	assert.Equal(t, "55", rows[0]["total_price"])
	require.NotNil(t, total)
	assert.Equal(t, int64(2), *total)
}

func TestExecutorCountDistinctSweepsAllPages(t *testing.T) {
	// Three full pages plus a partial one; 7 distinct codes spread
	// across them. A single-page fetch would undercount.
	const rowCount = 3*sweepPageSize + 250
	rows := make([]domain.Row, 0, rowCount)
	for i := 0; i < rowCount; i++ {
		rows = append(rows, orderRow(fmt.Sprintf("OBJ-%d", i%7), "2024-05-01", "10", "Praha", "done"))
	}
	store := newStubStore(rows)
	exec := newTestExecutor(store)

	out, total, err := exec.Execute(context.Background(), "orders_cz", domain.Plan{
		Aggregation: &domain.Aggregation{Type: domain.AggCountDistinct, Column: "code"},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(7), out[0][keyOrderCount])
	require.NotNil(t, total)
	assert.Equal(t, int64(7), *total)
	// 3 full pages, 1 short page.
	assert.Equal(t, 4, store.selectCalls)
}

func TestExecutorSweepErrorKeepsPartialResults(t *testing.T) {
	rows := make([]domain.Row, 0, 2*sweepPageSize)
	for i := 0; i < 2*sweepPageSize; i++ {
		rows = append(rows, orderRow(fmt.Sprintf("OBJ-%d", i), "2024-05-01", "10", "Praha", "done"))
	}
	store := newStubStore(rows)
	store.failAtOffset = sweepPageSize // second page errors
	exec := newTestExecutor(store)

	out, _, err := exec.Execute(context.Background(), "orders_cz", domain.Plan{
		Aggregation: &domain.Aggregation{Type: domain.AggCountDistinct, Column: "code"},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(sweepPageSize), out[0][keyOrderCount])
}

func TestExecutorCountRespectsFilters(t *testing.T) {
	store := newStubStore([]domain.Row{
		orderRow("A-1", "2024-01-01", "10", "Praha", "done"),
		orderRow("A-2", "2024-06-01", "20", "Brno", "done"),
		orderRow("A-3", "2023-12-31", "30", "Praha", "done"),
	})
	exec := newTestExecutor(store)

	out, total, err := exec.Execute(context.Background(), "orders", domain.Plan{
		Filters: []domain.Filter{
			{Column: "order_date", Op: domain.OpGte, Value: "2024-01-01"},
			{Column: "order_date", Op: domain.OpLte, Value: "2024-12-31"},
		},
		Aggregation: &domain.Aggregation{Type: domain.AggCount},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(2), out[0][keyRowCount])
	require.NotNil(t, total)
	assert.Equal(t, int64(2), *total)
}

func TestExecutorGroupedSumRoundsToTwoDecimals(t *testing.T) {
	store := newStubStore([]domain.Row{
		orderRow("OBJ-1", "2024-01-01", "10.105", "Praha", "done"),
		orderRow("OBJ-1", "2024-01-01", "20.20", "Praha", "done"),
		orderRow("OBJ-2", "2024-01-02", "5.5", "Praha", "done"),
		orderRow("OBJ-3", "2024-01-03", "100", "Brno", "done"),
		orderRow("OBJ-3", "2024-01-03", "50", "Brno", "done"),
	})
	exec := newTestExecutor(store)

	out, _, err := exec.Execute(context.Background(), "orders_cz", domain.Plan{
		Aggregation: &domain.Aggregation{
			Type:    domain.AggSum,
			Column:  "total_price",
			GroupBy: "bill_city",
		},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Praha: 2 distinct orders, 3 items; Brno: 1 order, 2 items. Groups
	// are ordered by order count descending.
	praha := out[0]
	assert.Equal(t, "Praha", praha["bill_city"])
	assert.Equal(t, int64(2), praha[keyOrderCount])
	assert.Equal(t, int64(3), praha[keyItemCount])
	assert.InDelta(t, 35.81, praha[keySum].(float64), 0.001)

	brno := out[1]
	assert.Equal(t, "Brno", brno["bill_city"])
	assert.Equal(t, int64(1), brno[keyOrderCount])
	assert.Equal(t, int64(2), brno[keyItemCount])
	assert.InDelta(t, 150.00, brno[keySum].(float64), 0.001)
}

func TestExecutorGroupedAvg(t *testing.T) {
	store := newStubStore([]domain.Row{
		orderRow("OBJ-1", "2024-01-01", "10", "Praha", "done"),
		orderRow("OBJ-2", "2024-01-02", "20", "Praha", "done"),
		orderRow("OBJ-3", "2024-01-03", "31", "Praha", "done"),
	})
	exec := newTestExecutor(store)

	out, _, err := exec.Execute(context.Background(), "orders", domain.Plan{
		Aggregation: &domain.Aggregation{
			Type:    domain.AggAvg,
			Column:  "total_price",
			GroupBy: "bill_city",
		},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, 20.33, out[0][keyAvg].(float64), 0.001)
}

func TestExecutorDeterministicWithoutRandom(t *testing.T) {
	store := newStubStore([]domain.Row{
		orderRow("A-1", "2024-01-01", "10", "Praha", "done"),
		orderRow("A-2", "2024-02-01", "20", "Brno", "new"),
		orderRow("A-3", "2024-03-01", "30", "Praha", "done"),
	})
	exec := newTestExecutor(store)

	plan := domain.Plan{
		Filters: []domain.Filter{{Column: "status", Op: domain.OpEq, Value: "done"}},
		Limit:   10,
	}
	first, _, err := exec.Execute(context.Background(), "orders", plan)
	require.NoError(t, err)
	second, _, err := exec.Execute(context.Background(), "orders", plan)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExecutorRandomReturnsSubsetOfFilteredSet(t *testing.T) {
	rows := make([]domain.Row, 0, 40)
	for i := 0; i < 40; i++ {
		rows = append(rows, orderRow(fmt.Sprintf("A-%d", i), "2024-01-01", "10", "Praha", "done"))
	}
	store := newStubStore(rows)
	exec := newTestExecutor(store)

	out, _, err := exec.Execute(context.Background(), "orders", domain.Plan{
		Random: true,
		Limit:  5,
	})
	require.NoError(t, err)
	assert.Len(t, out, 5)

	codes := make(map[string]bool)
	for _, row := range rows {
		codes[row["code"].(string)] = true
	}
	for _, row := range out {
		assert.True(t, codes[row["code"].(string)], "row outside the filtered set")
	}
}

func TestExecutorSkipsComputedOrderColumn(t *testing.T) {
	store := newStubStore([]domain.Row{
		orderRow("A-1", "2024-01-01", "10", "Praha", "done"),
	})
	exec := newTestExecutor(store)

	out, _, err := exec.Execute(context.Background(), "orders", domain.Plan{
		Order: &domain.Ordering{Column: "(julianday(order_date))", Ascending: true},
		Limit: 10,
	})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestExecutorCapsOutputAtMaxResultRows(t *testing.T) {
	rows := make([]domain.Row, 0, 300)
	for i := 0; i < 300; i++ {
		rows = append(rows, orderRow(fmt.Sprintf("A-%d", i), "2024-01-01", "10", "Praha", "done"))
	}
	store := newStubStore(rows)
	exec := newTestExecutor(store)

	out, _, err := exec.Execute(context.Background(), "orders", domain.Plan{Limit: 500})
	require.NoError(t, err)
	assert.Len(t, out, domain.MaxResultRows)
}

func TestExecutorUnknownSource(t *testing.T) {
	exec := newTestExecutor(newStubStore(nil))
	_, _, err := exec.Execute(context.Background(), "nonsense", domain.Plan{})
	require.Error(t, err)
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}
