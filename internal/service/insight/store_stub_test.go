package insight

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ordersense/internal/domain"
)

// stubStore is an in-memory domain.OrderStore with real pagination
// semantics, so sweep behavior can be exercised without SQLite.
type stubStore struct {
	rows []domain.Row

	// failAtOffset makes Select fail once the requested offset reaches
	// the value. -1 disables failure injection.
	failAtOffset int
	selectCalls  int
}

func newStubStore(rows []domain.Row) *stubStore {
	return &stubStore{rows: rows, failAtOffset: -1}
}

func orderRow(code, date, price, city, status string) domain.Row {
	return domain.Row{
		"code":        code,
		"order_date":  date,
		"total_price": price,
		"bill_city":   city,
		"status":      status,
	}
}

func (s *stubStore) Select(_ context.Context, sel domain.Selection) ([]domain.Row, error) {
	s.selectCalls++
	if s.failAtOffset >= 0 && sel.Offset >= s.failAtOffset {
		return nil, fmt.Errorf("stub store: injected failure at offset %d", sel.Offset)
	}

	var matched []domain.Row
	for _, row := range s.rows {
		if matchesFilters(row, sel.Filters) {
			matched = append(matched, row)
		}
	}

	if sel.Order != nil {
		col, asc := sel.Order.Column, sel.Order.Ascending
		sort.SliceStable(matched, func(i, j int) bool {
			a := stringValue(matched[i][col])
			b := stringValue(matched[j][col])
			if asc {
				return a < b
			}
			return a > b
		})
	}

	if sel.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[sel.Offset:]
	if sel.Limit > 0 && len(matched) > sel.Limit {
		matched = matched[:sel.Limit]
	}

	if len(sel.Columns) > 0 {
		matched = projectRows(matched, sel.Columns)
	}

	out := make([]domain.Row, len(matched))
	copy(out, matched)
	return out, nil
}

func (s *stubStore) Count(_ context.Context, _ string, filters []domain.Filter) (int64, error) {
	var n int64
	for _, row := range s.rows {
		if matchesFilters(row, filters) {
			n++
		}
	}
	return n, nil
}

func (s *stubStore) Insert(_ context.Context, _ string, _ []domain.Order) error { return nil }
func (s *stubStore) Clear(_ context.Context) error                              { return nil }

func matchesFilters(row domain.Row, filters []domain.Filter) bool {
	for _, f := range filters {
		v := stringValue(row[f.Column])
		switch f.Op {
		case domain.OpEq:
			if v != f.Value {
				return false
			}
		case domain.OpGt:
			if !(v > f.Value) {
				return false
			}
		case domain.OpGte:
			if !(v >= f.Value) {
				return false
			}
		case domain.OpLt:
			if !(v < f.Value) {
				return false
			}
		case domain.OpLte:
			if !(v <= f.Value) {
				return false
			}
		case domain.OpLike:
			if !strings.Contains(v, strings.Trim(f.Value, "%")) {
				return false
			}
		case domain.OpILike:
			if !strings.Contains(strings.ToLower(v), strings.ToLower(strings.Trim(f.Value, "%"))) {
				return false
			}
		default:
			return false
		}
	}
	return true
}
