package insight

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"ordersense/internal/domain"
)

const (
	// sweepPageSize is the fixed page length of a full paginated sweep.
	sweepPageSize = 1000
	// randomFetchFloor is the minimum pool size fetched before a random
	// sample is drawn.
	randomFetchFloor = 500
)

// Result row keys, matching the answer language of the original exports.
const (
	keyOrderCount    = "pocet_objednavek"
	keyItemCount     = "pocet_polozek"
	keyRowCount      = "pocet_radku"
	keySum           = "soucet"
	keyAvg           = "prumer"
	keyDistinctCount = "pocet_unikatnich_hodnot"
)

// Executor interprets validated plans against the store.
type Executor struct {
	store  domain.OrderStore
	logger *slog.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(store domain.OrderStore, logger *slog.Logger) *Executor {
	return &Executor{store: store, logger: logger}
}

// Execute runs the plan against the source and returns a bounded result
// set plus, where meaningful, a total count of unique entities.
//
// Paths that must see the entire filtered dataset to be correct
// (distinct counts, grouped aggregates, numeric ordering of text-typed
// prices) always sweep all pages; everything else is one bounded fetch.
func (e *Executor) Execute(ctx context.Context, sourceName string, plan domain.Plan) ([]domain.Row, *int64, error) {
	src, err := domain.LookupSource(sourceName)
	if err != nil {
		return nil, nil, err
	}

	limit := plan.Limit
	if limit <= 0 {
		limit = domain.DefaultLimit
	}
	if limit > domain.MaxResultRows {
		limit = domain.MaxResultRows
	}

	if plan.Aggregation != nil {
		return e.executeAggregation(ctx, src, plan, limit)
	}

	if plan.Order != nil && isPriceColumn(plan.Order.Column) {
		return e.executePriceSorted(ctx, src, plan, limit)
	}

	return e.executeFetch(ctx, src, plan, limit)
}

// executeFetch is the plain path: filters, optional ordering, one
// bounded fetch, optional in-memory random sample.
func (e *Executor) executeFetch(ctx context.Context, src domain.Source, plan domain.Plan, limit int) ([]domain.Row, *int64, error) {
	order := plan.Order
	if order != nil {
		// A parenthesis marks a computed expression the store cannot
		// sort on; an unknown column would be rejected outright.
		if strings.Contains(order.Column, "(") || !src.HasColumn(order.Column) {
			order = nil
		}
	}

	fetchLimit := limit
	if plan.Random {
		fetchLimit = limit * 3
		if fetchLimit < randomFetchFloor {
			fetchLimit = randomFetchFloor
		}
	}

	rows, err := e.store.Select(ctx, domain.Selection{
		Source:  src.Name,
		Columns: plan.Select,
		Filters: plan.Filters,
		Order:   order,
		Limit:   fetchLimit,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("fetch rows: %w", err)
	}

	if plan.Random {
		shuffle(rows)
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil, nil
}

// executePriceSorted handles ordering on a price column. Prices are
// decimal text, so the store's lexical ORDER BY would put "9" after
// "10"; instead the whole filtered set is swept, deduplicated by code,
// and sorted numerically in memory.
func (e *Executor) executePriceSorted(ctx context.Context, src domain.Source, plan domain.Plan, limit int) ([]domain.Row, *int64, error) {
	priceCol := plan.Order.Column

	var all []domain.Row
	e.sweep(ctx, src.Name, plan.Filters, nil, func(page []domain.Row) {
		all = append(all, page...)
	})

	if src.LineItems {
		all = dedupeByCode(all, priceCol)
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, _ := parsePrice(all[i][priceCol])
		b, _ := parsePrice(all[j][priceCol])
		if plan.Order.Ascending {
			return a < b
		}
		return a > b
	})

	total := int64(len(all))
	if len(all) > limit {
		all = all[:limit]
	}
	if len(plan.Select) > 0 {
		all = projectRows(all, plan.Select)
	}
	return all, &total, nil
}

// executeAggregation dispatches on the aggregation shape.
func (e *Executor) executeAggregation(ctx context.Context, src domain.Source, plan domain.Plan, limit int) ([]domain.Row, *int64, error) {
	agg := plan.Aggregation

	if agg.GroupBy != "" {
		return e.executeGrouped(ctx, src, plan, limit)
	}

	switch agg.Type {
	case domain.AggCount:
		// Filters are applied here deliberately: an unfiltered count of
		// the whole table when the plan carries filters silently answers
		// the wrong question.
		n, err := e.store.Count(ctx, src.Name, plan.Filters)
		if err != nil {
			return nil, nil, fmt.Errorf("count rows: %w", err)
		}
		return []domain.Row{{keyRowCount: n}}, &n, nil

	case domain.AggCountDistinct:
		column := agg.Column
		if column == "" || !src.HasColumn(column) {
			column = "code"
		}
		distinct := make(map[string]struct{})
		e.sweep(ctx, src.Name, plan.Filters, []string{column}, func(page []domain.Row) {
			for _, row := range page {
				if v := stringValue(row[column]); v != "" {
					distinct[v] = struct{}{}
				}
			}
		})
		n := int64(len(distinct))
		key := keyDistinctCount
		if column == "code" {
			key = keyOrderCount
		}
		return []domain.Row{{key: n}}, &n, nil

	case domain.AggSum, domain.AggAvg:
		var sum float64
		var count int64
		e.sweep(ctx, src.Name, plan.Filters, []string{agg.Column}, func(page []domain.Row) {
			for _, row := range page {
				if v, ok := parsePrice(row[agg.Column]); ok {
					sum += v
					count++
				}
			}
		})
		if agg.Type == domain.AggSum {
			return []domain.Row{{keySum: round2(sum)}}, &count, nil
		}
		avg := 0.0
		if count > 0 {
			avg = sum / float64(count)
		}
		return []domain.Row{{keyAvg: round2(avg)}}, &count, nil
	}

	return nil, nil, domain.ErrValidation("unsupported aggregation type %q", agg.Type)
}

type groupAccumulator struct {
	rows   int64
	sum    float64
	summed int64
	codes  map[string]struct{}
}

// executeGrouped sweeps the filtered set and emits one row per group
// with order count (distinct codes), item count (rows), and a rounded
// sum or average when the aggregation asks for one.
func (e *Executor) executeGrouped(ctx context.Context, src domain.Source, plan domain.Plan, limit int) ([]domain.Row, *int64, error) {
	agg := plan.Aggregation
	if !src.HasColumn(agg.GroupBy) {
		return nil, nil, domain.ErrValidation("cannot group by column %q", agg.GroupBy)
	}

	columns := []string{agg.GroupBy, "code"}
	if agg.Column != "" && src.HasColumn(agg.Column) {
		columns = append(columns, agg.Column)
	}

	groups := make(map[string]*groupAccumulator)
	var order []string
	e.sweep(ctx, src.Name, plan.Filters, columns, func(page []domain.Row) {
		for _, row := range page {
			key := stringValue(row[agg.GroupBy])
			acc, ok := groups[key]
			if !ok {
				acc = &groupAccumulator{codes: make(map[string]struct{})}
				groups[key] = acc
				order = append(order, key)
			}
			acc.rows++
			if code := stringValue(row["code"]); code != "" {
				acc.codes[code] = struct{}{}
			}
			if agg.Column != "" {
				if v, ok := parsePrice(row[agg.Column]); ok {
					acc.sum += v
					acc.summed++
				}
			}
		}
	})

	out := make([]domain.Row, 0, len(groups))
	for _, key := range order {
		acc := groups[key]
		row := domain.Row{
			agg.GroupBy:   key,
			keyOrderCount: int64(len(acc.codes)),
			keyItemCount:  acc.rows,
		}
		switch agg.Type {
		case domain.AggSum:
			row[keySum] = round2(acc.sum)
		case domain.AggAvg:
			avg := 0.0
			if acc.summed > 0 {
				avg = acc.sum / float64(acc.summed)
			}
			row[keyAvg] = round2(avg)
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i][keyOrderCount].(int64) > out[j][keyOrderCount].(int64)
	})

	total := int64(len(out))
	if len(out) > limit {
		out = out[:limit]
	}
	return out, &total, nil
}

// sweep performs a full paginated scan of the filtered set, invoking fn
// for every page. Pages are fetched sequentially; a short or empty page
// marks end-of-data. An erroring page also ends the sweep — results
// accumulated so far stay valid, a transient storage failure degrades
// completeness instead of failing the request.
func (e *Executor) sweep(ctx context.Context, source string, filters []domain.Filter, columns []string, fn func(page []domain.Row)) {
	for offset := 0; ; offset += sweepPageSize {
		page, err := e.store.Select(ctx, domain.Selection{
			Source:  source,
			Columns: columns,
			Filters: filters,
			Offset:  offset,
			Limit:   sweepPageSize,
		})
		if err != nil {
			e.logger.Warn("sweep page failed, treating as end of data",
				"source", source, "offset", offset, "error", err)
			return
		}
		if len(page) == 0 {
			return
		}
		fn(page)
		if len(page) < sweepPageSize {
			return
		}
	}
}

// dedupeByCode collapses line-item rows sharing one code, keeping the
// row whose price column holds the numerically greatest value. Rows
// without a code are kept as-is.
func dedupeByCode(rows []domain.Row, priceCol string) []domain.Row {
	best := make(map[string]int)
	out := rows[:0:0]
	for _, row := range rows {
		code := stringValue(row["code"])
		if code == "" {
			out = append(out, row)
			continue
		}
		idx, seen := best[code]
		if !seen {
			best[code] = len(out)
			out = append(out, row)
			continue
		}
		prev, _ := parsePrice(out[idx][priceCol])
		cur, _ := parsePrice(row[priceCol])
		if cur > prev {
			out[idx] = row
		}
	}
	return out
}

// projectRows narrows rows to the selected columns.
func projectRows(rows []domain.Row, columns []string) []domain.Row {
	out := make([]domain.Row, len(rows))
	for i, row := range rows {
		projected := make(domain.Row, len(columns))
		for _, c := range columns {
			if v, ok := row[c]; ok {
				projected[c] = v
			}
		}
		out[i] = projected
	}
	return out
}

// shuffle is an in-place Fisher-Yates shuffle.
func shuffle(rows []domain.Row) {
	for i := len(rows) - 1; i > 0; i-- {
		j := rand.Intn(i + 1) //nolint:gosec // sampling, not cryptography
		rows[i], rows[j] = rows[j], rows[i]
	}
}

// parsePrice converts decimal-like text to a float. Czech exports carry
// thousands spaces and decimal commas.
func parsePrice(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case string:
		s := strings.ReplaceAll(t, " ", "")
		s = strings.ReplaceAll(s, " ", "")
		s = strings.ReplaceAll(s, ",", ".")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// stringValue renders a scalar cell as a string key.
func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// isPriceColumn reports whether the column stores decimal text that the
// store would missort lexically.
func isPriceColumn(column string) bool {
	return column == "total_price" || column == "shipping_price"
}
