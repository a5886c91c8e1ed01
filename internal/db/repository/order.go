// Package repository implements the domain store interfaces on SQLite.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ordersense/internal/domain"
)

// OrderRepo implements domain.OrderStore. Every statement is scoped by
// source, columns are checked against the source whitelist, and values
// only ever travel through placeholders.
type OrderRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewOrderRepo creates a new OrderRepo. In single-pool mode, pass the
// same *sql.DB for both.
func NewOrderRepo(writeDB, readDB *sql.DB) *OrderRepo {
	return &OrderRepo{writeDB: writeDB, readDB: readDB}
}

var opToSQL = map[domain.Operator]string{
	domain.OpEq:  "=",
	domain.OpGt:  ">",
	domain.OpGte: ">=",
	domain.OpLt:  "<",
	domain.OpLte: "<=",
}

// buildWhere renders the source scope plus the plan filters. Unknown
// columns or operators are a programming error here — the planner
// validates plans before they reach the store.
func buildWhere(src domain.Source, filters []domain.Filter) (string, []interface{}, error) {
	clauses := []string{"source = ?"}
	args := []interface{}{src.Name}

	for _, f := range filters {
		if !src.HasColumn(f.Column) {
			return "", nil, domain.ErrValidation("column %q is not filterable", f.Column)
		}
		switch f.Op {
		case domain.OpLike:
			clauses = append(clauses, fmt.Sprintf("%s LIKE ?", f.Column))
			args = append(args, f.Value)
		case domain.OpILike:
			clauses = append(clauses, fmt.Sprintf("LOWER(%s) LIKE LOWER(?)", f.Column))
			args = append(args, f.Value)
		default:
			op, ok := opToSQL[f.Op]
			if !ok {
				return "", nil, domain.ErrValidation("unsupported operator %q", f.Op)
			}
			clauses = append(clauses, fmt.Sprintf("%s %s ?", f.Column, op))
			args = append(args, f.Value)
		}
	}

	return "WHERE " + strings.Join(clauses, " AND "), args, nil
}

// Select fetches one page of rows matching the selection.
func (r *OrderRepo) Select(ctx context.Context, sel domain.Selection) ([]domain.Row, error) {
	src, err := domain.LookupSource(sel.Source)
	if err != nil {
		return nil, err
	}

	cols := sel.Columns
	if len(cols) == 0 {
		cols = src.Columns()
	}
	for _, c := range cols {
		if !src.HasColumn(c) {
			return nil, domain.ErrValidation("column %q is not selectable", c)
		}
	}

	where, args, err := buildWhere(src, sel.Filters)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(" FROM orders ")
	sb.WriteString(where)

	if sel.Order != nil {
		if !src.HasColumn(sel.Order.Column) {
			return nil, domain.ErrValidation("column %q is not sortable", sel.Order.Column)
		}
		dir := "DESC"
		if sel.Order.Ascending {
			dir = "ASC"
		}
		fmt.Fprintf(&sb, " ORDER BY %s %s", sel.Order.Column, dir)
	} else {
		// Stable page boundaries for sweeps.
		sb.WriteString(" ORDER BY id ASC")
	}

	if sel.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d OFFSET %d", sel.Limit, sel.Offset)
	} else if sel.Offset > 0 {
		fmt.Fprintf(&sb, " LIMIT -1 OFFSET %d", sel.Offset)
	}

	rows, err := r.readDB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.Row
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		row := make(domain.Row, len(cols))
		for i, c := range cols {
			row[c] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return out, nil
}

// Count returns the exact number of rows matching the filters.
func (r *OrderRepo) Count(ctx context.Context, source string, filters []domain.Filter) (int64, error) {
	src, err := domain.LookupSource(source)
	if err != nil {
		return 0, err
	}
	where, args, err := buildWhere(src, filters)
	if err != nil {
		return 0, err
	}

	var n int64
	query := "SELECT COUNT(*) FROM orders " + where
	if err := r.readDB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

// Insert writes a batch of orders in one transaction.
func (r *OrderRepo) Insert(ctx context.Context, source string, orders []domain.Order) error {
	src, err := domain.LookupSource(source)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return nil
	}

	tx, err := r.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO orders (
		source, code, order_date, status, currency, email, phone,
		bill_full_name, bill_company, bill_street, bill_city, bill_zip, bill_country,
		vat_id, delivery_full_name, delivery_street, delivery_city, delivery_zip,
		delivery_country, total_price, shipping_price, payment_method,
		shipping_method, notes, raw_data
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	for i := range orders {
		o := &orders[i]
		_, err := stmt.ExecContext(ctx,
			src.Name, o.Code, o.OrderDate, o.Status, o.Currency, o.Email, o.Phone,
			o.BillFullName, o.BillCompany, o.BillStreet, o.BillCity, o.BillZip, o.BillCountry,
			o.VatID, o.DeliveryFullName, o.DeliveryStreet, o.DeliveryCity, o.DeliveryZip,
			o.DeliveryCountry, o.TotalPrice, o.ShippingPrice, o.PaymentMethod,
			o.ShippingMethod, o.Notes, o.RawData,
		)
		if err != nil {
			return fmt.Errorf("insert order %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert tx: %w", err)
	}
	return nil
}

// Clear deletes every order row.
func (r *OrderRepo) Clear(ctx context.Context) error {
	if _, err := r.writeDB.ExecContext(ctx, "DELETE FROM orders"); err != nil {
		return fmt.Errorf("clear orders: %w", err)
	}
	return nil
}

// normalizeValue converts driver values into JSON-friendly scalars.
func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return v
	}
}
