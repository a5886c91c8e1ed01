package domain

import "context"

// Selection describes one bounded fetch against a source: which columns,
// which predicates, how to sort, and which page.
type Selection struct {
	Source  string
	Columns []string // nil selects all queryable columns
	Filters []Filter
	Order   *Ordering
	Offset  int
	Limit   int // 0 means no LIMIT clause
}

// OrderStore is the filterable, orderable, paginatable row source the
// executor reads through. Implementations must enforce the column and
// operator whitelists; callers never hand them raw SQL fragments.
type OrderStore interface {
	Select(ctx context.Context, sel Selection) ([]Row, error)
	Count(ctx context.Context, source string, filters []Filter) (int64, error)
	Insert(ctx context.Context, source string, orders []Order) error
	Clear(ctx context.Context) error
}

// FileStore persists uploaded-file metadata.
type FileStore interface {
	Record(ctx context.Context, f *UploadedFile) error
	List(ctx context.Context) ([]UploadedFile, error)
	Clear(ctx context.Context) error
}
