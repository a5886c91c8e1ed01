// Package insight implements the natural-language analytics pipeline:
// schema description, query planning, plan execution, and answer
// summarization.
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"ordersense/internal/domain"
)

const sampleRows = 3

// SchemaDescription is the planning-prompt view of one source: how many
// rows it has, which columns exist, and how a row relates to a logical
// order.
type SchemaDescription struct {
	Source   domain.Source
	RowCount int64
	Columns  []string
	Note     string
	Sample   string // up to sampleRows rows serialized as JSON
}

// Text renders the description for inclusion in the planning prompt.
func (d SchemaDescription) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tabulka %q, %d řádků.\n", d.Source.Name, d.RowCount)
	fmt.Fprintf(&sb, "Sloupce: %s.\n", strings.Join(d.Columns, ", "))
	if d.Note != "" {
		sb.WriteString(d.Note)
		sb.WriteString("\n")
	}
	sb.WriteString("Sloupce total_price a shipping_price jsou desetinná čísla uložená jako text.\n")
	if d.Sample != "" {
		fmt.Fprintf(&sb, "Ukázka dat: %s\n", d.Sample)
	}
	return sb.String()
}

// Describer builds schema descriptions from the store.
type Describer struct {
	store  domain.OrderStore
	logger *slog.Logger
}

// NewDescriber creates a Describer.
func NewDescriber(store domain.OrderStore, logger *slog.Logger) *Describer {
	return &Describer{store: store, logger: logger}
}

// Describe returns the schema description for a source. Storage failure
// degrades to a zero count and empty sample rather than an error: a
// stale description only lowers plan quality, it must not abort the
// pipeline.
func (d *Describer) Describe(ctx context.Context, sourceName string) (SchemaDescription, error) {
	src, err := domain.LookupSource(sourceName)
	if err != nil {
		return SchemaDescription{}, err
	}

	desc := SchemaDescription{
		Source:  src,
		Columns: src.Columns(),
		Note:    src.Note,
	}

	count, err := d.store.Count(ctx, src.Name, nil)
	if err != nil {
		d.logger.Warn("schema count failed, describing with zero count", "source", src.Name, "error", err)
		return desc, nil
	}
	desc.RowCount = count

	rows, err := d.store.Select(ctx, domain.Selection{Source: src.Name, Limit: sampleRows})
	if err != nil {
		d.logger.Warn("schema sample fetch failed", "source", src.Name, "error", err)
		return desc, nil
	}
	if len(rows) > 0 {
		if sample, err := json.Marshal(rows); err == nil {
			desc.Sample = string(sample)
		}
	}

	return desc, nil
}
