package ingestion

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"ordersense/internal/domain"
)

const (
	exportPageSize = 1000
	maxColumnWidth = 50
)

// ExportXLSX renders all stored orders of a source as an XLSX workbook.
// The raw_data column is never part of the queryable column set, so the
// export is clean by construction.
func (s *Service) ExportXLSX(ctx context.Context, sourceName string) ([]byte, error) {
	src, err := domain.LookupSource(sourceName)
	if err != nil {
		return nil, err
	}
	columns := src.Columns()

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	const sheet = "Data"
	f.SetSheetName(f.GetSheetName(0), sheet)

	header := make([]interface{}, len(columns))
	widths := make([]int, len(columns))
	for i, c := range columns {
		header[i] = c
		widths[i] = len(c)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header row: %w", err)
	}

	rowNum := 2
	exported := 0
	for offset := 0; ; offset += exportPageSize {
		page, err := s.orders.Select(ctx, domain.Selection{
			Source: src.Name,
			Offset: offset,
			Limit:  exportPageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("export page at %d: %w", offset, err)
		}
		for _, row := range page {
			cells := make([]interface{}, len(columns))
			for i, c := range columns {
				cells[i] = row[c]
				if s, ok := row[c].(string); ok && len(s) > widths[i] {
					widths[i] = len(s)
				}
			}
			cell, _ := excelize.CoordinatesToCellName(1, rowNum)
			if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
				return nil, fmt.Errorf("write row %d: %w", rowNum, err)
			}
			rowNum++
			exported++
		}
		if len(page) < exportPageSize {
			break
		}
	}

	if exported == 0 {
		return nil, domain.ErrNotFound("no data to export")
	}

	for i := range columns {
		w := widths[i]
		if w > maxColumnWidth {
			w = maxColumnWidth
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, name, name, float64(w)+2); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
