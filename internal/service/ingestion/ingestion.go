package ingestion

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"ordersense/internal/domain"
)

// insertBatchSize bounds how many rows one insert transaction carries.
const insertBatchSize = 500

// Service ingests spreadsheet files into the order store.
type Service struct {
	orders domain.OrderStore
	files  domain.FileStore
	logger *slog.Logger
}

// NewService creates an ingestion Service.
func NewService(orders domain.OrderStore, files domain.FileStore, logger *slog.Logger) *Service {
	return &Service{orders: orders, files: files, logger: logger}
}

// IngestResult reports one ingested file.
type IngestResult struct {
	File     domain.UploadedFile
	Columns  []string
	RowCount int64
}

// Ingest parses one uploaded file (XLSX or CSV by extension) into order
// rows for the given source and records its metadata.
func (s *Service) Ingest(ctx context.Context, filename, sourceName string, r io.Reader) (*IngestResult, error) {
	src, err := domain.LookupSource(sourceName)
	if err != nil {
		return nil, err
	}

	var headers []string
	var records [][]string

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		headers, records, err = parseCSV(r)
	case ".xlsx", ".xlsm":
		headers, records, err = parseXLSX(r)
	default:
		return nil, domain.ErrValidation("unsupported file type %q", filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, domain.ErrValidation("file %q contains no header row", filename)
	}

	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}

	orders := make([]domain.Order, 0, len(records))
	for _, rec := range records {
		o := domain.Order{Source: src.Name}
		raw := map[string]string{}
		for i, cell := range rec {
			if i >= len(normalized) || normalized[i] == "" {
				continue
			}
			column, known := headerAliases[normalized[i]]
			if !known || !setColumn(&o, column, cell) {
				if cell != "" {
					raw[normalized[i]] = cell
				}
			}
		}
		raw["_source"] = filename
		if blob, err := json.Marshal(raw); err == nil {
			o.RawData = string(blob)
		}
		orders = append(orders, o)
	}

	for start := 0; start < len(orders); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(orders) {
			end = len(orders)
		}
		if err := s.orders.Insert(ctx, src.Name, orders[start:end]); err != nil {
			return nil, fmt.Errorf("insert batch at %d: %w", start, err)
		}
	}

	file := domain.UploadedFile{
		ID:       uuid.NewString(),
		Filename: filename,
		RowCount: int64(len(orders)),
		Columns:  normalized,
	}
	if err := s.files.Record(ctx, &file); err != nil {
		return nil, fmt.Errorf("record uploaded file: %w", err)
	}

	s.logger.Info("file ingested", "filename", filename, "source", src.Name, "rows", len(orders))
	return &IngestResult{File: file, Columns: normalized, RowCount: int64(len(orders))}, nil
}

// Status reports the total number of stored rows plus the uploaded-file
// list, newest first.
func (s *Service) Status(ctx context.Context) (int64, []domain.UploadedFile, error) {
	var total int64
	for _, name := range domain.SourceNames() {
		n, err := s.orders.Count(ctx, name, nil)
		if err != nil {
			return 0, nil, fmt.Errorf("count %s: %w", name, err)
		}
		total += n
	}

	files, err := s.files.List(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("list uploaded files: %w", err)
	}
	if files == nil {
		files = []domain.UploadedFile{}
	}
	return total, files, nil
}

// Clear deletes all order rows and uploaded-file records.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.orders.Clear(ctx); err != nil {
		return err
	}
	return s.files.Clear(ctx)
}

// parseCSV reads a CSV stream into a header row and data records.
func parseCSV(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, domain.ErrValidation("parse csv: %v", err)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}

// parseXLSX reads every sheet of an XLSX stream. The first sheet's
// header row wins; additional sheets append their data rows.
func parseXLSX(r io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, domain.ErrValidation("parse xlsx: %v", err)
	}
	defer f.Close() //nolint:errcheck

	var headers []string
	var records [][]string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, nil, domain.ErrValidation("read sheet %q: %v", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		if headers == nil {
			headers = rows[0]
		}
		records = append(records, rows[1:]...)
	}
	return headers, records, nil
}
