package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"ordersense/internal/domain"
)

// UploadedFileRepo implements domain.FileStore on SQLite.
type UploadedFileRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewUploadedFileRepo creates a new UploadedFileRepo.
func NewUploadedFileRepo(writeDB, readDB *sql.DB) *UploadedFileRepo {
	return &UploadedFileRepo{writeDB: writeDB, readDB: readDB}
}

// Record stores metadata for one ingested file.
func (r *UploadedFileRepo) Record(ctx context.Context, f *domain.UploadedFile) error {
	cols, err := json.Marshal(f.Columns)
	if err != nil {
		return fmt.Errorf("marshal columns: %w", err)
	}
	_, err = r.writeDB.ExecContext(ctx,
		`INSERT INTO uploaded_files (id, filename, row_count, columns) VALUES (?, ?, ?, ?)`,
		f.ID, f.Filename, f.RowCount, string(cols),
	)
	if err != nil {
		return fmt.Errorf("record uploaded file: %w", err)
	}
	return nil
}

// List returns all uploaded files, newest first.
func (r *UploadedFileRepo) List(ctx context.Context) ([]domain.UploadedFile, error) {
	rows, err := r.readDB.QueryContext(ctx,
		`SELECT id, filename, row_count, columns, uploaded_at
		 FROM uploaded_files ORDER BY uploaded_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list uploaded files: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.UploadedFile
	for rows.Next() {
		var f domain.UploadedFile
		var cols string
		if err := rows.Scan(&f.ID, &f.Filename, &f.RowCount, &cols, &f.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan uploaded file: %w", err)
		}
		if err := json.Unmarshal([]byte(cols), &f.Columns); err != nil {
			// Tolerate pre-JSON rows from older uploads.
			f.Columns = nil
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate uploaded files: %w", err)
	}
	return out, nil
}

// Clear deletes every uploaded-file record.
func (r *UploadedFileRepo) Clear(ctx context.Context) error {
	if _, err := r.writeDB.ExecContext(ctx, "DELETE FROM uploaded_files"); err != nil {
		return fmt.Errorf("clear uploaded files: %w", err)
	}
	return nil
}
