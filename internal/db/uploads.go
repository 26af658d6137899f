package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"smartcare/pkg"
)

const fileColumns = `id, session_id, filename, original_name, file_type, file_size, upload_path, created_at`

func scanFile(s scanner) (*pkg.UploadedFile, error) {
	var f pkg.UploadedFile
	err := s.Scan(&f.ID, &f.SessionID, &f.Filename, &f.OriginalName, &f.FileType, &f.FileSize, &f.UploadPath, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// CreateFile inserts the metadata row of a stored file and fills in its ID
// and CreatedAt.
func (r *Repository) CreateFile(ctx context.Context, f *pkg.UploadedFile) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO uploaded_files (session_id, filename, original_name, file_type, file_size, upload_path)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING id, created_at`,
		f.SessionID, f.Filename, f.OriginalName, f.FileType, f.FileSize, f.UploadPath,
	).Scan(&f.ID, &f.CreatedAt)
	if isPQError(err, pgForeignKeyViolation) {
		return pkg.NotFound("Session")
	}
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

// ListFiles returns a session's files, newest first.
func (r *Repository) ListFiles(ctx context.Context, sessionID string) ([]pkg.UploadedFile, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+fileColumns+`
         FROM uploaded_files
         WHERE session_id = $1
         ORDER BY created_at DESC, id DESC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()
	files := []pkg.UploadedFile{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

// GetFile loads one file's metadata.
func (r *Repository) GetFile(ctx context.Context, id int64) (*pkg.UploadedFile, error) {
	f, err := scanFile(r.DB.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM uploaded_files WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.NotFound("File")
	}
	if err != nil {
		return nil, fmt.Errorf("get file %d: %w", id, err)
	}
	return f, nil
}

// DeleteFile removes a file's metadata row.
func (r *Repository) DeleteFile(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM uploaded_files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete file %d: %w", id, err)
	}
	return expectRow(res, pkg.NotFound("File"))
}
