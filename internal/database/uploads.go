package database

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/break-my-assignment/internal/models"
)

// UploadRepository stores the per-user upload log used for quota accounting.
// Rows are only ever appended.
type UploadRepository struct {
	db *DB
}

// NewUploadRepository creates a new upload repository
func NewUploadRepository(db *DB) *UploadRepository {
	return &UploadRepository{db: db}
}

// Append adds an upload record to the log of the user with the given email.
// The user must already exist.
func (r *UploadRepository) Append(ctx context.Context, email string, record models.UploadRecord) error {
	query := `
		INSERT INTO user_uploads (user_id, assignment_id, file_name, file_type, uploaded_at)
		SELECT id, $2, $3, $4, $5 FROM users WHERE email = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		email,
		record.AssignmentID,
		record.FileName,
		record.FileType,
		record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append upload record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("failed to append upload record: user %s not found", email)
	}

	return nil
}

// CountSince counts uploads by the user with the given email strictly after since
func (r *UploadRepository) CountSince(ctx context.Context, email string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM user_uploads u
		JOIN users ON users.id = u.user_id
		WHERE users.email = $1 AND u.uploaded_at > $2
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, email, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count uploads: %w", err)
	}
	return count, nil
}

// ListByUser returns the upload log of a user, newest first
func (r *UploadRepository) ListByUser(ctx context.Context, email string, limit int) ([]models.UploadRecord, error) {
	query := `
		SELECT u.assignment_id, u.file_name, u.file_type, u.uploaded_at
		FROM user_uploads u
		JOIN users ON users.id = u.user_id
		WHERE users.email = $1
		ORDER BY u.uploaded_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, email, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []models.UploadRecord
	for rows.Next() {
		var rec models.UploadRecord
		if err := rows.Scan(&rec.AssignmentID, &rec.FileName, &rec.FileType, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan upload record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating uploads: %w", err)
	}

	return records, nil
}
