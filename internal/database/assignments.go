package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/benvon/break-my-assignment/internal/models"
	"github.com/google/uuid"
)

// DefaultAssignmentListLimit is how many assignments a listing returns when no limit is given
const DefaultAssignmentListLimit = 50

// AssignmentRepository handles assignment database operations
type AssignmentRepository struct {
	db *DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create inserts a new assignment. ID and CreatedAt are assigned here.
func (r *AssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	query := `
		INSERT INTO assignments (id, file_name, file_url, extracted_text, analysis, ai_model, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.UserID == "" {
		a.UserID = models.AnonymousUserID
	}

	err := r.db.QueryRowContext(ctx, query,
		a.ID,
		a.FileName,
		a.FileURL,
		a.ExtractedText,
		a.Analysis,
		a.AIModel,
		a.UserID,
		time.Now(),
	).Scan(&a.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	return nil
}

// GetByID retrieves an assignment by ID
func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	query := `
		SELECT id, file_name, file_url, extracted_text, analysis, ai_model, user_id, created_at
		FROM assignments
		WHERE id = $1
	`

	a := &models.Assignment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID,
		&a.FileName,
		&a.FileURL,
		&a.ExtractedText,
		&a.Analysis,
		&a.AIModel,
		&a.UserID,
		&a.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("assignment not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	return a, nil
}

// ListByUser returns a user's assignments, newest first. Extracted text is not loaded.
func (r *AssignmentRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.Assignment, error) {
	if limit <= 0 {
		limit = DefaultAssignmentListLimit
	}

	query := `
		SELECT id, file_name, file_url, analysis, ai_model, user_id, created_at
		FROM assignments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	assignments := make([]*models.Assignment, 0)
	for rows.Next() {
		a := &models.Assignment{}
		if err := rows.Scan(
			&a.ID,
			&a.FileName,
			&a.FileURL,
			&a.Analysis,
			&a.AIModel,
			&a.UserID,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}

	return assignments, nil
}
