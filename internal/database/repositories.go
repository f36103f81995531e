package database

import (
	"context"
	"time"

	"github.com/benvon/break-my-assignment/internal/models"
	"github.com/google/uuid"
)

// UserRepositoryInterface defines the user lookups needed by authentication and quota checks
type UserRepositoryInterface interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByProviderID(ctx context.Context, providerID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	SetPro(ctx context.Context, email string, isPro bool) error
}

// UploadRepositoryInterface defines the append-only upload log operations
type UploadRepositoryInterface interface {
	Append(ctx context.Context, email string, record models.UploadRecord) error
	CountSince(ctx context.Context, email string, since time.Time) (int, error)
	ListByUser(ctx context.Context, email string, limit int) ([]models.UploadRecord, error)
}

// AssignmentRepositoryInterface defines assignment persistence operations
type AssignmentRepositoryInterface interface {
	Create(ctx context.Context, a *models.Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.Assignment, error)
}

// Ensure concrete types implement the interfaces
var (
	_ UserRepositoryInterface       = (*UserRepository)(nil)
	_ UploadRepositoryInterface     = (*UploadRepository)(nil)
	_ AssignmentRepositoryInterface = (*AssignmentRepository)(nil)
)
