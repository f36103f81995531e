// Package quota enforces the free-tier analysis allowance.
//
// The check and the record are separate calls, so two concurrent requests from a
// user one upload short of the limit can both pass HasReachedLimit before either
// records. The overshoot is bounded by request concurrency and is accepted.
package quota

import (
	"context"
	"time"

	logpkg "github.com/benvon/break-my-assignment/internal/logger"
	"github.com/benvon/break-my-assignment/internal/models"
	"go.uber.org/zap"
)

const (
	// DefaultFreeTierLimit is the number of analyses a free account may run per window
	DefaultFreeTierLimit = 3
	// WindowDays is the length of the sliding window
	WindowDays = 30
	// Window is the sliding window over which uploads are counted
	Window = WindowDays * 24 * time.Hour
)

// UserLookup loads the account behind an identity
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// UploadLog is the append-only upload log
type UploadLog interface {
	Append(ctx context.Context, email string, record models.UploadRecord) error
	CountSince(ctx context.Context, email string, since time.Time) (int, error)
}

// Tracker decides whether an identity may start another analysis
type Tracker struct {
	users   UserLookup
	uploads UploadLog
	limit   int
	now     func() time.Time
	logger  *zap.Logger
}

// Option configures a Tracker
type Option func(*Tracker)

// WithLimit overrides the free-tier limit
func WithLimit(limit int) Option {
	return func(t *Tracker) {
		if limit > 0 {
			t.limit = limit
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTracker creates a quota tracker
func NewTracker(users UserLookup, uploads UploadLog, logger *zap.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracker{
		users:   users,
		uploads: uploads,
		limit:   DefaultFreeTierLimit,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Limit returns the configured free-tier limit
func (t *Tracker) Limit() int {
	return t.limit
}

// windowStart is the single definition of "recent" shared by enforcement and display
func windowStart(now time.Time) time.Time {
	return now.Add(-Window)
}

// HasReachedLimit reports whether email may not start another analysis.
// Any failure to load the user or count uploads denies.
func (t *Tracker) HasReachedLimit(ctx context.Context, email string) bool {
	if email == "" || email == models.AnonymousUserID {
		return false
	}

	user, err := t.users.GetByEmail(ctx, email)
	if err != nil || user == nil {
		t.logger.Warn("quota_user_lookup_failed",
			zap.String("email", logpkg.MaskEmail(email)),
			zap.Error(err),
		)
		return true
	}

	if user.IsPro {
		return false
	}

	count, err := t.uploads.CountSince(ctx, email, windowStart(t.now()))
	if err != nil {
		t.logger.Warn("quota_count_failed",
			zap.String("email", logpkg.MaskEmail(email)),
			zap.Error(err),
		)
		return true
	}

	return count >= t.limit
}

// RecordUpload appends one entry to the user's upload log. Calls are not deduplicated.
func (t *Tracker) RecordUpload(ctx context.Context, email, assignmentID, fileName, fileType string) error {
	record := models.UploadRecord{
		AssignmentID: assignmentID,
		Timestamp:    t.now().UTC(),
		FileName:     fileName,
		FileType:     fileType,
	}
	return t.uploads.Append(ctx, email, record)
}

// RecentUploadCount counts the user's uploads inside the sliding window
func (t *Tracker) RecentUploadCount(ctx context.Context, email string) (int, error) {
	return t.uploads.CountSince(ctx, email, windowStart(t.now()))
}

// Status summarizes the user's allowance for display
func (t *Tracker) Status(ctx context.Context, email string) (*models.QuotaStatus, error) {
	user, err := t.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	count, err := t.RecentUploadCount(ctx, email)
	if err != nil {
		return nil, err
	}

	status := &models.QuotaStatus{
		IsPro:         user.IsPro,
		RecentUploads: count,
		Limit:         t.limit,
		WindowDays:    WindowDays,
	}
	if !user.IsPro {
		status.Remaining = max(0, t.limit-count)
		status.LimitReached = count >= t.limit
	}
	return status, nil
}
