package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/benvon/break-my-assignment/internal/models"
	"github.com/benvon/break-my-assignment/internal/services/ai"
	"github.com/benvon/break-my-assignment/internal/services/extract"
	"github.com/benvon/break-my-assignment/internal/services/quota"
	"github.com/google/uuid"
)

type mockFetcher struct {
	mu        sync.Mutex
	calls     int
	fetchFunc func(ctx context.Context, fileURL string) ([]byte, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, fileURL string) ([]byte, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, fileURL)
	}
	return []byte("%PDF-1.4 fake"), nil
}

type mockExtractor struct {
	mu          sync.Mutex
	calls       int
	lastFormat  extract.Format
	extractFunc func(ctx context.Context, format extract.Format, data []byte) (string, error)
}

func (m *mockExtractor) Extract(ctx context.Context, format extract.Format, data []byte) (string, error) {
	m.mu.Lock()
	m.calls++
	m.lastFormat = format
	m.mu.Unlock()
	if m.extractFunc != nil {
		return m.extractFunc(ctx, format, data)
	}
	return "Assignment 1: Write a report on renewable energy.", nil
}

type mockCompleter struct {
	mu           sync.Mutex
	calls        []ai.CompletionRequest
	completeFunc func(ctx context.Context, req ai.CompletionRequest) (string, error)
}

func (m *mockCompleter) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()
	if m.completeFunc != nil {
		return m.completeFunc(ctx, req)
	}
	return "# Assignment Overview\nA report on renewable energy.", nil
}

func (m *mockCompleter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockAssignmentStore struct {
	mu         sync.Mutex
	created    []*models.Assignment
	createFunc func(ctx context.Context, a *models.Assignment) error
}

func (m *mockAssignmentStore) Create(ctx context.Context, a *models.Assignment) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, a); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	m.created = append(m.created, a)
	return nil
}

// memoryUsers and memoryUploads back a real quota.Tracker
type memoryUsers struct {
	users map[string]*models.User
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

type memoryUploads struct {
	mu      sync.Mutex
	records map[string][]models.UploadRecord
}

func (m *memoryUploads) Append(_ context.Context, email string, record models.UploadRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[email] = append(m.records[email], record)
	return nil
}

func (m *memoryUploads) CountSince(_ context.Context, email string, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.records[email] {
		if r.Timestamp.After(since) {
			n++
		}
	}
	return n, nil
}

type harness struct {
	fetcher   *mockFetcher
	extractor *mockExtractor
	completer *mockCompleter
	store     *mockAssignmentStore
	uploads   *memoryUploads
	tracker   *quota.Tracker
	service   *Service
}

const studentEmail = "student@example.com"

var now = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, isPro bool, priorUploads ...time.Time) *harness {
	t.Helper()

	h := &harness{
		fetcher:   &mockFetcher{},
		extractor: &mockExtractor{},
		completer: &mockCompleter{},
		store:     &mockAssignmentStore{},
		uploads:   &memoryUploads{records: make(map[string][]models.UploadRecord)},
	}
	for _, ts := range priorUploads {
		h.uploads.records[studentEmail] = append(h.uploads.records[studentEmail], models.UploadRecord{Timestamp: ts})
	}
	users := &memoryUsers{users: map[string]*models.User{
		studentEmail: {ID: uuid.New(), Email: studentEmail, IsPro: isPro},
	}}
	h.tracker = quota.NewTracker(users, h.uploads, nil, quota.WithClock(func() time.Time { return now }))
	breakdown := ai.NewBreakdownService(h.completer, ai.DefaultModel, nil)
	h.service = NewService(h.fetcher, h.extractor, breakdown, h.tracker, h.store, nil)
	return h
}

func studentSession() *models.Session {
	return &models.Session{UserID: uuid.New(), Email: studentEmail}
}

func TestProcess_AuthenticatedHappyPath(t *testing.T) {
	t.Parallel()
	h := newHarness(t, false)
	ctx := context.Background()

	if h.tracker.HasReachedLimit(ctx, studentEmail) {
		t.Fatal("expected limit not reached before the first upload")
	}

	result, err := h.service.Process(ctx, ProcessInput{
		FileURL:  "https://files.example.com/uploads/abc/report.pdf",
		FileName: "report.pdf",
		Model:    "gpt-4o",
		Session:  studentSession(),
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if result.StorageFailed {
		t.Error("expected storage to succeed")
	}
	if !result.IsAuthenticated {
		t.Error("expected IsAuthenticated")
	}
	if result.ModelUsed != "gpt-4o" || result.Fallback {
		t.Errorf("unexpected model %s (fallback %v)", result.ModelUsed, result.Fallback)
	}
	if result.Analysis == "" || result.AssignmentID == "" {
		t.Errorf("incomplete result %+v", result)
	}
	if h.extractor.lastFormat != extract.FormatPDF {
		t.Errorf("expected PDF extraction, got %s", h.extractor.lastFormat)
	}

	count, err := h.tracker.RecentUploadCount(ctx, studentEmail)
	if err != nil {
		t.Fatalf("RecentUploadCount() error = %v", err)
	}
	if count != 1 {
		t.Errorf("RecentUploadCount() = %d, want 1", count)
	}

	if len(h.store.created) != 1 {
		t.Fatalf("expected one stored assignment, got %d", len(h.store.created))
	}
	stored := h.store.created[0]
	if stored.AIModel != "gpt-4o" {
		t.Errorf("stored AIModel = %s, want gpt-4o", stored.AIModel)
	}
	if stored.UserID != studentEmail {
		t.Errorf("stored UserID = %s, want %s", stored.UserID, studentEmail)
	}
	if stored.ID.String() != result.AssignmentID {
		t.Errorf("assignment id mismatch: %s vs %s", stored.ID, result.AssignmentID)
	}

	rec := h.uploads.records[studentEmail][0]
	if rec.AssignmentID != result.AssignmentID || rec.FileName != "report.pdf" || rec.FileType != extract.MIMETypePDF {
		t.Errorf("unexpected upload record %+v", rec)
	}
}

func TestProcess_LimitReached(t *testing.T) {
	t.Parallel()
	day := 24 * time.Hour
	h := newHarness(t, false, now.Add(-1*day), now.Add(-10*day), now.Add(-29*day))

	_, err := h.service.Process(context.Background(), ProcessInput{
		FileURL:  "https://files.example.com/uploads/abc/fourth.pdf",
		FileName: "fourth.pdf",
		Session:  studentSession(),
	})
	if !IsKind(err, KindLimitReached) {
		t.Fatalf("expected LimitReached, got %v", err)
	}
	if h.completer.callCount() != 0 {
		t.Errorf("expected no LLM call, got %d", h.completer.callCount())
	}
	if len(h.store.created) != 0 {
		t.Errorf("expected no stored assignment, got %d", len(h.store.created))
	}
	if n := len(h.uploads.records[studentEmail]); n != 3 {
		t.Errorf("expected upload log unchanged at 3, got %d", n)
	}
}

func TestProcess_ProUserIsNotLimited(t *testing.T) {
	t.Parallel()
	day := 24 * time.Hour
	h := newHarness(t, true, now.Add(-1*day), now.Add(-2*day), now.Add(-3*day), now.Add(-4*day))

	if _, err := h.service.Process(context.Background(), ProcessInput{
		FileURL: "https://files.example.com/uploads/abc/essay.docx",
		Session: studentSession(),
	}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if n := len(h.uploads.records[studentEmail]); n != 5 {
		t.Errorf("expected upload to be recorded for pro user, got %d records", n)
	}
	if h.extractor.lastFormat != extract.FormatDOCX {
		t.Errorf("expected DOCX extraction, got %s", h.extractor.lastFormat)
	}
}

func TestProcess_UnsupportedFormat(t *testing.T) {
	t.Parallel()
	h := newHarness(t, false)

	_, err := h.service.Process(context.Background(), ProcessInput{
		FileURL:  "https://files.example.com/uploads/abc/notes.txt",
		FileName: "notes.txt",
		FileType: "text/plain",
		Session:  studentSession(),
	})
	if !IsKind(err, KindUnsupportedFormat) {
		t.Fatalf("expected UnsupportedFormat, got %v", err)
	}
	if h.fetcher.calls != 0 || h.extractor.calls != 0 {
		t.Errorf("expected no fetch or extraction, got %d fetches and %d extractions", h.fetcher.calls, h.extractor.calls)
	}
	if h.completer.callCount() != 0 {
		t.Error("expected no LLM call")
	}
}

func TestProcess_AnonymousBypassesQuota(t *testing.T) {
	t.Parallel()
	day := 24 * time.Hour
	h := newHarness(t, false, now.Add(-1*day), now.Add(-2*day), now.Add(-3*day))

	result, err := h.service.Process(context.Background(), ProcessInput{
		FileURL: "https://files.example.com/uploads/abc/report.pdf",
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.IsAuthenticated {
		t.Error("expected anonymous result")
	}
	if h.store.created[0].UserID != models.AnonymousUserID {
		t.Errorf("stored UserID = %s, want anonymous", h.store.created[0].UserID)
	}
	if h.store.created[0].FileName != UnnamedAssignment {
		t.Errorf("stored FileName = %s, want %s", h.store.created[0].FileName, UnnamedAssignment)
	}
	if n := len(h.uploads.records[studentEmail]); n != 3 {
		t.Errorf("anonymous upload must not be recorded, got %d records", n)
	}
}

func TestProcess_StorageFailureKeepsAnalysis(t *testing.T) {
	t.Parallel()
	h := newHarness(t, false)
	h.store.createFunc = func(context.Context, *models.Assignment) error {
		return errors.New("connection timeout")
	}

	result, err := h.service.Process(context.Background(), ProcessInput{
		FileURL:  "https://files.example.com/uploads/abc/report.pdf",
		FileName: "report.pdf",
		Session:  studentSession(),
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !result.StorageFailed {
		t.Error("expected StorageFailed")
	}
	if result.Analysis != "# Assignment Overview\nA report on renewable energy." {
		t.Errorf("analysis was not returned in full: %q", result.Analysis)
	}
	if result.AssignmentID != "" {
		t.Errorf("expected no assignment id, got %s", result.AssignmentID)
	}
	if n := len(h.uploads.records[studentEmail]); n != 0 {
		t.Errorf("upload must not be recorded when storage fails, got %d", n)
	}
}

func TestProcess_PersistTimeoutAfterCommit(t *testing.T) {
	t.Parallel()
	h := newHarness(t, false)
	WithPersistTimeout(20 * time.Millisecond)(h.service)

	var mu sync.Mutex
	committed := 0
	h.store.createFunc = func(ctx context.Context, _ *models.Assignment) error {
		mu.Lock()
		committed++
		mu.Unlock()
		<-ctx.Done()
		return ctx.Err()
	}

	result, err := h.service.Process(context.Background(), ProcessInput{
		FileURL:  "https://files.example.com/uploads/abc/report.pdf",
		FileName: "report.pdf",
		Session:  studentSession(),
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !result.StorageFailed || result.Analysis == "" {
		t.Errorf("expected soft failure with analysis, got %+v", result)
	}
	mu.Lock()
	defer mu.Unlock()
	if committed != 1 {
		t.Errorf("write attempts = %d, want 1", committed)
	}
	if n := len(h.uploads.records[studentEmail]); n != 0 {
		t.Errorf("upload recorded after a timed-out write, got %d", n)
	}
}

func TestProcess_FallbackModel(t *testing.T) {
	t.Parallel()
	h := newHarness(t, false)
	h.completer.completeFunc = func(_ context.Context, req ai.CompletionRequest) (string, error) {
		if req.Model == "gpt-4" {
			return "", errors.New("model overloaded")
		}
		return "fallback analysis", nil
	}

	result, err := h.service.Process(context.Background(), ProcessInput{
		FileURL: "https://files.example.com/uploads/abc/report.pdf",
		Model:   "gpt-4",
		Session: studentSession(),
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.ModelUsed != ai.DefaultModel || !result.Fallback {
		t.Errorf("expected fallback to %s, got %s (fallback %v)", ai.DefaultModel, result.ModelUsed, result.Fallback)
	}
	if h.completer.callCount() != 2 {
		t.Errorf("expected exactly 2 LLM calls, got %d", h.completer.callCount())
	}
	if h.store.created[0].AIModel != ai.DefaultModel {
		t.Errorf("stored AIModel = %s, want %s", h.store.created[0].AIModel, ai.DefaultModel)
	}
}

func TestProcess_AnalysisFailed(t *testing.T) {
	t.Parallel()
	h := newHarness(t, false)
	h.completer.completeFunc = func(context.Context, ai.CompletionRequest) (string, error) {
		return "", errors.New("service unavailable")
	}

	_, err := h.service.Process(context.Background(), ProcessInput{
		FileURL: "https://files.example.com/uploads/abc/report.pdf",
		Model:   "gpt-4-turbo",
		Session: studentSession(),
	})
	if !IsKind(err, KindAnalysisFailed) {
		t.Fatalf("expected AnalysisFailed, got %v", err)
	}
	if h.completer.callCount() != 2 {
		t.Errorf("expected primary and one fallback call, got %d", h.completer.callCount())
	}
	if len(h.store.created) != 0 || len(h.uploads.records[studentEmail]) != 0 {
		t.Error("expected no side effects after analysis failure")
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       ParseInput
		fetchErr    error
		extractText string
		extractErr  error
		wantKind    Kind
		wantText    string
	}{
		{
			name:     "missing url",
			input:    ParseInput{},
			wantKind: KindInvalidInput,
		},
		{
			name:     "unsupported type",
			input:    ParseInput{FileURL: "https://files.example.com/a.rtf", FileType: "application/rtf"},
			wantKind: KindUnsupportedFormat,
		},
		{
			name:     "fetch failure",
			input:    ParseInput{FileURL: "https://files.example.com/a.pdf"},
			fetchErr: &extract.FetchError{StatusCode: 404},
			wantKind: KindExtractionFailed,
		},
		{
			name:       "corrupt document",
			input:      ParseInput{FileURL: "https://files.example.com/a.pdf"},
			extractErr: errors.New("failed to parse PDF: malformed xref"),
			wantKind:   KindExtractionFailed,
		},
		{
			name:        "whitespace only",
			input:       ParseInput{FileURL: "https://files.example.com/a.docx"},
			extractText: "  \n\t ",
			wantKind:    KindNoTextExtracted,
		},
		{
			name:        "success",
			input:       ParseInput{FileURL: "https://files.example.com/a", FileType: "application/pdf"},
			extractText: "Question 1",
			wantText:    "Question 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fetcher := &mockFetcher{fetchFunc: func(context.Context, string) ([]byte, error) {
				if tt.fetchErr != nil {
					return nil, tt.fetchErr
				}
				return []byte("data"), nil
			}}
			extractor := &mockExtractor{extractFunc: func(context.Context, extract.Format, []byte) (string, error) {
				return tt.extractText, tt.extractErr
			}}
			svc := NewService(fetcher, extractor, nil, nil, nil, nil)

			got, err := svc.Parse(context.Background(), tt.input)
			if tt.wantKind != "" {
				if KindOf(err) != tt.wantKind {
					t.Fatalf("Parse() error kind = %q (%v), want %q", KindOf(err), err, tt.wantKind)
				}
				if tt.extractErr != nil && !strings.Contains(err.Error(), tt.extractErr.Error()) {
					t.Errorf("expected underlying message to be reported, got %q", err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got != tt.wantText {
				t.Errorf("Parse() = %q, want %q", got, tt.wantText)
			}
		})
	}
}

func TestSave(t *testing.T) {
	t.Parallel()

	t.Run("missing fields", func(t *testing.T) {
		t.Parallel()
		svc := NewService(nil, nil, nil, nil, &mockAssignmentStore{}, nil)
		_, err := svc.Save(context.Background(), SaveInput{FileURL: "https://files.example.com/a.pdf"})
		var wfErr *Error
		if !errors.As(err, &wfErr) || wfErr.Kind != KindInvalidInput {
			t.Fatalf("expected InvalidInput, got %v", err)
		}
		if wfErr.Missing["file_url"] || !wfErr.Missing["parsed_text"] || !wfErr.Missing["ai_breakdown"] {
			t.Errorf("unexpected missing report %+v", wfErr.Missing)
		}
	})

	t.Run("truncates stored text", func(t *testing.T) {
		t.Parallel()
		store := &mockAssignmentStore{}
		svc := NewService(nil, nil, nil, nil, store, nil)
		text := strings.Repeat("é", MaxStoredTextChars) + "TAIL"

		res, err := svc.Save(context.Background(), SaveInput{
			FileURL:    "https://files.example.com/a.pdf",
			ParsedText: text,
			Analysis:   "analysis",
		})
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		stored := store.created[0].ExtractedText
		if utf8.RuneCountInString(stored) != MaxStoredTextChars {
			t.Errorf("stored %d characters, want %d", utf8.RuneCountInString(stored), MaxStoredTextChars)
		}
		if !strings.HasPrefix(text, stored) {
			t.Error("stored text is not a prefix of the parsed text")
		}
		if store.created[0].AIModel != ai.DefaultModel {
			t.Errorf("AIModel = %s, want default", store.created[0].AIModel)
		}
		if res.AssignmentID == "" {
			t.Error("expected assignment id")
		}
	})

	t.Run("slow store times out softly", func(t *testing.T) {
		t.Parallel()
		store := &mockAssignmentStore{createFunc: func(ctx context.Context, _ *models.Assignment) error {
			<-ctx.Done()
			return ctx.Err()
		}}
		svc := NewService(nil, nil, nil, nil, store, nil, WithPersistTimeout(20*time.Millisecond))

		res, err := svc.Save(context.Background(), SaveInput{
			FileURL:    "https://files.example.com/a.pdf",
			ParsedText: "text",
			Analysis:   "the full analysis",
		})
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if !res.StorageFailed || res.AnalysisData == nil {
			t.Fatalf("expected soft failure, got %+v", res)
		}
		if res.AnalysisData.Analysis != "the full analysis" || res.AnalysisData.FileName != UnnamedAssignment {
			t.Errorf("unexpected analysis data %+v", res.AnalysisData)
		}
		if !strings.Contains(res.StorageError, "deadline") {
			t.Errorf("expected deadline error, got %q", res.StorageError)
		}
	})
}

func TestAnalyze_EmptyText(t *testing.T) {
	t.Parallel()
	completer := &mockCompleter{}
	svc := NewService(nil, nil, ai.NewBreakdownService(completer, ai.DefaultModel, nil), nil, nil, nil)

	_, err := svc.Analyze(context.Background(), " ", "")
	if !IsKind(err, KindInvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
	if completer.callCount() != 0 {
		t.Error("expected no LLM call")
	}
}
