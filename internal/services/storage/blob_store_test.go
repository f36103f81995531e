package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSafeFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "report.pdf", want: "report.pdf"},
		{name: "spaces", in: "My Essay Final.docx", want: "My_Essay_Final.docx"},
		{name: "path traversal", in: "../../etc/passwd", want: "passwd"},
		{name: "windows path", in: `C:\Users\me\hw1.pdf`, want: "hw1.pdf"},
		{name: "unicode", in: "résumé.pdf", want: "r_sum_.pdf"},
		{name: "empty", in: "", want: "file"},
		{name: "only dots", in: "...", want: "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SafeFileName(tt.in); got != tt.want {
				t.Errorf("SafeFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSafeFileName_LongNameKeepsExtension(t *testing.T) {
	t.Parallel()

	got := SafeFileName(strings.Repeat("a", 300) + ".docx")
	if len(got) != maxObjectName {
		t.Errorf("length = %d, want %d", len(got), maxObjectName)
	}
	if !strings.HasSuffix(got, ".docx") {
		t.Errorf("expected extension to survive, got %q", got)
	}
}

func TestObjectKey(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("8f14e45f-ceea-467f-a0e5-1b3c1d2e3f40")
	got := ObjectKey(id, "Week 3 lab.pdf")
	want := "uploads/8f14e45f-ceea-467f-a0e5-1b3c1d2e3f40/Week_3_lab.pdf"
	if got != want {
		t.Errorf("ObjectKey() = %q, want %q", got, want)
	}
}

func TestBlobStore_PresignUpload(t *testing.T) {
	t.Parallel()

	store, err := NewBlobStore(Config{
		Endpoint:     "localhost:9000",
		AccessKey:    "minio",
		SecretKey:    "minio123",
		Bucket:       "assignments",
		UploadURLTTL: 10 * time.Minute,
		FileURLTTL:   30 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewBlobStore() error = %v", err)
	}
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	up, err := store.PresignUpload(context.Background(), "report.pdf")
	if err != nil {
		t.Fatalf("PresignUpload() error = %v", err)
	}

	if !strings.HasPrefix(up.ObjectKey, "uploads/") || !strings.HasSuffix(up.ObjectKey, "/report.pdf") {
		t.Errorf("unexpected object key %q", up.ObjectKey)
	}
	if up.Method != "PUT" {
		t.Errorf("Method = %s, want PUT", up.Method)
	}
	if !up.ExpiresAt.Equal(fixed.Add(10 * time.Minute)) {
		t.Errorf("ExpiresAt = %v", up.ExpiresAt)
	}

	for name, raw := range map[string]string{"upload": up.UploadURL, "file": up.FileURL} {
		u, err := url.Parse(raw)
		if err != nil {
			t.Fatalf("%s URL does not parse: %v", name, err)
		}
		if u.Path != "/assignments/"+up.ObjectKey {
			t.Errorf("%s URL path = %s", name, u.Path)
		}
		if u.Query().Get("X-Amz-Signature") == "" {
			t.Errorf("%s URL is not signed: %s", name, raw)
		}
	}

	getURL, _ := url.Parse(up.FileURL)
	if got := getURL.Query().Get("X-Amz-Expires"); got != "604800" {
		t.Errorf("file URL expiry = %s, want capped at 604800", got)
	}
}
