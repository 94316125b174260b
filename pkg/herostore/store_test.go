package herostore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

const pngURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

// setupTestStore creates a Store over a fresh in-memory database.
func setupTestStore(t *testing.T, opts ...Option) (*sql.DB, *Store) {
	t.Helper()
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}
	s, err := New(db, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(s.Close)
	return db, s
}

func TestStore_RoundTrip(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty store: expected ErrNotFound, got %v", err)
	}
	if err := s.Set(ctx, " "+pngURI+"\n"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := s.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != pngURI {
		t.Errorf("Get() = %q, want the trimmed data URI", got)
	}

	replacement := "data:image/gif;base64,R0lGODlhAQABAAAAACw="
	if err := s.Set(ctx, replacement); err != nil {
		t.Fatalf("second Set() error = %v", err)
	}
	if got, _ = s.Get(ctx); got != replacement {
		t.Errorf("Set should replace the previous image, got %q", got)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, err := s.Get(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("after Clear: expected ErrNotFound, got %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Errorf("clearing an empty store should succeed, got %v", err)
	}
}

func TestStore_SetupSchemaIdempotent(t *testing.T) {
	db, s := setupTestStore(t)
	if err := SetupSchema(db); err != nil {
		t.Fatalf("second SetupSchema() error = %v", err)
	}
	if err := s.Set(context.Background(), pngURI); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM capyboard_settings WHERE setting_key = ?", HeroImageKey).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected one stored row, got %d", count)
	}
}

func TestStore_Validate(t *testing.T) {
	_, s := setupTestStore(t, WithMaxImageBytes(16))
	tests := []struct {
		name    string
		uri     string
		wantErr bool
	}{
		{"gif", "data:image/gif;base64,R0lGODlhAQABAAAAACw=", false},
		{"upper case header", "DATA:IMAGE/GIF;BASE64,R0lGODlhAQABAAAAACw=", false},
		{"too large", pngURI, true},
		{"not an image", "data:text/plain;base64,aGVsbG8=", true},
		{"not base64", "data:image/svg+xml,<svg/>", true},
		{"bad payload", "data:image/png;base64,!!!", true},
		{"empty payload", "data:image/png;base64,", true},
		{"url", "https://example.com/hero.png", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidImage) {
				t.Errorf("expected ErrInvalidImage, got %v", err)
			}
		})
	}

	if err := s.Set(context.Background(), "not a uri"); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("Set should reject invalid images, got %v", err)
	}
	if _, err := s.Get(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Error("rejected images must not be stored")
	}
}

func TestStore_Concurrent(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()
	done := make(chan error, 8)
	for i := 0; i < cap(done); i++ {
		go func() { done <- s.Set(ctx, pngURI) }()
	}
	for i := 0; i < cap(done); i++ {
		if err := <-done; err != nil && !strings.Contains(err.Error(), "locked") {
			t.Errorf("concurrent Set() error = %v", err)
		}
	}
	if got, err := s.Get(ctx); err != nil || got != pngURI {
		t.Errorf("Get() = %q, %v", got, err)
	}
}
