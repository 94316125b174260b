package herostore

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// HeroImageKey is the key the hero image is stored under.
const HeroImageKey = "episodeReleaseHeroImage"

// DefaultMaxImageBytes caps the decoded size of a stored image.
const DefaultMaxImageBytes = 8 << 20

var (
	// ErrInvalidImage is returned by Set for values that are not base64
	// image data URIs or that exceed the size limit.
	ErrInvalidImage = errors.New("herostore: not a base64 image data URI")
	// ErrNotFound is returned by Get when no image is stored.
	ErrNotFound = errors.New("herostore: no hero image")
)

// SetupSchema creates the settings table. It is idempotent and safe to call
// on an already-initialized database.
func SetupSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS capyboard_settings (
    setting_key TEXT PRIMARY KEY,
    setting_value TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create settings table: %w", err)
	}
	return nil
}

// Store reads and writes the hero image. All methods are concurrent-safe.
type Store struct {
	db       *sql.DB
	maxBytes int

	stmtGet    *sql.Stmt
	stmtSet    *sql.Stmt
	stmtDelete *sql.Stmt

	mu  sync.Mutex
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithMaxImageBytes overrides DefaultMaxImageBytes. Non-positive values are ignored.
func WithMaxImageBytes(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// New prepares the statements of a Store over db. SetupSchema must have run.
func New(db *sql.DB, opts ...Option) (*Store, error) {
	s := &Store{db: db, maxBytes: DefaultMaxImageBytes, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	if s.stmtGet, err = db.Prepare("SELECT setting_value FROM capyboard_settings WHERE setting_key = ?"); err != nil {
		return nil, fmt.Errorf("failed to prepare get statement: %w", err)
	}
	if s.stmtSet, err = db.Prepare(`INSERT INTO capyboard_settings (setting_key, setting_value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(setting_key) DO UPDATE SET setting_value = excluded.setting_value, updated_at = excluded.updated_at`); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to prepare set statement: %w", err)
	}
	if s.stmtDelete, err = db.Prepare("DELETE FROM capyboard_settings WHERE setting_key = ?"); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	return s, nil
}

// Close releases the prepared statements. The database is left open.
func (s *Store) Close() {
	for _, stmt := range []*sql.Stmt{s.stmtGet, s.stmtSet, s.stmtDelete} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
}

// Get returns the stored data URI, or ErrNotFound.
func (s *Store) Get(ctx context.Context) (string, error) {
	var value string
	err := s.stmtGet.QueryRowContext(ctx, HeroImageKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read hero image: %w", err)
	}
	return value, nil
}

// Set validates and stores a data URI, replacing any previous image.
func (s *Store) Set(ctx context.Context, dataURI string) error {
	dataURI = strings.TrimSpace(dataURI)
	if err := s.Validate(dataURI); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.stmtSet.ExecContext(ctx, HeroImageKey, dataURI, s.now().Unix()); err != nil {
		return fmt.Errorf("failed to store hero image: %w", err)
	}
	return nil
}

// Clear removes the stored image. Clearing an empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.stmtDelete.ExecContext(ctx, HeroImageKey); err != nil {
		return fmt.Errorf("failed to clear hero image: %w", err)
	}
	return nil
}

// Validate reports whether dataURI is a storable base64 image data URI.
func (s *Store) Validate(dataURI string) error {
	header, payload, ok := strings.Cut(dataURI, ",")
	header = strings.ToLower(header)
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return ErrInvalidImage
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > s.maxBytes+2 {
		return fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, s.maxBytes)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return ErrInvalidImage
	}
	if len(data) > s.maxBytes {
		return fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, s.maxBytes)
	}
	return nil
}
