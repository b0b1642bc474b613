package artifact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/uxaudit/internal/model"
)

// indexName is the SQLite index file inside the store directory.
const indexName = "artifacts.db"

// timestampFormat is fixed width in UTC so stored values sort as text.
const timestampFormat = "2006-01-02T15:04:05.000000000Z"

// FileStore keeps report bytes as files and their metadata in SQLite.
type FileStore struct {
	db  *sql.DB
	dir string
	ttl time.Duration
	now func() time.Time
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithTTL sets how long artifacts stay retrievable.
func WithTTL(ttl time.Duration) FileOption {
	return func(s *FileStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) FileOption {
	return func(s *FileStore) {
		if now != nil {
			s.now = now
		}
	}
}

// OpenFileStore opens or creates a store rooted at dir.
func OpenFileStore(dir string, opts ...FileOption) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, indexName)+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact index: %w", err)
	}
	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &FileStore{
		db:  db,
		dir: dir,
		ttl: DefaultTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *FileStore) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS artifacts (
		ref TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		content_type TEXT NOT NULL,
		digest TEXT NOT NULL,
		size INTEGER NOT NULL,
		target_url TEXT,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_artifacts_expires ON artifacts(expires_at);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the index.
func (s *FileStore) Close() error {
	return s.db.Close()
}

func (s *FileStore) path(ref model.ArtifactRef) string {
	return filepath.Join(s.dir, string(ref)+".bin")
}

// Put writes the body to disk and then indexes it.
func (s *FileStore) Put(ctx context.Context, a *Artifact) (model.ArtifactRef, error) {
	if len(a.Data) == 0 {
		return "", ErrEmpty
	}
	stamp(a, s.now(), s.ttl)

	if err := writeFileAtomic(s.path(a.Ref), a.Data); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	query := `
	INSERT INTO artifacts (ref, name, content_type, digest, size, target_url, created_at, expires_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		string(a.Ref), a.Name, a.ContentType, a.Digest, len(a.Data), a.TargetURL,
		a.CreatedAt.Format(timestampFormat), a.ExpiresAt.Format(timestampFormat),
	)
	if err != nil {
		_ = os.Remove(s.path(a.Ref))
		return "", fmt.Errorf("failed to index artifact: %w", err)
	}
	return a.Ref, nil
}

// Get returns the artifact. Expired artifacts are removed and reported as
// ErrNotFound.
func (s *FileStore) Get(ctx context.Context, ref model.ArtifactRef) (*Artifact, error) {
	if !validRef(ref) {
		return nil, ErrNotFound
	}

	query := `
	SELECT name, content_type, digest, target_url, created_at, expires_at
	FROM artifacts WHERE ref = ?
	`
	a := &Artifact{Ref: ref}
	var (
		targetURL            sql.NullString
		createdAt, expiresAt string
	)
	err := s.db.QueryRowContext(ctx, query, string(ref)).Scan(
		&a.Name, &a.ContentType, &a.Digest, &targetURL, &createdAt, &expiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query artifact: %w", err)
	}
	a.TargetURL = targetURL.String
	a.CreatedAt = parseTimestamp(createdAt)
	a.ExpiresAt = parseTimestamp(expiresAt)

	if !s.now().Before(a.ExpiresAt) {
		_ = s.Delete(ctx, ref)
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(s.path(ref))
	if errors.Is(err, os.ErrNotExist) {
		_ = s.Delete(ctx, ref)
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	if Digest(data) != a.Digest {
		return nil, ErrCorrupt
	}
	a.Data = data
	return a, nil
}

// Delete removes the index row and the file.
func (s *FileStore) Delete(ctx context.Context, ref model.ArtifactRef) error {
	if !validRef(ref) {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM artifacts WHERE ref = ?", string(ref)); err != nil {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	if err := os.Remove(s.path(ref)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove artifact file: %w", err)
	}
	return nil
}

// Sweep removes every artifact that expired at or before now.
func (s *FileStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT ref FROM artifacts WHERE expires_at <= ?",
		now.UTC().Format(timestampFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to query expired artifacts: %w", err)
	}
	var refs []model.ArtifactRef
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("failed to scan artifact ref: %w", err)
		}
		refs = append(refs, model.ArtifactRef(ref))
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	// The single connection is free again once rows is closed.
	for i, ref := range refs {
		if err := s.Delete(ctx, ref); err != nil {
			return i, err
		}
	}
	return len(refs), nil
}

// writeFileAtomic writes data to a temporary file and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".artifact-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// timestampFormats lists the layouts the index may contain.
var timestampFormats = []string{
	timestampFormat,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// parseTimestamp returns the zero time when no layout matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
