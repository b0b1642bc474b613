package artifact

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"

	"github.com/nao1215/uxaudit/internal/model"
)

// DefaultTTL is how long an artifact stays retrievable.
const DefaultTTL = time.Hour

var (
	// ErrNotFound is returned for missing, malformed, or expired references.
	ErrNotFound = errors.New("artifact not found")

	// ErrCorrupt is returned when stored bytes no longer match their digest.
	ErrCorrupt = errors.New("artifact digest mismatch")

	// ErrEmpty is returned when putting an artifact without data.
	ErrEmpty = errors.New("artifact has no data")
)

// Artifact is a stored report.
type Artifact struct {
	// Ref is the opaque handle assigned by Put.
	Ref model.ArtifactRef `json:"ref"`

	// Name is the suggested download file name.
	Name string `json:"name"`

	// ContentType is the media type of Data.
	ContentType string `json:"content_type"`

	// Data is the report body.
	Data []byte `json:"data"`

	// Digest is the hex SHA3-256 of Data, assigned by Put.
	Digest string `json:"digest"`

	// TargetURL is the audited page.
	TargetURL string `json:"target_url"`

	// CreatedAt and ExpiresAt are assigned by Put.
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store persists artifacts.
type Store interface {
	// Put stores a and returns its new reference. Ref, Digest, CreatedAt
	// and ExpiresAt are assigned by the store.
	Put(ctx context.Context, a *Artifact) (model.ArtifactRef, error)

	// Get returns the artifact or ErrNotFound.
	Get(ctx context.Context, ref model.ArtifactRef) (*Artifact, error)

	// Delete removes the artifact. Deleting a missing artifact is not an error.
	Delete(ctx context.Context, ref model.ArtifactRef) error

	// Sweep removes artifacts that expired at or before now and returns how
	// many were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)

	// Close releases the store.
	Close() error
}

// Digest returns the hex SHA3-256 of data.
func Digest(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// newRef returns a fresh random reference.
func newRef() model.ArtifactRef {
	return model.ArtifactRef(uuid.NewString())
}

// validRef reports whether ref could have been issued by newRef. Anything
// else is rejected before it reaches a file path or a key.
func validRef(ref model.ArtifactRef) bool {
	id, err := uuid.Parse(string(ref))
	return err == nil && id.String() == string(ref)
}

// stamp fills the fields Put is responsible for.
func stamp(a *Artifact, now time.Time, ttl time.Duration) {
	a.Ref = newRef()
	a.Digest = Digest(a.Data)
	a.CreatedAt = now.UTC()
	a.ExpiresAt = a.CreatedAt.Add(ttl)
}

// RunJanitor sweeps store every interval until ctx is done.
func RunJanitor(ctx context.Context, store Store, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.Sweep(ctx, now)
			if err != nil {
				logger.Warn("artifact sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("expired artifacts removed", "count", n)
			}
		}
	}
}
