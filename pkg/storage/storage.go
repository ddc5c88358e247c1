// Package storage turns captured request/response bodies into stored
// artifacts.
//
// Every body passes the redaction pass before anything touches disk. The
// storage mode then decides how much survives: none stores nothing,
// sampled truncates to MaxSampleBytes, full stores the redacted body
// untruncated. Artifact names derive deterministically from
// (scan, fetch), so repeated writes for the same fetch overwrite rather
// than accumulate.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"

	"github.com/scanforge/scanforge/pkg/model"
)

// MaxSampleBytes is the truncation cap applied in sampled mode.
const MaxSampleBytes = 4096

// RedactionVersion identifies the redaction ruleset applied to stored
// artifacts, so they can be re-audited against the rules that produced
// them.
const RedactionVersion = "v1"

// Sentinel errors for storage failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrBackend indicates an artifact write failed. Fatal to the fetch
	// it applies to, not to the scan.
	ErrBackend = errors.New("storage: backend write failed")

	// ErrScheme indicates an unsupported artifact base URI scheme.
	ErrScheme = errors.New("storage: unsupported scheme")
)

// redactions is the substitution table of ruleset v1. Order is fixed:
// the Authorization rule runs last so it masks whole header lines,
// including ones the Bearer rule already touched.
var redactions = []struct {
	re   *regexp.Regexp
	repl []byte
}{
	{regexp.MustCompile(`Bearer\s+[^\s"'&]+`), []byte("Bearer [redacted]")},
	{regexp.MustCompile(`token=[^&\s"']*`), []byte("token=[redacted]")},
	{regexp.MustCompile(`(?i)authorization:[^\r\n]*`), []byte("Authorization: [redacted]")},
}

// Redact masks bearer tokens, token= query parameters, and Authorization
// header lines. The token values themselves are removed, not just labeled.
func Redact(body []byte) []byte {
	out := body
	for _, r := range redactions {
		out = r.re.ReplaceAll(out, r.repl)
	}
	return out
}

// Sample truncates body to MaxSampleBytes.
func Sample(body []byte) []byte {
	if len(body) <= MaxSampleBytes {
		return body
	}
	return body[:MaxSampleBytes]
}

// Artifact is a stored body reference.
type Artifact struct {
	// Path locates the stored artifact within its backend.
	Path string `json:"path"`

	// Hash is the sha256 of the stored (redacted, possibly truncated)
	// content.
	Hash string `json:"hash"`
}

// Backend stores processed bodies. Implementations are selected by the
// artifact base URI scheme; the local filesystem is the only required one.
type Backend interface {
	// StoreBody redacts body per the mode and persists it, returning the
	// artifact reference. A nil/empty body or StorageNone returns
	// (nil, nil): nothing is stored and no path exists.
	StoreBody(ctx context.Context, scanID, fetchID string, body []byte, mode model.StorageMode) (*Artifact, error)
}

// Local is a filesystem-backed artifact store.
type Local struct {
	// BasePath is the directory artifacts are written under.
	BasePath string
}

// Compile-time interface check.
var _ Backend = (*Local)(nil)

// StoreBody implements Backend. The artifact name derives from
// (scanID, fetchID) so a repeated store for the same fetch overwrites.
func (l *Local) StoreBody(ctx context.Context, scanID, fetchID string, body []byte, mode model.StorageMode) (*Artifact, error) {
	if len(body) == 0 || mode == model.StorageNone {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	processed := Redact(body)
	if mode == model.StorageSampled {
		processed = Sample(processed)
	}

	if err := os.MkdirAll(l.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	outPath := filepath.Join(l.BasePath, fmt.Sprintf("%s_%s.bin", scanID, fetchID))

	// Write to temp file first, then rename (atomic).
	tempPath := outPath + ".tmp"
	if err := os.WriteFile(tempPath, processed, 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if err := os.Rename(tempPath, outPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	sum := sha256.Sum256(processed)
	return &Artifact{Path: outPath, Hash: hex.EncodeToString(sum[:])}, nil
}

// Open returns the backend for the given artifact base URI. Bare paths and
// file:// URIs map to the local filesystem backend; any other scheme is
// rejected with ErrScheme.
func Open(base string) (Backend, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("storage: invalid base URI %q: %w", base, err)
	}
	switch u.Scheme {
	case "", "file":
		path := u.Path
		if path == "" {
			path = base
		}
		return &Local{BasePath: path}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrScheme, u.Scheme)
}
