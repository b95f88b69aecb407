package storage

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/agentrail/agent-registry-backend/interfaces"
)

// FileStore is a local-filesystem content store for offline and
// development use. Documents are addressed by the hex Keccak-256 of
// their bytes.
type FileStore struct {
	baseDir string
	log     *slog.Logger
}

// NewFileStore creates a file-backed content store under baseDir.
func NewFileStore(baseDir string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating content directory: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &FileStore{baseDir: baseDir, log: log}, nil
}

// Pin writes the document and returns a file:// content URI.
func (s *FileStore) Pin(ctx context.Context, doc []byte) (interfaces.ContentURI, error) {
	id := hex.EncodeToString(crypto.Keccak256(doc))
	path := filepath.Join(s.baseDir, id)

	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return "", fmt.Errorf("writing document: %w", err)
	}

	s.log.Debug("stored content", slog.String("id", id), slog.Int("size", len(doc)))
	return interfaces.ContentURI("file://" + id), nil
}

// Fetch reads a previously stored document.
func (s *FileStore) Fetch(ctx context.Context, uri interfaces.ContentURI) ([]byte, error) {
	id := strings.TrimPrefix(uri.String(), "file://")
	data, err := os.ReadFile(filepath.Join(s.baseDir, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrContentUnavailable, id)
		}
		return nil, fmt.Errorf("reading document %s: %w", id, err)
	}
	return data, nil
}
