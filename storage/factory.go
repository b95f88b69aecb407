package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/agentrail/agent-registry-backend/interfaces"
)

// StoreFor creates a content store from a location URI.
//
// Supported schemes:
//   - ipfs://host:port/?gateway=<url>&timeout=<duration> - IPFS node API
//     with gateway reads
//   - file:///path - local filesystem storage
func StoreFor(locationURI string, log *slog.Logger) (interfaces.ContentStore, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("invalid store location %q: %w", locationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "ipfs":
		timeout := DefaultFetchTimeout
		if raw := u.Query().Get("timeout"); raw != "" {
			timeout, err = time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid store timeout %q: %w", raw, err)
			}
		}
		return NewIPFSStore(u.Host, u.Query().Get("gateway"), timeout, log), nil
	case "file":
		return NewFileStore(u.Path, log)
	default:
		return nil, fmt.Errorf("unsupported store scheme: %s", u.Scheme)
	}
}
