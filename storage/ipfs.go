// Package storage implements the content store collaborator: pinning of
// feedback documents and multi-gateway content retrieval.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/agentrail/agent-registry-backend/interfaces"
)

// DefaultGateways is the fixed fallback gateway list, consulted after the
// configured gateway in order.
var DefaultGateways = []string{
	"https://ipfs.io",
	"https://dweb.link",
	"https://cloudflare-ipfs.com",
}

// DefaultFetchTimeout bounds each individual gateway fetch.
const DefaultFetchTimeout = 5 * time.Second

// IPFSStore pins documents through an IPFS node API and retrieves them
// through HTTP gateways.
type IPFSStore struct {
	shell    *shell.Shell
	gateways []string
	timeout  time.Duration
	client   *http.Client
	log      *slog.Logger
}

// NewIPFSStore creates a content store backed by the IPFS API at apiAddr
// (host:port or multiaddr). A non-empty preferred gateway is consulted
// before the default fallback list.
func NewIPFSStore(apiAddr, preferredGateway string, timeout time.Duration, log *slog.Logger) *IPFSStore {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if log == nil {
		log = slog.Default()
	}

	gateways := make([]string, 0, len(DefaultGateways)+1)
	if preferredGateway != "" {
		gateways = append(gateways, preferredGateway)
	}
	gateways = append(gateways, DefaultGateways...)

	return &IPFSStore{
		shell:    shell.NewShell(apiAddr),
		gateways: gateways,
		timeout:  timeout,
		client:   &http.Client{},
		log:      log,
	}
}

// Pin adds the document to the IPFS node and returns its content URI.
// Single destination; there is no client-side fallback for writes.
func (s *IPFSStore) Pin(ctx context.Context, doc []byte) (interfaces.ContentURI, error) {
	cid, err := s.shell.Add(bytes.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("pinning document: %w", err)
	}

	s.log.Debug("pinned content",
		slog.String("cid", cid),
		slog.Int("size", len(doc)))

	return interfaces.ContentURI("ipfs://" + cid), nil
}

// Fetch retrieves the document through the configured gateway list.
func (s *IPFSStore) Fetch(ctx context.Context, uri interfaces.ContentURI) ([]byte, error) {
	return FetchFromGateways(ctx, s.client, uri.CID(), s.gateways, s.timeout, s.log)
}

// FetchFromGateways issues a bounded-timeout fetch to every gateway
// concurrently, waits for all of them to settle, and returns the body
// from the earliest-configured gateway that succeeded. This deliberately
// trades latency for deterministic gateway preference: a later gateway
// finishing first never wins. All gateways failing yields
// ErrContentUnavailable.
func FetchFromGateways(ctx context.Context, client *http.Client, cid string, gateways []string, timeout time.Duration, log *slog.Logger) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}

	type settled struct {
		body []byte
		err  error
	}
	results := make([]settled, len(gateways))

	var wg sync.WaitGroup
	for i, gateway := range gateways {
		wg.Add(1)
		go func(i int, gateway string) {
			defer wg.Done()
			body, err := fetchOnce(ctx, client, gateway, cid, timeout)
			results[i] = settled{body: body, err: err}
		}(i, gateway)
	}
	wg.Wait()

	for i, res := range results {
		if res.err == nil {
			log.Debug("fetched content from gateway",
				slog.String("gateway", gateways[i]),
				slog.String("cid", cid))
			return res.body, nil
		}
		log.Debug("gateway fetch failed",
			slog.String("gateway", gateways[i]),
			slog.String("cid", cid),
			"err", res.err)
	}

	return nil, fmt.Errorf("%w: cid %s, %d gateways tried", interfaces.ErrContentUnavailable, cid, len(gateways))
}

func fetchOnce(ctx context.Context, client *http.Client, gateway, cid string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := strings.TrimSuffix(gateway, "/") + "/ipfs/" + cid
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
