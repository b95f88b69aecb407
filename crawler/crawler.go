// Package crawler probes untrusted remote agent endpoints to determine
// which capabilities they expose, using an ordered cascade of transport
// and protocol strategies with soft-failure semantics throughout: every
// transport error, timeout, non-2xx status or parse failure means "this
// candidate failed", never a fatal error to the caller.
package crawler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/agentrail/agent-registry-backend/interfaces"
)

// DefaultProbeTimeout bounds each individual probe request.
const DefaultProbeTimeout = 5 * time.Second

// Crawler discovers agent capabilities over HTTP(S). Endpoints are
// arbitrary and untrusted; the crawler never fails hard on their account.
type Crawler struct {
	client  *http.Client
	timeout time.Duration
	log     *slog.Logger
}

// New creates a capability crawler. A zero timeout selects
// DefaultProbeTimeout.
func New(timeout time.Duration, log *slog.Logger) *Crawler {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Crawler{
		// Redirects are followed by default, which probing relies on.
		client:  &http.Client{},
		timeout: timeout,
		log:     log,
	}
}

// Crawl probes the endpoint for MCP-style capabilities and A2A-style
// skills and returns whichever it could determine, or nil when nothing
// was found. It never returns an error.
func (c *Crawler) Crawl(ctx context.Context, endpoint string) interfaces.CapabilitySet {
	if !validEndpoint(endpoint) {
		return nil
	}

	set := c.FetchMCPCapabilities(ctx, endpoint)
	if skills := c.FetchA2ASkills(ctx, endpoint); len(skills) > 0 {
		if set == nil {
			set = interfaces.CapabilitySet{}
		}
		set.Add(interfaces.CapabilitySkills, skills...)
	}

	if set == nil || set.Empty() {
		return nil
	}
	return set
}

// validEndpoint accepts only absolute http(s) URLs.
func validEndpoint(endpoint string) bool {
	return strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://")
}

// fetchJSON GETs a URL with the probe timeout and decodes a JSON object.
func (c *Crawler) fetchJSON(ctx context.Context, url string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return http.StatusText(e.code)
}
