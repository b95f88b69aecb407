package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentrail/agent-registry-backend/interfaces"
)

// rpcServer answers tools/resources/prompts listing calls per path with the
// given payloads, 404 for everything else.
func rpcServer(t *testing.T, byPath map[string]map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payloads, ok := byPath[r.URL.Path]
		if !ok || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}

		var req struct {
			ID     int    `json:"id"`
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		result, ok := payloads[req.Method]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchMCPCapabilitiesPathCascade(t *testing.T) {
	// The root answers with an empty tools list, the /mcp mount carries the
	// real ones. An empty first path must not stop the cascade.
	srv := rpcServer(t, map[string]map[string]any{
		"/": {
			"tools/list": map[string]any{"tools": []any{}},
		},
		"/mcp": {
			"tools/list": map[string]any{"tools": []any{
				map[string]any{"name": "search"},
				map[string]any{"name": "fetch"},
			}},
		},
	})

	c := New(0, nil)
	set := c.FetchMCPCapabilities(context.Background(), srv.URL)
	require.NotNil(t, set)
	assert.Equal(t, []string{"search", "fetch"}, set[interfaces.CapabilityTools])
}

func TestFetchMCPCapabilitiesMergesListingCalls(t *testing.T) {
	srv := rpcServer(t, map[string]map[string]any{
		"/": {
			"tools/list":     map[string]any{"tools": []any{map[string]any{"name": "search"}}},
			"resources/list": map[string]any{"resources": []any{map[string]any{"uri": "file:///a", "name": "ignored"}}},
			"prompts/list":   map[string]any{"prompts": []any{map[string]any{"name": "greet"}}},
		},
	})

	c := New(0, nil)
	set := c.FetchMCPCapabilities(context.Background(), srv.URL)
	require.NotNil(t, set)
	assert.Equal(t, []string{"search"}, set[interfaces.CapabilityTools])
	// Resources identify by uri first.
	assert.Equal(t, []string{"file:///a"}, set[interfaces.CapabilityResources])
	assert.Equal(t, []string{"greet"}, set[interfaces.CapabilityPrompts])
}

func TestFetchMCPCapabilitiesSSEReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req struct {
			ID     int    `json:"id"`
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Method != "tools/list" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "event: message\ndata: {\"jsonrpc\":\"2.0\",\"id\":%d,\"result\":{\"tools\":[{\"name\":\"stream-tool\"}]}}\n\n", req.ID)
	}))
	t.Cleanup(srv.Close)

	c := New(0, nil)
	set := c.FetchMCPCapabilities(context.Background(), srv.URL)
	require.NotNil(t, set)
	assert.Equal(t, []string{"stream-tool"}, set[interfaces.CapabilityTools])
}

func TestFetchMCPCapabilitiesCardFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/agentcard.json" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"capabilities":{"tools":["card-tool"],"prompts":["card-prompt"]}}`))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	c := New(0, nil)
	set := c.FetchMCPCapabilities(context.Background(), srv.URL)
	require.NotNil(t, set)
	assert.Equal(t, []string{"card-tool"}, set[interfaces.CapabilityTools])
	assert.Equal(t, []string{"card-prompt"}, set[interfaces.CapabilityPrompts])
}

func TestFetchMCPCapabilitiesNothingFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	c := New(0, nil)
	assert.Nil(t, c.FetchMCPCapabilities(context.Background(), srv.URL))
}

func TestCrawlRejectsInvalidEndpoint(t *testing.T) {
	c := New(0, nil)
	assert.Nil(t, c.Crawl(context.Background(), "ftp://example.com"))
	assert.Nil(t, c.Crawl(context.Background(), "example.com"))
	assert.Nil(t, c.Crawl(context.Background(), ""))
}
