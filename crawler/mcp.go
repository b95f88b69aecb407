package crawler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/agentrail/agent-registry-backend/interfaces"
)

// mcpPathSuffixes are the candidate MCP mount points probed in order.
var mcpPathSuffixes = []string{"", "/mcp", "/sse"}

// mcpListCalls are the three capability-listing calls issued concurrently
// against each candidate path.
var mcpListCalls = []struct {
	kind     interfaces.CapabilityKind
	method   string
	listKey  string
	nameKeys []string
}{
	{interfaces.CapabilityTools, "tools/list", "tools", []string{"name"}},
	{interfaces.CapabilityResources, "resources/list", "resources", []string{"uri", "name"}},
	{interfaces.CapabilityPrompts, "prompts/list", "prompts", []string{"name"}},
}

// FetchMCPCapabilities probes the endpoint for MCP-style capabilities:
// first the structured-RPC listing calls against each candidate path
// suffix (first path yielding any capability wins), then the static
// agentcard.json fallback. Returns nil when nothing was found.
func (c *Crawler) FetchMCPCapabilities(ctx context.Context, endpoint string) interfaces.CapabilitySet {
	if !validEndpoint(endpoint) {
		return nil
	}

	base := strings.TrimSuffix(endpoint, "/")
	for _, suffix := range mcpPathSuffixes {
		if set := c.probeMCPPath(ctx, base+suffix); set != nil {
			return set
		}
	}

	return c.fetchCardCapabilities(ctx, base)
}

// probeMCPPath issues the three listing calls concurrently against one
// candidate path and collects whatever succeeds. Returns nil when no call
// yielded a non-empty capability list.
func (c *Crawler) probeMCPPath(ctx context.Context, url string) interfaces.CapabilitySet {
	results := make([][]string, len(mcpListCalls))

	var wg sync.WaitGroup
	for i, call := range mcpListCalls {
		wg.Add(1)
		go func(i int, method string, listKey string, nameKeys []string) {
			defer wg.Done()
			payload, err := c.rpcCall(ctx, url, method, i+1)
			if err != nil {
				c.log.Debug("MCP listing call failed",
					slog.String("url", url),
					slog.String("method", method),
					"err", err)
				return
			}
			list, _ := payload[listKey].([]any)
			for _, entry := range list {
				if name := entryName(entry, nameKeys); name != "" {
					results[i] = append(results[i], name)
				}
			}
		}(i, call.method, call.listKey, call.nameKeys)
	}
	wg.Wait()

	set := interfaces.CapabilitySet{}
	for i, call := range mcpListCalls {
		set.Add(call.kind, results[i]...)
	}
	if set.Empty() {
		return nil
	}
	return set
}

// rpcCall sends one JSON-RPC request and returns the decoded payload,
// preferring the nested result envelope when present. The reply may be a
// plain JSON document or a text-event-stream whose first "data:" line
// carries the JSON payload.
func (c *Crawler) rpcCall(ctx context.Context, url, method string, id int) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqBody, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  map[string]any{},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

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

	var envelope map[string]any
	if strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		envelope, err = parseEventStream(body)
	} else if jsonErr := json.Unmarshal(body, &envelope); jsonErr != nil {
		// Some servers stream SSE without declaring the content type.
		envelope, err = parseEventStream(body)
	}
	if err != nil {
		return nil, err
	}

	if result, ok := envelope["result"].(map[string]any); ok {
		return result, nil
	}
	return envelope, nil
}

// parseEventStream extracts the JSON payload from the first "data:" line
// of a text-event-stream body.
func parseEventStream(body []byte) (map[string]any, error) {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		var doc map[string]any
		if err := json.Unmarshal([]byte(payload), &doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	return nil, io.ErrUnexpectedEOF
}

// fetchCardCapabilities is the static document fallback: extract
// tools/prompts/resources lists from <endpoint>/agentcard.json.
func (c *Crawler) fetchCardCapabilities(ctx context.Context, base string) interfaces.CapabilitySet {
	doc, err := c.fetchJSON(ctx, base+"/agentcard.json")
	if err != nil {
		c.log.Debug("agent card fetch failed", slog.String("endpoint", base), "err", err)
		return nil
	}

	set := interfaces.CapabilitySet{}
	for _, kind := range []interfaces.CapabilityKind{interfaces.CapabilityTools, interfaces.CapabilityPrompts, interfaces.CapabilityResources} {
		set.Add(kind, extractNames(doc, string(kind))...)
	}
	if set.Empty() {
		return nil
	}
	return set
}
