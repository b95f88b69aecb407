package crawler

import (
	"context"
	"log/slog"
	"strings"
)

// FetchA2ASkills probes the endpoint for an A2A-style agent card and
// returns its skills list, or nil when no candidate document carries a
// non-empty one.
func (c *Crawler) FetchA2ASkills(ctx context.Context, endpoint string) []string {
	if !validEndpoint(endpoint) {
		return nil
	}

	stripped := strings.TrimSuffix(endpoint, "/")
	candidates := []string{
		stripped + "/agentcard.json",
		endpoint + "/.well-known/agent.json",
		stripped + "/.well-known/agent.json",
	}

	tried := make(map[string]bool, len(candidates))
	for _, url := range candidates {
		if tried[url] {
			continue
		}
		tried[url] = true

		doc, err := c.fetchJSON(ctx, url)
		if err != nil {
			c.log.Debug("A2A card candidate failed", slog.String("url", url), "err", err)
			continue
		}

		if skills := extractNames(doc, "skills"); len(skills) > 0 {
			return skills
		}
	}
	return nil
}
