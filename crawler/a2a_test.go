package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func cardServer(t *testing.T, docs map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := docs[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchA2ASkillsFromAgentCard(t *testing.T) {
	srv := cardServer(t, map[string]string{
		"/agentcard.json": `{"skills":["translate","summarize"]}`,
	})

	c := New(0, nil)
	skills := c.FetchA2ASkills(context.Background(), srv.URL)
	assert.Equal(t, []string{"translate", "summarize"}, skills)
}

func TestFetchA2ASkillsWellKnownFallback(t *testing.T) {
	srv := cardServer(t, map[string]string{
		"/.well-known/agent.json": `{"skills":[{"id":"review"},{"name":"search"}]}`,
	})

	c := New(0, nil)
	skills := c.FetchA2ASkills(context.Background(), srv.URL)
	assert.Equal(t, []string{"review", "search"}, skills)
}

func TestFetchA2ASkillsAgentCardWins(t *testing.T) {
	srv := cardServer(t, map[string]string{
		"/agentcard.json":         `{"skills":["first"]}`,
		"/.well-known/agent.json": `{"skills":["second"]}`,
	})

	c := New(0, nil)
	skills := c.FetchA2ASkills(context.Background(), srv.URL)
	assert.Equal(t, []string{"first"}, skills)
}

func TestFetchA2ASkillsEmptyCardKeepsProbing(t *testing.T) {
	// A card without a usable skills list does not end the cascade.
	srv := cardServer(t, map[string]string{
		"/agentcard.json":         `{"skills":[]}`,
		"/.well-known/agent.json": `{"skills":["found-later"]}`,
	})

	c := New(0, nil)
	skills := c.FetchA2ASkills(context.Background(), srv.URL)
	assert.Equal(t, []string{"found-later"}, skills)
}

func TestFetchA2ASkillsNothingFound(t *testing.T) {
	srv := cardServer(t, nil)

	c := New(0, nil)
	assert.Nil(t, c.FetchA2ASkills(context.Background(), srv.URL))
	assert.Nil(t, c.FetchA2ASkills(context.Background(), "not-a-url"))
}
