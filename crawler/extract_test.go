package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractNames(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
		key  string
		want []string
	}{
		{
			name: "top-level string list",
			doc:  map[string]any{"tools": []any{"search", "fetch"}},
			key:  "tools",
			want: []string{"search", "fetch"},
		},
		{
			name: "top-level object list by name",
			doc:  map[string]any{"tools": []any{map[string]any{"name": "search"}}},
			key:  "tools",
			want: []string{"search"},
		},
		{
			name: "object list falls back through identifier keys",
			doc: map[string]any{"skills": []any{
				map[string]any{"id": "translate"},
				map[string]any{"identifier": "summarize"},
				map[string]any{"title": "Review"},
			}},
			key:  "skills",
			want: []string{"translate", "summarize", "Review"},
		},
		{
			name: "name preferred over id",
			doc:  map[string]any{"skills": []any{map[string]any{"id": "x", "name": "search"}}},
			key:  "skills",
			want: []string{"search"},
		},
		{
			name: "nested under capabilities",
			doc:  map[string]any{"capabilities": map[string]any{"tools": []any{"a"}}},
			key:  "tools",
			want: []string{"a"},
		},
		{
			name: "nested under abilities",
			doc:  map[string]any{"abilities": map[string]any{"prompts": []any{"p"}}},
			key:  "prompts",
			want: []string{"p"},
		},
		{
			name: "top level shadows nested",
			doc: map[string]any{
				"tools":        []any{"outer"},
				"capabilities": map[string]any{"tools": []any{"inner"}},
			},
			key:  "tools",
			want: []string{"outer"},
		},
		{
			name: "first container with key wins even when empty",
			doc: map[string]any{
				"capabilities": map[string]any{"tools": []any{}},
				"features":     map[string]any{"tools": []any{"late"}},
			},
			key:  "tools",
			want: nil,
		},
		{
			name: "unrecognized entries dropped",
			doc:  map[string]any{"tools": []any{42, map[string]any{"desc": "no name"}, "ok"}},
			key:  "tools",
			want: []string{"ok"},
		},
		{
			name: "non-list value",
			doc:  map[string]any{"tools": "not a list"},
			key:  "tools",
			want: nil,
		},
		{
			name: "key absent",
			doc:  map[string]any{"other": []any{"x"}},
			key:  "tools",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractNames(tt.doc, tt.key))
		})
	}
}
