package crawler

// Remote capability documents come in several shapes: lists of plain
// strings, lists of objects with varying identifier keys, and capability
// lists nested under different container conventions. Extraction is an
// ordered list of rules evaluated against the generic decoded document;
// the first rule that matches wins.

// containerKeys are the nested containers a capability list may live in,
// consulted in order when the key is absent at the document's top level.
var containerKeys = []string{"capabilities", "abilities", "features"}

// entryNameKeys are the object fields that may carry a capability's
// string identifier, in preference order.
var entryNameKeys = []string{"name", "id", "identifier", "title"}

type extractRule struct {
	name string
	fn   func(doc map[string]any, key string) ([]string, bool)
}

var docRules = []extractRule{
	{"top-level", extractTopLevel},
	{"nested-container", extractNestedContainer},
}

// extractNames pulls the capability name list for key out of a decoded
// document, or nil when no rule matches.
func extractNames(doc map[string]any, key string) []string {
	for _, rule := range docRules {
		if names, ok := rule.fn(doc, key); ok {
			return names
		}
	}
	return nil
}

func extractTopLevel(doc map[string]any, key string) ([]string, bool) {
	value, ok := doc[key]
	if !ok {
		return nil, false
	}
	return namesFromList(value), true
}

func extractNestedContainer(doc map[string]any, key string) ([]string, bool) {
	for _, container := range containerKeys {
		inner, ok := doc[container].(map[string]any)
		if !ok {
			continue
		}
		// The first container that has the key wins, whatever it holds.
		if value, present := inner[key]; present {
			return namesFromList(value), true
		}
	}
	return nil, false
}

// namesFromList converts a string-or-object list into capability names.
// Non-list values and unrecognizable entries yield nothing.
func namesFromList(value any) []string {
	list, ok := value.([]any)
	if !ok {
		return nil
	}

	var names []string
	for _, entry := range list {
		if name := entryName(entry, entryNameKeys); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// entryName resolves one list entry to its string identifier: the entry
// itself when it is a string, else the first present key from keys.
func entryName(entry any, keys []string) string {
	switch v := entry.(type) {
	case string:
		return v
	case map[string]any:
		for _, key := range keys {
			if s, ok := v[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
