package interfaces

// CapabilityKind names one class of advertised agent capability.
type CapabilityKind string

const (
	CapabilityTools     CapabilityKind = "tools"
	CapabilityPrompts   CapabilityKind = "prompts"
	CapabilityResources CapabilityKind = "resources"
	CapabilitySkills    CapabilityKind = "skills"
)

// CapabilitySet maps capability kinds to ordered, deduplicated capability
// names. Produced fresh per crawl; never persisted by the crawler.
type CapabilitySet map[CapabilityKind][]string

// Add appends names to the kind's list, preserving order and dropping
// duplicates and empty strings.
func (s CapabilitySet) Add(kind CapabilityKind, names ...string) {
	existing := s[kind]
	seen := make(map[string]bool, len(existing))
	for _, n := range existing {
		seen[n] = true
	}
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		existing = append(existing, n)
	}
	if len(existing) > 0 {
		s[kind] = existing
	}
}

// Empty reports whether no kind holds any capability name.
func (s CapabilitySet) Empty() bool {
	for _, names := range s {
		if len(names) > 0 {
			return false
		}
	}
	return true
}
