package location

import "strings"

// CanonicalBuildings returns the aggregate store's building vocabulary.
func CanonicalBuildings() []string {
	out := make([]string, len(canonicalBuildings))
	copy(out, canonicalBuildings)
	return out
}

// NormalizeBuilding maps a raw building name onto the canonical aggregate
// vocabulary. Resolution order: exact case-insensitive match, short-form
// expansion, trailing-suffix stripping, then unique case-insensitive
// substring containment. Ambiguous or unknown names fail; callers skip and
// log, never guess.
func NormalizeBuilding(raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", false
	}

	if canonical, ok := exactCanonical(name); ok {
		return canonical, true
	}
	if expansion, ok := shortToFullBuilding[strings.ToLower(name)]; ok {
		return resolveExpansion(expansion)
	}
	if stripped, ok := stripSuffix(name); ok {
		if canonical, ok := exactCanonical(stripped); ok {
			return canonical, true
		}
		if expansion, ok := shortToFullBuilding[strings.ToLower(stripped)]; ok {
			return resolveExpansion(expansion)
		}
	}
	return uniqueSubstring(name)
}

func exactCanonical(name string) (string, bool) {
	for _, canonical := range canonicalBuildings {
		if strings.EqualFold(name, canonical) {
			return canonical, true
		}
	}
	return "", false
}

// resolveExpansion maps a short-form expansion (a full building name) back
// onto the canonical vocabulary.
func resolveExpansion(expansion string) (string, bool) {
	if canonical, ok := exactCanonical(expansion); ok {
		return canonical, true
	}
	if stripped, ok := stripSuffix(expansion); ok {
		if canonical, ok := exactCanonical(stripped); ok {
			return canonical, true
		}
	}
	return uniqueSubstring(expansion)
}

func stripSuffix(name string) (string, bool) {
	for _, suffix := range buildingSuffixes {
		if len(name) > len(suffix) && strings.EqualFold(name[len(name)-len(suffix):], suffix) {
			return strings.TrimSpace(name[:len(name)-len(suffix)]), true
		}
	}
	return "", false
}

func uniqueSubstring(name string) (string, bool) {
	lower := strings.ToLower(name)
	match := ""
	for _, canonical := range canonicalBuildings {
		canonicalLower := strings.ToLower(canonical)
		if strings.Contains(canonicalLower, lower) || strings.Contains(lower, canonicalLower) {
			if match != "" {
				return "", false
			}
			match = canonical
		}
	}
	return match, match != ""
}
