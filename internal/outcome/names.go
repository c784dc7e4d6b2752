package outcome

import "strings"

// NormalizeKind canonicalizes outcome kind names and common aliases.
// Unknown names are only lowercased and trimmed so custom kinds still
// resolve by their registered name.
func NormalizeKind(name string) string {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = strings.Trim(normalized, "-")
	if normalized == "" {
		return ""
	}
	for _, candidate := range aliasCandidates(normalized) {
		if canonical, ok := canonicalKind(candidate); ok {
			return canonical
		}
	}
	return normalized
}

func aliasCandidates(normalized string) []string {
	candidates := []string{normalized}
	if trimmed := strings.Trim(strings.TrimPrefix(normalized, "kind-"), "-"); trimmed != "" && trimmed != normalized {
		candidates = append(candidates, trimmed)
	}
	return candidates
}

func canonicalKind(alias string) (string, bool) {
	switch strings.ReplaceAll(alias, "-", "") {
	case "bool", "boolean", "coin":
		return "bool", true
	case "int", "integer":
		return "int", true
	case "float", "float64", "double", "number", "real":
		return "float", true
	case "choice", "oneof", "pick", "item":
		return "choice", true
	default:
		return "", false
	}
}
