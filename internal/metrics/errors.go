package metrics

import "strings"

var outcomeLabels = map[string]string{
	OutcomeSuccess:     "Success",
	OutcomeRateLimited: "Rate limited",
	OutcomeNotFound:    "Model not found",
	OutcomeOther:       "Other error",
}

// FriendlyOutcomeName returns a human-friendly label for an outcome name.
func FriendlyOutcomeName(outcome string) string {
	cleaned := strings.ToLower(strings.TrimSpace(outcome))
	if cleaned == "" {
		return "Unknown"
	}
	if label, ok := outcomeLabels[cleaned]; ok {
		return label
	}
	words := strings.Fields(strings.ReplaceAll(cleaned, "_", " "))
	if len(words) == 0 {
		return "Unknown"
	}
	words[0] = strings.ToUpper(words[0][:1]) + words[0][1:]
	return strings.Join(words, " ")
}
