package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	listNoiseRe = regexp.MustCompile(`^\d+\.\s*|[-•]\s*|"`)
	jsonArrayRe = regexp.MustCompile(`(?s)\[.*?\]`)
	jsonObjRe   = regexp.MustCompile(`(?s)\{.*\}`)
)

// parseStringList interprets a provider response as a list of strings. A
// valid JSON array wins; otherwise the response is split into lines with
// numbering, bullets, and quotes stripped. Lines longer than maxLen are
// dropped when maxLen is positive.
func parseStringList(response string, maxLen int) []string {
	var items []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(response)), &items); err == nil {
		return items
	}
	items = items[:0]
	for _, line := range strings.Split(response, "\n") {
		s := strings.TrimSpace(listNoiseRe.ReplaceAllString(strings.TrimSpace(line), ""))
		if s == "" {
			continue
		}
		if maxLen > 0 && len(s) >= maxLen {
			continue
		}
		items = append(items, s)
	}
	return items
}

// extractJSONArray pulls the first bracketed array out of free-form model
// output and unmarshals it into dst.
func extractJSONArray(response string, dst any) bool {
	m := jsonArrayRe.FindString(response)
	if m == "" {
		return false
	}
	return json.Unmarshal([]byte(m), dst) == nil
}

// extractJSONObject pulls the outermost braced object out of free-form
// model output and unmarshals it into dst.
func extractJSONObject(response string, dst any) bool {
	m := jsonObjRe.FindString(response)
	if m == "" {
		return false
	}
	return json.Unmarshal([]byte(m), dst) == nil
}

// limit truncates a slice to at most n elements.
func limit[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// truncate shortens s to at most n bytes.
func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
