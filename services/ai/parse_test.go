package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStringList(t *testing.T) {
	t.Run("json array", func(t *testing.T) {
		got := parseStringList(`["go channels", "goroutine basics"]`, 0)
		assert.Equal(t, []string{"go channels", "goroutine basics"}, got)
	})

	t.Run("numbered lines", func(t *testing.T) {
		got := parseStringList("1. go channels\n2. goroutine basics\n", 0)
		assert.Equal(t, []string{"go channels", "goroutine basics"}, got)
	})

	t.Run("bulleted and quoted lines", func(t *testing.T) {
		got := parseStringList("- first\n• second\n\"third\"\n\n", 0)
		assert.Equal(t, []string{"first", "second", "third"}, got)
	})

	t.Run("long lines dropped when capped", func(t *testing.T) {
		long := make([]byte, 120)
		for i := range long {
			long[i] = 'x'
		}
		got := parseStringList("short\n"+string(long), 100)
		assert.Equal(t, []string{"short"}, got)
	})
}

func TestExtractJSONArray(t *testing.T) {
	var ids []string

	t.Run("embedded in prose", func(t *testing.T) {
		ok := extractJSONArray(`Sure! Here are the ids: ["a", "b"] hope that helps`, &ids)
		assert.True(t, ok)
		assert.Equal(t, []string{"a", "b"}, ids)
	})

	t.Run("no array", func(t *testing.T) {
		assert.False(t, extractJSONArray("no brackets here", &ids))
	})

	t.Run("malformed array", func(t *testing.T) {
		assert.False(t, extractJSONArray(`[not json]`, &ids))
	})
}

func TestExtractJSONObject(t *testing.T) {
	t.Run("analysis object in prose", func(t *testing.T) {
		var analysis Analysis
		resp := "Here is my analysis:\n{\"clarity\": 4, \"detail\": 3, \"relevance\": 5, \"suggested_improvements\": [\"add code\"], \"tags\": [\"go\"], \"summary\": \"solid question\"}\nLet me know!"
		ok := extractJSONObject(resp, &analysis)
		assert.True(t, ok)
		assert.Equal(t, 4, analysis.Clarity)
		assert.Equal(t, []string{"go"}, analysis.Tags)
		assert.Equal(t, "solid question", analysis.Summary)
	})

	t.Run("no object", func(t *testing.T) {
		var analysis Analysis
		assert.False(t, extractJSONObject("nothing here", &analysis))
	})
}
