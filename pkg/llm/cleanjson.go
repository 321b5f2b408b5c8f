package llm

import (
	"regexp"
	"strings"
)

var (
	openFenceRgx  = regexp.MustCompile("(?i)```json\\s*")
	closeFenceRgx = regexp.MustCompile("(?m)```\\s*$")
)

// CleanJSON extracts the JSON object from a model answer. Code fences are
// removed and the text between the first '{' and the last '}' is kept. An
// empty answer becomes "{}".
func CleanJSON(text string) string {
	if text == "" {
		return "{}"
	}
	text = openFenceRgx.ReplaceAllString(text, "")
	text = closeFenceRgx.ReplaceAllString(text, "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end != -1 && end >= start {
		return text[start : end+1]
	}
	return text
}
