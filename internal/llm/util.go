package llm

import "strings"

// CleanJSONBlock strips a markdown code fence from a model response. Gemini
// is asked for application/json, but fenced output still shows up when a
// prompt echoes schema text, so the extractor defends against it before
// validation.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	body := strings.TrimPrefix(text, "```")
	body = strings.TrimPrefix(body, "json")
	if idx := strings.IndexByte(body, '\n'); idx >= 0 && isFenceInfo(body[:idx]) {
		body = body[idx+1:]
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

// isFenceInfo reports whether a fence's first line is an info string
// ("javascript", "jsonc", ...) rather than the start of the payload.
func isFenceInfo(line string) bool {
	line = strings.TrimSpace(line)
	return len(line) < 20 && !strings.ContainsAny(line, " {")
}
