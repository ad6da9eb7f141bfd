package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrParseFailed is returned when content cannot be decoded as JSON,
// bare or fenced.
var ErrParseFailed = errors.New("failed to parse response")

// Parse decodes content as JSON into T. Chat and vision models often wrap
// structured output in a markdown code fence; when bare decoding fails the
// first fenced block is tried before giving up with ErrParseFailed.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return result, nil
	}

	if fenced, ok := extractFence(content); ok {
		if err := json.Unmarshal([]byte(fenced), &result); err == nil {
			return result, nil
		}
	}

	return result, fmt.Errorf("%w: %s", ErrParseFailed, content)
}

// extractFence returns the body of the first ``` code fence, tolerating an
// optional json language tag on the opening line.
func extractFence(content string) (string, bool) {
	start := strings.Index(content, "```")
	if start == -1 {
		return "", false
	}

	body := strings.TrimPrefix(content[start+3:], "json")

	end := strings.Index(body, "```")
	if end == -1 {
		return "", false
	}

	return strings.TrimSpace(body[:end]), true
}
