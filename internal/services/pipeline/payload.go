package pipeline

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Generation prompts ask for bare JSON, but models habitually wrap their
// output in a markdown fence. The codec accepts only the fenced form so
// that prose responses and refusals never reach the JSON decoder.
var jsonBlockPattern = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// ExtractJSONBlock returns the interior of the first ```json fenced block
// in text, trimmed. The boolean distinguishes a missing block from an
// empty one.
func ExtractJSONBlock(text string) (string, bool) {
	match := jsonBlockPattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	return strings.TrimSpace(match[1]), true
}

// DecodePayload extracts the fenced JSON block from a model response and
// unmarshals it into T. A missing block is ErrNoJSONBlock, a block that
// does not parse is ErrMalformedJSON.
func DecodePayload[T any](text string) (T, error) {
	var payload T

	block, ok := ExtractJSONBlock(text)
	if !ok {
		return payload, ErrNoJSONBlock
	}
	if err := json.Unmarshal([]byte(block), &payload); err != nil {
		return payload, fmt.Errorf("%w: %s", ErrMalformedJSON, err)
	}
	return payload, nil
}
