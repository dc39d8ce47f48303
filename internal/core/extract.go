package core

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoJSONPayload is returned when the model response contains no
// well-formed JSON payload of the expected kind.
var ErrNoJSONPayload = errors.New("no JSON payload found in model response")

// ExtractJSONObject returns the first balanced JSON object substring in text.
// The model frequently wraps its payload in prose or code fences; this scans
// for the first '{' and tracks nesting while honoring string literals and
// escapes. The extracted substring is validated with json.Valid.
func ExtractJSONObject(text string) (string, error) {
	return extractBalanced(text, '{', '}')
}

// ExtractJSONArray is ExtractJSONObject for array payloads.
func ExtractJSONArray(text string) (string, error) {
	return extractBalanced(text, '[', ']')
}

func extractBalanced(text string, open, closing byte) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if start < 0 {
			if c == open {
				start = i
				depth = 1
			}
			continue
		}

		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// Brackets inside string literals do not affect nesting.
		case c == open:
			depth++
		case c == closing:
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if !json.Valid([]byte(candidate)) {
					return "", fmt.Errorf("%w: candidate substring is not valid JSON", ErrNoJSONPayload)
				}
				return candidate, nil
			}
		}
	}

	return "", ErrNoJSONPayload
}
