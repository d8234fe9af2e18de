// Package jsonx extracts JSON payloads from free-form completion output.
//
// Completion replies are opaque text that may carry a JSON object or array,
// optionally fenced in a ```json code block. Every stage funnels replies
// through this single parse boundary: the result is either a decoded value
// or a *ParseError the stage maps to its deterministic fallback.
package jsonx

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// ParseError reports an undecodable or structurally invalid completion reply.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse completion reply: %s", e.Reason)
}

// Extract returns the JSON payload embedded in text. It tries, in order:
// a ```json fenced block, a bare ``` fenced block, the whole trimmed text,
// and finally the outermost brace- or bracket-delimited span.
func Extract(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &ParseError{Reason: "empty reply"}
	}

	candidates := []string{trimmed}
	if fenced, ok := unfence(trimmed); ok {
		candidates = []string{fenced, trimmed}
	}
	if span, ok := outermostSpan(trimmed); ok {
		candidates = append(candidates, span)
	}

	for _, candidate := range candidates {
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
	}
	return nil, &ParseError{Reason: "no decodable JSON payload"}
}

// Object extracts a JSON object and requires every key in required to be
// present at the top level.
func Object(text string, required ...string) (map[string]any, error) {
	raw, err := Extract(text)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, &ParseError{Reason: "payload is not a JSON object"}
	}
	for _, key := range required {
		if _, ok := obj[key]; !ok {
			return nil, &ParseError{Reason: fmt.Sprintf("missing top-level key %q", key)}
		}
	}
	return obj, nil
}

// Strings extracts a JSON array of strings, skipping non-string elements.
func Strings(text string) ([]string, error) {
	raw, err := Extract(text)
	if err != nil {
		return nil, err
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &ParseError{Reason: "payload is not a JSON array"}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// Decode maps a dynamic object onto a struct using its json field tags.
// Unknown keys are ignored and mismatched value types are coerced where
// safe; anything else is a parse fault.
func Decode(src map[string]any, dst any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           dst,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := decoder.Decode(src); err != nil {
		return &ParseError{Reason: err.Error()}
	}
	return nil
}

func unfence(text string) (string, bool) {
	for _, marker := range []string{"```json", "```"} {
		start := strings.Index(text, marker)
		if start < 0 {
			continue
		}
		rest := text[start+len(marker):]
		end := strings.Index(rest, "```")
		if end < 0 {
			continue
		}
		return strings.TrimSpace(rest[:end]), true
	}
	return "", false
}

func outermostSpan(text string) (string, bool) {
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(text, pair[0])
		end := strings.LastIndex(text, pair[1])
		if start >= 0 && end > start {
			return text[start : end+1], true
		}
	}
	return "", false
}
