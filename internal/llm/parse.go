package llm

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseResponse extracts the structured result from a model's raw text. The
// text must be a JSON object with a string "response" field; a surrounding
// markdown code fence is tolerated.
func ParseResponse(text string) (Result, error) {
	body := stripFence(strings.TrimSpace(text))
	if body == "" {
		return Result{}, fmt.Errorf("%w: empty output", ErrMalformedOutput)
	}
	if !gjson.Valid(body) {
		return Result{}, fmt.Errorf("%w: not valid JSON", ErrMalformedOutput)
	}
	field := gjson.Get(body, "response")
	if !field.Exists() {
		return Result{}, fmt.Errorf("%w: missing response field", ErrMalformedOutput)
	}
	if field.Type != gjson.String {
		return Result{}, fmt.Errorf("%w: response field is %s, want string", ErrMalformedOutput, field.Type)
	}
	return Result{Response: field.String()}, nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl != -1 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
