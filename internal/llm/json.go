package llm

import (
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"
)

// ParseJSONResponse parses a JSON response from an LLM, handling markdown code blocks.
func ParseJSONResponse(text string) map[string]any {
	text = stripCodeFence(strings.TrimSpace(text))
	if text == "" {
		return nil
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		logrus.WithError(err).Debug("Failed to parse LLM response as JSON")
		return nil
	}
	return result
}

// ParseStringList extracts a list of strings from an LLM answer. It accepts
// a bare JSON array or an object holding the list under key.
func ParseStringList(text, key string) []string {
	text = stripCodeFence(strings.TrimSpace(text))
	if text == "" {
		return nil
	}

	var list []string
	if err := json.Unmarshal([]byte(text), &list); err == nil {
		return list
	}

	obj := ParseJSONResponse(text)
	raw, ok := obj[key].([]any)
	if !ok {
		return nil
	}
	for _, v := range raw {
		if s, ok := v.(string); ok {
			list = append(list, s)
		}
	}
	return list
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	endIdx := len(lines) - 1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	if endIdx < 1 {
		return ""
	}
	return strings.TrimSpace(strings.Join(lines[1:endIdx], "\n"))
}
