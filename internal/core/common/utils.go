package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSON cleans and unmarshals a JSON value of type T from an LLM
// response. It tolerates surrounding prose and markdown fences by slicing
// from the first opening bracket/brace to the last closing one, so both
// objects and arrays parse.
func ParseJSON[T any](response string) (T, error) {
	var zero T

	objStart := strings.Index(response, "{")
	arrStart := strings.Index(response, "[")

	start := objStart
	openTok, closeTok := "{", "}"
	if arrStart != -1 && (objStart == -1 || arrStart < objStart) {
		start = arrStart
		openTok, closeTok = "[", "]"
	}
	if start == -1 {
		return zero, fmt.Errorf("no JSON value found in response (missing '%s')", openTok)
	}

	end := strings.LastIndex(response, closeTok)
	if end <= start {
		return zero, fmt.Errorf("no JSON value found in response (missing '%s')", closeTok)
	}

	jsonStr := response[start : end+1]

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, jsonStr)
	}
	return result, nil
}
