package services

import (
	"encoding/json"
	"strings"
)

// Worker stdout is shared with whatever the invoked script prints, so the
// machine-readable result is bracketed by these markers. They must not be
// referenced outside this file; dialects receive them as arguments.
const (
	markerStart = "__BERT_RESULT_START__"
	markerEnd   = "__BERT_RESULT_END__"

	maxDiagnosticOutput = 4096
)

// extractPayload returns the JSON between the first start marker and the first
// end marker, plus every non-empty stdout line outside them.
func extractPayload(stdout string) ([]byte, []string, error) {
	start := strings.Index(stdout, markerStart)
	end := strings.Index(stdout, markerEnd)

	switch {
	case start < 0 && end < 0:
		return nil, nil, malformed("worker output contains no result markers", stdout)
	case start < 0:
		return nil, nil, malformed("worker output is missing the start marker", stdout)
	case end < 0:
		return nil, nil, malformed("worker output is missing the end marker", stdout)
	case end < start:
		return nil, nil, malformed("worker output end marker precedes start marker", stdout)
	}

	body := strings.TrimSpace(stdout[start+len(markerStart) : end])
	if body == "" {
		return nil, nil, malformed("worker output has an empty result between markers", stdout)
	}
	if !json.Valid([]byte(body)) {
		return nil, nil, malformed("worker output between markers is not valid JSON", stdout)
	}

	logs := splitLogLines(stdout[:start])
	logs = append(logs, splitLogLines(stdout[end+len(markerEnd):])...)
	return []byte(body), logs, nil
}

func splitLogLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func malformed(msg, stdout string) *Error {
	return &Error{Kind: KindMalformedOutput, Message: msg, Output: tail(stdout, maxDiagnosticOutput)}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
