package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wrapMarkers(body string) string {
	return markerStart + "\n" + body + "\n" + markerEnd + "\n"
}

func TestExtractPayload(t *testing.T) {
	t.Run("payload only", func(t *testing.T) {
		payload, logs, err := extractPayload(wrapMarkers(`{"success":true,"result":15}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":true,"result":15}`, string(payload))
		assert.Empty(t, logs)
	})

	t.Run("logs around markers", func(t *testing.T) {
		stdout := "loading data\n\nrows: 3\n" + wrapMarkers(`{"success":true}`) + "bye\n"
		payload, logs, err := extractPayload(stdout)
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":true}`, string(payload))
		assert.Equal(t, []string{"loading data", "rows: 3", "bye"}, logs)
	})

	t.Run("markers on one line", func(t *testing.T) {
		payload, _, err := extractPayload("x" + markerStart + `{"a":1}` + markerEnd)
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":1}`, string(payload))
	})

	t.Run("first end after first start wins", func(t *testing.T) {
		stdout := wrapMarkers(`{"n":1}`) + wrapMarkers(`{"n":2}`)
		payload, _, err := extractPayload(stdout)
		require.NoError(t, err)
		assert.JSONEq(t, `{"n":1}`, string(payload))
	})

	t.Run("crlf line endings", func(t *testing.T) {
		stdout := "hello\r\n" + markerStart + "\r\n{\"ok\":true}\r\n" + markerEnd + "\r\n"
		payload, logs, err := extractPayload(stdout)
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, string(payload))
		assert.Equal(t, []string{"hello"}, logs)
	})
}

func TestExtractPayloadMalformed(t *testing.T) {
	cases := map[string]string{
		"empty output":        "",
		"no markers":          `{"success":true}`,
		"missing start":       `{"success":true}` + "\n" + markerEnd,
		"missing end":         markerStart + "\n" + `{"success":true}`,
		"end before start":    markerEnd + "\n" + `{"success":true}` + "\n" + markerStart,
		"empty body":          markerStart + "\n \n" + markerEnd,
		"invalid json":        wrapMarkers(`{"success":`),
		"text between":        wrapMarkers("not json"),
		"stray end then pair": markerEnd + "\n" + wrapMarkers(`{"a":1}`),
	}

	for name, stdout := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := extractPayload(stdout)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedOutput))

			var e *Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, tail(stdout, maxDiagnosticOutput), e.Output)
		})
	}
}

func TestMalformedOutputIsTruncated(t *testing.T) {
	stdout := strings.Repeat("x", maxDiagnosticOutput*2)
	_, _, err := extractPayload(stdout)

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Len(t, e.Output, maxDiagnosticOutput)
}
