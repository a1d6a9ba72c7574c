package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(level Level, redact bool) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Logger{
		level:     level,
		redactPII: redact,
		out:       &buf,
		now:       func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]string {
	t.Helper()
	var out []map[string]string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]string
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestLogger_WritesJSONFields(t *testing.T) {
	l, buf := newTestLogger(INFO, false)
	l.log(INFO, "created user list", "resource_name", "customers/1/userLists/2", "count", 3)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "created user list", lines[0]["msg"])
	assert.Equal(t, "2026-01-02T03:04:05Z", lines[0]["time"])
	assert.Equal(t, "customers/1/userLists/2", lines[0]["resource_name"])
	assert.Equal(t, "3", lines[0]["count"])
}

func TestLogger_LevelFilter(t *testing.T) {
	l, buf := newTestLogger(WARN, false)
	l.log(DEBUG, "hidden")
	l.log(INFO, "hidden")
	l.log(ERROR, "shown")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["msg"])
}

func TestLogger_RedactsPII(t *testing.T) {
	l, buf := newTestLogger(DEBUG, true)
	l.log(INFO, "row", "email", "john.doe@example.com", "phone", "+15555550100", "note", "contact ab@example.com please")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "jo***@example.com", lines[0]["email"])
	assert.Equal(t, "***00", lines[0]["phone"])
	assert.Equal(t, "contact ***@example.com please", lines[0]["note"])
}

func TestLogger_RedactsIdentifierValuesOnly(t *testing.T) {
	l, buf := newTestLogger(DEBUG, true)
	l.log(INFO, "start", "identifier_kind", "email", "identifier", "jane@example.com", "raw_identifier", "bob@example.com")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "email", lines[0]["identifier_kind"])
	assert.NotContains(t, lines[0]["identifier"], "jane")
	assert.NotContains(t, lines[0]["raw_identifier"], "bob@")
}

func TestLogger_DropsDanglingKey(t *testing.T) {
	l, buf := newTestLogger(DEBUG, false)
	l.log(INFO, "odd", "only_key")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	_, ok := lines[0]["only_key"]
	assert.False(t, ok)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{"debug": DEBUG, "INFO": INFO, "warning": WARN, " error ": ERROR}
	for in, want := range tests {
		got, ok := ParseLevel(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	got, ok := ParseLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, INFO, got)
}

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "jo***@example.com", RedactEmail("john.doe@example.com"))
	assert.Equal(t, "***@example.com", RedactEmail("ab@example.com"))
	assert.Equal(t, "***@***", RedactEmail("not-an-email"))
}

func TestRedactPhone(t *testing.T) {
	assert.Equal(t, "***00", RedactPhone("+1 (555) 555-0100"))
	assert.Equal(t, "***", RedactPhone("7"))
}
