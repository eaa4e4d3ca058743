package progress

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewTerminal(&buf)

	r.StartModel("Owner", 3)
	r.Advance("Owner", 2)
	r.FinishModel("Owner")
	r.Warn("Table %s has %d foreign key integrity problems", "TodoList", 1)

	out := buf.String()
	assert.Contains(t, out, "merging Owner (3 rows)")
	assert.Contains(t, out, "Owner: 2/3")
	assert.Contains(t, out, "done Owner")
	assert.Contains(t, out, "warning: Table TodoList has 1 foreign key integrity problems")
}

func TestJSONLinesReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONLines(&buf)

	r.StartModel("Owner", 3)
	r.Advance("Owner", 2)
	r.Advance("Owner", 0) // should not emit
	r.FinishModel("Owner")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var start event
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &start))
	assert.Equal(t, "start_model", start.Type)
	assert.Equal(t, "Owner", start.Model)
	assert.Equal(t, 3, start.Total)

	var advance event
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &advance))
	assert.Equal(t, "advance", advance.Type)
	assert.Equal(t, 2, advance.N)
}

func TestNoopReporterDoesNothing(t *testing.T) {
	var r Reporter = Noop{}
	r.StartModel("Owner", 1)
	r.Advance("Owner", 1)
	r.FinishModel("Owner")
	r.Warn("ignored")
}
