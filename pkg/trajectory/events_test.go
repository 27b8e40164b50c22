package trajectory

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemapActionName(t *testing.T) {
	tests := map[string]string{
		"stop_execution":           "terminate",
		"stop_and_answer_question": "terminate",
		"click":                    "click",
		"terminate":                "terminate",
		"":                         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, RemapActionName(in), in)
	}
}

func TestParseEvents(t *testing.T) {
	input := `{"source": "WebSurfer", "action": "click", "arguments": {"x": 1.50, "id": 9007199254740993}}

{"source": "Orchestrator"}`

	events, err := ParseEvents(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "WebSurfer", events[0].Source())
	assert.True(t, events[0].HasAction())
	assert.Equal(t, "click", events[0].Action())

	args, ok := events[0].Arguments()
	require.True(t, ok)
	assert.Equal(t, json.Number("9007199254740993"), args["id"], "large integers keep their precision")

	assert.False(t, events[1].HasAction())
	_, ok = events[1].Arguments()
	assert.False(t, ok)
}

func TestParseEventsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "truncated", input: `{"source": "WebSurfer"`},
		{name: "array", input: `[1, 2]`},
		{name: "null", input: `null`},
		{name: "two values on a line", input: `{"a": 1} {"b": 2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvents(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestParseEventsEmptyLog(t *testing.T) {
	events, err := ParseEvents(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestNormalizeGPTSolverEvents(t *testing.T) {
	events := []Event{
		{"source": "WebSurfer", "action": "stop_execution", "arguments": map[string]any{"answer": "x"}},
		{"source": "WebSurfer-SummarizedAction", "action": "click", "arguments": map[string]any{}},
		{"source": "WebSurfer", "action": nil, "arguments": map[string]any{}},
		{"source": "WebSurfer", "action": "", "arguments": map[string]any{}},
		{"source": "WebSurfer", "action": "type", "arguments": map[string]any{"text": "hello"}},
	}

	kept := normalizeGPTSolverEvents(events)
	require.Len(t, kept, 3)

	args, _ := kept[0].Arguments()
	assert.Equal(t, "terminate", args["action"])

	// An empty action survives the filter but is not copied into arguments.
	args, _ = kept[1].Arguments()
	assert.NotContains(t, args, "action")

	args, _ = kept[2].Arguments()
	assert.Equal(t, "type", args["action"])
	assert.Equal(t, "hello", args["text"])
}

func TestEncodeActionKeepsLoggedKeyOrder(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "order and spacing",
			raw:  `{"url":"https://example.com","thoughts":"open it","action":"visit_url"}`,
			want: `{"url": "https://example.com", "action": "visit_url"}`,
		},
		{
			name: "thoughts first",
			raw:  `{"thoughts": {"plan": ["a"]}, "z": 1, "a": 2}`,
			want: `{"z": 1, "a": 2}`,
		},
		{
			name: "nested values",
			raw:  `{"b": {"y": [1, 2.50, true, null], "thoughts": "nested stays"}, "a": false}`,
			want: `{"b": {"y": [1, 2.50, true, null], "thoughts": "nested stays"}, "a": false}`,
		},
		{
			name: "escaping",
			raw:  `{"text": "Preis: 12 € <b>\"netto\"</b>\n", "emoji": "😀"}`,
			want: `{"text": "Preis: 12 \u20ac <b>\"netto\"</b>\n", "emoji": "\ud83d\ude00"}`,
		},
		{
			name: "empty",
			raw:  `{"thoughts": "only thoughts"}`,
			want: `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encodeAction(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, json.Valid([]byte(got)))
		})
	}
}

func TestEncodeActionRejectsNonObjects(t *testing.T) {
	for _, raw := range []string{`[1]`, `"text"`, `null`, ``} {
		_, err := encodeAction(json.RawMessage(raw))
		assert.Error(t, err, raw)
	}
}
