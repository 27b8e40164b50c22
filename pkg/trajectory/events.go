package trajectory

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// WebSurferSource is the source tag of events emitted by the browsing agent.
const WebSurferSource = "WebSurfer"

// Event is one record of the event log. Fields other than source, action
// and arguments are kept untouched.
type Event map[string]any

// Source returns the event's source tag.
func (e Event) Source() string {
	s, _ := e["source"].(string)
	return s
}

// HasAction reports whether the event carries a non-null action.
func (e Event) HasAction() bool {
	v, ok := e["action"]
	return ok && v != nil
}

// Action returns the action name, or "" when absent or not a string.
func (e Event) Action() string {
	s, _ := e["action"].(string)
	return s
}

// Arguments returns the arguments object, if the event has one.
func (e Event) Arguments() (map[string]any, bool) {
	args, ok := e["arguments"].(map[string]any)
	return args, ok
}

// actionNameRemap aligns gpt_solver action names with those of the trained
// agents.
var actionNameRemap = map[string]string{
	"stop_execution":           "terminate",
	"stop_and_answer_question": "terminate",
}

// RemapActionName maps gpt_solver action names onto the trained agents'
// names. Unknown names are returned unchanged.
func RemapActionName(name string) string {
	if mapped, ok := actionNameRemap[name]; ok {
		return mapped
	}
	return name
}

// ParseEvents reads newline-delimited JSON events. Empty lines are
// skipped; any other line that is not a JSON object is an error. Numbers
// are kept as json.Number so re-encoding does not change them.
func ParseEvents(r io.Reader) ([]Event, error) {
	logged, err := parseEventLog(r)
	if err != nil {
		return nil, err
	}
	return eventsOf(logged), nil
}

// loggedEvent is a parsed event plus the arguments value exactly as it
// appeared in the log.
type loggedEvent struct {
	event        Event
	rawArguments json.RawMessage
}

func eventsOf(logged []loggedEvent) []Event {
	events := make([]Event, len(logged))
	for i, l := range logged {
		events[i] = l.event
	}
	return events
}

func parseEventLog(r io.Reader) ([]loggedEvent, error) {
	reader := bufio.NewReader(r)
	logged := []loggedEvent{}

	for lineNo := 1; ; lineNo++ {
		line, err := reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read event log: %w", err)
		}

		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			entry, parseErr := parseEvent(trimmed)
			if parseErr != nil {
				return nil, fmt.Errorf("event log line %d: %w", lineNo, parseErr)
			}
			logged = append(logged, entry)
		}

		if errors.Is(err, io.EOF) {
			return logged, nil
		}
	}
}

func parseEvent(line []byte) (loggedEvent, error) {
	decoder := json.NewDecoder(bytes.NewReader(line))
	decoder.UseNumber()

	var event Event
	if err := decoder.Decode(&event); err != nil {
		return loggedEvent{}, err
	}
	if event == nil {
		return loggedEvent{}, errors.New("event is not a JSON object")
	}
	if decoder.More() {
		return loggedEvent{}, errors.New("trailing data after event")
	}

	var raw struct {
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(line, &raw); err != nil {
		return loggedEvent{}, err
	}
	return loggedEvent{event: event, rawArguments: raw.Arguments}, nil
}

// normalizeGPTSolverEvents keeps WebSurfer events with an action and
// copies the remapped action into arguments["action"], matching the shape
// the trained agents log.
func normalizeGPTSolverEvents(events []Event) []Event {
	kept := make([]Event, 0, len(events))
	for _, e := range events {
		if e.Source() != WebSurferSource || !e.HasAction() {
			continue
		}
		if args, ok := e.Arguments(); ok && actionIsSet(e["action"]) {
			if name, isString := e["action"].(string); isString {
				args["action"] = RemapActionName(name)
			} else {
				args["action"] = e["action"]
			}
		}
		kept = append(kept, e)
	}
	return kept
}

// actionIsSet treats empty strings and false as unset, like the log
// producer does.
func actionIsSet(v any) bool {
	switch a := v.(type) {
	case nil:
		return false
	case string:
		return a != ""
	case bool:
		return a
	default:
		return true
	}
}

// splitActions derives the serialized actions and their thoughts from the
// events that carry an action. Both slices are built in the same pass so
// thoughts[i] always belongs to actions[i].
func splitActions(logged []loggedEvent) (actions []string, thoughts []string, err error) {
	actions = []string{}
	thoughts = []string{}

	for i, l := range logged {
		e := l.event
		if !e.HasAction() {
			continue
		}
		args, ok := e.Arguments()
		if !ok {
			return nil, nil, fmt.Errorf("event %d: action %q has no arguments object", i, e.Action())
		}
		rawThought, ok := args["thoughts"]
		if !ok {
			return nil, nil, fmt.Errorf("event %d: action %q has no thoughts", i, e.Action())
		}

		thought, err := thoughtText(rawThought)
		if err != nil {
			return nil, nil, fmt.Errorf("event %d: %w", i, err)
		}
		encoded, err := encodeAction(l.rawArguments)
		if err != nil {
			return nil, nil, fmt.Errorf("event %d: failed to encode action: %w", i, err)
		}

		actions = append(actions, encoded)
		thoughts = append(thoughts, thought)
	}
	return actions, thoughts, nil
}

func thoughtText(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	encoded, err := marshalUnescaped(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode thoughts: %w", err)
	}
	return encoded, nil
}

// marshalUnescaped encodes v compactly without escaping <, > and &, which
// show up in selectors and typed text.
func marshalUnescaped(v any) (string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
