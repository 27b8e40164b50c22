package replay

import (
	"bytes"
	"encoding/json"

	"github.com/entrhq/webeval/pkg/trajectory"
)

// Step is one action of a trajectory as shown by the viewer.
type Step struct {
	Name    string
	Thought string
	Action  string

	// Screenshot is the screenshot taken after the step, if the run
	// recorded one.
	Screenshot string
}

// Steps lists the actions of t in order. Trajectories loaded in gpt_solver
// mode carry no derived actions, so their steps come from the events.
func Steps(t *trajectory.Trajectory) []Step {
	var steps []Step

	if len(t.Actions) > 0 || len(t.Events) == 0 {
		steps = make([]Step, len(t.Actions))
		for i, action := range t.Actions {
			steps[i] = Step{Name: actionName(action), Action: action}
			if i < len(t.Thoughts) {
				steps[i].Thought = t.Thoughts[i]
			}
		}
	} else {
		for _, e := range t.Events {
			if !e.HasAction() {
				continue
			}
			step := Step{Name: e.Action()}
			if args, ok := e.Arguments(); ok {
				if thought, ok := args["thoughts"].(string); ok {
					step.Thought = thought
				}
				step.Action = encode(args)
			}
			steps = append(steps, step)
		}
	}

	for i := range steps {
		if i < len(t.Screenshots) {
			steps[i].Screenshot = t.Screenshots[i]
		}
	}
	return steps
}

func actionName(action string) string {
	var fields struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal([]byte(action), &fields); err != nil {
		return ""
	}
	return fields.Action
}

func encode(v any) string {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return ""
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

// indentJSON pretty-prints a JSON document for display. Invalid input is
// returned unchanged.
func indentJSON(s string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(s), "", "  "); err != nil {
		return s
	}
	return buf.String()
}
