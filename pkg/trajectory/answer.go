package trajectory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// NoAnswer marks a field the run never produced.
const NoAnswer = "<no_answer>"

// FinalAnswer is the terminal record of one agent run. It is written once
// at the end of the run and read back as a snapshot for evaluation.
type FinalAnswer struct {
	FinalAnswer string `json:"final_answer"`

	// EnvStateJSON is the JSON found in the <pre> element of the finish
	// page. EnvStateRaw keeps the raw text for when it did not parse.
	EnvStateJSON string `json:"env_state_json"`
	EnvStateRaw  string `json:"env_state_raw"`

	Screenshots []string `json:"screenshots"`
	IsAborted   bool     `json:"is_aborted"`

	// IsRelPaths says Screenshots are relative to the trajectory directory.
	// Records written before the field existed load as true.
	IsRelPaths bool `json:"is_rel_paths"`

	TokenUsage TokenUsage `json:"token_usage"`
}

// NewFinalAnswer returns a record with every field at its default.
func NewFinalAnswer() *FinalAnswer {
	return &FinalAnswer{
		FinalAnswer:  NoAnswer,
		EnvStateJSON: NoAnswer,
		EnvStateRaw:  NoAnswer,
		Screenshots:  []string{},
		IsRelPaths:   true,
		TokenUsage:   TokenUsage{},
	}
}

func (a *FinalAnswer) ensureUsage() {
	if a.TokenUsage == nil {
		a.TokenUsage = TokenUsage{}
	}
}

// Usage returns the usage recorded for a stage, zero if none was.
func (a *FinalAnswer) Usage(key string) Usage {
	return a.TokenUsage.Get(key)
}

// SetTokenUsage overwrites the usage of a stage.
func (a *FinalAnswer) SetTokenUsage(key string, usage Usage) {
	a.ensureUsage()
	a.TokenUsage[key] = usage
}

// SetTokenUsageMap is SetTokenUsage for the plain
// {prompt_tokens, completion_tokens} form.
func (a *FinalAnswer) SetTokenUsageMap(key string, usage map[string]int) {
	a.SetTokenUsage(key, UsageFromMap(usage))
}

// AddTokenUsage accumulates usage into a stage, starting from zero for a
// stage that has not been seen.
func (a *FinalAnswer) AddTokenUsage(key string, usage Usage) {
	a.ensureUsage()
	a.TokenUsage[key] = a.TokenUsage[key].Add(usage)
}

// AddTokenUsageMap is AddTokenUsage for the plain form.
func (a *FinalAnswer) AddTokenUsageMap(key string, usage map[string]int) {
	a.AddTokenUsage(key, UsageFromMap(usage))
}

// TotalUsage sums usage across all stages.
func (a *FinalAnswer) TotalUsage() Usage {
	return a.TokenUsage.Total()
}

// SetEnvState records the raw finish-page state and, when it is valid
// JSON, its compact form.
func (a *FinalAnswer) SetEnvState(raw string) {
	a.EnvStateRaw = raw

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err == nil {
		a.EnvStateJSON = buf.String()
	}
}

// Save writes the record as indented JSON, creating parent directories.
// Non-ASCII and HTML characters are written unescaped.
func (a *FinalAnswer) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create answer directory: %w", err)
	}

	out := *a
	out.ensureUsage()
	if out.Screenshots == nil {
		out.Screenshots = []string{}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&out); err != nil {
		return fmt.Errorf("failed to encode final answer: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write final answer: %w", err)
	}
	return nil
}

// LoadFinalAnswer reads a record written by Save. Absent fields take their
// defaults; the file must hold a JSON object.
func LoadFinalAnswer(path string) (*FinalAnswer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read final answer: %w", err)
	}
	answer, err := ParseFinalAnswer(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse final answer %s: %w", path, err)
	}
	return answer, nil
}

// ParseFinalAnswer decodes the persisted form of a FinalAnswer.
func ParseFinalAnswer(data []byte) (*FinalAnswer, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("final answer is not a JSON object")
	}

	answer := NewFinalAnswer()
	if err := json.Unmarshal(data, answer); err != nil {
		return nil, err
	}

	// Rebuild the usage map through SetTokenUsage so a null
	// token_usage or missing entries behave like a fresh record.
	persisted := answer.TokenUsage
	answer.TokenUsage = TokenUsage{}
	for k, v := range persisted {
		answer.SetTokenUsage(k, v)
	}
	if answer.Screenshots == nil {
		answer.Screenshots = []string{}
	}
	return answer, nil
}
