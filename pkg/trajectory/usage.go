package trajectory

import (
	"sort"

	"github.com/openai/openai-go"
)

// Usage is the token usage recorded for one stage of a run.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Add returns the field-wise sum of u and other.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
	}
}

// Total is prompt plus completion tokens.
func (u Usage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}

// UsageFromMap builds a Usage from its plain persisted form. Missing keys
// count as zero and unknown keys are ignored.
func UsageFromMap(m map[string]int) Usage {
	return Usage{
		PromptTokens:     m["prompt_tokens"],
		CompletionTokens: m["completion_tokens"],
	}
}

// UsageFromCompletion converts the usage block of an OpenAI-compatible
// chat completion response.
func UsageFromCompletion(u openai.CompletionUsage) Usage {
	return Usage{
		PromptTokens:     int(u.PromptTokens),
		CompletionTokens: int(u.CompletionTokens),
	}
}

// TokenUsage maps a stage key to its usage. Reading a key that was never
// written yields the zero Usage and does not insert it.
type TokenUsage map[string]Usage

// Get returns the usage for key, zero if unseen.
func (t TokenUsage) Get(key string) Usage {
	return t[key]
}

// Keys returns the stage keys in sorted order.
func (t TokenUsage) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Total sums usage across all stages.
func (t TokenUsage) Total() Usage {
	var total Usage
	for _, u := range t {
		total = total.Add(u)
	}
	return total
}
