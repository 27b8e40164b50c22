package trajectory

// Summary is the flat view of a trajectory used for reports and indexes.
type Summary struct {
	Name             string `json:"name"`
	Dir              string `json:"dir"`
	FinalAnswer      string `json:"final_answer"`
	IsAborted        bool   `json:"is_aborted"`
	IsAction         bool   `json:"is_action"`
	Events           int    `json:"events"`
	Actions          int    `json:"actions"`
	Screenshots      int    `json:"screenshots"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// Summarize flattens t.
func Summarize(t *Trajectory) Summary {
	s := Summary{
		Name:        t.Name(),
		Dir:         t.Dir,
		IsAborted:   t.IsAborted(),
		IsAction:    t.IsAction,
		Events:      len(t.Events),
		Actions:     len(t.Actions),
		Screenshots: len(t.Screenshots),
	}
	if t.Answer != nil {
		total := t.Answer.TotalUsage()
		s.FinalAnswer = t.Answer.FinalAnswer
		s.PromptTokens = total.PromptTokens
		s.CompletionTokens = total.CompletionTokens
	}
	return s
}
