package services

import "context"

// Completion is the reply produced for a prompt.
type Completion struct {
	Response    string   `json:"response"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// TextCompleter generates the assistant reply to an incoming message.
type TextCompleter interface {
	// Complete returns a reply for prompt. promptContext carries the
	// structured state the prompt was built from.
	Complete(ctx context.Context, prompt string, promptContext map[string]any) (*Completion, error)
}
