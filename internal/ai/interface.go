package ai

import "context"

// ReplySuggester proposes short replies for a trip chat based on the recent
// exchange. The interface allows swapping providers without touching the
// chat surface.
type ReplySuggester interface {
	// SuggestReplies returns up to three short replies the participant could
	// send next. history is ordered oldest-first, formatted "sender: text".
	SuggestReplies(ctx context.Context, history []string) ([]string, error)
}
