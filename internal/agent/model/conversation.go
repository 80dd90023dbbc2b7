package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// ConversationRepository stores the message history of a conversation.
// The history is append-only; the workflow writes one user/assistant
// exchange per completed turn.
type ConversationRepository interface {
	// AddMessage appends a message to the conversation history.
	AddMessage(ctx context.Context, conversationID string, message *schema.Message) error

	// LoadHistory retrieves the full conversation history.
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)

	// ClearHistory removes all history for a conversation.
	ClearHistory(ctx context.Context, conversationID string) error

	// GetMessageCount returns the number of stored messages.
	GetMessageCount(ctx context.Context, conversationID string) (int, error)

	// SaveState persists the per-conversation slot state.
	SaveState(ctx context.Context, state *ConversationState) error

	// LoadState retrieves the slot state, or a fresh one if none is stored.
	LoadState(ctx context.Context, conversationID string) (*ConversationState, error)
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	ConversationID string
	Messages       []*schema.Message
}
