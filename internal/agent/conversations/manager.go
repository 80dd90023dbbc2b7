package conversations

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/wally205/DSC2025/internal/agent/model"
)

// Manager mediates between the workflow and the conversation store. It
// caps the history window handed to the response model and commits one
// user/assistant exchange per completed turn.
type Manager struct {
	repo   model.ConversationRepository
	window int
}

func NewManager(repo model.ConversationRepository, cfg model.ConversationConfig) *Manager {
	return &Manager{repo: repo, window: cfg.HistoryWindow}
}

// LoadWindow returns the most recent exchanges, at most window turns
// (two messages per turn).
func (m *Manager) LoadWindow(ctx context.Context, conversationID string) ([]*schema.Message, error) {
	history, err := m.repo.LoadHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return trimTail(history.Messages, m.window*2), nil
}

// LoadState fetches the per-conversation slot state.
func (m *Manager) LoadState(ctx context.Context, conversationID string) (*model.ConversationState, error) {
	return m.repo.LoadState(ctx, conversationID)
}

// CommitTurn appends the user/assistant exchange and persists the updated
// slot state. Called exactly once per turn, after the reply is final.
func (m *Manager) CommitTurn(ctx context.Context, state *model.ConversationState, utterance, reply string) error {
	if err := m.repo.AddMessage(ctx, state.ID, schema.UserMessage(utterance)); err != nil {
		return fmt.Errorf("append user message: %w", err)
	}
	if err := m.repo.AddMessage(ctx, state.ID, schema.AssistantMessage(reply, nil)); err != nil {
		return fmt.Errorf("append assistant message: %w", err)
	}
	if err := m.repo.SaveState(ctx, state); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Reset drops the history and slot state of a conversation.
func (m *Manager) Reset(ctx context.Context, conversationID string) error {
	if err := m.repo.ClearHistory(ctx, conversationID); err != nil {
		return err
	}
	return m.repo.SaveState(ctx, model.NewConversationState(conversationID))
}

// ParseTTL converts the configured conversation TTL string.
func ParseTTL(cfg model.ConversationConfig) (time.Duration, error) {
	ttl, err := time.ParseDuration(cfg.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid CONVERSATION_TTL %q: %w", cfg.TTL, err)
	}
	return ttl, nil
}

func trimTail(messages []*schema.Message, max int) []*schema.Message {
	if len(messages) <= max {
		result := make([]*schema.Message, len(messages))
		copy(result, messages)
		return result
	}
	source := messages[len(messages)-max:]
	result := make([]*schema.Message, len(source))
	copy(result, source)
	return result
}
