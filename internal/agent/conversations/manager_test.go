package conversations

import (
	"context"
	"fmt"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wally205/DSC2025/internal/agent/model"
)

type memoryRepo struct {
	messages map[string][]*schema.Message
	states   map[string]*model.ConversationState
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		messages: make(map[string][]*schema.Message),
		states:   make(map[string]*model.ConversationState),
	}
}

func (r *memoryRepo) AddMessage(_ context.Context, id string, msg *schema.Message) error {
	r.messages[id] = append(r.messages[id], msg)
	return nil
}

func (r *memoryRepo) LoadHistory(_ context.Context, id string) (*model.ConversationHistory, error) {
	return &model.ConversationHistory{ConversationID: id, Messages: r.messages[id]}, nil
}

func (r *memoryRepo) ClearHistory(_ context.Context, id string) error {
	delete(r.messages, id)
	return nil
}

func (r *memoryRepo) GetMessageCount(_ context.Context, id string) (int, error) {
	return len(r.messages[id]), nil
}

func (r *memoryRepo) SaveState(_ context.Context, state *model.ConversationState) error {
	cp := *state
	r.states[state.ID] = &cp
	return nil
}

func (r *memoryRepo) LoadState(_ context.Context, id string) (*model.ConversationState, error) {
	if s, ok := r.states[id]; ok {
		cp := *s
		return &cp, nil
	}
	return model.NewConversationState(id), nil
}

func TestCommitTurnAppendsExchangeAndState(t *testing.T) {
	repo := newMemoryRepo()
	m := NewManager(repo, model.ConversationConfig{HistoryWindow: 5})
	ctx := context.Background()

	state := model.NewConversationState("c1")
	state.TurnIndex = 1
	state.LastLocation = "Đà Lạt"
	require.NoError(t, m.CommitTurn(ctx, state, "câu hỏi", "câu trả lời"))

	msgs := repo.messages["c1"]
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.User, msgs[0].Role)
	assert.Equal(t, "câu hỏi", msgs[0].Content)
	assert.Equal(t, schema.Assistant, msgs[1].Role)
	assert.Equal(t, "câu trả lời", msgs[1].Content)

	saved, err := repo.LoadState(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Đà Lạt", saved.LastLocation)
	assert.Equal(t, 1, saved.TurnIndex)
}

func TestLoadWindowCapsHistory(t *testing.T) {
	repo := newMemoryRepo()
	m := NewManager(repo, model.ConversationConfig{HistoryWindow: 2})
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		require.NoError(t, repo.AddMessage(ctx, "c1", schema.UserMessage(fmt.Sprintf("msg %d", i))))
	}

	window, err := m.LoadWindow(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, window, 4)
	assert.Equal(t, "msg 2", window[0].Content)
	assert.Equal(t, "msg 5", window[3].Content)
}

func TestLoadWindowShortHistory(t *testing.T) {
	repo := newMemoryRepo()
	m := NewManager(repo, model.ConversationConfig{HistoryWindow: 5})
	ctx := context.Background()

	require.NoError(t, repo.AddMessage(ctx, "c1", schema.UserMessage("một")))
	window, err := m.LoadWindow(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, window, 1)
}

func TestResetClearsHistoryAndState(t *testing.T) {
	repo := newMemoryRepo()
	m := NewManager(repo, model.ConversationConfig{HistoryWindow: 5})
	ctx := context.Background()

	state := model.NewConversationState("c1")
	state.TurnIndex = 3
	state.LastCrop = "cà phê"
	require.NoError(t, m.CommitTurn(ctx, state, "hỏi", "đáp"))

	require.NoError(t, m.Reset(ctx, "c1"))

	n, _ := repo.GetMessageCount(ctx, "c1")
	assert.Zero(t, n)
	fresh, err := repo.LoadState(ctx, "c1")
	require.NoError(t, err)
	assert.Zero(t, fresh.TurnIndex)
	assert.Empty(t, fresh.LastCrop)
}
