package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wally205/DSC2025/internal/agent/composer"
	"github.com/wally205/DSC2025/internal/agent/conversations"
	"github.com/wally205/DSC2025/internal/agent/orchestrator"
	"github.com/wally205/DSC2025/internal/agent/retrieval"
	"github.com/wally205/DSC2025/internal/agent/weather"
	logx "github.com/wally205/DSC2025/pkg/logger"
)

// Config wires the assistant's collaborators.
type Config struct {
	Fetcher   weather.Fetcher
	Retriever retrieval.Retriever
	Composer  composer.Composer
	Manager   *conversations.Manager
	// Freshness bounds cross-turn reuse of a weather snapshot.
	Freshness time.Duration
}

// Assistant is the conversational entry point. It serializes turns
// within one conversation while letting distinct conversations run
// concurrently.
type Assistant struct {
	orch    *orchestrator.Orchestrator
	manager *conversations.Manager

	mu       sync.Mutex
	sessions map[string]*sync.Mutex
}

func New(cfg Config) (*Assistant, error) {
	if cfg.Fetcher == nil || cfg.Retriever == nil || cfg.Composer == nil || cfg.Manager == nil {
		return nil, fmt.Errorf("assistant config incomplete")
	}
	return &Assistant{
		orch:     orchestrator.New(cfg.Fetcher, cfg.Retriever, cfg.Composer, cfg.Manager, cfg.Freshness),
		manager:  cfg.Manager,
		sessions: make(map[string]*sync.Mutex),
	}, nil
}

// HandleTurn processes one user utterance and returns the reply. Degraded
// and canned replies come back as normal results; only infrastructure
// failures surface as errors.
func (a *Assistant) HandleTurn(ctx context.Context, conversationID, utterance string) (string, error) {
	lock := a.sessionLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	state, err := a.manager.LoadState(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("load conversation state: %w", err)
	}

	result, err := a.orch.RunTurn(ctx, state, utterance)
	if err != nil {
		return "", err
	}

	if result.Degraded {
		logx.Warn().
			Str("conversation_id", conversationID).
			Str("intent", string(result.Intent.Type)).
			Msg("turn completed in degraded mode")
	}
	return result.Reply, nil
}

// Reset drops the history and carried context of a conversation, along
// with its session lock so finished conversations do not pin memory.
func (a *Assistant) Reset(ctx context.Context, conversationID string) error {
	lock := a.sessionLock(conversationID)
	lock.Lock()
	defer lock.Unlock()
	if err := a.manager.Reset(ctx, conversationID); err != nil {
		return err
	}
	a.mu.Lock()
	delete(a.sessions, conversationID)
	a.mu.Unlock()
	return nil
}

func (a *Assistant) sessionLock(conversationID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock, ok := a.sessions[conversationID]
	if !ok {
		lock = &sync.Mutex{}
		a.sessions[conversationID] = lock
	}
	return lock
}
