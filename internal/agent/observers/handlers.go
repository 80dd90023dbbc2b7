package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/embedding"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/wally205/DSC2025/pkg/logger"
)

// NewAllCallbacks aggregates the observer handlers into one
// callbacks.Handler, registered globally at startup.
func NewAllCallbacks() einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		ChatModel(newModelHandler()).
		Embedding(newEmbeddingHandler()).
		Handler()
}

// newEmbeddingHandler logs embedding batches around retrieval calls.
func newEmbeddingHandler() *callbackHelper.EmbeddingCallbackHandler {
	return &callbackHelper.EmbeddingCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *embedding.CallbackInput) context.Context {
			if input != nil {
				logx.Debug().Str("component", info.Name).Int("texts", len(input.Texts)).Msg("embedding started")
			}
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("component", info.Name).Msg("embedding failed")
			return ctx
		},
	}
}
