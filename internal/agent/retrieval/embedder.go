package retrieval

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/embedding"
	"google.golang.org/genai"
)

// GeminiEmbedder adapts the genai embedding endpoint to the eino
// embedding.Embedder interface.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

var _ embedding.Embedder = (*GeminiEmbedder)(nil)

func NewGeminiEmbedder(client *genai.Client, model string) *GeminiEmbedder {
	return &GeminiEmbedder{client: client, model: model}
}

// GetType implements the eino component typing convention.
func (g *GeminiEmbedder) GetType() string { return "GeminiEmbedder" }

// EmbedStrings embeds each text in order. One request carries the whole
// batch; the provider returns embeddings in input order.
func (g *GeminiEmbedder) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx = callbacks.EnsureRunInfo(ctx, g.GetType(), components.ComponentOfEmbedding)
	ctx = callbacks.OnStart(ctx, &embedding.CallbackInput{Texts: texts})

	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, nil)
	if err != nil {
		callbacks.OnError(ctx, err)
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		err = fmt.Errorf("embed content: got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
		callbacks.OnError(ctx, err)
		return nil, err
	}

	out := make([][]float64, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		vec := make([]float64, len(emb.Values))
		for j, v := range emb.Values {
			vec[j] = float64(v)
		}
		out[i] = vec
	}

	callbacks.OnEnd(ctx, &embedding.CallbackOutput{Embeddings: out})
	return out, nil
}
