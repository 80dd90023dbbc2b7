package retrieval

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	"github.com/wally205/DSC2025/internal/agent/model"
	errx "github.com/wally205/DSC2025/internal/core/error"
	logx "github.com/wally205/DSC2025/pkg/logger"
)

// ToolName identifies this collaborator in failure classification.
const ToolName = "retrieval"

// Retriever is the consumed knowledge-base contract: scored passages for
// a query, or a classified failure.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]*schema.Document, error)
}

// RedisSearch retrieves agronomy passages via vector KNN over a Redis
// search index built offline.
type RedisSearch struct {
	client      *redis.Client
	embedder    embedding.Embedder
	index       string
	topK        int
	minScore    float64
	timeout     time.Duration
	contentAttr string
	sourceAttr  string
	vectorAttr  string
}

func NewRedisSearch(client *redis.Client, embedder embedding.Embedder, cfg model.RetrieverConfig) (*RedisSearch, error) {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid RETRIEVER_TIMEOUT %q: %w", cfg.Timeout, err)
	}
	return &RedisSearch{
		client:      client,
		embedder:    embedder,
		index:       cfg.Index,
		topK:        cfg.TopK,
		minScore:    cfg.MinScore,
		timeout:     timeout,
		contentAttr: cfg.ContentAttr,
		sourceAttr:  cfg.SourceAttr,
		vectorAttr:  cfg.VectorAttr,
	}, nil
}

// Retrieve embeds the query and runs a KNN search. An empty result after
// score filtering is NO_MATCH; index or connection trouble is
// INDEX_UNAVAILABLE.
func (r *RedisSearch) Retrieve(ctx context.Context, query string) ([]*schema.Document, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	vectors, err := r.embedder.EmbedStrings(callCtx, []string{query})
	if err != nil {
		return nil, errx.NewToolError(ToolName, errx.CodeIndexUnavailable, err)
	}
	if len(vectors) == 0 {
		return nil, errx.NewToolError(ToolName, errx.CodeIndexUnavailable,
			fmt.Errorf("embedder returned no vector"))
	}

	res, err := r.client.FTSearchWithArgs(callCtx, r.index,
		fmt.Sprintf("*=>[KNN $k @%s $vec AS vector_score]", r.vectorAttr),
		&redis.FTSearchOptions{
			Return: []redis.FTSearchReturn{
				{FieldName: r.contentAttr},
				{FieldName: r.sourceAttr},
				{FieldName: "vector_score"},
			},
			SortBy:         []redis.FTSearchSortBy{{FieldName: "vector_score", Asc: true}},
			DialectVersion: 2,
			Params: map[string]interface{}{
				"k":   r.topK,
				"vec": encodeVector(vectors[0]),
			},
		},
	).Result()
	if err != nil {
		return nil, errx.NewToolError(ToolName, errx.CodeIndexUnavailable, err)
	}

	docs := r.toDocuments(res)
	if len(docs) == 0 {
		return nil, errx.NewToolError(ToolName, errx.CodeNoMatch,
			fmt.Errorf("no passage above score %.2f for query", r.minScore))
	}

	logx.Debug().
		Int("matches", len(docs)).
		Float64("top_score", docs[0].Score()).
		Msg("passages retrieved")
	return docs, nil
}

func (r *RedisSearch) toDocuments(res redis.FTSearchResult) []*schema.Document {
	docs := make([]*schema.Document, 0, len(res.Docs))
	for _, d := range res.Docs {
		distance, err := strconv.ParseFloat(d.Fields["vector_score"], 64)
		if err != nil {
			continue
		}
		score := 1 - distance
		if score < r.minScore {
			continue
		}
		doc := &schema.Document{
			ID:      d.ID,
			Content: d.Fields[r.contentAttr],
			MetaData: map[string]any{
				"source": d.Fields[r.sourceAttr],
			},
		}
		docs = append(docs, doc.WithScore(score))
	}
	return docs
}

// encodeVector packs a float64 slice as little-endian float32 bytes, the
// layout Redis vector fields expect.
func encodeVector(vec []float64) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
	}
	return buf
}

// EnrichQuery folds conversation slots and a fresh weather snapshot into
// the retrieval query so passages match the current conditions.
func EnrichQuery(query, crop string, snap *model.WeatherSnapshot, keywords []string) string {
	var b strings.Builder
	b.WriteString(query)
	if crop != "" && !strings.Contains(strings.ToLower(query), crop) {
		b.WriteString(" ")
		b.WriteString(crop)
	}
	if snap != nil {
		fmt.Fprintf(&b, " (thời tiết: %s)", snap.Summary())
	}
	for _, kw := range keywords {
		if !strings.Contains(strings.ToLower(b.String()), kw) {
			b.WriteString(" ")
			b.WriteString(kw)
		}
	}
	return b.String()
}
