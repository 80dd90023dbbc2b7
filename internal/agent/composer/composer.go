package composer

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/wally205/DSC2025/internal/agent/model"
	errx "github.com/wally205/DSC2025/internal/core/error"
	logx "github.com/wally205/DSC2025/pkg/logger"
)

// ToolName identifies this collaborator in failure classification.
const ToolName = "composer"

// Input carries everything one turn hands to the response model. When
// Degraded is set, MissingSources names the tools that failed so the
// reply can caveat itself.
type Input struct {
	Utterance      string
	Intent         model.Intent
	Weather        *model.WeatherSnapshot
	CropAnalysis   *model.CropAnalysis
	Passages       []*schema.Document
	History        []*schema.Message
	Degraded       bool
	MissingSources []string
}

// Composer turns merged tool outputs into the final Vietnamese reply.
type Composer interface {
	Compose(ctx context.Context, in Input) (string, error)
}

// Gemini composes replies with a Gemini chat model through eino.
type Gemini struct {
	chatModel *gemini.ChatModel
	modelName string
	timeout   time.Duration
}

// NewGemini builds the composer from a shared genai client, matching the
// configured model, temperature and token cap.
func NewGemini(ctx context.Context, client *genai.Client, cfg model.ComposerConfig) (*Gemini, error) {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid COMPOSER_TIMEOUT %q: %w", cfg.Timeout, err)
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Str("model", cfg.Model).Msg("failed to create composer chat model")
		return nil, fmt.Errorf("create composer model: %w", err)
	}

	return &Gemini{chatModel: chatModel, modelName: cfg.Model, timeout: timeout}, nil
}

// Compose renders the system prompt with the turn's data blocks and asks
// the model for the reply. A non-UNKNOWN intent with neither weather nor
// passages must arrive flagged Degraded; anything else is a wiring bug.
func (g *Gemini) Compose(ctx context.Context, in Input) (string, error) {
	if err := validateInput(in); err != nil {
		return "", err
	}

	system, err := renderSystem(ctx, in)
	if err != nil {
		return "", errx.NewToolError(ToolName, errx.CodeComposer, err)
	}

	messages := make([]*schema.Message, 0, len(in.History)+2)
	messages = append(messages, schema.SystemMessage(system))
	messages = append(messages, in.History...)
	messages = append(messages, schema.UserMessage(in.Utterance))

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.chatModel.Generate(callCtx, messages)
	if err != nil {
		logx.Error().Err(err).Str("model", g.modelName).Msg("composer generation failed")
		return "", errx.NewToolError(ToolName, errx.CodeComposer, err)
	}
	if resp == nil || resp.Content == "" {
		return "", errx.NewToolError(ToolName, errx.CodeComposer,
			fmt.Errorf("model returned empty response"))
	}

	logUsage(resp, g.modelName, time.Since(start))
	return resp.Content, nil
}

func validateInput(in Input) error {
	if in.Intent.Type == model.IntentUnknown {
		return nil
	}
	if in.Weather == nil && len(in.Passages) == 0 && !in.Degraded {
		return errx.NewToolError(ToolName, errx.CodeComposer,
			fmt.Errorf("no tool output and no degraded flag for intent %s", in.Intent.Type))
	}
	return nil
}

func logUsage(resp *schema.Message, modelName string, elapsed time.Duration) {
	ev := logx.Debug().Str("model", modelName).Dur("elapsed", elapsed)
	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		usage := resp.ResponseMeta.Usage
		_, _, total := model.ComputeCost(usage, model.ResolvePricing(modelName))
		ev = ev.
			Int("prompt_tokens", usage.PromptTokens).
			Int("completion_tokens", usage.CompletionTokens).
			Float64("cost_usd", total)
	}
	ev.Msg("reply composed")
}
