package composer

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/composer_prompt.txt
var systemPromptTemplate string

// renderSystem renders the system prompt with the per-turn data blocks.
func renderSystem(ctx context.Context, in Input) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(systemPromptTemplate),
	)
	vars := map[string]any{
		"intent_type":     string(in.Intent.Type),
		"degraded_notice": formatDegradedNotice(in.Degraded, in.MissingSources),
		"weather_block":   formatWeatherBlock(in.Weather),
		"analysis_block":  formatAnalysisBlock(in.CropAnalysis),
		"knowledge_block": formatKnowledgeBlock(in.Passages),
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("composer prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("composer prompt render: empty result")
	}
	return msgs[0].Content, nil
}
