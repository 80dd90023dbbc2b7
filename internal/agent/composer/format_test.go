package composer

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wally205/DSC2025/internal/agent/model"
	errx "github.com/wally205/DSC2025/internal/core/error"
)

func TestFormatWeatherBlock(t *testing.T) {
	snap := &model.WeatherSnapshot{
		Location:    "Đà Lạt",
		Temperature: 22.5,
		FeelsLike:   23.1,
		Humidity:    80,
		Condition:   "mây rải rác",
		RainChance:  60,
		WindSpeed:   9,
		WindCompass: "Đông",
		DewPoint:    18.9,
		Clouds:      75,
		Visibility:  8,
	}
	block := formatWeatherBlock(snap)

	assert.Contains(t, block, "Đà Lạt")
	assert.Contains(t, block, "22.5°C")
	assert.Contains(t, block, "80%")
	assert.Contains(t, block, "mây rải rác")
	assert.Contains(t, block, "9.0 km/h")
	assert.Empty(t, formatWeatherBlock(nil))
}

func TestFormatAnalysisBlock(t *testing.T) {
	analysis := &model.CropAnalysis{
		Crop:            "cà phê",
		Score:           55,
		Issues:          []string{"nhiệt độ cao"},
		Recommendations: []string{"tưới sáng sớm"},
	}
	block := formatAnalysisBlock(analysis)

	assert.Contains(t, block, "cà phê")
	assert.Contains(t, block, "55/100")
	assert.Contains(t, block, "nhiệt độ cao")
	assert.Contains(t, block, "tưới sáng sớm")
	assert.Empty(t, formatAnalysisBlock(nil))
}

func TestFormatKnowledgeBlock(t *testing.T) {
	docs := []*schema.Document{
		{ID: "d1", Content: "tưới vào sáng sớm", MetaData: map[string]any{"source": "so_tay_ca_phe.pdf"}},
		{ID: "d2", Content: "bón phân sau mưa"},
	}
	block := formatKnowledgeBlock(docs)

	assert.Contains(t, block, "[1] (so_tay_ca_phe.pdf) tưới vào sáng sớm")
	assert.Contains(t, block, "[2] (tài liệu nội bộ) bón phân sau mưa")
	assert.Empty(t, formatKnowledgeBlock(nil))
}

func TestFormatDegradedNotice(t *testing.T) {
	notice := formatDegradedNotice(true, []string{"weather", "retrieval"})
	assert.Contains(t, notice, "dữ liệu thời tiết")
	assert.Contains(t, notice, "tài liệu kỹ thuật")

	assert.Empty(t, formatDegradedNotice(false, nil))
	assert.Empty(t, formatDegradedNotice(true, nil))
}

func TestValidateInputRejectsSilentEmptyTurn(t *testing.T) {
	err := validateInput(Input{Intent: model.Intent{Type: model.IntentAdvice}})
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, errx.CodeComposer))

	assert.NoError(t, validateInput(Input{
		Intent:   model.Intent{Type: model.IntentAdvice},
		Degraded: true,
	}))
	assert.NoError(t, validateInput(Input{Intent: model.Intent{Type: model.IntentUnknown}}))
	assert.NoError(t, validateInput(Input{
		Intent:  model.Intent{Type: model.IntentWeather},
		Weather: &model.WeatherSnapshot{},
	}))
}

func TestRenderSystemEmbedsBlocks(t *testing.T) {
	out, err := renderSystem(t.Context(), Input{
		Intent:  model.Intent{Type: model.IntentBoth},
		Weather: &model.WeatherSnapshot{Location: "Pleiku", Temperature: 25, Humidity: 70},
		Passages: []*schema.Document{
			{ID: "d1", Content: "che bóng cho cây con"},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, out, "trợ lý nông nghiệp")
	assert.Contains(t, out, "Pleiku")
	assert.Contains(t, out, "che bóng cho cây con")
	assert.Contains(t, out, string(model.IntentBoth))
}
