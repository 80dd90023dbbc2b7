package classify

import (
	"regexp"
	"strings"

	"github.com/wally205/DSC2025/internal/agent/model"
	logx "github.com/wally205/DSC2025/pkg/logger"
)

// Pattern tables for Vietnamese utterances. Matching is done on the
// lower-cased utterance; multiword Vietnamese markers are distinctive
// enough that substring alternations are sufficient.
var (
	pureWeatherPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(thời tiết|dự báo|trời)`),
		regexp.MustCompile(`(thời tiết|trời) .*(ra sao|như thế nào|thế nào)`),
		regexp.MustCompile(`(nhiệt độ|độ ẩm|mưa|nắng|gió) .*(hôm nay|ngày mai|hiện tại|bây giờ)`),
		regexp.MustCompile(`^(có mưa|có nắng|có gió)`),
		regexp.MustCompile(`(thời tiết|dự báo) .*(hôm nay|ngày mai|hiện tại|bây giờ|ở |tại )`),
		regexp.MustCompile(`dự báo thời tiết`),
	}

	// Conditioned advice: the utterance ties farming decisions to weather.
	weatherAdvicePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(thời tiết|dự báo|mưa|nắng|gió|nhiệt độ|độ ẩm) .*(có nên|nên|phù hợp|tác động|ảnh hưởng)`),
		regexp.MustCompile(`(có nên|nên) .*(trồng|gieo|phun thuốc|bón phân|thu hoạch|tưới)`),
		regexp.MustCompile(`(thời tiết|mưa|nắng|nhiệt độ|độ ẩm) này`),
		regexp.MustCompile(`(thời tiết|dự báo) .*(trồng|cà phê|lúa|khoai|hồ tiêu|tiêu|ngô|nông nghiệp) .*(làm gì|thế nào|ra sao|chăm sóc)`),
	}

	agriculturePatterns = []*regexp.Regexp{
		regexp.MustCompile(`cà phê|cafe`),
		regexp.MustCompile(`trồng|gieo|canh tác`),
		regexp.MustCompile(`sâu bệnh|côn trùng|bệnh|sâu|mọt`),
		regexp.MustCompile(`phân bón|thuốc trừ sâu|dinh dưỡng`),
		regexp.MustCompile(`nông nghiệp|nông dân|làm ruộng`),
		regexp.MustCompile(`cây trồng|lúa|ngô|khoai|hồ tiêu`),
		regexp.MustCompile(`tưới|chăm sóc`),
		regexp.MustCompile(`thu hoạch|mùa màng|năng suất`),
		regexp.MustCompile(`đất trồng|thổ nhưỡng`),
	}

	searchPatterns = []*regexp.Regexp{
		regexp.MustCompile(`tìm|tra cứu|tìm kiếm|cho tôi biết|hỏi về`),
		regexp.MustCompile(`thông tin|tài liệu`),
		regexp.MustCompile(`là gì|như thế nào|tại sao|khi nào|ở đâu|làm sao`),
		regexp.MustCompile(`\?$`),
	}
)

var questionWords = []string{
	"gì", "sao", "như thế nào", "tại sao", "khi nào", "ở đâu",
	"làm sao", "bao nhiêu", "ra sao",
}

var domainKeywords = []string{
	"cà phê", "nông nghiệp", "trồng trọt", "sản xuất", "quy trình",
	"sâu bệnh", "côn trùng", "phân bón", "thuốc", "tưới", "chăm sóc",
	"thu hoạch", "năng suất", "khí hậu", "cây trồng",
}

var agricultureMarkers = []string{
	"trồng", "cà phê", "lúa", "khoai", "hồ tiêu", "nông nghiệp",
	"cây trồng", "thu hoạch", "gieo", "phun thuốc", "bón phân",
}

// followupIndicators mark an utterance that leans on the previous turn's
// weather context instead of naming fresh conditions.
var followupIndicators = []string{
	"với thời tiết này", "trong điều kiện này", "theo thông tin trên",
	"dựa vào thời tiết", "nên làm gì", "có phù hợp", "thì sao",
	"làm gì tiếp", "có nên", "tương tự", "như vậy",
}

// Classify maps a raw utterance plus carried context to an Intent.
// It is a pure function: no tool calls, no state mutation. Missing slots
// stay empty; downstream components decide what to do about them.
func Classify(utterance string, snap model.ContextSnapshot) model.Intent {
	trimmed := strings.TrimSpace(utterance)
	if len([]rune(trimmed)) < 3 {
		return model.Intent{Type: model.IntentUnknown, Reasoning: "utterance too short"}
	}

	lower := strings.ToLower(trimmed)
	intent := classifyType(lower)

	// Slot extraction, then context carry-over for whatever is missing.
	intent.Location = ExtractLocation(trimmed)
	intent.Crop = ExtractCrop(lower)
	followup := containsAny(lower, followupIndicators)

	if followup {
		intent.NeedsWeather = intent.NeedsWeather ||
			intent.Type == model.IntentAdvice || intent.Type == model.IntentBoth
	}
	if intent.Location == "" && snap.LastLocation != "" {
		if followup || intent.Type == model.IntentWeather || intent.Type == model.IntentBoth || intent.NeedsWeather {
			intent.Location = snap.LastLocation
		}
	}
	if intent.Crop == "" && snap.LastCrop != "" && intent.Type != model.IntentWeather {
		intent.Crop = snap.LastCrop
	}

	intent.Keywords = ExtractKeywords(trimmed)

	logx.Debug().
		Str("intent", string(intent.Type)).
		Float64("confidence", intent.Confidence).
		Str("location", intent.Location).
		Str("crop", intent.Crop).
		Bool("needs_weather", intent.NeedsWeather).
		Msg("utterance classified")

	return intent
}

func classifyType(lower string) model.Intent {
	hasAgri := containsAny(lower, agricultureMarkers)

	if matchesAny(lower, pureWeatherPatterns) {
		if !hasAgri {
			return model.Intent{
				Type:       model.IntentWeather,
				Confidence: 0.9,
				Reasoning:  "pure weather pattern",
			}
		}
		if matchesAny(lower, weatherAdvicePatterns) {
			return model.Intent{
				Type:         model.IntentBoth,
				Confidence:   0.9,
				NeedsWeather: true,
				Reasoning:    "weather-conditioned advice pattern",
			}
		}
		// Weather question and farming topic side by side without one
		// conditioning the other.
		return model.Intent{
			Type:       model.IntentBoth,
			Confidence: 0.85,
			Reasoning:  "independent weather and agriculture topics",
		}
	}

	if matchesAny(lower, weatherAdvicePatterns) && hasAgri {
		return model.Intent{
			Type:         model.IntentBoth,
			Confidence:   0.9,
			NeedsWeather: true,
			Reasoning:    "weather-conditioned advice pattern",
		}
	}

	agriScore := 0.0
	for _, p := range agriculturePatterns {
		if p.MatchString(lower) {
			agriScore += 0.3
		}
	}
	if agriScore >= 0.3 {
		return model.Intent{
			Type:       model.IntentAdvice,
			Confidence: min(agriScore, 0.95),
			Reasoning:  "agricultural consultation pattern",
		}
	}

	searchScore := 0.0
	for _, p := range searchPatterns {
		if p.MatchString(lower) {
			searchScore += 0.3
		}
	}
	if containsAny(lower, questionWords) {
		searchScore += 0.5
	}
	if containsAny(lower, domainKeywords) {
		searchScore += 0.4
	}
	if searchScore >= 0.3 && containsAny(lower, domainKeywords) {
		return model.Intent{
			Type:       model.IntentAdvice,
			Confidence: min(searchScore, 0.95),
			Reasoning:  "domain search pattern",
		}
	}

	// Long open question without domain markers still goes to retrieval,
	// flagged with low confidence so a no-match answer stays honest.
	if len([]rune(lower)) > 10 && (strings.Contains(lower, "?") || containsAny(lower, questionWords)) && containsAny(lower, agricultureMarkers) {
		return model.Intent{
			Type:       model.IntentAdvice,
			Confidence: 0.6,
			Reasoning:  "general question pattern",
		}
	}

	return model.Intent{
		Type:       model.IntentUnknown,
		Confidence: 0.1,
		Reasoning:  "no clear patterns",
	}
}

// vietnameseStopWords are filtered out of retrieval keywords.
var vietnameseStopWords = map[string]struct{}{
	"tôi": {}, "bạn": {}, "anh": {}, "chị": {}, "em": {}, "của": {},
	"và": {}, "có": {}, "là": {}, "trong": {}, "với": {}, "cho": {},
	"để": {}, "được": {}, "không": {}, "này": {}, "đó": {}, "về": {},
	"như": {}, "khi": {}, "nào": {}, "sao": {}, "ai": {}, "gì": {},
	"đâu": {}, "thế": {}, "hỏi": {}, "biết": {},
}

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// ExtractKeywords pulls up to ten distinctive terms from the utterance
// for retrieval-query building.
func ExtractKeywords(text string) []string {
	cleaned := nonWord.ReplaceAllString(strings.ToLower(text), " ")
	seen := make(map[string]struct{})
	var keywords []string
	for _, w := range strings.Fields(cleaned) {
		if len([]rune(w)) <= 2 {
			continue
		}
		if _, stop := vietnameseStopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		keywords = append(keywords, w)
		if len(keywords) == 10 {
			break
		}
	}
	return keywords
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func matchesAny(s string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
