package composer

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/wally205/DSC2025/internal/agent/model"
)

// formatWeatherBlock renders a snapshot as the Vietnamese data block the
// system prompt embeds. Empty when no snapshot is available.
func formatWeatherBlock(snap *model.WeatherSnapshot) string {
	if snap == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("Dữ liệu thời tiết hiện tại tại " + snap.Location + ":\n")
	fmt.Fprintf(&b, "- Nhiệt độ: %.1f°C (cảm giác như %.1f°C)\n", snap.Temperature, snap.FeelsLike)
	fmt.Fprintf(&b, "- Độ ẩm: %.0f%%\n", snap.Humidity)
	if snap.Condition != "" {
		fmt.Fprintf(&b, "- Trời: %s\n", snap.Condition)
	}
	if snap.Rainfall > 0 {
		fmt.Fprintf(&b, "- Lượng mưa 1 giờ qua: %.1fmm\n", snap.Rainfall)
	}
	fmt.Fprintf(&b, "- Khả năng mưa: %.0f%%\n", snap.RainChance)
	fmt.Fprintf(&b, "- Gió: %.1f km/h hướng %s\n", snap.WindSpeed, snap.WindCompass)
	fmt.Fprintf(&b, "- Điểm sương: %.1f°C, mây che phủ %.0f%%\n", snap.DewPoint, snap.Clouds)
	if snap.Visibility > 0 {
		fmt.Fprintf(&b, "- Tầm nhìn: %.1f km\n", snap.Visibility)
	}
	return b.String()
}

// formatAnalysisBlock renders the crop suitability assessment.
func formatAnalysisBlock(analysis *model.CropAnalysis) string {
	if analysis == nil || analysis.Crop == "" {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Đánh giá điều kiện cho cây %s (điểm %d/100):\n", analysis.Crop, analysis.Score)
	for _, issue := range analysis.Issues {
		b.WriteString("- Lưu ý: " + issue + "\n")
	}
	for _, rec := range analysis.Recommendations {
		b.WriteString("- Khuyến nghị: " + rec + "\n")
	}
	if len(analysis.Issues) == 0 {
		b.WriteString("- Điều kiện hiện tại thuận lợi, không có cảnh báo.\n")
	}
	return b.String()
}

// formatKnowledgeBlock renders retrieved passages with their sources.
func formatKnowledgeBlock(passages []*schema.Document) string {
	if len(passages) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Tài liệu kỹ thuật liên quan:\n")
	for i, doc := range passages {
		source, _ := doc.MetaData["source"].(string)
		if source == "" {
			source = "tài liệu nội bộ"
		}
		fmt.Fprintf(&b, "[%d] (%s) %s\n", i+1, source, strings.TrimSpace(doc.Content))
	}
	return b.String()
}

// formatDegradedNotice tells the model which sources are missing so the
// reply carries an explicit caveat.
func formatDegradedNotice(degraded bool, missing []string) string {
	if !degraded || len(missing) == 0 {
		return ""
	}
	names := make([]string, 0, len(missing))
	for _, src := range missing {
		switch src {
		case "weather":
			names = append(names, "dữ liệu thời tiết")
		case "retrieval":
			names = append(names, "tài liệu kỹ thuật")
		default:
			names = append(names, src)
		}
	}
	return "Lưu ý: không lấy được " + strings.Join(names, " và ") +
		". Hãy nói rõ cho người dùng phần trả lời bị hạn chế vì thiếu nguồn này."
}
