package weather

import (
	"fmt"

	"github.com/wally205/DSC2025/internal/agent/model"
)

// cropThreshold holds the agronomic comfort ranges for one crop.
type cropThreshold struct {
	tempMin, tempMax         float64
	humidityMin, humidityMax float64
	rainfallMax              float64
}

var cropThresholds = map[string]cropThreshold{
	"cà phê":    {tempMin: 18, tempMax: 28, humidityMin: 60, humidityMax: 85, rainfallMax: 15},
	"lúa":       {tempMin: 20, tempMax: 35, humidityMin: 70, humidityMax: 90, rainfallMax: 30},
	"khoai tây": {tempMin: 15, tempMax: 25, humidityMin: 60, humidityMax: 80, rainfallMax: 10},
	"hồ tiêu":   {tempMin: 22, tempMax: 30, humidityMin: 65, humidityMax: 90, rainfallMax: 20},
}

// AnalyzeForCrop scores a snapshot against a crop's comfort ranges and
// collects issues plus actionable recommendations. Unknown crops get a
// neutral analysis with no issues.
func AnalyzeForCrop(snap *model.WeatherSnapshot, crop string) *model.CropAnalysis {
	analysis := &model.CropAnalysis{Crop: crop, Suitable: true, Score: 100}
	th, ok := cropThresholds[crop]
	if snap == nil || !ok {
		return analysis
	}

	if snap.Temperature < th.tempMin {
		analysis.Score -= 25
		analysis.Issues = append(analysis.Issues,
			fmt.Sprintf("nhiệt độ %.1f°C thấp hơn ngưỡng phù hợp (%.0f°C)", snap.Temperature, th.tempMin))
		analysis.Recommendations = append(analysis.Recommendations,
			"che chắn giữ ấm cho cây, hạn chế tưới vào sáng sớm")
	}
	if snap.Temperature > th.tempMax {
		analysis.Score -= 25
		analysis.Issues = append(analysis.Issues,
			fmt.Sprintf("nhiệt độ %.1f°C vượt ngưỡng phù hợp (%.0f°C)", snap.Temperature, th.tempMax))
		analysis.Recommendations = append(analysis.Recommendations,
			"tưới bổ sung vào sáng sớm hoặc chiều mát, che lưới giảm nắng")
	}
	if snap.Humidity < th.humidityMin {
		analysis.Score -= 20
		analysis.Issues = append(analysis.Issues,
			fmt.Sprintf("độ ẩm %.0f%% thấp hơn mức cần thiết (%.0f%%)", snap.Humidity, th.humidityMin))
		analysis.Recommendations = append(analysis.Recommendations,
			"tăng cường tưới và phủ gốc giữ ẩm")
	}
	if snap.Humidity > th.humidityMax {
		analysis.Score -= 20
		analysis.Issues = append(analysis.Issues,
			fmt.Sprintf("độ ẩm %.0f%% cao, dễ phát sinh nấm bệnh", snap.Humidity))
		analysis.Recommendations = append(analysis.Recommendations,
			"kiểm tra vườn thường xuyên, cân nhắc phun phòng nấm bệnh")
	}
	if snap.Rainfall > th.rainfallMax {
		analysis.Score -= 20
		analysis.Issues = append(analysis.Issues,
			fmt.Sprintf("lượng mưa %.1fmm vượt mức chịu đựng (%.0fmm)", snap.Rainfall, th.rainfallMax))
		analysis.Recommendations = append(analysis.Recommendations,
			"khơi thông rãnh thoát nước, tránh bón phân khi mưa lớn")
	}

	if analysis.Score < 0 {
		analysis.Score = 0
	}
	analysis.Suitable = analysis.Score >= 60
	return analysis
}
