package model

import (
	"fmt"
	"time"
)

// WeatherSnapshot is one timestamped weather reading for a location.
// Location holds the query string sent to the provider; LocationName is
// the provider's resolved place name.
type WeatherSnapshot struct {
	Location     string
	LocationName string

	Temperature float64 // °C
	FeelsLike   float64 // °C
	Humidity    float64 // %
	Rainfall    float64 // mm over the last hour
	RainChance  float64 // %, derived from cloud cover
	WindSpeed   float64 // km/h
	WindDegrees float64
	WindCompass string
	Pressure    float64 // hPa
	Visibility  float64 // km
	Clouds      float64 // %
	DewPoint    float64 // °C
	Condition   string  // provider description, Vietnamese
	ConditionID int     // provider condition code

	Sunrise time.Time
	Sunset  time.Time

	RetrievedAt time.Time
}

// Fresh reports whether the snapshot is still usable at the given time
// under the configured freshness window.
func (s *WeatherSnapshot) Fresh(window time.Duration, now time.Time) bool {
	if s == nil {
		return false
	}
	return now.Sub(s.RetrievedAt) < window
}

// Summary renders a compact reading for logs and retrieval queries.
func (s *WeatherSnapshot) Summary() string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf("%.1f°C, độ ẩm %.0f%%, %s", s.Temperature, s.Humidity, s.Condition)
}

// CropAnalysis scores how suitable a snapshot is for growing one crop.
type CropAnalysis struct {
	Crop            string
	Suitable        bool
	Score           int
	Issues          []string
	Recommendations []string
}
