package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/wally205/DSC2025/internal/agent/model"
	errx "github.com/wally205/DSC2025/internal/core/error"
	logx "github.com/wally205/DSC2025/pkg/logger"
)

// ToolName identifies this collaborator in failure classification.
const ToolName = "weather"

// Fetcher is the consumed weather contract: one snapshot per location, or
// a classified failure.
type Fetcher interface {
	Fetch(ctx context.Context, location string) (*model.WeatherSnapshot, error)
}

// OpenWeather fetches current conditions from the OpenWeatherMap API.
type OpenWeather struct {
	client  *http.Client
	apiKey  string
	baseURL string
	timeout time.Duration
	now     func() time.Time
}

// NewOpenWeather builds the adapter from config. The Timeout string uses
// time.ParseDuration syntax.
func NewOpenWeather(cfg model.WeatherConfig) (*OpenWeather, error) {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid WEATHER_TIMEOUT %q: %w", cfg.Timeout, err)
	}
	return &OpenWeather{
		client:  &http.Client{},
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		timeout: timeout,
		now:     time.Now,
	}, nil
}

// owmResponse mirrors the subset of the provider payload the snapshot needs.
type owmResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
		Pressure  float64 `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"` // m/s
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Visibility float64 `json:"visibility"` // metres
	Sys        struct {
		Sunrise int64 `json:"sunrise"`
		Sunset  int64 `json:"sunset"`
	} `json:"sys"`
}

// Fetch retrieves current weather for a location. TIMEOUT failures are
// retried exactly once; NOT_FOUND and PROVIDER_ERROR are terminal.
func (o *OpenWeather) Fetch(ctx context.Context, location string) (*model.WeatherSnapshot, error) {
	snap, err := o.fetchOnce(ctx, location)
	if err != nil && errx.IsCode(err, errx.CodeTimeout) && ctx.Err() == nil {
		logx.Warn().Str("location", location).Msg("weather fetch timed out, retrying once")
		snap, err = o.fetchOnce(ctx, location)
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (o *OpenWeather) fetchOnce(ctx context.Context, location string) (*model.WeatherSnapshot, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("q", location)
	q.Set("appid", o.apiKey)
	q.Set("units", "metric")
	q.Set("lang", "vi")

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, o.baseURL+"/weather?"+q.Encode(), nil)
	if err != nil {
		return nil, errx.NewToolError(ToolName, errx.CodeProviderError, err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, errx.NewToolError(ToolName, errx.CodeTimeout, err)
		}
		return nil, errx.NewToolError(ToolName, errx.CodeProviderError, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fallthrough to decode
	case resp.StatusCode == http.StatusNotFound:
		return nil, errx.NewToolError(ToolName, errx.CodeNotFound,
			fmt.Errorf("location %q not known to provider", location))
	default:
		return nil, errx.NewToolError(ToolName, errx.CodeProviderError,
			fmt.Errorf("provider returned status %d", resp.StatusCode))
	}

	var body owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errx.NewToolError(ToolName, errx.CodeProviderError, err)
	}

	snap := o.toSnapshot(location, &body)
	logx.Debug().
		Str("location", location).
		Str("resolved", snap.LocationName).
		Float64("temperature", snap.Temperature).
		Msg("weather fetched")
	return snap, nil
}

func (o *OpenWeather) toSnapshot(location string, body *owmResponse) *model.WeatherSnapshot {
	snap := &model.WeatherSnapshot{
		Location:     location,
		LocationName: body.Name,
		Temperature:  body.Main.Temp,
		FeelsLike:    body.Main.FeelsLike,
		Humidity:     body.Main.Humidity,
		Pressure:     body.Main.Pressure,
		Rainfall:     body.Rain.OneHour,
		WindSpeed:    body.Wind.Speed * 3.6, // m/s to km/h
		WindDegrees:  body.Wind.Deg,
		WindCompass:  windCompass(body.Wind.Deg),
		Clouds:       body.Clouds.All,
		Visibility:   body.Visibility / 1000, // m to km
		DewPoint:     dewPoint(body.Main.Temp, body.Main.Humidity),
		RainChance:   rainChance(body.Clouds.All),
		RetrievedAt:  o.now(),
	}
	if len(body.Weather) > 0 {
		snap.Condition = body.Weather[0].Description
		snap.ConditionID = body.Weather[0].ID
	}
	if body.Sys.Sunrise > 0 {
		snap.Sunrise = time.Unix(body.Sys.Sunrise, 0)
	}
	if body.Sys.Sunset > 0 {
		snap.Sunset = time.Unix(body.Sys.Sunset, 0)
	}
	return snap
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// dewPoint approximates the dew point via the Magnus formula.
func dewPoint(tempC, humidity float64) float64 {
	const a, b = 17.27, 237.7
	if humidity <= 0 {
		return tempC
	}
	gamma := math.Log(humidity/100) + a*tempC/(b+tempC)
	return b * gamma / (a - gamma)
}

// rainChance derives a rain probability from cloud cover; the provider's
// current-weather endpoint carries no probability of its own.
func rainChance(clouds float64) float64 {
	if clouds <= 50 {
		return 0
	}
	return math.Min(clouds*0.8, 100)
}

var compassNames = []string{
	"Bắc", "Đông Bắc", "Đông", "Đông Nam", "Nam", "Tây Nam", "Tây", "Tây Bắc",
}

func windCompass(deg float64) string {
	idx := int(math.Mod(deg+22.5, 360) / 45)
	return compassNames[idx%len(compassNames)]
}
