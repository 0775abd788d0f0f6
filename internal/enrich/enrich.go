package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Conditions is the weather snapshot attached to a finished walk.
type Conditions struct {
	TemperatureC float64 `json:"temperature_c"`
	WindSpeedMps float64 `json:"wind_speed_mps"`
	WeatherCode  int     `json:"weather_code"`
}

// Provider resolves the current conditions at a coordinate.
type Provider interface {
	Conditions(ctx context.Context, lat, lng float64) (Conditions, error)
}

// HTTPProvider fetches current weather from an Open-Meteo compatible API.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPProvider(baseURL string, client *http.Client) *HTTPProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProvider{baseURL: baseURL, client: client}
}

type forecastResponse struct {
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		WindSpeed   float64 `json:"windspeed"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
}

func (p *HTTPProvider) Conditions(ctx context.Context, lat, lng float64) (Conditions, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lng))
	q.Set("current_weather", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return Conditions{}, fmt.Errorf("build forecast request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Conditions{}, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Conditions{}, fmt.Errorf("forecast returned %s", resp.Status)
	}

	var body forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Conditions{}, fmt.Errorf("decode forecast: %w", err)
	}

	return Conditions{
		TemperatureC: body.CurrentWeather.Temperature,
		// Open-Meteo reports wind in km/h.
		WindSpeedMps: body.CurrentWeather.WindSpeed / 3.6,
		WeatherCode:  body.CurrentWeather.WeatherCode,
	}, nil
}
