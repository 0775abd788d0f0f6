package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shiveshkaul/puprouteapp-sub001/internal/config"
	"github.com/shiveshkaul/puprouteapp-sub001/internal/engine"
)

func TestHealthRoute(t *testing.T) {
	s := NewServer(config.Config{JWTSecret: "secret", ServerPort: ":0"}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 status")
	}
}

func TestWalkRoutesMounted(t *testing.T) {
	s := NewServer(config.Config{JWTSecret: "secret"}, nil, nil)

	// mutations answer 401 without a token, which proves the route and
	// the middleware are both wired
	req := httptest.NewRequest(http.MethodPost, "/walks/", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	// reads skip auth and fall through to the manager
	req = httptest.NewRequest(http.MethodGet, "/walks/unknown/state", nil)
	resp, err = s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestStreamRouteMounted(t *testing.T) {
	s := NewServer(config.Config{JWTSecret: "secret"}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/stream/ws/walk-1", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		t.Fatalf("stream route not mounted")
	}
}

func TestEngineConfigMapping(t *testing.T) {
	cfg := engineConfig(config.Config{
		NoiseFloorM:       3,
		AutoPauseSpeedMps: 0.5,
		AutoPauseWindowMs: 15000,
		TickIntervalMs:    250,
		CaloriesPerMeter:  0.06,
	})
	want := engine.Config{
		NoiseFloorM:       3,
		AutoPauseSpeedMps: 0.5,
		AutoPauseWindow:   15 * time.Second,
		TickInterval:      250 * time.Millisecond,
		CaloriesPerMeter:  0.06,
	}
	if cfg.NoiseFloorM != want.NoiseFloorM || cfg.AutoPauseWindow != want.AutoPauseWindow ||
		cfg.TickInterval != want.TickInterval || cfg.CaloriesPerMeter != want.CaloriesPerMeter {
		t.Fatalf("unexpected mapping: %+v", cfg)
	}
}

func TestWeatherForDisabled(t *testing.T) {
	if weatherFor(config.Config{}, nil) != nil {
		t.Fatalf("expected nil provider without base URL")
	}
	if weatherFor(config.Config{WeatherBaseURL: "http://example.test"}, nil) == nil {
		t.Fatalf("expected provider with base URL")
	}
}
