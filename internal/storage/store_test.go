package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"

	"github.com/shiveshkaul/puprouteapp-sub001/internal/engine"
	"github.com/shiveshkaul/puprouteapp-sub001/internal/enrich"
)

func f64(v float64) *float64 { return &v }

func sampleRecord() WalkRecord {
	started := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	ended := started.Add(30 * time.Minute)
	return WalkRecord{
		ID:     "walk-1",
		UserID: "user-1",
		Session: engine.FinalizedSession{
			StartedAt: started,
			EndedAt:   ended,
			Track: []engine.Position{
				{Lat: -6.2, Lng: 106.8, RecordedAt: started, AltitudeM: f64(12)},
				{Lat: -6.201, Lng: 106.8, RecordedAt: started.Add(time.Minute), AltitudeM: f64(14)},
			},
			Photos: []engine.Photo{
				{
					ID:         "photo-1",
					ImageRef:   "s3://walks/photo-1.jpg",
					Caption:    "park entrance",
					Position:   engine.Position{Lat: -6.2, Lng: 106.8, RecordedAt: started},
					CapturedAt: started.Add(5 * time.Minute),
					OffsetMs:   300000,
				},
			},
			Pauses: []engine.PauseInterval{
				{Start: started.Add(10 * time.Minute), End: started.Add(12 * time.Minute), Auto: true},
			},
			Metrics: engine.Metrics{
				DistanceM:      111.2,
				DurationMs:     1680000,
				PausedMs:       120000,
				AvgSpeedMps:    1.5,
				MaxSpeedMps:    2.1,
				ElevationGainM: 2,
				Calories:       5.56,
				Steps:          150,
			},
		},
		Conditions: &enrich.Conditions{TemperatureC: 28.5, WindSpeedMps: 3.2, WeatherCode: 1},
	}
}

func TestSaveWalkInsertsSessionPointsAndPhotos(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	rec := sampleRecord()
	store := NewStore(mock)

	mock.ExpectExec(`INSERT INTO walk_sessions`).
		WithArgs(rec.ID, rec.UserID, rec.Session.StartedAt, rec.Session.EndedAt,
			111.2, int64(1680000), int64(120000), 1.5, 2.1, 2.0, 5.56, 150,
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	for i, p := range rec.Session.Track {
		mock.ExpectExec(`INSERT INTO walk_points`).
			WithArgs(rec.ID, i, p.Lng, p.Lat, p.AltitudeM, p.AccuracyM, p.SpeedMps, p.RecordedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	ph := rec.Session.Photos[0]
	mock.ExpectExec(`INSERT INTO walk_photos`).
		WithArgs(ph.ID, rec.ID, ph.ImageRef, ph.Caption, ph.Position.Lng, ph.Position.Lat, ph.CapturedAt, ph.OffsetMs).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := store.SaveWalk(context.Background(), rec); err != nil {
		t.Fatalf("save walk: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveWalkWithoutConditions(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	rec := sampleRecord()
	rec.Conditions = nil
	rec.Session.Track = nil
	rec.Session.Photos = nil

	mock.ExpectExec(`INSERT INTO walk_sessions`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := NewStore(mock).SaveWalk(context.Background(), rec); err != nil {
		t.Fatalf("save walk: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveWalkPropagatesPointError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	rec := sampleRecord()
	boom := errors.New("connection reset")

	mock.ExpectExec(`INSERT INTO walk_sessions`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO walk_points`).
		WillReturnError(boom)

	if err := NewStore(mock).SaveWalk(context.Background(), rec); !errors.Is(err, boom) {
		t.Fatalf("expected point insert error, got %v", err)
	}
}

func TestRecentWalks(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, user_id, started_at, ended_at, distance_m, duration_ms, calories`).
		WithArgs("user-1", 20).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "started_at", "ended_at", "distance_m", "duration_ms", "calories"}).
			AddRow("walk-2", "user-1", now.Add(-time.Hour), now, 2400.0, int64(1800000), 120.0).
			AddRow("walk-1", "user-1", now.Add(-26*time.Hour), now.Add(-25*time.Hour), 900.0, int64(900000), 45.0))

	walks, err := NewStore(mock).RecentWalks(context.Background(), "user-1", 0)
	if err != nil {
		t.Fatalf("recent walks: %v", err)
	}
	if len(walks) != 2 {
		t.Fatalf("expected 2 walks, got %d", len(walks))
	}
	if walks[0].ID != "walk-2" || walks[0].DistanceM != 2400 {
		t.Fatalf("unexpected first walk: %+v", walks[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
