package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shiveshkaul/puprouteapp-sub001/internal/db"
	"github.com/shiveshkaul/puprouteapp-sub001/internal/engine"
	"github.com/shiveshkaul/puprouteapp-sub001/internal/enrich"
)

// WalkRecord is everything archived for one finished walk.
type WalkRecord struct {
	ID         string
	UserID     string
	Session    engine.FinalizedSession
	Conditions *enrich.Conditions
}

type WalkSummary struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
	DistanceM  float64   `json:"distance_m"`
	DurationMs int64     `json:"duration_ms"`
	Calories   float64   `json:"calories"`
}

type Store struct {
	db db.Querier
}

func NewStore(db db.Querier) *Store {
	return &Store{db: db}
}

// SaveWalk archives the session row, the full point track and the photos.
func (s *Store) SaveWalk(ctx context.Context, rec WalkRecord) error {
	m := rec.Session.Metrics
	pauses, err := json.Marshal(rec.Session.Pauses)
	if err != nil {
		return err
	}
	var weather []byte
	if rec.Conditions != nil {
		if weather, err = json.Marshal(rec.Conditions); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO walk_sessions
			(id, user_id, started_at, ended_at, distance_m, duration_ms, paused_ms,
			 avg_speed_mps, max_speed_mps, elevation_gain_m, calories, steps, pauses, weather)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, rec.ID, rec.UserID, rec.Session.StartedAt, rec.Session.EndedAt,
		m.DistanceM, m.DurationMs, m.PausedMs, m.AvgSpeedMps, m.MaxSpeedMps,
		m.ElevationGainM, m.Calories, m.Steps, pauses, weather)
	if err != nil {
		return err
	}

	for i, p := range rec.Session.Track {
		_, err := s.db.Exec(ctx, `
			INSERT INTO walk_points (session_id, seq, location, altitude_m, accuracy_m, speed_mps, recorded_at)
			VALUES ($1,$2, ST_SetSRID(ST_MakePoint($3,$4), 4326)::geography, $5,$6,$7,$8)
		`, rec.ID, i, p.Lng, p.Lat, p.AltitudeM, p.AccuracyM, p.SpeedMps, p.RecordedAt)
		if err != nil {
			return err
		}
	}

	for _, ph := range rec.Session.Photos {
		_, err := s.db.Exec(ctx, `
			INSERT INTO walk_photos (id, session_id, image_ref, caption, location, captured_at, offset_ms)
			VALUES ($1,$2,$3,$4, ST_SetSRID(ST_MakePoint($5,$6), 4326)::geography, $7,$8)
		`, ph.ID, rec.ID, ph.ImageRef, ph.Caption, ph.Position.Lng, ph.Position.Lat, ph.CapturedAt, ph.OffsetMs)
		if err != nil {
			return err
		}
	}
	return nil
}

// RecentWalks lists a user's archived walks, newest first.
func (s *Store) RecentWalks(ctx context.Context, userID string, limit int) ([]WalkSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, started_at, ended_at, distance_m, duration_ms, calories
		FROM walk_sessions WHERE user_id=$1
		ORDER BY ended_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var walks []WalkSummary
	for rows.Next() {
		var w WalkSummary
		if err := rows.Scan(&w.ID, &w.UserID, &w.StartedAt, &w.EndedAt, &w.DistanceM, &w.DurationMs, &w.Calories); err != nil {
			return nil, err
		}
		walks = append(walks, w)
	}
	return walks, nil
}
