package walk

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/shiveshkaul/puprouteapp-sub001/internal/engine"
	"github.com/shiveshkaul/puprouteapp-sub001/internal/enrich"
	"github.com/shiveshkaul/puprouteapp-sub001/internal/storage"
	"github.com/shiveshkaul/puprouteapp-sub001/internal/stream"

	"github.com/google/uuid"
)

var ErrWalkNotFound = errors.New("walk not found")

// Archiver persists a finished walk. The engine never touches storage;
// the manager is the caller that hands the finalized record over.
type Archiver interface {
	SaveWalk(ctx context.Context, rec storage.WalkRecord) error
	RecentWalks(ctx context.Context, userID string, limit int) ([]storage.WalkSummary, error)
}

type WalkInfo struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	StartedAt time.Time           `json:"started_at"`
	State     engine.SessionState `json:"state"`
}

type EndResult struct {
	WalkID     string                  `json:"walk_id"`
	UserID     string                  `json:"user_id"`
	Session    engine.FinalizedSession `json:"session"`
	Conditions *enrich.Conditions      `json:"conditions,omitempty"`
}

type liveWalk struct {
	id        string
	userID    string
	startedAt time.Time
	src       *pushSource
	eng       *engine.Engine
}

// Manager owns at most one live engine per walk ID. Lifecycle commands,
// sample ingestion and snapshot reads all go through here.
type Manager struct {
	mu    sync.RWMutex
	walks map[string]*liveWalk

	store     Archiver
	weather   enrich.Provider
	hub       *stream.Hub
	engineCfg engine.Config
}

func NewManager(store Archiver, weather enrich.Provider, hub *stream.Hub, cfg engine.Config) *Manager {
	return &Manager{
		walks:     map[string]*liveWalk{},
		store:     store,
		weather:   weather,
		hub:       hub,
		engineCfg: cfg,
	}
}

func (m *Manager) StartWalk(userID string) (WalkInfo, error) {
	id := uuid.NewString()
	src := newPushSource()

	cfg := m.engineCfg
	if m.hub != nil {
		hub := m.hub
		cfg.Publish = func(snap engine.Metrics) {
			payload, err := json.Marshal(snap)
			if err != nil {
				return
			}
			hub.Broadcast(id, payload)
		}
	}

	eng := engine.New(src, cfg)
	if err := eng.Start(); err != nil {
		eng.Close()
		return WalkInfo{}, err
	}
	go drainEngineErrors(id, eng)

	lw := &liveWalk{id: id, userID: userID, startedAt: time.Now(), src: src, eng: eng}
	m.mu.Lock()
	m.walks[id] = lw
	m.mu.Unlock()

	return m.info(lw), nil
}

func (m *Manager) info(lw *liveWalk) WalkInfo {
	return WalkInfo{ID: lw.id, UserID: lw.userID, StartedAt: lw.startedAt, State: lw.eng.State()}
}

func (m *Manager) get(id string) (*liveWalk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lw, ok := m.walks[id]
	if !ok {
		return nil, ErrWalkNotFound
	}
	return lw, nil
}

// AddSample forwards one position sample to the walk's engine. delivered
// is false while the session is not consuming (explicitly paused).
func (m *Manager) AddSample(id string, p engine.Position) (delivered bool, err error) {
	lw, err := m.get(id)
	if err != nil {
		return false, err
	}
	return lw.src.Push(p), nil
}

// ReportSensorError surfaces a device-side position failure. The session
// keeps its state; the condition is logged and nothing ends.
func (m *Manager) ReportSensorError(id string, msg string) (delivered bool, err error) {
	lw, err := m.get(id)
	if err != nil {
		return false, err
	}
	return lw.src.Fail(errors.New(msg)), nil
}

func (m *Manager) PauseWalk(id string) (WalkInfo, error) {
	lw, err := m.get(id)
	if err != nil {
		return WalkInfo{}, err
	}
	if err := lw.eng.Pause(); err != nil {
		return WalkInfo{}, err
	}
	return m.info(lw), nil
}

func (m *Manager) ResumeWalk(id string) (WalkInfo, error) {
	lw, err := m.get(id)
	if err != nil {
		return WalkInfo{}, err
	}
	if err := lw.eng.Resume(); err != nil {
		return WalkInfo{}, err
	}
	return m.info(lw), nil
}

func (m *Manager) CapturePhoto(id, imageRef, caption string) (engine.Photo, error) {
	lw, err := m.get(id)
	if err != nil {
		return engine.Photo{}, err
	}
	return lw.eng.CapturePhoto(imageRef, caption)
}

func (m *Manager) Metrics(id string) (engine.Metrics, error) {
	lw, err := m.get(id)
	if err != nil {
		return engine.Metrics{}, err
	}
	return lw.eng.Metrics(), nil
}

func (m *Manager) State(id string) (engine.SessionState, error) {
	lw, err := m.get(id)
	if err != nil {
		return "", err
	}
	return lw.eng.State(), nil
}

// EndWalk finalizes the session, enriches it with weather conditions for
// the end position when a provider is configured, and archives it. The
// walk is released from the manager either way; a finished session cannot
// be re-ended.
func (m *Manager) EndWalk(ctx context.Context, id string) (EndResult, error) {
	m.mu.Lock()
	lw, ok := m.walks[id]
	if ok {
		delete(m.walks, id)
	}
	m.mu.Unlock()
	if !ok {
		return EndResult{}, ErrWalkNotFound
	}

	fs, err := lw.eng.End()
	lw.eng.Close()
	if err != nil {
		return EndResult{}, err
	}

	res := EndResult{WalkID: lw.id, UserID: lw.userID, Session: fs}
	if m.weather != nil && fs.EndPosition != nil {
		cond, err := m.weather.Conditions(ctx, fs.EndPosition.Lat, fs.EndPosition.Lng)
		if err != nil {
			log.Printf("weather enrichment failed for walk %s: %v", lw.id, err)
		} else {
			res.Conditions = &cond
		}
	}

	if m.store != nil {
		rec := storage.WalkRecord{ID: lw.id, UserID: lw.userID, Session: fs, Conditions: res.Conditions}
		if err := m.store.SaveWalk(ctx, rec); err != nil {
			return res, err
		}
	}
	return res, nil
}

// History lists a user's archived walks, newest first.
func (m *Manager) History(ctx context.Context, userID string, limit int) ([]storage.WalkSummary, error) {
	if m.store == nil {
		return nil, nil
	}
	return m.store.RecentWalks(ctx, userID, limit)
}

// Shutdown ends and archives every live walk. Used on server stop so
// in-flight sessions are not lost.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.walks))
	for id := range m.walks {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		if _, err := m.EndWalk(ctx, id); err != nil && !errors.Is(err, ErrWalkNotFound) {
			log.Printf("shutdown: ending walk %s: %v", id, err)
		}
	}
}

func drainEngineErrors(id string, eng *engine.Engine) {
	for err := range eng.Errors() {
		log.Printf("walk %s: %v", id, err)
	}
}
