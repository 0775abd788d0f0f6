// Package engine turns a noisy stream of position samples plus a periodic
// tick into a trustworthy walk record: distance, active/paused time,
// speeds, elevation gain, calorie and step estimates, and timestamped
// photos, under a start/pause/auto-pause/resume/end lifecycle.
//
// All mutation happens on a single event loop fed by a merged queue of
// samples, ticks and commands, so transitions never race sample
// processing. Readers get immutable snapshots via an atomic pointer.
package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/shiveshkaul/puprouteapp-sub001/internal/shared/geo"

	"github.com/google/uuid"
)

type sampleEvent struct{ pos Position }

type tickEvent struct{}

type sensorEvent struct{ err error }

type command int

const (
	cmdStart command = iota
	cmdPause
	cmdResume
	cmdEnd
	cmdPhoto
	cmdClose
)

type request struct {
	cmd      command
	imageRef string
	caption  string
	reply    chan response
}

type response struct {
	err   error
	photo Photo
	final FinalizedSession
}

// Engine is the session state machine. One engine tracks one walk at a
// time; Start after End reinitializes rather than resumes.
type Engine struct {
	cfg    Config
	source SampleSource

	events  chan any
	errs    chan error
	done    chan struct{}
	stopped chan struct{}

	closeOnce sync.Once

	stateVal atomic.Value            // SessionState
	snap     atomic.Pointer[Metrics] // latest immutable snapshot

	nowFn     func() time.Time
	newTicker func(time.Duration) (<-chan time.Time, func())

	// Owned by the run goroutine.
	session  *WalkSession
	acc      distanceAccumulator
	detector autoPauseDetector
	clock    timekeeper
	totals   runningTotals
	lastRaw  *Position
	handle   SourceHandle
	stopTick func()
}

func New(source SampleSource, cfg Config) *Engine {
	e := &Engine{
		cfg:       cfg.withDefaults(),
		source:    source,
		events:    make(chan any, 256),
		errs:      make(chan error, 16),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		nowFn:     time.Now,
		newTicker: newWallTicker,
	}
	e.stateVal.Store(StateIdle)
	e.snap.Store(&Metrics{})
	go e.run()
	return e
}

// State returns the current session state.
func (e *Engine) State() SessionState {
	return e.stateVal.Load().(SessionState)
}

// Metrics returns the latest snapshot. Safe from any goroutine; the value
// is swapped whole, never mutated in place.
func (e *Engine) Metrics() Metrics {
	return *e.snap.Load()
}

// Errors delivers recoverable conditions (sensor failures, clock
// anomalies). None of them end the session; only End does.
func (e *Engine) Errors() <-chan error {
	return e.errs
}

func (e *Engine) Start() error {
	return e.do(request{cmd: cmdStart}).err
}

func (e *Engine) Pause() error {
	return e.do(request{cmd: cmdPause}).err
}

func (e *Engine) Resume() error {
	return e.do(request{cmd: cmdResume}).err
}

// End finalizes the session from any live state. It stops the sample
// source and the ticker and joins both before returning, so no event can
// mutate the session afterwards.
func (e *Engine) End() (FinalizedSession, error) {
	r := e.do(request{cmd: cmdEnd})
	return r.final, r.err
}

// CapturePhoto anchors an image to the current position. Allowed while
// running or paused; fails with ErrNoActivePosition before the first
// sample.
func (e *Engine) CapturePhoto(imageRef, caption string) (Photo, error) {
	r := e.do(request{cmd: cmdPhoto, imageRef: imageRef, caption: caption})
	return r.photo, r.err
}

// Close releases the event loop. The engine cannot be used afterwards.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.do(request{cmd: cmdClose})
	})
	<-e.stopped
}

func (e *Engine) do(req request) response {
	req.reply = make(chan response, 1)
	select {
	case e.events <- req:
	case <-e.done:
		return response{err: ErrEngineClosed}
	}
	select {
	case r := <-req.reply:
		return r
	case <-e.done:
		select {
		case r := <-req.reply:
			return r
		default:
			return response{err: ErrEngineClosed}
		}
	}
}

// enqueue never blocks the producer. A full queue drops the event; samples
// are redundant at that rate and ticks are recomputed from absolute time.
func (e *Engine) enqueue(ev any) {
	select {
	case e.events <- ev:
	default:
	}
}

func (e *Engine) run() {
	for {
		ev := <-e.events
		switch ev := ev.(type) {
		case sampleEvent:
			e.handleSample(ev.pos)
		case tickEvent:
			e.handleTick()
		case sensorEvent:
			e.report(&SensorError{Err: ev.err})
		case request:
			if ev.cmd == cmdClose {
				e.stopConsuming()
				close(e.errs)
				ev.reply <- response{}
				close(e.done)
				close(e.stopped)
				return
			}
			ev.reply <- e.handleCommand(ev)
		}
	}
}

func (e *Engine) handleCommand(req request) response {
	switch req.cmd {
	case cmdStart:
		return response{err: e.startSession()}
	case cmdPause:
		return response{err: e.pauseSession()}
	case cmdResume:
		return response{err: e.resumeSession()}
	case cmdEnd:
		return e.endSession()
	case cmdPhoto:
		return e.capturePhoto(req.imageRef, req.caption)
	}
	return response{}
}

func (e *Engine) setState(s SessionState) {
	if e.session != nil {
		e.session.State = s
	}
	e.stateVal.Store(s)
}

func (e *Engine) startSession() error {
	switch e.State() {
	case StateIdle, StateEnded:
	default:
		return &TransitionError{From: e.State(), Command: "start"}
	}

	now := e.nowFn()
	e.session = &WalkSession{State: StateRunning, StartedAt: now}
	e.acc = distanceAccumulator{noiseFloorM: e.cfg.NoiseFloorM}
	e.detector = autoPauseDetector{speedFloorMps: e.cfg.AutoPauseSpeedMps, window: e.cfg.AutoPauseWindow}
	e.clock.start(now)
	e.totals = runningTotals{}
	e.lastRaw = nil
	e.snap.Store(&Metrics{})

	if err := e.startConsuming(); err != nil {
		e.session = nil
		return err
	}
	e.setState(StateRunning)
	e.publishAt(now)
	return nil
}

func (e *Engine) pauseSession() error {
	now := e.nowFn()
	switch e.State() {
	case StateRunning:
		e.clock.openPause(now, false)
	case StateAutoPaused:
		// the user confirmed the pause; it no longer auto-resumes
		e.clock.convertOpenPause()
	default:
		return &TransitionError{From: e.State(), Command: "pause"}
	}

	e.stopConsuming()
	e.detector.reset()
	e.setState(StatePaused)
	e.publishAt(now)
	return nil
}

func (e *Engine) resumeSession() error {
	switch e.State() {
	case StatePaused:
		// explicit pause stopped the source; bring it back first
		if err := e.startConsuming(); err != nil {
			return err
		}
	case StateAutoPaused:
		// source kept running so movement could auto-resume
	default:
		return &TransitionError{From: e.State(), Command: "resume"}
	}

	now := e.nowFn()
	e.clock.closePause(now)
	e.detector.reset()
	e.setState(StateRunning)
	e.publishAt(now)
	return nil
}

func (e *Engine) endSession() response {
	switch e.State() {
	case StateRunning, StatePaused, StateAutoPaused:
	default:
		return response{err: &TransitionError{From: e.State(), Command: "end"}}
	}

	now := e.nowFn()
	e.stopConsuming()
	e.clock.closePause(now)

	s := e.session
	s.EndedAt = now
	s.EndPosition = s.CurrentPosition

	active, _ := e.clock.activeAt(now)
	paused := e.clock.pausedTotal(now)

	// final metrics come from a full recompute over the position log, not
	// the running cache
	final := ComputeMetrics(s.Track, active, paused, e.cfg)
	e.snap.Store(&final)
	e.setState(StateEnded)

	fs := FinalizedSession{
		StartedAt:     s.StartedAt,
		EndedAt:       now,
		StartPosition: s.StartPosition,
		EndPosition:   s.EndPosition,
		Track:         append([]Position(nil), s.Track...),
		Photos:        append([]Photo(nil), s.Photos...),
		Pauses:        append([]PauseInterval(nil), e.clock.pauses...),
		Metrics:       final,
	}
	if e.cfg.Publish != nil {
		e.cfg.Publish(final)
	}
	return response{final: fs}
}

func (e *Engine) capturePhoto(imageRef, caption string) response {
	switch e.State() {
	case StateRunning, StatePaused, StateAutoPaused:
	default:
		return response{err: &TransitionError{From: e.State(), Command: "capture a photo"}}
	}
	if e.session.CurrentPosition == nil {
		return response{err: ErrNoActivePosition}
	}

	now := e.nowFn()
	ph := Photo{
		ID:         uuid.NewString(),
		ImageRef:   imageRef,
		Caption:    caption,
		Position:   *e.session.CurrentPosition,
		CapturedAt: now,
		OffsetMs:   now.Sub(e.session.StartedAt).Milliseconds(),
	}
	e.session.Photos = append(e.session.Photos, ph)
	return response{photo: ph}
}

func (e *Engine) handleSample(p Position) {
	now := e.nowFn()
	switch e.State() {
	case StateRunning, StateAutoPaused:
	default:
		// delivery outside a consuming state
		return
	}

	// the position log is non-decreasing in recorded time; a sample that
	// arrives out of order is discarded rather than counted
	if e.lastRaw != nil && p.RecordedAt.Before(e.lastRaw.RecordedAt) {
		e.report(&StaleSampleError{RecordedAt: p.RecordedAt, Last: e.lastRaw.RecordedAt})
		return
	}

	if e.State() == StateRunning {
		e.acceptSample(p, now)
		return
	}

	// auto-paused: only watch for movement; the sample is not recorded
	if _, resume := e.detector.observe(e.rawSpeed(p), now); resume {
		e.clock.closePause(now)
		e.setState(StateRunning)
		e.acceptSample(p, now)
		return
	}
	cp := p
	e.lastRaw = &cp
}

func (e *Engine) acceptSample(p Position, now time.Time) {
	s := e.session
	s.Track = append(s.Track, p)
	cp := p
	s.CurrentPosition = &cp
	e.lastRaw = &cp
	if s.StartPosition == nil {
		s.StartPosition = &cp
	}

	speed := e.approachSpeed(p)
	e.totals.observeAltitude(p)
	stepM, dt, accepted := e.acc.advance(p)
	if accepted {
		e.totals.acceptStep(stepM, sampleSpeed(p, stepM, dt))
	}

	e.publishAt(now)

	if pause, _ := e.detector.observe(speed, now); pause {
		e.clock.openPause(now, true)
		e.setState(StateAutoPaused)
		e.publishAt(now)
	}
}

// approachSpeed is the reported instantaneous speed, or failing that the
// speed derived against the last accepted position. Works for rejected
// samples too, which is what lets sustained stillness trip the detector.
func (e *Engine) approachSpeed(p Position) float64 {
	if p.SpeedMps != nil {
		return *p.SpeedMps
	}
	last := e.acc.lastAccepted
	if last == nil {
		return 0
	}
	dt := p.RecordedAt.Sub(last.RecordedAt)
	if dt <= 0 {
		return 0
	}
	return geo.HaversineM(last.Lat, last.Lng, p.Lat, p.Lng) / dt.Seconds()
}

// rawSpeed derives speed against the previous sample, accepted or not.
// Used while auto-paused so recovery is judged on the latest movement
// rather than displacement over the whole stopped interval.
func (e *Engine) rawSpeed(p Position) float64 {
	if p.SpeedMps != nil {
		return *p.SpeedMps
	}
	if e.lastRaw == nil {
		return 0
	}
	dt := p.RecordedAt.Sub(e.lastRaw.RecordedAt)
	if dt <= 0 {
		return 0
	}
	return geo.HaversineM(e.lastRaw.Lat, e.lastRaw.Lng, p.Lat, p.Lng) / dt.Seconds()
}

func (e *Engine) handleTick() {
	if e.State() != StateRunning {
		return
	}
	e.publishAt(e.nowFn())
}

func (e *Engine) publishAt(now time.Time) {
	active, anomaly := e.clock.activeAt(now)
	m := e.totals.snapshot(active, e.clock.pausedTotal(now), e.cfg)
	e.snap.Store(&m)
	if e.cfg.Publish != nil {
		e.cfg.Publish(m)
	}
	if anomaly {
		e.report(&ClockAnomalyError{At: now, Active: active})
	}
}

func (e *Engine) report(err error) {
	select {
	case e.errs <- err:
	default:
	}
}

func (e *Engine) startConsuming() error {
	h, err := e.source.Start(
		func(p Position) { e.enqueue(sampleEvent{pos: p}) },
		func(err error) { e.enqueue(sensorEvent{err: err}) },
	)
	if err != nil {
		return err
	}
	e.handle = h

	tickCh, stop := e.newTicker(e.cfg.TickInterval)
	e.stopTick = stop
	go func() {
		for range tickCh {
			e.enqueue(tickEvent{})
		}
	}()
	return nil
}

func (e *Engine) stopConsuming() {
	if e.handle != nil {
		e.handle.Stop()
		e.handle = nil
	}
	if e.stopTick != nil {
		e.stopTick()
		e.stopTick = nil
	}
}

// newWallTicker adapts time.Ticker to a channel that closes on stop, so
// the forwarding goroutine always exits.
func newWallTicker(interval time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(interval)
	out := make(chan time.Time)
	quit := make(chan struct{})
	go func() {
		defer close(out)
		for {
			select {
			case at := <-t.C:
				select {
				case out <- at:
				case <-quit:
					return
				}
			case <-quit:
				return
			}
		}
	}()
	var once sync.Once
	return out, func() {
		once.Do(func() {
			t.Stop()
			close(quit)
		})
	}
}
