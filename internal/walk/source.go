package walk

import (
	"sync"

	"github.com/shiveshkaul/puprouteapp-sub001/internal/engine"
)

// pushSource adapts HTTP-ingested samples to engine.SampleSource. The
// engine starts and stops it as the session pauses and resumes; pushes
// outside a started window are reported as undelivered.
type pushSource struct {
	mu       sync.RWMutex
	onSample func(engine.Position)
	onErr    func(error)
}

func newPushSource() *pushSource {
	return &pushSource{}
}

func (s *pushSource) Start(onSample func(engine.Position), onErr func(error)) (engine.SourceHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSample = onSample
	s.onErr = onErr
	return &pushHandle{src: s}, nil
}

// Push delivers one sample. The read lock holds off Stop until the
// callback returns, which is what lets the engine join delivery on
// pause and end.
func (s *pushSource) Push(p engine.Position) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.onSample == nil {
		return false
	}
	s.onSample(p)
	return true
}

// Fail surfaces a device-side sensor failure.
func (s *pushSource) Fail(err error) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.onErr == nil {
		return false
	}
	s.onErr(err)
	return true
}

type pushHandle struct{ src *pushSource }

func (h *pushHandle) Stop() {
	h.src.mu.Lock()
	defer h.src.mu.Unlock()
	h.src.onSample = nil
	h.src.onErr = nil
}
