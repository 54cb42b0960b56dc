package game

import (
	"sync"
	"time"
)

// Scheduler owns at most one pending timer per room. Scheduling for a
// room that already has a timer cancels and replaces it, so a
// transition triggered twice can never double-fire a phase advance.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[string]*time.Timer)}
}

// Schedule arms fn to run after d, replacing any pending timer for
// the room (last writer wins).
func (s *Scheduler) Schedule(roomCode string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.timers[roomCode]; ok {
		existing.Stop()
	}
	s.timers[roomCode] = time.AfterFunc(d, fn)
}

// Cancel releases the room's pending timer so its callback cannot
// fire after teardown.
func (s *Scheduler) Cancel(roomCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[roomCode]; ok {
		timer.Stop()
		delete(s.timers, roomCode)
	}
}
