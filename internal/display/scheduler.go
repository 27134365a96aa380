package display

import (
	"sync"
	"time"
)

// Scheduler runs named periodic tasks. Starting a task under a key that is
// already running replaces it.
type Scheduler interface {
	Every(key string, interval time.Duration, fn func())
	Stop(key string)
}

// TickerScheduler runs each task on its own time.Ticker goroutine.
type TickerScheduler struct {
	mu    sync.Mutex
	tasks map[string]chan struct{}
}

func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{tasks: make(map[string]chan struct{})}
}

func (s *TickerScheduler) Every(key string, interval time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stop, ok := s.tasks[key]; ok {
		close(stop)
	}
	stop := make(chan struct{})
	s.tasks[key] = stop

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

func (s *TickerScheduler) Stop(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stop, ok := s.tasks[key]; ok {
		close(stop)
		delete(s.tasks, key)
	}
}

// StopAll stops every running task.
func (s *TickerScheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, stop := range s.tasks {
		close(stop)
		delete(s.tasks, key)
	}
}

// Running reports how many tasks are live.
func (s *TickerScheduler) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
