package server

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// TickerService drives a fixed-step simulation callback. It implements
// Service: Start blocks until Stop is called, invoking the callback once per
// interval with the tick's wall-clock time.
type TickerService struct {
	interval time.Duration
	fn       func(now time.Time)
	logger   *zap.Logger

	stopOnce sync.Once
	quit     chan struct{}
	done     chan struct{}
}

// NewTickerService creates a TickerService.
//
// Precondition: interval > 0; fn and logger must be non-nil.
func NewTickerService(interval time.Duration, fn func(now time.Time), logger *zap.Logger) *TickerService {
	return &TickerService{
		interval: interval,
		fn:       fn,
		logger:   logger,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the tick loop until Stop is called. Slow callbacks skip ticks
// rather than bunching them; the callback always receives real time.
func (s *TickerService) Start() error {
	defer close(s.done)

	s.logger.Info("tick loop started", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			s.fn(now)
		case <-s.quit:
			return nil
		}
	}
}

// Stop terminates the loop and waits for the in-flight tick to finish.
func (s *TickerService) Stop() {
	s.stopOnce.Do(func() { close(s.quit) })
	<-s.done
	s.logger.Info("tick loop stopped")
}
