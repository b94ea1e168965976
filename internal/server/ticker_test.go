package server

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestTickerServiceFiresCallback(t *testing.T) {
	var ticks atomic.Int64
	svc := NewTickerService(5*time.Millisecond, func(time.Time) {
		ticks.Add(1)
	}, zaptest.NewLogger(t))

	done := make(chan error, 1)
	go func() {
		done <- svc.Start()
	}()

	deadline := time.After(2 * time.Second)
	for ticks.Load() < 3 {
		select {
		case <-deadline:
			t.Fatal("ticker did not fire in time")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	svc.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ticker did not stop in time")
	}
}

func TestTickerServiceStopIsIdempotent(t *testing.T) {
	svc := NewTickerService(time.Millisecond, func(time.Time) {}, zaptest.NewLogger(t))

	done := make(chan error, 1)
	go func() {
		done <- svc.Start()
	}()

	svc.Stop()
	svc.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ticker did not stop in time")
	}
}
