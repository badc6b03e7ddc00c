package negotiation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// recordingLogger captures Warn calls so timeoutMonitor's diagnostic branch
// can be asserted on directly.
type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Debug(context.Context, string, ...any) {}
func (l *recordingLogger) Info(context.Context, string, ...any)  {}
func (l *recordingLogger) Error(context.Context, string, ...any) {}

func (l *recordingLogger) Warn(_ context.Context, msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) has(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, w := range l.warns {
		if w == msg {
			return true
		}
	}
	return false
}

const overrunMessage = "negotiation: autonomous timeout monitor observed overrun"

// Regression test for the done-channel race the signal was moved to fix: the
// monitor must log its overrun diagnostic when done is not closed until
// after its own timer fires, modeling a run-loop goroutine genuinely still
// blocked past budget — the exact case the monitor exists to catch.
func TestTimeoutMonitor_LogsWhenStillRunningPastBudget(t *testing.T) {
	logger := &recordingLogger{}
	a := &AutonomousContinuation{Log: logger}

	budget := 20 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()

	done := make(chan struct{})
	time.AfterFunc(budget+timeoutMonitorSlack+50*time.Millisecond, func() { close(done) })

	monitorReturned := make(chan struct{})
	start := time.Now()
	go func() {
		a.timeoutMonitor(ctx, start, budget, done)
		close(monitorReturned)
	}()

	select {
	case <-monitorReturned:
	case <-time.After(2 * time.Second):
		t.Fatal("timeoutMonitor did not return")
	}

	assert.True(t, logger.has(overrunMessage))
}

// When done closes before the monitor's timer fires (the run loop finished
// on time), no diagnostic is logged.
func TestTimeoutMonitor_NoLogWhenDoneClosesBeforeTimer(t *testing.T) {
	logger := &recordingLogger{}
	a := &AutonomousContinuation{Log: logger}

	budget := 50 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()

	done := make(chan struct{})
	close(done)

	a.timeoutMonitor(ctx, time.Now(), budget, done)
	assert.False(t, logger.has(overrunMessage))
}
