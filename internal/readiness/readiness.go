package readiness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var ErrNotReady = errors.New("dependency not ready")

const (
	DefaultAttempts = 10
	DefaultInterval = 2 * time.Second
	DefaultTimeout  = 5 * time.Second
)

type Check func(ctx context.Context) error

// Policy retries a check a fixed number of times with a fixed delay between
// attempts.
type Policy struct {
	Attempts int
	Interval time.Duration
	// Sleep waits between attempts, it defaults to a context aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultPolicy() Policy {
	return Policy{Attempts: DefaultAttempts, Interval: DefaultInterval}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Probe blocks until check succeeds or the attempts are used up. It is meant
// for startup only.
func (p Policy) Probe(ctx context.Context, name string, check Check) error {
	attempts := max(p.Attempts, 1)
	wait := p.Sleep
	if wait == nil {
		wait = sleep
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = check(ctx); err == nil {
			slog.Info("dependency ready", "name", name, "attempt", i+1)
			return nil
		}
		slog.Warn("dependency not ready", "name", name, "attempt", i+1, "max_attempts", attempts, "error", err)

		if i == attempts-1 {
			break
		}
		if serr := wait(ctx, p.Interval); serr != nil {
			return fmt.Errorf("%w: %s: %w", ErrNotReady, name, serr)
		}
	}

	slog.Error("dependency unavailable", "name", name, "attempts", attempts, "error", err)
	return fmt.Errorf("%w: %s after %d attempts: %w", ErrNotReady, name, attempts, err)
}

// Once runs check a single time bounded by timeout.
func Once(ctx context.Context, timeout time.Duration, check Check) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- check(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
