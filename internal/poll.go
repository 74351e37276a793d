package internal

import (
	"context"
	"log/slog"
	"time"

	pkgerrs "github.com/chainthreads/go-threads-publisher/pkg/errors"
	"github.com/chainthreads/go-threads-publisher/pkg/types"
)

// Clock abstracts time for the poller so tests can simulate waiting.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock is the production Clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// StatusFunc reports a container's current state and, for failures, the
// platform's error detail.
type StatusFunc func(ctx context.Context) (state types.ContainerState, detail string, err error)

// Poller drives a container through Created -> Polling -> terminal state on
// a fixed interval, synthesizing a timeout when the wait budget runs out.
type Poller struct {
	Interval time.Duration
	Budget   time.Duration
	Clock    Clock
	Logger   *slog.Logger
}

// Wait polls status until the container finishes, fails, or exceeds the
// budget. It returns nil only for ContainerFinished.
func (p *Poller) Wait(ctx context.Context, containerID string, status StatusFunc) error {
	clock := p.Clock
	if clock == nil {
		clock = RealClock{}
	}

	start := clock.Now()
	deadline := start.Add(p.Budget)

	for {
		state, detail, err := status(ctx)
		if err != nil {
			return &pkgerrs.ContainerError{Phase: "status", ContainerID: containerID, Err: err}
		}

		if p.Logger != nil {
			p.Logger.Debug("container status", "container_id", containerID, "state", state.String())
		}

		switch state {
		case types.ContainerFinished:
			return nil
		case types.ContainerErrored:
			return &pkgerrs.ContainerError{Phase: "status", ContainerID: containerID, Detail: detail}
		}

		if !clock.Now().Add(p.Interval).Before(deadline) {
			return &pkgerrs.PollTimeoutError{ContainerID: containerID, Waited: clock.Now().Sub(start)}
		}
		if err := clock.Sleep(ctx, p.Interval); err != nil {
			return &pkgerrs.ContainerError{Phase: "status", ContainerID: containerID, Err: err}
		}
	}
}
