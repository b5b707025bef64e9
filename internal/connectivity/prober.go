package connectivity

import (
	"context"
	"log/slog"
	"time"
)

// Pinger checks whether the remote backend answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Prober polls a Pinger and feeds the result into an Observer. It stands in
// for platform network callbacks on hosts that do not provide them.
type Prober struct {
	pinger   Pinger
	observer *Observer
	interval time.Duration
	timeout  time.Duration
}

// NewProber creates a Prober that checks every interval.
func NewProber(pinger Pinger, observer *Observer, interval time.Duration) *Prober {
	timeout := interval / 2
	if timeout <= 0 || timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	return &Prober{
		pinger:   pinger,
		observer: observer,
		interval: interval,
		timeout:  timeout,
	}
}

// Run probes once immediately and then on every tick until ctx is done.
func (p *Prober) Run(ctx context.Context) {
	p.ProbeOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProbeOnce(ctx)
		}
	}
}

// ProbeOnce pings the backend and updates the observer with the outcome.
func (p *Prober) ProbeOnce(ctx context.Context) bool {
	if ctx.Err() != nil {
		return p.observer.IsOnline()
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.pinger.Ping(probeCtx)
	online := err == nil
	if err != nil && ctx.Err() == nil {
		slog.Debug("reachability probe failed", "error", err)
	}

	p.observer.Set(online)
	return online
}
