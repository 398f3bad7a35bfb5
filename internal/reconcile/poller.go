package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the polling cadence.
const DefaultInterval = 5 * time.Second

// Refresher performs one reconcile cycle.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Poller runs a Refresher on a fixed interval until stopped. Every tick is
// an independent attempt: no backoff, no retry cap, and a slow fetch does
// not delay the next tick.
type Poller struct {
	target   Refresher
	interval time.Duration
	logger   *zap.Logger

	trigger chan struct{}

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup
}

// NewPoller creates a poller. A non-positive interval uses DefaultInterval.
func NewPoller(target Refresher, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		target:   target,
		interval: interval,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// Start begins polling with an immediate first refresh. The poller stops
// when ctx is cancelled or Stop is called. Starting twice is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	p.wg.Add(1)
	go p.loop(ctx)
	p.logger.Debug("poller started", zap.Duration("interval", p.interval))
}

// Stop cancels in-flight refreshes and waits for them to return. After
// Stop returns no further refresh will reach the target's subscribers.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Debug("poller stopped")
}

// Trigger requests an out-of-band refresh without waiting for the next tick.
// It never blocks; requests made while one is pending are coalesced.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.spawn(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.spawn(ctx)
		case <-p.trigger:
			p.spawn(ctx)
		}
	}
}

func (p *Poller) spawn(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		err := p.target.Refresh(ctx)
		switch {
		case err == nil, errors.Is(err, ErrStale), errors.Is(err, context.Canceled):
		default:
			p.logger.Debug("refresh failed", zap.Error(err))
		}
	}()
}
