package feed

import (
	"context"
	"sync"
	"time"
)

// Poller repeatedly runs a fetch on a timer and delivers the results on a
// channel. The channel is closed when the poller stops; results produced for a
// conversation that has since been switched away are dropped by ApplyPoll.
type Poller struct {
	fetch    func(context.Context) PollResult
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(fetch func(context.Context) PollResult, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{fetch: fetch, interval: interval}
}

// Start launches the polling goroutine. Calling Start on a running poller
// returns nil.
func (p *Poller) Start(ctx context.Context) <-chan PollResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	out := make(chan PollResult, 1)
	go p.run(ctx, out)
	return out
}

func (p *Poller) run(ctx context.Context, out chan<- PollResult) {
	defer close(p.done)
	defer close(out)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res := p.fetch(ctx)
			if ctx.Err() != nil {
				return
			}
			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Stop cancels the poller and waits for its goroutine to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
