// Package concurrency implements the Concurrency Controller (spec.md
// §5): a single workspace write lock, a bounded PTY-session semaphore,
// and a cron-expression scheduler for background maintenance tasks.
// The Controller holds no cancellation token of its own: cancellation
// reaches it only through the caller's context (AcquirePTYSlot, Run).
// The package registers no maintenance task itself.
package concurrency

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"golang.org/x/sync/semaphore"
)

// Controller coordinates concurrent tool execution for one workspace.
type Controller struct {
	writeLock  sync.Mutex
	ptySlots   *semaphore.Weighted
	cron       *gronx.Gronx
	schedules  []schedule
	stop       chan struct{}
	stopOnce   sync.Once
}

type schedule struct {
	expr string
	fn   func(context.Context)
}

// New builds a Controller allowing at most maxConcurrentPTY simultaneous
// PTY sessions.
func New(maxConcurrentPTY int64) *Controller {
	return &Controller{
		ptySlots: semaphore.NewWeighted(maxConcurrentPTY),
		cron:     gronx.New(),
		stop:     make(chan struct{}),
	}
}

// WithWorkspaceWriteLock runs fn while holding the single workspace
// write lock, serializing any tool that mutates filesystem state
// (spec.md §5).
func (c *Controller) WithWorkspaceWriteLock(fn func()) {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	fn()
}

// AcquirePTYSlot blocks until a PTY session slot is free or ctx is
// cancelled, bounding the number of concurrent PTY-backed commands.
func (c *Controller) AcquirePTYSlot(ctx context.Context) error {
	return c.ptySlots.Acquire(ctx, 1)
}

// ReleasePTYSlot returns a previously acquired slot.
func (c *Controller) ReleasePTYSlot() {
	c.ptySlots.Release(1)
}

// Schedule registers a cron-expression-triggered maintenance task
// (e.g. "0 * * * *" hourly scrollback reaping), matching the teacher's
// direct dependency on adhocore/gronx for its own scheduled jobs and
// SandboxConfig.PruneIntervalMin's maintenance-sweep concern.
func (c *Controller) Schedule(cronExpr string, fn func(context.Context)) {
	c.schedules = append(c.schedules, schedule{expr: cronExpr, fn: fn})
}

// Run polls every registered schedule once per tick until ctx is done
// or Stop is called.
func (c *Controller) Run(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case now := <-ticker.C:
			for _, s := range c.schedules {
				due, err := c.cron.IsDue(s.expr, now)
				if err != nil {
					slog.Warn("concurrency.bad_cron_expr", "expr", s.expr, "error", err)
					continue
				}
				if due {
					s.fn(ctx)
				}
			}
		}
	}
}

// Stop halts Run.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}
