package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Health is the outcome of the latest background ping.
type Health struct {
	Healthy   bool
	Err       error
	CheckedAt time.Time
}

// healthMonitor pings the pool at a fixed interval so that a dead database
// is noticed before the next statement fails.
type healthMonitor struct {
	conn     *Conn
	interval time.Duration
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	last     atomic.Pointer[Health]
}

// WithHealthCheck pings the database every interval in the background.
// Results are reported by Conn.Health and logged at Warn on failure.
func WithHealthCheck(interval time.Duration) Option {
	return func(c *Conn) {
		if interval > 0 {
			c.health = &healthMonitor{conn: c, interval: interval}
		}
	}
}

func (h *healthMonitor) start() {
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				h.check(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (h *healthMonitor) check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, h.interval)
	defer cancel()

	err := h.conn.db.PingContext(ctx)
	h.last.Store(&Health{Healthy: err == nil, Err: err, CheckedAt: time.Now()})
	if err != nil {
		h.conn.logger.Warn("database health check failed",
			"database", h.conn.driverName,
			"error", err,
		)
	}
}

func (h *healthMonitor) stop() {
	h.cancel()
	h.wg.Wait()
}

// Health returns the latest background check. Without WithHealthCheck, or
// before the first check, it reports healthy with a zero CheckedAt.
func (c *Conn) Health() Health {
	if c.health == nil {
		return Health{Healthy: true}
	}
	if last := c.health.last.Load(); last != nil {
		return *last
	}
	return Health{Healthy: true}
}
