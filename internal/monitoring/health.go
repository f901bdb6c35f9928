package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/hellavor/careers-api/internal/metrics"
)

// Pinger is satisfied by *sqlx.DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Status is the result of the most recent store check.
type Status struct {
	Healthy   bool      `json:"healthy"`
	CheckedAt time.Time `json:"checkedAt"`
	Error     string    `json:"error,omitempty"`
}

// HealthMonitor periodically pings the backing store on a cron schedule.
type HealthMonitor struct {
	target  Pinger
	timeout time.Duration
	cron    *cron.Cron

	mu     sync.RWMutex
	status Status
}

// NewHealthMonitor creates a monitor that checks target on spec, a standard cron
// expression or descriptor such as "@every 30s".
func NewHealthMonitor(target Pinger, spec string, timeout time.Duration) (*HealthMonitor, error) {
	p := &HealthMonitor{
		target:  target,
		timeout: timeout,
		cron:    cron.New(),
	}
	if _, err := p.cron.AddFunc(spec, func() { p.Check(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid health check schedule %q: %w", spec, err)
	}
	return p, nil
}

// Run checks once immediately, then on schedule until ctx is done.
func (p *HealthMonitor) Run(ctx context.Context) error {
	log.Info().Msg("Starting store health monitor...")
	p.Check(ctx)
	p.cron.Start()

	<-ctx.Done()
	<-p.cron.Stop().Done()
	log.Info().Msg("Stopping store health monitor.")
	return nil
}

// Check pings the store and records the outcome.
func (p *HealthMonitor) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.target.PingContext(ctx)
	next := Status{Healthy: err == nil, CheckedAt: time.Now().UTC()}
	if err != nil {
		next.Error = err.Error()
	}

	p.mu.Lock()
	prev := p.status
	p.status = next
	p.mu.Unlock()

	metrics.SetStoreHealthy(next.Healthy)
	switch {
	case err != nil && (prev.Healthy || prev.CheckedAt.IsZero()):
		log.Error().Err(err).Msg("Store health check failed")
	case err == nil && !prev.Healthy && !prev.CheckedAt.IsZero():
		log.Info().Msg("Store health check recovered")
	}
	return next
}

// Status returns the last recorded check. The zero Status means no check has run.
func (p *HealthMonitor) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Ready reports whether the last check succeeded.
func (p *HealthMonitor) Ready() bool {
	return p.Status().Healthy
}

// MemoryUsedPercent reports host memory usage.
func MemoryUsedPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}
