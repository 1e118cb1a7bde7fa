package refresher

import (
	"context"
	"sync"
	"time"

	"github.com/anicoll/bytewatt-integration/internal/pkg/model"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// BatteryMonitor is the upstream fetch the refresher drives, one call per
// refresh cycle. The client's own retry budget lives behind this call.
type BatteryMonitor interface {
	GetBatteryData(ctx context.Context) (model.Snapshot, error)
}

// Refresher caches the most recent snapshot and collapses concurrent
// refresh requests into a single in-flight fetch. Readers never trigger
// network I/O.
type Refresher struct {
	monitor BatteryMonitor
	logger  *zap.Logger
	group   singleflight.Group

	mu         sync.RWMutex
	snapshot   model.Snapshot
	lastUpdate time.Time
	lastErr    error
}

func New(monitor BatteryMonitor) *Refresher {
	return &Refresher{
		monitor: monitor,
		logger:  zap.L(),
	}
}

// Refresh performs one fetch cycle. Callers arriving while a fetch is in
// flight join it and receive the same snapshot or the same failure. On
// success the cached snapshot is replaced wholesale; on failure the stale
// snapshot is kept and only the error is recorded.
func (r *Refresher) Refresh(ctx context.Context) (model.Snapshot, error) {
	out, err, shared := r.group.Do("refresh", func() (any, error) {
		snapshot, err := r.monitor.GetBatteryData(ctx)

		r.mu.Lock()
		defer r.mu.Unlock()
		if err != nil {
			r.lastErr = err
			return nil, err
		}
		r.snapshot = snapshot
		r.lastUpdate = time.Now()
		r.lastErr = nil
		return snapshot, nil
	})
	if err != nil {
		r.logger.Warn("refresh failed", zap.Error(err), zap.Bool("shared", shared))
		return nil, err
	}
	return out.(model.Snapshot), nil
}

// Snapshot returns the cached snapshot without any I/O. ok is false until
// the first successful refresh.
func (r *Refresher) Snapshot() (model.Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot, r.snapshot != nil
}

func (r *Refresher) LastUpdate() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastUpdate
}

func (r *Refresher) LastErr() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}
