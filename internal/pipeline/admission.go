package pipeline

import (
	"context"
	"time"

	"csv-import/internal/logger"
	"csv-import/internal/sysinfo"
)

// DefaultMemoryPollInterval is used when Admission.Interval is not set.
const DefaultMemoryPollInterval = 500 * time.Millisecond

// Admission holds new workers back while host memory usage is at or above
// LimitPercent. A worker is always admitted when none is running, so a run
// cannot stall on memory held by other processes.
type Admission struct {
	LimitPercent float64 // <= 0 disables the gate
	Interval     time.Duration
	Probe        sysinfo.MemoryProbe
	Log          logger.Logger
}

// Wait blocks until a new worker may start or ctx is done. active returns the
// number of workers currently running.
func (a *Admission) Wait(ctx context.Context, active func() int) error {
	if a == nil || a.LimitPercent <= 0 || a.Probe == nil {
		return nil
	}
	interval := a.Interval
	if interval <= 0 {
		interval = DefaultMemoryPollInterval
	}
	log := a.Log
	if log == nil {
		log = logger.NopLogger
	}

	held := false
	for {
		used, err := a.Probe.UsedPercent()
		if err != nil {
			log.Warnf("memory probe failed, admitting worker: %v", err)
			return nil
		}
		if used < a.LimitPercent || active() == 0 {
			if held {
				log.Infof("memory usage %.1f%%, resuming dispatch", used)
			}
			return nil
		}
		if !held {
			log.Warnf("memory usage %.1f%% is above the %.0f%% limit, holding dispatch", used, a.LimitPercent)
			held = true
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
