package workers

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"ics-chat/runtime"

	"github.com/shirou/gopsutil/process"
)

const DefaultMetricInterval = 30 * time.Second

// StatsSource exposes the counters published by the multiplexer.
type StatsSource interface {
	Stats() runtime.Stats
}

// Health is one heartbeat sample.
type Health struct {
	RSS     uint64
	CPU     float64
	Status  string
	Runtime runtime.Stats
	At      time.Time
}

// HeartbeatWorker logs process health and server load every interval.
type HeartbeatWorker struct {
	log      *slog.Logger
	source   StatsSource
	interval time.Duration

	mu     sync.RWMutex
	latest Health
}

func NewHeartbeatWorker(log *slog.Logger, source StatsSource, interval time.Duration) *HeartbeatWorker {
	if interval <= 0 {
		interval = DefaultMetricInterval
	}
	return &HeartbeatWorker{log: log, source: source, interval: interval}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			health, err := sample(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "error", err)
				continue
			}
			health.Runtime = w.source.Stats()
			w.store(health)
			w.log.Info("Heartbeat",
				"rss", health.RSS,
				"cpu", health.CPU,
				"status", health.Status,
				"active", health.Runtime.Active,
				"sessions", health.Runtime.Sessions,
				"groups", health.Runtime.Groups,
				"frames_in", health.Runtime.FramesIn,
				"frames_out", health.Runtime.FramesOut,
				"slow_consumers", health.Runtime.SlowConsumers,
				"panics", health.Runtime.Panics,
			)
		}
	}
}

// Latest returns the last sample, the zero value before the first tick.
func (w *HeartbeatWorker) Latest() Health {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.latest
}

func (w *HeartbeatWorker) store(h Health) {
	w.mu.Lock()
	w.latest = h
	w.mu.Unlock()
}

func sample(p *process.Process) (Health, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return Health{}, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return Health{}, err
	}
	status, err := p.Status()
	if err != nil {
		return Health{}, err
	}
	return Health{RSS: memInfo.RSS, CPU: cpuPercent, Status: status, At: time.Now()}, nil
}
