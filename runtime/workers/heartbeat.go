package workers

import (
	"chat-relay/contract"
	"chat-relay/observability"
	"chat-relay/repositories"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

const defaultHeartbeatInterval = 30 * time.Second

var _ contract.Worker = (*HeartbeatWorker)(nil)

// HeartbeatWorker periodically logs the relay counters, the repository sizes
// and the process resource usage.
type HeartbeatWorker struct {
	log        *slog.Logger
	monitor    *observability.RelayMonitor
	repository repositories.IRelayRepository
	interval   time.Duration
}

func NewHeartbeatWorker(
	log *slog.Logger,
	monitor *observability.RelayMonitor,
	repository repositories.IRelayRepository,
	interval time.Duration,
) *HeartbeatWorker {
	if interval <= 0 {
		interval = defaultHeartbeatInterval
	}
	return &HeartbeatWorker{
		log:        log,
		monitor:    monitor,
		repository: repository,
		interval:   interval,
	}
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
			return nil
		case <-ticker.C:
			w.beat(p)
		}
	}
}

func (w *HeartbeatWorker) beat(p *process.Process) {
	users, messages := w.repository.Counts()
	stats := w.monitor.Stats(users, messages)
	attrs := []any{
		"active_sessions", stats.ActiveSessions,
		"total_sessions", stats.TotalSessions,
		"users", stats.Users,
		"messages", stats.Messages,
		"frames", stats.FramesReceived,
		"decode_errors", stats.DecodeErrors,
		"rejected", stats.Rejected,
		"session_failures", stats.SessionFailures,
		"goroutines", stats.Goroutines,
		"alloc_mb", stats.AllocMemMb,
		"uptime", stats.Uptime,
	}

	rss, cpu, status, err := selfStats(p)
	if err != nil {
		w.log.Debug("Failed to collect process stats", "error", err)
	} else {
		attrs = append(attrs, "rss_bytes", rss, "cpu_percent", cpu, "status", status)
	}
	w.log.Info("Heartbeat", attrs...)
}

// selfStats retrieves memory, CPU and OS status of the given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
