package observability

import (
	"runtime"
	"sync/atomic"
	"time"
)

// MonitoringStats is a point-in-time copy of the relay counters.
type MonitoringStats struct {
	ActiveSessions  int64
	TotalSessions   uint64
	FramesReceived  uint64
	DecodeErrors    uint64
	Rejected        uint64 // frames ignored because the session was not registered
	Acks            uint64
	HistoryRequests uint64
	SessionFailures uint64

	Users    int
	Messages int

	Goroutines int
	AllocMemMb uint64
	Uptime     time.Duration
}

// RelayMonitor aggregates relay telemetry with atomic counters.
// All methods are safe for concurrent use and a nil *RelayMonitor is a no-op.
type RelayMonitor struct {
	startedAt time.Time

	activeSessions  atomic.Int64
	totalSessions   atomic.Uint64
	framesReceived  atomic.Uint64
	decodeErrors    atomic.Uint64
	rejected        atomic.Uint64
	acks            atomic.Uint64
	historyRequests atomic.Uint64
	sessionFailures atomic.Uint64
}

func NewRelayMonitor() *RelayMonitor {
	return &RelayMonitor{startedAt: time.Now()}
}

func (m *RelayMonitor) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Add(1)
	m.totalSessions.Add(1)
}

func (m *RelayMonitor) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Add(-1)
}

func (m *RelayMonitor) IncrSessionFailures() {
	if m == nil {
		return
	}
	m.sessionFailures.Add(1)
}

func (m *RelayMonitor) IncrFramesReceived() {
	if m == nil {
		return
	}
	m.framesReceived.Add(1)
}

func (m *RelayMonitor) IncrDecodeErrors() {
	if m == nil {
		return
	}
	m.decodeErrors.Add(1)
}

func (m *RelayMonitor) IncrRejected() {
	if m == nil {
		return
	}
	m.rejected.Add(1)
}

func (m *RelayMonitor) IncrAcks() {
	if m == nil {
		return
	}
	m.acks.Add(1)
}

func (m *RelayMonitor) IncrHistoryRequests() {
	if m == nil {
		return
	}
	m.historyRequests.Add(1)
}

// Stats copies the counters. users and messages come from the repository,
// which the monitor does not own.
func (m *RelayMonitor) Stats(users, messages int) MonitoringStats {
	if m == nil {
		return MonitoringStats{Users: users, Messages: messages}
	}
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return MonitoringStats{
		ActiveSessions:  m.activeSessions.Load(),
		TotalSessions:   m.totalSessions.Load(),
		FramesReceived:  m.framesReceived.Load(),
		DecodeErrors:    m.decodeErrors.Load(),
		Rejected:        m.rejected.Load(),
		Acks:            m.acks.Load(),
		HistoryRequests: m.historyRequests.Load(),
		SessionFailures: m.sessionFailures.Load(),
		Users:           users,
		Messages:        messages,
		Goroutines:      runtime.NumGoroutine(),
		AllocMemMb:      mem.Alloc / 1024 / 1024,
		Uptime:          time.Since(m.startedAt).Round(time.Second),
	}
}
