// Package runtime wires the relay together: it owns the session registry,
// the supervisor and the workers, and turns a fatal worker error into a
// relay-wide shutdown. It contains no protocol logic.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime/workers"
	"context"
	"log/slog"
	"sync"
	"time"
)

var ErrAlreadyStarted = errors.New("relay already started")

type Relay struct {
	mu         sync.Mutex
	log        *slog.Logger
	acceptor   contract.Acceptor
	repository repositories.IRelayRepository
	registry   *SessionRegistry
	monitor    *observability.RelayMonitor
	supervisor *workers.Supervisor
	sessions   *workers.AcceptorWorker
	health     *workers.HealthWorker

	idleTimeout       time.Duration
	restartInterval   time.Duration
	heartbeatInterval time.Duration
	healthAddress     string

	cancel  context.CancelFunc
	done    chan struct{}
	started bool
	err     error
}

// Cfg configures a Relay.
type Cfg func(*Relay)

// WithIdleTimeout closes sessions that stay silent for d. Zero disables it.
func WithIdleTimeout(d time.Duration) Cfg {
	return func(r *Relay) {
		r.idleTimeout = d
	}
}

// WithRestartInterval is the delay before the supervisor restarts a crashed worker.
func WithRestartInterval(d time.Duration) Cfg {
	return func(r *Relay) {
		r.restartInterval = d
	}
}

// WithHeartbeat logs the relay stats every d. Zero disables it.
func WithHeartbeat(d time.Duration) Cfg {
	return func(r *Relay) {
		r.heartbeatInterval = d
	}
}

// WithHealthAddress serves the gRPC health service on address.
func WithHealthAddress(address string) Cfg {
	return func(r *Relay) {
		r.healthAddress = address
	}
}

func WithMonitor(monitor *observability.RelayMonitor) Cfg {
	return func(r *Relay) {
		r.monitor = monitor
	}
}

// NewRelay builds a relay serving the clients of acceptor over repository.
// The repository is shared by every session and never replaced.
func NewRelay(log *slog.Logger, acceptor contract.Acceptor, repository repositories.IRelayRepository, cfgs ...Cfg) *Relay {
	r := &Relay{
		log:        log,
		acceptor:   acceptor,
		repository: repository,
		registry:   NewSessionRegistry(),
		done:       make(chan struct{}),
	}
	for _, cfg := range cfgs {
		cfg(r)
	}
	if r.monitor == nil {
		r.monitor = observability.NewRelayMonitor()
	}
	return r
}

// Start launches the supervised workers and returns immediately.
// The relay runs until ctx is cancelled, Stop is called or a fatal error
// occurs; Done is closed once every session has terminated.
func (r *Relay) Start(ctx context.Context) error {
	// 1. Preparation phase (No Lock)
	supervisor := workers.NewSupervisor(r.log, r.restartInterval)
	sessions := workers.NewAcceptorWorker(r.log, r.acceptor, r.repository, r.registry,
		r.monitor, r.idleTimeout, r.fail)
	supervisor.Add(sessions)
	if r.heartbeatInterval > 0 {
		supervisor.Add(workers.NewHeartbeatWorker(r.log, r.monitor, r.repository, r.heartbeatInterval))
	}
	var health *workers.HealthWorker
	if r.healthAddress != "" {
		health = workers.NewHealthWorker(r.log, r.healthAddress)
		supervisor.Add(health)
	}

	// 2. Critical Section (Short Lock)
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.started = true
	relayCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.supervisor = supervisor
	r.sessions = sessions
	r.health = health
	r.mu.Unlock()

	// 3. Execution phase (No Lock)
	r.log.Info("Starting relay", "address", r.acceptor.Addr().String())
	go func() {
		defer close(r.done)
		supervisor.Run(relayCtx)
		r.shutdown()
	}()
	return nil
}

// shutdown closes every remaining stream and waits for the sessions.
func (r *Relay) shutdown() {
	if err := r.acceptor.Close(); err != nil && !errors.IsConnectionClosed(err) {
		r.log.Warn("Closing acceptor failed", "error", err)
	}
	if n := r.registry.CloseAll(); n > 0 {
		r.log.Info("Closing live sessions", "count", n)
	}
	r.sessions.Wait()
	users, messages := r.repository.Counts()
	r.log.Info("Relay stopped", "users", users, "messages", messages)
}

// fail records the first fatal error and stops the relay.
func (r *Relay) fail(err error) {
	r.mu.Lock()
	if r.err == nil {
		r.err = err
	}
	cancel, health := r.cancel, r.health
	r.mu.Unlock()

	if health != nil {
		health.SetNotServing()
	}
	if cancel != nil {
		cancel()
	}
}

// Stop cancels the relay and waits until every session has terminated.
func (r *Relay) Stop() {
	r.log.Info("Requesting relay shutdown")
	r.mu.Lock()
	cancel, started := r.cancel, r.started
	r.mu.Unlock()
	if !started {
		return
	}
	cancel()
	<-r.done
}

// Done is closed once the relay has fully stopped.
func (r *Relay) Done() <-chan struct{} {
	return r.done
}

// Err returns the error that stopped the relay, nil after a clean stop.
func (r *Relay) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Relay) Addr() string {
	return r.acceptor.Addr().String()
}

func (r *Relay) Sessions() int {
	return r.registry.Len()
}

func (r *Relay) Stats() observability.MonitoringStats {
	users, messages := r.repository.Counts()
	return r.monitor.Stats(users, messages)
}
