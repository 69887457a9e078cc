package workers

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/session"
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

var _ contract.Worker = (*AcceptorWorker)(nil)

// AcceptorWorker accepts connections and runs one Session goroutine per
// connection. There is no admission control: the number of sessions, and so
// of goroutines, grows with the number of connected clients.
type AcceptorWorker struct {
	log         *slog.Logger
	acceptor    contract.Acceptor
	repository  repositories.IRelayRepository
	registry    contract.ISessionRegistry
	monitor     *observability.RelayMonitor
	idleTimeout time.Duration
	onFatal     func(error)

	sessions sync.WaitGroup
}

func NewAcceptorWorker(
	log *slog.Logger,
	acceptor contract.Acceptor,
	repository repositories.IRelayRepository,
	registry contract.ISessionRegistry,
	monitor *observability.RelayMonitor,
	idleTimeout time.Duration,
	onFatal func(error),
) *AcceptorWorker {
	return &AcceptorWorker{
		log:         log,
		acceptor:    acceptor,
		repository:  repository,
		registry:    registry,
		monitor:     monitor,
		idleTimeout: idleTimeout,
		onFatal:     onFatal,
	}
}

// Run accepts until ctx is cancelled or the acceptor is closed.
// Transient accept errors are retried with a capped exponential delay.
// A repository failure in any session, or an acceptor closed while ctx is
// still live, is reported through onFatal.
func (w *AcceptorWorker) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		if err := w.acceptor.Close(); err != nil && !errors.IsConnectionClosed(err) {
			w.log.Warn("Closing acceptor failed", "error", err)
		}
	})
	defer stop()

	w.log.Info("Accepting connections", "address", w.acceptor.Addr().String())
	var delay time.Duration
	for {
		stream, err := w.acceptor.Accept()
		if err != nil {
			if ctx.Err() != nil {
				w.log.Info("Acceptor stopped", "address", w.acceptor.Addr().String())
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				// Closed under our feet: nothing left to accept, the relay must stop.
				w.log.Error("Acceptor closed unexpectedly", "address", w.acceptor.Addr().String())
				w.fatal(errors.ErrAcceptorClosed)
				return nil
			}
			delay = nextAcceptDelay(delay)
			w.log.Warn("Accept failed, retrying", "error", err, "retry_in", delay)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			continue
		}
		delay = 0
		w.serve(ctx, stream)
	}
}

// Wait blocks until every session started by this worker has terminated.
func (w *AcceptorWorker) Wait() {
	w.sessions.Wait()
}

func (w *AcceptorWorker) serve(ctx context.Context, stream contract.Stream) {
	s := session.NewSession(w.log, stream, w.repository,
		session.WithIdleTimeout(w.idleTimeout),
		session.WithMonitor(w.monitor),
	)
	w.registry.Track(s.ID, stream)
	w.monitor.SessionOpened()
	w.sessions.Add(1)

	go func() {
		defer w.sessions.Done()
		defer w.monitor.SessionClosed()
		defer w.registry.Untrack(s.ID)

		if err := w.runSession(ctx, s); err != nil {
			w.monitor.IncrSessionFailures()
			if errors.Is(err, errors.ErrRepositoryUnavailable) {
				w.log.Error("Repository failure, stopping relay", "session_id", s.ID.String(), "error", err)
				w.fatal(err)
				return
			}
			w.log.Error("Session failed", "session_id", s.ID.String(), "error", err)
		}
	}()
}

func (w *AcceptorWorker) fatal(err error) {
	if w.onFatal != nil {
		w.onFatal(err)
	}
}

// runSession confines a panicking session to its own connection.
func (w *AcceptorWorker) runSession(ctx context.Context, s *session.Session) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrSessionPanic, r)
		}
	}()
	return s.Run(ctx)
}

func nextAcceptDelay(delay time.Duration) time.Duration {
	if delay == 0 {
		return minAcceptDelay
	}
	return min(delay*2, maxAcceptDelay)
}
