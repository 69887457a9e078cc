package workers

import (
	"chat-relay/codec"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/observability"
	"chat-relay/repositories"
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type pipeAddr struct{}

func (pipeAddr) Network() string { return "pipe" }
func (pipeAddr) String() string  { return "pipe" }

// pipeAcceptor hands out the server ends of in-process pipes.
type pipeAcceptor struct {
	conns  chan net.Conn
	errs   chan error
	closed chan struct{}
	once   sync.Once
}

func newPipeAcceptor() *pipeAcceptor {
	return &pipeAcceptor{
		conns:  make(chan net.Conn),
		errs:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (a *pipeAcceptor) Accept() (contract.Stream, error) {
	select {
	case err := <-a.errs:
		return nil, err
	case conn := <-a.conns:
		return conn, nil
	case <-a.closed:
		return nil, net.ErrClosed
	}
}

func (a *pipeAcceptor) Close() error {
	a.once.Do(func() { close(a.closed) })
	return nil
}

func (a *pipeAcceptor) Addr() net.Addr { return pipeAddr{} }

func (a *pipeAcceptor) dial(t *testing.T) net.Conn {
	t.Helper()
	server, client := net.Pipe()
	select {
	case a.conns <- server:
	case <-time.After(time.Second):
		require.FailNow(t, "acceptor did not accept")
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func register(t *testing.T, conn net.Conn, text string) codec.ServerFrame {
	t.Helper()
	require.NoError(t, conn.SetDeadline(time.Now().Add(time.Second)))
	require.NoError(t, codec.WriteClientFrame(conn, codec.Register(text)))
	frame, err := codec.ReadServerFrame(conn)
	require.NoError(t, err)
	return frame
}

type acceptorRun struct {
	worker *AcceptorWorker
	cancel context.CancelFunc
	done   chan error
	once   sync.Once
	err    error
}

func startAcceptor(t *testing.T, acceptor contract.Acceptor, repository repositories.IRelayRepository,
	registry contract.ISessionRegistry, monitor *observability.RelayMonitor, onFatal func(error)) *acceptorRun {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	w := NewAcceptorWorker(log, acceptor, repository, registry, monitor, 0, onFatal)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	run := &acceptorRun{worker: w, cancel: cancel, done: done}
	t.Cleanup(run.stop)
	return run
}

// stop cancels the worker and waits for it and its sessions.
func (r *acceptorRun) stop() {
	r.once.Do(func() {
		r.cancel()
		r.err = <-r.done
		r.worker.Wait()
	})
}

func TestAcceptorWorker_ServesSessions(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockISessionRegistry(ctrl)
	monitor := observability.NewRelayMonitor()

	// Given every session is tracked then untracked exactly once
	registry.EXPECT().Track(gomock.Any(), gomock.Any()).Times(2)
	untracked := make(chan uuid.UUID, 2)
	registry.EXPECT().Untrack(gomock.Any()).Do(func(id uuid.UUID) { untracked <- id }).Times(2)

	acceptor := newPipeAcceptor()
	run := startAcceptor(t, acceptor, repositories.NewMemoryRepository(), registry, monitor, nil)

	// When two clients register then leave
	for _, text := range []string{"a@x Alice", "b@x Bob"} {
		conn := acceptor.dial(t)
		req.Equal(codec.KindAck, register(t, conn, text).Kind)
		req.NoError(codec.WriteClientFrame(conn, codec.Exit()))
	}
	for range 2 {
		select {
		case <-untracked:
		case <-time.After(time.Second):
			req.FailNow("session was not untracked")
		}
	}

	// Then the worker stops cleanly on cancellation
	run.stop()
	req.NoError(run.err)
	stats := monitor.Stats(0, 0)
	req.Equal(uint64(2), stats.TotalSessions)
	req.Equal(int64(0), stats.ActiveSessions)
}

func TestAcceptorWorker_RepositoryFailureIsFatal(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	repository := mocks.NewMockIRelayRepository(ctrl)
	registry := mocks.NewMockISessionRegistry(ctrl)
	registry.EXPECT().Track(gomock.Any(), gomock.Any()).AnyTimes()
	registry.EXPECT().Untrack(gomock.Any()).AnyTimes()

	// Given a repository that cannot be reached
	repository.EXPECT().RegisterUser(gomock.Any()).
		Return(domain.User{}, fmt.Errorf("register: %w: %w", errors.ErrRepositoryUnavailable, errors.New("disk gone")))

	fatal := make(chan error, 1)
	acceptor := newPipeAcceptor()
	startAcceptor(t, acceptor, repository, registry, observability.NewRelayMonitor(), func(err error) { fatal <- err })

	// When a client registers
	conn := acceptor.dial(t)
	req.NoError(conn.SetDeadline(time.Now().Add(time.Second)))
	req.NoError(codec.WriteClientFrame(conn, codec.Register("a@x Alice")))

	// Then the fatal hook is called with the repository error
	select {
	case err := <-fatal:
		req.ErrorIs(err, errors.ErrRepositoryUnavailable)
	case <-time.After(time.Second):
		req.FailNow("fatal hook was not called")
	}
}

func TestAcceptorWorker_SessionPanicIsContained(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	repository := mocks.NewMockIRelayRepository(ctrl)
	registry := mocks.NewMockISessionRegistry(ctrl)
	registry.EXPECT().Track(gomock.Any(), gomock.Any()).AnyTimes()
	registry.EXPECT().Untrack(gomock.Any()).AnyTimes()
	monitor := observability.NewRelayMonitor()

	// Given a repository panicking on the first registration only
	gomock.InOrder(
		repository.EXPECT().RegisterUser(gomock.Any()).DoAndReturn(func(domain.Identity) (domain.User, error) {
			panic("boom")
		}),
		repository.EXPECT().RegisterUser(gomock.Any()).Return(domain.User{ID: uuid.New(), Identity: "b@x", Name: "Bob"}, nil),
	)

	fatal := make(chan error, 1)
	acceptor := newPipeAcceptor()
	startAcceptor(t, acceptor, repository, registry, monitor, func(err error) { fatal <- err })

	// When the first session panics
	first := acceptor.dial(t)
	req.NoError(first.SetDeadline(time.Now().Add(time.Second)))
	req.NoError(codec.WriteClientFrame(first, codec.Register("a@x Alice")))
	_, err := codec.ReadServerFrame(first)
	req.True(errors.IsConnectionClosed(err))

	// Then its connection is closed and the next client is still served
	second := acceptor.dial(t)
	req.Equal(codec.KindAck, register(t, second, "b@x Bob").Kind)
	req.Eventually(func() bool { return monitor.Stats(0, 0).SessionFailures == 1 }, time.Second, 5*time.Millisecond)
	req.Empty(fatal)
}

func TestAcceptorWorker_RetriesTransientAcceptErrors(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockISessionRegistry(ctrl)
	registry.EXPECT().Track(gomock.Any(), gomock.Any()).AnyTimes()
	registry.EXPECT().Untrack(gomock.Any()).AnyTimes()

	// Given an acceptor failing once
	acceptor := newPipeAcceptor()
	acceptor.errs <- errors.New("too many open files")
	startAcceptor(t, acceptor, repositories.NewMemoryRepository(), registry, nil, nil)

	// Then the following connection is still accepted
	conn := acceptor.dial(t)
	req.Equal(codec.KindAck, register(t, conn, "a@x Alice").Kind)
}

func TestNextAcceptDelay(t *testing.T) {
	req := require.New(t)
	req.Equal(minAcceptDelay, nextAcceptDelay(0))
	req.Equal(2*minAcceptDelay, nextAcceptDelay(minAcceptDelay))
	req.Equal(maxAcceptDelay, nextAcceptDelay(maxAcceptDelay))
}

func TestAcceptorWorker_ClosedAcceptorIsFatal(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockISessionRegistry(ctrl)

	fatal := make(chan error, 1)
	acceptor := newPipeAcceptor()
	run := startAcceptor(t, acceptor, repositories.NewMemoryRepository(), registry, nil, func(err error) { fatal <- err })

	// When the acceptor is closed while the worker is still supposed to run
	req.NoError(acceptor.Close())

	// Then the worker ends and reports it
	select {
	case err := <-fatal:
		req.ErrorIs(err, errors.ErrAcceptorClosed)
	case <-time.After(time.Second):
		req.FailNow("fatal hook was not called")
	}
	req.NoError(<-run.done)
	run.done <- nil
}
