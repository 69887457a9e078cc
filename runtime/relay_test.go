package runtime

import (
	"chat-relay/codec"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/repositories"
	"context"
	"fmt"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func startRelay(t *testing.T, repository repositories.IRelayRepository, cfgs ...Cfg) *Relay {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	relay := NewRelay(log, NewListenerAcceptor(listener), repository, cfgs...)
	require.NoError(t, relay.Start(context.Background()))
	t.Cleanup(relay.Stop)
	return relay
}

func dial(t *testing.T, relay *Relay) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", relay.Addr(), time.Second)
	require.NoError(t, err)
	require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func exchange(t *testing.T, conn net.Conn, frame codec.ClientFrame) codec.ServerFrame {
	t.Helper()
	require.NoError(t, codec.WriteClientFrame(conn, frame))
	reply, err := codec.ReadServerFrame(conn)
	require.NoError(t, err)
	return reply
}

func TestRelay_ServesClientsOverTCP(t *testing.T) {
	req := require.New(t)
	repository := repositories.NewMemoryRepository()
	relay := startRelay(t, repository, WithHeartbeat(10*time.Millisecond))

	// Given a registered client posting a message
	conn := dial(t, relay)
	req.Equal(codec.KindAck, exchange(t, conn, codec.Register("alice@x.org Alice")).Kind)
	req.Equal(codec.KindAck, exchange(t, conn, codec.Message("hello")).Kind)

	// When it asks for the history
	req.Equal(codec.HistoryItem("Alice", "hello"), exchange(t, conn, codec.RequestHistory()))
	end, err := codec.ReadServerFrame(conn)
	req.NoError(err)
	req.Equal(codec.KindHistoryEnd, end.Kind)
	ack, err := codec.ReadServerFrame(conn)
	req.NoError(err)
	req.Equal(codec.KindAck, ack.Kind)
	req.Equal(1, relay.Sessions())

	// Then a clean stop reports no error
	relay.Stop()
	req.NoError(relay.Err())
	req.Zero(relay.Sessions())
	stats := relay.Stats()
	req.Equal(1, stats.Users)
	req.Equal(1, stats.Messages)
	req.Equal(uint64(1), stats.TotalSessions)
}

func TestRelay_StopClosesLiveSessions(t *testing.T) {
	req := require.New(t)
	relay := startRelay(t, repositories.NewMemoryRepository())

	// Given an idle registered client
	conn := dial(t, relay)
	req.Equal(codec.KindAck, exchange(t, conn, codec.Register("bob@x.org Bob")).Kind)

	// When the relay stops
	relay.Stop()

	// Then the client sees its connection closed
	_, err := codec.ReadServerFrame(conn)
	req.True(errors.IsConnectionClosed(err), "got %v", err)
	select {
	case <-relay.Done():
	default:
		req.Fail("Done should be closed after Stop")
	}
}

func TestRelay_RepositoryFailureStopsRelay(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	repository := mocks.NewMockIRelayRepository(ctrl)
	repository.EXPECT().Counts().Return(0, 0).AnyTimes()

	// Given a repository that became unreachable
	repository.EXPECT().RegisterUser(gomock.Any()).
		Return(domain.User{}, fmt.Errorf("register user: %w: %w", errors.ErrRepositoryUnavailable, errors.New("closed")))

	relay := startRelay(t, repository)

	// Given a second client connected before the failure
	bystander := dial(t, relay)
	conn := dial(t, relay)
	req.NoError(codec.WriteClientFrame(conn, codec.Register("carol@x.org Carol")))

	// Then the whole relay stops and reports the failure
	select {
	case <-relay.Done():
	case <-time.After(2 * time.Second):
		req.FailNow("relay did not stop")
	}
	req.ErrorIs(relay.Err(), errors.ErrRepositoryUnavailable)
	_, err := codec.ReadServerFrame(bystander)
	req.True(errors.IsConnectionClosed(err), "got %v", err)
}

func TestRelay_IdleTimeout(t *testing.T) {
	req := require.New(t)
	relay := startRelay(t, repositories.NewMemoryRepository(), WithIdleTimeout(50*time.Millisecond))

	// Given a client that never sends anything
	conn := dial(t, relay)

	// Then the relay drops it
	_, err := codec.ReadServerFrame(conn)
	req.True(errors.IsConnectionClosed(err), "got %v", err)
	req.Eventually(func() bool { return relay.Sessions() == 0 }, time.Second, 10*time.Millisecond)
	req.NoError(relay.Err())
}

func TestRelay_StartTwice(t *testing.T) {
	req := require.New(t)
	relay := startRelay(t, repositories.NewMemoryRepository())
	req.ErrorIs(relay.Start(context.Background()), ErrAlreadyStarted)
}

func TestRelay_StopBeforeStart(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	relay := NewRelay(slog.Default(), NewListenerAcceptor(listener), repositories.NewMemoryRepository())

	// Then stopping a relay that never started returns immediately
	relay.Stop()
	require.NoError(t, relay.Err())
}
