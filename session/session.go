// Package session drives one client connection through the relay protocol.
//
// A Session owns its stream exclusively: it is the only reader and the only
// writer. It decodes one client frame at a time, dispatches it according to
// its current state and replies before reading the next frame. The shared
// repository is the only state it has in common with other sessions.
//
// Error handling:
//   - an unknown discriminant is logged and the frame dropped;
//   - EXIT, peer close and receive/send failures terminate the session;
//   - errors.ErrInvalidSender terminates the session and is returned;
//   - errors.ErrRepositoryUnavailable terminates the session and is returned
//     so that the caller can stop the whole relay.
//
// The stream is closed on every path out of Run.
package session

import (
	"bufio"
	"chat-relay/codec"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/repositories"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// readDeadliner is implemented by net.Conn.
type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

type Session struct {
	ID         uuid.UUID
	log        *slog.Logger
	stream     contract.Stream
	out        *bufio.Writer
	repository repositories.IRelayRepository
	monitor    *observability.RelayMonitor

	idleTimeout time.Duration

	state     atomic.Int32
	user      domain.User // bound user, owned by the repository
	closeOnce sync.Once
}

// Cfg configures a Session.
type Cfg func(*Session)

// WithIdleTimeout closes the session when no frame arrives for d.
// It only applies to streams that support read deadlines.
func WithIdleTimeout(d time.Duration) Cfg {
	return func(s *Session) {
		s.idleTimeout = d
	}
}

func WithMonitor(monitor *observability.RelayMonitor) Cfg {
	return func(s *Session) {
		s.monitor = monitor
	}
}

func NewSession(log *slog.Logger, stream contract.Stream, repository repositories.IRelayRepository, cfgs ...Cfg) *Session {
	s := &Session{
		ID:         uuid.New(),
		stream:     stream,
		out:        bufio.NewWriter(stream),
		repository: repository,
	}
	for _, cfg := range cfgs {
		cfg(s)
	}
	s.log = log.With("session_id", s.ID.String())
	return s
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// User returns the user currently bound to the session, zero if none.
// Only meaningful once Run has returned or from the session goroutine.
func (s *Session) User() domain.User {
	return s.user
}

// Run serves the connection until EXIT, disconnect, a fatal error or
// cancellation of ctx. A clean end of session returns nil.
func (s *Session) Run(ctx context.Context) error {
	defer s.terminate()
	// Cancelling ctx closes the stream, which unblocks the pending read.
	stop := context.AfterFunc(ctx, s.close)
	defer stop()

	s.log.Info("Session started")
	for s.State() != Terminated {
		if err := s.armIdleTimeout(); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}
		frame, err := codec.ReadClientFrame(s.stream)
		if err != nil {
			if errors.IsDecodeError(err) {
				s.monitor.IncrDecodeErrors()
				s.log.Warn("Dropping frame", "error", err, "state", s.State())
				continue
			}
			if errors.IsConnectionClosed(err) || ctx.Err() != nil {
				s.log.Info("Connection closed", "reason", err, "state", s.State())
				return nil
			}
			return fmt.Errorf("receive frame: %w", err)
		}
		s.monitor.IncrFramesReceived()
		s.log.Debug("Frame received", "frame", frame, "state", s.State())

		if err := s.handle(frame); err != nil {
			var sendErr *sendError
			if errors.As(err, &sendErr) && errors.IsConnectionClosed(sendErr) {
				s.log.Info("Connection closed while replying", "reason", err)
				return nil
			}
			return err
		}
	}
	return nil
}

func (s *Session) handle(frame codec.ClientFrame) error {
	switch {
	case frame.Kind == codec.KindExit:
		s.log.Info("Client requested exit")
		s.setState(Terminated)
		return nil
	case frame.Kind == codec.KindRegister:
		return s.register(frame.Text)
	case s.State() == Unregistered:
		s.monitor.IncrRejected()
		s.log.Warn("Ignoring frame", "error", errors.ErrNotRegistered, "frame", frame)
		return nil
	case frame.Kind == codec.KindMessage:
		return s.postMessage(frame.Text)
	case frame.Kind == codec.KindRequestHistory:
		return s.sendHistory()
	}
	return nil
}

// register binds a new user. A registered session registering again gets a
// second user and is rebound to it; the first user stays in the directory.
func (s *Session) register(text string) error {
	identity := codec.SplitIdentity(text)
	user, err := s.repository.RegisterUser(identity)
	if err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	if s.State() == Registered {
		s.log.Info("Session re-registered", "previous_user_id", s.user.ID.String(), "user_id", user.ID.String())
	}
	s.user = user
	s.setState(Registered)
	s.log.Info("Client registered", "user_id", user.ID.String(), "identity", user.Identity, "name", user.Name)
	return s.reply(codec.Ack())
}

func (s *Session) postMessage(content string) error {
	message, err := s.repository.PostMessage(s.user, content)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidSender) {
			s.log.Error("Bound user is unknown to the repository", "user_id", s.user.ID.String())
		}
		return fmt.Errorf("post message: %w", err)
	}
	s.log.Debug("Message posted", "message_id", message.ID.String())
	return s.reply(codec.Ack())
}

func (s *Session) sendHistory() error {
	s.monitor.IncrHistoryRequests()
	history, err := s.repository.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	frames := make([]codec.ServerFrame, 0, len(history)+2)
	for _, entry := range history {
		frames = append(frames, codec.HistoryItem(entry.SenderName, entry.Content))
	}
	frames = append(frames, codec.HistoryEnd(), codec.Ack())
	s.log.Debug("Sending history", "entries", len(history))
	return s.reply(frames...)
}

// sendError marks a failure to write to the peer, as opposed to a
// repository failure that happens to wrap an I/O error.
type sendError struct {
	err error
}

func (e *sendError) Error() string { return e.err.Error() }

func (e *sendError) Unwrap() error { return e.err }

// reply writes frames then flushes them in one go.
func (s *Session) reply(frames ...codec.ServerFrame) error {
	for _, frame := range frames {
		if err := codec.WriteServerFrame(s.out, frame); err != nil {
			return &sendError{err: fmt.Errorf("send %s: %w", frame.Kind, err)}
		}
	}
	if err := s.out.Flush(); err != nil {
		return &sendError{err: fmt.Errorf("flush reply: %w", err)}
	}
	if n := len(frames); n > 0 && frames[n-1].Kind == codec.KindAck {
		s.monitor.IncrAcks()
	}
	return nil
}

func (s *Session) armIdleTimeout() error {
	if s.idleTimeout <= 0 {
		return nil
	}
	d, ok := s.stream.(readDeadliner)
	if !ok {
		return nil
	}
	return d.SetReadDeadline(time.Now().Add(s.idleTimeout))
}

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
}

func (s *Session) terminate() {
	s.setState(Terminated)
	s.close()
	s.log.Info("Session terminated")
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		if err := s.stream.Close(); err != nil && !errors.IsConnectionClosed(err) {
			s.log.Warn("Closing stream failed", "error", err)
		}
	})
}
