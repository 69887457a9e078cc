// Package client speaks the relay protocol from the client side.
//
// A Client is a strict request/response peer: every call sends one frame and
// reads the complete reply before returning. It is not safe for concurrent use.
package client

import (
	"bufio"
	"chat-relay/codec"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"
)

type Client struct {
	log     *slog.Logger
	conn    io.ReadWriteCloser
	in      *bufio.Reader
	timeout time.Duration
}

// Cfg configures a Client.
type Cfg func(*Client)

// WithTimeout bounds each request/response round trip. Only applies to
// connections supporting deadlines.
func WithTimeout(d time.Duration) Cfg {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithLogger(log *slog.Logger) Cfg {
	return func(c *Client) {
		c.log = log
	}
}

// Dial connects to the relay listening on addr over TCP.
func Dial(ctx context.Context, addr string, cfgs ...Cfg) (*Client, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial relay at %s: %w", addr, err)
	}
	return New(conn, cfgs...), nil
}

// New wraps an established connection.
func New(conn io.ReadWriteCloser, cfgs ...Cfg) *Client {
	c := &Client{
		log:  slog.Default(),
		conn: conn,
		in:   bufio.NewReaderSize(conn, codec.HistoryFrameSize),
	}
	for _, cfg := range cfgs {
		cfg(c)
	}
	return c
}

// Register binds the connection to a new user. Registering again rebinds it.
func (c *Client) Register(identity, name string) error {
	if err := c.send(codec.Register(codec.JoinIdentity(identity, name))); err != nil {
		return err
	}
	return c.expectAck()
}

// Send posts one message on behalf of the registered user.
func (c *Client) Send(text string) error {
	if err := c.send(codec.Message(text)); err != nil {
		return err
	}
	return c.expectAck()
}

// History returns every message the relay holds, oldest first.
func (c *Client) History() ([]domain.HistoryEntry, error) {
	if err := c.send(codec.RequestHistory()); err != nil {
		return nil, err
	}
	var entries []domain.HistoryEntry
	for {
		frame, err := c.recv()
		if err != nil {
			return nil, err
		}
		switch frame.Kind {
		case codec.KindHistoryItem:
			entries = append(entries, domain.HistoryEntry{SenderName: frame.Name, Content: frame.Message})
			continue
		case codec.KindHistoryEnd:
			c.log.Debug("History received", "entries", len(entries))
			return entries, c.expectAck()
		default:
			return nil, fmt.Errorf("%w: %s while reading history", errors.ErrUnexpectedFrame, frame.Kind)
		}
	}
}

// Exit tells the relay the session is over then closes the connection.
func (c *Client) Exit() error {
	err := c.send(codec.Exit())
	if closeErr := c.Close(); err == nil {
		err = closeErr
	}
	return err
}

func (c *Client) Close() error {
	err := c.conn.Close()
	if err != nil && errors.IsConnectionClosed(err) {
		return nil
	}
	return err
}

// SendRaw writes an arbitrary client frame, unknown kinds included.
// The relay does not reply to frames it drops.
func (c *Client) SendRaw(frame codec.ClientFrame) error {
	return c.send(frame)
}

func (c *Client) send(frame codec.ClientFrame) error {
	c.armDeadline()
	if err := codec.WriteClientFrame(c.conn, frame); err != nil {
		return fmt.Errorf("send %s: %w", frame.Kind, err)
	}
	c.log.Debug("Frame sent", "frame", frame)
	return nil
}

func (c *Client) recv() (codec.ServerFrame, error) {
	frame, err := codec.ReadServerFrame(c.in)
	if err != nil {
		if errors.IsDecodeError(err) {
			return frame, fmt.Errorf("%w: %w", errors.ErrUnexpectedFrame, err)
		}
		return frame, fmt.Errorf("receive: %w", err)
	}
	return frame, nil
}

func (c *Client) expectAck() error {
	frame, err := c.recv()
	if err != nil {
		return err
	}
	if frame.Kind != codec.KindAck {
		return fmt.Errorf("%w: %s instead of %s", errors.ErrUnexpectedFrame, frame.Kind, codec.KindAck)
	}
	return nil
}

type deadliner interface {
	SetDeadline(t time.Time) error
}

func (c *Client) armDeadline() {
	if c.timeout <= 0 {
		return
	}
	if d, ok := c.conn.(deadliner); ok {
		_ = d.SetDeadline(time.Now().Add(c.timeout))
	}
}
