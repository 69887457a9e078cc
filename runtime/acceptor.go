package runtime

import (
	"chat-relay/contract"
	"net"
)

var _ contract.Acceptor = (*ListenerAcceptor)(nil)

// ListenerAcceptor adapts a net.Listener (TCP or Unix socket) to contract.Acceptor.
type ListenerAcceptor struct {
	listener net.Listener
}

func NewListenerAcceptor(listener net.Listener) *ListenerAcceptor {
	return &ListenerAcceptor{listener: listener}
}

func (a *ListenerAcceptor) Accept() (contract.Stream, error) {
	conn, err := a.listener.Accept()
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (a *ListenerAcceptor) Close() error {
	return a.listener.Close()
}

func (a *ListenerAcceptor) Addr() net.Addr {
	return a.listener.Addr()
}
