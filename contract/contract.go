//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"io"
	"net"
	"reflect"

	"github.com/google/uuid"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Stream is the bidirectional byte stream of one client connection.
// Reads and writes block; Close unblocks both.
type Stream interface {
	io.ReadWriteCloser
}

// Acceptor yields one established Stream per client. How the stream was
// established (TCP, Unix socket, in-process pipe) is not the relay's concern.
type Acceptor interface {
	Accept() (Stream, error)
	Close() error
	Addr() net.Addr
}

// ISessionRegistry tracks the streams of live sessions so that shutdown can
// close them.
type ISessionRegistry interface {
	Track(sessionID uuid.UUID, stream Stream)
	Untrack(sessionID uuid.UUID)
	Len() int
	CloseAll() int
}
