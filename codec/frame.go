// Package codec implements the relay wire protocol.
//
// Every frame is a fixed-layout binary record: a 4-byte little-endian
// discriminant followed by fixed-capacity string fields. String fields hold
// FieldSize bytes, NUL-terminated inside the buffer, so at most FieldSize-1
// bytes of content survive; longer strings are truncated, never rejected.
//
// Client frames all share one layout (discriminant, length, text) and one
// size, ClientFrameSize. This lets the server consume a frame whose
// discriminant it does not know and stay aligned on the next one.
//
// Server frames are sized by kind: ACK carries no payload, HISTORY_ITEM and
// HISTORY_END carry a name field and a message field.
package codec

import (
	"fmt"
	"log/slog"
)

// Kind is the frame discriminant.
type Kind int32

const (
	KindRegister       Kind = 1
	KindMessage        Kind = 2
	KindRequestHistory Kind = 3
	KindExit           Kind = 99
	KindAck            Kind = 200
	KindHistoryItem    Kind = 201
	KindHistoryEnd     Kind = 202
)

const (
	// FieldSize is the capacity of a string field, terminator included.
	FieldSize = 256
	// HeaderSize is the size of the discriminant.
	HeaderSize = 4

	ClientFrameSize  = HeaderSize + 4 + FieldSize
	AckFrameSize     = HeaderSize
	HistoryFrameSize = HeaderSize + 2*FieldSize

	// HistoryEndMarker fills the message field of HISTORY_END so that
	// clients keying on the text, rather than the discriminant, still stop.
	HistoryEndMarker = "END_OF_MESSAGES"
)

func (k Kind) String() string {
	switch k {
	case KindRegister:
		return "REGISTER"
	case KindMessage:
		return "MESSAGE"
	case KindRequestHistory:
		return "REQUEST_HISTORY"
	case KindExit:
		return "EXIT"
	case KindAck:
		return "ACK"
	case KindHistoryItem:
		return "HISTORY_ITEM"
	case KindHistoryEnd:
		return "HISTORY_END"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(k))
	}
}

// IsClient reports whether k is a frame a client may send.
func (k Kind) IsClient() bool {
	switch k {
	case KindRegister, KindMessage, KindRequestHistory, KindExit:
		return true
	}
	return false
}

// ClientFrame is a decoded client-to-server frame.
type ClientFrame struct {
	Kind Kind
	Text string
}

// LogValue keeps message content out of the logs.
func (f ClientFrame) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", f.Kind.String()),
		slog.Int("len", len(f.Text)),
	)
}

// ServerFrame is a server-to-client frame.
type ServerFrame struct {
	Kind    Kind
	Name    string
	Message string
}

func (f ServerFrame) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", f.Kind.String()),
		slog.Int("len", len(f.Message)),
	)
}

func Register(text string) ClientFrame {
	return ClientFrame{Kind: KindRegister, Text: text}
}

func Message(text string) ClientFrame {
	return ClientFrame{Kind: KindMessage, Text: text}
}

func RequestHistory() ClientFrame {
	return ClientFrame{Kind: KindRequestHistory}
}

func Exit() ClientFrame {
	return ClientFrame{Kind: KindExit}
}

func Ack() ServerFrame {
	return ServerFrame{Kind: KindAck}
}

func HistoryItem(name, message string) ServerFrame {
	return ServerFrame{Kind: KindHistoryItem, Name: name, Message: message}
}

func HistoryEnd() ServerFrame {
	return ServerFrame{Kind: KindHistoryEnd, Message: HistoryEndMarker}
}
