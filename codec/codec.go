package codec

import (
	"bytes"
	"chat-relay/errors"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"
)

var byteOrder = binary.LittleEndian

// EncodeClientFrame lays f out in a ClientFrameSize buffer. The discriminant
// is written as is, known or not.
func EncodeClientFrame(f ClientFrame) []byte {
	buf := make([]byte, ClientFrameSize)
	text := Truncate(f.Text)
	byteOrder.PutUint32(buf[0:HeaderSize], uint32(f.Kind))
	byteOrder.PutUint32(buf[HeaderSize:HeaderSize+4], uint32(len(text)+1))
	copy(buf[HeaderSize+4:], text)
	return buf
}

// DecodeClientFrame decodes one full client frame. An unknown discriminant
// returns the frame kind alongside a *errors.DecodeError.
func DecodeClientFrame(buf []byte) (ClientFrame, error) {
	if len(buf) != ClientFrameSize {
		return ClientFrame{}, fmt.Errorf("decode client frame: got %d bytes, want %d", len(buf), ClientFrameSize)
	}
	kind := Kind(int32(byteOrder.Uint32(buf[0:HeaderSize])))
	if !kind.IsClient() {
		return ClientFrame{Kind: kind}, &errors.DecodeError{Discriminant: int32(kind)}
	}
	return ClientFrame{
		Kind: kind,
		Text: readField(buf[HeaderSize+4:]),
	}, nil
}

// ReadClientFrame blocks until one full client frame has been read.
// I/O errors are returned untouched, so io.EOF means the peer closed cleanly
// between frames and io.ErrUnexpectedEOF means it closed mid-frame.
func ReadClientFrame(r io.Reader) (ClientFrame, error) {
	buf := make([]byte, ClientFrameSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return ClientFrame{}, err
	}
	return DecodeClientFrame(buf)
}

func WriteClientFrame(w io.Writer, f ClientFrame) error {
	_, err := w.Write(EncodeClientFrame(f))
	return err
}

// EncodeServerFrame lays f out in the buffer size of its kind.
func EncodeServerFrame(f ServerFrame) ([]byte, error) {
	switch f.Kind {
	case KindAck:
		buf := make([]byte, AckFrameSize)
		byteOrder.PutUint32(buf, uint32(f.Kind))
		return buf, nil
	case KindHistoryItem, KindHistoryEnd:
		buf := make([]byte, HistoryFrameSize)
		byteOrder.PutUint32(buf[0:HeaderSize], uint32(f.Kind))
		copy(buf[HeaderSize:HeaderSize+FieldSize], Truncate(f.Name))
		copy(buf[HeaderSize+FieldSize:], Truncate(f.Message))
		return buf, nil
	default:
		return nil, fmt.Errorf("encode server frame %s: %w", f.Kind, errors.ErrUnexpectedFrame)
	}
}

// ReadServerFrame reads a discriminant then the body sized for it.
// An unknown discriminant leaves the stream misaligned, so callers should
// treat the returned DecodeError as fatal.
func ReadServerFrame(r io.Reader) (ServerFrame, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return ServerFrame{}, err
	}
	kind := Kind(int32(byteOrder.Uint32(header)))
	switch kind {
	case KindAck:
		return ServerFrame{Kind: kind}, nil
	case KindHistoryItem, KindHistoryEnd:
		body := make([]byte, HistoryFrameSize-HeaderSize)
		if _, err := io.ReadFull(r, body); err != nil {
			return ServerFrame{}, err
		}
		return ServerFrame{
			Kind:    kind,
			Name:    readField(body[:FieldSize]),
			Message: readField(body[FieldSize:]),
		}, nil
	default:
		return ServerFrame{Kind: kind}, &errors.DecodeError{Discriminant: int32(kind)}
	}
}

func WriteServerFrame(w io.Writer, f ServerFrame) error {
	buf, err := EncodeServerFrame(f)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// Truncate cuts s so that it fits a string field with its terminator.
// When the cut would split a valid multi-byte rune, it backs off to the start
// of that rune; invalid UTF-8 is cut at exactly FieldSize-1 bytes.
func Truncate(s string) string {
	limit := FieldSize - 1
	if len(s) <= limit {
		return s
	}
	for start := limit; start > limit-utf8.UTFMax && start > 0; start-- {
		if !utf8.RuneStart(s[start]) {
			continue
		}
		r, size := utf8.DecodeRuneInString(s[start:])
		if r != utf8.RuneError && start+size > limit && start < limit {
			return s[:start]
		}
		break
	}
	return s[:limit]
}

// readField returns the bytes before the first NUL, or the whole field
// when no terminator is present.
func readField(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}
