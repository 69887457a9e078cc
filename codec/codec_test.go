package codec

import (
	"bytes"
	"chat-relay/errors"
	"encoding/binary"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestClientFrame_Layout(t *testing.T) {
	req := require.New(t)
	buf := EncodeClientFrame(Message("hello"))

	req.Len(buf, ClientFrameSize)
	req.Equal(uint32(KindMessage), binary.LittleEndian.Uint32(buf[0:4]))
	req.Equal(uint32(len("hello")+1), binary.LittleEndian.Uint32(buf[4:8]))
	req.Equal([]byte("hello"), buf[8:13])
	req.Equal(byte(0), buf[13])
}

func TestClientFrame_EveryKnownKindDecodes(t *testing.T) {
	req := require.New(t)
	frames := []ClientFrame{
		Register("bob@example.com Bob"),
		Message("hello"),
		RequestHistory(),
		Exit(),
	}
	var stream bytes.Buffer
	for _, f := range frames {
		req.NoError(WriteClientFrame(&stream, f))
	}
	for _, want := range frames {
		got, err := ReadClientFrame(&stream)
		req.NoError(err)
		req.Equal(want, got)
	}
	_, err := ReadClientFrame(&stream)
	req.ErrorIs(err, io.EOF)
}

func TestClientFrame_UnknownDiscriminantKeepsStreamAligned(t *testing.T) {
	req := require.New(t)
	var stream bytes.Buffer
	req.NoError(WriteClientFrame(&stream, ClientFrame{Kind: Kind(77), Text: "garbage"}))
	req.NoError(WriteClientFrame(&stream, Message("after")))

	f, err := ReadClientFrame(&stream)
	req.Error(err)
	req.True(errors.IsDecodeError(err))
	req.ErrorIs(err, errors.ErrUnknownFrame)
	req.Equal(Kind(77), f.Kind)

	f, err = ReadClientFrame(&stream)
	req.NoError(err)
	req.Equal(Message("after"), f)
}

func TestClientFrame_ServerKindIsNotAClientFrame(t *testing.T) {
	req := require.New(t)
	_, err := DecodeClientFrame(EncodeClientFrame(ClientFrame{Kind: KindAck}))
	req.True(errors.IsDecodeError(err))
}

func TestClientFrame_PartialFrameIsUnexpectedEOF(t *testing.T) {
	req := require.New(t)
	buf := EncodeClientFrame(Message("cut short"))
	_, err := ReadClientFrame(bytes.NewReader(buf[:100]))
	req.ErrorIs(err, io.ErrUnexpectedEOF)
	req.True(errors.IsConnectionClosed(err))
}

func TestDecodeClientFrame_WrongSize(t *testing.T) {
	_, err := DecodeClientFrame(make([]byte, 10))
	require.Error(t, err)
	require.False(t, errors.IsDecodeError(err))
}

func TestDecodeClientFrame_FieldWithoutTerminator(t *testing.T) {
	req := require.New(t)
	buf := EncodeClientFrame(Message(""))
	copy(buf[8:], bytes.Repeat([]byte("x"), FieldSize))

	f, err := DecodeClientFrame(buf)
	req.NoError(err)
	req.Len(f.Text, FieldSize)
}

func TestTruncate(t *testing.T) {
	req := require.New(t)
	req.Equal("short", Truncate("short"))

	exact := strings.Repeat("a", FieldSize-1)
	req.Equal(exact, Truncate(exact))

	long := strings.Repeat("b", FieldSize+40)
	req.Len(Truncate(long), FieldSize-1)

	// 254 ASCII bytes then a 3-byte rune straddling the limit.
	straddle := strings.Repeat("c", FieldSize-2) + "€"
	cut := Truncate(straddle)
	req.True(utf8.ValidString(cut))
	req.Equal(strings.Repeat("c", FieldSize-2), cut)
}

func TestTruncate_InvalidUTF8IsCutAtCapacity(t *testing.T) {
	req := require.New(t)

	// Given only continuation bytes, no rune start to back off to
	continuation := strings.Repeat("\x80", 300)
	req.Len(Truncate(continuation), FieldSize-1)

	// Given a rune start byte whose rune is incomplete at the limit
	broken := strings.Repeat("d", FieldSize-2) + "\xe2\x28\xa1"
	req.Len(Truncate(broken), FieldSize-1)

	// Then a MESSAGE carrying it keeps its capacity on the wire
	f, err := DecodeClientFrame(EncodeClientFrame(Message(continuation)))
	req.NoError(err)
	req.Len(f.Text, FieldSize-1)
}

func TestTruncate_RuneEndingAtLimitIsKept(t *testing.T) {
	// 253 ASCII bytes then a 2-byte rune filling the field exactly
	s := strings.Repeat("e", FieldSize-3) + "é" + "tail"
	require.Equal(t, strings.Repeat("e", FieldSize-3)+"é", Truncate(s))
}

func TestClientFrame_LongTextIsTruncatedNotRejected(t *testing.T) {
	req := require.New(t)
	long := strings.Repeat("z", 1000)
	f, err := DecodeClientFrame(EncodeClientFrame(Message(long)))
	req.NoError(err)
	req.Equal(long[:FieldSize-1], f.Text)
}

func TestServerFrame_Sizes(t *testing.T) {
	req := require.New(t)
	ack, err := EncodeServerFrame(Ack())
	req.NoError(err)
	req.Len(ack, AckFrameSize)

	item, err := EncodeServerFrame(HistoryItem("Bob", "hello"))
	req.NoError(err)
	req.Len(item, HistoryFrameSize)
	req.Equal(uint32(KindHistoryItem), binary.LittleEndian.Uint32(item[0:4]))

	_, err = EncodeServerFrame(ServerFrame{Kind: KindMessage})
	req.ErrorIs(err, errors.ErrUnexpectedFrame)
}

func TestServerFrame_HistoryStreamReadsBack(t *testing.T) {
	req := require.New(t)
	frames := []ServerFrame{
		HistoryItem("Bob", "hello"),
		HistoryItem("Alice", strings.Repeat("y", 300)),
		HistoryEnd(),
		Ack(),
	}
	var stream bytes.Buffer
	for _, f := range frames {
		req.NoError(WriteServerFrame(&stream, f))
	}

	got, err := ReadServerFrame(&stream)
	req.NoError(err)
	req.Equal(HistoryItem("Bob", "hello"), got)

	got, err = ReadServerFrame(&stream)
	req.NoError(err)
	req.Equal("Alice", got.Name)
	req.Len(got.Message, FieldSize-1)

	got, err = ReadServerFrame(&stream)
	req.NoError(err)
	req.Equal(KindHistoryEnd, got.Kind)
	req.Equal(HistoryEndMarker, got.Message)
	req.Empty(got.Name)

	got, err = ReadServerFrame(&stream)
	req.NoError(err)
	req.Equal(Ack(), got)
}

func TestReadServerFrame_UnknownDiscriminant(t *testing.T) {
	req := require.New(t)
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf, 5)
	f, err := ReadServerFrame(bytes.NewReader(buf))
	req.True(errors.IsDecodeError(err))
	req.Equal(Kind(5), f.Kind)
}

func TestKind_String(t *testing.T) {
	require.Equal(t, "REQUEST_HISTORY", KindRequestHistory.String())
	require.Equal(t, "UNKNOWN(-3)", Kind(-3).String())
}
