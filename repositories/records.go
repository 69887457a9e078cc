package repositories

import (
	"chat-relay/domain"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

// Stored records use the protobuf wire format, field numbers below.
const (
	userFieldID        protowire.Number = 1
	userFieldIdentity  protowire.Number = 2
	userFieldName      protowire.Number = 3
	userFieldCreatedAt protowire.Number = 4

	messageFieldID        protowire.Number = 1
	messageFieldSenderID  protowire.Number = 2
	messageFieldContent   protowire.Number = 3
	messageFieldCreatedAt protowire.Number = 4
)

func encodeUser(u domain.User) []byte {
	var b []byte
	b = protowire.AppendTag(b, userFieldID, protowire.BytesType)
	b = protowire.AppendBytes(b, u.ID[:])
	b = protowire.AppendTag(b, userFieldIdentity, protowire.BytesType)
	b = protowire.AppendString(b, u.Identity)
	b = protowire.AppendTag(b, userFieldName, protowire.BytesType)
	b = protowire.AppendString(b, u.Name)
	b = protowire.AppendTag(b, userFieldCreatedAt, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(u.CreatedAt.UnixNano()))
	return b
}

func decodeUser(b []byte) (domain.User, error) {
	var u domain.User
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == userFieldID && typ == protowire.BytesType:
			return consumeUUID(b, &u.ID)
		case num == userFieldIdentity && typ == protowire.BytesType:
			return consumeString(b, &u.Identity)
		case num == userFieldName && typ == protowire.BytesType:
			return consumeString(b, &u.Name)
		case num == userFieldCreatedAt && typ == protowire.VarintType:
			return consumeTime(b, &u.CreatedAt)
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return u, err
}

func encodeMessage(m domain.Message) []byte {
	var b []byte
	b = protowire.AppendTag(b, messageFieldID, protowire.BytesType)
	b = protowire.AppendBytes(b, m.ID[:])
	b = protowire.AppendTag(b, messageFieldSenderID, protowire.BytesType)
	b = protowire.AppendBytes(b, m.SenderID[:])
	b = protowire.AppendTag(b, messageFieldContent, protowire.BytesType)
	b = protowire.AppendString(b, m.Content)
	b = protowire.AppendTag(b, messageFieldCreatedAt, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.CreatedAt.UnixNano()))
	return b
}

func decodeMessage(b []byte) (domain.Message, error) {
	var m domain.Message
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == messageFieldID && typ == protowire.BytesType:
			return consumeUUID(b, &m.ID)
		case num == messageFieldSenderID && typ == protowire.BytesType:
			return consumeUUID(b, &m.SenderID)
		case num == messageFieldContent && typ == protowire.BytesType:
			return consumeString(b, &m.Content)
		case num == messageFieldCreatedAt && typ == protowire.VarintType:
			return consumeTime(b, &m.CreatedAt)
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return m, err
}

// walkFields calls fn with the remaining bytes after each tag. fn returns
// how many bytes the field value used, negative on a wire error.
// Unknown fields are skipped by the callers through ConsumeFieldValue.
func walkFields(b []byte, fn func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		n, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}

func consumeUUID(b []byte, dst *uuid.UUID) (int, error) {
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n, nil
	}
	id, err := uuid.FromBytes(v)
	if err != nil {
		return 0, err
	}
	*dst = id
	return n, nil
}

func consumeString(b []byte, dst *string) (int, error) {
	v, n := protowire.ConsumeString(b)
	if n < 0 {
		return n, nil
	}
	*dst = v
	return n, nil
}

func consumeTime(b []byte, dst *time.Time) (int, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return n, nil
	}
	*dst = time.Unix(0, int64(v)).UTC()
	return n, nil
}
