package notify

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dreamware/userdir/internal/directory"
)

// ErrDecode is returned when an inbound payload cannot be decoded.
// A decode failure is terminal for that message: nothing from it is applied.
var ErrDecode = errors.New("malformed notification")

// wireEntry is the transport form of an Entry: a tagged object whose
// payload shape depends on the type field.
type wireEntry struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// deletePayload carries just the id for DeleteUser entries
type deletePayload struct {
	ID int64 `json:"id"`
}

// Codec serializes notification batches to a transport-neutral encoding.
// The wire format is a JSON array of {type, payload} objects.
type Codec struct{}

// Encode serializes the batch
func (Codec) Encode(b Batch) ([]byte, error) {
	wire := make([]wireEntry, 0, len(b))
	for _, e := range b {
		var payload any
		switch e.Kind {
		case KindAddUser:
			payload = e.Record()
		case KindDeleteUser:
			payload = deletePayload{ID: e.ID()}
		default:
			return nil, fmt.Errorf("encode: unknown entry kind %q", e.Kind)
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", e.Kind, err)
		}
		wire = append(wire, wireEntry{Type: e.Kind, Payload: raw})
	}
	return json.Marshal(wire)
}

// Decode parses data back into a batch
// Malformed input, an unknown type tag, or a payload that doesn't match
// its tag all return an error wrapping ErrDecode.
func (Codec) Decode(data []byte) (Batch, error) {
	var wire []wireEntry
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	batch := make(Batch, 0, len(wire))
	for i, w := range wire {
		switch w.Type {
		case KindAddUser:
			var u directory.User
			if err := json.Unmarshal(w.Payload, &u); err != nil {
				return nil, fmt.Errorf("%w: entry %d: %v", ErrDecode, i, err)
			}
			batch = append(batch, NewAddEntry(u))
		case KindDeleteUser:
			var p deletePayload
			if err := json.Unmarshal(w.Payload, &p); err != nil {
				return nil, fmt.Errorf("%w: entry %d: %v", ErrDecode, i, err)
			}
			batch = append(batch, NewDeleteEntry(p.ID))
		default:
			return nil, fmt.Errorf("%w: entry %d has unknown type %q", ErrDecode, i, w.Type)
		}
	}
	return batch, nil
}
