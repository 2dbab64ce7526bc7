package notify

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dreamware/userdir/internal/directory"
)

// ErrNoReceiver is returned when a sender has no receiver bound
var ErrNoReceiver = errors.New("no receiver bound")

// Handler replays decoded mutations on the receiving side.
// The receiver dispatches each batch entry to exactly one of these
// methods, in batch order.
type Handler interface {
	// OnAdd applies an AddUser entry
	OnAdd(u directory.User) error
	// OnDelete applies a DeleteUser entry
	OnDelete(id int64) error
}

// Receiver is the inbound end of a notification channel. It decodes raw
// bytes and replays every entry against its bound handler.
type Receiver struct {
	codec   Codec
	handler Handler
}

// NewReceiver creates a receiver bound to the given replay handler.
// The binding is fixed for the receiver's lifetime.
func NewReceiver(handler Handler) *Receiver {
	return &Receiver{handler: handler}
}

// Receive decodes data and dispatches each entry in order.
// A decode failure is terminal: it returns an ErrDecode-wrapped error and
// applies nothing. An apply failure stops the replay at that entry;
// already-applied entries stay applied.
func (r *Receiver) Receive(data []byte) error {
	batch, err := r.codec.Decode(data)
	if err != nil {
		return err
	}

	for i, e := range batch {
		var applyErr error
		switch e.Kind {
		case KindAddUser:
			applyErr = r.handler.OnAdd(e.Record())
		case KindDeleteUser:
			applyErr = r.handler.OnDelete(e.ID())
		}
		if applyErr != nil {
			return fmt.Errorf("apply entry %d (%s): %w", i, e.Kind, applyErr)
		}
	}
	return nil
}

// Sender is the outbound end of a notification channel. It encodes a batch
// and delivers it synchronously to the single bound receiver. Fan-out to
// multiple replicas happens above this layer, at the coordinator.
type Sender struct {
	mu       sync.Mutex
	codec    Codec
	receiver *Receiver
}

// NewSender creates a sender with no receiver bound
func NewSender() *Sender {
	return &Sender{}
}

// AddReceiver binds the sender to a receiver, replacing any previous binding
func (s *Sender) AddReceiver(r *Receiver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receiver = r
}

// Send encodes the batch and delivers it to the bound receiver.
// Delivery is synchronous; there is no acknowledgement or retry here.
// Returns ErrNoReceiver if nothing is bound.
func (s *Sender) Send(b Batch) error {
	s.mu.Lock()
	receiver := s.receiver
	s.mu.Unlock()

	if receiver == nil {
		return ErrNoReceiver
	}

	data, err := s.codec.Encode(b)
	if err != nil {
		return err
	}
	return receiver.Receive(data)
}
