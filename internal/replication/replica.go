package replication

import (
	"errors"

	"go.uber.org/zap"

	"github.com/dreamware/userdir/internal/directory"
	"github.com/dreamware/userdir/internal/notify"
)

// ErrUnsupportedOperation is returned when a replica receives a mutation
// from anything other than the replication path. Replicas mirror the
// master and must never accept writes from ordinary callers.
var ErrUnsupportedOperation = errors.New("replica does not accept direct mutations")

// Replica mirrors the master's store. Its public Add/Remove surface
// rejects every call; the only sanctioned mutation paths are the
// coordinator's in-process fan-out and the notification receiver built
// together with the replica. Both reach the package-private apply
// methods, which ordinary callers cannot.
type Replica struct {
	name     string
	store    directory.Store
	receiver *notify.Receiver
	logger   *zap.Logger
}

// NewReplica creates a replica over the given store and binds its
// notification receiver. The receiver's replay handler is the only object
// holding the mutation capability, and it never leaves this package.
func NewReplica(name string, store directory.Store, logger *zap.Logger) *Replica {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Replica{
		name:   name,
		store:  store,
		logger: logger,
	}
	r.receiver = notify.NewReceiver(replayHandler{r})
	return r
}

// Name returns the replica's identity
func (r *Replica) Name() string {
	return r.name
}

// Receiver returns the inbound end of the replica's notification channel,
// for a transport to feed encoded batches into.
func (r *Replica) Receiver() *notify.Receiver {
	return r.receiver
}

// Add rejects direct mutation attempts.
// Always returns ErrUnsupportedOperation and never touches the store.
func (r *Replica) Add(directory.User) error {
	return ErrUnsupportedOperation
}

// Remove rejects direct mutation attempts.
// Always returns ErrUnsupportedOperation and never touches the store.
func (r *Replica) Remove(int64) error {
	return ErrUnsupportedOperation
}

// Len returns the number of records in the replica's store
func (r *Replica) Len() int {
	return r.store.Len()
}

// All returns every record in the replica's store, ordered by id
func (r *Replica) All() []directory.User {
	return r.store.All()
}

// FindFirst returns the first record matching the predicate
func (r *Replica) FindFirst(pred directory.Predicate) (directory.User, error) {
	return r.store.FindFirst(pred)
}

// applyAdd inserts a master-committed record, preserving its assigned id
func (r *Replica) applyAdd(u directory.User) error {
	if err := r.store.Put(u); err != nil {
		r.logger.Warn("replica rejected add",
			zap.String("replica", r.name),
			zap.Int64("user_id", u.ID),
			zap.Error(err))
		return err
	}
	r.logger.Debug("replica applied add",
		zap.String("replica", r.name),
		zap.Int64("user_id", u.ID))
	return nil
}

// applyRemove removes a record by its master-assigned id
func (r *Replica) applyRemove(id int64) error {
	if err := r.store.Remove(id); err != nil {
		r.logger.Warn("replica rejected remove",
			zap.String("replica", r.name),
			zap.Int64("user_id", id),
			zap.Error(err))
		return err
	}
	r.logger.Debug("replica applied remove",
		zap.String("replica", r.name),
		zap.Int64("user_id", id))
	return nil
}

// replayHandler routes decoded notification entries onto the replica's
// sanctioned mutation path. It exists so the receiver can mutate the
// replica without the public surface ever allowing it.
type replayHandler struct {
	r *Replica
}

func (h replayHandler) OnAdd(u directory.User) error {
	return h.r.applyAdd(u)
}

func (h replayHandler) OnDelete(id int64) error {
	return h.r.applyRemove(id)
}
