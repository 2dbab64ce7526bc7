package replication

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dreamware/userdir/internal/directory"
	"github.com/dreamware/userdir/internal/metrics"
	"github.com/dreamware/userdir/internal/notify"
)

// BatchSender is the outbound notification sink the coordinator emits to
// after every mutation. notify.Sender satisfies it for the in-process
// channel; networked transports provide their own implementation.
type BatchSender interface {
	Send(b notify.Batch) error
}

// Coordinator is the master role: the single node where writes originate.
// Every mutation runs the same fixed sequence, fully and synchronously,
// before the call returns:
//
//	validate → local store → subscriber fan-out → replica fan-out → notification send
//
// The local mutation is atomic and never rolled back by downstream
// failure. Fan-out and the outbound send are best-effort: per-target
// errors are collected and reported to the caller after all attempts
// complete, favouring forward progress over cluster-wide atomicity.
type Coordinator struct {
	// mu serializes the full mutation sequence. A replica must never
	// observe an Add interleaved with a concurrent Remove.
	mu sync.Mutex

	store       directory.Store
	validator   directory.Validator
	replicas    []*Replica // propagation order = registration order
	subscribers *SubscriberRegistry
	sender      BatchSender // nil disables remote notification
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// NewCoordinator creates a master over the given store.
// sender may be nil when no notification channel is attached (embedded,
// single-node use); everything else is required. A nil metrics handle
// gets a throwaway registry so instrumentation calls stay unconditional.
func NewCoordinator(store directory.Store, validator directory.Validator, sender BatchSender, logger *zap.Logger, m *metrics.Metrics) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewWith(prometheus.NewRegistry())
	}
	return &Coordinator{
		store:       store,
		validator:   validator,
		subscribers: NewSubscriberRegistry(),
		sender:      sender,
		logger:      logger,
		metrics:     m,
	}
}

// RegisterReplica appends a replica to the ordered replica set.
// Registration order is propagation order.
func (c *Coordinator) RegisterReplica(r *Replica) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replicas = append(c.replicas, r)
}

// AddSubscriber registers a callback pair under the given identity.
// Returns directory.ErrInvalidArgument for an empty identity or missing
// callbacks.
func (c *Coordinator) AddSubscriber(id string, sub Subscriber) error {
	return c.subscribers.Add(id, sub)
}

// RemoveSubscriber deregisters the subscriber with the given identity
func (c *Coordinator) RemoveSubscriber(id string) {
	c.subscribers.Remove(id)
}

// Add validates the candidate, commits it locally under a freshly
// assigned id, then fans the committed record out to subscribers,
// replicas, and the notification sender, in that order.
//
// A validation failure aborts with no side effects. After the local
// commit, per-target fan-out errors are aggregated into the returned
// error but never undo the mutation; the committed record is returned
// either way.
func (c *Coordinator) Add(u directory.User) (directory.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.validator.Validate(u); err != nil {
		return directory.User{}, err
	}

	if _, err := c.store.Insert(&u); err != nil {
		return directory.User{}, err
	}
	c.metrics.AddsTotal.Inc()
	c.metrics.Users.Set(float64(c.store.Len()))
	c.logger.Info("user added",
		zap.Int64("user_id", u.ID),
		zap.String("last_name", u.LastName))

	var fanoutErr error
	for _, reg := range c.subscribers.snapshot() {
		if err := reg.sub.OnAdd(u); err != nil {
			fanoutErr = multierr.Append(fanoutErr, fmt.Errorf("subscriber %s: %w", reg.id, err))
			c.metrics.FanoutErrors.WithLabelValues("subscriber").Inc()
			c.logger.Warn("subscriber on-add failed",
				zap.String("subscriber", reg.id),
				zap.Int64("user_id", u.ID),
				zap.Error(err))
		}
	}

	for _, r := range c.replicas {
		if err := r.applyAdd(u); err != nil {
			fanoutErr = multierr.Append(fanoutErr, fmt.Errorf("replica %s: %w", r.Name(), err))
			c.metrics.FanoutErrors.WithLabelValues("replica").Inc()
		}
	}

	fanoutErr = multierr.Append(fanoutErr, c.send(notify.Batch{notify.NewAddEntry(u)}))

	return u, fanoutErr
}

// Remove looks the record up once, removes it locally, then fans the
// removal out to subscribers (with the pre-fetched record as payload),
// replicas, and the notification sender.
//
// An absent id aborts with directory.ErrNotFound before any mutation.
func (c *Coordinator) Remove(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Single lookup, reused for the subscriber payload
	u, err := c.store.FindFirst(directory.ByID(id))
	if err != nil {
		return err
	}

	if err := c.store.Remove(id); err != nil {
		return err
	}
	c.metrics.RemovesTotal.Inc()
	c.metrics.Users.Set(float64(c.store.Len()))
	c.logger.Info("user removed", zap.Int64("user_id", id))

	var fanoutErr error
	for _, reg := range c.subscribers.snapshot() {
		if err := reg.sub.OnRemove(u); err != nil {
			fanoutErr = multierr.Append(fanoutErr, fmt.Errorf("subscriber %s: %w", reg.id, err))
			c.metrics.FanoutErrors.WithLabelValues("subscriber").Inc()
			c.logger.Warn("subscriber on-remove failed",
				zap.String("subscriber", reg.id),
				zap.Int64("user_id", id),
				zap.Error(err))
		}
	}

	for _, r := range c.replicas {
		if err := r.applyRemove(id); err != nil {
			fanoutErr = multierr.Append(fanoutErr, fmt.Errorf("replica %s: %w", r.Name(), err))
			c.metrics.FanoutErrors.WithLabelValues("replica").Inc()
		}
	}

	fanoutErr = multierr.Append(fanoutErr, c.send(notify.Batch{notify.NewDeleteEntry(id)}))

	return fanoutErr
}

// send hands the batch to the outbound sender, if one is attached.
// Sender failure is reported like any other fan-out error; the local
// mutation stands regardless.
func (c *Coordinator) send(b notify.Batch) error {
	if c.sender == nil {
		return nil
	}
	if err := c.sender.Send(b); err != nil {
		c.metrics.FanoutErrors.WithLabelValues("sender").Inc()
		c.logger.Warn("notification send failed", zap.Error(err))
		return fmt.Errorf("notification send: %w", err)
	}
	c.metrics.NotificationsSent.Inc()
	return nil
}

// Len returns the number of records in the master store
func (c *Coordinator) Len() int {
	return c.store.Len()
}

// All returns every record in the master store, ordered by id
func (c *Coordinator) All() []directory.User {
	return c.store.All()
}

// FindFirst returns the first master-store record matching the predicate
func (c *Coordinator) FindFirst(pred directory.Predicate) (directory.User, error) {
	return c.store.FindFirst(pred)
}

// SearchByAge returns master-store records with the given age.
// The age is range-checked before the store is touched.
func (c *Coordinator) SearchByAge(age int) ([]directory.User, error) {
	return directory.SearchByAge(c.store, age)
}

// SearchByLastName returns master-store records with the given last name.
// A blank name is rejected before the store is touched.
func (c *Coordinator) SearchByLastName(name string) ([]directory.User, error) {
	return directory.SearchByLastName(c.store, name)
}
