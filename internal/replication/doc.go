// Package replication implements the master/slave roles of the user
// directory: a Coordinator that owns every write, Replicas that mirror it,
// and a SubscriberRegistry for mutation observers.
//
// # Overview
//
// The package follows a single-master model:
//
//	              ┌──────────────┐
//	              │ Coordinator  │
//	              │              │
//	              │ - Store      │
//	              │ - Validator  │
//	              │ - Registry   │
//	              └──────┬───────┘
//	                     │ fan-out
//	      ┌──────────────┼──────────────┐
//	      ▼              ▼              ▼
//	┌───────────┐ ┌───────────┐ ┌─────────────┐
//	│ Replica 1 │ │ Replica 2 │ │ BatchSender │
//	│ (mirror)  │ │ (mirror)  │ │ (channel)   │
//	└───────────┘ └───────────┘ └─────────────┘
//
// All writes enter through the Coordinator. Each mutation runs a fixed
// sequence under one lock, fully and synchronously, before the call
// returns:
//
//  1. Validate the candidate (adds only)
//  2. Commit to the local store
//  3. Notify subscribers, in registration order
//  4. Apply to in-process replicas, in registration order
//  5. Hand a notification batch to the BatchSender
//
// # Consistency Model
//
// The local commit is the point of no return. Everything after it is
// best-effort: per-target failures are collected with multierr and
// returned to the caller, but the committed mutation is never rolled
// back, and a failing target never prevents the remaining targets from
// being attempted. Callers that need to react to partial propagation get
// the full picture in one aggregated error.
//
// A validation failure or an unknown removal id aborts before step 2,
// with no side effects anywhere.
//
// # The Replica Guard
//
// Replicas must only ever change in response to master mutations. The
// enforcement is structural rather than heuristic: Replica's public Add
// and Remove unconditionally return ErrUnsupportedOperation, and the real
// mutation methods are package-private. Exactly two callers can reach
// them:
//
//   - the Coordinator, which lives in this package
//   - the replica's notification receiver, whose replay handler is
//     constructed inside NewReplica and never escapes
//
// There is no flag to flip and no caller identity to inspect; code outside
// the package cannot obtain the capability at all.
//
// # Subscribers
//
// Subscribers are callback pairs registered under a caller-chosen
// identity. Re-registering an identity replaces the callbacks in place,
// keeping the original position in the notification order. Subscriber
// errors are reported but never block the mutation or later subscribers.
//
// # Usage
//
//	coord := replication.NewCoordinator(store, validator, sender, logger, m)
//	coord.RegisterReplica(replication.NewReplica("replica-1", replicaStore, logger))
//
//	committed, err := coord.Add(directory.User{FirstName: "Ann", LastName: "Lee", Age: 30})
//	if err != nil {
//	    // committed may still hold a live record; check the store
//	}
//
// # See Also
//
// Related packages:
//   - internal/notify: the serialized channel replicas replay from
//   - internal/cluster: HTTP plumbing and health checks for remote replicas
package replication
