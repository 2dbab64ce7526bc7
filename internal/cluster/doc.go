// Package cluster provides the network-facing plumbing for running the
// directory as a master daemon with remote replicas: replica identity
// types, JSON-over-HTTP helpers, and a health monitor that detects dead
// replicas.
//
// # Overview
//
// The cluster model is hub-and-spoke. Replicas register with the master
// on startup; the master pushes every mutation to each registered replica
// and polls their health endpoints in the background.
//
// # Core Components
//
// ReplicaInfo: a replica's identity as the master tracks it
//   - ID is the replica's stable name
//   - Addr is the base URL its HTTP endpoints live under
//
// HTTP helpers: the three calls the daemons make to each other
//   - PostJSON for registration and other structured exchanges
//   - PostBytes for pushing pre-encoded notification batches, which must
//     cross the wire verbatim
//   - GetJSON for reads
//
// HealthMonitor: background liveness tracking
//   - Polls every replica a provider function reports, on an interval
//   - A replica is unhealthy after maxFailures consecutive check failures
//   - Reports each unhealthy transition exactly once via a callback, so
//     the master can drop the replica from its push set
//   - A later successful check returns the replica to healthy
//   - State for replicas the provider no longer reports is dropped
//
// # Health Check Protocol
//
// The default check is a GET on the replica's /health endpoint with a
// short timeout. Any 2xx response counts as healthy. The check function is
// replaceable for tests.
//
// # Concurrency
//
// The HealthMonitor is safe for concurrent use. Checks run on the
// monitor's own goroutine started by Start; Stop and context cancellation
// both end it.
package cluster
