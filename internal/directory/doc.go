// Package directory defines the user record model and provides the storage,
// validation, and search primitives everything else in the system is built
// on. It is the foundation layer: the replication package propagates its
// records, the notify package serializes them.
//
// # Overview
//
// The package has three concerns, each kept deliberately independent:
//
// Storage: the Store interface abstracts record persistence. The only
// shipped implementation is MemoryStore, an id-keyed in-memory map behind
// a sync.RWMutex, but the interface leaves room for persistent backends.
//
// Validation: the Validator interface gates which candidate records may
// enter a store. Validators are small, composable, and stateless; the
// MultiValidator composes them into a pipeline that fails on the first
// violation.
//
// Search: predicate helpers and range-checked search functions that run
// against any Store.
//
// # Core Types
//
// User: the record itself
//   - ID is assigned by the storage layer on insert, never by callers
//   - FirstName, LastName, and Age carry the directory payload
//   - Equal compares by ID only; two snapshots of the same record are
//     equal even when their fields have diverged
//
// Store: basic record operations
//   - Insert(u) - commit a record under a freshly generated id
//   - Put(u) - commit a record under its existing id (replication path)
//   - Remove(id) - delete a record by id
//   - Find(pred) / FindFirst(pred) - predicate search
//   - Len() / All() - size and ordered snapshot
//
// Validator: admission control for candidate records
//   - RequiredNames rejects blank first or last names
//   - AgeRange rejects ages outside a configured window
//   - MultiValidator runs a sequence and stops at the first failure
//
// # Error Handling
//
// The package defines sentinel errors; callers test them with errors.Is:
//
// ErrNotFound: no record matches
//   - Returned by Remove, FindFirst, and the search helpers
//
// ErrValidation: a candidate record failed admission
//   - Every validator wraps this sentinel with a field-specific message
//
// ErrInvalidArgument: a caller-supplied argument is malformed
//   - Out-of-range search ages, blank search names
//   - Checked before the store is touched
//
// ErrDuplicateID: Put was asked to commit an id already present
//
// # Concurrency
//
// MemoryStore is safe for concurrent use. Reads take a shared lock, writes
// an exclusive one. Single-record operations are atomic; no consistency is
// promised across multiple calls.
//
// # Usage
//
//	store := directory.NewMemoryStore()
//	validator := directory.NewDefaultValidator()
//
//	u := directory.User{FirstName: "Ann", LastName: "Lee", Age: 30}
//	if err := validator.Validate(u); err != nil {
//	    log.Fatalf("rejected: %v", err)
//	}
//	id, _ := store.Insert(&u)
//
//	adults, _ := directory.SearchByAge(store, 30)
//	_ = adults
//	_ = id
//
// # See Also
//
// Related packages:
//   - internal/replication: coordinates stores across master and replicas
//   - internal/notify: serializes mutations for transport
package directory
