package notify

import (
	"fmt"

	"github.com/dreamware/userdir/internal/directory"
)

// Kind tags a notification entry with the mutation it describes
type Kind string

const (
	// KindAddUser means the entry carries a full user record to insert
	KindAddUser Kind = "AddUser"
	// KindDeleteUser means the entry carries only the id to remove
	KindDeleteUser Kind = "DeleteUser"
)

// Entry describes one state change. It is a tagged union: the Kind
// determines which payload field is meaningful, and consumers must branch
// on the tag before reading it. Use the constructors to keep the payload
// consistent with the tag.
type Entry struct {
	Kind   Kind
	User   *directory.User // set only for KindAddUser
	UserID int64           // set only for KindDeleteUser
}

// NewAddEntry builds an AddUser entry for the given record
func NewAddEntry(u directory.User) Entry {
	return Entry{Kind: KindAddUser, User: &u}
}

// NewDeleteEntry builds a DeleteUser entry for the given id
func NewDeleteEntry(id int64) Entry {
	return Entry{Kind: KindDeleteUser, UserID: id}
}

// Record returns the record payload of an AddUser entry.
// Calling it on any other kind is a programming error and panics.
func (e Entry) Record() directory.User {
	if e.Kind != KindAddUser || e.User == nil {
		panic(fmt.Sprintf("notify: Record called on %q entry", e.Kind))
	}
	return *e.User
}

// ID returns the id payload of a DeleteUser entry.
// Calling it on any other kind is a programming error and panics.
func (e Entry) ID() int64 {
	if e.Kind != KindDeleteUser {
		panic(fmt.Sprintf("notify: ID called on %q entry", e.Kind))
	}
	return e.UserID
}

// Batch is an ordered sequence of entries replayed as a unit.
// The coordinator builds one fresh for every mutation, so batches are
// length 1 in practice, but the type supports more.
type Batch []Entry
