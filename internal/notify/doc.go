// Package notify implements the serialized notification protocol that
// carries directory mutations from the master to its replicas.
//
// # Overview
//
// A mutation crosses the channel as a Batch of Entry values, each tagged
// AddUser or DeleteUser. The Codec turns batches into a JSON wire form and
// back; Sender and Receiver are the two ends of a channel that moves the
// encoded bytes.
//
// The wire format is a JSON array of tagged objects:
//
//	[
//	  {"type": "AddUser",    "payload": {"id": 7, "first_name": "Ann", "last_name": "Lee", "age": 30}},
//	  {"type": "DeleteUser", "payload": {"id": 4}}
//	]
//
// Additions carry the full record including the master-assigned id, so a
// replica can mirror it exactly. Deletions carry only the id.
//
// # Delivery Semantics
//
// Send is synchronous and in-order: the receiver replays entries in batch
// position order, and a batch is fully replayed before Send returns. There
// is no acknowledgement, retry, or buffering at this layer.
//
// A sender binds exactly one receiver; AddReceiver replaces any previous
// binding. Fanning a batch out to many replicas is the coordinator's job,
// one sender (or transport push) per replica.
//
// # Error Handling
//
// Decode failures wrap ErrDecode and are terminal: nothing from a
// malformed payload is applied. Apply failures stop the replay at the
// failing entry; entries already applied stay applied, and the error
// identifies the position and kind of the entry that failed.
//
// Entry.Record and Entry.ID panic when called on the wrong variant. The
// dispatch in Receiver.Receive is the only caller that needs them, and it
// switches on Kind first.
package notify
