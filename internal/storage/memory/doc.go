// Package memory provides the in-process session backend.
//
// Records live in a sharded concurrent map keyed by the flat session key.
// Each record carries an absolute deadline; reads treat records past their
// deadline as missing and a background sweeper removes them.
//
// Thread Safety:
//
// All operations are thread-safe through per-shard locking. The store is
// lost on restart and is not shared between processes.
package memory
