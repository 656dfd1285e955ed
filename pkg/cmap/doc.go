// Package cmap provides a sharded, string-keyed concurrent map.
//
// Keys are distributed across a power-of-two number of shards by their
// murmur3 hash; each shard is guarded by its own RWMutex, so operations
// on unrelated keys rarely contend.
//
// Usage:
//
//	m := cmap.New[[]byte]()
//	m.Set("session:example.com:abc", value)
//	val, ok := m.Get("session:example.com:abc")
//
// Range and RangeWithLimit lock one shard at a time, so they observe a
// view that may interleave with concurrent writers.
package cmap
