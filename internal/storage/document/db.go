package document

import (
	"sync"
	"time"

	"github.com/google/btree"
)

// TupleKey is a structured key.
type TupleKey []string

// Less orders keys part by part; a key sorts before its extensions.
func (k TupleKey) Less(other TupleKey) bool {
	for i := 0; i < len(k) && i < len(other); i++ {
		if k[i] != other[i] {
			return k[i] < other[i]
		}
	}
	return len(k) < len(other)
}

// HasPrefix reports whether prefix matches the leading parts of k.
func (k TupleKey) HasPrefix(prefix TupleKey) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Record is one stored value.
type Record struct {
	Key      TupleKey
	Value    []byte
	ExpireAt int64 // Unix milliseconds, 0 for no expiry
}

func (r Record) expired(nowMs int64) bool {
	return r.ExpireAt != 0 && nowMs >= r.ExpireAt
}

func lessRecord(a, b Record) bool {
	return a.Key.Less(b.Key)
}

// DB is an in-process ordered tuple store. It is safe for concurrent use.
type DB struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[Record]
	now  func() time.Time
}

// NewDB returns an empty database.
func NewDB(now func() time.Time) *DB {
	if now == nil {
		now = time.Now
	}
	return &DB{
		tree: btree.NewG[Record](32, lessRecord),
		now:  now,
	}
}

func (db *DB) nowMs() int64 {
	return db.now().UnixMilli()
}

// Get returns the live record stored under key.
func (db *DB) Get(key TupleKey) (Record, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rec, ok := db.tree.Get(Record{Key: key})
	if !ok || rec.expired(db.nowMs()) {
		return Record{}, false
	}
	return rec, true
}

// Set stores value under key. expireInMs <= 0 stores without expiry.
func (db *DB) Set(key TupleKey, value []byte, expireInMs int64) {
	rec := Record{
		Key:   append(TupleKey(nil), key...),
		Value: append([]byte(nil), value...),
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if expireInMs > 0 {
		rec.ExpireAt = db.nowMs() + expireInMs
	}
	db.tree.ReplaceOrInsert(rec)
}

// Delete removes key and reports whether a record was present.
func (db *DB) Delete(key TupleKey) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, ok := db.tree.Delete(Record{Key: key})
	return ok
}

// List calls fn for every live record whose key starts with prefix, in
// key order, until fn returns false. fn must not call back into db.
func (db *DB) List(prefix TupleKey, fn func(Record) bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	now := db.nowMs()
	db.tree.AscendGreaterOrEqual(Record{Key: prefix}, func(rec Record) bool {
		if !rec.Key.HasPrefix(prefix) {
			return false
		}
		if rec.expired(now) {
			return true
		}
		return fn(rec)
	})
}

// Len returns the number of records, expired ones included.
func (db *DB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.tree.Len()
}

// Sweep deletes expired records and returns how many were removed.
func (db *DB) Sweep() int {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := db.nowMs()
	var expired []Record
	db.tree.Ascend(func(rec Record) bool {
		if rec.expired(now) {
			expired = append(expired, rec)
		}
		return true
	})
	for _, rec := range expired {
		db.tree.Delete(rec)
	}
	return len(expired)
}

// Clear drops every record.
func (db *DB) Clear() {
	db.mu.Lock()
	db.tree.Clear(false)
	db.mu.Unlock()
}
