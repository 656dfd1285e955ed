package document

import (
	"testing"
	"time"
)

func TestTupleKey_Less(t *testing.T) {
	tests := []struct {
		a, b TupleKey
		want bool
	}{
		{TupleKey{"a"}, TupleKey{"b"}, true},
		{TupleKey{"b"}, TupleKey{"a"}, false},
		{TupleKey{"a"}, TupleKey{"a", "b"}, true},
		{TupleKey{"a", "b"}, TupleKey{"a"}, false},
		{TupleKey{"a", "b"}, TupleKey{"a", "b"}, false},
		{TupleKey{"s", "h", "x"}, TupleKey{"s", "h2", "a"}, true},
	}
	for _, tt := range tests {
		if got := tt.a.Less(tt.b); got != tt.want {
			t.Errorf("%v.Less(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestTupleKey_HasPrefix(t *testing.T) {
	k := TupleKey{"session", "example.com", "abc"}
	if !k.HasPrefix(TupleKey{"session"}) || !k.HasPrefix(TupleKey{"session", "example.com"}) {
		t.Error("expected prefix match")
	}
	if k.HasPrefix(TupleKey{"session", "example"}) {
		t.Error("partial part must not match")
	}
	if k.HasPrefix(TupleKey{"session", "example.com", "abc", "x"}) {
		t.Error("longer prefix must not match")
	}
}

func TestDB_ExpireInMilliseconds(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	db := NewDB(func() time.Time { return now })
	key := TupleKey{"session", "example.com", "abc"}

	db.Set(key, []byte("alice"), 120_000)

	rec, ok := db.Get(key)
	if !ok {
		t.Fatal("record should exist")
	}
	if want := now.UnixMilli() + 120_000; rec.ExpireAt != want {
		t.Errorf("ExpireAt = %d, want %d", rec.ExpireAt, want)
	}

	now = now.Add(119_999 * time.Millisecond)
	if _, ok := db.Get(key); !ok {
		t.Error("record should be live 1ms before expiry")
	}
	now = now.Add(time.Millisecond)
	if _, ok := db.Get(key); ok {
		t.Error("record should be expired")
	}

	if removed := db.Sweep(); removed != 1 {
		t.Errorf("Sweep() = %d, want 1", removed)
	}
	if db.Len() != 0 {
		t.Errorf("Len() = %d, want 0", db.Len())
	}
}

func TestDB_ListRange(t *testing.T) {
	db := NewDB(nil)
	db.Set(TupleKey{"session", "a", "2"}, []byte("a2"), 0)
	db.Set(TupleKey{"session", "a", "1"}, []byte("a1"), 0)
	db.Set(TupleKey{"session", "ab", "1"}, []byte("ab1"), 0)
	db.Set(TupleKey{"other", "a", "1"}, []byte("o"), 0)

	var got []string
	db.List(TupleKey{"session", "a"}, func(r Record) bool {
		got = append(got, string(r.Value))
		return true
	})
	if len(got) != 2 || got[0] != "a1" || got[1] != "a2" {
		t.Errorf("List = %v, want [a1 a2]", got)
	}

	got = nil
	db.List(TupleKey{"session"}, func(r Record) bool {
		got = append(got, string(r.Value))
		return true
	})
	if len(got) != 3 {
		t.Errorf("List(session) = %v, want 3 records", got)
	}
}

func TestDB_DeleteAndCopy(t *testing.T) {
	db := NewDB(nil)
	key := TupleKey{"k"}
	val := []byte("v")
	db.Set(key, val, 0)
	val[0] = 'x'

	rec, _ := db.Get(key)
	if string(rec.Value) != "v" {
		t.Errorf("stored value aliased caller slice: %q", rec.Value)
	}
	if !db.Delete(key) {
		t.Error("Delete should report presence")
	}
	if db.Delete(key) {
		t.Error("second Delete should report absence")
	}
}
