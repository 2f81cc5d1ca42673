package storage

import (
	"errors"
	"sort"
	"testing"
)

func TestPrefixDB_Isolation(t *testing.T) {
	inner := NewMemory()
	alice := NewPrefixDB(inner, []byte("acct/alice01/"))
	bob := NewPrefixDB(inner, []byte("acct/bob0001/"))

	alice.Put([]byte("BTCZ"), []byte("a"))
	bob.Put([]byte("BTCZ"), []byte("b"))

	got, err := alice.Get([]byte("BTCZ"))
	if err != nil || string(got) != "a" {
		t.Fatalf("alice Get = %q, %v", got, err)
	}
	got, err = bob.Get([]byte("BTCZ"))
	if err != nil || string(got) != "b" {
		t.Fatalf("bob Get = %q, %v", got, err)
	}

	raw, err := inner.Get([]byte("acct/alice01/BTCZ"))
	if err != nil || string(raw) != "a" {
		t.Errorf("inner key not namespaced: %q, %v", raw, err)
	}

	if _, err := alice.Get([]byte("ZEC")); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing key err = %v, want ErrNotFound", err)
	}
}

func TestPrefixDB_ForEachStripsNamespace(t *testing.T) {
	inner := NewMemory()
	db := NewPrefixDB(inner, []byte("ns/"))
	db.Put([]byte("coin/BTCZ"), []byte("1"))
	db.Put([]byte("coin/ZEC"), []byte("2"))
	db.Put([]byte("meta"), []byte("3"))
	inner.Put([]byte("coin/OUTSIDE"), []byte("4"))

	var keys []string
	err := db.ForEach([]byte("coin/"), func(k, _ []byte) error {
		keys = append(keys, string(k))
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	sort.Strings(keys)
	want := []string{"coin/BTCZ", "coin/ZEC"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestPrefixDB_DeleteAll(t *testing.T) {
	for name, open := range factories {
		t.Run(name, func(t *testing.T) {
			inner := open(t)
			gone := NewPrefixDB(inner, []byte("x/"))
			kept := NewPrefixDB(inner, []byte("y/"))
			for _, k := range []string{"1", "2", "3"} {
				gone.Put([]byte(k), []byte(k))
				kept.Put([]byte(k), []byte(k))
			}

			if err := gone.DeleteAll(); err != nil {
				t.Fatalf("DeleteAll: %v", err)
			}
			n := 0
			gone.ForEach(nil, func(_, _ []byte) error { n++; return nil })
			if n != 0 {
				t.Errorf("%d keys left after DeleteAll", n)
			}
			if ok, _ := kept.Has([]byte("2")); !ok {
				t.Error("DeleteAll removed keys from another namespace")
			}
		})
	}
}

// plainDB hides MemoryDB's batch support.
type plainDB struct{ DB }

func TestPrefixDB_BatchFallback(t *testing.T) {
	inner := plainDB{NewMemory()}
	db := NewPrefixDB(inner, []byte("p/"))

	b := db.NewBatch()
	b.Put([]byte("k"), []byte("v"))
	if ok, _ := db.Has([]byte("k")); ok {
		t.Fatal("fallback batch wrote before Commit")
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	got, err := inner.Get([]byte("p/k"))
	if err != nil || string(got) != "v" {
		t.Errorf("inner Get = %q, %v", got, err)
	}
}
