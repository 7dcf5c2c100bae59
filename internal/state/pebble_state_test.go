package state

import (
	"testing"
)

func TestPebbleStore_CommitGetScan(t *testing.T) {
	dir := t.TempDir()
	st, err := NewPebbleStore(dir)
	if err != nil {
		t.Fatalf("pebble open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	ops := []Op{
		Set("price#42100_amazon", []byte(`{"price":89.99}`)),
		Set("price#42100_target", []byte(`{"price":99.99}`)),
		Set("deal#42100_amazon", []byte(`{"percentOff":25}`)),
	}
	if err := st.Commit(ops); err != nil {
		t.Fatalf("commit: %v", err)
	}

	v, ok, err := st.Get("price#42100_amazon")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || string(v) != `{"price":89.99}` {
		t.Fatalf("unexpected value: ok=%v v=%s", ok, v)
	}
	if _, ok, _ := st.Get("price#42999_amazon"); ok {
		t.Fatalf("get of missing key reported ok")
	}

	count := 0
	if err := st.Scan("price#", func(key string, _ []byte) error {
		count++
		return nil
	}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if count != 2 {
		t.Fatalf("scan count=%d want=2", count)
	}
}

func TestPebbleStore_DeleteInBatch(t *testing.T) {
	dir := t.TempDir()
	st, err := NewPebbleStore(dir)
	if err != nil {
		t.Fatalf("pebble open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.Commit([]Op{Set("deal#1_x", []byte("a")), Set("deal#2_x", []byte("b"))}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := st.Commit([]Op{Delete("deal#1_x")}); err != nil {
		t.Fatalf("delete commit: %v", err)
	}
	if _, ok, _ := st.Get("deal#1_x"); ok {
		t.Fatalf("deleted key still present")
	}
	if _, ok, _ := st.Get("deal#2_x"); !ok {
		t.Fatalf("sibling key lost")
	}
}

func TestPrefixUpperBound(t *testing.T) {
	if got := prefixUpperBound([]byte("deal#")); string(got) != "deal$" {
		t.Fatalf("unexpected bound: %q", got)
	}
	if got := prefixUpperBound([]byte{0xff, 0xff}); got != nil {
		t.Fatalf("all-0xff prefix should have nil bound, got %v", got)
	}
}
