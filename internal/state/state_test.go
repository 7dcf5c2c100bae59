package state

import "testing"

func TestInMemoryStore_CommitAndGet(t *testing.T) {
	s := NewInMemoryStore()

	if err := s.Commit([]Op{Set("catalog#42100", []byte(`{"a":1}`))}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	v, ok, err := s.Get("catalog#42100")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || string(v) != `{"a":1}` {
		t.Fatalf("unexpected value: ok=%v v=%s", ok, v)
	}

	// Overwrite and delete in one batch.
	if err := s.Commit([]Op{
		Set("catalog#42100", []byte(`{"a":2}`)),
		Set("catalog#42101", []byte(`{"b":1}`)),
		Delete("catalog#42101"),
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	v, ok, _ = s.Get("catalog#42100")
	if !ok || string(v) != `{"a":2}` {
		t.Fatalf("overwrite not applied: ok=%v v=%s", ok, v)
	}
	if _, ok, _ := s.Get("catalog#42101"); ok {
		t.Fatalf("delete not applied")
	}
}

func TestInMemoryStore_EmptyKeyRejected(t *testing.T) {
	s := NewInMemoryStore()
	if err := s.Commit([]Op{Set("", []byte("x"))}); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestInMemoryStore_ScanPrefix(t *testing.T) {
	s := NewInMemoryStore()
	ops := []Op{
		Set("catalog#42100", []byte("a")),
		Set("catalog#42101", []byte("b")),
		Set("deal#42100_amazon", []byte("c")),
	}
	if err := s.Commit(ops); err != nil {
		t.Fatalf("commit: %v", err)
	}

	var keys []string
	if err := s.Scan("catalog#", func(key string, _ []byte) error {
		keys = append(keys, key)
		return nil
	}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("want 2 catalog keys, got %v", keys)
	}
	for _, k := range keys {
		if k == "deal#42100_amazon" {
			t.Fatalf("scan leaked across prefix: %v", keys)
		}
	}
}
