package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/kafka-go"

	"bricksync/internal/model"
)

func testEvent(key string) Event {
	return Event{Key: key, SetID: "42100-1", Retailer: "amazon", Price: 339, RefPrice: 452, PercentOff: 25, Savings: 113, TS: 1700000000}
}

func TestFromDeal(t *testing.T) {
	d := model.Deal{
		PriceObservation: model.PriceObservation{
			SetID: "42100-1", Retailer: "amazon", Name: "Excavator",
			Price: 339, RefPrice: 452, URL: "https://shop.test/x",
		},
		PercentOff: 25, Savings: 113, LastUpdated: 1700000000,
	}
	e := FromDeal(d)
	if e.Key != "42100-1_amazon" || e.PercentOff != 25 || e.TS != 1700000000 {
		t.Fatalf("bad event: %+v", e)
	}
}

func TestFileWriter_Append(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFileWriter(dir, "deals.jsonl")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}

	e1 := testEvent("42100-1_amazon")
	e2 := testEvent("42100-1_target")
	if err := w.Append(e1); err != nil {
		t.Fatalf("append1: %v", err)
	}
	if err := w.Append(e2); err != nil {
		t.Fatalf("append2: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "deals.jsonl"))
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	var got []Event
	for s.Scan() {
		var e Event
		if err := json.Unmarshal(s.Bytes(), &e); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		got = append(got, e)
	}
	if err := s.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 lines, got %d", len(got))
	}
	if got[0] != e1 || got[1] != e2 {
		t.Fatalf("mismatch: %+v vs %+v,%+v", got, e1, e2)
	}
}

// fakeKafkaWriter implements kafkaMessageWriter for tests
type fakeKafkaWriter struct {
	msgs []kafka.Message
	fail bool
}

func (f *fakeKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.fail {
		return errors.New("fail")
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestKafkaWriter_Append_Success(t *testing.T) {
	fk := &fakeKafkaWriter{}
	kw := NewKafkaWriterWith(fk)
	e := testEvent("42100-1_amazon")
	if err := kw.Append(e); err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(fk.msgs) != 1 {
		t.Fatalf("want 1 msg, got %d", len(fk.msgs))
	}
	if string(fk.msgs[0].Key) != e.Key {
		t.Fatalf("bad key: %s", string(fk.msgs[0].Key))
	}
}

func TestKafkaWriter_Append_Fail(t *testing.T) {
	fk := &fakeKafkaWriter{fail: true}
	kw := NewKafkaWriterWith(fk)
	if err := kw.Append(testEvent("42100-1_amazon")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMultiWriter_FansOut(t *testing.T) {
	a := &fakeKafkaWriter{}
	b := &fakeKafkaWriter{}
	mw := NewMultiWriter(NewKafkaWriterWith(a), NewKafkaWriterWith(b))
	if err := mw.Append(testEvent("1-1_amazon")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(a.msgs) != 1 || len(b.msgs) != 1 {
		t.Fatalf("fan-out missed: %d/%d", len(a.msgs), len(b.msgs))
	}
}
