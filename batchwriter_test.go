package dynafile

import "testing"

func TestBatchWriterPutAndFlush(t *testing.T) {
	tbl := openTestTable(t, OpenOptions{})
	bw := tbl.BatchWriter()

	bw.Put(Item{"PK": StringValue("a"), "SK": StringValue("1")})
	bw.Put(Item{"PK": StringValue("a"), "SK": StringValue("2")})

	if err := bw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	n, err := tbl.Count("a")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Fatalf("got %d, want 2", n)
	}
}

func TestBatchWriterCloseFlushesPending(t *testing.T) {
	tbl := openTestTable(t, OpenOptions{})
	bw := tbl.BatchWriter()
	bw.Put(Item{"PK": StringValue("a"), "SK": StringValue("1")})

	if err := bw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	item, err := tbl.GetItem(Key{PK: "a", SK: "1"})
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if item == nil {
		t.Fatalf("expected the batched put to be persisted after Close")
	}
}

func TestBatchWriterEmptyFlushIsNoop(t *testing.T) {
	tbl := openTestTable(t, OpenOptions{})
	bw := tbl.BatchWriter()
	if err := bw.Flush(); err != nil {
		t.Fatalf("Flush on an empty queue should not error: %v", err)
	}
}

func TestBatchWriterReentryDropsPriorQueue(t *testing.T) {
	tbl := openTestTable(t, OpenOptions{})

	first := tbl.BatchWriter()
	first.Put(Item{"PK": StringValue("a"), "SK": StringValue("1")})

	second := tbl.BatchWriter()
	second.Put(Item{"PK": StringValue("b"), "SK": StringValue("1")})
	if err := second.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if item, _ := tbl.GetItem(Key{PK: "a", SK: "1"}); item != nil {
		t.Fatalf("expected the first writer's queue to have been dropped")
	}
	if item, _ := tbl.GetItem(Key{PK: "b", SK: "1"}); item == nil {
		t.Fatalf("expected the second writer's queue to be persisted")
	}

	if err := first.Flush(); err != nil {
		t.Fatalf("flushing an abandoned writer should still be safe: %v", err)
	}
}
