package storage

import (
	"testing"

	"github.com/dynafile-io/dynafile/dispatch"
	"github.com/dynafile-io/dynafile/internal/core"
)

type recordingSink struct {
	events []dispatch.Event
}

func (s *recordingSink) Emit(ev dispatch.Event) {
	s.events = append(s.events, ev)
}

func newTestPartition(t *testing.T) (*Partition, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	return New(t.TempDir(), sink, nil), sink
}

func TestAddItemAndGetItem(t *testing.T) {
	p, sink := newTestPartition(t)

	item := core.Item{"name": core.StringValue("Alice")}
	if err := p.AddItem("profile", item); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	got, ok, err := p.GetItem("profile")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if !ok {
		t.Fatalf("expected item to exist")
	}
	if !got.Equal(item) {
		t.Fatalf("got %+v, want %+v", got, item)
	}

	if len(sink.events) != 1 || sink.events[0].Action != dispatch.Put {
		t.Fatalf("expected one PUT event, got %+v", sink.events)
	}
	if sink.events[0].Old != nil {
		t.Fatalf("expected nil Old on first insert, got %+v", sink.events[0].Old)
	}
}

func TestAddItemOverwriteCarriesOld(t *testing.T) {
	p, sink := newTestPartition(t)

	first := core.Item{"name": core.StringValue("Alice")}
	second := core.Item{"name": core.StringValue("Alicia")}

	if err := p.AddItem("profile", first); err != nil {
		t.Fatalf("first AddItem: %v", err)
	}
	if err := p.AddItem("profile", second); err != nil {
		t.Fatalf("second AddItem: %v", err)
	}

	last := sink.events[len(sink.events)-1]
	if !last.Old.Equal(first) {
		t.Fatalf("expected Old to carry the replaced item, got %+v", last.Old)
	}
}

func TestDeleteItemMissingKey(t *testing.T) {
	p, _ := newTestPartition(t)

	err := p.DeleteItem("nope")
	if err == nil {
		t.Fatalf("expected an error deleting a missing key")
	}
	if _, ok := err.(*MissingKeyError); !ok {
		t.Fatalf("expected *MissingKeyError, got %T", err)
	}
}

func TestDeleteItemEmitsEvent(t *testing.T) {
	p, sink := newTestPartition(t)
	item := core.Item{"name": core.StringValue("Alice")}
	if err := p.AddItem("profile", item); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if err := p.DeleteItem("profile"); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	if _, ok, _ := p.GetItem("profile"); ok {
		t.Fatalf("expected item to be gone")
	}

	last := sink.events[len(sink.events)-1]
	if last.Action != dispatch.Delete || !last.Old.Equal(item) {
		t.Fatalf("unexpected delete event: %+v", last)
	}
}

func TestExecuteWriteBatchAppliesInOrder(t *testing.T) {
	p, sink := newTestPartition(t)

	actions := []Action{
		{Kind: ActionPut, SK: "a", Item: core.Item{"v": core.NumberValue("1")}},
		{Kind: ActionPut, SK: "b", Item: core.Item{"v": core.NumberValue("2")}},
		{Kind: ActionDelete, SK: "a"},
	}

	if err := p.ExecuteWriteBatch(actions); err != nil {
		t.Fatalf("ExecuteWriteBatch: %v", err)
	}

	if _, ok, _ := p.GetItem("a"); ok {
		t.Fatalf("expected a to be deleted")
	}
	got, ok, _ := p.GetItem("b")
	if !ok || !got.Equal(core.Item{"v": core.NumberValue("2")}) {
		t.Fatalf("unexpected state for b: %+v", got)
	}

	if len(sink.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(sink.events))
	}
}

func TestExecuteWriteBatchAbortsOnMissingDelete(t *testing.T) {
	p, sink := newTestPartition(t)

	actions := []Action{
		{Kind: ActionPut, SK: "a", Item: core.Item{"v": core.NumberValue("1")}},
		{Kind: ActionDelete, SK: "missing"},
	}

	err := p.ExecuteWriteBatch(actions)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if _, ok := err.(*MissingKeyError); !ok {
		t.Fatalf("expected *MissingKeyError, got %T", err)
	}

	if _, ok, _ := p.GetItem("a"); ok {
		t.Fatalf("a batch that fails must not persist any of its actions")
	}
	if len(sink.events) != 0 {
		t.Fatalf("a failed batch must not emit events for a discarded save, got %+v", sink.events)
	}
}

func TestQueryOrdering(t *testing.T) {
	p, _ := newTestPartition(t)
	for _, sk := range []string{"c", "a", "b"} {
		if err := p.AddItem(sk, core.Item{"sk": core.StringValue(sk)}); err != nil {
			t.Fatalf("AddItem(%q): %v", sk, err)
		}
	}

	forward, err := p.Query("", true)
	if err != nil {
		t.Fatalf("Query forward: %v", err)
	}
	var got []string
	for _, e := range forward {
		got = append(got, e.SK)
	}
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("forward order = %v, want %v", got, want)
		}
	}

	backward, err := p.Query("", false)
	if err != nil {
		t.Fatalf("Query backward: %v", err)
	}
	got = nil
	for _, e := range backward {
		got = append(got, e.SK)
	}
	want = []string{"c", "b", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("backward order = %v, want %v", got, want)
		}
	}
}

func TestQueryStartsWithBound(t *testing.T) {
	p, _ := newTestPartition(t)
	for _, sk := range []string{"a", "b", "c", "d"} {
		if err := p.AddItem(sk, core.Item{}); err != nil {
			t.Fatalf("AddItem(%q): %v", sk, err)
		}
	}

	forward, err := p.Query("b", true)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(forward) != 3 {
		t.Fatalf("expected b, c, d; got %d entries", len(forward))
	}
	if forward[0].SK != "b" {
		t.Fatalf("expected forward bound to include the bound itself, got %q", forward[0].SK)
	}
}
