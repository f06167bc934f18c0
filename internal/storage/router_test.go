package storage

import "testing"

func TestPartitionIDDeterministic(t *testing.T) {
	a := PartitionID("user#1")
	b := PartitionID("user#1")
	if a != b {
		t.Fatalf("PartitionID must be deterministic, got %q and %q", a, b)
	}
	if PartitionID("user#1") == PartitionID("user#2") {
		t.Fatalf("expected distinct partition keys to route differently")
	}
}

func TestRouterResolveCaches(t *testing.T) {
	r := NewRouter(t.TempDir(), &recordingSink{}, nil)

	a := r.Resolve("user#1")
	b := r.Resolve("user#1")
	if a != b {
		t.Fatalf("expected Resolve to return the same cached handle for the same key")
	}
}

func TestRouterPartitionIDsReflectsDisk(t *testing.T) {
	r := NewRouter(t.TempDir(), &recordingSink{}, nil)

	ids, err := r.PartitionIDs()
	if err != nil {
		t.Fatalf("PartitionIDs: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no partitions before any write, got %v", ids)
	}

	p := r.Resolve("user#1")
	if err := p.AddItem("sk", nil); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	ids, err = r.PartitionIDs()
	if err != nil {
		t.Fatalf("PartitionIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != PartitionID("user#1") {
		t.Fatalf("got %v, want [%s]", ids, PartitionID("user#1"))
	}
}

func TestRouterResolveByID(t *testing.T) {
	r := NewRouter(t.TempDir(), &recordingSink{}, nil)
	resolved := r.Resolve("user#1")
	byID := r.ResolveByID(PartitionID("user#1"))
	if resolved != byID {
		t.Fatalf("ResolveByID should return the same cached handle Resolve would")
	}
}
