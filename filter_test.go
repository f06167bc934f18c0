package dynafile

import "testing"

type stubCompiler struct {
	filter Filter
	err    error
}

func (c stubCompiler) Compile(string) (Filter, error) { return c.filter, c.err }

func TestNormalizeFilterNil(t *testing.T) {
	tbl := openTestTable(t, OpenOptions{})
	filter, err := tbl.normalizeFilter(nil)
	if err != nil {
		t.Fatalf("normalizeFilter(nil): %v", err)
	}
	if !filter(Item{"a": StringValue("b")}) {
		t.Fatalf("a nil filter should pass a non-empty item")
	}
	if filter(Item{}) {
		t.Fatalf("a nil filter should reject an empty item")
	}
}

func TestNormalizeFilterFunc(t *testing.T) {
	tbl := openTestTable(t, OpenOptions{})
	filter, err := tbl.normalizeFilter(func(item Item) bool { return len(item) == 1 })
	if err != nil {
		t.Fatalf("normalizeFilter(func): %v", err)
	}
	if !filter(Item{"a": StringValue("b")}) {
		t.Fatalf("expected the plain func filter to be used directly")
	}
}

func TestNormalizeFilterStringWithoutCompiler(t *testing.T) {
	tbl := openTestTable(t, OpenOptions{})
	_, err := tbl.normalizeFilter("status = \"x\"")
	if _, ok := err.(*UnsupportedFilterError); !ok {
		t.Fatalf("expected *UnsupportedFilterError, got %v", err)
	}
}

func TestNormalizeFilterStringWithCompiler(t *testing.T) {
	tbl, err := Open(t.TempDir(), OpenOptions{ExpressionCompiler: stubCompiler{filter: func(Item) bool { return true }}})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	filter, err := tbl.normalizeFilter("anything")
	if err != nil {
		t.Fatalf("normalizeFilter: %v", err)
	}
	if !filter(Item{}) {
		t.Fatalf("expected the stub compiler's filter to be used")
	}
}

func TestNormalizeFilterUnrecognizedType(t *testing.T) {
	tbl := openTestTable(t, OpenOptions{})
	_, err := tbl.normalizeFilter(42)
	if _, ok := err.(*UnsupportedFilterError); !ok {
		t.Fatalf("expected *UnsupportedFilterError, got %v", err)
	}
}
