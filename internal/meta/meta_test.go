package meta

import (
	"testing"
)

func TestOpenCreatesDefaults(t *testing.T) {
	dir := t.TempDir()

	d, err := Open(dir, Descriptor{}, true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if d.PKAttr != "PK" || d.SKAttr != "SK" {
		t.Fatalf("expected default PK/SK attrs, got %+v", d)
	}
	if !Exists(dir) {
		t.Fatalf("expected descriptor to be persisted")
	}
}

func TestOpenPersistsWantedAttrs(t *testing.T) {
	dir := t.TempDir()

	d, err := Open(dir, Descriptor{PKAttr: "tenant", SKAttr: "item_id"}, true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if d.PKAttr != "tenant" || d.SKAttr != "item_id" {
		t.Fatalf("got %+v", d)
	}

	reopened, err := Open(dir, Descriptor{PKAttr: "tenant", SKAttr: "item_id"}, true)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened != d {
		t.Fatalf("reopen returned %+v, want %+v", reopened, d)
	}
}

func TestOpenRejectsMismatch(t *testing.T) {
	dir := t.TempDir()

	if _, err := Open(dir, Descriptor{PKAttr: "tenant", SKAttr: "item_id"}, true); err != nil {
		t.Fatalf("initial Open: %v", err)
	}

	_, err := Open(dir, Descriptor{PKAttr: "other", SKAttr: "item_id"}, true)
	if err == nil {
		t.Fatalf("expected a mismatch error")
	}
	mismatch, ok := err.(*MismatchError)
	if !ok {
		t.Fatalf("expected *MismatchError, got %T", err)
	}
	if mismatch.Attribute != "PK_attr" || mismatch.Want != "other" || mismatch.Have != "tenant" {
		t.Fatalf("unexpected mismatch details: %+v", mismatch)
	}
}

func TestOpenWithEmptyWantReusesExisting(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(dir, Descriptor{PKAttr: "tenant", SKAttr: "item_id"}, true); err != nil {
		t.Fatalf("initial Open: %v", err)
	}

	d, err := Open(dir, Descriptor{}, true)
	if err != nil {
		t.Fatalf("reopen with empty descriptor: %v", err)
	}
	if d.PKAttr != "tenant" || d.SKAttr != "item_id" {
		t.Fatalf("expected existing descriptor to be returned unchanged, got %+v", d)
	}
}
