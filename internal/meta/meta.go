// Package meta persists the small, immutable table descriptor
// (partition/sort key attribute names) that every Dynafile table and
// GSI writes once at creation.
package meta

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dynafile-io/dynafile/internal/atomicfile"
)

const fileName = "meta.json"

// Descriptor is the persisted table configuration. It is immutable
// once written.
type Descriptor struct {
	PKAttr string `json:"PK_attr"`
	SKAttr string `json:"SK_attr"`
}

// Open loads the descriptor at root if present, or creates and
// persists one from want if absent. An existing descriptor whose key
// attribute names disagree with a non-empty want is a ConfigMismatch,
// reported as a *MismatchError so callers can type-assert it.
//
// defaultSK controls whether an empty want.SKAttr defaults to "SK" on
// creation. A base table always wants this default; a GSI sub-table
// passes false so a partition-only index (no sort key) stays
// expressible.
func Open(root string, want Descriptor, defaultSK bool) (Descriptor, error) {
	path := filepath.Join(root, fileName)
	data, err := atomicfile.Read(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("meta: read %s: %w", path, err)
	}

	if data == nil {
		d := want
		if d.PKAttr == "" {
			d.PKAttr = "PK"
		}
		if d.SKAttr == "" && defaultSK {
			d.SKAttr = "SK"
		}
		if err := save(path, d); err != nil {
			return Descriptor{}, err
		}
		return d, nil
	}

	var existing Descriptor
	if err := json.Unmarshal(data, &existing); err != nil {
		return Descriptor{}, fmt.Errorf("meta: decode %s: %w", path, err)
	}

	if want.PKAttr != "" && want.PKAttr != existing.PKAttr {
		return Descriptor{}, &MismatchError{Attribute: "PK_attr", Want: want.PKAttr, Have: existing.PKAttr}
	}
	if want.SKAttr != "" && want.SKAttr != existing.SKAttr {
		return Descriptor{}, &MismatchError{Attribute: "SK_attr", Want: want.SKAttr, Have: existing.SKAttr}
	}

	return existing, nil
}

func save(path string, d Descriptor) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("meta: encode: %w", err)
	}
	return atomicfile.Write(path, data, 0o644)
}

// MismatchError reports that an existing table's persisted key
// attribute names disagree with the names the caller supplied to Open.
type MismatchError struct {
	Attribute string
	Want      string
	Have      string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("meta: table was created with %s=%q, cannot reopen with %s=%q", e.Attribute, e.Have, e.Attribute, e.Want)
}

// Exists reports whether a table descriptor is already present at
// root, used by callers that want to distinguish "opening" from
// "creating" for logging purposes.
func Exists(root string) bool {
	_, err := os.Stat(filepath.Join(root, fileName))
	return err == nil
}
