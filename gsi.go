package dynafile

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dynafile-io/dynafile/dispatch"
	"github.com/dynafile-io/dynafile/internal/core"
)

const gsiDirName = "_gsi"

// gsiManager owns the lifecycle of every global secondary index rooted
// at a base table: loading existing ones at startup, creating and
// backfilling new ones, and propagating every base-table change event
// into each index whose projection condition holds.
type gsiManager struct {
	base *Table

	mu      sync.Mutex
	indexes map[string]*Table
}

// loadGsiManager enumerates <root>/_gsi/, opens each subdirectory as a
// GSI table, and subscribes one synchronization listener on base's
// dispatcher.
func loadGsiManager(base *Table) (*gsiManager, error) {
	gm := &gsiManager{base: base, indexes: make(map[string]*Table)}

	dir := filepath.Join(base.root, gsiDirName)
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("dynafile: list GSIs: %w", err)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub, err := Open(filepath.Join(dir, e.Name()), OpenOptions{Logger: base.logger, isGsi: true})
		if err != nil {
			return nil, fmt.Errorf("dynafile: open GSI %q: %w", e.Name(), err)
		}
		gm.indexes[e.Name()] = sub
	}

	base.dispatcher.Subscribe(gm.onEvent)
	return gm, nil
}

// onEvent is the base table's synchronization listener. For PUT, every
// GSI whose key attributes are present in the new item is updated; for
// DELETE, every GSI whose key attributes were present in the old item
// is deleted from. The index snapshot is taken under lock but the
// propagation itself runs unlocked so a propagation that triggers
// further base-table activity (e.g. a lazy TTL expiry encountered while
// backfilling) can never deadlock against create().
func (gm *gsiManager) onEvent(ev dispatch.Event) {
	gm.mu.Lock()
	snapshot := make(map[string]*Table, len(gm.indexes))
	for name, idx := range gm.indexes {
		snapshot[name] = idx
	}
	gm.mu.Unlock()

	for name, idx := range snapshot {
		switch ev.Action {
		case dispatch.Put:
			if !hasProjectionKeys(ev.New, idx.pkAttr, idx.skAttr) {
				continue
			}
			if err := idx.PutItem(ev.New); err != nil {
				gm.base.logger.Printf("gsi %q: propagate put failed: %v", name, err)
			}
		case dispatch.Delete:
			if !hasProjectionKeys(ev.Old, idx.pkAttr, idx.skAttr) {
				continue
			}
			key, err := core.ExtractKey(ev.Old, idx.pkAttr, idx.skAttr)
			if err != nil {
				gm.base.logger.Printf("gsi %q: propagate delete failed: %v", name, err)
				continue
			}
			if err := idx.DeleteItem(key); err != nil {
				if _, missing := err.(*MissingKeyError); !missing {
					gm.base.logger.Printf("gsi %q: propagate delete failed: %v", name, err)
				}
			}
		}
	}
}

// create creates a new GSI, backfills it by scanning the base table,
// and only then registers it so onEvent starts seeing it. A write
// racing the backfill scan (a TTL expiry encountered mid-scan, the only
// form of reentrancy possible in a single-threaded-cooperative process)
// can neither double-apply into nor be lost from an index that is not
// yet registered.
func (gm *gsiManager) create(name, pkAttr, skAttr string) error {
	gm.mu.Lock()
	_, exists := gm.indexes[name]
	gm.mu.Unlock()
	if exists {
		return &GsiExistsError{Name: name}
	}

	sub, err := Open(filepath.Join(gm.base.root, gsiDirName, name), OpenOptions{
		PKAttr: pkAttr,
		SKAttr: skAttr,
		Logger: gm.base.logger,
		isGsi:  true,
	})
	if err != nil {
		return fmt.Errorf("dynafile: create GSI %q: %w", name, err)
	}

	items, err := gm.base.Scan(nil)
	if err != nil {
		return fmt.Errorf("dynafile: backfill GSI %q: %w", name, err)
	}
	for _, item := range items {
		if !hasProjectionKeys(item, pkAttr, skAttr) {
			continue
		}
		if err := sub.PutItem(item); err != nil {
			return fmt.Errorf("dynafile: backfill GSI %q: %w", name, err)
		}
	}

	gm.mu.Lock()
	if _, exists := gm.indexes[name]; exists {
		gm.mu.Unlock()
		return &GsiExistsError{Name: name}
	}
	gm.indexes[name] = sub
	gm.mu.Unlock()
	return nil
}

// get returns the GSI registered under name.
func (gm *gsiManager) get(name string) (*Table, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	idx, ok := gm.indexes[name]
	if !ok {
		return nil, &UnknownIndexError{Name: name}
	}
	return idx, nil
}

// hasProjectionKeys reports whether item carries both of a GSI's key
// attributes (only the partition key when the GSI has no sort key
// attribute), the condition under which the source item projects into
// that GSI.
func hasProjectionKeys(item Item, pkAttr, skAttr string) bool {
	if item == nil {
		return false
	}
	pv, ok := item[pkAttr]
	if !ok || pv.IsZero() {
		return false
	}
	if skAttr == "" {
		return true
	}
	sv, ok := item[skAttr]
	return ok && !sv.IsZero()
}
