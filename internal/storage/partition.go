// Package storage implements the on-disk partition representation:
// sorted in-partition ordering, atomic durability, and the batched
// write path, plus the Router that maps a partition key to its
// partition directory. It knows nothing about GSIs or TTL; those are
// the Table's concern.
package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"github.com/dynafile-io/dynafile/dispatch"
	"github.com/dynafile-io/dynafile/internal/atomicfile"
	"github.com/dynafile-io/dynafile/internal/core"
)

const dataFileName = "data.json"

// IoFaultError wraps an underlying filesystem failure encountered while
// loading or saving a partition.
type IoFaultError struct {
	Op  string
	Err error
}

func (e *IoFaultError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }
func (e *IoFaultError) Unwrap() error { return e.Err }

// MissingKeyError is returned by DeleteItem (and a batch containing
// one) when the sort key does not exist in the partition.
type MissingKeyError struct {
	SortKey string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("storage: sort key %q not found", e.SortKey)
}

// ActionKind is the kind of a batched write action.
type ActionKind int

const (
	ActionPut ActionKind = iota
	ActionDelete
)

// Action is one entry of a write batch submitted to
// Partition.ExecuteWriteBatch.
type Action struct {
	Kind ActionKind
	SK   string
	Item core.Item // only meaningful for ActionPut
}

// Entry is one (sort key, item) pair yielded by Query, in the order
// requested.
type Entry struct {
	SK   string
	Item core.Item
}

// EventSink is the narrow interface a Partition emits its change events
// to, only after the mutation has been saved: anything with an Emit
// method, satisfied structurally by *dispatch.Dispatcher.
type EventSink interface {
	Emit(dispatch.Event)
}

// Partition owns one sorted mapping and its durable file, rooted at
// dir/data.json.
type Partition struct {
	dir    string
	sink   EventSink
	logger *log.Logger
}

// New returns a handle for the partition rooted at dir. Partitions are
// value-like: constructing one does no I/O.
func New(dir string, sink EventSink, logger *log.Logger) *Partition {
	return &Partition{dir: dir, sink: sink, logger: logger}
}

func (p *Partition) path() string {
	return p.dir + "/" + dataFileName
}

// Load returns the current sort-key to item mapping, or an empty map
// if the partition has never been written.
func (p *Partition) Load() (map[string]core.Item, error) {
	data, err := atomicfile.Read(p.path())
	if err != nil {
		return nil, &IoFaultError{Op: "load", Err: err}
	}
	if data == nil {
		return map[string]core.Item{}, nil
	}

	var m map[string]core.Item
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &IoFaultError{Op: "decode", Err: err}
	}
	return m, nil
}

// Save atomically replaces the partition file with m.
func (p *Partition) Save(m map[string]core.Item) error {
	data, err := json.Marshal(m)
	if err != nil {
		return &IoFaultError{Op: "encode", Err: err}
	}
	if err := atomicfile.Write(p.path(), data, 0o644); err != nil {
		return &IoFaultError{Op: "save", Err: err}
	}
	return nil
}

// AddItem loads the partition, sets m[sk] = item, saves, and emits a
// PUT event carrying the replaced item (nil on insert).
func (p *Partition) AddItem(sk string, item core.Item) error {
	m, err := p.Load()
	if err != nil {
		return err
	}

	old, existed := m[sk]
	m[sk] = item

	if err := p.Save(m); err != nil {
		return err
	}

	var oldItem core.Item
	if existed {
		oldItem = old
	}
	p.sink.Emit(dispatch.Event{Action: dispatch.Put, New: item, Old: oldItem})
	return nil
}

// GetItem returns the item stored under sk, or (nil, false) if absent.
func (p *Partition) GetItem(sk string) (core.Item, bool, error) {
	m, err := p.Load()
	if err != nil {
		return nil, false, err
	}
	item, ok := m[sk]
	return item, ok, nil
}

// DeleteItem removes sk from the partition, saves, and emits a DELETE
// event. It returns MissingKeyError if sk is absent.
func (p *Partition) DeleteItem(sk string) error {
	m, err := p.Load()
	if err != nil {
		return err
	}

	old, ok := m[sk]
	if !ok {
		return &MissingKeyError{SortKey: sk}
	}
	delete(m, sk)

	if err := p.Save(m); err != nil {
		return err
	}

	p.sink.Emit(dispatch.Event{Action: dispatch.Delete, Old: old})
	return nil
}

// ExecuteWriteBatch loads the partition once, applies every action to an
// in-memory copy (queuing one event per action), and saves once. If any
// action fails (most notably a delete of a missing key), the save is
// never attempted, the on-disk file is left unchanged, and no event for
// this batch is emitted. An action whose Kind is neither ActionPut nor
// ActionDelete is logged and skipped.
func (p *Partition) ExecuteWriteBatch(actions []Action) error {
	m, err := p.Load()
	if err != nil {
		return err
	}

	events := make([]dispatch.Event, 0, len(actions))
	for _, action := range actions {
		switch action.Kind {
		case ActionPut:
			old, existed := m[action.SK]
			m[action.SK] = action.Item
			var oldItem core.Item
			if existed {
				oldItem = old
			}
			events = append(events, dispatch.Event{Action: dispatch.Put, New: action.Item, Old: oldItem})
		case ActionDelete:
			old, ok := m[action.SK]
			if !ok {
				return &MissingKeyError{SortKey: action.SK}
			}
			delete(m, action.SK)
			events = append(events, dispatch.Event{Action: dispatch.Delete, Old: old})
		default:
			if p.logger != nil {
				p.logger.Printf("skipping batch action with unknown kind %v for sort key %q", action.Kind, action.SK)
			}
		}
	}

	if err := p.Save(m); err != nil {
		return err
	}

	for _, ev := range events {
		p.sink.Emit(ev)
	}
	return nil
}

// Query returns the entries whose sort key is >= startsWith (forward)
// or <= startsWith (backward), in ascending or descending sort-key
// order respectively. An empty startsWith places no bound: every entry
// is returned, in the requested order.
func (p *Partition) Query(startsWith string, forward bool) ([]Entry, error) {
	m, err := p.Load()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		switch {
		case startsWith == "":
			keys = append(keys, k)
		case forward && k >= startsWith:
			keys = append(keys, k)
		case !forward && k <= startsWith:
			keys = append(keys, k)
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		cmp := core.CompareSortKeys(keys[i], keys[j])
		if forward {
			return cmp < 0
		}
		return cmp > 0
	})

	entries := make([]Entry, len(keys))
	for i, k := range keys {
		entries[i] = Entry{SK: k, Item: m[k]}
	}
	return entries, nil
}
