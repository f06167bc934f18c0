package dynafile

import (
	"log"
	"sync"
	"time"

	"github.com/dynafile-io/dynafile/dispatch"
	"github.com/dynafile-io/dynafile/internal/core"
	"github.com/dynafile-io/dynafile/internal/storage"
)

// Event is a change record delivered to every registered stream
// listener for each PUT or DELETE.
type Event = dispatch.Event

// EventAction distinguishes a PUT from a DELETE event.
type EventAction = dispatch.Action

const (
	EventPut    = dispatch.Put
	EventDelete = dispatch.Delete
)

// Listener is the callback registered with AddStreamListener.
type Listener = dispatch.Listener

// Table is the top-level façade: it owns table metadata, partition
// routing, the change dispatcher, the GSI set, and the TTL policy.
type Table struct {
	root   string
	pkAttr string
	skAttr string

	dispatcher *dispatch.Dispatcher
	router     *storage.Router
	ttl        *ttlPolicy
	compiler   ExpressionCompiler
	logger     *log.Logger

	isGsi bool
	gsis  *gsiManager

	batchMu     sync.Mutex
	activeBatch *BatchWriter
}

// PKAttr returns the name of the table's partition key attribute.
func (t *Table) PKAttr() string { return t.pkAttr }

// SKAttr returns the name of the table's sort key attribute.
func (t *Table) SKAttr() string { return t.skAttr }

// PutItem routes item by item[PKAttr], and replaces whatever was
// stored under item[SKAttr] within that partition.
func (t *Table) PutItem(item Item) error {
	key, err := core.ExtractKey(item, t.pkAttr, t.skAttr)
	if err != nil {
		return err
	}
	return t.router.Resolve(key.PK).AddItem(key.SK, item)
}

// GetItem returns the item stored under key, or (nil, nil) if absent
// or expired. An expired item is deleted from the base table before
// GetItem returns.
func (t *Table) GetItem(key Key) (Item, error) {
	part := t.router.Resolve(key.PK)
	item, ok, err := part.GetItem(key.SK)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	if t.ttl.expired(item, time.Now()) {
		if err := part.DeleteItem(key.SK); err != nil {
			if _, missing := err.(*storage.MissingKeyError); !missing {
				return nil, err
			}
		}
		return nil, nil
	}

	return item, nil
}

// DeleteItem removes the item stored under key. It returns
// MissingKeyError if key.SK does not exist in the partition.
func (t *Table) DeleteItem(key Key) error {
	return t.router.Resolve(key.PK).DeleteItem(key.SK)
}

// BatchGetItem fetches every key in order, skipping (without error)
// any key that is absent or expired.
func (t *Table) BatchGetItem(keys []Key) ([]Item, error) {
	items := make([]Item, 0, len(keys))
	for _, k := range keys {
		item, err := t.GetItem(k)
		if err != nil {
			return nil, err
		}
		if item != nil {
			items = append(items, item)
		}
	}
	return items, nil
}

// ActionKind distinguishes a batched put from a batched delete.
type ActionKind int

const (
	ActionPut ActionKind = iota
	ActionDelete
)

// WriteAction is one entry of a batch submitted to ExecuteBatch or
// accumulated by a BatchWriter. Item is required for ActionPut; Key is
// required for ActionDelete.
type WriteAction struct {
	Kind ActionKind
	Item Item
	Key  Key
}

// ExecuteBatch groups actions by partition key in input order,
// preserving per-partition order, and applies each group via a single
// load/save cycle on that partition. An action whose Kind is neither
// ActionPut nor ActionDelete is logged and skipped before grouping,
// since there is no key to route it by.
func (t *Table) ExecuteBatch(actions []WriteAction) error {
	order := make([]string, 0, len(actions))
	groups := make(map[string][]storage.Action, len(actions))

	for _, a := range actions {
		var pk, sk string
		var storageAction storage.Action

		switch a.Kind {
		case ActionPut:
			key, err := core.ExtractKey(a.Item, t.pkAttr, t.skAttr)
			if err != nil {
				return err
			}
			pk, sk = key.PK, key.SK
			storageAction = storage.Action{Kind: storage.ActionPut, SK: sk, Item: a.Item}
		case ActionDelete:
			pk, sk = a.Key.PK, a.Key.SK
			storageAction = storage.Action{Kind: storage.ActionDelete, SK: sk}
		default:
			t.logger.Printf("skipping batch action with unknown kind %v", a.Kind)
			continue
		}

		if _, ok := groups[pk]; !ok {
			order = append(order, pk)
		}
		groups[pk] = append(groups[pk], storageAction)
	}

	for _, pk := range order {
		if err := t.router.Resolve(pk).ExecuteWriteBatch(groups[pk]); err != nil {
			return err
		}
	}
	return nil
}

// Direction selects ascending (Forward) or descending (Backward)
// sort-key order for Query.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// QueryOptions configures Query. Filter accepts nil, a Filter, or a
// string (requiring an ExpressionCompiler); see normalizeFilter.
type QueryOptions struct {
	StartsWith string
	Direction  Direction
	Filter     any
	Index      string
}

// Query returns the items in partition pk, in sort-key order, matching
// StartsWith and Filter. If Index is set, the query is dispatched to
// that GSI instead.
func (t *Table) Query(pk string, opts QueryOptions) ([]Item, error) {
	if opts.Index != "" {
		if t.gsis == nil {
			return nil, &UnknownIndexError{Name: opts.Index}
		}
		idx, err := t.gsis.get(opts.Index)
		if err != nil {
			return nil, err
		}
		return idx.Query(pk, QueryOptions{StartsWith: opts.StartsWith, Direction: opts.Direction, Filter: opts.Filter})
	}

	filter, err := t.normalizeFilter(opts.Filter)
	if err != nil {
		return nil, err
	}

	part := t.router.Resolve(pk)
	entries, err := part.Query(opts.StartsWith, opts.Direction != Backward)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		if t.ttl.expired(e.Item, now) {
			if err := part.DeleteItem(e.SK); err != nil {
				if _, missing := err.(*storage.MissingKeyError); !missing {
					return nil, err
				}
			}
			continue
		}
		if filter(e.Item) {
			items = append(items, e.Item)
		}
	}
	return items, nil
}

// Count returns the number of live (non-expired) items in partition
// pk, without materializing a filter.
func (t *Table) Count(pk string) (int, error) {
	items, err := t.Query(pk, QueryOptions{})
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Scan iterates every partition under the table, in partition-directory
// order, applying TTL expiry and then filter to every item.
func (t *Table) Scan(rawFilter any) ([]Item, error) {
	filter, err := t.normalizeFilter(rawFilter)
	if err != nil {
		return nil, err
	}

	ids, err := t.router.PartitionIDs()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var items []Item
	for _, id := range ids {
		part := t.router.ResolveByID(id)
		entries, err := part.Query("", true)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if t.ttl.expired(e.Item, now) {
				if err := part.DeleteItem(e.SK); err != nil {
					if _, missing := err.(*storage.MissingKeyError); !missing {
						return nil, err
					}
				}
				continue
			}
			if filter(e.Item) {
				items = append(items, e.Item)
			}
		}
	}
	return items, nil
}

// AddStreamListener registers listener on the table's dispatcher and
// returns a token that can be passed to RemoveStreamListener.
func (t *Table) AddStreamListener(listener Listener) dispatch.Token {
	return t.dispatcher.Subscribe(listener)
}

// RemoveStreamListener unregisters a listener previously added with
// AddStreamListener.
func (t *Table) RemoveStreamListener(token dispatch.Token) error {
	return t.dispatcher.Unsubscribe(token)
}

// CreateGsi creates and backfills a new global secondary index, failing
// with GsiExistsError if name is already in use, or RecursiveGsiError
// if called on a GSI table.
func (t *Table) CreateGsi(name, pkAttr, skAttr string) error {
	if t.isGsi {
		return &RecursiveGsiError{Name: name}
	}
	return t.gsis.create(name, pkAttr, skAttr)
}
