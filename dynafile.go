// Package dynafile is an embedded, file-backed key-value store modelled
// after the wide-column, partition+sort key pattern of a cloud NoSQL
// table. Items are self-describing attribute maps identified by a
// composite (partition key, sort key); Dynafile provides point
// lookups, sort-key-prefix range queries within a partition, full-table
// scans with filtering, batched writes, a change-event stream, global
// secondary indexes kept synchronized with the base table, and optional
// per-item time-to-live expiry.
package dynafile

import (
	"fmt"
	"log"
	"os"

	"github.com/dynafile-io/dynafile/dispatch"
	"github.com/dynafile-io/dynafile/internal/core"
	"github.com/dynafile-io/dynafile/internal/meta"
	"github.com/dynafile-io/dynafile/internal/storage"
)

// Item is an ordered-unimportant mapping from attribute name to value.
type Item = core.Item

// Value is a self-describing attribute value; exactly one field is
// non-nil.
type Value = core.Value

// Key is the (pk, sk) pair identifying an item.
type Key = core.Key

// StringValue returns a string (S) Value.
func StringValue(s string) Value { return core.StringValue(s) }

// NumberValue returns a number (N) Value from its decimal string form.
func NumberValue(n string) Value { return core.NumberValue(n) }

// OpenOptions configures Open. PKAttr and SKAttr, when non-empty, must
// agree with a table's persisted metadata; both default to "PK"/"SK"
// when creating a new table.
type OpenOptions struct {
	PKAttr string
	SKAttr string

	// TTLAttr, when non-empty, names the attribute holding a numeric
	// Unix epoch-second expiry, enforced lazily on reads.
	TTLAttr string

	// ExpressionCompiler resolves a string filter value into a
	// predicate. Dynafile treats the string-expression language as an
	// external collaborator; supplying nil makes a string filter
	// value a reported UnsupportedFilterError.
	ExpressionCompiler ExpressionCompiler

	// Logger receives warnings (e.g. an unknown batch action kind).
	// Defaults to a logger writing to stderr.
	Logger *log.Logger

	isGsi bool
}

func defaultLogger() *log.Logger {
	return log.New(os.Stderr, "dynafile: ", log.LstdFlags)
}

// Open opens the table rooted at path, creating it (and persisting its
// metadata) if it does not already exist.
func Open(path string, opts OpenOptions) (*Table, error) {
	if opts.Logger == nil {
		opts.Logger = defaultLogger()
	}

	descriptor, err := meta.Open(path, meta.Descriptor{PKAttr: opts.PKAttr, SKAttr: opts.SKAttr}, !opts.isGsi)
	if err != nil {
		return nil, fmt.Errorf("dynafile: open %s: %w", path, err)
	}

	dispatcher := dispatch.New()
	router := storage.NewRouter(path, dispatcher, opts.Logger)
	ttl := newTTLPolicy(opts.TTLAttr)

	t := &Table{
		root:       path,
		pkAttr:     descriptor.PKAttr,
		skAttr:     descriptor.SKAttr,
		dispatcher: dispatcher,
		router:     router,
		ttl:        ttl,
		compiler:   opts.ExpressionCompiler,
		logger:     opts.Logger,
		isGsi:      opts.isGsi,
	}

	if !t.isGsi {
		gsis, err := loadGsiManager(t)
		if err != nil {
			return nil, err
		}
		t.gsis = gsis
	}

	return t, nil
}
