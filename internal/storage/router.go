package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"path/filepath"
	"sync"
)

const partitionsDirName = "_partitions"

// PartitionID returns the lowercase hex SHA-256 of pk's UTF-8 bytes,
// the deterministic directory name a partition key routes to.
func PartitionID(pk string) string {
	sum := sha256.Sum256([]byte(pk))
	return hex.EncodeToString(sum[:])
}

// Router hashes a partition key to a stable directory under
// <root>/_partitions/<partition_id> and hands out Partition handles for
// it. Partitions are value-like (just a path); the cache below is a
// performance optimization only, since recomputing a handle is always
// correct.
type Router struct {
	root   string
	sink   EventSink
	logger *log.Logger

	mu    sync.Mutex
	cache map[string]*Partition
}

// NewRouter returns a Router rooted at root, whose Partitions emit
// events to sink.
func NewRouter(root string, sink EventSink, logger *log.Logger) *Router {
	return &Router{
		root:   root,
		sink:   sink,
		logger: logger,
		cache:  make(map[string]*Partition),
	}
}

// Resolve returns the Partition that pk routes to, creating and
// caching a handle on first use. The partition's file is created
// lazily on first write; resolving a handle does no I/O.
func (r *Router) Resolve(pk string) *Partition {
	id := PartitionID(pk)

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.cache[id]; ok {
		return p
	}

	dir := filepath.Join(r.root, partitionsDirName, id)
	p := New(dir, r.sink, r.logger)
	r.cache[id] = p
	return p
}

// ResolveByID returns the Partition for a partition_id already known to
// the caller (typically from PartitionIDs), without hashing a key. Used
// by Scan to iterate every partition directory on disk.
func (r *Router) ResolveByID(id string) *Partition {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.cache[id]; ok {
		return p
	}

	dir := filepath.Join(r.root, partitionsDirName, id)
	p := New(dir, r.sink, r.logger)
	r.cache[id] = p
	return p
}

// PartitionIDs lists every partition directory that currently exists
// under the root, used by Scan to enumerate every partition. It does
// not require partitions to have been resolved through this Router
// first, so it reflects partitions written by a previous process.
func (r *Router) PartitionIDs() ([]string, error) {
	entries, err := readDirNames(filepath.Join(r.root, partitionsDirName))
	if err != nil {
		return nil, err
	}
	return entries, nil
}
