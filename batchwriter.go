package dynafile

import "sync"

// BatchWriter is a scoped accumulator of pending write actions. Put and
// Delete append to an internal ordered queue; Flush (and Close, its
// scope-exit alias) hands the queue to Table.ExecuteBatch. Flushing an
// empty queue is a no-op, so Close is always safe to call after an
// explicit Flush.
type BatchWriter struct {
	table *Table

	mu      sync.Mutex
	pending []WriteAction
}

// BatchWriter returns a new scoped accumulator for t. The conventional
// use is:
//
//	bw := t.BatchWriter()
//	defer bw.Close()
//	bw.Put(item)
//	bw.Delete(key)
func (t *Table) BatchWriter() *BatchWriter {
	t.batchMu.Lock()
	defer t.batchMu.Unlock()

	if prev := t.activeBatch; prev != nil {
		t.logger.Printf("batch_writer: reentered before the prior writer was closed, its pending queue is dropped")
		prev.mu.Lock()
		prev.pending = nil
		prev.mu.Unlock()
	}
	bw := &BatchWriter{table: t}
	t.activeBatch = bw
	return bw
}

func (t *Table) clearActiveBatch(w *BatchWriter) {
	t.batchMu.Lock()
	defer t.batchMu.Unlock()
	if t.activeBatch == w {
		t.activeBatch = nil
	}
}

// Put appends a put action to the pending queue.
func (w *BatchWriter) Put(item Item) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, WriteAction{Kind: ActionPut, Item: item})
}

// Delete appends a delete action to the pending queue.
func (w *BatchWriter) Delete(key Key) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, WriteAction{Kind: ActionDelete, Key: key})
}

// Flush submits every pending action to the table and empties the
// queue, regardless of whether the submission succeeds.
func (w *BatchWriter) Flush() error {
	w.mu.Lock()
	actions := w.pending
	w.pending = nil
	w.mu.Unlock()

	if len(actions) == 0 {
		return nil
	}
	return w.table.ExecuteBatch(actions)
}

// Close flushes any remaining pending actions. It is the scope-exit
// hook: call it via defer immediately after obtaining the writer so
// pending writes are submitted on every exit path.
func (w *BatchWriter) Close() error {
	err := w.Flush()
	w.table.clearActiveBatch(w)
	return err
}
