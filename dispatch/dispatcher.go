// Package dispatch implements the synchronous change-event fan-out
// used by a Dynafile table and every GSI it drives. It carries no
// storage-layer dependency: a Dispatcher only knows how to hold and
// invoke listeners in registration order.
package dispatch

import (
	"errors"
	"sync"

	"github.com/dynafile-io/dynafile/internal/core"
)

// Action identifies the kind of mutation an Event records.
type Action string

const (
	Put    Action = "PUT"
	Delete Action = "DELETE"
)

// Event is a change record delivered to registered listeners for every
// PUT or DELETE applied to a table. PUT carries both New and Old (Old
// is nil on insert); DELETE carries only Old.
type Event struct {
	Action Action
	New    core.Item
	Old    core.Item
}

// Listener is the callback every registered listener implements. It
// returns no error, so Emit has none to report; Emit does not recover
// a listener's panic, which therefore propagates to Emit's caller. A
// listener that mutates the emitting table is permitted.
type Listener func(Event)

// ErrListenerNotFound is returned by Unsubscribe when the token does
// not name a currently registered listener.
var ErrListenerNotFound = errors.New("dispatch: listener not registered")

// Token identifies a registration returned by Subscribe, used to
// Unsubscribe a specific listener without relying on Go's limited
// function-value comparability.
type Token uint64

// Dispatcher synchronously delivers events to every currently
// registered listener, in registration order, on the caller's
// goroutine. There is no event queue.
type Dispatcher struct {
	mu        sync.Mutex
	next      Token
	listeners []registration
}

type registration struct {
	token    Token
	listener Listener
}

// New returns an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe appends listener to the dispatch list and returns a token
// that can later be passed to Unsubscribe.
func (d *Dispatcher) Subscribe(listener Listener) Token {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.next++
	token := d.next
	d.listeners = append(d.listeners, registration{token: token, listener: listener})
	return token
}

// Unsubscribe removes the listener registered under token. It returns
// ErrListenerNotFound if no such registration exists.
func (d *Dispatcher) Unsubscribe(token Token) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, reg := range d.listeners {
		if reg.token == token {
			d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
			return nil
		}
	}
	return ErrListenerNotFound
}

// Emit invokes every currently registered listener with event, in
// registration order, on the caller's goroutine. The listener slice is
// snapshotted under lock so a listener that subscribes or unsubscribes
// during emission does not race the dispatcher's own bookkeeping; it
// does not see its own registration take effect mid-emit.
func (d *Dispatcher) Emit(event Event) {
	d.mu.Lock()
	snapshot := make([]registration, len(d.listeners))
	copy(snapshot, d.listeners)
	d.mu.Unlock()

	for _, reg := range snapshot {
		reg.listener(event)
	}
}
