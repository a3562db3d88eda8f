// Package credits mirrors the user's server-side credit balance on the client.
//
// The server is the only authority on the balance. The ledger applies
// optimistic deductions so the interface reflects a metered call right away,
// and every authoritative value reported by the server overwrites whatever
// the ledger guessed.
package credits

import (
	"strconv"
	"sync"
)

// Ledger is safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	balance float64
	known   bool

	// epoch changes on every authoritative observation and on Reset.
	epoch uint64
	// version changes on every mutation of balance.
	version uint64

	subs   map[int]func(float64, bool)
	nextID int
}

// NewLedger returns a ledger whose balance is unknown.
func NewLedger() *Ledger {
	return &Ledger{subs: make(map[int]func(float64, bool))}
}

// Observe records the authoritative balance reported by the server as is,
// including a negative one.
func (l *Ledger) Observe(balance float64) {
	l.mu.Lock()
	l.balance = balance
	l.known = true
	l.epoch++
	l.version++
	l.mu.Unlock()
	l.publish()
}

// Balance returns the mirrored balance and whether it has been observed since
// the last Reset.
func (l *Ledger) Balance() (float64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance, l.known
}

// CanAfford reports whether the mirrored balance covers cost. It is an
// advisory pre-flight check; an unknown balance is not allowed to block a
// call the server may well accept.
func (l *Ledger) CanAfford(cost float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.known {
		return true
	}
	return l.balance >= cost
}

// DeductOptimistically subtracts cost from the mirrored balance, clamping at
// zero, and returns a Reservation that can undo the deduction if the metered
// call fails. With an unknown or non-positive balance nothing is deducted.
func (l *Ledger) DeductOptimistically(cost float64) *Reservation {
	l.mu.Lock()
	r := &Reservation{ledger: l, before: l.balance, epoch: l.epoch}
	if l.known && cost > 0 && l.balance > 0 {
		after := max(l.balance-cost, 0)
		r.deducted = l.balance - after
		l.balance = after
		l.version++
	}
	r.version = l.version
	changed := r.deducted > 0
	l.mu.Unlock()

	if changed {
		l.publish()
	}
	return r
}

// Reset forgets the balance. Outstanding reservations become no-ops.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.balance = 0
	l.known = false
	l.epoch++
	l.version++
	l.mu.Unlock()
	l.publish()
}

// Subscribe registers fn to be called with the balance after every change.
// The returned function removes the subscription.
func (l *Ledger) Subscribe(fn func(balance float64, known bool)) func() {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}
}

func (l *Ledger) publish() {
	l.mu.Lock()
	balance, known := l.balance, l.known
	fns := make([]func(float64, bool), 0, len(l.subs))
	for _, fn := range l.subs {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(balance, known)
	}
}

// Reservation is an optimistic deduction awaiting the outcome of a metered
// call.
type Reservation struct {
	ledger   *Ledger
	before   float64
	deducted float64
	epoch    uint64
	version  uint64
	once     sync.Once
}

// Before returns the balance recorded immediately before the deduction.
func (r *Reservation) Before() float64 { return r.before }

// Rollback undoes the deduction after a failed call. If the server reported a
// balance since the reservation was made, that value stands and Rollback does
// nothing. If only other optimistic deductions happened in between, the
// reserved amount is credited back instead of restoring the recorded value.
// Calling Rollback more than once has no further effect.
func (r *Reservation) Rollback() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		l := r.ledger
		l.mu.Lock()
		if r.deducted == 0 || l.epoch != r.epoch {
			l.mu.Unlock()
			return
		}
		if l.version == r.version {
			l.balance = r.before
		} else {
			l.balance += r.deducted
		}
		l.version++
		l.mu.Unlock()
		l.publish()
	})
}

// Format renders a balance the way it is shown to the user: "0", "0.5", "12".
func Format(balance float64) string {
	return strconv.FormatFloat(balance, 'f', -1, 64)
}
