package recurrence

import "github.com/google/uuid"

// ObserverFunc is called synchronously after every mutation of the
// recurrence it is registered on. The engine holds only the closure and
// makes no assumption about the owner's lifetime; unregister with the token
// before the owner goes away.
type ObserverFunc func(*Recurrence)

type observerEntry struct {
	id uuid.UUID
	fn ObserverFunc
}

// Observe registers fn and returns the token that removes it again.
func (r *Recurrence) Observe(fn ObserverFunc) uuid.UUID {
	id := uuid.New()
	r.observers = append(r.observers, observerEntry{id: id, fn: fn})
	return id
}

// Unobserve removes the observer registered under id. Unknown tokens are
// ignored.
func (r *Recurrence) Unobserve(id uuid.UUID) {
	for i, o := range r.observers {
		if o.id == id {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

// updated notifies observers in registration order.
func (r *Recurrence) updated() {
	for _, o := range r.observers {
		o.fn(r)
	}
}
