package capture

import "sync/atomic"

type envelope[T any] struct {
	value *T
	seq   uint64
}

// Mailbox is a single-slot hand-off between a producer and a consumer
// running at different rates. Publish overwrites whatever is there and
// Latest never blocks; values the consumer did not see are lost.
type Mailbox[T any] struct {
	slot atomic.Pointer[envelope[T]]
}

// Publish replaces the current value.
func (m *Mailbox[T]) Publish(v *T) {
	for {
		old := m.slot.Load()
		var seq uint64
		if old != nil {
			seq = old.seq
		}
		if m.slot.CompareAndSwap(old, &envelope[T]{value: v, seq: seq + 1}) {
			return
		}
	}
}

// Latest returns the most recent value and its sequence number. The
// sequence starts at 1 and increases with every Publish; it is 0 and the
// value nil before the first Publish.
func (m *Mailbox[T]) Latest() (*T, uint64) {
	e := m.slot.Load()
	if e == nil {
		return nil, 0
	}
	return e.value, e.seq
}
