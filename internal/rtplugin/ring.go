package rtplugin

import "sync/atomic"

// ringSlot pairs a value with a seqlock counter: even means stable, odd
// means the producer is mid-write. The producer is the only writer of both
// seq and val; the consumer only ever reads them, retrying its read if it
// observes a write in progress or straddles one. This is what lets TryPush
// evict the oldest entry by overwriting its slot without ever touching
// tail, which only the consumer advances.
type ringSlot[T any] struct {
	seq atomic.Uint64
	val T
}

// spscRing is a bounded, lock-free, single-producer/single-consumer ring
// buffer. It is the generic primitive behind the worker ring (§4.2's
// "worker accumulator"); the parameter ring itself uses the coalescing
// refinement in params.go instead (see that file's doc comment for why).
//
// Capacity must be a power of two. TryPush never blocks and never
// allocates; when the ring is full it evicts the oldest unread entry and
// reports that an overwrite occurred, matching §4.2's drop-oldest policy.
// head is producer-owned and tail is consumer-owned, with no exception:
// eviction is implemented by the producer unconditionally overwriting the
// slot at head (never by writing tail itself), and the consumer detecting
// how far it has fallen behind from head and tail alone.
type spscRing[T any] struct {
	buf  []ringSlot[T]
	mask uint64
	head atomic.Uint64 // next write index, producer-owned
	tail atomic.Uint64 // next read index, consumer-owned
}

func newSPSCRing[T any](capacityPow2 int) *spscRing[T] {
	if capacityPow2 <= 0 || capacityPow2&(capacityPow2-1) != 0 {
		panic("rtplugin: ring capacity must be a positive power of two")
	}
	return &spscRing[T]{
		buf:  make([]ringSlot[T], capacityPow2),
		mask: uint64(capacityPow2 - 1),
	}
}

// TryPush writes v into the ring. It returns false if the ring was already
// full at the moment of this call, meaning the oldest unread entry is being
// evicted to make room (drop-oldest); true otherwise. Never blocks, never
// allocates, and never advances or writes tail — only head and the slot at
// head are touched, so a concurrent TryPop can never race this store on the
// same field.
func (r *spscRing[T]) TryPush(v T) (ok bool) {
	head := r.head.Load()
	tail := r.tail.Load()
	ok = head-tail < uint64(len(r.buf))

	slot := &r.buf[head&r.mask]
	start := slot.seq.Load()
	slot.seq.Store(start + 1) // odd: write in progress
	slot.val = v
	slot.seq.Store(start + 2) // even: stable, new generation published

	r.head.Store(head + 1)
	return ok
}

// TryPop reads the oldest unread entry, if any. If TryPush has evicted
// entries this side never read, tail is skipped forward to the oldest
// entry still in the buffer before reading, matching TryPush's
// drop-oldest contract. Only tail is written here; head and the slots
// themselves are read-only from this side.
func (r *spscRing[T]) TryPop() (v T, ok bool) {
	tail := r.tail.Load()
	head := r.head.Load()
	if tail >= head {
		return v, false
	}
	if head-tail > uint64(len(r.buf)) {
		tail = head - uint64(len(r.buf))
	}

	slot := &r.buf[tail&r.mask]
	for {
		seq1 := slot.seq.Load()
		if seq1&1 != 0 {
			continue // producer mid-write; spin until it publishes
		}
		v = slot.val
		seq2 := slot.seq.Load()
		if seq1 == seq2 {
			break // read did not straddle a concurrent overwrite
		}
	}

	r.tail.Store(tail + 1)
	return v, true
}

// Len reports the number of unread entries. Approximate under concurrent
// access from the producer, exact from the consumer's own perspective.
func (r *spscRing[T]) Len() int {
	return int(r.head.Load() - r.tail.Load())
}
