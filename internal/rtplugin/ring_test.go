package rtplugin

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestSPSCRingPushPop(t *testing.T) {
	r := newSPSCRing[int](4)
	if ok := r.TryPush(1); !ok {
		t.Fatal("push into empty ring should not evict")
	}
	r.TryPush(2)
	r.TryPush(3)

	v, ok := r.TryPop()
	if !ok || v != 1 {
		t.Fatalf("got (%d, %v), want (1, true)", v, ok)
	}
}

func TestSPSCRingDropsOldestWhenFull(t *testing.T) {
	r := newSPSCRing[int](4)
	for i := 0; i < 4; i++ {
		if ok := r.TryPush(i); !ok {
			t.Fatalf("push %d should not evict yet", i)
		}
	}
	// Ring now full [0,1,2,3]; next push must evict 0.
	if ok := r.TryPush(4); ok {
		t.Fatal("push into full ring must report eviction")
	}
	v, _ := r.TryPop()
	if v != 1 {
		t.Fatalf("oldest surviving entry = %d, want 1 (0 should have been dropped)", v)
	}
}

func TestSPSCRingPopEmpty(t *testing.T) {
	r := newSPSCRing[int](2)
	if _, ok := r.TryPop(); ok {
		t.Fatal("pop from empty ring should fail")
	}
}

// wideEntry is large enough that a torn read (half-old, half-new) is
// detectable: a correctly published value always has b == a*2.
type wideEntry struct {
	a, b, c, d uint64
}

// TestSPSCRingConcurrentPushPopNeverTears drives TryPush from one goroutine
// and TryPop from another against a small ring, forcing constant eviction.
// Every entry TryPop returns must satisfy wideEntry's invariant: if the
// producer's unconditional overwrite of the oldest slot ever raced a
// consumer read without the seqlock catching it, some popped entry would
// fail this check (or the test would deadlock/panic under -race).
func TestSPSCRingConcurrentPushPopNeverTears(t *testing.T) {
	r := newSPSCRing[wideEntry](8)
	const n = 200000

	var wg sync.WaitGroup
	wg.Add(2)
	var produced atomic.Bool

	go func() {
		defer wg.Done()
		for i := uint64(0); i < n; i++ {
			r.TryPush(wideEntry{a: i, b: i * 2, c: i, d: i})
		}
		produced.Store(true)
	}()

	// Drop-oldest eviction means the consumer sees only some of the n
	// entries, so it stops once the producer is done and the ring is empty.
	go func() {
		defer wg.Done()
		for {
			done := produced.Load()
			v, ok := r.TryPop()
			if !ok {
				if done {
					return
				}
				continue
			}
			if v.b != v.a*2 || v.c != v.a || v.d != v.a {
				t.Errorf("torn or corrupted entry: %+v", v)
				return
			}
		}
	}()

	wg.Wait()
}

func TestSPSCRingPanicsOnNonPowerOfTwo(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-power-of-two capacity")
		}
	}()
	newSPSCRing[int](3)
}
