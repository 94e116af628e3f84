// Package persistence implements the persistence layer (C6): eight named
// JSON documents in a per-user config directory, each independently
// debounced, each written crash-consistently via write-to-temp-then-rename
// (§4.6).
package persistence

import (
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Debounced holds one document's in-memory value and debounce timer,
// grounded on the teacher's backup manager shape (`MetadataStore` plus a
// save path) generalized here to any document type and given the
// write-temp-then-rename crash consistency §4.6 requires that the
// teacher's own `saveMetadataLocked` does not have.
//
// A debounce of zero means "immediate": Set writes synchronously rather
// than arming a timer, matching §4.6's table entries for preferences,
// rules, and hidden.
type Debounced[T any] struct {
	path     string
	debounce time.Duration

	mu        sync.Mutex
	value     T
	timer     *time.Timer
	dirty     bool
	onFailure func(error)
}

// NewDebounced creates a document bound to path with the given debounce.
func NewDebounced[T any](path string, debounce time.Duration) *Debounced[T] {
	return &Debounced[T]{path: path, debounce: debounce}
}

// Set replaces the in-memory value and arms (or re-arms) the debounce
// timer. Every call resets the timer, per §4.6: "every write resets a
// per-document timer; on timer fire the document is serialized once."
func (d *Debounced[T]) Set(v T) {
	d.mu.Lock()
	d.value = v
	d.dirty = true
	immediate := d.debounce <= 0
	if !immediate {
		if d.timer == nil {
			d.timer = time.AfterFunc(d.debounce, func() { _ = d.Flush() })
		} else {
			d.timer.Reset(d.debounce)
		}
	}
	d.mu.Unlock()

	if immediate {
		_ = d.Flush()
	}
}

// Get returns the current in-memory value.
func (d *Debounced[T]) Get() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

// SetOnFailure registers a callback invoked with the final error whenever
// Flush fails even after its one retry (§7: "retried once; second failure
// surfaces an Error event and the in-memory state continues"). The
// in-memory value is left dirty on failure, so a later Set or Flush call
// retries again.
func (d *Debounced[T]) SetOnFailure(f func(error)) {
	d.mu.Lock()
	d.onFailure = f
	d.mu.Unlock()
}

// Flush writes the current value to disk immediately if it has pending
// changes, and is a no-op otherwise. Called both by the debounce timer and
// synchronously on shutdown (§4.6: "on process exit, all pending timers are
// flushed synchronously"). A failed write is retried once before being
// given up on; if the retry also fails, the registered onFailure callback
// (if any) is invoked and the document stays dirty so a later attempt can
// still succeed.
func (d *Debounced[T]) Flush() error {
	d.mu.Lock()
	if !d.dirty {
		d.mu.Unlock()
		return nil
	}
	v := d.value
	d.mu.Unlock()

	err := writeJSONAtomic(d.path, v)
	if err != nil {
		err = writeJSONAtomic(d.path, v)
	}

	d.mu.Lock()
	if err == nil {
		d.dirty = false
	}
	onFailure := d.onFailure
	d.mu.Unlock()

	if err != nil && onFailure != nil {
		onFailure(err)
	}
	return err
}

// Load reads the document from disk into the in-memory value, leaving it
// clean (not dirty — a fresh load is not itself a pending write).
func (d *Debounced[T]) Load() (T, error) {
	var zero T
	data, err := os.ReadFile(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			d.mu.Lock()
			d.value = zero
			d.mu.Unlock()
			return zero, nil
		}
		return zero, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, err
	}
	d.mu.Lock()
	d.value = v
	d.dirty = false
	d.mu.Unlock()
	return v, nil
}

// writeJSONAtomic marshals v and writes it to path via write-temp-then-
// rename, so a crash mid-write never leaves a partially written document.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
