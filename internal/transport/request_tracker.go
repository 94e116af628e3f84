package transport

import (
	"sync"

	"github.com/patchmind/patchmind/internal/rtplugin"
)

// RequestTracker hands out monotonic request ids for OpenPluginUi and
// decides whether a given id is still the current, non-superseded request
// for an instance (§4.3: "superseding requests for the same instance
// invalidate earlier ones").
type RequestTracker struct {
	counter requestCounter

	mu      sync.Mutex
	current map[rtplugin.InstanceID]uint64
}

// NewRequestTracker creates an empty tracker.
func NewRequestTracker() *RequestTracker {
	return &RequestTracker{current: make(map[rtplugin.InstanceID]uint64)}
}

// Begin issues a new request id for instance and records it as the current
// one, superseding any request already in flight for that instance.
func (t *RequestTracker) Begin(instance rtplugin.InstanceID) uint64 {
	id := t.counter.next()
	t.mu.Lock()
	t.current[instance] = id
	t.mu.Unlock()
	return id
}

// SetCurrent records requestID as the current request for instance,
// superseding any previous one, without allocating a new id from the
// shared counter. Used when the caller already has a request id from
// elsewhere (e.g. a UI-issued OpenPluginUi command), unlike Begin.
func (t *RequestTracker) SetCurrent(instance rtplugin.InstanceID, requestID uint64) {
	t.mu.Lock()
	t.current[instance] = requestID
	t.mu.Unlock()
}

// IsCurrent reports whether requestID is still the most recent request
// issued for instance. A superseded or unknown request returns false.
func (t *RequestTracker) IsCurrent(instance rtplugin.InstanceID, requestID uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current[instance] == requestID
}

// Clear removes an instance's tracked request, e.g. once its window closes.
func (t *RequestTracker) Clear(instance rtplugin.InstanceID) {
	t.mu.Lock()
	delete(t.current, instance)
	t.mu.Unlock()
}
