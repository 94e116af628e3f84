package rtplugin

// workRingCapacity bounds the number of in-flight async work items per
// instance. Must be a power of two (spscRing's requirement). LV2-style
// worker requests are rare (patch restores, sample loads) relative to the
// audio block rate, so a small ring is enough; §4.2 only requires that the
// RT thread never block scheduling one.
const workRingCapacity = 16

// workItem is one payload crossing the RT/non-RT boundary in either
// direction. maxPayload bounds it to a fixed size so the RT side never
// allocates when scheduling work.
const maxPayload = 256

type workItem struct {
	data [maxPayload]byte
	n    int
}

// WorkRing carries the optional LV2-style worker extension: the RT thread
// schedules work for a non-RT worker goroutine to perform, and later
// receives the worker's response back on the RT thread. Both directions are
// lock-free spscRing instances (§4.2's "worker accumulator").
type WorkRing struct {
	requests  *spscRing[workItem]
	responses *spscRing[workItem]
}

// NewWorkRing allocates a WorkRing with the given per-direction capacity.
func NewWorkRing(capacityPow2 int) *WorkRing {
	return &WorkRing{
		requests:  newSPSCRing[workItem](capacityPow2),
		responses: newSPSCRing[workItem](capacityPow2),
	}
}

// ScheduleWork is called from the RT thread. Payloads larger than
// maxPayload are truncated rather than allocated around, since a plugin
// requesting work that large is already outside the extension's intended
// use (scheduling a patch restore or sample load handle, not raw audio).
func (r *WorkRing) ScheduleWork(payload []byte) {
	var item workItem
	item.n = copy(item.data[:], payload)
	r.requests.TryPush(item)
}

// TakeWork is called from the worker goroutine to retrieve the next
// scheduled request, if any.
func (r *WorkRing) TakeWork() ([]byte, bool) {
	item, ok := r.requests.TryPop()
	if !ok {
		return nil, false
	}
	return item.data[:item.n], true
}

// DeliverResponse is called from the worker goroutine once it has completed
// a request, to hand the result back toward the RT thread.
func (r *WorkRing) DeliverResponse(payload []byte) {
	var item workItem
	item.n = copy(item.data[:], payload)
	r.responses.TryPush(item)
}

// TakeResponse is called from the RT thread to drain any worker responses
// ready for delivery back into the plugin.
func (r *WorkRing) TakeResponse() ([]byte, bool) {
	item, ok := r.responses.TryPop()
	if !ok {
		return nil, false
	}
	return item.data[:item.n], true
}
