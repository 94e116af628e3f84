package transport

import "context"

// PumpPriority drains cmds with priority over a periodic tick, mirroring
// the teacher's priority-select hub loop (lifecycle events checked
// non-blocking ahead of the main select) so that command processing never
// starves behind a slow consumer of lower-priority work. onCommand and
// onTick are called from the caller's own goroutine (typically the
// server-worker); PumpPriority itself performs no buffering.
func PumpPriority(ctx context.Context, cmds <-chan Command, tick <-chan struct{}, onCommand func(Command), onTick func()) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-cmds:
			onCommand(cmd)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-cmds:
			onCommand(cmd)
		case <-tick:
			onTick()
		}
	}
}

// GraphTransaction batches the Node/Port/Link events produced by a single
// server-reported transition and guarantees GraphChanged is only emitted
// once every contributing event has been posted (§4.3's atomicity
// guarantee), by simply posting everything in argument order followed by
// the version event — callers build one per graph mutation instead of
// emitting events ad hoc.
type GraphTransaction struct {
	events  []Event
	version uint64
}

// NewGraphTransaction starts a transaction that will conclude at the given
// resulting graph version.
func NewGraphTransaction(resultingVersion uint64) *GraphTransaction {
	return &GraphTransaction{version: resultingVersion}
}

// Post appends an event the UI must see before GraphChanged.
func (t *GraphTransaction) Post(ev Event) {
	t.events = append(t.events, ev)
}

// Commit sends every posted event, in order, followed by GraphChanged at
// the transaction's version. It stops at the first dropped send, since a
// dropped GraphChanged still makes the UI re-query (the next transaction's
// GraphChanged carries the newer version), while leaving associated
// fine-grained events only half-applied would desync incremental UI state —
// better to drop the whole batch than apply it partially.
func (t *GraphTransaction) Commit(events *EventChannel) {
	for _, ev := range t.events {
		if !events.Send(ev) {
			return
		}
	}
	events.Send(GraphChanged{Version: t.version})
}
