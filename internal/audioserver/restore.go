package audioserver

import (
	"fmt"

	"github.com/patchmind/patchmind/internal/persistence"
)

// Restore loads every persisted document and rematerializes what it can
// before Serve starts (§4.6). Plugin instances are recreated from the
// persisted table immediately; plugin<->plugin links are only queued in
// the resolver here, since their endpoints are server ids that do not
// exist again until the server announces the corresponding Nodes — the
// caller re-invokes ResolvePendingLinks on every GraphChanged until
// resolver.Pending() reaches zero.
func (w *Worker) Restore() error {
	if err := w.store.LoadAll(); err != nil {
		return fmt.Errorf("audioserver: restore: %w", err)
	}

	rules, err := w.backups.Load()
	if err != nil {
		return fmt.Errorf("audioserver: restore rules: %w", err)
	}
	w.engine.LoadRules(rules)

	w.rematerializePlugins()

	w.resolver = persistence.NewLinkResolver(w.store.Links.Get())
	return nil
}

// rematerializePlugins re-instantiates every persisted plugin instance. A
// failure here is §7's "plugin load during restore failure": the record
// stays in the persisted document so it can be retried on a later restart,
// but is not re-created this session, and the user is told via an Error
// event.
func (w *Worker) rematerializePlugins() {
	for _, rec := range w.store.Plugins.Get() {
		handle, err := w.loader.Instantiate(rec.URI, w.budget)
		if err != nil {
			w.emitError(fmt.Sprintf("could not restore plugin %s: %v", rec.URI, err), 0)
			continue
		}
		for _, p := range handle.Params() {
			if v, ok := rec.Params[p.Index]; ok {
				handle.SetParam(p.Index, v)
			}
		}
		inst := w.arena.Add(handle, w.budget)
		inst.SetBypass(rec.Bypass)
		w.pendingBind = append(w.pendingBind, pendingPluginBind{uri: rec.URI, instance: inst.ID})
	}
}

// ResolvePendingLinks re-attempts every persisted plugin<->plugin link
// still waiting on its endpoint Nodes, requesting the server connect
// whichever ones just resolved. Called after every GraphChanged while
// resolver.Pending() is non-zero.
func (w *Worker) ResolvePendingLinks() {
	if w.resolver == nil || w.resolver.Pending() == 0 {
		return
	}
	for _, link := range w.resolver.Resolve(w.mirror) {
		if err := w.conn.ConnectPorts(link.OutPort, link.InPort); err != nil {
			w.log.Debug().Err(err).Msg("restore: link connect request failed (transient)")
		}
	}
}
