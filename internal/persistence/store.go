package persistence

import (
	"path/filepath"
	"time"

	"github.com/patchmind/patchmind/internal/config"
)

// Store owns seven of the eight documents in §4.6's table: the eighth,
// rules, is persisted by internal/rules.BackupStore directly (its backup
// requirement means its save path already needs a dedicated type; no
// benefit to routing it through a generic Debounced as well).
type Store struct {
	Preferences *Debounced[config.Preferences]
	Plugins     *Debounced[[]PluginRecord]
	Links       *Debounced[[]LinkRecord]
	Layout      *Debounced[map[string]LayoutEntry]
	Hidden      *Debounced[[]string]
	Viewport    *Debounced[Viewport]
	Window      *Debounced[WindowGeometry]
}

// NewStore wires up every document under dir, using prefs' own persist
// intervals for the two documents whose debounce is itself configurable
// (§6: params_persist_ms, links_persist_ms); the rest use the fixed
// intervals from §4.6's table.
func NewStore(dir string, prefs config.Preferences) *Store {
	return &Store{
		Preferences: NewDebounced[config.Preferences](filepath.Join(dir, "preferences.json"), 0),
		Plugins:     NewDebounced[[]PluginRecord](filepath.Join(dir, "plugins.json"), prefs.ParamsPersist()),
		Links:       NewDebounced[[]LinkRecord](filepath.Join(dir, "links.json"), prefs.LinksPersist()),
		Layout:      NewDebounced[map[string]LayoutEntry](filepath.Join(dir, "layout.json"), layoutDebounce),
		Hidden:      NewDebounced[[]string](filepath.Join(dir, "hidden.json"), 0),
		Viewport:    NewDebounced[Viewport](filepath.Join(dir, "viewport.json"), layoutDebounce),
		Window:      NewDebounced[WindowGeometry](filepath.Join(dir, "window.json"), layoutDebounce),
	}
}

// layoutDebounce is the fixed 500ms debounce §4.6's table gives layout,
// viewport, and window (unlike plugins/links, these are not configurable
// preferences).
const layoutDebounce = 500 * time.Millisecond

// SetFailureHandler registers f, called with a document's name and the
// final error whenever that document's Flush fails even after its one
// retry (§7). Callers (e.g. audioserver.Worker) wire this to an Error
// event so a persistence failure is surfaced to the user rather than only
// logged.
func (s *Store) SetFailureHandler(f func(doc string, err error)) {
	s.Preferences.SetOnFailure(func(err error) { f("preferences", err) })
	s.Plugins.SetOnFailure(func(err error) { f("plugins", err) })
	s.Links.SetOnFailure(func(err error) { f("links", err) })
	s.Layout.SetOnFailure(func(err error) { f("layout", err) })
	s.Hidden.SetOnFailure(func(err error) { f("hidden", err) })
	s.Viewport.SetOnFailure(func(err error) { f("viewport", err) })
	s.Window.SetOnFailure(func(err error) { f("window", err) })
}

// LoadAll loads every document from disk, leaving any missing document at
// its zero value (a first run with nothing persisted yet).
func (s *Store) LoadAll() error {
	for _, load := range []func() error{
		func() error { _, err := s.Preferences.Load(); return err },
		func() error { _, err := s.Plugins.Load(); return err },
		func() error { _, err := s.Links.Load(); return err },
		func() error { _, err := s.Layout.Load(); return err },
		func() error { _, err := s.Hidden.Load(); return err },
		func() error { _, err := s.Viewport.Load(); return err },
		func() error { _, err := s.Window.Load(); return err },
	} {
		if err := load(); err != nil {
			return err
		}
	}
	return nil
}

// FlushAll synchronously writes every document with pending changes,
// required on process exit (§4.6).
func (s *Store) FlushAll() error {
	var firstErr error
	for _, flush := range []func() error{
		s.Preferences.Flush,
		s.Plugins.Flush,
		s.Links.Flush,
		s.Layout.Flush,
		s.Hidden.Flush,
		s.Viewport.Flush,
		s.Window.Flush,
	} {
		if err := flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
