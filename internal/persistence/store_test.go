package persistence

import (
	"path/filepath"
	"testing"

	"github.com/patchmind/patchmind/internal/config"
)

func TestStoreFlushAllWritesEveryDocument(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, config.DefaultPreferences())

	store.Preferences.Set(config.DefaultPreferences())
	store.Plugins.Set([]PluginRecord{{URI: "urn:test:plugin"}})
	store.Hidden.Set([]string{"some::layout::key"})

	if err := store.FlushAll(); err != nil {
		t.Fatal(err)
	}

	reloaded := NewStore(dir, config.DefaultPreferences())
	if err := reloaded.LoadAll(); err != nil {
		t.Fatal(err)
	}
	if len(reloaded.Plugins.Get()) != 1 {
		t.Fatalf("expected 1 persisted plugin record, got %d", len(reloaded.Plugins.Get()))
	}
	if len(reloaded.Hidden.Get()) != 1 {
		t.Fatalf("expected 1 persisted hidden entry, got %d", len(reloaded.Hidden.Get()))
	}
}

func TestStoreSetFailureHandlerNamesTheFailingDocument(t *testing.T) {
	// Point Plugins at a path under a nonexistent directory so its Flush
	// fails even after retrying.
	dir := t.TempDir()
	store := NewStore(dir, config.DefaultPreferences())
	store.Plugins = NewDebounced[[]PluginRecord](filepath.Join(dir, "missing", "plugins.json"), 0)

	var failedDoc string
	store.SetFailureHandler(func(doc string, _ error) {
		failedDoc = doc
	})

	store.Plugins.Set([]PluginRecord{{URI: "urn:test:plugin"}})

	if failedDoc != "plugins" {
		t.Fatalf("expected failure handler to be called with doc %q, got %q", "plugins", failedDoc)
	}
}
