package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/goccy/go-json"
)

// BackupStore persists the live rule set and keeps timestamped backups of
// every prior version, grounded on the teacher's backup manager: a primary
// file overwritten on each save, with a dated copy written first (§4.4:
// "each mutation... writes a timestamped backup copy before overwrite;
// backups are enumerable and restorable").
type BackupStore struct {
	dir         string
	primaryPath string
}

// NewBackupStore creates a store rooted at dir, which must already exist.
func NewBackupStore(dir string) *BackupStore {
	return &BackupStore{dir: dir, primaryPath: filepath.Join(dir, "rules.json")}
}

// SaveWithBackup writes rules as the new primary rule set, first copying
// whatever the primary file currently holds into a timestamped backup file
// (if one exists yet).
func (s *BackupStore) SaveWithBackup(rules []Rule) error {
	if err := s.backupExisting(); err != nil {
		return fmt.Errorf("rules: backup existing rule set: %w", err)
	}
	return writeJSONAtomic(s.primaryPath, rules)
}

func (s *BackupStore) backupExisting() error {
	data, err := os.ReadFile(s.primaryPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	name := fmt.Sprintf("rules-%s.json", time.Now().UTC().Format("20060102T150405.000000000Z"))
	return os.WriteFile(filepath.Join(s.dir, name), data, 0o644)
}

// Load reads the primary rule set, returning an empty set if none exists
// yet.
func (s *BackupStore) Load() ([]Rule, error) {
	data, err := os.ReadFile(s.primaryPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("rules: decode rule set: %w", err)
	}
	return rules, nil
}

// Backups enumerates available backup filenames, most recent first.
func (s *BackupStore) Backups() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Base(e.Name()) != "rules.json" {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// Restore loads a named backup and writes it over the primary file (itself
// backing up the outgoing primary first, so a restore is itself
// undoable).
func (s *BackupStore) Restore(name string) ([]Rule, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("rules: read backup %q: %w", name, err)
	}
	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("rules: decode backup %q: %w", name, err)
	}
	if err := s.SaveWithBackup(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// writeJSONAtomic marshals v and writes it to path via write-temp-then-
// rename, matching §4.6's crash-consistency requirement for every persisted
// document, rule backups included.
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
