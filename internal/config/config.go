// Package config loads and validates Preferences (§6): the recognized
// settings keys, layered defaults -> optional YAML file -> environment
// overrides, grounded on the teacher's internal/config/koanf.go layering.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Preferences holds every recognized setting from §6's table. All persist
// immediately on set, via internal/persistence's "preferences" document;
// this struct is just the typed, validated shape of that document.
type Preferences struct {
	StartMinimized       bool `koanf:"start_minimized" validate:"-"`
	CloseToTray          bool `koanf:"close_to_tray" validate:"-"`
	AutoLearnRules       bool `koanf:"auto_learn_rules" validate:"-"`
	RuleSettleMs         int  `koanf:"rule_settle_ms" validate:"gte=0,lte=1000"`
	PollIntervalMs       int  `koanf:"poll_interval_ms" validate:"gte=16,lte=500"`
	PwTickIntervalMs     int  `koanf:"pw_tick_interval_ms" validate:"gte=1,lte=200"`
	PwOperationCooldownMs int `koanf:"pw_operation_cooldown_ms" validate:"gte=10,lte=5000"`
	ParamsPersistMs      int  `koanf:"params_persist_ms" validate:"gte=100,lte=60000"`
	LinksPersistMs       int  `koanf:"links_persist_ms" validate:"gte=100,lte=60000"`
}

// DefaultPreferences returns the §6 defaults.
func DefaultPreferences() Preferences {
	return Preferences{
		StartMinimized:        false,
		CloseToTray:           false,
		AutoLearnRules:        true,
		RuleSettleMs:          50,
		PollIntervalMs:        100,
		PwTickIntervalMs:      10,
		PwOperationCooldownMs: 50,
		ParamsPersistMs:       1000,
		LinksPersistMs:        2000,
	}
}

func (p Preferences) RuleSettle() time.Duration {
	return time.Duration(p.RuleSettleMs) * time.Millisecond
}

func (p Preferences) PollInterval() time.Duration {
	return time.Duration(p.PollIntervalMs) * time.Millisecond
}

func (p Preferences) PwTickInterval() time.Duration {
	return time.Duration(p.PwTickIntervalMs) * time.Millisecond
}

func (p Preferences) PwOperationCooldown() time.Duration {
	return time.Duration(p.PwOperationCooldownMs) * time.Millisecond
}

func (p Preferences) ParamsPersist() time.Duration {
	return time.Duration(p.ParamsPersistMs) * time.Millisecond
}

func (p Preferences) LinksPersist() time.Duration {
	return time.Duration(p.LinksPersistMs) * time.Millisecond
}

var validate = validator.New()

// Load layers defaults, an optional YAML file at path (skipped if it does
// not exist), and environment variables prefixed PATCHMIND_ (e.g.
// PATCHMIND_RULE_SETTLE_MS), following the teacher's koanf.go three-layer
// shape. The result is validated against the bounds in the §6 table before
// being returned.
func Load(path string) (Preferences, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultPreferences(), "koanf"), nil); err != nil {
		return Preferences{}, fmt.Errorf("config: load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Preferences{}, fmt.Errorf("config: load %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Preferences{}, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("PATCHMIND_", ".", envKeyMap), nil); err != nil {
		return Preferences{}, fmt.Errorf("config: load environment: %w", err)
	}

	var prefs Preferences
	if err := k.Unmarshal("", &prefs); err != nil {
		return Preferences{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validate.Struct(prefs); err != nil {
		return Preferences{}, fmt.Errorf("config: invalid preferences: %w", err)
	}
	return prefs, nil
}
