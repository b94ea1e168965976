// Package config provides Viper-based configuration loading for the combat
// core and its dev server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/duskhaven/mudcore/internal/game/crime"
	"github.com/duskhaven/mudcore/internal/game/duel"
	"github.com/duskhaven/mudcore/internal/game/effect"
	"github.com/duskhaven/mudcore/internal/game/threat"
)

// ServerConfig holds top-level dev server settings.
type ServerConfig struct {
	// TickInterval is the fixed-step simulation interval.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// ContentDir is the root directory for effect, NPC, item, and region
	// definitions plus Lua scripts.
	ContentDir string `mapstructure:"content_dir"`
	// ScriptInstructionLimit caps Lua opcodes per hook call; 0 uses the
	// sandbox default.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// DRSection tunes crowd-control diminishing returns.
type DRSection struct {
	Window time.Duration `mapstructure:"window"`
	// Multipliers is the ladder indexed by prior applications in the window;
	// the final entry repeats and a final 0 means immune.
	Multipliers []float64 `mapstructure:"multipliers"`
	Tags        []string  `mapstructure:"tags"`
}

// DecaySection tunes threat decay.
type DecaySection struct {
	PerSec               float64 `mapstructure:"per_sec"`
	PruneBelow           float64 `mapstructure:"prune_below"`
	TankMultiplier       float64 `mapstructure:"tank_multiplier"`
	DPSMultiplier        float64 `mapstructure:"dps_multiplier"`
	HealerMultiplier     float64 `mapstructure:"healer_multiplier"`
	OutOfSightMultiplier float64 `mapstructure:"out_of_sight_multiplier"`
}

// AssistSection tunes pack-assist seeding.
type AssistSection struct {
	Radius        float64 `mapstructure:"radius"`
	SharePct      float64 `mapstructure:"share_pct"`
	MinSeed       float64 `mapstructure:"min_seed"`
	MaxSeed       float64 `mapstructure:"max_seed"`
	MinDelta      float64 `mapstructure:"min_delta"`
	SameGroupOnly bool    `mapstructure:"same_group_only"`
}

// ProcSection tunes gear proc evaluation.
type ProcSection struct {
	ChainEnabled  bool `mapstructure:"chain_enabled"`
	MaxChainDepth int  `mapstructure:"max_chain_depth"`
}

// CombatConfig groups the combat tunables.
type CombatConfig struct {
	DR     DRSection     `mapstructure:"diminishing_returns"`
	Decay  DecaySection  `mapstructure:"threat_decay"`
	Assist AssistSection `mapstructure:"pack_assist"`
	Procs  ProcSection   `mapstructure:"procs"`
}

// DuelConfig holds duel handshake and safety timers.
type DuelConfig struct {
	RequestTTL time.Duration `mapstructure:"request_ttl"`
	DuelTTL    time.Duration `mapstructure:"duel_ttl"`
}

// CrimeConfig holds wanted windows and guard-call radii.
type CrimeConfig struct {
	MinorWindow   time.Duration      `mapstructure:"minor_window"`
	SevereWindow  time.Duration      `mapstructure:"severe_window"`
	ProfileRadii  map[string]float64 `mapstructure:"profile_radii"`
	DefaultRadius float64            `mapstructure:"default_radius"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Combat  CombatConfig  `mapstructure:"combat"`
	Duel    DuelConfig    `mapstructure:"duel"`
	Crime   CrimeConfig   `mapstructure:"crime"`
}

// DRConfig converts the DR section into the effect package's policy.
func (c Config) DRConfig() effect.DRConfig {
	return effect.DRConfig{
		Window:      c.Combat.DR.Window,
		Multipliers: c.Combat.DR.Multipliers,
		Tags:        c.Combat.DR.Tags,
	}
}

// DecayConfig converts the decay section into the threat package's policy.
func (c Config) DecayConfig() threat.DecayConfig {
	return threat.DecayConfig{
		PerSec:               c.Combat.Decay.PerSec,
		PruneBelow:           c.Combat.Decay.PruneBelow,
		TankMultiplier:       c.Combat.Decay.TankMultiplier,
		DPSMultiplier:        c.Combat.Decay.DPSMultiplier,
		HealerMultiplier:     c.Combat.Decay.HealerMultiplier,
		OutOfSightMultiplier: c.Combat.Decay.OutOfSightMultiplier,
	}
}

// AssistConfig converts the assist section into the threat package's policy.
func (c Config) AssistConfig() threat.AssistConfig {
	return threat.AssistConfig{
		Radius:        c.Combat.Assist.Radius,
		SharePct:      c.Combat.Assist.SharePct,
		MinSeed:       c.Combat.Assist.MinSeed,
		MaxSeed:       c.Combat.Assist.MaxSeed,
		MinDelta:      c.Combat.Assist.MinDelta,
		SameGroupOnly: c.Combat.Assist.SameGroupOnly,
	}
}

// DuelServiceConfig converts the duel section into the duel package's policy.
func (c Config) DuelServiceConfig() duel.Config {
	return duel.Config{
		RequestTTL: c.Duel.RequestTTL,
		DuelTTL:    c.Duel.DuelTTL,
	}
}

// CrimeServiceConfig converts the crime section into the crime package's policy.
func (c Config) CrimeServiceConfig() crime.Config {
	return crime.Config{
		MinorWindow:   c.Crime.MinorWindow,
		SevereWindow:  c.Crime.SevereWindow,
		ProfileRadii:  c.Crime.ProfileRadii,
		DefaultRadius: c.Crime.DefaultRadius,
	}
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCombat(c.Combat); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDuel(c.Duel); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCrime(c.Crime); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("server.tick_interval must be > 0, got %s", s.TickInterval))
	}
	if s.ContentDir == "" {
		errs = append(errs, "server.content_dir must not be empty")
	}
	if s.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("server.script_instruction_limit must be >= 0, got %d", s.ScriptInstructionLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateCombat(c CombatConfig) error {
	var errs []string
	if c.DR.Window <= 0 {
		errs = append(errs, fmt.Sprintf("combat.diminishing_returns.window must be > 0, got %s", c.DR.Window))
	}
	if len(c.DR.Multipliers) == 0 {
		errs = append(errs, "combat.diminishing_returns.multipliers must not be empty")
	}
	for i, m := range c.DR.Multipliers {
		if m < 0 || m > 1 {
			errs = append(errs, fmt.Sprintf("combat.diminishing_returns.multipliers[%d] must be in [0, 1], got %g", i, m))
		}
	}
	if c.Decay.PerSec < 0 {
		errs = append(errs, fmt.Sprintf("combat.threat_decay.per_sec must be >= 0, got %g", c.Decay.PerSec))
	}
	if c.Assist.Radius < 0 {
		errs = append(errs, fmt.Sprintf("combat.pack_assist.radius must be >= 0, got %g", c.Assist.Radius))
	}
	if c.Assist.MinSeed > c.Assist.MaxSeed {
		errs = append(errs, "combat.pack_assist.min_seed must not exceed max_seed")
	}
	if c.Procs.MaxChainDepth < 1 {
		errs = append(errs, fmt.Sprintf("combat.procs.max_chain_depth must be >= 1, got %d", c.Procs.MaxChainDepth))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDuel(d DuelConfig) error {
	var errs []string
	if d.RequestTTL <= 0 {
		errs = append(errs, fmt.Sprintf("duel.request_ttl must be > 0, got %s", d.RequestTTL))
	}
	if d.DuelTTL <= 0 {
		errs = append(errs, fmt.Sprintf("duel.duel_ttl must be > 0, got %s", d.DuelTTL))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCrime(c CrimeConfig) error {
	var errs []string
	if c.MinorWindow <= 0 {
		errs = append(errs, fmt.Sprintf("crime.minor_window must be > 0, got %s", c.MinorWindow))
	}
	if c.SevereWindow < c.MinorWindow {
		errs = append(errs, "crime.severe_window must be >= crime.minor_window")
	}
	if c.DefaultRadius <= 0 {
		errs = append(errs, fmt.Sprintf("crime.default_radius must be > 0, got %g", c.DefaultRadius))
	}
	for profile, radius := range c.ProfileRadii {
		if radius <= 0 {
			errs = append(errs, fmt.Sprintf("crime.profile_radii[%s] must be > 0, got %g", profile, radius))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with DUSKHAVEN_ prefix
	v.SetEnvPrefix("DUSKHAVEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	if v == nil {
		return Config{}, errors.New("nil viper instance")
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.tick_interval", "1s")
	v.SetDefault("server.content_dir", "content")
	v.SetDefault("server.script_instruction_limit", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("combat.diminishing_returns.window", "18s")
	v.SetDefault("combat.diminishing_returns.multipliers", []float64{1, 0.5, 0})
	v.SetDefault("combat.diminishing_returns.tags", []string{"stun", "root", "fear"})

	v.SetDefault("combat.threat_decay.per_sec", 10)
	v.SetDefault("combat.threat_decay.prune_below", 0)
	v.SetDefault("combat.threat_decay.tank_multiplier", 0.5)
	v.SetDefault("combat.threat_decay.dps_multiplier", 2)
	v.SetDefault("combat.threat_decay.healer_multiplier", 1)
	v.SetDefault("combat.threat_decay.out_of_sight_multiplier", 3)

	v.SetDefault("combat.pack_assist.radius", 20)
	v.SetDefault("combat.pack_assist.share_pct", 30)
	v.SetDefault("combat.pack_assist.min_seed", 1)
	v.SetDefault("combat.pack_assist.max_seed", 50)
	v.SetDefault("combat.pack_assist.min_delta", 5)
	v.SetDefault("combat.pack_assist.same_group_only", false)

	v.SetDefault("combat.procs.chain_enabled", false)
	v.SetDefault("combat.procs.max_chain_depth", 2)

	v.SetDefault("duel.request_ttl", "60s")
	v.SetDefault("duel.duel_ttl", "15m")

	v.SetDefault("crime.minor_window", "90s")
	v.SetDefault("crime.severe_window", "5m")
	v.SetDefault("crime.profile_radii", map[string]float64{
		"village": 30,
		"town":    50,
		"city":    80,
	})
	v.SetDefault("crime.default_radius", 30)
}
