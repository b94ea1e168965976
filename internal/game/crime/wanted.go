package crime

import (
	"time"

	"go.uber.org/zap"
)

// Severity grades a recorded crime.
type Severity string

const (
	SeverityMinor  Severity = "minor"
	SeveritySevere Severity = "severe"
)

// State is the per-character crime bookkeeping, mutated only by this package.
type State struct {
	// WantedUntil is when the wanted window lapses; zero means never wanted.
	WantedUntil time.Time
	// Severity is the grade of the most recent recorded crime.
	Severity Severity
}

// Wanted reports whether the character is inside a wanted window at now.
func (s *State) Wanted(now time.Time) bool {
	return !s.WantedUntil.IsZero() && now.Before(s.WantedUntil)
}

// VictimInfo describes the attacked NPC as far as crime recording needs:
// its prototype tags and guard response profile. A nil VictimInfo models an
// unresolvable prototype.
type VictimInfo struct {
	Tags []string
	// GuardProfile selects the guard-call radius: "village", "town", "city".
	GuardProfile string
	// GuardRadiusOverride, when > 0, wins over the profile radius.
	GuardRadiusOverride float64
}

// Details describes the triggering hit.
type Details struct {
	// Lethal marks a killing blow; it escalates severity.
	Lethal bool
	// NewHP is the victim's hit points after the hit.
	NewHP int
}

// Response reports the bookkeeping outcome of a recorded crime.
type Response struct {
	Severity    Severity
	WantedUntil time.Time
	// GuardRadius is how far the guard call carries.
	GuardRadius float64
}

// Config tunes wanted windows and guard-call radii.
type Config struct {
	// MinorWindow is the wanted grace period for a first, non-lethal offence.
	MinorWindow time.Duration
	// SevereWindow is the extended period for lethal hits or repeat offenders.
	SevereWindow time.Duration
	// ProfileRadii maps guard profiles to call radii.
	ProfileRadii map[string]float64
	// DefaultRadius applies when the profile is unknown or empty.
	DefaultRadius float64
}

// DefaultConfig returns the standard crime policy.
func DefaultConfig() Config {
	return Config{
		MinorWindow:  90 * time.Second,
		SevereWindow: 5 * time.Minute,
		ProfileRadii: map[string]float64{
			"village": 30,
			"town":    50,
			"city":    80,
		},
		DefaultRadius: 30,
	}
}

// Recorder applies crime bookkeeping against attacker states.
type Recorder struct {
	cfg    Config
	logger *zap.Logger
}

// NewRecorder creates a Recorder. A nil logger is replaced with a no-op.
func NewRecorder(cfg Config, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{cfg: cfg, logger: logger}
}

// RecordAgainst registers a crime by the attacker against the victim NPC.
//
// Unresolvable prototypes and non-protected victims produce no bookkeeping:
// the call logs and reports ok=false, failing open, because availability of
// combat outranks crime accounting. Otherwise the attacker is marked wanted
// for the minor window, or the severe window when the hit was lethal or the
// attacker was already wanted, and the guard-call radius is resolved from the
// victim's override, profile, or the default.
//
// Precondition: attacker must be non-nil.
// Postcondition: attacker.WantedUntil never decreases.
func (r *Recorder) RecordAgainst(victim *VictimInfo, attacker *State, d Details, now time.Time) (Response, bool) {
	if victim == nil {
		r.logger.Warn("crime record skipped: victim prototype unresolvable")
		return Response{}, false
	}
	if !IsProtected(victim.Tags) {
		return Response{}, false
	}

	severity := SeverityMinor
	window := r.cfg.MinorWindow
	if d.Lethal || attacker.Wanted(now) {
		severity = SeveritySevere
		window = r.cfg.SevereWindow
	}

	until := now.Add(window)
	if until.After(attacker.WantedUntil) {
		attacker.WantedUntil = until
	}
	attacker.Severity = severity

	radius := victim.GuardRadiusOverride
	if radius <= 0 {
		radius = r.cfg.ProfileRadii[victim.GuardProfile]
	}
	if radius <= 0 {
		radius = r.cfg.DefaultRadius
	}

	r.logger.Info("crime recorded",
		zap.String("severity", string(severity)),
		zap.Time("wanted_until", attacker.WantedUntil),
		zap.Float64("guard_radius", radius),
		zap.Bool("lethal", d.Lethal),
	)
	return Response{Severity: severity, WantedUntil: attacker.WantedUntil, GuardRadius: radius}, true
}
