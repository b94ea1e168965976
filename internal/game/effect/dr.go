package effect

import "time"

// BlockedImmune is the reason reported when a DR ladder has reached
// multiplier zero for the target.
const BlockedImmune = "immune"

// DRConfig tunes crowd-control diminishing returns.
type DRConfig struct {
	// Window is the rolling period within which repeated applications of a
	// gated tag advance the ladder.
	Window time.Duration
	// Multipliers is the ladder of duration/potency scales indexed by the
	// number of prior applications inside the window. The final entry applies
	// to all further applications; a final entry of 0 means immune.
	Multipliers []float64
	// Tags is the set of effect tags subject to DR.
	Tags []string
}

// DefaultDRConfig returns the standard crowd-control DR policy: an 18 second
// window with a full / half / immune ladder over the stun, root, and fear tags.
func DefaultDRConfig() DRConfig {
	return DRConfig{
		Window:      18 * time.Second,
		Multipliers: []float64{1, 0.5, 0},
		Tags:        []string{"stun", "root", "fear"},
	}
}

// DRTracker tracks per-tag application history for one target.
// It is not safe for concurrent use.
type DRTracker struct {
	cfg     DRConfig
	applied map[string][]time.Time
}

// NewDRTracker creates a tracker for one target using cfg.
// A zero-valued cfg disables DR entirely (no gated tags).
func NewDRTracker(cfg DRConfig) *DRTracker {
	return &DRTracker{cfg: cfg, applied: make(map[string][]time.Time)}
}

// gatedTag returns the first tag of def subject to DR, or "" if none.
func (t *DRTracker) gatedTag(def *Def) string {
	for _, gated := range t.cfg.Tags {
		if def.HasTag(gated) {
			return gated
		}
	}
	return ""
}

// Preview reports the multiplier the next application of def would receive at
// now, without recording anything. Effects with no gated tag always receive 1.
//
// Postcondition: No tracker state is modified. A returned multiplier of 0
// means the target is immune and the application must be denied before any
// resource spend or cooldown start.
func (t *DRTracker) Preview(def *Def, now time.Time) float64 {
	tag := t.gatedTag(def)
	if tag == "" || len(t.cfg.Multipliers) == 0 {
		return 1
	}
	// Count in place rather than through pruneWindow so the tracker really
	// is left untouched.
	count := 0
	cutoff := now.Add(-t.cfg.Window)
	for _, at := range t.applied[tag] {
		if at.After(cutoff) {
			count++
		}
	}
	idx := count
	if idx >= len(t.cfg.Multipliers) {
		idx = len(t.cfg.Multipliers) - 1
	}
	return t.cfg.Multipliers[idx]
}

// Record registers a successful application of def at now, advancing the
// ladder for its gated tag. No-op for effects with no gated tag.
func (t *DRTracker) Record(def *Def, now time.Time) {
	tag := t.gatedTag(def)
	if tag == "" {
		return
	}
	t.pruneWindow(tag, now)
	t.applied[tag] = append(t.applied[tag], now)
}

// pruneWindow drops applications older than the window from tag's history.
func (t *DRTracker) pruneWindow(tag string, now time.Time) {
	history := t.applied[tag]
	if len(history) == 0 {
		return
	}
	cutoff := now.Add(-t.cfg.Window)
	kept := history[:0]
	for _, at := range history {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	if len(kept) == 0 {
		delete(t.applied, tag)
		return
	}
	t.applied[tag] = kept
}

// PreviewDR reports the DR multiplier the next application of def would
// receive on this set's owner at now, without mutating any state. Callers
// must use this to deny gated applications before spending resources or
// starting cooldowns.
func (s *ActiveSet) PreviewDR(def *Def, now time.Time) float64 {
	return s.dr.Preview(def, now)
}
