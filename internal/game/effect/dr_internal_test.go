package effect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDRTracker_PreviewLeavesHistoryIntact(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tr := NewDRTracker(DefaultDRConfig())
	def := &Def{ID: "bash", Name: "Bash", Stacking: StackingRefresh,
		Duration: 4 * time.Second, Tags: []string{"stun"}}

	tr.Record(def, t0)
	tr.Record(def, t0.Add(5*time.Second))

	// Well past the window: the aged-out entries must survive a Preview.
	later := t0.Add(time.Hour)
	assert.Equal(t, 1.0, tr.Preview(def, later))
	assert.Len(t, tr.applied["stun"], 2, "Preview must not prune history")

	// Record still prunes on its own.
	tr.Record(def, later)
	assert.Len(t, tr.applied["stun"], 1)
}
