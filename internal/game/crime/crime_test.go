package crime_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskhaven/mudcore/internal/game/crime"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// TestIsProtected_Precedence pins the strict precedence chain over tag sets.
func TestIsProtected_Precedence(t *testing.T) {
	cases := []struct {
		name string
		tags []string
		want bool
	}{
		{"empty", nil, false},
		{"civilian", []string{"civilian"}, true},
		{"vendor", []string{"vendor"}, true},
		{"law_protected", []string{"law_protected"}, true},
		{"exempt beats legacy", []string{"protected_town", "law_exempt"}, false},
		{"exempt beats law_protected", []string{"law_protected", "law_exempt", "protected_town"}, false},
		{"resource overrides all", []string{"resource", "law_protected"}, false},
		{"guard overrides all", []string{"guard", "law_protected"}, false},
		{"training never protected", []string{"training", "civilian", "law_protected"}, false},
		{"hostile beast", []string{"beast", "hostile"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, crime.IsProtected(tc.tags))
		})
	}
}

func protectedVictim() *crime.VictimInfo {
	return &crime.VictimInfo{Tags: []string{"civilian"}, GuardProfile: "town"}
}

func TestRecordAgainst_MinorCrime(t *testing.T) {
	r := crime.NewRecorder(crime.DefaultConfig(), nil)
	attacker := &crime.State{}

	resp, ok := r.RecordAgainst(protectedVictim(), attacker, crime.Details{NewHP: 12}, t0)
	require.True(t, ok)
	assert.Equal(t, crime.SeverityMinor, resp.Severity)
	assert.Equal(t, t0.Add(90*time.Second), resp.WantedUntil)
	assert.Equal(t, 50.0, resp.GuardRadius, "town profile radius")
	assert.True(t, attacker.Wanted(t0.Add(time.Minute)))
	assert.False(t, attacker.Wanted(t0.Add(2*time.Minute)))
}

func TestRecordAgainst_LethalIsSevere(t *testing.T) {
	r := crime.NewRecorder(crime.DefaultConfig(), nil)
	attacker := &crime.State{}

	resp, ok := r.RecordAgainst(protectedVictim(), attacker, crime.Details{Lethal: true}, t0)
	require.True(t, ok)
	assert.Equal(t, crime.SeveritySevere, resp.Severity)
	assert.Equal(t, t0.Add(5*time.Minute), resp.WantedUntil)
}

func TestRecordAgainst_RepeatOffenderEscalates(t *testing.T) {
	r := crime.NewRecorder(crime.DefaultConfig(), nil)
	attacker := &crime.State{}

	_, ok := r.RecordAgainst(protectedVictim(), attacker, crime.Details{}, t0)
	require.True(t, ok)

	resp, ok := r.RecordAgainst(protectedVictim(), attacker, crime.Details{}, t0.Add(30*time.Second))
	require.True(t, ok)
	assert.Equal(t, crime.SeveritySevere, resp.Severity, "already wanted escalates")
}

func TestRecordAgainst_WantedWindowNeverShrinks(t *testing.T) {
	r := crime.NewRecorder(crime.DefaultConfig(), nil)
	attacker := &crime.State{WantedUntil: t0.Add(time.Hour), Severity: crime.SeveritySevere}

	resp, ok := r.RecordAgainst(protectedVictim(), attacker, crime.Details{}, t0)
	require.True(t, ok)
	assert.Equal(t, t0.Add(time.Hour), resp.WantedUntil)
}

func TestRecordAgainst_UnprotectedNoOp(t *testing.T) {
	r := crime.NewRecorder(crime.DefaultConfig(), nil)
	attacker := &crime.State{}

	_, ok := r.RecordAgainst(&crime.VictimInfo{Tags: []string{"beast"}}, attacker, crime.Details{Lethal: true}, t0)
	assert.False(t, ok)
	assert.False(t, attacker.Wanted(t0), "no bookkeeping for unprotected victims")
}

func TestRecordAgainst_NilVictimFailsOpen(t *testing.T) {
	r := crime.NewRecorder(crime.DefaultConfig(), nil)
	attacker := &crime.State{}

	_, ok := r.RecordAgainst(nil, attacker, crime.Details{Lethal: true}, t0)
	assert.False(t, ok)
	assert.False(t, attacker.Wanted(t0))
}

func TestRecordAgainst_RadiusOverrideWins(t *testing.T) {
	r := crime.NewRecorder(crime.DefaultConfig(), nil)
	victim := protectedVictim()
	victim.GuardRadiusOverride = 120

	resp, ok := r.RecordAgainst(victim, &crime.State{}, crime.Details{}, t0)
	require.True(t, ok)
	assert.Equal(t, 120.0, resp.GuardRadius)
}

func TestRecordAgainst_UnknownProfileUsesDefault(t *testing.T) {
	r := crime.NewRecorder(crime.DefaultConfig(), nil)
	victim := &crime.VictimInfo{Tags: []string{"civilian"}}

	resp, ok := r.RecordAgainst(victim, &crime.State{}, crime.Details{}, t0)
	require.True(t, ok)
	assert.Equal(t, 30.0, resp.GuardRadius)
}
