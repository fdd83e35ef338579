package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validOutcome() *Outcome {
	return &Outcome{
		DecidedBy:     DecidedNormalTime,
		GoalScore:     "3-1",
		Audience:      1200,
		PlayerOfMatch: 7,
		Team1:         TeamOutcome{WinLose: OutcomeWin, GoalkeeperID: 1},
		Team2:         TeamOutcome{WinLose: OutcomeLose, GoalkeeperID: 2},
	}
}

func TestOutcomeValidate(t *testing.T) {
	assert.NoError(t, validOutcome().Validate())
}

func TestOutcomeValidateRejects(t *testing.T) {
	negative := -1

	tests := []struct {
		name   string
		mutate func(o *Outcome)
	}{
		{"malformed goal score", func(o *Outcome) { o.GoalScore = "3:1" }},
		{"empty goal score", func(o *Outcome) { o.GoalScore = "" }},
		{"bad decided_by", func(o *Outcome) { o.DecidedBy = "Z" }},
		{"negative audience", func(o *Outcome) { o.Audience = -1 }},
		{"negative stop1", func(o *Outcome) { o.Stop1Sec = &negative }},
		{"negative stop2", func(o *Outcome) { o.Stop2Sec = &negative }},
		{"bad team1 win_lose", func(o *Outcome) { o.Team1.WinLose = "" }},
		{"bad team2 win_lose", func(o *Outcome) { o.Team2.WinLose = "Q" }},
		{"negative penalty score", func(o *Outcome) { o.Team2.PenaltyScore = &negative }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOutcome()
			tt.mutate(o)
			assert.Error(t, o.Validate())
		})
	}
}

func TestOutcomeValidatePenaltyShootout(t *testing.T) {
	p1, p2 := 5, 4
	o := validOutcome()
	o.GoalScore = "1-1"
	o.DecidedBy = DecidedPenalty
	o.Team1.PenaltyScore = &p1
	o.Team2.PenaltyScore = &p2
	assert.NoError(t, o.Validate())
}
