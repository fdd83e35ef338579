package models

import (
	"errors"
	"fmt"
)

// TeamOutcome carries one side's portion of a finalized result.
type TeamOutcome struct {
	WinLose      WinLose `json:"win_lose"`
	PenaltyScore *int    `json:"penalty_score,omitempty"`
	GoalkeeperID int     `json:"player_gk"`
}

// Outcome is the administrator-supplied payload for moving a fixture to the
// played state. The match result itself is not part of the payload; it is
// derived from GoalScore.
type Outcome struct {
	DecidedBy     DecidedBy   `json:"decided_by"`
	GoalScore     string      `json:"goal_score"`
	VenueID       int         `json:"venue_id"`
	Audience      int         `json:"audience"`
	PlayerOfMatch int         `json:"player_of_match"`
	Stop1Sec      *int        `json:"stop1_sec,omitempty"`
	Stop2Sec      *int        `json:"stop2_sec,omitempty"`
	Team1         TeamOutcome `json:"team1"`
	Team2         TeamOutcome `json:"team2"`
}

// Validate checks the outcome's shape before any write happens. The goal
// score must parse as "A-B" with non-negative goals.
func (o *Outcome) Validate() error {
	if _, _, err := ParseGoalScore(o.GoalScore); err != nil {
		return err
	}
	if !o.DecidedBy.Valid() {
		return fmt.Errorf("invalid decided_by value %q", o.DecidedBy)
	}
	if o.Audience < 0 {
		return errors.New("audience must be non-negative")
	}
	if o.Stop1Sec != nil && *o.Stop1Sec < 0 {
		return errors.New("stop1_sec must be non-negative")
	}
	if o.Stop2Sec != nil && *o.Stop2Sec < 0 {
		return errors.New("stop2_sec must be non-negative")
	}
	for i, t := range []TeamOutcome{o.Team1, o.Team2} {
		if !t.WinLose.Valid() {
			return fmt.Errorf("invalid win_lose value %q for team %d", t.WinLose, i+1)
		}
		if t.PenaltyScore != nil && *t.PenaltyScore < 0 {
			return fmt.Errorf("penalty score for team %d must be non-negative", i+1)
		}
	}
	return nil
}
