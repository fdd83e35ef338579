package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type PlayStage string

const (
	StageGroup        PlayStage = "G"
	StageRoundOf16    PlayStage = "R"
	StageQuarterfinal PlayStage = "Q"
	StageSemifinal    PlayStage = "S"
	StageFinal        PlayStage = "F"
)

func (s PlayStage) Valid() bool {
	switch s {
	case StageGroup, StageRoundOf16, StageQuarterfinal, StageSemifinal, StageFinal:
		return true
	}
	return false
}

type MatchResult string

const (
	ResultTeam1Won MatchResult = "team1-won"
	ResultTeam2Won MatchResult = "team2-won"
	ResultDraw     MatchResult = "draw"
)

type DecidedBy string

const (
	DecidedNormalTime DecidedBy = "N"
	DecidedPenalty    DecidedBy = "P"
)

func (d DecidedBy) Valid() bool {
	return d == DecidedNormalTime || d == DecidedPenalty
}

type WinLose string

const (
	OutcomeWin  WinLose = "W"
	OutcomeLose WinLose = "L"
	OutcomeDraw WinLose = "D"
)

func (w WinLose) Valid() bool {
	return w == OutcomeWin || w == OutcomeLose || w == OutcomeDraw
}

// ScheduledMatch is a fixture in the next_match table. The composite key
// (match_no, tr_id) is shared with PlayedMatch: a key lives in exactly one
// of the two tables at any time.
type ScheduledMatch struct {
	MatchNo  int       `json:"match_no"`
	TrID     int       `json:"tr_id"`
	PlayDate time.Time `json:"play_date"`
	Stage    PlayStage `json:"play_stage"`
	VenueID  int       `json:"venue_id"`
	TeamID1  int       `json:"team_id1"`
	TeamID2  int       `json:"team_id2"`
}

// PlayedMatch is a finalized result in the match_played table.
type PlayedMatch struct {
	MatchNo       int         `json:"match_no"`
	TrID          int         `json:"tr_id"`
	Stage         PlayStage   `json:"play_stage"`
	PlayDate      time.Time   `json:"play_date"`
	TeamID1       int         `json:"team_id1"`
	TeamID2       int         `json:"team_id2"`
	Results       MatchResult `json:"results"`
	DecidedBy     DecidedBy   `json:"decided_by"`
	GoalScore     string      `json:"goal_score"`
	VenueID       int         `json:"venue_id"`
	Audience      int         `json:"audience"`
	PlayerOfMatch int         `json:"player_of_match"`
	Stop1Sec      *int        `json:"stop1_sec,omitempty"`
	Stop2Sec      *int        `json:"stop2_sec,omitempty"`
}

// MatchDetail is one team's side of a played match. Exactly two rows exist
// per (match_no, tr_id).
type MatchDetail struct {
	MatchNo      int       `json:"match_no"`
	TrID         int       `json:"tr_id"`
	TeamID       int       `json:"team_id"`
	WinLose      WinLose   `json:"win_lose"`
	DecidedBy    DecidedBy `json:"decided_by"`
	GoalScore    int       `json:"goal_score"`
	PenaltyScore *int      `json:"penalty_score,omitempty"`
	PlayerGK     int       `json:"player_gk"`
}

// ParseGoalScore splits an "A-B" score string into the two goal counts.
func ParseGoalScore(score string) (team1Goals, team2Goals int, err error) {
	parts := strings.SplitN(score, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("goal score %q is not in A-B form", score)
	}
	team1Goals, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("goal score %q: invalid team 1 goals: %w", score, err)
	}
	team2Goals, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("goal score %q: invalid team 2 goals: %w", score, err)
	}
	if team1Goals < 0 || team2Goals < 0 {
		return 0, 0, fmt.Errorf("goal score %q: goals must be non-negative", score)
	}
	return team1Goals, team2Goals, nil
}

// DeriveResult computes the match result from the two goal counts. The
// derived value is authoritative and overrides anything the client supplies.
func DeriveResult(team1Goals, team2Goals int) MatchResult {
	switch {
	case team1Goals > team2Goals:
		return ResultTeam1Won
	case team1Goals < team2Goals:
		return ResultTeam2Won
	default:
		return ResultDraw
	}
}
