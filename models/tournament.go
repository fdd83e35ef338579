package models

import "time"

type Tournament struct {
	TrID      int       `json:"tr_id"`
	Name      string    `json:"tr_name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// TeamRegistration is a row in tournament_team: a team's entry into a
// tournament, grouped for the group stage.
type TeamRegistration struct {
	TeamID int    `json:"team_id"`
	TrID   int    `json:"tr_id"`
	Group  string `json:"team_group"`
}

// RosterEntry is a row in team_player: a player approved for a team within
// a specific tournament.
type RosterEntry struct {
	PlayerID  int  `json:"player_id"`
	TeamID    int  `json:"team_id"`
	TrID      int  `json:"tr_id"`
	IsCaptain bool `json:"is_captain"`
}
