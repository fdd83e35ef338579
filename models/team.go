package models

type Team struct {
	TeamID   int     `json:"team_id"`
	Name     string  `json:"team_name"`
	CrestKey *string `json:"-"`
	CrestURL *string `json:"crest_url,omitempty"`
}

type Venue struct {
	VenueID  int    `json:"venue_id"`
	Name     string `json:"venue_name"`
	Capacity int    `json:"capacity"`
}

type Player struct {
	PlayerID int    `json:"player_id"`
	Name     string `json:"name"`
	JerseyNo int    `json:"jersey_no"`
	Position string `json:"position"`
}
