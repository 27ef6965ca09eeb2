package models

import "time"

type MatchGameStatus string

const MatchGameStatusActive MatchGameStatus = "active"

type Match struct {
	ID        int             `json:"match_id"`
	GameMode  string          `json:"game_mode"`
	AvgMMR    int             `json:"avg_mmr"`
	Status    MatchGameStatus `json:"status"`
	Region    string          `json:"region,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Teams     []MatchTeam     `json:"teams,omitempty"`
}

type MatchTeam struct {
	Name    string        `json:"team_name"`
	Players []MatchPlayer `json:"players"`
}

type MatchPlayer struct {
	PlayerID int    `json:"player_id,omitempty"`
	Username string `json:"username,omitempty"`
	MMR      int    `json:"mmr"`
}

// MatchParticipant is a single roster row: which player ended up in which
// team of a match. Team numbering starts at 1.
type MatchParticipant struct {
	MatchID  int `json:"match_id"`
	PlayerID int `json:"player_id"`
	Team     int `json:"team"`
}
