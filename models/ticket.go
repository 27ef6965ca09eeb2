package models

import "time"

type TicketStatus string

const (
	TicketStatusInQueue   TicketStatus = "in_queue"
	TicketStatusMatched   TicketStatus = "matched"
	TicketStatusCancelled TicketStatus = "cancelled"
)

// Ticket is one player's place in the queue of a single game mode.
// A player may accumulate many matched/cancelled tickets over time,
// but holds at most one in_queue ticket per game mode.
type Ticket struct {
	ID        int          `json:"ticket_id"`
	PlayerID  int          `json:"player_id"`
	GameMode  string       `json:"game_mode"`
	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

func (t *Ticket) IsActive() bool {
	return t.Status == TicketStatusInQueue
}
