package models

import "time"

const DefaultMMR = 1000

type Player struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	MMR          int       `json:"mmr"`
	Region       string    `json:"region"`
	CreatedAt    time.Time `json:"created_at"`
}
