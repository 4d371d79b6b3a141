package game

import (
	"time"
)

// Player represents one peer inside a room. Score accumulates across rounds
// and is never reset by normal play; answers and verification results are
// cleared when a new letter is rolled.
type Player struct {
	UID             string                    `json:"uid"`
	Name            string                    `json:"name"`
	Score           int                       `json:"score"`
	Answers         map[string]string         `json:"answers"`
	VerifiedResults map[string]VerifiedResult `json:"verifiedResults"`
	LastSeen        time.Time                 `json:"lastSeen"`
}

// VerifiedResult is the verdict for one (player, category) answer.
type VerifiedResult struct {
	IsValid bool   `json:"isValid"`
	Answer  string `json:"answer"`
	Points  int    `json:"points"`
}

// NewPlayer creates a player with empty answer maps.
func NewPlayer(uid, name string, now time.Time) *Player {
	return &Player{
		UID:             uid,
		Name:            name,
		Answers:         make(map[string]string),
		VerifiedResults: make(map[string]VerifiedResult),
		LastSeen:        now,
	}
}

// ResetRound clears per-round answer state, keeping the cumulative score.
func (p *Player) ResetRound() {
	p.Answers = make(map[string]string)
	p.VerifiedResults = make(map[string]VerifiedResult)
}

// Verified reports whether the player already has a verdict for the category.
func (p *Player) Verified(category string) bool {
	_, ok := p.VerifiedResults[category]
	return ok
}
