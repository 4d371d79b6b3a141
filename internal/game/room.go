package game

import (
	"time"
)

// Status represents the current state of a room
type Status string

const (
	StatusLobby    Status = "lobby"
	StatusPlaying  Status = "playing"
	StatusVoting   Status = "voting"
	StatusFinished Status = "finished"
	StatusDormant  Status = "dormant"
	StatusDeleted  Status = "deleted"
)

// Discoverable reports whether rooms in this status show up in the
// public room listing. Dormant and deleted rooms are hidden.
func (s Status) Discoverable() bool {
	switch s {
	case StatusLobby, StatusPlaying, StatusVoting, StatusFinished:
		return true
	}
	return false
}

// CanTransition reports whether a room may move from one status to another.
// The normal round cycle is lobby -> playing -> voting -> finished -> lobby.
// Any status except deleted may go dormant; dormant reopens only to lobby;
// deleted is terminal.
func CanTransition(from, to Status) bool {
	if from == StatusDeleted {
		return false
	}
	switch to {
	case StatusDeleted:
		return true
	case StatusDormant:
		return true
	case StatusLobby:
		return from == StatusFinished || from == StatusDormant || from == StatusLobby
	case StatusPlaying:
		return from == StatusLobby || from == StatusFinished
	case StatusVoting:
		return from == StatusPlaying
	case StatusFinished:
		return from == StatusVoting
	}
	return false
}

// Room is the shared document representing one game session. It is a plain
// value: instances are snapshots read from (or about to be written to) the
// document store, and all mutation happens inside store transactions, so no
// locking lives here.
type Room struct {
	ID               string         `json:"roomId"`
	Name             string         `json:"roomName"`
	HostID           string         `json:"hostId"`
	CreatorUID       string         `json:"creatorUid"`
	CreatorName      string         `json:"creatorName"`
	Status           Status         `json:"status"`
	CurrentLetter    string         `json:"currentLetter"`
	Categories       []string       `json:"categories"`
	GameDuration     int            `json:"gameDuration"` // seconds per round
	TimerEnd         time.Time      `json:"timerEnd"`
	Players          []*Player      `json:"players"`
	VotingState      *VotingState   `json:"votingState,omitempty"`
	GameHistory      []HistoryEntry `json:"gameHistory"`
	ScoresCalculated bool           `json:"scoresCalculated"`

	// Index of the last category resolved by batch voting this round.
	// Reset to -1 when a letter is rolled.
	LastProcessedCategoryIndex int `json:"lastProcessedCategoryIndex"`

	LastActivity time.Time `json:"lastActivity"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Host returns the current host by convention: the first player in the list.
// There is no election; whoever survives at index 0 is the host.
func (r *Room) Host() *Player {
	if len(r.Players) == 0 {
		return nil
	}
	return r.Players[0]
}

// HostUID returns the uid of the conventional host, or "" for an empty room.
func (r *Room) HostUID() string {
	if h := r.Host(); h != nil {
		return h.UID
	}
	return ""
}

// FindPlayer returns the player with the given uid, or nil.
func (r *Room) FindPlayer(uid string) *Player {
	for _, p := range r.Players {
		if p.UID == uid {
			return p
		}
	}
	return nil
}

// PlayerIndex returns the position of the given uid in the player list, or -1.
func (r *Room) PlayerIndex(uid string) int {
	for i, p := range r.Players {
		if p.UID == uid {
			return i
		}
	}
	return -1
}

// AddPlayer appends a player unless the uid is already present.
func (r *Room) AddPlayer(p *Player) error {
	if r.FindPlayer(p.UID) != nil {
		return ErrAlreadyJoined
	}
	r.Players = append(r.Players, p)
	return nil
}

// RemovePlayer removes the player with the given uid, preserving order so
// host succession stays deterministic. Returns true if a player was removed.
func (r *Room) RemovePlayer(uid string) bool {
	for i, p := range r.Players {
		if p.UID == uid {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return true
		}
	}
	return false
}

// Touch records activity on the room.
func (r *Room) Touch(now time.Time) {
	r.LastActivity = now
}

// HistoryContains reports whether an equivalent history entry already exists:
// same player, category and normalized answer.
func (r *Room) HistoryContains(uid, category, normalized string) bool {
	return r.FindHistory(uid, category, normalized) != nil
}

// FindHistory returns the first history entry matching the player, category
// and normalized answer, or nil.
func (r *Room) FindHistory(uid, category, normalized string) *HistoryEntry {
	for i := range r.GameHistory {
		e := &r.GameHistory[i]
		if e.PlayerUID == uid && e.Category == category && Normalize(e.Answer) == normalized {
			return e
		}
	}
	return nil
}

// HistoryEntry records one resolved answer for the room's running log.
// Entries survive across rounds and feed the auto-approve pass.
type HistoryEntry struct {
	PlayerName   string     `json:"playerName"`
	PlayerUID    string     `json:"playerUid"`
	Category     string     `json:"category"`
	Answer       string     `json:"answer"`
	IsValid      bool       `json:"isValid"`
	IsAuto       bool       `json:"isAuto"`
	Votes        *VoteTally `json:"votes,omitempty"`
	Points       int        `json:"points"`
	PointsReason string     `json:"pointsReason,omitempty"`
}

// VoteTally is the recorded outcome of a batch vote on one answer.
type VoteTally struct {
	Yes int `json:"yes"`
	No  int `json:"no"`
}
