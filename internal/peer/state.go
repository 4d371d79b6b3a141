package peer

import (
	"context"
	"time"

	"tuttifrutti/internal/game"
)

// The session's state is split into explicit sub-structures instead of
// package globals, so every subsystem receives what it touches by reference.

// UserState identifies the local player.
type UserState struct {
	UID  string
	Name string
}

// RoomState tracks the room the session is currently attached to.
// Snapshot is the last observed document; IsHost is re-derived from it on
// every snapshot (first surviving player, no election).
type RoomState struct {
	ID       string
	Snapshot *game.Room
	IsHost   bool
}

// VoteClock is the local per-category countdown. It never resets cast votes;
// extending adds to both the remaining time and the max so progress ratios
// stay meaningful.
type VoteClock struct {
	Active        bool
	CategoryIndex int
	Remaining     time.Duration
	Max           time.Duration
	Extended      bool
	Submitted     bool
}

// Tasks owns every background handle the session spawns. All of them are
// cancelled when the session detaches from a room, so no orphaned writes hit
// a room the client no longer belongs to.
type Tasks struct {
	watchCancel     func()
	listCancel      func()
	heartbeatCancel context.CancelFunc
	voteCancel      context.CancelFunc

	roundTimer    *time.Timer
	roundTimerEnd time.Time

	processTimer *time.Timer
	scoreTimer   *time.Timer
}

func newTaskContext() (context.Context, context.CancelFunc) {
	return context.WithCancel(context.Background())
}

// cancelAll stops every handle and zeroes the struct.
func (t *Tasks) cancelAll() {
	if t.watchCancel != nil {
		t.watchCancel()
	}
	if t.heartbeatCancel != nil {
		t.heartbeatCancel()
	}
	if t.voteCancel != nil {
		t.voteCancel()
	}
	if t.roundTimer != nil {
		t.roundTimer.Stop()
	}
	if t.processTimer != nil {
		t.processTimer.Stop()
	}
	if t.scoreTimer != nil {
		t.scoreTimer.Stop()
	}
	*t = Tasks{listCancel: t.listCancel}
}
