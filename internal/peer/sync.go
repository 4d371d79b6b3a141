package peer

import (
	"context"

	"tuttifrutti/internal/game"
	"tuttifrutti/internal/store"
)

// watchLoop consumes the room's snapshot stream. Snapshots arrive in write
// order per watcher; each one is folded into local state and re-emitted.
func (s *Session) watchLoop(roomID string, ch <-chan store.RoomSnapshot) {
	for snap := range ch {
		if !s.handleSnapshot(roomID, snap) {
			return
		}
	}
}

// handleSnapshot applies one snapshot. Returns false once the subscription
// is obsolete and the loop should stop. Decisions are made under the lock;
// store calls and event emission happen after it is released.
func (s *Session) handleSnapshot(roomID string, snap store.RoomSnapshot) bool {
	s.mu.Lock()
	if s.room.ID != roomID {
		// A newer attach replaced this subscription.
		s.mu.Unlock()
		return false
	}

	if !snap.Exists || snap.Room == nil || snap.Room.Status == game.StatusDeleted {
		s.teardownRoomLocked()
		s.mu.Unlock()
		s.emit(Event{Type: EventReturnToLobby, Reason: ReasonRoomClosed})
		return false
	}

	room := snap.Room
	if room.FindPlayer(s.user.UID) == nil {
		s.teardownRoomLocked()
		s.mu.Unlock()
		s.emit(Event{Type: EventReturnToLobby, Reason: ReasonRemoved})
		return false
	}

	s.room.Snapshot = room
	s.room.IsHost = room.HostUID() == s.user.UID

	// Local vote clock follows the shared ballot: a new categoryIndex starts
	// a fresh countdown, a cleared ballot stops it.
	switch {
	case room.VotingState == nil:
		if s.vote.Active {
			s.stopVoteClockLocked()
		}
	case !s.vote.Active || s.vote.CategoryIndex != room.VotingState.CategoryIndex:
		s.startVoteClockLocked(roomID, room.VotingState.CategoryIndex)
	}

	// Host duties, derived from the snapshot. The transactional guards make
	// it safe for a stale believer to act on any of these.
	resolveBallot := false
	if s.room.IsHost {
		switch room.Status {
		case game.StatusVoting:
			if room.VotingState == nil && !room.ScoresCalculated {
				s.scheduleProcessLocked(roomID)
			} else if room.VotingState != nil && allPlayersVoted(room) {
				resolveBallot = true
			}
		case game.StatusPlaying:
			s.armRoundTimerLocked(room)
		}
	}
	if room.Status != game.StatusPlaying {
		s.stopRoundTimerLocked()
	}
	s.mu.Unlock()

	if resolveBallot {
		go s.processCategoryResults(context.Background(), roomID)
	}
	s.emit(Event{Type: EventRoomState, Room: room})
	return true
}
