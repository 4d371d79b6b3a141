package peer

import (
	"context"
	"log"
	"time"

	"tuttifrutti/internal/game"
	"tuttifrutti/internal/store"
)

// heartbeatLoop writes the local player's lastSeen on a fixed cadence and,
// when this client is the acting host, evicts players that went silent.
func (s *Session) heartbeatLoop(ctx context.Context, roomID string) {
	ticker := time.NewTicker(s.cfg.Peer.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.beat(ctx, roomID)
			s.evictStale(ctx, roomID)
		}
	}
}

// beat updates only the local player's lastSeen. Transient store failures
// are retried with exponential backoff (1s, 2s, capped at 5s); exhausting
// the retries is logged and forgotten — the next interval tries again.
func (s *Session) beat(ctx context.Context, roomID string) {
	uid := s.user.UID
	delay := time.Second
	var err error

	for attempt := 0; attempt <= s.cfg.Peer.HeartbeatRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > 5*time.Second {
				delay = 5 * time.Second
			}
		}

		now := nowUTC()
		err = s.store.UpdateRoom(ctx, roomID, func(r *game.Room) (bool, error) {
			p := r.FindPlayer(uid)
			if p == nil {
				// Kicked or evicted; the watch loop handles the exit.
				return false, nil
			}
			p.LastSeen = now
			return true, nil
		})
		if err == nil || err == store.ErrNotFound || ctx.Err() != nil {
			return
		}
		log.Printf("heartbeat: write for room %s failed (attempt %d): %v", roomID, attempt+1, err)
	}
	log.Printf("heartbeat: room %s presence stays stale until next interval: %v", roomID, err)
}

// evictStale removes players whose lastSeen aged past the inactivity
// threshold. Voting gets a longer grace period than play or lobby. The
// guard inside the transaction is "first non-stale player", so a dead
// players[0] can be evicted by its successor and host identity shifts to
// the new first player. Emptying the room parks it dormant, never deleted.
func (s *Session) evictStale(ctx context.Context, roomID string) {
	uid := s.user.UID
	now := nowUTC()

	err := s.store.UpdateRoom(ctx, roomID, func(r *game.Room) (bool, error) {
		threshold := s.cfg.Peer.InactivityThreshold
		if r.Status == game.StatusVoting {
			threshold = s.cfg.Peer.VotingInactivityThreshold
		}

		stale := func(p *game.Player) bool {
			return p.UID != uid && now.Sub(p.LastSeen) > threshold
		}

		// Acting host = first player that is not stale. Only that client
		// may evict; everyone else aborts without writing. The one
		// exception: when every member is stale and we are not one of
		// them, any observer may clear the room out.
		acting := ""
		for _, p := range r.Players {
			if !stale(p) {
				acting = p.UID
				break
			}
		}
		if acting != uid && !(acting == "" && r.FindPlayer(uid) == nil && len(r.Players) > 0) {
			return false, nil
		}

		kept := make([]*game.Player, 0, len(r.Players))
		removed := 0
		for _, p := range r.Players {
			if stale(p) {
				removed++
				continue
			}
			kept = append(kept, p)
		}
		if removed == 0 {
			return false, nil
		}

		r.Players = kept
		if len(r.Players) == 0 {
			r.Status = game.StatusDormant
			r.VotingState = nil
		}
		r.Touch(now)
		return true, nil
	})
	if err != nil && err != store.ErrNotFound {
		s.debugf("heartbeat: cleanup for room %s failed: %v", roomID, err)
	}
}
