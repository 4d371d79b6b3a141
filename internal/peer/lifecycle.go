package peer

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"tuttifrutti/internal/game"
	"tuttifrutti/internal/store"
)

// CreateRoom allocates a fresh room with the local player as creator and
// host, joins it and returns the initial document.
func (s *Session) CreateRoom(ctx context.Context, name, language string, duration time.Duration) (*game.Room, error) {
	if duration <= 0 {
		duration = s.cfg.Game.RoundDuration
	}
	if name == "" {
		name = s.Name()
	}
	categories := s.cfg.CategoriesFor(language)
	now := nowUTC()

	// Codes are short, so collisions happen; retry a few times.
	for i := 0; i < 10; i++ {
		code := game.NewRoomCode(s.cfg.Game.RoomCodeLength)
		room := &game.Room{
			ID:                         code,
			Name:                       name,
			HostID:                     s.user.UID,
			CreatorUID:                 s.user.UID,
			CreatorName:                s.Name(),
			Status:                     game.StatusLobby,
			Categories:                 append([]string(nil), categories...),
			GameDuration:               int(duration.Seconds()),
			Players:                    []*game.Player{game.NewPlayer(s.user.UID, s.Name(), now)},
			GameHistory:                []game.HistoryEntry{},
			LastProcessedCategoryIndex: -1,
			LastActivity:               now,
			CreatedAt:                  now,
		}
		err := s.store.CreateRoom(ctx, room)
		if err == store.ErrExists {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("creating room: %w", err)
		}
		s.attach(code)
		return room, nil
	}
	return nil, fmt.Errorf("could not allocate a unique room code")
}

// JoinRoom adds the local player to an existing room and attaches to it.
// Dormant rooms are reopenable only by their creator; to anyone else they
// must look exactly like rooms that never existed.
func (s *Session) JoinRoom(ctx context.Context, code string) (*game.Room, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	uid := s.user.UID

	room, err := s.store.GetRoom(ctx, code)
	if err == store.ErrNotFound {
		return nil, game.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	if room.Status == game.StatusDeleted {
		return nil, game.ErrRoomNotFound
	}
	if room.Status == game.StatusDormant && room.CreatorUID != uid {
		return nil, game.ErrRoomNotFound
	}

	name := s.Name()
	now := nowUTC()
	err = s.store.UpdateRoom(ctx, code, func(r *game.Room) (bool, error) {
		if r.Status == game.StatusDeleted {
			return false, game.ErrRoomNotFound
		}
		if r.Status == game.StatusDormant {
			if r.CreatorUID != uid {
				return false, game.ErrRoomNotFound
			}
			r.Status = game.StatusLobby
		}
		if p := r.FindPlayer(uid); p != nil {
			p.LastSeen = now
		} else {
			r.AddPlayer(game.NewPlayer(uid, name, now))
		}
		r.Touch(now)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.attach(code)
	return s.store.GetRoom(ctx, code)
}

// LeaveRoom removes the local player. Emptying the room parks it dormant —
// never deleted — so its word library keeps its context.
func (s *Session) LeaveRoom(ctx context.Context) error {
	s.mu.Lock()
	roomID := s.room.ID
	s.teardownRoomLocked()
	s.mu.Unlock()

	if roomID == "" {
		return nil
	}

	uid := s.user.UID
	now := nowUTC()
	err := s.store.UpdateRoom(ctx, roomID, func(r *game.Room) (bool, error) {
		if !r.RemovePlayer(uid) {
			return false, nil
		}
		if len(r.Players) == 0 {
			r.Status = game.StatusDormant
			r.VotingState = nil
		}
		r.Touch(now)
		return true, nil
	})
	if err == store.ErrNotFound {
		return nil
	}
	return err
}

// hostGuarded runs fn inside a transaction that re-checks host identity.
// Non-host callers get a silent no-op: two clients may transiently both
// believe they are host, and the losing one must simply do nothing.
func (s *Session) hostGuarded(ctx context.Context, fn store.UpdateFunc) error {
	s.mu.Lock()
	roomID := s.room.ID
	isHost := s.room.IsHost
	s.mu.Unlock()

	if roomID == "" || !isHost {
		return nil
	}
	uid := s.user.UID
	return s.store.UpdateRoom(ctx, roomID, func(r *game.Room) (bool, error) {
		if r.HostUID() != uid {
			return false, nil
		}
		return fn(r)
	})
}

// StartRound rolls a fresh letter and opens play. All per-round player state
// is reset; cumulative scores are not.
func (s *Session) StartRound(ctx context.Context) error {
	letter := game.RollLetter(s.cfg.Game.Letters)
	now := nowUTC()
	return s.hostGuarded(ctx, func(r *game.Room) (bool, error) {
		if !game.CanTransition(r.Status, game.StatusPlaying) {
			return false, nil
		}
		if len(r.Categories) == 0 {
			return false, game.ErrNoCategories
		}
		for _, p := range r.Players {
			p.ResetRound()
		}
		r.CurrentLetter = letter
		r.Status = game.StatusPlaying
		r.TimerEnd = now.Add(time.Duration(r.GameDuration) * time.Second)
		r.ScoresCalculated = false
		r.LastProcessedCategoryIndex = -1
		r.VotingState = nil
		r.Touch(now)
		return true, nil
	})
}

// StopRound ends play and enters the voting phase. Category processing is
// scheduled after a short settle delay so round-end answer writes land first.
func (s *Session) StopRound(ctx context.Context) error {
	now := nowUTC()
	err := s.hostGuarded(ctx, func(r *game.Room) (bool, error) {
		if !game.CanTransition(r.Status, game.StatusVoting) {
			return false, nil
		}
		r.Status = game.StatusVoting
		r.VotingState = nil
		r.Touch(now)
		return true, nil
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.scheduleProcessLocked(s.room.ID)
	s.mu.Unlock()
	return nil
}

// ShuffleCategories reorders the category list while in the lobby.
func (s *Session) ShuffleCategories(ctx context.Context) error {
	now := nowUTC()
	return s.hostGuarded(ctx, func(r *game.Room) (bool, error) {
		if r.Status != game.StatusLobby {
			return false, nil
		}
		rand.Shuffle(len(r.Categories), func(i, j int) {
			r.Categories[i], r.Categories[j] = r.Categories[j], r.Categories[i]
		})
		r.Touch(now)
		return true, nil
	})
}

// NextRound returns a finished room to the lobby, keeping scores and history.
func (s *Session) NextRound(ctx context.Context) error {
	now := nowUTC()
	return s.hostGuarded(ctx, func(r *game.Room) (bool, error) {
		if r.Status != game.StatusFinished {
			return false, nil
		}
		r.Status = game.StatusLobby
		r.VotingState = nil
		r.Touch(now)
		return true, nil
	})
}

// ResetRoom starts the room over: scores, history and round state cleared.
func (s *Session) ResetRoom(ctx context.Context) error {
	now := nowUTC()
	return s.hostGuarded(ctx, func(r *game.Room) (bool, error) {
		if r.Status == game.StatusDeleted {
			return false, nil
		}
		for _, p := range r.Players {
			p.ResetRound()
			p.Score = 0
		}
		r.Status = game.StatusLobby
		r.CurrentLetter = ""
		r.GameHistory = []game.HistoryEntry{}
		r.VotingState = nil
		r.ScoresCalculated = false
		r.LastProcessedCategoryIndex = -1
		r.Touch(now)
		return true, nil
	})
}

// DeleteRoom terminates the room for everyone. Watchers observe the deleted
// status and then the missing document.
func (s *Session) DeleteRoom(ctx context.Context) error {
	s.mu.Lock()
	roomID := s.room.ID
	isHost := s.room.IsHost
	s.mu.Unlock()
	if roomID == "" || !isHost {
		return nil
	}

	uid := s.user.UID
	err := s.store.UpdateRoom(ctx, roomID, func(r *game.Room) (bool, error) {
		if r.HostUID() != uid {
			return false, nil
		}
		r.Status = game.StatusDeleted
		return true, nil
	})
	if err != nil {
		return err
	}
	if err := s.store.DeleteRoom(ctx, roomID); err != nil && err != store.ErrNotFound {
		return err
	}
	return nil
}

// SetAnswer records the local player's answer for a category during play.
func (s *Session) SetAnswer(ctx context.Context, category, text string) error {
	s.mu.Lock()
	roomID := s.room.ID
	s.mu.Unlock()
	if roomID == "" {
		return nil
	}

	uid := s.user.UID
	return s.store.UpdateRoom(ctx, roomID, func(r *game.Room) (bool, error) {
		if r.Status != game.StatusPlaying {
			return false, nil
		}
		p := r.FindPlayer(uid)
		if p == nil {
			return false, nil
		}
		if p.Answers == nil {
			p.Answers = make(map[string]string)
		}
		p.Answers[category] = text
		return true, nil
	})
}

// armRoundTimerLocked keeps a host-side timer that stops the round when
// timerEnd passes. Re-armed only when the deadline actually changed.
func (s *Session) armRoundTimerLocked(r *game.Room) {
	if r.TimerEnd.IsZero() || r.TimerEnd.Equal(s.tasks.roundTimerEnd) {
		return
	}
	if s.tasks.roundTimer != nil {
		s.tasks.roundTimer.Stop()
	}
	s.tasks.roundTimerEnd = r.TimerEnd
	d := time.Until(r.TimerEnd)
	if d < 0 {
		d = 0
	}
	roomID := s.room.ID
	s.tasks.roundTimer = time.AfterFunc(d, func() {
		if err := s.StopRound(context.Background()); err != nil {
			log.Printf("round timer: stopping round in %s failed: %v", roomID, err)
		}
	})
}

func (s *Session) stopRoundTimerLocked() {
	if s.tasks.roundTimer != nil {
		s.tasks.roundTimer.Stop()
		s.tasks.roundTimer = nil
	}
	s.tasks.roundTimerEnd = time.Time{}
}
