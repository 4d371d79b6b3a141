package peer

import (
	"context"
	"log"
	"strings"
	"time"

	"tuttifrutti/internal/game"
	"tuttifrutti/internal/library"
)

// scheduleProcessLocked arms the settle-delay timer that drives
// processNextCategory. Idempotent: an already-armed timer is kept.
func (s *Session) scheduleProcessLocked(roomID string) {
	if roomID == "" || s.tasks.processTimer != nil {
		return
	}
	s.tasks.processTimer = time.AfterFunc(s.cfg.Game.SettleDelay, func() {
		s.mu.Lock()
		s.tasks.processTimer = nil
		current := s.room.ID
		s.mu.Unlock()
		if current != roomID {
			return
		}
		s.processNextCategory(context.Background(), roomID)
	})
}

// scheduleScoreLocked arms the settle-delay timer before final scoring.
func (s *Session) scheduleScoreLocked(roomID string) {
	if roomID == "" || s.tasks.scoreTimer != nil {
		return
	}
	s.tasks.scoreTimer = time.AfterFunc(s.cfg.Game.SettleDelay, func() {
		s.mu.Lock()
		s.tasks.scoreTimer = nil
		current := s.room.ID
		s.mu.Unlock()
		if current != roomID {
			return
		}
		if err := s.CalculateFinalScores(context.Background()); err != nil {
			log.Printf("voting: final scoring for room %s failed: %v", roomID, err)
		}
	})
}

// processNextCategory is the host-side driver of the voting phase: run the
// one-time auto-approve pass, then either open a ballot for the next
// category with unverified answers or hand over to final scoring.
func (s *Session) processNextCategory(ctx context.Context, roomID string) {
	if !s.IsHost() {
		return
	}

	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		s.debugf("voting: reading room %s failed: %v", roomID, err)
		return
	}
	if room.Status != game.StatusVoting {
		return
	}

	// The auto-approve pass runs once per round; its marker is the absence
	// of any verification result.
	if !anyVerified(room) {
		s.autoApprove(ctx, room)
	}

	allDone := false
	err = s.store.UpdateRoom(ctx, roomID, func(r *game.Room) (bool, error) {
		allDone = false
		if r.Status != game.StatusVoting || r.VotingState != nil {
			return false, nil
		}
		idx, cat, answers := nextBallot(r)
		if idx < 0 {
			allDone = true
			return false, nil
		}
		r.VotingState = &game.VotingState{
			Category:        cat,
			CategoryIndex:   idx,
			Answers:         answers,
			Votes:           make(map[string]map[string]bool),
			AllPlayersVoted: make(map[string]map[string]bool),
		}
		r.Touch(nowUTC())
		return true, nil
	})
	if err != nil {
		log.Printf("voting: opening ballot for room %s failed: %v", roomID, err)
		return
	}
	if allDone {
		s.mu.Lock()
		s.scheduleScoreLocked(roomID)
		s.mu.Unlock()
	}
}

// anyVerified reports whether any player has any verdict this round.
func anyVerified(r *game.Room) bool {
	for _, p := range r.Players {
		if len(p.VerifiedResults) > 0 {
			return true
		}
	}
	return false
}

// nextBallot finds the first category at or after lastProcessedCategoryIndex+1
// with at least one unverified answer, and builds its ballot in stable
// player order.
func nextBallot(r *game.Room) (int, string, []game.VoteAnswer) {
	for idx := r.LastProcessedCategoryIndex + 1; idx < len(r.Categories); idx++ {
		cat := r.Categories[idx]
		var answers []game.VoteAnswer
		for i, p := range r.Players {
			ans := strings.TrimSpace(p.Answers[cat])
			if ans == "" || p.Verified(cat) {
				continue
			}
			answers = append(answers, game.VoteAnswer{
				PlayerIndex: i,
				PlayerName:  p.Name,
				PlayerUID:   p.UID,
				Answer:      ans,
			})
		}
		if len(answers) > 0 {
			return idx, cat, answers
		}
	}
	return -1, "", nil
}

// autoApprove verifies answers without a vote where the community already
// spoke: first from this room's history (same player, category, normalized
// answer), then from the word library. Library lookups happen outside the
// transaction; the closure re-checks that each answer is still unverified.
func (s *Session) autoApprove(ctx context.Context, room *game.Room) {
	letter := room.CurrentLetter

	hits := make(map[string]map[string]bool)
	for _, p := range room.Players {
		for cat, raw := range p.Answers {
			ans := strings.TrimSpace(raw)
			if ans == "" || p.Verified(cat) {
				continue
			}
			if s.library.Contains(ctx, room.ID, cat, letter, ans) {
				if hits[p.UID] == nil {
					hits[p.UID] = make(map[string]bool)
				}
				hits[p.UID][cat] = true
			}
		}
	}

	err := s.store.UpdateRoom(ctx, room.ID, func(r *game.Room) (bool, error) {
		if r.Status != game.StatusVoting || anyVerified(r) {
			return false, nil
		}
		now := nowUTC()
		changed := false
		for _, p := range r.Players {
			for cat, raw := range p.Answers {
				ans := strings.TrimSpace(raw)
				if ans == "" || p.Verified(cat) {
					continue
				}
				norm := game.Normalize(ans)
				if p.VerifiedResults == nil {
					p.VerifiedResults = make(map[string]game.VerifiedResult)
				}

				if e := r.FindHistory(p.UID, cat, norm); e != nil {
					p.VerifiedResults[cat] = game.VerifiedResult{IsValid: e.IsValid, Answer: ans}
					changed = true
					continue
				}
				if hits[p.UID][cat] {
					p.VerifiedResults[cat] = game.VerifiedResult{IsValid: true, Answer: ans}
					if !r.HistoryContains(p.UID, cat, norm) {
						r.GameHistory = append(r.GameHistory, game.HistoryEntry{
							PlayerName: p.Name,
							PlayerUID:  p.UID,
							Category:   cat,
							Answer:     ans,
							IsValid:    true,
							IsAuto:     true,
						})
					}
					changed = true
				}
			}
		}
		if !changed {
			return false, nil
		}
		r.Touch(now)
		return true, nil
	})
	if err != nil {
		log.Printf("voting: auto-approve for room %s failed: %v", room.ID, err)
	}
}

// CastVote records the local voter's live preview for one answer. Writes are
// rate limited and best effort: the tally only ever reads the submitted
// maps, so a lost preview cannot corrupt scoring.
func (s *Session) CastVote(ctx context.Context, voteKey string, approve bool) {
	s.mu.Lock()
	roomID := s.room.ID
	idx := s.vote.CategoryIndex
	active := s.vote.Active
	s.mu.Unlock()
	if roomID == "" || !active {
		return
	}
	if !s.voteLimiter.Allow() {
		s.debugf("voting: dropped live vote for %s, rate limited", voteKey)
		return
	}

	uid := s.user.UID
	err := s.store.UpdateRoom(ctx, roomID, func(r *game.Room) (bool, error) {
		vs := r.VotingState
		if vs == nil || vs.CategoryIndex != idx {
			return false, nil
		}
		vs.SetLiveVote(uid, voteKey, approve)
		return true, nil
	})
	if err != nil {
		log.Printf("voting: live vote write failed, dropped: %v", err)
	}
}

// SubmitCategoryVotes finalizes the local voter's ballot: every answer the
// voter never explicitly voted on counts as approval, and the complete map
// is written under the voter's own key.
func (s *Session) SubmitCategoryVotes(ctx context.Context) error {
	s.mu.Lock()
	roomID := s.room.ID
	idx := s.vote.CategoryIndex
	active := s.vote.Active
	s.vote.Submitted = true
	s.mu.Unlock()
	if roomID == "" || !active {
		return nil
	}

	uid := s.user.UID
	err := s.store.UpdateRoom(ctx, roomID, func(r *game.Room) (bool, error) {
		vs := r.VotingState
		if vs == nil || vs.CategoryIndex != idx {
			return false, nil
		}
		full := make(map[string]bool, len(vs.Answers))
		for _, ans := range vs.Answers {
			full[ans.VoteKey()] = vs.LiveVote(uid, ans.VoteKey())
		}
		if vs.AllPlayersVoted == nil {
			vs.AllPlayersVoted = make(map[string]map[string]bool)
		}
		vs.AllPlayersVoted[uid] = full
		r.Touch(nowUTC())
		return true, nil
	})
	if err != nil {
		return err
	}

	// Completion is also checked on every snapshot; doing it here just
	// shaves the latency when the submitter happens to be the host.
	s.maybeResolveCategory(ctx, roomID)
	return nil
}

// maybeResolveCategory runs the host-side completion check: once every
// current player has submitted, resolve the category.
func (s *Session) maybeResolveCategory(ctx context.Context, roomID string) {
	if !s.IsHost() {
		return
	}
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return
	}
	if room.VotingState == nil || !allPlayersVoted(room) {
		return
	}
	s.processCategoryResults(ctx, roomID)
}

// allPlayersVoted reports whether every present player submitted a final
// ballot for the open category.
func allPlayersVoted(r *game.Room) bool {
	vs := r.VotingState
	if vs == nil {
		return false
	}
	for _, p := range r.Players {
		if !vs.Submitted(p.UID) {
			return false
		}
	}
	return len(r.Players) > 0
}

// processCategoryResults tallies the open ballot and writes verdicts. The
// transaction aborts without side effects when a competing writer already
// resolved this category — an expected outcome, logged at debug only.
func (s *Session) processCategoryResults(ctx context.Context, roomID string) {
	var approved []library.Approved
	resolved := false

	err := s.store.UpdateRoom(ctx, roomID, func(r *game.Room) (bool, error) {
		approved = approved[:0]
		resolved = false

		vs := r.VotingState
		if vs == nil || vs.CategoryIndex <= r.LastProcessedCategoryIndex {
			return false, nil
		}

		now := nowUTC()
		for _, ans := range vs.Answers {
			tally := vs.Tally(ans.VoteKey())
			valid := tally.Approved()

			if p := r.FindPlayer(ans.PlayerUID); p != nil {
				if p.VerifiedResults == nil {
					p.VerifiedResults = make(map[string]game.VerifiedResult)
				}
				p.VerifiedResults[vs.Category] = game.VerifiedResult{IsValid: valid, Answer: ans.Answer}
			}

			norm := game.Normalize(ans.Answer)
			if !r.HistoryContains(ans.PlayerUID, vs.Category, norm) {
				t := tally
				r.GameHistory = append(r.GameHistory, game.HistoryEntry{
					PlayerName: ans.PlayerName,
					PlayerUID:  ans.PlayerUID,
					Category:   vs.Category,
					Answer:     ans.Answer,
					IsValid:    valid,
					Votes:      &t,
				})
			}
			if valid {
				approved = append(approved, library.Approved{
					RoomID:   roomID,
					Category: vs.Category,
					Letter:   r.CurrentLetter,
					Word:     ans.Answer,
				})
			}
		}

		r.LastProcessedCategoryIndex = vs.CategoryIndex
		r.VotingState = nil
		r.Touch(now)
		resolved = true
		return true, nil
	})
	if err != nil {
		log.Printf("voting: resolving category in room %s failed: %v", roomID, err)
		return
	}
	if !resolved {
		s.debugf("voting: category in room %s already resolved by another writer", roomID)
		return
	}

	// Outside the transaction for throughput: the library is an advisory
	// cache, partial application is fine.
	s.library.AddBatch(ctx, approved)

	s.mu.Lock()
	s.scheduleProcessLocked(roomID)
	s.mu.Unlock()
}

// startVoteClockLocked begins the local countdown for a newly opened ballot.
func (s *Session) startVoteClockLocked(roomID string, categoryIndex int) {
	s.stopVoteClockLocked()
	s.vote = VoteClock{
		Active:        true,
		CategoryIndex: categoryIndex,
		Remaining:     s.cfg.Game.VoteCountdown,
		Max:           s.cfg.Game.VoteCountdown,
	}
	ctx, cancel := newTaskContext()
	s.tasks.voteCancel = cancel
	go s.voteClockLoop(ctx, roomID, categoryIndex)
}

func (s *Session) stopVoteClockLocked() {
	if s.tasks.voteCancel != nil {
		s.tasks.voteCancel()
		s.tasks.voteCancel = nil
	}
	s.vote = VoteClock{}
}

// voteClockLoop ticks the countdown once per second and auto-submits the
// local ballot when it reaches zero.
func (s *Session) voteClockLoop(ctx context.Context, roomID string, categoryIndex int) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if !s.vote.Active || s.vote.CategoryIndex != categoryIndex {
				s.mu.Unlock()
				return
			}
			s.vote.Remaining -= time.Second
			expired := s.vote.Remaining <= 0
			submitted := s.vote.Submitted
			s.mu.Unlock()

			if expired {
				if !submitted {
					if err := s.SubmitCategoryVotes(context.Background()); err != nil {
						log.Printf("voting: auto-submit for room %s failed: %v", roomID, err)
					}
				}
				return
			}
		}
	}
}

// ExtendVoteTime adds ten seconds to the countdown, once per category, and
// only inside the final stretch. Both remaining and max grow so the
// progress ratio stays meaningful. Cast votes are untouched.
func (s *Session) ExtendVoteTime() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.vote.Active || s.vote.Extended || s.vote.Remaining > s.cfg.Game.VoteExtensionWindow {
		return false
	}
	s.vote.Remaining += s.cfg.Game.VoteExtension
	s.vote.Max += s.cfg.Game.VoteExtension
	s.vote.Extended = true
	return true
}
