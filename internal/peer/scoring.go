package peer

import (
	"context"

	"tuttifrutti/internal/game"
)

// CalculateFinalScores tallies the whole round once every category is
// resolved, then moves the room to finished. The scoresCalculated latch is
// checked inside the transaction, so under concurrent hosts exactly one
// writer performs the transition and every other attempt aborts cleanly.
func (s *Session) CalculateFinalScores(ctx context.Context) error {
	s.mu.Lock()
	roomID := s.room.ID
	s.mu.Unlock()
	if roomID == "" {
		return nil
	}

	return s.store.UpdateRoom(ctx, roomID, func(r *game.Room) (bool, error) {
		if r.Status != game.StatusVoting || r.ScoresCalculated {
			return false, nil
		}

		totals := make(map[string]int)
		for _, cat := range r.Categories {
			valid := game.CategoryValidAnswers(r, cat)
			for _, own := range valid {
				points, reason := game.ScoreAnswer(own, valid)

				p := r.FindPlayer(own.UID)
				if p == nil {
					continue
				}
				vr := p.VerifiedResults[cat]
				vr.Points = points
				p.VerifiedResults[cat] = vr
				totals[own.UID] += points

				if e := r.FindHistory(own.UID, cat, own.Normalized); e != nil {
					e.Points = points
					e.PointsReason = reason
				}
			}
		}

		// Round totals add onto the running score; only ResetRoom clears it.
		for _, p := range r.Players {
			p.Score += totals[p.UID]
		}

		for i := range r.GameHistory {
			e := &r.GameHistory[i]
			if !e.IsValid && e.PointsReason == "" {
				e.PointsReason = game.ReasonRejected
			}
		}

		r.Status = game.StatusFinished
		r.VotingState = nil
		r.ScoresCalculated = true
		r.Touch(nowUTC())
		return true, nil
	})
}
