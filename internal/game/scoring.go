package game

// Point awards per validated answer.
const (
	PointsUnique    = 20 // only valid answer in the category
	PointsDistinct  = 10 // others exist, but none fuzzy-match this one
	PointsDuplicate = 5  // at least one other owner's answer fuzzy-matches
)

// Reason codes recorded next to awarded points in the history.
const (
	ReasonUnique    = "unique"
	ReasonDistinct  = "distinct"
	ReasonDuplicate = "duplicate"
	ReasonRejected  = "rejected"
)

// ValidAnswer is one community-approved answer inside a category, keyed by
// its owner and carried in normalized form.
type ValidAnswer struct {
	UID        string
	Answer     string
	Normalized string
}

// ScoreAnswer classifies one valid answer against every other valid answer
// in the same category. Answers by the same owner never count as "others".
func ScoreAnswer(own ValidAnswer, all []ValidAnswer) (points int, reason string) {
	others := 0
	matched := false
	for _, a := range all {
		if a.UID == own.UID {
			continue
		}
		others++
		if fuzzyEqualNormalized(own.Normalized, a.Normalized) {
			matched = true
		}
	}
	switch {
	case others == 0:
		return PointsUnique, ReasonUnique
	case matched:
		return PointsDuplicate, ReasonDuplicate
	default:
		return PointsDistinct, ReasonDistinct
	}
}

// CategoryValidAnswers collects the valid verified answers for one category,
// in player order.
func CategoryValidAnswers(r *Room, category string) []ValidAnswer {
	var out []ValidAnswer
	for _, p := range r.Players {
		vr, ok := p.VerifiedResults[category]
		if !ok || !vr.IsValid {
			continue
		}
		out = append(out, ValidAnswer{
			UID:        p.UID,
			Answer:     vr.Answer,
			Normalized: Normalize(vr.Answer),
		})
	}
	return out
}
