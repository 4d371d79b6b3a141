package game

// VotingState is the open ballot for one category. Votes holds live
// previews keyed voter uid -> answer key; AllPlayersVoted holds finalized
// ballots under the same shape. Only finalized ballots feed the tally.
type VotingState struct {
	Category        string                     `json:"category"`
	CategoryIndex   int                        `json:"categoryIndex"`
	Answers         []VoteAnswer               `json:"answers"`
	Votes           map[string]map[string]bool `json:"votes"`
	AllPlayersVoted map[string]map[string]bool `json:"allPlayersVoted"`
}

// VoteAnswer is one answer on the ballot.
type VoteAnswer struct {
	PlayerIndex int    `json:"playerIndex"`
	PlayerName  string `json:"playerName"`
	PlayerUID   string `json:"playerUid"`
	Answer      string `json:"answer"`
}

// VoteKey identifies this answer on the ballot. The owner's uid is enough:
// each player holds at most one answer per category.
func (a VoteAnswer) VoteKey() string {
	return a.PlayerUID
}

// LiveVote returns the voter's current preview for an answer. A vote that
// was never cast counts as approval.
func (vs *VotingState) LiveVote(voterUID, key string) bool {
	m, ok := vs.Votes[voterUID]
	if !ok {
		return true
	}
	v, ok := m[key]
	if !ok {
		return true
	}
	return v
}

// SetLiveVote records the voter's preview for one answer. Each voter only
// ever writes under its own uid, so concurrent voters never collide.
func (vs *VotingState) SetLiveVote(voterUID, key string, approve bool) {
	if vs.Votes == nil {
		vs.Votes = make(map[string]map[string]bool)
	}
	if vs.Votes[voterUID] == nil {
		vs.Votes[voterUID] = make(map[string]bool)
	}
	vs.Votes[voterUID][key] = approve
}

// Submitted reports whether the voter finalized a ballot for this category.
func (vs *VotingState) Submitted(voterUID string) bool {
	_, ok := vs.AllPlayersVoted[voterUID]
	return ok
}

// Tally counts the finalized ballots for one answer. Previews are ignored:
// a voter who never submitted contributes nothing.
func (vs *VotingState) Tally(key string) VoteTally {
	var t VoteTally
	for _, ballot := range vs.AllPlayersVoted {
		v, ok := ballot[key]
		if !ok {
			v = true
		}
		if v {
			t.Yes++
		} else {
			t.No++
		}
	}
	return t
}

// Approved reports the verdict for a tally. Ties approve; the benefit of
// the doubt goes to the answer's owner.
func (t VoteTally) Approved() bool {
	return t.Yes >= t.No
}
