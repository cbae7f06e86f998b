package domain

// Votes is the tally of up and down votes on a post or comment.
type Votes struct {
	Positive int
	Negative int
}

// Score is positive minus negative votes.
func (v Votes) Score() int { return v.Positive - v.Negative }

// Total is the number of votes cast.
func (v Votes) Total() int { return v.Positive + v.Negative }

// VoteTally is the vote summary embedded in post and comment views.
type VoteTally struct {
	Score         int `json:"score"`
	PositiveVotes int `json:"positiveVotes"`
	NegativeVotes int `json:"negativeVotes"`
	TotalVotes    int `json:"totalVotes"`
}

// Tally returns the view representation of v.
func (v Votes) Tally() VoteTally {
	return VoteTally{
		Score:         v.Score(),
		PositiveVotes: v.Positive,
		NegativeVotes: v.Negative,
		TotalVotes:    v.Total(),
	}
}
