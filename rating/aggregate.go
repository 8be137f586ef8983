package rating

import (
	"errors"
	"math"
)

// ErrNoVotes is returned by Aggregate for a histogram without votes.
var ErrNoVotes = errors.New("rating: histogram has no votes")

// Result is the weighted average of a histogram.
type Result struct {
	Mean    float64 `json:"mean"`    // Total / Votes
	Rounded int     `json:"rounded"` // RoundHalfUp(Mean), drives classes and label
	Votes   int     `json:"votes"`
	Total   int     `json:"total"` // sum of score*count
}

// Aggregate reduces a histogram to its weighted mean. Scores are expected in
// [MinScore, MaxScore]; Vote.UnmarshalJSON enforces that for decoded input.
func Aggregate(h Histogram) (Result, error) {
	total, votes, err := h.Sums()
	if err != nil {
		return Result{}, err
	}
	if votes == 0 {
		return Result{}, ErrNoVotes
	}

	res := Result{Total: total, Votes: votes}
	// Large sums lose precision as float64; keep the mean in range.
	res.Mean = math.Min(math.Max(float64(total)/float64(votes), MinScore), MaxScore)
	res.Rounded = RoundHalfUp(res.Mean)
	return res, nil
}

// RoundHalfUp rounds to the nearest integer, ties upwards, clamped to the
// score range.
func RoundHalfUp(x float64) int {
	n := int(math.Floor(x + 0.5))
	switch {
	case n < MinScore:
		return MinScore
	case n > MaxScore:
		return MaxScore
	}
	return n
}
