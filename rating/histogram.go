// Package rating defines the vote histogram, the aggregate score computed from
// it, and the outcome record emitted for every injection run. These are the
// public contract: sinks and callers outside the module only import this
// package.
package rating

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// Score bounds of a single vote.
const (
	MinScore = 0
	MaxScore = 10
)

// ErrOverflow is returned when the histogram sums do not fit in an int.
var ErrOverflow = errors.New("rating: vote totals overflow")

// ErrBadVote is returned when a histogram entry is not a usable [score, count] pair.
var ErrBadVote = errors.New("rating: bad vote pair")

// Vote is one histogram bucket: Count users rated the title Score.
type Vote struct {
	Score int
	Count int
}

// UnmarshalJSON decodes the [score, count] pair form used by the page.
func (v *Vote) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("%w: %v", ErrBadVote, err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: %d elements", ErrBadVote, len(pair))
	}
	if pair[0] < MinScore || pair[0] > MaxScore {
		return fmt.Errorf("%w: score %d out of range", ErrBadVote, pair[0])
	}
	if pair[1] < 0 {
		return fmt.Errorf("%w: negative count %d", ErrBadVote, pair[1])
	}
	v.Score, v.Count = pair[0], pair[1]
	return nil
}

// MarshalJSON encodes the vote back to its pair form.
func (v Vote) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{v.Score, v.Count})
}

// Histogram is the ordered list of vote buckets embedded in a title page.
type Histogram []Vote

// Votes returns the number of votes across all buckets, or -1 when the sum
// overflows.
func (h Histogram) Votes() int {
	_, n, err := h.Sums()
	if err != nil {
		return -1
	}
	return n
}

// Sums returns the weighted score total and the vote count. It fails with
// ErrOverflow instead of wrapping around, and with ErrBadVote on negative
// entries.
func (h Histogram) Sums() (total, votes int, err error) {
	var t, n uint64
	for _, v := range h {
		if v.Score < 0 || v.Count < 0 {
			return 0, 0, fmt.Errorf("%w: %d x %d", ErrBadVote, v.Score, v.Count)
		}
		hi, prod := bits.Mul64(uint64(v.Score), uint64(v.Count))
		var c1, c2 uint64
		t, c1 = bits.Add64(t, prod, 0)
		n, c2 = bits.Add64(n, uint64(v.Count), 0)
		if hi != 0 || c1 != 0 || c2 != 0 || t > math.MaxInt || n > math.MaxInt {
			return 0, 0, ErrOverflow
		}
	}
	return int(t), int(n), nil
}
