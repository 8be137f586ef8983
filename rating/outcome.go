package rating

import "encoding/json"

// State is how a single injection run ended.
type State string

const (
	StateSkipped State = "skipped" // page gate short-circuited, nothing changed
	StateNoData  State = "no_data" // placeholder widget inserted
	StateScored  State = "scored"  // computed widget and captions inserted
	StateFailed  State = "failed"  // run aborted, page left untouched
)

// Outcome is emitted once per pipeline run.
type Outcome struct {
	RunID     string  `json:"run_id"` // UUIDv7
	PageURL   string  `json:"page_url,omitempty"`
	Path      string  `json:"path"`
	Trigger   string  `json:"trigger,omitempty"` // DOM event name or "immediate"
	State     State   `json:"state"`
	Reason    string  `json:"reason,omitempty"`
	Locale    string  `json:"locale,omitempty"`
	Score     *Result `json:"score,omitempty"` // set for StateScored only
	Timestamp int64   `json:"timestamp"`       // epoch milliseconds
}

// Changed reports whether the run modified the page.
func (o Outcome) Changed() bool {
	return o.State == StateNoData || o.State == StateScored
}

// MarshalOutcome serialises an Outcome to JSON.
func MarshalOutcome(o *Outcome) ([]byte, error) {
	return json.Marshal(o)
}

// UnmarshalOutcome deserialises an Outcome from JSON.
func UnmarshalOutcome(data []byte) (*Outcome, error) {
	var o Outcome
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, err
	}
	return &o, nil
}
