package harness

// TraceEvent is one recorded change, with identities replaced by labels.
type TraceEvent struct {
	Seq      int64    `json:"seq"`
	Reason   string   `json:"reason"`
	Subject  string   `json:"subject"`
	Path     []string `json:"path"`
	OldIndex int      `json:"old_index"` // tree.NoIndex when not applicable
	NewIndex int      `json:"new_index"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds the changes recorded during the flow, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State maps each labelled folder still attached at the end of the
	// run to its children's names.
	State map[string][]string `json:"state,omitempty"`

	// Delivered counts, per folder label, the flow changes a subscriber
	// received for that folder.
	Delivered map[string]int `json:"delivered,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Trace:     []TraceEvent{},
		Errors:    []string{},
		State:     make(map[string][]string),
		Delivered: make(map[string]int),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
