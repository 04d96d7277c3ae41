package coordinator

// Mode selects the acceptance algorithm a batch runs.
type Mode string

const (
	ModeSimulate Mode = "simulate"
	ModeVerify   Mode = "verify"
)

// Valid reports whether m names a known algorithm.
func (m Mode) Valid() bool {
	return m == ModeSimulate || m == ModeVerify
}

// Decision is one target's verdict on one word.
type Decision struct {
	TargetID string `json:"target_id"`
	Word     string `json:"word"`
	Accepted bool   `json:"accepted"`

	// DeadEnd is only set in simulate mode.
	DeadEnd bool `json:"dead_end,omitempty"`
}

// TargetError describes a target that could not finish the batch.
type TargetError struct {
	TargetID string `json:"target_id"`
	Error    string `json:"error"`
}

// BatchResult is the merged result of a batch.
type BatchResult struct {
	BatchID           string        `json:"batch_id"`
	Mode              Mode          `json:"mode"`
	Status            string        `json:"status"` // "success", "partial", "error"
	Decisions         []Decision    `json:"decisions"`
	Accepted          int           `json:"accepted"`
	TookMs            int64         `json:"took_ms"`
	SuccessfulTargets []string      `json:"successful_targets"`
	Errors            []TargetError `json:"errors,omitempty"`
}
