package flow

import "time"

// Event is one entry in a run's progress stream. Task completions carry the
// stage id, fan-out key, terminal task status, and a shallow snapshot of the
// fields the accepted delta wrote. The final event of every stream carries
// the run outcome and nothing else.
type Event struct {
	Stage   string         `json:"stage,omitempty"`
	Key     string         `json:"key,omitempty"`
	Status  Status         `json:"status,omitempty"`
	Attempt int            `json:"attempt,omitempty"`
	Fields  map[string]any `json:"fields,omitempty"`
	Error   *StageError    `json:"error,omitempty"`
	Outcome *Outcome       `json:"outcome,omitempty"`
	Time    time.Time      `json:"time"`
}

// Record is one stage-log entry: a single task attempt, including retried
// attempts that never surface as events.
type Record struct {
	Stage   string    `json:"stage"`
	Key     string    `json:"key,omitempty"`
	Status  Status    `json:"status"`
	Attempt int       `json:"attempt"`
	Error   string    `json:"error,omitempty"`
	Time    time.Time `json:"time"`
}
