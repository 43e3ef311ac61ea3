package audit

import (
	"encoding/json"
	"time"
)

type Action string

const ActionResolve Action = "dossier_resolved"

// Event is emitted once per resolve. It never carries the raw CPF, only its
// SHA-256 hash.
type Event struct {
	Action        Action
	Timestamp     time.Time
	RequestID     string
	SubjectIDHash string
	Outcome       string
	Duration      time.Duration
	Unavailable   []string
	CacheHit      bool
}

type wireEvent struct {
	Action        Action    `json:"action"`
	Timestamp     time.Time `json:"timestamp"`
	RequestID     string    `json:"request_id,omitempty"`
	SubjectIDHash string    `json:"subject_id_hash,omitempty"`
	Outcome       string    `json:"outcome"`
	DurationMS    int64     `json:"duration_ms"`
	Unavailable   []string  `json:"unavailable,omitempty"`
	CacheHit      bool      `json:"cache_hit"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEvent{
		Action:        e.Action,
		Timestamp:     e.Timestamp.UTC(),
		RequestID:     e.RequestID,
		SubjectIDHash: e.SubjectIDHash,
		Outcome:       e.Outcome,
		DurationMS:    e.Duration.Milliseconds(),
		Unavailable:   e.Unavailable,
		CacheHit:      e.CacheHit,
	})
}
