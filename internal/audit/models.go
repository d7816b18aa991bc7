package audit

import (
	"time"

	"github.com/google/uuid"

	id "veriform/pkg/domain"
)

// Actions recorded by the engine.
const (
	ActionSubmitted = "annexure.submitted"
	ActionReplaced  = "annexure.replaced"
)

// Event is emitted from the engine to capture annexure writes. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp   time.Time      `json:"timestamp"`
	CandidateID id.CandidateID `json:"candidate_id"`
	ServiceID   id.ServiceID   `json:"service_id"`
	Unit        string         `json:"unit"`
	Action      string         `json:"action"`
	RecordID    uuid.UUID      `json:"record_id"`
	Inserted    bool           `json:"inserted"`
}
