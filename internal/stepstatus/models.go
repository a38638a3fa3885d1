// Package stepstatus keeps the append-only outcome history of workflow steps
// and answers "is this step already done" for idempotent command handling.
package stepstatus

import (
	"time"

	"kyc/internal/process/models"
	id "kyc/pkg/domain"
)

// StepStatus is one recorded outcome of a step.
//
// Invariants:
//   - rows are never updated or deleted
//   - ID increases with insertion order
//   - a step is done when its most recent row is PASSED
type StepStatus struct {
	ID         int64            `json:"id"`
	ProcessID  id.ProcessID     `json:"process_id"`
	Step       models.Step      `json:"step_name"`
	State      models.StepState `json:"state"`
	Cause      string           `json:"error_cause,omitempty"`
	RecordedAt time.Time        `json:"recorded_at"`
}

func (s StepStatus) Passed() bool {
	return s.State == models.StepPassed
}
