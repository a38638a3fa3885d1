package stepstatus

import (
	"context"

	"kyc/internal/process/models"
	id "kyc/pkg/domain"
)

// Store is the persistence port for step history. Latest returns
// sentinel.ErrNotFound when the step has no rows.
type Store interface {
	Append(ctx context.Context, rec StepStatus) (StepStatus, error)
	Latest(ctx context.Context, pid id.ProcessID, step models.Step) (StepStatus, error)
	History(ctx context.Context, pid id.ProcessID) ([]StepStatus, error)
}
