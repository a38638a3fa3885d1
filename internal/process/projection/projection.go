// Package projection maintains the queryable process read model and answers
// status lookups by national code.
package projection

import (
	"context"
	"time"

	"kyc/internal/process/models"
	id "kyc/pkg/domain"
	dErrors "kyc/pkg/domain-errors"
)

// Process is the read-model row of one verification process.
type Process struct {
	ProcessID    id.ProcessID
	CustomerID   id.CustomerID
	NationalCode string
	Status       models.Status
	StartedAt    time.Time
	CompletedAt  *time.Time
	UpdatedAt    time.Time
	Addresses    []models.Address
}

// Store persists process rows. LatestStatus returns sentinel.ErrNotFound when
// no process exists for the code.
type Store interface {
	Upsert(ctx context.Context, p Process) error
	AddAddress(ctx context.Context, pid id.ProcessID, addr models.Address) error
	Get(ctx context.Context, pid id.ProcessID) (Process, error)
	LatestStatus(ctx context.Context, nationalCode string) (models.Status, error)
}

// Projector keeps the read model in step with committed events.
type Projector struct {
	store Store
}

func NewProjector(store Store) *Projector {
	return &Projector{store: store}
}

// Project writes the process row from the folded state and appends the
// address an AddressCollected event carries.
func (p *Projector) Project(ctx context.Context, ev models.Event, state models.State) error {
	if !state.Started() {
		return nil
	}
	err := p.store.Upsert(ctx, Process{
		ProcessID:    state.ProcessID,
		CustomerID:   state.CustomerID,
		NationalCode: state.NationalCode,
		Status:       state.Status,
		StartedAt:    state.StartedAt,
		CompletedAt:  state.CompletedAt,
		UpdatedAt:    state.UpdatedAt,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "project process")
	}
	if d, ok := ev.Data.(models.AddressCollected); ok {
		err := p.store.AddAddress(ctx, ev.ProcessID, models.Address{
			PostalCode:  d.PostalCode,
			Address:     d.Address,
			CollectedAt: ev.RecordedAt,
		})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "project address")
		}
	}
	return nil
}
