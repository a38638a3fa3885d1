package service

import (
	"context"

	"kyc/internal/document/models"
	processmodels "kyc/internal/process/models"
	dErrors "kyc/pkg/domain-errors"
)

// Projector writes one Document row per ref carried by a committed upload
// event. A reused ref still gets a row so the newest upload stays current.
type Projector struct {
	docs Store
}

func NewProjector(docs Store) *Projector {
	return &Projector{docs: docs}
}

func (p *Projector) Project(ctx context.Context, ev processmodels.Event, _ processmodels.State) error {
	for _, ref := range processmodels.Documents(ev.Data) {
		_, err := p.docs.Insert(ctx, models.Document{
			ProcessID:   ev.ProcessID,
			Type:        ref.Type,
			StoragePath: ref.StoragePath,
			Hash:        ref.Hash,
			ContentType: ref.ContentType,
			SizeBytes:   ref.SizeBytes,
			Encryption:  ref.Encryption,
			CreatedAt:   ev.RecordedAt,
		})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "project document")
		}
	}
	return nil
}
