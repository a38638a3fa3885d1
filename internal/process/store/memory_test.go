package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kyc/internal/process/models"
	id "kyc/pkg/domain"
	"kyc/pkg/platform/sentinel"
)

type EventStoreSuite struct {
	suite.Suite
	store *InMemoryEvents
	ctx   context.Context
}

func TestEventStoreSuite(t *testing.T) {
	suite.Run(t, new(EventStoreSuite))
}

func (s *EventStoreSuite) SetupTest() {
	s.store = NewInMemoryEvents()
	s.ctx = context.Background()
}

func event(pid id.ProcessID, version int64, data models.EventData) models.Event {
	return models.Event{
		ProcessID:  pid,
		Version:    version,
		Kind:       data.EventKind(),
		RecordedAt: time.Date(2026, 1, 1, 0, 0, int(version), 0, time.UTC),
		Data:       data,
	}
}

func (s *EventStoreSuite) TestAppendAndLoad() {
	s.Require().NoError(s.store.Append(s.ctx, event("p1", 1, models.ProcessStarted{NationalCode: "0012345679"})))
	s.Require().NoError(s.store.Append(s.ctx, event("p1", 2, models.ConsentAccepted{TermsVersion: "v1"})))
	s.Require().NoError(s.store.Append(s.ctx, event("p2", 1, models.ProcessStarted{NationalCode: "0499370899"})))

	history, err := s.store.Load(s.ctx, "p1")
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(models.EventProcessStarted, history[0].Kind)
	s.Equal(models.EventConsentAccepted, history[1].Kind)
}

func (s *EventStoreSuite) TestUnknownStreamIsEmpty() {
	history, err := s.store.Load(s.ctx, "missing")
	s.Require().NoError(err)
	s.Empty(history)
}

func (s *EventStoreSuite) TestVersionConflict() {
	s.Require().NoError(s.store.Append(s.ctx, event("p1", 1, models.ProcessStarted{NationalCode: "0012345679"})))

	s.Run("same version twice", func() {
		err := s.store.Append(s.ctx, event("p1", 1, models.ProcessStarted{NationalCode: "0012345679"}))
		s.ErrorIs(err, sentinel.ErrConflict)
	})
	s.Run("gap in versions", func() {
		err := s.store.Append(s.ctx, event("p1", 3, models.ConsentAccepted{TermsVersion: "v1"}))
		s.ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *EventStoreSuite) TestLoadReturnsCopy() {
	s.Require().NoError(s.store.Append(s.ctx, event("p1", 1, models.ProcessStarted{NationalCode: "0012345679"})))
	history, err := s.store.Load(s.ctx, "p1")
	s.Require().NoError(err)
	history[0].Version = 99

	again, err := s.store.Load(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(int64(1), again[0].Version)
}
