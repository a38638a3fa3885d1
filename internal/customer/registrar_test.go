package customer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kyc/internal/platform/logger"
	"kyc/internal/process/models"
	"kyc/internal/stepstatus"
	"kyc/internal/verification"
	id "kyc/pkg/domain"
	dErrors "kyc/pkg/domain-errors"
)

type flakyRegisterer struct {
	calls    atomic.Int32
	failures int32
	err      error
}

func (f *flakyRegisterer) RegisterCustomer(context.Context, verification.RegistrationRequest) error {
	n := f.calls.Add(1)
	if n <= f.failures {
		return f.err
	}
	return nil
}

type RegistrarSuite struct {
	suite.Suite
	ctx     context.Context
	tracker *stepstatus.Tracker
}

func TestRegistrarSuite(t *testing.T) {
	suite.Run(t, new(RegistrarSuite))
}

func (s *RegistrarSuite) SetupTest() {
	s.ctx = context.Background()
	s.tracker = stepstatus.NewTracker(stepstatus.NewInMemoryStore())
}

func outage() error {
	return verification.NewProviderError(verification.ErrorOutage, "register_customer", "down", nil)
}

func (s *RegistrarSuite) registrar(remote Registerer) *Registrar {
	return NewRegistrar(remote, s.tracker,
		WithRetry(5, time.Millisecond),
		WithRegistrarLogger(logger.Discard()),
	)
}

func (s *RegistrarSuite) passed(pid id.ProcessID) bool {
	ok, err := s.tracker.IsPassed(s.ctx, pid, models.StepCustomerRegistered)
	s.Require().NoError(err)
	return ok
}

func (s *RegistrarSuite) TestRetriesTransientFailures() {
	remote := &flakyRegisterer{failures: 4, err: outage()}

	err := s.registrar(remote).Register(s.ctx, "p1", id.NewCustomerID(), "0012345679")
	s.Require().NoError(err)
	s.Equal(int32(5), remote.calls.Load())
	s.True(s.passed("p1"))
}

func (s *RegistrarSuite) TestGivesUpAfterFiveAttempts() {
	remote := &flakyRegisterer{failures: 100, err: outage()}

	err := s.registrar(remote).Register(s.ctx, "p1", id.NewCustomerID(), "0012345679")
	s.Require().Error(err)
	s.Equal(int32(5), remote.calls.Load())

	latest, err := s.tracker.Latest(s.ctx, "p1", models.StepCustomerRegistered)
	s.Require().NoError(err)
	s.Equal(models.StepFailed, latest.State)
	s.NotEmpty(latest.Cause)
}

func (s *RegistrarSuite) TestPermanentFailureIsNotRetried() {
	remote := &flakyRegisterer{failures: 100, err: dErrors.New(dErrors.CodeUpstreamAuthFailure, "bad credentials")}

	err := s.registrar(remote).Register(s.ctx, "p1", id.NewCustomerID(), "0012345679")
	s.Require().Error(err)
	s.Equal(int32(1), remote.calls.Load())
}

func (s *RegistrarSuite) TestAlreadyRegisteredSkipsRemote() {
	_, err := s.tracker.Record(s.ctx, "p1", models.StepCustomerRegistered, models.StepPassed, "")
	s.Require().NoError(err)
	remote := &flakyRegisterer{}

	s.Require().NoError(s.registrar(remote).Register(s.ctx, "p1", id.NewCustomerID(), "0012345679"))
	s.Equal(int32(0), remote.calls.Load())
}

func (s *RegistrarSuite) TestOnCommittedRunsInBackground() {
	remote := &flakyRegisterer{}
	r := s.registrar(remote)

	state := models.State{ProcessID: "p9", CustomerID: id.NewCustomerID(), NationalCode: "0012345679"}
	r.OnCommitted(s.ctx, models.Event{ProcessID: "p9", Kind: models.EventConsentAccepted}, state)
	r.OnCommitted(s.ctx, models.Event{ProcessID: "p9", Kind: models.EventProcessStarted}, state)
	r.Wait()

	s.Equal(int32(1), remote.calls.Load())
	s.True(s.passed("p9"))
}
