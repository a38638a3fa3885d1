package aggregate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	docmodels "kyc/internal/document/models"
	"kyc/internal/process/aggregate"
	"kyc/internal/process/models"
	id "kyc/pkg/domain"
	dErrors "kyc/pkg/domain-errors"
)

const (
	pid          = id.ProcessID("proc-1")
	nationalCode = "0012345679"
)

type AggregateSuite struct {
	suite.Suite
	now     time.Time
	history []models.Event
}

func TestAggregateSuite(t *testing.T) {
	suite.Run(t, new(AggregateSuite))
}

func (s *AggregateSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.history = nil
}

func (s *AggregateSuite) state() models.State {
	return models.Replay(s.history)
}

// exec decides cmd against the current history and appends the event.
func (s *AggregateSuite) exec(cmd models.Command) aggregate.Decision {
	s.now = s.now.Add(time.Minute)
	d, err := aggregate.Decide(s.state(), cmd, aggregate.Input{
		Now:        s.now,
		CustomerID: id.NewCustomerID(),
		Documents:  []models.DocumentRef{{Type: docmodels.DocumentPhoto, StoragePath: "p", Hash: "h"}},
	})
	s.Require().NoError(err)
	if d.Event != nil {
		s.history = append(s.history, *d.Event)
	}
	return d
}

func (s *AggregateSuite) execErr(cmd models.Command) error {
	before := len(s.history)
	d, err := aggregate.Decide(s.state(), cmd, aggregate.Input{Now: s.now})
	s.Require().Error(err)
	s.Nil(d.Event)
	s.Len(s.history, before)
	return err
}

func accepted(v bool) *bool { return &v }

func file(name string) docmodels.File {
	return docmodels.File{Bytes: []byte("data"), FileName: name, ContentType: "image/jpeg"}
}

func (s *AggregateSuite) startThroughAddress() {
	s.exec(models.StartProcess{ProcessID: pid, NationalCode: nationalCode})
	s.exec(models.AcceptConsent{ProcessID: pid, TermsVersion: "v3", Accepted: accepted(true)})
	s.exec(models.ProvidePersonalInfo{ProcessID: pid, FirstName: "Sara", LastName: "Ahmadi", Email: "sara@example.com", Phone: "+989121234567"})
	s.exec(models.CollectAddress{ProcessID: pid, PostalCode: "1234567890", Address: "1 Main St"})
}

func (s *AggregateSuite) TestHappyPath() {
	s.startThroughAddress()
	s.exec(models.UploadSelfie{ProcessID: pid, Image: file("selfie.jpg")})
	s.exec(models.UploadCardDocuments{ProcessID: pid, Front: file("f.jpg"), Back: file("b.jpg")})

	st := s.state()
	s.Equal(models.StatusCardUploaded, st.Status)
	s.Equal(int64(6), st.Version)
	s.True(st.Done(models.StepSelfieUploaded))
	s.True(st.Done(models.StepCardDocumentsUploaded))
	s.Len(st.Addresses, 1)
	s.Equal(nationalCode, st.NationalCode)

	for i, ev := range s.history {
		s.Equal(int64(i+1), ev.Version)
		s.Equal(pid, ev.ProcessID)
	}
}

func (s *AggregateSuite) TestReplayIsDeterministic() {
	s.startThroughAddress()
	s.exec(models.UploadSignature{ProcessID: pid, Image: file("sig.png")})
	s.exec(models.UpdateStatus{ProcessID: pid, Status: "COMPLETED", StepName: "REVIEW", State: "PASSED"})

	first := models.Replay(s.history)
	second := models.Replay(s.history)
	s.Equal(first, second)
	s.Equal(models.StatusCompleted, first.Status)
	s.Require().NotNil(first.CompletedAt)

	var folded models.State
	folded.Status = models.StatusUnstarted
	for _, ev := range s.history {
		folded = models.Apply(folded, ev)
	}
	s.Equal(first, folded)
}

func (s *AggregateSuite) TestUnknownProcess() {
	s.Run("empty history is not found", func() {
		err := s.execErr(models.AcceptConsent{ProcessID: pid, TermsVersion: "v1", Accepted: accepted(true)})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("history of another process is a mismatch", func() {
		s.exec(models.StartProcess{ProcessID: "other", NationalCode: nationalCode})
		err := s.execErr(models.AcceptConsent{ProcessID: pid, TermsVersion: "v1", Accepted: accepted(true)})
		s.True(dErrors.HasCode(err, dErrors.CodeIdentityMismatch))
	})
}

func (s *AggregateSuite) TestConsentValidation() {
	s.exec(models.StartProcess{ProcessID: pid, NationalCode: nationalCode})

	s.Run("not accepted", func() {
		err := s.execErr(models.AcceptConsent{ProcessID: pid, TermsVersion: "v1", Accepted: accepted(false)})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
	s.Run("accepted missing", func() {
		err := s.execErr(models.AcceptConsent{ProcessID: pid, TermsVersion: "v1"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
	s.Run("blank terms version", func() {
		err := s.execErr(models.AcceptConsent{ProcessID: pid, TermsVersion: "  ", Accepted: accepted(true)})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *AggregateSuite) TestConsentValidationWithoutHistory() {
	err := s.execErr(models.AcceptConsent{ProcessID: pid, TermsVersion: "", Accepted: accepted(false)})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *AggregateSuite) TestStartProcess() {
	s.Run("invalid national code", func() {
		err := s.execErr(models.StartProcess{ProcessID: pid, NationalCode: "1111111111"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("redelivery with same code is duplicate", func() {
		s.exec(models.StartProcess{ProcessID: pid, NationalCode: nationalCode})
		d := s.exec(models.StartProcess{ProcessID: pid, NationalCode: " " + nationalCode})
		s.True(d.Duplicate)
		s.Nil(d.Event)
		s.Require().NotNil(d.Previous)
		s.Equal(models.EventProcessStarted, d.Previous.Kind)
		s.Len(s.history, 1)
	})

	s.Run("redelivery with another code is a mismatch", func() {
		err := s.execErr(models.StartProcess{ProcessID: pid, NationalCode: "0499370899"})
		s.True(dErrors.HasCode(err, dErrors.CodeIdentityMismatch))
	})
}

func (s *AggregateSuite) TestStepOrdering() {
	s.exec(models.StartProcess{ProcessID: pid, NationalCode: nationalCode})

	err := s.execErr(models.ProvidePersonalInfo{ProcessID: pid, FirstName: "a", LastName: "b", Email: "a@b.c", Phone: "1"})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	err = s.execErr(models.UploadSelfie{ProcessID: pid, Image: file("s.jpg")})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *AggregateSuite) TestPersonalInfoEmail() {
	s.exec(models.StartProcess{ProcessID: pid, NationalCode: nationalCode})
	s.exec(models.AcceptConsent{ProcessID: pid, TermsVersion: "v3", Accepted: accepted(true)})

	err := s.execErr(models.ProvidePersonalInfo{ProcessID: pid, FirstName: "Sara", LastName: "Ahmadi", Email: "Sara <sara@example.com>", Phone: "1"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	d := s.exec(models.ProvidePersonalInfo{ProcessID: pid, FirstName: "Sara", LastName: "Ahmadi", Email: " sara@Example.com", Phone: "1"})
	s.Equal("sara@example.com", d.Event.Data.(models.PersonalInfoProvided).Email)
}

func (s *AggregateSuite) TestDuplicateUploadReturnsPrevious() {
	s.startThroughAddress()
	first := s.exec(models.UploadCardDocuments{ProcessID: pid, Front: file("f.jpg"), Back: file("b.jpg")})
	second := s.exec(models.UploadCardDocuments{ProcessID: pid, Front: file("f.jpg"), Back: file("b.jpg")})

	s.True(second.Duplicate)
	s.Require().NotNil(second.Previous)
	s.Equal(*first.Event, *second.Previous)
	s.Len(s.history, 5)
}

func (s *AggregateSuite) TestUploadValidation() {
	s.startThroughAddress()

	err := s.execErr(models.UploadIDPages{ProcessID: pid})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	err = s.execErr(models.UploadVideo{ProcessID: pid, Video: file("v.mp4")})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	err = s.execErr(models.UploadCardDocuments{ProcessID: pid, Front: file("f.jpg")})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *AggregateSuite) TestTerminalProcess() {
	s.startThroughAddress()
	s.exec(models.UpdateStatus{ProcessID: pid, Status: "rejected", StepName: "REVIEW", State: "FAILED"})
	s.Equal(models.StatusRejected, s.state().Status)

	err := s.execErr(models.UploadSelfie{ProcessID: pid, Image: file("s.jpg")})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	err = s.execErr(models.UpdateStatus{ProcessID: pid, Status: "STARTED", StepName: "REVIEW", State: "PASSED"})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *AggregateSuite) TestFailedStatusReopensStep() {
	s.startThroughAddress()
	s.exec(models.UploadSelfie{ProcessID: pid, Image: file("s.jpg")})
	s.exec(models.UpdateStatus{ProcessID: pid, Status: "SELFIE_UPLOADED", StepName: "selfie_uploaded", State: "failed"})

	s.False(s.state().Done(models.StepSelfieUploaded))
	d := s.exec(models.UploadSelfie{ProcessID: pid, Image: file("s2.jpg")})
	s.False(d.Duplicate)
	s.Require().NotNil(d.Event)
	s.True(s.state().Done(models.StepSelfieUploaded))
}

func (s *AggregateSuite) TestUpdateStatusValidation() {
	s.exec(models.StartProcess{ProcessID: pid, NationalCode: nationalCode})

	err := s.execErr(models.UpdateStatus{ProcessID: pid, Status: "", StepName: "X", State: "PASSED"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	err = s.execErr(models.UpdateStatus{ProcessID: pid, Status: "STARTED", StepName: "X", State: "DONE"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}
