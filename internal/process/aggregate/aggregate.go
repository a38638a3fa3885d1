// Package aggregate decides which event, if any, a command produces against a
// process state. It performs no I/O.
package aggregate

import (
	"strings"
	"time"

	"kyc/internal/process/models"
	id "kyc/pkg/domain"
	dErrors "kyc/pkg/domain-errors"
	"kyc/pkg/email"
)

// Input carries values resolved outside the aggregate that end up on events.
type Input struct {
	Now        time.Time
	CustomerID id.CustomerID
	Documents  []models.DocumentRef
	InquiryID  string
}

// Decision is the outcome of a command.
//
// Exactly one of Event or Duplicate is set on success. A duplicate carries the
// event that originally completed the step, when there is one.
type Decision struct {
	Event     *models.Event
	Duplicate bool
	Previous  *models.Event
}

type handler struct {
	// check validates cmd against state without building an event.
	// It returns true when the command is a duplicate of a completed step.
	check func(state models.State, cmd models.Command) (bool, error)
	build func(state models.State, cmd models.Command, in Input) models.EventData
}

var handlers = map[models.CommandKind]handler{
	models.CommandStartProcess:        {check: checkStart, build: buildStart},
	models.CommandAcceptConsent:       {check: checkConsent, build: buildConsent},
	models.CommandProvidePersonalInfo: {check: checkPersonalInfo, build: buildPersonalInfo},
	models.CommandCollectAddress:      {check: checkAddress, build: buildAddress},
	models.CommandUploadCardDocuments: {check: checkUpload, build: buildUpload},
	models.CommandUploadIDPages:       {check: checkUpload, build: buildUpload},
	models.CommandUploadSelfie:        {check: checkUpload, build: buildUpload},
	models.CommandUploadVideo:         {check: checkUpload, build: buildUpload},
	models.CommandUploadSignature:     {check: checkUpload, build: buildUpload},
	models.CommandUpdateStatus:        {check: checkUpdateStatus, build: buildUpdateStatus},
}

// Check validates cmd against state. It is what Decide runs first, exposed so
// side effects can be gated on it before the final decision.
func Check(state models.State, cmd models.Command) (Decision, error) {
	h, ok := handlers[cmd.Kind()]
	if !ok {
		return Decision{}, dErrors.New(dErrors.CodeValidation, "unknown command kind")
	}
	if cmd.Target().IsNil() {
		return Decision{}, dErrors.New(dErrors.CodeValidation, "process id is required")
	}
	if cmd.Kind() != models.CommandStartProcess {
		if err := requireHistory(state, cmd.Target()); err != nil {
			return Decision{}, err
		}
	}
	dup, err := h.check(state, cmd)
	if err != nil {
		return Decision{}, err
	}
	if dup {
		d := Decision{Duplicate: true}
		if ev, ok := state.EventFor(models.StepFor(cmd)); ok {
			d.Previous = &ev
		}
		return d, nil
	}
	return Decision{}, nil
}

// Decide validates cmd and returns the single event it produces.
func Decide(state models.State, cmd models.Command, in Input) (Decision, error) {
	d, err := Check(state, cmd)
	if err != nil || d.Duplicate {
		return d, err
	}
	data := handlers[cmd.Kind()].build(state, cmd, in)
	return Decision{Event: &models.Event{
		ProcessID:  cmd.Target(),
		Version:    state.Version + 1,
		Kind:       data.EventKind(),
		RecordedAt: in.Now.UTC(),
		Data:       data,
	}}, nil
}

func requireHistory(state models.State, target id.ProcessID) error {
	if !state.Started() {
		return dErrors.New(dErrors.CodeNotFound, "process not found")
	}
	if state.ProcessID != target {
		return dErrors.New(dErrors.CodeIdentityMismatch, "history belongs to another process")
	}
	return nil
}

func requireOpen(state models.State) error {
	if state.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeInvalidState, "process is "+state.Status.String())
	}
	return nil
}

func requireStep(state models.State, step models.Step) error {
	if !state.Done(step) {
		return dErrors.New(dErrors.CodeInvalidState, step.String()+" must be completed first")
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func checkStart(state models.State, cmd models.Command) (bool, error) {
	c := cmd.(models.StartProcess)
	code, err := id.ParseNationalCode(c.NationalCode)
	if err != nil {
		return false, err
	}
	if !state.Started() {
		return false, nil
	}
	if state.ProcessID != c.ProcessID || state.NationalCode != code.String() {
		return false, dErrors.New(dErrors.CodeIdentityMismatch, "process already started for another customer")
	}
	return true, nil
}

func buildStart(_ models.State, cmd models.Command, in Input) models.EventData {
	c := cmd.(models.StartProcess)
	return models.ProcessStarted{
		NationalCode: strings.TrimSpace(c.NationalCode),
		CustomerID:   in.CustomerID,
	}
}

func checkConsent(state models.State, cmd models.Command) (bool, error) {
	c := cmd.(models.AcceptConsent)
	if blank(c.TermsVersion) {
		return false, dErrors.New(dErrors.CodeValidation, "terms version is required")
	}
	if c.Accepted == nil || !*c.Accepted {
		return false, dErrors.New(dErrors.CodeValidation, "consent must be accepted")
	}
	return ordered(state, models.StepConsentAccepted, models.StepProcessStarted)
}

func buildConsent(_ models.State, cmd models.Command, _ Input) models.EventData {
	c := cmd.(models.AcceptConsent)
	return models.ConsentAccepted{TermsVersion: strings.TrimSpace(c.TermsVersion)}
}

func checkPersonalInfo(state models.State, cmd models.Command) (bool, error) {
	c := cmd.(models.ProvidePersonalInfo)
	switch {
	case blank(c.FirstName):
		return false, dErrors.New(dErrors.CodeValidation, "first name is required")
	case blank(c.LastName):
		return false, dErrors.New(dErrors.CodeValidation, "last name is required")
	case blank(c.Email):
		return false, dErrors.New(dErrors.CodeValidation, "email is required")
	case !email.Valid(c.Email):
		return false, dErrors.New(dErrors.CodeValidation, "email is malformed")
	case blank(c.Phone):
		return false, dErrors.New(dErrors.CodeValidation, "phone is required")
	}
	return ordered(state, models.StepPersonalInfoProvided, models.StepConsentAccepted)
}

func buildPersonalInfo(_ models.State, cmd models.Command, _ Input) models.EventData {
	c := cmd.(models.ProvidePersonalInfo)
	addr, _ := email.Normalize(c.Email)
	return models.PersonalInfoProvided{
		FirstName: strings.TrimSpace(c.FirstName),
		LastName:  strings.TrimSpace(c.LastName),
		Email:     addr,
		Phone:     strings.TrimSpace(c.Phone),
	}
}

func checkAddress(state models.State, cmd models.Command) (bool, error) {
	c := cmd.(models.CollectAddress)
	if blank(c.PostalCode) {
		return false, dErrors.New(dErrors.CodeValidation, "postal code is required")
	}
	if blank(c.Address) {
		return false, dErrors.New(dErrors.CodeValidation, "address is required")
	}
	return ordered(state, models.StepAddressCollected, models.StepPersonalInfoProvided)
}

func buildAddress(_ models.State, cmd models.Command, _ Input) models.EventData {
	c := cmd.(models.CollectAddress)
	return models.AddressCollected{
		PostalCode: strings.TrimSpace(c.PostalCode),
		Address:    strings.TrimSpace(c.Address),
	}
}

func checkUpload(state models.State, cmd models.Command) (bool, error) {
	uploads := models.UploadsOf(cmd)
	if len(uploads) == 0 {
		return false, dErrors.New(dErrors.CodeValidation, "at least one file is required")
	}
	for _, u := range uploads {
		if len(u.File.Bytes) == 0 {
			return false, dErrors.New(dErrors.CodeValidation, u.Type.String()+" file is required")
		}
	}
	if c, ok := cmd.(models.UploadVideo); ok && blank(c.InquiryToken) {
		return false, dErrors.New(dErrors.CodeValidation, "inquiry token is required")
	}
	return ordered(state, models.StepFor(cmd), models.StepAddressCollected)
}

func buildUpload(_ models.State, cmd models.Command, in Input) models.EventData {
	docs := models.DocumentsUploaded{Documents: in.Documents}
	switch cmd.(type) {
	case models.UploadCardDocuments:
		return models.CardDocumentsUploaded{DocumentsUploaded: docs}
	case models.UploadIDPages:
		return models.IDPagesUploaded{DocumentsUploaded: docs}
	case models.UploadSelfie:
		return models.SelfieUploaded{DocumentsUploaded: docs}
	case models.UploadVideo:
		return models.VideoUploaded{DocumentsUploaded: docs, InquiryID: in.InquiryID}
	default:
		return models.SignatureUploaded{DocumentsUploaded: docs}
	}
}

func checkUpdateStatus(state models.State, cmd models.Command) (bool, error) {
	c := cmd.(models.UpdateStatus)
	if blank(c.Status) {
		return false, dErrors.New(dErrors.CodeValidation, "status is required")
	}
	if blank(c.StepName) {
		return false, dErrors.New(dErrors.CodeValidation, "step name is required")
	}
	if !models.StepState(strings.ToUpper(strings.TrimSpace(c.State))).IsValid() {
		return false, dErrors.New(dErrors.CodeValidation, "step state must be STARTED, PASSED or FAILED")
	}
	if err := requireOpen(state); err != nil {
		return false, err
	}
	return false, nil
}

func buildUpdateStatus(_ models.State, cmd models.Command, _ Input) models.EventData {
	c := cmd.(models.UpdateStatus)
	return models.StatusUpdated{
		Status:   models.ParseStatus(c.Status),
		StepName: models.Step(strings.ToUpper(strings.TrimSpace(c.StepName))),
		State:    models.StepState(strings.ToUpper(strings.TrimSpace(c.State))),
	}
}

// ordered treats an already completed step as a duplicate, and otherwise
// requires an open process whose prerequisite step is done.
func ordered(state models.State, step, prerequisite models.Step) (bool, error) {
	if state.Done(step) {
		return true, nil
	}
	if err := requireOpen(state); err != nil {
		return false, err
	}
	return false, requireStep(state, prerequisite)
}
