package models

import "strings"

// Status is the overall process status. It mirrors the latest event.
type Status string

const (
	StatusUnstarted         Status = "UNSTARTED"
	StatusStarted           Status = "STARTED"
	StatusConsentAccepted   Status = "CONSENT_ACCEPTED"
	StatusInfoProvided      Status = "INFO_PROVIDED"
	StatusAddressCollected  Status = "ADDRESS_COLLECTED"
	StatusCardUploaded      Status = "CARD_UPLOADED"
	StatusIDUploaded        Status = "ID_UPLOADED"
	StatusSelfieUploaded    Status = "SELFIE_UPLOADED"
	StatusVideoUploaded     Status = "VIDEO_UPLOADED"
	StatusSignatureUploaded Status = "SIGNATURE_UPLOADED"
	StatusCompleted         Status = "COMPLETED"
	StatusRejected          Status = "REJECTED"
	StatusFailed            Status = "FAILED"

	// StatusUnknown is reported by status queries when nothing is known.
	StatusUnknown Status = "UNKNOWN"
)

// IsTerminal reports whether no further commands are accepted.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusRejected, StatusFailed:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus normalizes an engine-reported status. Unknown values are kept
// as-is since the engine owns the vocabulary beyond the core states.
func ParseStatus(s string) Status {
	return Status(strings.ToUpper(strings.TrimSpace(s)))
}

// StepState is the outcome recorded for one workflow step.
type StepState string

const (
	StepStarted StepState = "STARTED"
	StepPassed  StepState = "PASSED"
	StepFailed  StepState = "FAILED"
)

func (s StepState) IsValid() bool {
	switch s {
	case StepStarted, StepPassed, StepFailed:
		return true
	}
	return false
}

func (s StepState) String() string {
	return string(s)
}

// Step names a workflow step. Steps driven by commands share the name of the
// event that completes them.
type Step string

const (
	StepProcessStarted        Step = "PROCESS_STARTED"
	StepConsentAccepted       Step = "CONSENT_ACCEPTED"
	StepPersonalInfoProvided  Step = "PERSONAL_INFO_PROVIDED"
	StepAddressCollected      Step = "ADDRESS_COLLECTED"
	StepCardDocumentsUploaded Step = "CARD_DOCUMENTS_UPLOADED"
	StepIDPagesUploaded       Step = "ID_PAGES_UPLOADED"
	StepSelfieUploaded        Step = "SELFIE_UPLOADED"
	StepVideoUploaded         Step = "VIDEO_UPLOADED"
	StepSignatureUploaded     Step = "SIGNATURE_UPLOADED"
	StepCustomerRegistered    Step = "CUSTOMER_REGISTERED"
)

func (s Step) String() string {
	return string(s)
}
