package models

import (
	"strings"

	docmodels "kyc/internal/document/models"
	id "kyc/pkg/domain"
)

// CommandKind tags a command for dispatch.
type CommandKind string

const (
	CommandStartProcess        CommandKind = "START_PROCESS"
	CommandAcceptConsent       CommandKind = "ACCEPT_CONSENT"
	CommandProvidePersonalInfo CommandKind = "PROVIDE_PERSONAL_INFO"
	CommandCollectAddress      CommandKind = "COLLECT_ADDRESS"
	CommandUploadCardDocuments CommandKind = "UPLOAD_CARD_DOCUMENTS"
	CommandUploadIDPages       CommandKind = "UPLOAD_ID_PAGES"
	CommandUploadSelfie        CommandKind = "UPLOAD_SELFIE"
	CommandUploadVideo         CommandKind = "UPLOAD_VIDEO"
	CommandUploadSignature     CommandKind = "UPLOAD_SIGNATURE"
	CommandUpdateStatus        CommandKind = "UPDATE_STATUS"
)

// Command is an instruction from the workflow engine addressed to one process.
type Command interface {
	Kind() CommandKind
	Target() id.ProcessID
}

type StartProcess struct {
	ProcessID    id.ProcessID `json:"process_id"`
	NationalCode string       `json:"national_code"`
}

type AcceptConsent struct {
	ProcessID    id.ProcessID `json:"process_id"`
	TermsVersion string       `json:"terms_version"`
	// Accepted is a pointer so an absent field is distinguishable from false.
	Accepted *bool `json:"accepted"`
}

type ProvidePersonalInfo struct {
	ProcessID id.ProcessID `json:"process_id"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Email     string       `json:"email"`
	Phone     string       `json:"phone"`
}

type CollectAddress struct {
	ProcessID  id.ProcessID `json:"process_id"`
	PostalCode string       `json:"postal_code"`
	Address    string       `json:"address"`
}

type UploadCardDocuments struct {
	ProcessID id.ProcessID   `json:"process_id"`
	Front     docmodels.File `json:"front"`
	Back      docmodels.File `json:"back"`
}

type UploadIDPages struct {
	ProcessID id.ProcessID     `json:"process_id"`
	Pages     []docmodels.File `json:"pages"`
}

type UploadSelfie struct {
	ProcessID id.ProcessID   `json:"process_id"`
	Image     docmodels.File `json:"image"`
}

type UploadVideo struct {
	ProcessID    id.ProcessID   `json:"process_id"`
	Video        docmodels.File `json:"video"`
	InquiryToken string         `json:"inquiry_token"`
}

type UploadSignature struct {
	ProcessID id.ProcessID   `json:"process_id"`
	Image     docmodels.File `json:"image"`
}

type UpdateStatus struct {
	ProcessID id.ProcessID `json:"process_id"`
	Status    string       `json:"status"`
	StepName  string       `json:"step_name"`
	State     string       `json:"state"`
}

func (StartProcess) Kind() CommandKind        { return CommandStartProcess }
func (AcceptConsent) Kind() CommandKind       { return CommandAcceptConsent }
func (ProvidePersonalInfo) Kind() CommandKind { return CommandProvidePersonalInfo }
func (CollectAddress) Kind() CommandKind      { return CommandCollectAddress }
func (UploadCardDocuments) Kind() CommandKind { return CommandUploadCardDocuments }
func (UploadIDPages) Kind() CommandKind       { return CommandUploadIDPages }
func (UploadSelfie) Kind() CommandKind        { return CommandUploadSelfie }
func (UploadVideo) Kind() CommandKind         { return CommandUploadVideo }
func (UploadSignature) Kind() CommandKind     { return CommandUploadSignature }
func (UpdateStatus) Kind() CommandKind        { return CommandUpdateStatus }

func (c StartProcess) Target() id.ProcessID        { return c.ProcessID }
func (c AcceptConsent) Target() id.ProcessID       { return c.ProcessID }
func (c ProvidePersonalInfo) Target() id.ProcessID { return c.ProcessID }
func (c CollectAddress) Target() id.ProcessID      { return c.ProcessID }
func (c UploadCardDocuments) Target() id.ProcessID { return c.ProcessID }
func (c UploadIDPages) Target() id.ProcessID       { return c.ProcessID }
func (c UploadSelfie) Target() id.ProcessID        { return c.ProcessID }
func (c UploadVideo) Target() id.ProcessID         { return c.ProcessID }
func (c UploadSignature) Target() id.ProcessID     { return c.ProcessID }
func (c UpdateStatus) Target() id.ProcessID        { return c.ProcessID }

// IsUpload reports whether the command carries files that must be stored
// before the step can commit.
func (k CommandKind) IsUpload() bool {
	switch k {
	case CommandUploadCardDocuments, CommandUploadIDPages, CommandUploadSelfie,
		CommandUploadVideo, CommandUploadSignature:
		return true
	}
	return false
}

// StepFor returns the step a command completes. UpdateStatus has no fixed step.
func StepFor(cmd Command) Step {
	switch c := cmd.(type) {
	case StartProcess:
		return StepProcessStarted
	case AcceptConsent:
		return StepConsentAccepted
	case ProvidePersonalInfo:
		return StepPersonalInfoProvided
	case CollectAddress:
		return StepAddressCollected
	case UploadCardDocuments:
		return StepCardDocumentsUploaded
	case UploadIDPages:
		return StepIDPagesUploaded
	case UploadSelfie:
		return StepSelfieUploaded
	case UploadVideo:
		return StepVideoUploaded
	case UploadSignature:
		return StepSignatureUploaded
	case UpdateStatus:
		return Step(strings.ToUpper(strings.TrimSpace(c.StepName)))
	}
	return ""
}

// Upload is one file of an upload command paired with the document type it becomes.
type Upload struct {
	Type docmodels.DocumentType
	File docmodels.File
}

// UploadsOf lists the files carried by an upload command, in a stable order.
func UploadsOf(cmd Command) []Upload {
	switch c := cmd.(type) {
	case UploadCardDocuments:
		return []Upload{
			{Type: docmodels.DocumentCardFront, File: c.Front},
			{Type: docmodels.DocumentCardBack, File: c.Back},
		}
	case UploadIDPages:
		out := make([]Upload, 0, len(c.Pages))
		for _, p := range c.Pages {
			out = append(out, Upload{Type: docmodels.DocumentIDBooklet, File: p})
		}
		return out
	case UploadSelfie:
		return []Upload{{Type: docmodels.DocumentPhoto, File: c.Image}}
	case UploadVideo:
		return []Upload{{Type: docmodels.DocumentVideo, File: c.Video}}
	case UploadSignature:
		return []Upload{{Type: docmodels.DocumentSignature, File: c.Image}}
	}
	return nil
}
