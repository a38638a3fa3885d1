package models

import (
	"encoding/json"
	"fmt"
	"time"

	docmodels "kyc/internal/document/models"
	id "kyc/pkg/domain"
)

// EventKind tags an event. Kinds double as persisted discriminators, so
// values must never change.
type EventKind string

const (
	EventProcessStarted        EventKind = "PROCESS_STARTED"
	EventConsentAccepted       EventKind = "CONSENT_ACCEPTED"
	EventPersonalInfoProvided  EventKind = "PERSONAL_INFO_PROVIDED"
	EventAddressCollected      EventKind = "ADDRESS_COLLECTED"
	EventCardDocumentsUploaded EventKind = "CARD_DOCUMENTS_UPLOADED"
	EventIDPagesUploaded       EventKind = "ID_PAGES_UPLOADED"
	EventSelfieUploaded        EventKind = "SELFIE_UPLOADED"
	EventVideoUploaded         EventKind = "VIDEO_UPLOADED"
	EventSignatureUploaded     EventKind = "SIGNATURE_UPLOADED"
	EventStatusUpdated         EventKind = "STATUS_UPDATED"
)

// Event is one committed fact in a process history.
//
// Invariants:
//   - Version starts at 1 and increases by one per process
//   - the first event of every history is PROCESS_STARTED
type Event struct {
	ProcessID  id.ProcessID `json:"process_id"`
	Version    int64        `json:"version"`
	Kind       EventKind    `json:"kind"`
	RecordedAt time.Time    `json:"recorded_at"`
	Data       EventData    `json:"-"`
}

// EventData is the kind-specific payload of an event.
type EventData interface {
	EventKind() EventKind
}

type ProcessStarted struct {
	NationalCode string        `json:"national_code"`
	CustomerID   id.CustomerID `json:"customer_id"`
}

type ConsentAccepted struct {
	TermsVersion string `json:"terms_version"`
}

type PersonalInfoProvided struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type AddressCollected struct {
	PostalCode string `json:"postal_code"`
	Address    string `json:"address"`
}

// DocumentRef is the stored form of one uploaded file as recorded on its event.
type DocumentRef struct {
	Type        docmodels.DocumentType `json:"type"`
	StoragePath string                 `json:"storage_path"`
	Hash        string                 `json:"hash"`
	ContentType string                 `json:"content_type"`
	SizeBytes   int64                  `json:"size_bytes"`
	Encryption  docmodels.Encryption   `json:"encryption"`
	// Reused is set when storage was skipped because the current document
	// already had the same hash.
	Reused bool `json:"reused,omitempty"`
}

type DocumentsUploaded struct {
	Documents []DocumentRef `json:"documents"`
}

type CardDocumentsUploaded struct{ DocumentsUploaded }
type IDPagesUploaded struct{ DocumentsUploaded }
type SelfieUploaded struct{ DocumentsUploaded }
type SignatureUploaded struct{ DocumentsUploaded }

type VideoUploaded struct {
	DocumentsUploaded
	InquiryID string `json:"inquiry_id,omitempty"`
}

type StatusUpdated struct {
	Status   Status    `json:"status"`
	StepName Step      `json:"step_name"`
	State    StepState `json:"state"`
}

func (ProcessStarted) EventKind() EventKind        { return EventProcessStarted }
func (ConsentAccepted) EventKind() EventKind       { return EventConsentAccepted }
func (PersonalInfoProvided) EventKind() EventKind  { return EventPersonalInfoProvided }
func (AddressCollected) EventKind() EventKind      { return EventAddressCollected }
func (CardDocumentsUploaded) EventKind() EventKind { return EventCardDocumentsUploaded }
func (IDPagesUploaded) EventKind() EventKind       { return EventIDPagesUploaded }
func (SelfieUploaded) EventKind() EventKind        { return EventSelfieUploaded }
func (VideoUploaded) EventKind() EventKind         { return EventVideoUploaded }
func (SignatureUploaded) EventKind() EventKind     { return EventSignatureUploaded }
func (StatusUpdated) EventKind() EventKind         { return EventStatusUpdated }

// Documents returns the document refs carried by an upload event, or nil.
func Documents(data EventData) []DocumentRef {
	switch d := data.(type) {
	case CardDocumentsUploaded:
		return d.Documents
	case IDPagesUploaded:
		return d.Documents
	case SelfieUploaded:
		return d.Documents
	case VideoUploaded:
		return d.Documents
	case SignatureUploaded:
		return d.Documents
	}
	return nil
}

var payloadDecoders = map[EventKind]func([]byte) (EventData, error){
	EventProcessStarted:        decodeAs[ProcessStarted],
	EventConsentAccepted:       decodeAs[ConsentAccepted],
	EventPersonalInfoProvided:  decodeAs[PersonalInfoProvided],
	EventAddressCollected:      decodeAs[AddressCollected],
	EventCardDocumentsUploaded: decodeAs[CardDocumentsUploaded],
	EventIDPagesUploaded:       decodeAs[IDPagesUploaded],
	EventSelfieUploaded:        decodeAs[SelfieUploaded],
	EventVideoUploaded:         decodeAs[VideoUploaded],
	EventSignatureUploaded:     decodeAs[SignatureUploaded],
	EventStatusUpdated:         decodeAs[StatusUpdated],
}

func decodeAs[T EventData](raw []byte) (EventData, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// EncodePayload serializes an event payload for storage.
func EncodePayload(data EventData) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", data.EventKind(), err)
	}
	return raw, nil
}

// DecodePayload restores a stored payload of the given kind.
func DecodePayload(kind EventKind, raw []byte) (EventData, error) {
	decode, ok := payloadDecoders[kind]
	if !ok {
		return nil, fmt.Errorf("unknown event kind %q", kind)
	}
	data, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return data, nil
}

type wireEvent struct {
	ProcessID  id.ProcessID    `json:"process_id"`
	Version    int64           `json:"version"`
	Kind       EventKind       `json:"kind"`
	RecordedAt time.Time       `json:"recorded_at"`
	Payload    json.RawMessage `json:"payload"`
}

// MarshalJSON includes the payload so events can be published as-is.
func (e Event) MarshalJSON() ([]byte, error) {
	var payload json.RawMessage
	if e.Data != nil {
		raw, err := EncodePayload(e.Data)
		if err != nil {
			return nil, err
		}
		payload = raw
	}
	return json.Marshal(wireEvent{
		ProcessID:  e.ProcessID,
		Version:    e.Version,
		Kind:       e.Kind,
		RecordedAt: e.RecordedAt,
		Payload:    payload,
	})
}

func (e *Event) UnmarshalJSON(b []byte) error {
	var w wireEvent
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	data, err := DecodePayload(w.Kind, w.Payload)
	if err != nil {
		return err
	}
	*e = Event{ProcessID: w.ProcessID, Version: w.Version, Kind: w.Kind, RecordedAt: w.RecordedAt, Data: data}
	return nil
}
