// Package kafka adapts workflow-engine command records to the process service
// and publishes committed events.
package kafka

import (
	"encoding/json"
	"strings"

	"kyc/internal/process/models"
	id "kyc/pkg/domain"
	dErrors "kyc/pkg/domain-errors"
)

// Envelope is the wire shape of a command record:
//
//	{"type": "UPLOAD_SELFIE", "payload": {"process_id": "...", "image": {...}}}
//
// File bytes travel base64 encoded.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

var decoders = map[models.CommandKind]func(json.RawMessage) (models.Command, error){
	models.CommandStartProcess:        decodeAs[models.StartProcess],
	models.CommandAcceptConsent:       decodeAs[models.AcceptConsent],
	models.CommandProvidePersonalInfo: decodeAs[models.ProvidePersonalInfo],
	models.CommandCollectAddress:      decodeAs[models.CollectAddress],
	models.CommandUploadCardDocuments: decodeAs[models.UploadCardDocuments],
	models.CommandUploadIDPages:       decodeAs[models.UploadIDPages],
	models.CommandUploadSelfie:        decodeAs[models.UploadSelfie],
	models.CommandUploadVideo:         decodeAs[models.UploadVideo],
	models.CommandUploadSignature:     decodeAs[models.UploadSignature],
	models.CommandUpdateStatus:        decodeAs[models.UpdateStatus],
}

func decodeAs[T models.Command](raw json.RawMessage) (models.Command, error) {
	var cmd T
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

// DecodeCommand parses a command record value. Every failure is a validation
// error: the record can never succeed.
func DecodeCommand(value []byte) (models.Command, error) {
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "malformed command envelope")
	}
	kind := models.CommandKind(strings.ToUpper(strings.TrimSpace(env.Type)))
	decode, ok := decoders[kind]
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown command type: "+env.Type)
	}
	if len(env.Payload) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "command payload is required")
	}
	cmd, err := decode(env.Payload)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "malformed "+string(kind)+" payload")
	}
	pid, err := id.ParseProcessID(cmd.Target().String())
	if err != nil {
		return nil, err
	}
	if pid != cmd.Target() {
		return nil, dErrors.New(dErrors.CodeValidation, "process id is malformed")
	}
	return cmd, nil
}

// EncodeCommand builds a command record value.
func EncodeCommand(cmd models.Command) ([]byte, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: string(cmd.Kind()), Payload: payload})
}
