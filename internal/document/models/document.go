package models

import (
	"strings"
	"time"

	id "kyc/pkg/domain"
)

// DocumentType names a kind of uploaded identity document.
type DocumentType string

const (
	DocumentCardFront DocumentType = "CARD_FRONT"
	DocumentCardBack  DocumentType = "CARD_BACK"
	DocumentIDBooklet DocumentType = "ID_BOOKLET"
	DocumentPhoto     DocumentType = "PHOTO"
	DocumentVideo     DocumentType = "VIDEO"
	DocumentSignature DocumentType = "SIGNATURE"
)

func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentCardFront, DocumentCardBack, DocumentIDBooklet, DocumentPhoto, DocumentVideo, DocumentSignature:
		return true
	}
	return false
}

func (t DocumentType) String() string {
	return string(t)
}

// File is one uploaded payload as delivered by the workflow engine.
// ContentType may be empty, in which case it is sniffed from Bytes.
type File struct {
	Bytes       []byte `json:"bytes"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type,omitempty"`
}

// Extension returns the lower-cased extension without the dot, or "".
func (f File) Extension() string {
	name := strings.TrimSpace(f.FileName)
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// Encryption describes how a stored object was sealed. Zero value means plaintext.
type Encryption struct {
	Algorithm string `json:"algorithm,omitempty"`
	KeyID     string `json:"key_id,omitempty"`
	Nonce     []byte `json:"nonce,omitempty"`
}

func (e Encryption) Enabled() bool {
	return e.Algorithm != ""
}

// Document is a stored upload belonging to a process.
//
// Invariants:
//   - The current version for (Type, ProcessID) is the row with the highest ID
//   - Hash is the hex SHA-256 of the bytes handed to storage, before encryption
//   - Hash is not unique; identical files in different processes are legal
type Document struct {
	ID          int64        `json:"id"`
	ProcessID   id.ProcessID `json:"process_id"`
	Type        DocumentType `json:"type"`
	StoragePath string       `json:"storage_path"`
	Hash        string       `json:"hash"`
	ContentType string       `json:"content_type"`
	SizeBytes   int64        `json:"size_bytes"`
	Verified    bool         `json:"verified"`
	Encryption  Encryption   `json:"encryption"`
	CreatedAt   time.Time    `json:"created_at"`
}
