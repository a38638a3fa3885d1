// Package storage holds the document object storage adapters.
package storage

import (
	"fmt"

	"github.com/google/uuid"

	"kyc/internal/document/models"
	id "kyc/pkg/domain"
)

// Object is a payload ready to be written.
type Object struct {
	ProcessID   id.ProcessID
	Type        models.DocumentType
	ContentType string
	Payload     []byte
	// Hash is the hex SHA-256 of Payload as computed by the caller.
	Hash string
}

// Stored describes a written object.
type Stored struct {
	Path       string
	Hash       string
	SizeBytes  int64
	Encryption models.Encryption
}

// objectKey builds a unique key so re-uploads never overwrite an earlier version.
func objectKey(prefix string, obj Object) string {
	key := fmt.Sprintf("%s/%s/%s", obj.ProcessID, obj.Type, uuid.NewString())
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}
