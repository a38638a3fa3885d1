// Package validation checks uploaded files against per-document allow-lists.
package validation

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"kyc/internal/document/models"
	dErrors "kyc/pkg/domain-errors"
)

// Kind is the media family of an accepted file.
type Kind string

const (
	KindImage Kind = "image"
	KindPDF   Kind = "pdf"
	KindVideo Kind = "video"
)

var extensions = map[string]Kind{
	"jpg":  KindImage,
	"jpeg": KindImage,
	"png":  KindImage,
	"pdf":  KindPDF,
	"mp4":  KindVideo,
	"mov":  KindVideo,
}

var extensionContentType = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"pdf":  "application/pdf",
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
}

var contentTypes = map[string]Kind{
	"image/jpeg":      KindImage,
	"image/jpg":       KindImage,
	"image/pjpeg":     KindImage,
	"image/png":       KindImage,
	"application/pdf": KindPDF,
	"video/mp4":       KindVideo,
	"video/quicktime": KindVideo,
}

var allowedKinds = map[models.DocumentType][]Kind{
	models.DocumentCardFront: {KindImage},
	models.DocumentCardBack:  {KindImage},
	models.DocumentIDBooklet: {KindImage, KindPDF},
	models.DocumentPhoto:     {KindImage},
	models.DocumentSignature: {KindImage},
	models.DocumentVideo:     {KindVideo},
}

// Result is what the pipeline needs to know about an accepted file.
type Result struct {
	Kind        Kind
	ContentType string
}

// Validate accepts a file for docType or returns a coded error.
//
// A present but unknown extension fails. A missing extension is allowed when
// the content type passes. A missing content type is sniffed from the bytes.
func Validate(docType models.DocumentType, f models.File) (Result, error) {
	if !docType.IsValid() {
		return Result{}, dErrors.New(dErrors.CodeValidation, "unknown document type")
	}
	if len(f.Bytes) == 0 {
		return Result{}, dErrors.New(dErrors.CodeValidation, "file is empty")
	}

	ext := f.Extension()
	var extKind Kind
	if ext != "" {
		k, ok := extensions[ext]
		if !ok {
			return Result{}, dErrors.New(dErrors.CodeUnsupportedMediaType, "unsupported file extension: "+ext)
		}
		extKind = k
	}

	declared := normalizeContentType(f.ContentType)
	if declared == "" {
		declared = normalizeContentType(mimetype.Detect(f.Bytes).String())
	}
	resolved := declared
	if top, ok := wildcardTop(declared); ok {
		if ext != "" {
			resolved = extensionContentType[ext]
		} else {
			resolved = normalizeContentType(mimetype.Detect(f.Bytes).String())
		}
		if !strings.HasPrefix(resolved, top+"/") {
			return Result{}, dErrors.New(dErrors.CodeUnsupportedMediaType, "unsupported content type: "+declared)
		}
	}
	ctKind, ok := contentTypes[resolved]
	if !ok {
		return Result{}, dErrors.New(dErrors.CodeUnsupportedMediaType, "unsupported content type: "+declared)
	}
	if extKind != "" && extKind != ctKind {
		return Result{}, dErrors.New(dErrors.CodeUnsupportedMediaType, "extension does not match content type")
	}
	if !kindAllowed(docType, ctKind) {
		return Result{}, dErrors.New(dErrors.CodeUnsupportedMediaType,
			string(ctKind)+" is not accepted for "+docType.String())
	}
	return Result{Kind: ctKind, ContentType: resolved}, nil
}

// wildcardTop returns "video" for "video/*".
func wildcardTop(ct string) (string, bool) {
	top, ok := strings.CutSuffix(ct, "/*")
	if !ok || top == "" || strings.Contains(top, "/") {
		return "", false
	}
	return top, true
}

func kindAllowed(docType models.DocumentType, k Kind) bool {
	for _, allowed := range allowedKinds[docType] {
		if allowed == k {
			return true
		}
	}
	return false
}

// normalizeContentType lower-cases and drops parameters such as charset.
func normalizeContentType(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return strings.ToLower(mt)
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
