package validation

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyc/internal/document/models"
	dErrors "kyc/pkg/domain-errors"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestValidate(t *testing.T) {
	pngData := pngBytes(t)
	pdfData := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")

	cases := []struct {
		name    string
		docType models.DocumentType
		file    models.File
		kind    Kind
		ct      string
		code    dErrors.Code
	}{
		{
			name:    "jpeg by extension and declared type",
			docType: models.DocumentCardFront,
			file:    models.File{Bytes: []byte{0xff, 0xd8, 0xff}, FileName: "front.JPG", ContentType: "IMAGE/JPEG"},
			kind:    KindImage,
			ct:      "image/jpeg",
		},
		{
			name:    "wildcard image type resolved from extension",
			docType: models.DocumentPhoto,
			file:    models.File{Bytes: pngData, FileName: "selfie.png", ContentType: "image/*"},
			kind:    KindImage,
			ct:      "image/png",
		},
		{
			name:    "wildcard video type resolved from extension",
			docType: models.DocumentVideo,
			file:    models.File{Bytes: []byte{0, 0, 0, 1}, FileName: "clip.mp4", ContentType: "video/*"},
			kind:    KindVideo,
			ct:      "video/mp4",
		},
		{
			name:    "wildcard application type resolved for pdf",
			docType: models.DocumentIDBooklet,
			file:    models.File{Bytes: pdfData, FileName: "page1.pdf", ContentType: "application/*"},
			kind:    KindPDF,
			ct:      "application/pdf",
		},
		{
			name:    "wildcard image type sniffed without extension",
			docType: models.DocumentCardBack,
			file:    models.File{Bytes: pngData, FileName: "back", ContentType: "Image/*"},
			kind:    KindImage,
			ct:      "image/png",
		},
		{
			name:    "wildcard category must match the file",
			docType: models.DocumentVideo,
			file:    models.File{Bytes: []byte{0, 0, 0, 1}, FileName: "clip.mp4", ContentType: "image/*"},
			code:    dErrors.CodeUnsupportedMediaType,
		},
		{
			name:    "wildcard video type rejected for card",
			docType: models.DocumentCardFront,
			file:    models.File{Bytes: []byte{0, 0, 0, 1}, FileName: "front.mp4", ContentType: "video/*"},
			code:    dErrors.CodeUnsupportedMediaType,
		},
		{
			name:    "missing extension allowed when content type passes",
			docType: models.DocumentSignature,
			file:    models.File{Bytes: pngData, FileName: "signature", ContentType: "image/png"},
			kind:    KindImage,
			ct:      "image/png",
		},
		{
			name:    "content type sniffed when not declared",
			docType: models.DocumentCardBack,
			file:    models.File{Bytes: pngData, FileName: "back"},
			kind:    KindImage,
			ct:      "image/png",
		},
		{
			name:    "pdf accepted for id booklet",
			docType: models.DocumentIDBooklet,
			file:    models.File{Bytes: pdfData, FileName: "page1.pdf", ContentType: "application/pdf; charset=binary"},
			kind:    KindPDF,
			ct:      "application/pdf",
		},
		{
			name:    "video accepted for video",
			docType: models.DocumentVideo,
			file:    models.File{Bytes: []byte{0, 0, 0, 1}, FileName: "clip.mov", ContentType: "video/quicktime"},
			kind:    KindVideo,
			ct:      "video/quicktime",
		},
		{
			name:    "unknown extension fails",
			docType: models.DocumentCardFront,
			file:    models.File{Bytes: pngData, FileName: "front.gif", ContentType: "image/png"},
			code:    dErrors.CodeUnsupportedMediaType,
		},
		{
			name:    "unknown content type fails",
			docType: models.DocumentCardFront,
			file:    models.File{Bytes: pngData, FileName: "front", ContentType: "text/plain"},
			code:    dErrors.CodeUnsupportedMediaType,
		},
		{
			name:    "pdf rejected for card",
			docType: models.DocumentCardFront,
			file:    models.File{Bytes: pdfData, FileName: "front.pdf", ContentType: "application/pdf"},
			code:    dErrors.CodeUnsupportedMediaType,
		},
		{
			name:    "extension and content type disagree",
			docType: models.DocumentIDBooklet,
			file:    models.File{Bytes: pdfData, FileName: "page.png", ContentType: "application/pdf"},
			code:    dErrors.CodeUnsupportedMediaType,
		},
		{
			name:    "empty bytes",
			docType: models.DocumentPhoto,
			file:    models.File{FileName: "selfie.png", ContentType: "image/png"},
			code:    dErrors.CodeValidation,
		},
		{
			name:    "unknown document type",
			docType: models.DocumentType("PASSPORT"),
			file:    models.File{Bytes: pngData, FileName: "p.png"},
			code:    dErrors.CodeValidation,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Validate(tc.docType, tc.file)
			if tc.code != "" {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, tc.code), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.kind, res.Kind)
			assert.Equal(t, tc.ct, res.ContentType)
		})
	}
}
