package forms

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/nkiryanov/minitwitter/internal/apperrors"
)

// Max photo size in bytes
const MaxUploadSize = 5 << 20

const (
	msgInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	msgTooLarge     = "The uploaded file is too large (max 5 MB)."
	msgEmptyFile    = "The submitted file is empty."
)

// Image received in a multipart form
type Upload struct {
	Data []byte

	// Detected content type, e.g. 'image/png'
	ContentType string

	// File extension with leading dot matching content type
	Extension string
}

// Read and check uploaded image
func readImage(file io.Reader, field string) (*Upload, error) {
	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	switch {
	case err != nil:
		return nil, fmt.Errorf("can't read uploaded file: %w", err)
	case len(data) == 0:
		return nil, apperrors.NewValidationError(field, msgEmptyFile)
	case len(data) > MaxUploadSize:
		return nil, apperrors.NewValidationError(field, msgTooLarge)
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, apperrors.NewValidationError(field, msgInvalidImage)
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, apperrors.NewValidationError(field, msgInvalidImage)
	}

	return &Upload{
		Data:        data,
		ContentType: mime.String(),
		Extension:   mime.Extension(),
	}, nil
}
