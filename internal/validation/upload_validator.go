// Package validation checks files before they enter the dataset pipeline.
package validation

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// UploadValidator validates uploaded replacement datasets before the parser
// sees them.
type UploadValidator struct {
	logger   *slog.Logger
	maxBytes int64
}

// NewUploadValidator creates an upload validator with a size cap.
func NewUploadValidator(maxBytes int64, logger *slog.Logger) *UploadValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadValidator{
		logger:   logger.With(slog.String("component", "upload_validator")),
		maxBytes: maxBytes,
	}
}

// ValidateFilename checks the uploaded file name.
func (v *UploadValidator) ValidateFilename(name string) error {
	if name == "" {
		return fmt.Errorf("file name is required")
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".csv" && ext != ".txt" {
		v.logger.Warn("rejected upload extension",
			slog.String("filename", name),
			slog.String("extension", ext))
		return fmt.Errorf("unsupported file type %s, expected .csv", ext)
	}
	return nil
}

// ValidateContent checks size and encoding of the uploaded bytes.
func (v *UploadValidator) ValidateContent(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("uploaded file is empty")
	}
	if v.maxBytes > 0 && int64(len(data)) > v.maxBytes {
		v.logger.Warn("rejected oversized upload",
			slog.Int("size", len(data)),
			slog.Int64("max", v.maxBytes))
		return fmt.Errorf("uploaded file exceeds maximum size of %d bytes", v.maxBytes)
	}

	// Strip a UTF-8 BOM before the checks; Excel exports carry one.
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	if bytes.IndexByte(data, 0x00) >= 0 {
		return fmt.Errorf("uploaded file appears to be binary, expected delimited text")
	}
	if !utf8.Valid(data) {
		return fmt.Errorf("uploaded file is not valid UTF-8")
	}
	return nil
}
