package storage

import (
	"fmt"
	"strings"
)

// Codes carried by FileValidationError.
const (
	ErrCodeFileTooLarge = "file_too_large"
	ErrCodeInvalidMIME  = "invalid_mime"
	ErrCodeEmptyFile    = "empty_file"
)

// FileValidationError rejects an upload before it reaches the bucket. It
// unwraps to ErrObjectTooLarge, ErrInvalidMIME or ErrInvalidInput.
type FileValidationError struct {
	Field   string
	Code    string
	Message string
	cause   error
}

func (e *FileValidationError) Error() string { return e.Message }
func (e *FileValidationError) Unwrap() error { return e.cause }

// Upload describes a received file before it is stored.
type Upload struct {
	Field       string
	Filename    string
	ContentType string // as declared by the client
	Size        int64
}

func (u Upload) reject(code, msg string, cause error) *FileValidationError {
	return &FileValidationError{Field: u.Field, Code: code, Message: msg, cause: cause}
}

// Rule checks one property of an upload.
type Rule func(Upload) error

// ValidateUpload applies rules in order and returns the first failure.
func ValidateUpload(u Upload, rules ...Rule) error {
	if u.Field == "" {
		u.Field = "file"
	}
	for _, rule := range rules {
		if err := rule(u); err != nil {
			return err
		}
	}
	return nil
}

// NotEmpty rejects zero-byte files.
func NotEmpty() Rule {
	return func(u Upload) error {
		if u.Size > 0 {
			return nil
		}
		return u.reject(ErrCodeEmptyFile, "file is required", ErrInvalidInput)
	}
}

// MaxSize rejects files over limit bytes.
func MaxSize(limit int64) Rule {
	return func(u Upload) error {
		if u.Size <= limit {
			return nil
		}
		return u.reject(ErrCodeFileTooLarge,
			fmt.Sprintf("file size %d exceeds limit of %d bytes", u.Size, limit),
			ErrObjectTooLarge)
	}
}

// AllowedTypes accepts declared types matching one of patterns ("image/*"
// style wildcards work). An undeclared type counts as octet-stream.
func AllowedTypes(patterns ...string) Rule {
	return func(u Upload) error {
		declared := normalizeMIME(u.ContentType)
		if strings.TrimSpace(declared) == "" {
			declared = MIMEOctetStream
		}
		for _, p := range patterns {
			if matchesMIME(declared, p) {
				return nil
			}
		}
		return u.reject(ErrCodeInvalidMIME,
			fmt.Sprintf("file type %q is not allowed; send a PDF", declared),
			ErrInvalidMIME)
	}
}

// ReceiptRules is the rule set for receipt uploads.
func ReceiptRules(maxBytes int64) []Rule {
	return []Rule{NotEmpty(), MaxSize(maxBytes), AllowedTypes(MIMEPDF, MIMEOctetStream)}
}
