package storage

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Sentinel errors for storage operations.
var (
	// Configuration errors.
	ErrInvalidConfig = errors.New("storage: invalid configuration")

	// Input errors.
	ErrInvalidInput   = errors.New("storage: invalid input")
	ErrObjectTooLarge = errors.New("storage: object exceeds size limit")
	ErrInvalidMIME    = errors.New("storage: file type not allowed")

	// S3 operation errors.
	ErrNotFound           = errors.New("storage: object not found")
	ErrAccessDenied       = errors.New("storage: access denied")
	ErrUploadFailed       = errors.New("storage: upload failed")
	ErrReadFailed         = errors.New("storage: read failed")
	ErrTagFailed          = errors.New("storage: tag update failed")
	ErrListFailed         = errors.New("storage: listing failed")
	ErrPreconditionFailed = errors.New("storage: precondition failed")

	// Copy errors.
	ErrCopyFailed     = errors.New("storage: copy failed")
	ErrCopyTimedOut   = errors.New("storage: copy did not complete in time")
	ErrDigestMismatch = errors.New("storage: content digest mismatch")

	// Bootstrap errors.
	ErrContainerEnsureFailed = errors.New("storage: failed to ensure container")
	ErrPolicyEnsureFailed    = errors.New("storage: failed to ensure access policy")
)

// wrapS3Error wraps S3 errors with appropriate sentinel errors.
// Uses %v (not %w) for the original error to normalize error types;
// callers match with errors.Is against sentinels, not errors.As on AWS types.
func wrapS3Error(err error, fallback error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		case "PreconditionFailed":
			return fmt.Errorf("%w: %v", ErrPreconditionFailed, err)
		}
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	return fmt.Errorf("%w: %v", fallback, err)
}
