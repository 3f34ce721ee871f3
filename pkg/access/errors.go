package access

import "errors"

// Sentinel errors for grant issuing and verification.
var (
	ErrInvalidPermissions = errors.New("access: invalid permissions")
	ErrInvalidExpiry      = errors.New("access: invalid expiry")
	ErrPresignFailed      = errors.New("access: presign failed")
	ErrInvalidSignature   = errors.New("access: invalid signature")
	ErrPolicyRevoked      = errors.New("access: access policy revoked")
)
