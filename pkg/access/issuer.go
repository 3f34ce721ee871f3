package access

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Komal-TGT/Storage-service/pkg/clock"
	"github.com/Komal-TGT/Storage-service/pkg/storage"
)

// SharedRoute is the gateway route that serves permanent grants.
const SharedRoute = "/receipts/shared"

// DefaultExpiry is the lifetime of expiring grants when none is requested.
const DefaultExpiry = time.Hour

// Kind distinguishes expiring from permanent grants.
type Kind string

// Grant kinds.
const (
	KindExpiring  Kind = "expiring"
	KindPermanent Kind = "permanent"
)

// Grant is an issued capability URL.
type Grant struct {
	Kind        Kind
	URL         string
	Path        string
	Method      string
	Permissions Permissions
	PolicyID    string
	IssuedAt    time.Time
	StartsAt    time.Time
	ExpiresAt   time.Time // zero for permanent grants
}

// ExpiresIn returns the requested lifetime in seconds, or nil for permanent grants.
func (g *Grant) ExpiresIn() *int64 {
	if g.Kind == KindPermanent {
		return nil
	}
	s := int64(g.ExpiresAt.Sub(g.IssuedAt) / time.Second)
	return &s
}

// Presigner produces SigV4 presigned requests. *s3.PresignClient satisfies it.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignDeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// PolicyStore looks up stored access policies. *storage.Container satisfies it.
type PolicyStore interface {
	GetPolicy(ctx context.Context, id string) (*storage.AccessPolicy, error)
}

// Config configures an Issuer.
type Config struct {
	// Container is the bucket grants are issued against.
	Container string

	// PolicyID names the stored access policy permanent grants bind to.
	// Empty disables permanent grants.
	PolicyID string

	// PublicURL is the gateway base URL used in permanent links.
	PublicURL string

	// DefaultExpiry applies when Issue is called without WithExpiry.
	DefaultExpiry time.Duration

	// Secret keys permanent link signatures.
	Secret []byte
}

// Issuer issues and verifies capability URLs for one container.
// Issuing never performs network I/O; the target need not exist.
type Issuer struct {
	presigner Presigner
	policies  PolicyStore
	cfg       Config
	clock     clock.Clock
	logger    *slog.Logger
	signer    skewedPresigner
}

// New creates an Issuer.
func New(presigner Presigner, policies PolicyStore, cfg Config, opts ...Option) (*Issuer, error) {
	if cfg.Container == "" {
		return nil, fmt.Errorf("%w: container is required", storage.ErrInvalidConfig)
	}
	if cfg.PolicyID != "" && len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("%w: permanent grants need a signing secret", storage.ErrInvalidConfig)
	}
	if cfg.DefaultExpiry <= 0 {
		cfg.DefaultExpiry = DefaultExpiry
	}
	if cfg.DefaultExpiry > MaxExpiry {
		return nil, fmt.Errorf("%w: default expiry %s exceeds %s", ErrInvalidExpiry, cfg.DefaultExpiry, MaxExpiry)
	}

	i := &Issuer{
		presigner: presigner,
		policies:  policies,
		cfg:       cfg,
		clock:     clock.Real(),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.signer = newSkewedPresigner(i.clock)

	return i, nil
}

// PolicyID returns the configured permanent policy id.
func (i *Issuer) PolicyID() string { return i.cfg.PolicyID }

// Issue returns a capability URL for objectPath.
func (i *Issuer) Issue(ctx context.Context, objectPath string, opts ...IssueOption) (*Grant, error) {
	o := issueOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	perms, err := ParsePermissions(o.permissions)
	if err != nil {
		return nil, err
	}
	if objectPath == "" {
		return nil, fmt.Errorf("%w: blobPath is required", storage.ErrInvalidInput)
	}

	now := i.clock.Now()

	if o.permanent && i.cfg.PolicyID != "" {
		if perms != PermRead {
			return nil, fmt.Errorf("%w: permanent grants are read-only", ErrInvalidPermissions)
		}
		return &Grant{
			Kind:        KindPermanent,
			URL:         i.permanentURL(objectPath),
			Path:        objectPath,
			Method:      http.MethodGet,
			Permissions: PermRead,
			PolicyID:    i.cfg.PolicyID,
			IssuedAt:    now,
			StartsAt:    now,
		}, nil
	}

	op, err := perms.operation()
	if err != nil {
		return nil, err
	}

	expiry := o.expiry
	if expiry <= 0 {
		expiry = i.cfg.DefaultExpiry
	}
	if expiry > MaxExpiry {
		return nil, fmt.Errorf("%w: %s exceeds maximum of %s", ErrInvalidExpiry, expiry, MaxExpiry)
	}

	signed, err := i.presign(ctx, op, objectPath, expiry)
	if err != nil {
		return nil, err
	}

	i.logger.DebugContext(ctx, "grant issued",
		slog.String("path", objectPath),
		slog.String("permissions", perms.String()),
		slog.Duration("expiry", expiry),
	)

	return &Grant{
		Kind:        KindExpiring,
		URL:         signed,
		Path:        objectPath,
		Method:      op.method(),
		Permissions: perms,
		IssuedAt:    now,
		StartsAt:    now.Add(-ClockSkew),
		ExpiresAt:   now.Add(expiry),
	}, nil
}

func (i *Issuer) presign(ctx context.Context, op operation, objectPath string, expiry time.Duration) (string, error) {
	bucket, key := aws.String(i.cfg.Container), aws.String(objectPath)
	window := func(po *s3.PresignOptions) {
		po.Presigner = i.signer
		po.Expires = expiry + ClockSkew
	}

	var (
		req *v4.PresignedHTTPRequest
		err error
	)
	switch op {
	case opGet:
		req, err = i.presigner.PresignGetObject(ctx, &s3.GetObjectInput{Bucket: bucket, Key: key}, window)
	case opPut:
		req, err = i.presigner.PresignPutObject(ctx, &s3.PutObjectInput{Bucket: bucket, Key: key}, window)
	case opPutTagging:
		req, err = i.presigner.PresignPutObject(ctx, &s3.PutObjectInput{Bucket: bucket, Key: key}, window,
			func(po *s3.PresignOptions) {
				po.ClientOptions = append(po.ClientOptions, func(o *s3.Options) {
					o.APIOptions = append(o.APIOptions, addTaggingSubresource)
				})
			})
	case opDelete:
		req, err = i.presigner.PresignDeleteObject(ctx, &s3.DeleteObjectInput{Bucket: bucket, Key: key}, window)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPresignFailed, err)
	}
	return req.URL, nil
}

// permanentURL builds the gateway link for a permanent grant.
func (i *Issuer) permanentURL(objectPath string) string {
	q := url.Values{
		"blobPath": {objectPath},
		"si":       {i.cfg.PolicyID},
		"sig":      {i.signature(i.cfg.PolicyID, objectPath)},
	}
	return strings.TrimSuffix(i.cfg.PublicURL, "/") + SharedRoute + "?" + q.Encode()
}

// signature is the HMAC-SHA256 of policyID, container and path, keyed by the account secret.
func (i *Issuer) signature(policyID, objectPath string) string {
	mac := hmac.New(sha256.New, i.cfg.Secret)
	mac.Write([]byte(policyID + "\n" + i.cfg.Container + "\n" + objectPath))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyPermanent checks a permanent link. The signature is compared in
// constant time before the policy is looked up; a missing policy means the
// link was revoked.
func (i *Issuer) VerifyPermanent(ctx context.Context, objectPath, policyID, sig string) error {
	if objectPath == "" || policyID == "" || sig == "" || len(i.cfg.Secret) == 0 {
		return ErrInvalidSignature
	}

	if !hmac.Equal([]byte(sig), []byte(i.signature(policyID, objectPath))) {
		return ErrInvalidSignature
	}

	policy, err := i.policies.GetPolicy(ctx, policyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrPolicyRevoked, policyID)
		}
		return err
	}
	if !strings.Contains(policy.Permissions, storage.ReadPermission) {
		return fmt.Errorf("%w: %s does not grant read", ErrPolicyRevoked, policyID)
	}
	return nil
}
