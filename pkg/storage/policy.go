package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PolicyPrefix is where stored access policies live inside a container.
const PolicyPrefix = "_policies/"

// ReadPermission is the only permission stored policies grant.
const ReadPermission = "r"

// AccessPolicy is a named, non-expiring read policy. Permanent links carry
// its id; deleting the policy revokes all of them at once.
type AccessPolicy struct {
	ID          string    `json:"id"`
	Permissions string    `json:"permissions"`
	NoExpiry    bool      `json:"noExpiry"`
	CreatedAt   time.Time `json:"createdAt"`
}

func policyKey(id string) string {
	return PolicyPrefix + id + ".json"
}

// GetPolicy loads a stored policy. Returns ErrNotFound when absent.
func (c *Container) GetPolicy(ctx context.Context, id string) (*AccessPolicy, error) {
	if err := validateSegment("policyId", id); err != nil {
		return nil, err
	}

	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.name),
		Key:    aws.String(policyKey(id)),
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrReadFailed)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(out.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}

	var p AccessPolicy
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: decode policy %s: %v", ErrReadFailed, id, err)
	}
	return &p, nil
}

// CreatePolicy stores p unless a policy with the same id exists.
// Reports whether it was created.
func (c *Container) CreatePolicy(ctx context.Context, p AccessPolicy) (bool, error) {
	if err := validateSegment("policyId", p.ID); err != nil {
		return false, err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return false, fmt.Errorf("%w: encode policy: %v", ErrUploadFailed, err)
	}

	_, err = c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.name),
		Key:           aws.String(policyKey(p.ID)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
		ContentMD5:    aws.String(contentMD5(data)),
		IfNoneMatch:   aws.String("*"),
	})
	if err != nil {
		err = wrapS3Error(err, ErrUploadFailed)
		if errors.Is(err, ErrPreconditionFailed) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeletePolicy removes a stored policy. Returns ErrNotFound when absent.
func (c *Container) DeletePolicy(ctx context.Context, id string) error {
	if _, err := c.GetPolicy(ctx, id); err != nil {
		return err
	}

	_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.name),
		Key:    aws.String(policyKey(id)),
	})
	if err != nil {
		return wrapS3Error(err, ErrUploadFailed)
	}
	return nil
}

// EnsurePolicy creates the read-only non-expiring policy id when missing.
// Failures wrap ErrPolicyEnsureFailed.
func (c *Container) EnsurePolicy(ctx context.Context, id string, now time.Time) (bool, error) {
	created, err := c.CreatePolicy(ctx, AccessPolicy{
		ID:          id,
		Permissions: ReadPermission,
		NoExpiry:    true,
		CreatedAt:   now.UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrPolicyEnsureFailed, id, err)
	}
	return created, nil
}
