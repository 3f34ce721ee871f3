package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"
)

// Tag keys and values attached to every receipt.
const (
	TagBackup    = "backup"
	TagClient    = "client"
	TagPos       = "pos"
	BackupNeeded = "needed"
	BackupDone   = "done"
)

// Metadata keys written with every receipt. S3 returns them lowercased.
const (
	MetaClientID      = "clientId"
	MetaPosID         = "posId"
	MetaReceiptDate   = "receiptDate"
	MetaContentBlake3 = "contentBlake3"
)

// Metadata is the user metadata stored with a receipt.
type Metadata struct {
	ClientID      string `json:"clientId"`
	PosID         string `json:"posId"`
	ReceiptDate   string `json:"receiptDate"`
	ContentBlake3 string `json:"contentBlake3,omitempty"`
}

// metadataFromMap decodes user metadata regardless of key case.
func metadataFromMap(m map[string]string) Metadata {
	var md Metadata
	for k, v := range m {
		switch {
		case strings.EqualFold(k, MetaClientID):
			md.ClientID = v
		case strings.EqualFold(k, MetaPosID):
			md.PosID = v
		case strings.EqualFold(k, MetaReceiptDate):
			md.ReceiptDate = v
		case strings.EqualFold(k, MetaContentBlake3):
			md.ContentBlake3 = v
		}
	}
	return md
}

// Properties describes a stored object without its body.
type Properties struct {
	ContentType        string            `json:"contentType"`
	ContentLength      int64             `json:"contentLength"`
	ContentDisposition string            `json:"contentDisposition,omitempty"`
	LastModified       time.Time         `json:"lastModified"`
	ETag               string            `json:"eTag"`
	Metadata           Metadata          `json:"-"`
	Tags               map[string]string `json:"-"`
}

// Object is an opened object. The caller must close Body.
type Object struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	ETag          string
	LastModified  time.Time
}

// Container is a handle to one bucket of the account.
type Container struct {
	api   API
	name  string
	paths PathBuilder
	http  *http.Client
	cfg   Config
}

// Name returns the bucket name.
func (c *Container) Name() string { return c.name }

// Digest returns the hex BLAKE3 digest stored as contentBlake3.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// contentMD5 returns the base64 MD5 sent as Content-MD5.
func contentMD5(data []byte) string {
	sum := md5.Sum(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Disposition renders a Content-Disposition value for the object's file name.
func Disposition(objectPath string, attachment bool) string {
	kind := "inline"
	if attachment {
		kind = "attachment"
	}
	return fmt.Sprintf("%s; filename=%q", kind, path.Base(objectPath))
}

// Put writes a receipt and returns its path. Tags are attached in the same
// request, so a stored receipt is never observed without backup=needed.
func (c *Container) Put(ctx context.Context, data []byte, key ReceiptKey) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	if int64(len(data)) > c.cfg.MaxObjectSize {
		return "", fmt.Errorf("%w: %d bytes exceeds limit of %d bytes", ErrObjectTooLarge, len(data), c.cfg.MaxObjectSize)
	}

	objectPath, resolved, err := c.paths.Build(key)
	if err != nil {
		return "", err
	}

	tags := url.Values{
		TagBackup: {BackupNeeded},
		TagClient: {resolved.ClientID},
		TagPos:    {resolved.PosID},
	}

	input := &s3.PutObjectInput{
		Bucket:             aws.String(c.name),
		Key:                aws.String(objectPath),
		Body:               bytes.NewReader(data),
		ContentLength:      aws.Int64(int64(len(data))),
		ContentType:        aws.String(MIMEPDF),
		ContentDisposition: aws.String(Disposition(objectPath, false)),
		ContentMD5:         aws.String(contentMD5(data)),
		Metadata: map[string]string{
			MetaClientID:      resolved.ClientID,
			MetaPosID:         resolved.PosID,
			MetaReceiptDate:   resolved.Date,
			MetaContentBlake3: Digest(data),
		},
		Tagging: aws.String(tags.Encode()),
	}

	if _, err := c.api.PutObject(ctx, input); err != nil {
		return "", wrapS3Error(err, ErrUploadFailed)
	}

	return objectPath, nil
}

// Exists reports whether an object is stored at objectPath.
func (c *Container) Exists(ctx context.Context, objectPath string) (bool, error) {
	_, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.name),
		Key:    aws.String(objectPath),
	})
	if err != nil {
		err = wrapS3Error(err, ErrReadFailed)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Properties returns the object's headers, metadata and tags.
func (c *Container) Properties(ctx context.Context, objectPath string) (*Properties, error) {
	var (
		head *s3.HeadObjectOutput
		tags map[string]string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := c.api.HeadObject(gctx, &s3.HeadObjectInput{
			Bucket: aws.String(c.name),
			Key:    aws.String(objectPath),
		})
		if err != nil {
			return wrapS3Error(err, ErrReadFailed)
		}
		head = out
		return nil
	})
	g.Go(func() error {
		t, err := c.Tags(gctx, objectPath)
		if err != nil {
			return err
		}
		tags = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Properties{
		ContentType:        aws.ToString(head.ContentType),
		ContentLength:      aws.ToInt64(head.ContentLength),
		ContentDisposition: aws.ToString(head.ContentDisposition),
		LastModified:       aws.ToTime(head.LastModified),
		ETag:               aws.ToString(head.ETag),
		Metadata:           metadataFromMap(head.Metadata),
		Tags:               tags,
	}, nil
}

// Open starts a streaming read of the object body.
// Cancelling ctx aborts the upstream read.
func (c *Container) Open(ctx context.Context, objectPath string) (*Object, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.name),
		Key:    aws.String(objectPath),
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrReadFailed)
	}

	return &Object{
		Body:          out.Body,
		ContentType:   aws.ToString(out.ContentType),
		ContentLength: aws.ToInt64(out.ContentLength),
		ETag:          aws.ToString(out.ETag),
		LastModified:  aws.ToTime(out.LastModified),
	}, nil
}

// Tags returns the object's tag set.
func (c *Container) Tags(ctx context.Context, objectPath string) (map[string]string, error) {
	out, err := c.api.GetObjectTagging(ctx, &s3.GetObjectTaggingInput{
		Bucket: aws.String(c.name),
		Key:    aws.String(objectPath),
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrReadFailed)
	}

	tags := make(map[string]string, len(out.TagSet))
	for _, t := range out.TagSet {
		tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return tags, nil
}

// SetTag sets one tag, preserving the others. Concurrent writers race and
// the last write wins.
func (c *Container) SetTag(ctx context.Context, objectPath, key, value string) error {
	tags, err := c.Tags(ctx, objectPath)
	if err != nil {
		return err
	}
	tags[key] = value

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	set := make([]types.Tag, 0, len(keys))
	for _, k := range keys {
		set = append(set, types.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}

	_, err = c.api.PutObjectTagging(ctx, &s3.PutObjectTaggingInput{
		Bucket:  aws.String(c.name),
		Key:     aws.String(objectPath),
		Tagging: &types.Tagging{TagSet: set},
	})
	if err != nil {
		return wrapS3Error(err, ErrTagFailed)
	}
	return nil
}

// Ensure creates the bucket when it does not exist yet.
func (c *Container) Ensure(ctx context.Context) (bool, error) {
	_, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.name)})
	if err == nil {
		return false, nil
	}
	if err = wrapS3Error(err, ErrContainerEnsureFailed); !errors.Is(err, ErrNotFound) {
		return false, fmt.Errorf("%w: %s: %v", ErrContainerEnsureFailed, c.name, err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(c.name)}
	if c.cfg.Region != "" && c.cfg.Region != DefaultRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.cfg.Region),
		}
	}

	if _, err := c.api.CreateBucket(ctx, input); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %s: %v", ErrContainerEnsureFailed, c.name, err)
	}
	return true, nil
}

// Healthcheck reports whether the bucket is reachable with the configured
// credentials. Compatible with health.CheckFunc.
func (c *Container) Healthcheck(ctx context.Context) error {
	if _, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.name)}); err != nil {
		return fmt.Errorf("storage: bucket %s: %w", c.name, wrapS3Error(err, ErrReadFailed))
	}
	return nil
}

// ObjectURL returns the unsigned URL of an object.
func (c *Container) ObjectURL(objectPath string) string {
	if c.cfg.PublicURL != "" {
		return strings.TrimSuffix(c.cfg.PublicURL, "/") + "/" + objectPath
	}

	// Default S3 URL format.
	if c.cfg.Endpoint != "" {
		endpoint := strings.TrimSuffix(c.cfg.Endpoint, "/")
		if c.cfg.PathStyle {
			return fmt.Sprintf("%s/%s/%s", endpoint, c.name, objectPath)
		}
		return fmt.Sprintf("%s/%s", endpoint, objectPath)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.name, c.cfg.Region, objectPath)
}
