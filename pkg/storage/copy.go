package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// Bounds for the destination poll after a copy write.
const (
	copyPollMinDelay = time.Second
	copyPollMaxDelay = 10 * time.Second
)

// metaHeaderPrefix is the header prefix S3 uses for user metadata.
const metaHeaderPrefix = "X-Amz-Meta-"

// CopyFromURL copies the object behind a capability URL into this container
// at destPath. The source bytes are bounded by MaxObjectSize and checked
// against their contentBlake3 metadata when present. After the write the
// destination is polled until it is visible or CopyMaxWait elapses.
//
// Failures wrap ErrCopyFailed, except a destination that never became
// visible, which returns ErrCopyTimedOut.
func (c *Container) CopyFromURL(ctx context.Context, sourceURL, destPath string) error {
	parsed, err := url.Parse(sourceURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: invalid source URL", ErrCopyFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCopyFailed, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: fetch source: %v", ErrCopyFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %w: source returned %d", ErrCopyFailed, ErrNotFound, resp.StatusCode)
	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %w: source returned %d", ErrCopyFailed, ErrAccessDenied, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: source returned %d", ErrCopyFailed, resp.StatusCode)
	}

	limit := c.cfg.MaxObjectSize
	if resp.ContentLength > limit {
		return fmt.Errorf("%w: %w: source is %d bytes", ErrCopyFailed, ErrObjectTooLarge, resp.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return fmt.Errorf("%w: read source: %v", ErrCopyFailed, err)
	}
	if int64(len(data)) > limit {
		return fmt.Errorf("%w: %w: source exceeds %d bytes", ErrCopyFailed, ErrObjectTooLarge, limit)
	}

	metadata := metadataFromHeader(resp.Header)
	if want := metadataFromMap(metadata).ContentBlake3; want != "" {
		if got := Digest(data); !strings.EqualFold(got, want) {
			return fmt.Errorf("%w: %w: want %s, got %s", ErrCopyFailed, ErrDigestMismatch, want, got)
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = DetectMIME(data)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(c.name),
		Key:           aws.String(destPath),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ContentMD5:    aws.String(contentMD5(data)),
		Metadata:      metadata,
	}
	if v := resp.Header.Get("Content-Disposition"); v != "" {
		input.ContentDisposition = aws.String(v)
	}

	if _, err := c.api.PutObject(ctx, input); err != nil {
		return fmt.Errorf("%w: %v", ErrCopyFailed, wrapS3Error(err, ErrUploadFailed))
	}

	return c.awaitObject(ctx, destPath)
}

// awaitObject polls the destination with the SDK waiter until it exists.
func (c *Container) awaitObject(ctx context.Context, objectPath string) error {
	waiter := s3.NewObjectExistsWaiter(c.api, func(o *s3.ObjectExistsWaiterOptions) {
		o.MinDelay = copyPollMinDelay
		o.MaxDelay = copyPollMaxDelay
	})

	err := waiter.Wait(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.name),
		Key:    aws.String(objectPath),
	}, c.cfg.CopyMaxWait)
	if err == nil {
		return nil
	}

	// API errors are terminal HeadObject failures; anything else means the
	// waiter ran out of time.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) || ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrCopyFailed, err)
	}
	return fmt.Errorf("%w: %s after %s: %v", ErrCopyTimedOut, objectPath, c.cfg.CopyMaxWait, err)
}

// metadataFromHeader extracts x-amz-meta-* headers into user metadata.
func metadataFromHeader(h http.Header) map[string]string {
	md := make(map[string]string)
	for k, v := range h {
		canonical := http.CanonicalHeaderKey(k)
		if len(v) == 0 || !strings.HasPrefix(canonical, metaHeaderPrefix) {
			continue
		}
		md[strings.ToLower(strings.TrimPrefix(canonical, metaHeaderPrefix))] = v[0]
	}
	return md
}
