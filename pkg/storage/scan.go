package storage

import (
	"context"
	"errors"
	"iter"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ListTagged iterates over receipt paths whose tag key equals value.
// A listing failure is yielded once and ends the iteration; a failed tag
// lookup for a single object is yielded and the scan moves on. Objects
// deleted between listing and tag lookup are skipped.
//
// S3 cannot filter a listing by tag, so every object under ReceiptPrefix
// costs one GetObjectTagging call whatever its tag value.
func (c *Container) ListTagged(ctx context.Context, key, value string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		pages := s3.NewListObjectsV2Paginator(c.api, &s3.ListObjectsV2Input{
			Bucket: aws.String(c.name),
			Prefix: aws.String(ReceiptPrefix),
		})

		for pages.HasMorePages() {
			page, err := pages.NextPage(ctx)
			if err != nil {
				yield("", wrapS3Error(err, ErrListFailed))
				return
			}

			for _, obj := range page.Contents {
				objectPath := aws.ToString(obj.Key)

				tags, err := c.Tags(ctx, objectPath)
				if errors.Is(err, ErrNotFound) {
					continue
				}
				if err != nil {
					if !yield(objectPath, err) {
						return
					}
					continue
				}

				if tags[key] == value {
					if !yield(objectPath, nil) {
						return
					}
				}
			}
		}
	}
}

// TagScan discovers receipts still waiting for backup by scanning tags.
type TagScan struct {
	container *Container
}

// NewTagScan returns a scan over c.
func NewTagScan(c *Container) TagScan {
	return TagScan{container: c}
}

// ListPending yields every receipt tagged backup=needed.
func (s TagScan) ListPending(ctx context.Context) iter.Seq2[string, error] {
	return s.container.ListTagged(ctx, TagBackup, BackupNeeded)
}
