// Package storagetest provides an in-memory S3 backend for tests.
package storagetest

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/Komal-TGT/Storage-service/pkg/clock"
	"github.com/Komal-TGT/Storage-service/pkg/storage"
)

// Object is a stored object as the fake sees it.
type Object struct {
	Data               []byte
	ContentType        string
	ContentDisposition string
	ETag               string
	Metadata           map[string]string
	Tags               map[string]string
	LastModified       time.Time
}

func (o *Object) clone() Object {
	c := *o
	c.Data = bytes.Clone(o.Data)
	c.Metadata = cloneMap(o.Metadata)
	c.Tags = cloneMap(o.Tags)
	return c
}

type fault struct {
	op     string
	bucket string
	key    string
	err    error
}

// Fake is an in-memory implementation of storage.API.
type Fake struct {
	mu       sync.Mutex
	clock    clock.Clock
	buckets  map[string]map[string]*Object
	faults   []fault
	calls    map[string]int
	pageSize int32
}

var _ storage.API = (*Fake)(nil)

// New creates a fake holding the given empty buckets.
func New(clk clock.Clock, buckets ...string) *Fake {
	if clk == nil {
		clk = clock.Real()
	}
	f := &Fake{
		clock:    clk,
		buckets:  make(map[string]map[string]*Object),
		calls:    make(map[string]int),
		pageSize: 1000,
	}
	for _, b := range buckets {
		f.buckets[b] = make(map[string]*Object)
	}
	return f
}

// SetPageSize sets the default ListObjectsV2 page size.
func (f *Fake) SetPageSize(n int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageSize = n
}

// FailOn makes op return err for matching requests. Empty bucket or key
// match anything. Ops are S3 operation names, plus "Download" for the
// presigned URL server.
func (f *Fake) FailOn(op, bucket, key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults = append(f.faults, fault{op: op, bucket: bucket, key: key, err: err})
}

// ClearFaults removes every injected failure.
func (f *Fake) ClearFaults() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults = nil
}

// Calls returns how many times op was invoked. An empty op counts all calls.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if op == "" {
		total := 0
		for _, n := range f.calls {
			total += n
		}
		return total
	}
	return f.calls[op]
}

// Object returns a copy of the stored object.
func (f *Fake) Object(bucket, key string) (Object, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.buckets[bucket][key]
	if !ok {
		return Object{}, false
	}
	return obj.clone(), true
}

// Keys returns the sorted keys of a bucket.
func (f *Fake) Keys(bucket string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedKeys(f.buckets[bucket], "")
}

// HasBucket reports whether the bucket exists.
func (f *Fake) HasBucket(bucket string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.buckets[bucket]
	return ok
}

// SetTags replaces an object's tags directly.
func (f *Fake) SetTags(bucket, key string, tags map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if obj, ok := f.buckets[bucket][key]; ok {
		obj.Tags = cloneMap(tags)
	}
}

// Replace swaps an object's body while keeping its headers, metadata and tags.
func (f *Fake) Replace(bucket, key string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if obj, ok := f.buckets[bucket][key]; ok {
		obj.Data = bytes.Clone(data)
	}
}

// enter records a call and returns an injected failure, if any. Caller holds mu.
func (f *Fake) enter(op, bucket, key string) error {
	f.calls[op]++
	for _, ft := range f.faults {
		if ft.op == op && (ft.bucket == "" || ft.bucket == bucket) && (ft.key == "" || ft.key == key) {
			return ft.err
		}
	}
	return nil
}

func (f *Fake) lookup(bucket, key string) (*Object, error) {
	objects, ok := f.buckets[bucket]
	if !ok {
		return nil, &types.NoSuchBucket{Message: aws.String(bucket)}
	}
	obj, ok := objects[key]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String(key)}
	}
	return obj, nil
}

// PutObject implements storage.API.
func (f *Fake) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	bucket, key := aws.ToString(in.Bucket), aws.ToString(in.Key)

	var data []byte
	if in.Body != nil {
		b, err := io.ReadAll(in.Body)
		if err != nil {
			return nil, err
		}
		data = b
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("PutObject", bucket, key); err != nil {
		return nil, err
	}

	objects, ok := f.buckets[bucket]
	if !ok {
		return nil, &types.NoSuchBucket{Message: aws.String(bucket)}
	}

	sum := md5.Sum(data)
	if want := aws.ToString(in.ContentMD5); want != "" && want != base64.StdEncoding.EncodeToString(sum[:]) {
		return nil, &smithy.GenericAPIError{Code: "BadDigest", Message: "the Content-MD5 you specified did not match what we received"}
	}

	if aws.ToString(in.IfNoneMatch) == "*" {
		if _, exists := objects[key]; exists {
			return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "at least one of the preconditions you specified did not hold"}
		}
	}

	tags := map[string]string{}
	if in.Tagging != nil {
		values, err := url.ParseQuery(*in.Tagging)
		if err != nil {
			return nil, &smithy.GenericAPIError{Code: "InvalidArgument", Message: err.Error()}
		}
		for k, v := range values {
			tags[k] = v[0]
		}
	}

	metadata := make(map[string]string, len(in.Metadata))
	for k, v := range in.Metadata {
		metadata[strings.ToLower(k)] = v
	}

	etag := `"` + hex.EncodeToString(sum[:]) + `"`
	objects[key] = &Object{
		Data:               data,
		ContentType:        aws.ToString(in.ContentType),
		ContentDisposition: aws.ToString(in.ContentDisposition),
		ETag:               etag,
		Metadata:           metadata,
		Tags:               tags,
		LastModified:       f.clock.Now().UTC().Truncate(time.Second),
	}

	return &s3.PutObjectOutput{ETag: aws.String(etag)}, nil
}

// GetObject implements storage.API.
func (f *Fake) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	bucket, key := aws.ToString(in.Bucket), aws.ToString(in.Key)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("GetObject", bucket, key); err != nil {
		return nil, err
	}
	obj, err := f.lookup(bucket, key)
	if err != nil {
		return nil, err
	}

	return &s3.GetObjectOutput{
		Body:               io.NopCloser(bytes.NewReader(bytes.Clone(obj.Data))),
		ContentLength:      aws.Int64(int64(len(obj.Data))),
		ContentType:        aws.String(obj.ContentType),
		ContentDisposition: aws.String(obj.ContentDisposition),
		ETag:               aws.String(obj.ETag),
		LastModified:       aws.Time(obj.LastModified),
		Metadata:           cloneMap(obj.Metadata),
	}, nil
}

// HeadObject implements storage.API.
func (f *Fake) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	bucket, key := aws.ToString(in.Bucket), aws.ToString(in.Key)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("HeadObject", bucket, key); err != nil {
		return nil, err
	}
	obj, err := f.lookup(bucket, key)
	if err != nil {
		// HEAD responses carry no body, so S3 reports a bare NotFound.
		return nil, &types.NotFound{Message: aws.String(key)}
	}

	return &s3.HeadObjectOutput{
		ContentLength:      aws.Int64(int64(len(obj.Data))),
		ContentType:        aws.String(obj.ContentType),
		ContentDisposition: aws.String(obj.ContentDisposition),
		ETag:               aws.String(obj.ETag),
		LastModified:       aws.Time(obj.LastModified),
		Metadata:           cloneMap(obj.Metadata),
	}, nil
}

// DeleteObject implements storage.API.
func (f *Fake) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	bucket, key := aws.ToString(in.Bucket), aws.ToString(in.Key)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("DeleteObject", bucket, key); err != nil {
		return nil, err
	}
	objects, ok := f.buckets[bucket]
	if !ok {
		return nil, &types.NoSuchBucket{Message: aws.String(bucket)}
	}
	delete(objects, key)
	return &s3.DeleteObjectOutput{}, nil
}

// GetObjectTagging implements storage.API.
func (f *Fake) GetObjectTagging(_ context.Context, in *s3.GetObjectTaggingInput, _ ...func(*s3.Options)) (*s3.GetObjectTaggingOutput, error) {
	bucket, key := aws.ToString(in.Bucket), aws.ToString(in.Key)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("GetObjectTagging", bucket, key); err != nil {
		return nil, err
	}
	obj, err := f.lookup(bucket, key)
	if err != nil {
		return nil, err
	}

	set := make([]types.Tag, 0, len(obj.Tags))
	for _, k := range sortedKeys(obj.Tags, "") {
		set = append(set, types.Tag{Key: aws.String(k), Value: aws.String(obj.Tags[k])})
	}
	return &s3.GetObjectTaggingOutput{TagSet: set}, nil
}

// PutObjectTagging implements storage.API.
func (f *Fake) PutObjectTagging(_ context.Context, in *s3.PutObjectTaggingInput, _ ...func(*s3.Options)) (*s3.PutObjectTaggingOutput, error) {
	bucket, key := aws.ToString(in.Bucket), aws.ToString(in.Key)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("PutObjectTagging", bucket, key); err != nil {
		return nil, err
	}
	obj, err := f.lookup(bucket, key)
	if err != nil {
		return nil, err
	}

	tags := map[string]string{}
	if in.Tagging != nil {
		for _, t := range in.Tagging.TagSet {
			tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
		}
	}
	obj.Tags = tags
	return &s3.PutObjectTaggingOutput{}, nil
}

// ListObjectsV2 implements storage.API. Continuation tokens are the last
// key of the previous page.
func (f *Fake) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	bucket := aws.ToString(in.Bucket)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("ListObjectsV2", bucket, ""); err != nil {
		return nil, err
	}
	objects, ok := f.buckets[bucket]
	if !ok {
		return nil, &types.NoSuchBucket{Message: aws.String(bucket)}
	}

	limit := f.pageSize
	if in.MaxKeys != nil && *in.MaxKeys > 0 {
		limit = *in.MaxKeys
	}
	after := aws.ToString(in.ContinuationToken)

	var contents []types.Object
	truncated := false
	for _, k := range sortedKeys(objects, aws.ToString(in.Prefix)) {
		if after != "" && k <= after {
			continue
		}
		if int32(len(contents)) == limit {
			truncated = true
			break
		}
		obj := objects[k]
		contents = append(contents, types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(obj.Data))),
			ETag:         aws.String(obj.ETag),
			LastModified: aws.Time(obj.LastModified),
		})
	}

	out := &s3.ListObjectsV2Output{
		Contents:    contents,
		KeyCount:    aws.Int32(int32(len(contents))),
		IsTruncated: aws.Bool(truncated),
	}
	if truncated {
		out.NextContinuationToken = contents[len(contents)-1].Key
	}
	return out, nil
}

// HeadBucket implements storage.API.
func (f *Fake) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	bucket := aws.ToString(in.Bucket)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("HeadBucket", bucket, ""); err != nil {
		return nil, err
	}
	if _, ok := f.buckets[bucket]; !ok {
		return nil, &types.NotFound{Message: aws.String(bucket)}
	}
	return &s3.HeadBucketOutput{}, nil
}

// CreateBucket implements storage.API.
func (f *Fake) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	bucket := aws.ToString(in.Bucket)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("CreateBucket", bucket, ""); err != nil {
		return nil, err
	}
	if _, ok := f.buckets[bucket]; ok {
		return nil, &types.BucketAlreadyOwnedByYou{Message: aws.String(bucket)}
	}
	f.buckets[bucket] = make(map[string]*Object)
	return &s3.CreateBucketOutput{Location: aws.String("/" + bucket)}, nil
}

func sortedKeys[V any](m map[string]V, prefix string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// bucketKey splits a path-style request path into bucket and key.
func bucketKey(p string) (string, string, error) {
	p = strings.TrimPrefix(p, "/")
	bucket, key, ok := strings.Cut(p, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("path %q is not /bucket/key", p)
	}
	return bucket, key, nil
}

// parseExpires reads X-Amz-Expires as a duration.
func parseExpires(v string) (time.Duration, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid X-Amz-Expires %q", v)
	}
	return time.Duration(n) * time.Second, nil
}
