package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Komal-TGT/Storage-service/pkg/clock"
)

// API is the subset of the S3 client used by Container.
// *s3.Client satisfies it; tests substitute an in-memory fake.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	GetObjectTagging(ctx context.Context, params *s3.GetObjectTaggingInput, optFns ...func(*s3.Options)) (*s3.GetObjectTaggingOutput, error)
	PutObjectTagging(ctx context.Context, params *s3.PutObjectTaggingInput, optFns ...func(*s3.Options)) (*s3.PutObjectTaggingOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// Config describes the S3 account and the two receipt buckets.
type Config struct {
	// Credentials. SecretKey also keys the signatures of permanent links.
	AccessKey string
	SecretKey string

	// Endpoint and PathStyle point the client at MinIO, rustfs or another
	// S3-compatible server. Empty Endpoint means AWS.
	Endpoint  string
	Region    string
	PathStyle bool

	Container       string
	BackupContainer string

	// PublicURL, when set, prefixes ObjectURL instead of the bucket URL.
	PublicURL string

	MaxObjectSize int64
	// CopyMaxWait bounds how long CopyFromURL polls for the destination.
	CopyMaxWait time.Duration
}

// Default configuration values.
const (
	DefaultRegion          = "us-east-1"
	DefaultContainer       = "receipts"
	DefaultBackupContainer = "receipts-backup"
	DefaultMaxObjectSize   = 10 << 20 // 10MB
	DefaultCopyMaxWait     = 2 * time.Minute
)

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.Container == "" {
		c.Container = DefaultContainer
	}
	if c.BackupContainer == "" {
		c.BackupContainer = DefaultBackupContainer
	}
	if c.MaxObjectSize <= 0 {
		c.MaxObjectSize = DefaultMaxObjectSize
	}
	if c.CopyMaxWait <= 0 {
		c.CopyMaxWait = DefaultCopyMaxWait
	}
}

func (c *Config) validate() error {
	if c.AccessKey == "" || c.SecretKey == "" {
		return fmt.Errorf("%w: access key and secret key are required", ErrInvalidConfig)
	}
	if c.Container == c.BackupContainer {
		return fmt.Errorf("%w: primary and backup containers must differ", ErrInvalidConfig)
	}
	return nil
}

// Account is the explicitly constructed storage context: one S3 client,
// its credentials and the primary and backup container handles.
type Account struct {
	client  *s3.Client
	api     API
	cfg     Config
	clock   clock.Clock
	http    *http.Client
	newID   func() string
	primary *Container
	backup  *Container
}

// AccountOption configures an Account.
type AccountOption func(*Account)

// WithAPI replaces the S3 API used for object operations.
// Presigning still goes through the real client so URLs stay valid SigV4.
func WithAPI(api API) AccountOption {
	return func(a *Account) {
		a.api = api
	}
}

// WithClock sets the time source used for default receipt dates.
func WithClock(c clock.Clock) AccountOption {
	return func(a *Account) {
		a.clock = c
	}
}

// WithHTTPClient sets the client used to fetch copy sources.
func WithHTTPClient(c *http.Client) AccountOption {
	return func(a *Account) {
		a.http = c
	}
}

// WithIDGenerator overrides the default UUIDv4 receipt id generator.
func WithIDGenerator(fn func() string) AccountOption {
	return func(a *Account) {
		a.newID = fn
	}
}

// New creates an Account from the given configuration. No network I/O is performed.
func New(cfg Config, opts ...AccountOption) (*Account, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	s3opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
			o.Credentials = credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)
		},
	}

	if cfg.Endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		})
	}

	client := s3.New(s3.Options{}, s3opts...)

	a := &Account{
		client: client,
		api:    client,
		cfg:    cfg,
		clock:  clock.Real(),
		http:   &http.Client{Timeout: cfg.CopyMaxWait},
	}
	for _, opt := range opts {
		opt(a)
	}

	paths := PathBuilder{Clock: a.clock, NewID: a.newID}
	a.primary = a.container(cfg.Container, paths)
	a.backup = a.container(cfg.BackupContainer, paths)

	return a, nil
}

func (a *Account) container(name string, paths PathBuilder) *Container {
	return &Container{
		api:   a.api,
		name:  name,
		paths: paths,
		http:  a.http,
		cfg:   a.cfg,
	}
}

// Primary returns the container receipts are written to.
func (a *Account) Primary() *Container { return a.primary }

// Backup returns the container receipts are replicated into.
func (a *Account) Backup() *Container { return a.backup }

// Config returns the resolved configuration.
func (a *Account) Config() Config { return a.cfg }

// SigningSecret returns the key used for gateway link signatures.
func (a *Account) SigningSecret() []byte { return []byte(a.cfg.SecretKey) }

// Presigner returns a presign client bound to the account credentials.
func (a *Account) Presigner(optFns ...func(*s3.PresignOptions)) *s3.PresignClient {
	return s3.NewPresignClient(a.client, optFns...)
}
