package storage_test

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"

	"github.com/Komal-TGT/Storage-service/pkg/storage"
	"github.com/Komal-TGT/Storage-service/pkg/storage/storagetest"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		acct, err := storage.New(storage.Config{AccessKey: "a", SecretKey: "s"})
		require.NoError(t, err)

		cfg := acct.Config()
		require.Equal(t, storage.DefaultRegion, cfg.Region)
		require.Equal(t, storage.DefaultContainer, acct.Primary().Name())
		require.Equal(t, storage.DefaultBackupContainer, acct.Backup().Name())
		require.Equal(t, int64(storage.DefaultMaxObjectSize), cfg.MaxObjectSize)
		require.Equal(t, []byte("s"), acct.SigningSecret())
	})

	t.Run("missing credentials", func(t *testing.T) {
		t.Parallel()

		acct, err := storage.New(storage.Config{AccessKey: "a"})
		require.ErrorIs(t, err, storage.ErrInvalidConfig)
		require.Nil(t, acct)
	})

	t.Run("same primary and backup", func(t *testing.T) {
		t.Parallel()

		_, err := storage.New(storage.Config{AccessKey: "a", SecretKey: "s", Container: "x", BackupContainer: "x"})
		require.ErrorIs(t, err, storage.ErrInvalidConfig)
	})
}

func TestContainer_Put(t *testing.T) {
	t.Parallel()

	t.Run("stores receipt with headers metadata and tags", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		ctx := context.Background()

		path, err := env.acct.Primary().Put(ctx, samplePDF, storage.ReceiptKey{
			ClientID:  "acme",
			PosID:     "till-1",
			Date:      "2024-03-05",
			ReceiptID: "r1",
		})
		require.NoError(t, err)
		require.Equal(t, "client/acme/2024/03/05/till-1/r1.pdf", path)

		obj, ok := env.fake.Object(testPrimary, path)
		require.True(t, ok)
		require.Equal(t, samplePDF, obj.Data)
		require.Equal(t, "application/pdf", obj.ContentType)
		require.Equal(t, `inline; filename="r1.pdf"`, obj.ContentDisposition)

		sum := md5.Sum(samplePDF)
		require.Equal(t, `"`+hex.EncodeToString(sum[:])+`"`, obj.ETag)

		require.Equal(t, map[string]string{
			"clientid":      "acme",
			"posid":         "till-1",
			"receiptdate":   "2024-03-05",
			"contentblake3": storage.Digest(samplePDF),
		}, obj.Metadata)
		require.Equal(t, map[string]string{
			"backup": "needed",
			"client": "acme",
			"pos":    "till-1",
		}, obj.Tags)
	})

	t.Run("default date and id", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, storage.WithIDGenerator(func() string { return "fixed" }))

		path, err := env.acct.Primary().Put(context.Background(), samplePDF, storage.ReceiptKey{ClientID: "acme", PosID: "till-1"})
		require.NoError(t, err)

		want := storage.ReceiptPath("acme", "till-1", env.clock.Now(), "fixed")
		require.Equal(t, want, path)
	})

	t.Run("invalid input makes no request", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		ctx := context.Background()

		_, err := env.acct.Primary().Put(ctx, nil, storage.ReceiptKey{ClientID: "acme", PosID: "till-1"})
		require.ErrorIs(t, err, storage.ErrInvalidInput)

		_, err = env.acct.Primary().Put(ctx, samplePDF, storage.ReceiptKey{PosID: "till-1"})
		require.ErrorIs(t, err, storage.ErrInvalidInput)

		_, err = env.acct.Primary().Put(ctx, samplePDF, storage.ReceiptKey{ClientID: "acme"})
		require.ErrorIs(t, err, storage.ErrInvalidInput)

		require.Zero(t, env.fake.Calls(""))
	})

	t.Run("backend failure", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.fake.FailOn("PutObject", "", "", &smithy.GenericAPIError{Code: "InternalError", Message: "boom"})

		_, err := env.acct.Primary().Put(context.Background(), samplePDF, storage.ReceiptKey{ClientID: "acme", PosID: "till-1"})
		require.ErrorIs(t, err, storage.ErrUploadFailed)
	})
}

func TestContainer_ReadOperations(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	primary := env.acct.Primary()

	path, err := primary.Put(ctx, samplePDF, storage.ReceiptKey{ClientID: "acme", PosID: "till-1", Date: "2024-03-05", ReceiptID: "r1"})
	require.NoError(t, err)

	t.Run("exists", func(t *testing.T) {
		t.Parallel()

		ok, err := primary.Exists(ctx, path)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = primary.Exists(ctx, "client/acme/2024/03/05/till-1/missing.pdf")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("properties", func(t *testing.T) {
		t.Parallel()

		props, err := primary.Properties(ctx, path)
		require.NoError(t, err)
		require.Equal(t, "application/pdf", props.ContentType)
		require.Equal(t, int64(len(samplePDF)), props.ContentLength)
		require.Equal(t, "acme", props.Metadata.ClientID)
		require.Equal(t, "till-1", props.Metadata.PosID)
		require.Equal(t, "2024-03-05", props.Metadata.ReceiptDate)
		require.Equal(t, "needed", props.Tags[storage.TagBackup])
		require.False(t, props.LastModified.IsZero())
	})

	t.Run("properties of missing object", func(t *testing.T) {
		t.Parallel()

		_, err := primary.Properties(ctx, "client/nope.pdf")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("open streams the stored bytes", func(t *testing.T) {
		t.Parallel()

		obj, err := primary.Open(ctx, path)
		require.NoError(t, err)
		defer obj.Body.Close()

		data, err := io.ReadAll(obj.Body)
		require.NoError(t, err)
		require.Equal(t, samplePDF, data)
		require.Equal(t, storage.Digest(samplePDF), storage.Digest(data))
	})

	t.Run("open missing object", func(t *testing.T) {
		t.Parallel()

		_, err := primary.Open(ctx, "client/nope.pdf")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestContainer_SetTag(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	primary := env.acct.Primary()

	path, err := primary.Put(ctx, samplePDF, storage.ReceiptKey{ClientID: "acme", PosID: "till-1", ReceiptID: "r1"})
	require.NoError(t, err)

	require.NoError(t, primary.SetTag(ctx, path, storage.TagBackup, storage.BackupDone))

	tags, err := primary.Tags(ctx, path)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"backup": "done", "client": "acme", "pos": "till-1"}, tags)

	err = primary.SetTag(ctx, "client/nope.pdf", storage.TagBackup, storage.BackupDone)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestContainer_Ensure(t *testing.T) {
	t.Parallel()

	t.Run("creates missing bucket once", func(t *testing.T) {
		t.Parallel()

		fake := storagetest.New(nil)
		acct, err := storage.New(storage.Config{AccessKey: "a", SecretKey: "s"}, storage.WithAPI(fake))
		require.NoError(t, err)

		created, err := acct.Primary().Ensure(context.Background())
		require.NoError(t, err)
		require.True(t, created)
		require.True(t, fake.HasBucket(storage.DefaultContainer))

		created, err = acct.Primary().Ensure(context.Background())
		require.NoError(t, err)
		require.False(t, created)
	})

	t.Run("head failure", func(t *testing.T) {
		t.Parallel()

		fake := storagetest.New(nil)
		fake.FailOn("HeadBucket", "", "", &smithy.GenericAPIError{Code: "AccessDenied"})
		acct, err := storage.New(storage.Config{AccessKey: "a", SecretKey: "s"}, storage.WithAPI(fake))
		require.NoError(t, err)

		_, err = acct.Primary().Ensure(context.Background())
		require.ErrorIs(t, err, storage.ErrContainerEnsureFailed)
		require.Zero(t, fake.Calls("CreateBucket"))
	})

	t.Run("create failure", func(t *testing.T) {
		t.Parallel()

		fake := storagetest.New(nil)
		fake.FailOn("CreateBucket", "", "", errors.New("network down"))
		acct, err := storage.New(storage.Config{AccessKey: "a", SecretKey: "s"}, storage.WithAPI(fake))
		require.NoError(t, err)

		_, err = acct.Backup().Ensure(context.Background())
		require.ErrorIs(t, err, storage.ErrContainerEnsureFailed)
	})
}

func TestContainer_ObjectURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  storage.Config
		want string
	}{
		{
			name: "aws virtual hosted",
			cfg:  storage.Config{Region: "eu-west-1"},
			want: "https://receipts.s3.eu-west-1.amazonaws.com/client/a.pdf",
		},
		{
			name: "custom endpoint path style",
			cfg:  storage.Config{Endpoint: "http://localhost:9000/", PathStyle: true},
			want: "http://localhost:9000/receipts/client/a.pdf",
		},
		{
			name: "public url prefix",
			cfg:  storage.Config{PublicURL: "https://cdn.example.com/"},
			want: "https://cdn.example.com/client/a.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tt.cfg.AccessKey, tt.cfg.SecretKey = "a", "s"
			acct, err := storage.New(tt.cfg)
			require.NoError(t, err)
			require.Equal(t, tt.want, acct.Primary().ObjectURL("client/a.pdf"))
		})
	}
}

func TestDisposition(t *testing.T) {
	t.Parallel()

	require.Equal(t, `inline; filename="r1.pdf"`, storage.Disposition("client/acme/2024/03/05/till-1/r1.pdf", false))
	require.Equal(t, `attachment; filename="r1.pdf"`, storage.Disposition("client/acme/2024/03/05/till-1/r1.pdf", true))
}

func TestContainer_Healthcheck(t *testing.T) {
	t.Parallel()

	fake := storagetest.New(nil, storage.DefaultContainer)
	acct, err := storage.New(storage.Config{AccessKey: "a", SecretKey: "s"}, storage.WithAPI(fake))
	require.NoError(t, err)

	require.NoError(t, acct.Primary().Healthcheck(context.Background()))
	require.ErrorIs(t, acct.Backup().Healthcheck(context.Background()), storage.ErrNotFound)
}
