//go:build integration

package storage_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Komal-TGT/Storage-service/pkg/storage"
)

// Integration test configuration for rustfs (S3-compatible storage).
// Start the test infrastructure with: docker-compose up -d
const (
	testEndpoint  = "http://localhost:9000"
	testAccessKey = "admin"
	testSecretKey = "admin123"
	testRegion    = "us-east-1"
)

func newIntegrationAccount(t *testing.T) *storage.Account {
	t.Helper()

	suffix := uuid.NewString()[:8]
	acct, err := storage.New(storage.Config{
		Endpoint:        testEndpoint,
		AccessKey:       testAccessKey,
		SecretKey:       testSecretKey,
		Region:          testRegion,
		PathStyle:       true,
		Container:       "receipts-it-" + suffix,
		BackupContainer: "receipts-it-backup-" + suffix,
		CopyMaxWait:     30 * time.Second,
	})
	require.NoError(t, err, "failed to create storage account")

	ctx := context.Background()
	_, err = acct.Primary().Ensure(ctx)
	require.NoError(t, err)
	_, err = acct.Backup().Ensure(ctx)
	require.NoError(t, err)

	return acct
}

func TestIntegration_ReceiptLifecycle(t *testing.T) {
	acct := newIntegrationAccount(t)
	ctx := context.Background()

	path, err := acct.Primary().Put(ctx, samplePDF, storage.ReceiptKey{
		ClientID: "acme",
		PosID:    "till-1",
		Date:     "2024-03-05",
	})
	require.NoError(t, err)

	props, err := acct.Primary().Properties(ctx, path)
	require.NoError(t, err)
	require.Equal(t, "acme", props.Metadata.ClientID)
	require.Equal(t, storage.Digest(samplePDF), props.Metadata.ContentBlake3)
	require.Equal(t, storage.BackupNeeded, props.Tags[storage.TagBackup])

	req, err := acct.Presigner().PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(acct.Primary().Name()),
		Key:    aws.String(path),
	}, func(o *s3.PresignOptions) { o.Expires = 10 * time.Minute })
	require.NoError(t, err)

	require.NoError(t, acct.Backup().CopyFromURL(ctx, req.URL, path))
	require.NoError(t, acct.Primary().SetTag(ctx, path, storage.TagBackup, storage.BackupDone))

	obj, err := acct.Backup().Open(ctx, path)
	require.NoError(t, err)
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	require.Equal(t, samplePDF, data)

	var pending []string
	for p, err := range storage.NewTagScan(acct.Primary()).ListPending(ctx) {
		require.NoError(t, err)
		pending = append(pending, p)
	}
	require.NotContains(t, pending, path)
}
