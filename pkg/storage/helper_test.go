package storage_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Komal-TGT/Storage-service/pkg/clock"
	"github.com/Komal-TGT/Storage-service/pkg/storage"
	"github.com/Komal-TGT/Storage-service/pkg/storage/storagetest"
)

const (
	testPrimary = "receipts"
	testBackup  = "receipts-backup"
)

// samplePDF is a minimal body carrying the PDF signature.
var samplePDF = []byte("%PDF-1.4\n1 0 obj <<>> endobj\ntrailer <<>>\n%%EOF\n")

type testEnv struct {
	acct   *storage.Account
	fake   *storagetest.Fake
	clock  *clock.FakeClock
	server *httptest.Server
}

func newTestEnv(t *testing.T, opts ...storage.AccountOption) *testEnv {
	t.Helper()

	// The SDK signs with wall time; keep the fake clock just ahead of it so
	// freshly presigned URLs are inside their window.
	clk := clock.Fake(time.Now().UTC().Add(30 * time.Second))
	fake := storagetest.New(clk, testPrimary, testBackup)
	server := fake.Server()
	t.Cleanup(server.Close)

	opts = append([]storage.AccountOption{
		storage.WithAPI(fake),
		storage.WithClock(clk),
		storage.WithHTTPClient(server.Client()),
	}, opts...)

	acct, err := storage.New(storage.Config{
		AccessKey:   "test-access-key",
		SecretKey:   "test-secret-key",
		Endpoint:    server.URL,
		PathStyle:   true,
		CopyMaxWait: 5 * time.Second,
	}, opts...)
	require.NoError(t, err)

	return &testEnv{acct: acct, fake: fake, clock: clk, server: server}
}
