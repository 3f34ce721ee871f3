package cli

import (
	"bytes"
	"context"
	"io"
	"maps"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Komal-TGT/Storage-service/internal/config"
	"github.com/Komal-TGT/Storage-service/pkg/clock"
	"github.com/Komal-TGT/Storage-service/pkg/storage"
	"github.com/Komal-TGT/Storage-service/pkg/storage/storagetest"
)

var (
	startedAt = time.Date(2024, time.March, 5, 11, 10, 0, 0, time.UTC)
	samplePDF = []byte("%PDF-1.4\n1 0 obj <<>> endobj\n%%EOF\n")
)

type testEnv struct {
	fake       *storagetest.Fake
	clock      *clock.FakeClock
	vars       map[string]string
	configPath string
	opts       []RuntimeOption
}

// newTestEnv wires the CLI to an in-memory S3. buckets are created up
// front; pass none to exercise bootstrap.
func newTestEnv(t *testing.T, extra map[string]string, buckets ...string) *testEnv {
	t.Helper()

	clk := clock.Fake(startedAt)
	fake := storagetest.New(clk, buckets...)
	server := fake.Server()
	t.Cleanup(server.Close)

	vars := map[string]string{
		"STORAGE_ACCESS_KEY":   "test-access-key",
		"STORAGE_SECRET_KEY":   "test-secret-key",
		"STORAGE_ENDPOINT":     server.URL,
		"STORAGE_PATH_STYLE":   "true",
		"PUBLIC_URL":           "https://gateway.example.com",
		"BACKUP_COPY_MAX_WAIT": "5s",
	}
	maps.Copy(vars, extra)

	data, err := yaml.Marshal(vars)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "receiptd.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return &testEnv{
		fake:       fake,
		clock:      clk,
		vars:       vars,
		configPath: path,
		opts: []RuntimeOption{
			WithAccountOptions(storage.WithAPI(fake), storage.WithHTTPClient(server.Client())),
			WithClock(clk),
			WithLogOutput(io.Discard),
		},
	}
}

func (e *testEnv) runtime(t *testing.T) *Runtime {
	t.Helper()

	cfg, err := config.Parse(e.vars)
	require.NoError(t, err)
	rt, err := Build(cfg, e.opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })
	return rt
}

// run executes the root command with args and returns its stdout.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand(e.opts...)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) put(t *testing.T, rt *Runtime, receiptID string) string {
	t.Helper()

	path, err := rt.Account.Primary().Put(context.Background(), samplePDF, storage.ReceiptKey{
		ClientID:  "acme",
		PosID:     "till-1",
		Date:      "2024-03-05",
		ReceiptID: receiptID,
	})
	require.NoError(t, err)
	return path
}
