package backup_test

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"

	"github.com/Komal-TGT/Storage-service/pkg/access"
	"github.com/Komal-TGT/Storage-service/pkg/backup"
	"github.com/Komal-TGT/Storage-service/pkg/clock"
	"github.com/Komal-TGT/Storage-service/pkg/storage"
	"github.com/Komal-TGT/Storage-service/pkg/storage/storagetest"
)

var cycleStart = time.Date(2024, time.March, 5, 11, 10, 0, 0, time.UTC)

var receipt = []byte("%PDF-1.4\n1 0 obj <<>> endobj\n%%EOF\n")

type testEnv struct {
	acct   *storage.Account
	fake   *storagetest.Fake
	clock  *clock.FakeClock
	issuer *access.Issuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clk := clock.Fake(cycleStart)
	fake := storagetest.New(clk, storage.DefaultContainer, storage.DefaultBackupContainer)
	server := fake.Server()
	t.Cleanup(server.Close)

	acct, err := storage.New(storage.Config{
		AccessKey:   "test-access-key",
		SecretKey:   "test-secret-key",
		Endpoint:    server.URL,
		PathStyle:   true,
		CopyMaxWait: 5 * time.Second,
	}, storage.WithAPI(fake), storage.WithClock(clk), storage.WithHTTPClient(server.Client()))
	require.NoError(t, err)

	iss, err := access.New(acct.Presigner(), acct.Primary(), access.Config{
		Container: acct.Primary().Name(),
	}, access.WithClock(clk))
	require.NoError(t, err)

	return &testEnv{acct: acct, fake: fake, clock: clk, issuer: iss}
}

func (e *testEnv) reconciler(opts ...backup.Option) *backup.Reconciler {
	opts = append([]backup.Option{backup.WithClock(e.clock)}, opts...)
	return backup.NewReconciler(storage.NewTagScan(e.acct.Primary()), e.issuer, e.acct.Backup(), e.acct.Primary(), opts...)
}

func (e *testEnv) put(t *testing.T, receiptID string) string {
	t.Helper()

	path, err := e.acct.Primary().Put(context.Background(), receipt, storage.ReceiptKey{
		ClientID:  "acme",
		PosID:     "till-1",
		Date:      "2024-03-05",
		ReceiptID: receiptID,
	})
	require.NoError(t, err)
	return path
}

func (e *testEnv) backupTag(t *testing.T, path string) string {
	t.Helper()

	tags, err := e.acct.Primary().Tags(context.Background(), path)
	require.NoError(t, err)
	return tags[storage.TagBackup]
}

func TestReconciler_RunOnce(t *testing.T) {
	t.Parallel()

	t.Run("copies pending receipt and marks it done", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		ctx := context.Background()
		path := env.put(t, "r1")
		require.Equal(t, "client/acme/2024/03/05/till-1/r1.pdf", path)

		report, err := env.reconciler().RunOnce(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, report.Discovered)
		require.Equal(t, 1, report.Copied)
		require.Zero(t, report.Failed)
		require.False(t, report.Skipped)
		require.Equal(t, cycleStart, report.StartedAt)

		dst, ok := env.fake.Object(storage.DefaultBackupContainer, path)
		require.True(t, ok)
		require.Equal(t, receipt, dst.Data)
		require.Equal(t, "application/pdf", dst.ContentType)
		require.Equal(t, storage.BackupDone, env.backupTag(t, path))

		report, err = env.reconciler().RunOnce(ctx)
		require.NoError(t, err)
		require.Zero(t, report.Discovered)
	})

	t.Run("nothing pending", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		report, err := env.reconciler().RunOnce(context.Background())
		require.NoError(t, err)
		require.Equal(t, backup.Report{StartedAt: cycleStart}, report)
	})

	t.Run("copy failure leaves object pending", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		ctx := context.Background()
		bad := env.put(t, "r1")
		good := env.put(t, "r2")
		env.fake.FailOn("Download", storage.DefaultContainer, bad, errors.New("disk gone"))

		report, err := env.reconciler().RunOnce(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, report.Discovered)
		require.Equal(t, 1, report.Copied)
		require.Equal(t, 1, report.Failed)

		require.Equal(t, storage.BackupNeeded, env.backupTag(t, bad))
		require.Equal(t, storage.BackupDone, env.backupTag(t, good))
		require.Equal(t, []string{good}, env.fake.Keys(storage.DefaultBackupContainer))

		env.fake.ClearFaults()
		report, err = env.reconciler().RunOnce(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, report.Copied)
		require.Equal(t, storage.BackupDone, env.backupTag(t, bad))
	})

	t.Run("tag failure copies again next cycle", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		ctx := context.Background()
		path := env.put(t, "r1")
		env.fake.FailOn("PutObjectTagging", storage.DefaultContainer, path, &smithy.GenericAPIError{Code: "InternalError"})

		report, err := env.reconciler().RunOnce(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, report.Copied)
		require.Equal(t, storage.BackupNeeded, env.backupTag(t, path))

		env.fake.ClearFaults()
		report, err = env.reconciler().RunOnce(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, report.Copied)
		require.Equal(t, storage.BackupDone, env.backupTag(t, path))
		require.Equal(t, []string{path}, env.fake.Keys(storage.DefaultBackupContainer))
	})

	t.Run("listing failure is returned", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.put(t, "r1")
		env.fake.FailOn("ListObjectsV2", "", "", &smithy.GenericAPIError{Code: "AccessDenied"})

		report, err := env.reconciler().RunOnce(context.Background())
		require.ErrorIs(t, err, backup.ErrDiscoveryFailed)
		require.ErrorIs(t, err, storage.ErrAccessDenied)
		require.Zero(t, report.Discovered)
		require.Empty(t, env.fake.Keys(storage.DefaultBackupContainer))
	})

	t.Run("copy grants are short lived", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		path := env.put(t, "r1")

		issuer := &recordingIssuer{next: env.issuer}
		r := backup.NewReconciler(storage.NewTagScan(env.acct.Primary()), issuer, env.acct.Backup(), env.acct.Primary())

		_, err := r.RunOnce(context.Background())
		require.NoError(t, err)
		require.Len(t, issuer.grants, 1)
		require.Equal(t, path, issuer.grants[0].Path)
		require.Equal(t, access.KindExpiring, issuer.grants[0].Kind)
		require.Equal(t, "r", issuer.grants[0].Permissions.String())
		require.Equal(t, int64(600), *issuer.grants[0].ExpiresIn())
	})
}

type recordingIssuer struct {
	next   backup.Issuer
	grants []*access.Grant
}

func (r *recordingIssuer) Issue(ctx context.Context, path string, opts ...access.IssueOption) (*access.Grant, error) {
	g, err := r.next.Issue(ctx, path, opts...)
	if err == nil {
		r.grants = append(r.grants, g)
	}
	return g, err
}

// blockingSource yields nothing until release is closed.
type blockingSource struct {
	entered chan struct{}
	release chan struct{}
}

func (s *blockingSource) ListPending(ctx context.Context) iter.Seq2[string, error] {
	return func(func(string, error) bool) {
		close(s.entered)
		select {
		case <-s.release:
		case <-ctx.Done():
		}
	}
}

func TestReconciler_Overlap(t *testing.T) {
	t.Parallel()

	src := &blockingSource{entered: make(chan struct{}), release: make(chan struct{})}
	r := backup.NewReconciler(src, nil, nil, nil, backup.WithLogger(slog.New(slog.DiscardHandler)))

	first := make(chan backup.Report, 1)
	go func() {
		report, _ := r.RunOnce(context.Background())
		first <- report
	}()
	<-src.entered

	report, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	require.True(t, report.Skipped)

	close(src.release)
	require.False(t, (<-first).Skipped)
}

type stubLocker struct {
	acquired bool
	err      error
	released int
}

func (l *stubLocker) TryLock(context.Context) (func(context.Context) error, bool, error) {
	if l.err != nil || !l.acquired {
		return nil, false, l.err
	}
	return func(context.Context) error {
		l.released++
		return nil
	}, true, nil
}

type emptySource struct{}

func (emptySource) ListPending(context.Context) iter.Seq2[string, error] {
	return func(func(string, error) bool) {}
}

func TestReconciler_Locker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		locker       *stubLocker
		wantSkipped  bool
		wantErr      error
		wantReleased int
	}{
		{name: "acquired", locker: &stubLocker{acquired: true}, wantReleased: 1},
		{name: "held elsewhere", locker: &stubLocker{}, wantSkipped: true},
		{name: "lock error", locker: &stubLocker{err: errors.New("redis down")}, wantErr: backup.ErrLockFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := backup.NewReconciler(emptySource{}, nil, nil, nil, backup.WithLocker(tt.locker))
			report, err := r.RunOnce(context.Background())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.wantSkipped, report.Skipped)
			require.Equal(t, tt.wantReleased, tt.locker.released)
		})
	}
}
