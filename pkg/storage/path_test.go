package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Komal-TGT/Storage-service/pkg/clock"
)

func TestReceiptPath(t *testing.T) {
	t.Parallel()

	date := time.Date(2024, time.March, 5, 23, 30, 0, 0, time.UTC)
	require.Equal(t, "client/acme/2024/03/05/till-1/r1.pdf", ReceiptPath("acme", "till-1", date, "r1"))

	// Non-UTC input is rendered in UTC.
	east := time.FixedZone("UTC+2", 2*60*60)
	require.Equal(t, "client/acme/2024/03/05/till-1/r1.pdf",
		ReceiptPath("acme", "till-1", time.Date(2024, time.March, 6, 1, 0, 0, 0, east), "r1"))
}

func TestPathBuilder_Build(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.January, 9, 8, 0, 0, 0, time.UTC)
	builder := PathBuilder{
		Clock: clock.Fake(now),
		NewID: func() string { return "generated" },
	}

	tests := []struct {
		name     string
		key      ReceiptKey
		wantPath string
		wantDate string
		wantID   string
	}{
		{
			name:     "explicit date and id",
			key:      ReceiptKey{ClientID: "acme", PosID: "till-1", Date: "2024-03-05", ReceiptID: "r1"},
			wantPath: "client/acme/2024/03/05/till-1/r1.pdf",
			wantDate: "2024-03-05",
			wantID:   "r1",
		},
		{
			name:     "defaults to today and generated id",
			key:      ReceiptKey{ClientID: "acme", PosID: "till-1"},
			wantPath: "client/acme/2025/01/09/till-1/generated.pdf",
			wantDate: "2025-01-09",
			wantID:   "generated",
		},
		{
			name:     "rfc3339 with offset converts to utc",
			key:      ReceiptKey{ClientID: "acme", PosID: "till-1", Date: "2024-03-06T01:00:00+02:00", ReceiptID: "r1"},
			wantPath: "client/acme/2024/03/05/till-1/r1.pdf",
			wantDate: "2024-03-05",
			wantID:   "r1",
		},
		{
			name:     "timestamp without zone is utc",
			key:      ReceiptKey{ClientID: "acme", PosID: "till-1", Date: "2024-12-31T23:59:59", ReceiptID: "r1"},
			wantPath: "client/acme/2024/12/31/till-1/r1.pdf",
			wantDate: "2024-12-31",
			wantID:   "r1",
		},
		{
			name:     "fractional seconds",
			key:      ReceiptKey{ClientID: "acme", PosID: "till-1", Date: "2024-03-05T10:00:00.123Z", ReceiptID: "r1"},
			wantPath: "client/acme/2024/03/05/till-1/r1.pdf",
			wantDate: "2024-03-05",
			wantID:   "r1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path, resolved, err := builder.Build(tt.key)
			require.NoError(t, err)
			require.Equal(t, tt.wantPath, path)
			require.Equal(t, tt.wantDate, resolved.Date)
			require.Equal(t, tt.wantID, resolved.ReceiptID)
		})
	}
}

func TestPathBuilder_Deterministic(t *testing.T) {
	t.Parallel()

	key := ReceiptKey{ClientID: "acme", PosID: "till-1", Date: "2024-03-05", ReceiptID: "r1"}
	first, _, err := PathBuilder{}.Build(key)
	require.NoError(t, err)
	second, _, err := PathBuilder{}.Build(key)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestPathBuilder_GeneratesUUID(t *testing.T) {
	t.Parallel()

	path, resolved, err := PathBuilder{}.Build(ReceiptKey{ClientID: "acme", PosID: "till-1"})
	require.NoError(t, err)
	require.Len(t, resolved.ReceiptID, 36)
	require.Contains(t, path, resolved.ReceiptID+".pdf")
}

func TestPathBuilder_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  ReceiptKey
	}{
		{name: "missing client", key: ReceiptKey{PosID: "till-1"}},
		{name: "missing pos", key: ReceiptKey{ClientID: "acme"}},
		{name: "slash in client", key: ReceiptKey{ClientID: "ac/me", PosID: "till-1"}},
		{name: "dot dot pos", key: ReceiptKey{ClientID: "acme", PosID: ".."}},
		{name: "single dot receipt", key: ReceiptKey{ClientID: "acme", PosID: "till-1", ReceiptID: "."}},
		{name: "space in receipt", key: ReceiptKey{ClientID: "acme", PosID: "till-1", ReceiptID: "r 1"}},
		{name: "unparseable date", key: ReceiptKey{ClientID: "acme", PosID: "till-1", Date: "05/03/2024"}},
		{name: "impossible date", key: ReceiptKey{ClientID: "acme", PosID: "till-1", Date: "2024-02-30"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := PathBuilder{}.Build(tt.key)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestValidatePath(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidatePath("client/acme/2024/03/05/till-1/r1.pdf"))

	for _, p := range []string{"", "/client/a.pdf", "client/../secret", "client//a.pdf", "_policies/permanent-read.json"} {
		require.ErrorIs(t, ValidatePath(p), ErrInvalidInput, p)
	}
}
