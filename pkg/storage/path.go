package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Komal-TGT/Storage-service/pkg/clock"
)

// ReceiptPrefix is the root of every receipt path.
const ReceiptPrefix = "client/"

// receiptDateLayout is the canonical form of a resolved receipt date.
const receiptDateLayout = "2006-01-02"

// acceptedDateLayouts lists the ISO forms accepted for ReceiptKey.Date, in match order.
var acceptedDateLayouts = []string{
	receiptDateLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// segmentRegex matches identifiers that are safe as single path segments.
var segmentRegex = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ReceiptKey identifies a receipt by its business coordinates.
type ReceiptKey struct {
	ClientID  string
	PosID     string
	Date      string // ISO date or timestamp; empty means today (UTC)
	ReceiptID string // empty means a fresh UUIDv4
}

// ReceiptPath renders the canonical object path for a resolved key.
// Format: client/{clientID}/{yyyy}/{mm}/{dd}/{posID}/{receiptID}.pdf
func ReceiptPath(clientID, posID string, date time.Time, receiptID string) string {
	date = date.UTC()
	return fmt.Sprintf("%s%s/%04d/%02d/%02d/%s/%s.pdf",
		ReceiptPrefix, clientID, date.Year(), int(date.Month()), date.Day(), posID, receiptID)
}

// PathBuilder resolves receipt keys into object paths.
// The zero value uses the real clock and UUIDv4 identifiers.
type PathBuilder struct {
	Clock clock.Clock
	NewID func() string
}

// Build validates key, fills in the default date and receipt id, and returns
// the object path together with the resolved key. Resolved Date is always YYYY-MM-DD.
func (b PathBuilder) Build(key ReceiptKey) (string, ReceiptKey, error) {
	if err := validateSegment("clientId", key.ClientID); err != nil {
		return "", key, err
	}
	if err := validateSegment("posId", key.PosID); err != nil {
		return "", key, err
	}

	date, err := b.resolveDate(key.Date)
	if err != nil {
		return "", key, err
	}

	if key.ReceiptID == "" {
		key.ReceiptID = b.newID()
	} else if err := validateSegment("receiptId", key.ReceiptID); err != nil {
		return "", key, err
	}

	key.Date = date.Format(receiptDateLayout)
	return ReceiptPath(key.ClientID, key.PosID, date, key.ReceiptID), key, nil
}

func (b PathBuilder) resolveDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		c := b.Clock
		if c == nil {
			c = clock.Real()
		}
		return c.Now().UTC(), nil
	}
	for _, layout := range acceptedDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: dateISO %q is not an ISO date", ErrInvalidInput, raw)
}

func (b PathBuilder) newID() string {
	if b.NewID != nil {
		return b.NewID()
	}
	return uuid.NewString()
}

// validateSegment rejects values that would not map to exactly one path segment.
func validateSegment(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	if value == "." || value == ".." || !segmentRegex.MatchString(value) {
		return fmt.Errorf("%w: %s %q contains unsupported characters", ErrInvalidInput, field, value)
	}
	return nil
}

// ValidatePath checks that p is a plausible object path supplied by a caller.
// It does not require the receipt layout, only a clean relative key.
func ValidatePath(p string) error {
	if p == "" {
		return fmt.Errorf("%w: blobPath is required", ErrInvalidInput)
	}
	if strings.HasPrefix(p, "/") || path.Clean(p) != p {
		return fmt.Errorf("%w: blobPath %q is not a clean relative path", ErrInvalidInput, p)
	}
	if strings.HasPrefix(p, PolicyPrefix) {
		return fmt.Errorf("%w: blobPath %q is reserved", ErrInvalidInput, p)
	}
	return nil
}
