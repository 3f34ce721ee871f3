package access

import (
	"fmt"
	"net/http"
	"strings"
)

// Permissions is a set of grant permissions.
type Permissions uint8

// Permission flags, one per letter.
const (
	PermRead Permissions = 1 << iota
	PermAdd
	PermCreate
	PermWrite
	PermDelete
	PermTag
)

// permissionLetters lists the letters in canonical order.
var permissionLetters = []struct {
	letter byte
	perm   Permissions
}{
	{'r', PermRead},
	{'a', PermAdd},
	{'c', PermCreate},
	{'w', PermWrite},
	{'d', PermDelete},
	{'t', PermTag},
}

// ParsePermissions parses a permission string such as "r" or "cw".
// An empty string means read. Unknown letters fail with ErrInvalidPermissions.
//
// Any combination of known letters parses, "rw" included. A presigned URL
// authorizes a single S3 request, though, so Issue rejects sets that span
// more than one operation (read, write, delete, tag) with
// ErrInvalidPermissions; "acw" all map to one PUT and are accepted together.
func ParsePermissions(s string) (Permissions, error) {
	if s == "" {
		return PermRead, nil
	}

	var p Permissions
next:
	for i := 0; i < len(s); i++ {
		for _, l := range permissionLetters {
			if s[i] == l.letter {
				p |= l.perm
				continue next
			}
		}
		return 0, fmt.Errorf("%w: unknown permission %q in %q", ErrInvalidPermissions, s[i], s)
	}
	return p, nil
}

// Has reports whether p includes every permission in q.
func (p Permissions) Has(q Permissions) bool {
	return p&q == q
}

// String renders p in canonical letter order.
func (p Permissions) String() string {
	var b strings.Builder
	for _, l := range permissionLetters {
		if p.Has(l.perm) {
			b.WriteByte(l.letter)
		}
	}
	return b.String()
}

// operation identifies the single S3 request a presigned URL authorizes.
type operation int

const (
	opGet operation = iota + 1
	opPut
	opDelete
	opPutTagging
)

func (o operation) method() string {
	switch o {
	case opPut, opPutTagging:
		return http.MethodPut
	case opDelete:
		return http.MethodDelete
	default:
		return http.MethodGet
	}
}

// operation maps p to the one request a presigned URL can carry.
// Sets spanning more than one request are rejected.
func (p Permissions) operation() (operation, error) {
	var ops []operation
	if p.Has(PermRead) {
		ops = append(ops, opGet)
	}
	if p&(PermAdd|PermCreate|PermWrite) != 0 {
		ops = append(ops, opPut)
	}
	if p.Has(PermDelete) {
		ops = append(ops, opDelete)
	}
	if p.Has(PermTag) {
		ops = append(ops, opPutTagging)
	}

	switch len(ops) {
	case 1:
		return ops[0], nil
	case 0:
		return 0, fmt.Errorf("%w: no permissions requested", ErrInvalidPermissions)
	default:
		return 0, fmt.Errorf("%w: %q spans several operations; issue one grant per operation", ErrInvalidPermissions, p.String())
	}
}
