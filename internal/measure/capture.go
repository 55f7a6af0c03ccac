package measure

import (
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// PlaceholderIdentity is used when the host supplies no unit identity.
const PlaceholderIdentity = "unknown-file"

// Key identifies one pending pre capture.
// Instance distinguishes repeated invocations for the same identity.
type Key struct {
	Identity string
	Instance string
}

// String returns "identity#instance", or just the identity when no
// instance token was assigned.
func (k Key) String() string {
	if k.Instance == "" {
		return k.Identity
	}
	return k.Identity + "#" + k.Instance
}

// Unit is the transient record created by a pre capture.
// It is owned by the invocation that created it and completed by Post.
type Unit struct {
	key           Key
	seq           int64
	originalBytes int
	posted        atomic.Bool
}

// Capture performs the pre capture for one compile unit.
//
// identity may be empty, in which case PlaceholderIdentity is used. source
// must be valid UTF-8; otherwise an INVALID_UTF8 HookError is returned and
// no record is created.
func Capture(source, identity string) (*Unit, error) {
	return capture(source, identity, "", 0)
}

func capture(source, identity, instance string, seq int64) (*Unit, error) {
	id := NormalizeIdentity(identity)
	if !utf8.ValidString(source) {
		return nil, NewInvalidUTF8Error("source", id)
	}
	return &Unit{
		key:           Key{Identity: id, Instance: instance},
		seq:           seq,
		originalBytes: len(source),
	}, nil
}

// Key returns the key of this unit.
func (u *Unit) Key() Key {
	return u.key
}

// Identity returns the normalised unit identity.
func (u *Unit) Identity() string {
	return u.key.Identity
}

// OriginalBytes returns the byte length recorded by the pre capture.
func (u *Unit) OriginalBytes() int {
	return u.originalBytes
}

// Post performs the post capture and returns the completed measurement.
//
// A unit can be completed once. A second Post returns an UNMATCHED_POST
// HookError because the pending record was already consumed. Invalid UTF-8
// output returns INVALID_UTF8 and leaves the unit pending.
func (u *Unit) Post(output string) (Measurement, error) {
	if !utf8.ValidString(output) {
		return Measurement{}, NewInvalidUTF8Error("output", u.key.Identity)
	}
	if !u.posted.CompareAndSwap(false, true) {
		return Measurement{}, NewUnmatchedPostError(u.key)
	}
	return Measurement{
		Identity:      u.key.Identity,
		OriginalBytes: u.originalBytes,
		CompiledBytes: len(output),
	}, nil
}

// NormalizeIdentity trims surrounding whitespace, converts the identity to
// Unicode NFC and substitutes PlaceholderIdentity for an empty value.
func NormalizeIdentity(identity string) string {
	id := strings.TrimSpace(identity)
	if id == "" {
		return PlaceholderIdentity
	}
	return norm.NFC.String(id)
}
