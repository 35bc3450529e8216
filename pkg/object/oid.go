package object

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// OID is a content address: the 20-byte SHA-1 digest of an object's
// canonical envelope. It is comparable and usable as a map key.
type OID [20]byte

// ZeroOID is the all-zero OID, used as a sentinel for "no object"
// (e.g. a tree entry with no target, or an unset parent).
var ZeroOID OID

// String returns the lowercase hex encoding of the OID.
func (o OID) String() string {
	return hex.EncodeToString(o[:])
}

// IsZero reports whether o is the all-zero sentinel.
func (o OID) IsZero() bool {
	return o == ZeroOID
}

// ParseOID decodes a 40-character hex string into an OID.
func ParseOID(s string) (OID, error) {
	var o OID
	if len(s) != 40 {
		return o, fmt.Errorf("object: invalid OID length %d, want 40", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return o, fmt.Errorf("object: invalid OID %q: %w", s, err)
	}
	copy(o[:], b)
	return o, nil
}

// ComputeOID hashes the envelope "type len\0content" with SHA-1, mirroring
// Git's own object addressing scheme.
func ComputeOID(objType ObjectType, data []byte) OID {
	header := fmt.Sprintf("%s %d\x00", objType, len(data))
	h := sha1.New()
	h.Write([]byte(header))
	h.Write(data)
	var o OID
	copy(o[:], h.Sum(nil))
	return o
}

// HashBytes computes the raw SHA-1 digest of data, with no envelope.
func HashBytes(data []byte) OID {
	var o OID
	sum := sha1.Sum(data)
	copy(o[:], sum[:])
	return o
}
