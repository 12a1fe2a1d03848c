// Package digest provides a fixed-size, comparable, serializable
// representation for the labels and ciphertexts produced by arq's
// structured-encryption layer. A Digest wraps the 64-byte output of a
// keyed hash (SHA-512 or HMAC-SHA-512) so it can be used directly as a map
// key in an EncryptedStore and compared or serialized without copying a
// raw []byte around.
package digest

import (
	"bytes"
	"crypto"
	_ "crypto/sha512" // link SHA-512 into the crypto.Hash registry
	"encoding/binary"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strings"
)

const maxSize = 64 // SHA-512 output size; all Digesters in this package use it.

var (
	// ErrInvalidDigest is returned when a string does not parse as a Digest.
	ErrInvalidDigest = errors.New("digest: invalid digest")
	// ErrWrongHash is returned when a Digest was parsed under a Digester
	// whose hash function does not match the one named in the string.
	ErrWrongHash = errors.New("digest: wrong hash")
)

var hashName = map[crypto.Hash]string{
	crypto.SHA512: "sha512",
}

var nameHash = map[string]crypto.Hash{
	"sha512": crypto.SHA512,
}

const zeroString = "<zero>"

// Digest represents a digest computed with a cryptographic hash function.
// It uses a fixed-size representation and is directly comparable, so it is
// safe to use as a map key.
type Digest struct {
	h crypto.Hash
	b [maxSize]byte
}

var _ gob.GobEncoder = Digest{}
var _ gob.GobDecoder = (*Digest)(nil)

// GobEncode implements gob encoding for Digest.
func (d Digest) GobEncode() ([]byte, error) {
	b := make([]byte, binary.MaxVarintLen64+d.h.Size())
	n := binary.PutUvarint(b, uint64(d.h))
	copy(b[n:], d.b[:d.h.Size()])
	return b[:n+d.h.Size()], nil
}

// GobDecode implements gob decoding for Digest.
func (d *Digest) GobDecode(p []byte) error {
	h, n := binary.Uvarint(p)
	if n <= 0 {
		return errors.New("digest: short buffer")
	}
	d.h = crypto.Hash(h)
	if len(p)-n != d.h.Size() {
		return ErrInvalidDigest
	}
	copy(d.b[:], p[n:])
	return nil
}

// IsZero reports whether d is the zero Digest.
func (d Digest) IsZero() bool { return d.h == 0 }

// Hash returns the cryptographic hash function used to produce d.
func (d Digest) Hash() crypto.Hash { return d.h }

// Hex returns the padded hexadecimal representation of d.
func (d Digest) Hex() string {
	n := d.h.Size()
	return fmt.Sprintf("%0*x", 2*n, d.b[:n])
}

// Bytes returns d's raw hash output, without the Digester tag.
func (d Digest) Bytes() []byte {
	b := make([]byte, d.h.Size())
	copy(b, d.b[:d.h.Size()])
	return b
}

// String returns "<hash-name>:<hex>", or "<zero>" for the zero Digest.
func (d Digest) String() string {
	if d.IsZero() {
		return zeroString
	}
	return fmt.Sprintf("%s:%s", hashName[d.h], d.Hex())
}

func (d Digest) valid() bool {
	return d.h.Available() && len(d.b) >= d.h.Size()
}

// Parse parses a string produced by Digest.String.
func Parse(s string) (Digest, error) {
	if s == "" || s == zeroString {
		return Digest{}, nil
	}
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return Digest{}, ErrInvalidDigest
	}
	h, ok := nameHash[parts[0]]
	if !ok {
		return Digest{}, ErrInvalidDigest
	}
	b, err := hex.DecodeString(parts[1])
	if err != nil {
		return Digest{}, err
	}
	d := Digest{h: h}
	copy(d.b[:], b)
	if !d.valid() {
		return Digest{}, ErrInvalidDigest
	}
	return d, nil
}

// New returns a literal Digest with the given hash function and value. The
// caller is responsible for ensuring b is the correct length for h.
func New(h crypto.Hash, b []byte) Digest {
	d := Digest{h: h}
	copy(d.b[:], b)
	return d
}

// Digester computes Digests using a particular cryptographic hash function.
// SHA512 is the only Digester arq needs: all of its labels and ciphertext
// digests are fixed-size SHA-512 or HMAC-SHA-512 output.
type Digester crypto.Hash

// SHA512 computes 64-byte SHA-512 digests.
const SHA512 = Digester(crypto.SHA512)

// New returns a Digest over b, computed with d's hash function.
func (d Digester) New(b []byte) Digest {
	if crypto.Hash(d).Size() != len(b) {
		panic("digest: bad digest length")
	}
	return New(crypto.Hash(d), b)
}

// FromBytes computes a Digest of p.
func (d Digester) FromBytes(p []byte) Digest {
	w := crypto.Hash(d).New()
	if _, err := w.Write(p); err != nil {
		panic("digest: hash returned error: " + err.Error())
	}
	return New(crypto.Hash(d), w.Sum(nil))
}

// FromString computes a Digest of s.
func (d Digester) FromString(s string) Digest {
	return d.FromBytes([]byte(s))
}

// Parse parses a string into a Digest with d's hash function. The input may
// omit the hash name, in which case d's hash is assumed.
func (d Digester) Parse(s string) (Digest, error) {
	if s == "" || s == zeroString {
		return Digest{h: crypto.Hash(d)}, nil
	}
	if !strings.Contains(s, ":") {
		b, err := hex.DecodeString(s)
		if err != nil {
			return Digest{}, err
		}
		dg := Digest{h: crypto.Hash(d)}
		copy(dg.b[:], b)
		if !dg.valid() {
			return Digest{}, ErrInvalidDigest
		}
		return dg, nil
	}
	dg, err := Parse(s)
	if err != nil {
		return Digest{}, err
	}
	if dg.h != crypto.Hash(d) {
		return Digest{}, ErrWrongHash
	}
	return dg, nil
}

// NewWriter returns a Writer that accumulates a Digest over written bytes.
func (d Digester) NewWriter() Writer {
	return Writer{crypto.Hash(d), crypto.Hash(d).New()}
}

// Writer is an io.Writer that accumulates a running Digest.
type Writer struct {
	h crypto.Hash
	w hash.Hash
}

func (w Writer) Write(p []byte) (int, error) { return w.w.Write(p) }

// Digest returns the Digest of everything written so far. It does not
// reset the Writer's internal state.
func (w Writer) Digest() Digest {
	return New(w.h, w.w.Sum(nil))
}

// Equal reports whether a and b hold the same hash function and value.
// Provided for readability at call sites over a==b on the exported type.
func Equal(a, b Digest) bool {
	return a.h == b.h && bytes.Equal(a.b[:a.h.Size()], b.b[:b.h.Size()])
}
