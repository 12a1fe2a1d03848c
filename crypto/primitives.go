// Package crypto implements the cryptographic primitives arq's
// structured-encryption layer is built from: hashing, HMAC, HKDF-based key
// derivation, authenticated-feeling symmetric encryption (AES-CBC with an
// encrypt-then-MAC-free envelope the way the reference scheme defines it),
// and secure randomness.
//
// Primitives are exposed through an interface rather than free functions so
// that ste/edx and ste/emm can be constructed with deterministic test
// doubles instead of touching crypto/rand in unit tests.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/cloudsecuritygroup/arq/errors"
)

// KeyLength is the length, in bytes, of the symmetric keys used throughout
// arq: AES-128 keys and HMAC-SHA-512 keys alike.
const KeyLength = 16

// Primitives collects the cryptographic operations the EDX and EMM layers
// are built from. The default implementation, New(), is safe for
// concurrent use.
type Primitives interface {
	// Hash returns the SHA-512 digest of data.
	Hash(data []byte) []byte
	// HMAC returns the HMAC-SHA-512 of data under key.
	HMAC(key, data []byte) []byte
	// Encrypt encrypts plaintext under key using AES-CBC with a random IV
	// prepended to the returned ciphertext, and PKCS#7 padding.
	Encrypt(key, plaintext []byte) ([]byte, error)
	// Decrypt reverses Encrypt. It returns an Integrity error if the
	// ciphertext is too short, not a multiple of the block size, or its
	// padding is invalid.
	Decrypt(key, ciphertext []byte) ([]byte, error)
	// HKDF derives a KeyLength-byte key from baseKey for the given purpose,
	// using HKDF-SHA-512 with no salt and info set to purpose.
	HKDF(baseKey []byte, purpose string) []byte
	// HKDFN is HKDF, but derives n bytes instead of KeyLength.
	HKDFN(baseKey []byte, purpose string, n int) []byte
	// HKDFBytes derives n bytes from baseKey using HKDF-SHA-512 with info
	// set to the raw bytes of info, rather than a string purpose. Used to
	// derive per-index EMM labels, where info is an integer's byte
	// encoding rather than a human-readable purpose string.
	HKDFBytes(baseKey, info []byte, n int) []byte
	// Rand returns n cryptographically secure random bytes.
	Rand(n int) ([]byte, error)
}

type primitives struct{}

// New returns the default Primitives implementation, backed by the
// standard library's crypto/sha512, crypto/hmac, crypto/aes and
// golang.org/x/crypto/hkdf.
func New() Primitives {
	return primitives{}
}

func (primitives) Hash(data []byte) []byte {
	sum := sha512.Sum512(data)
	return sum[:]
}

func (primitives) HMAC(key, data []byte) []byte {
	mac := hmac.New(sha512.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

func (p primitives) HKDF(baseKey []byte, purpose string) []byte {
	return p.HKDFBytes(baseKey, []byte(purpose), KeyLength)
}

func (p primitives) HKDFN(baseKey []byte, purpose string, n int) []byte {
	return p.HKDFBytes(baseKey, []byte(purpose), n)
}

func (primitives) HKDFBytes(baseKey, info []byte, n int) []byte {
	r := hkdf.New(sha512.New, baseKey, nil, info)
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		// hkdf.New's Reader only fails if the caller asks for more output
		// than the expansion step can produce; arq never derives keys that
		// large, so this indicates a programming error.
		panic("crypto: hkdf expansion failed: " + err.Error())
	}
	return out
}

func (primitives) Rand(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, errors.E(errors.Integrity, "reading random bytes", err)
	}
	return b, nil
}

// Encrypt implements Primitives.Encrypt using AES-CBC with a random,
// block-sized IV prepended to the ciphertext and PKCS#7 padding, matching
// the wire format `IV || AES-CBC(pad(plaintext))`.
func (primitives) Encrypt(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.E(errors.Invalid, "constructing AES cipher", err)
	}
	padded := pkcs7Pad(plaintext, block.BlockSize())
	out := make([]byte, block.BlockSize()+len(padded))
	iv := out[:block.BlockSize()]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, errors.E(errors.Integrity, "generating IV", err)
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[block.BlockSize():], padded)
	return out, nil
}

// Decrypt implements Primitives.Decrypt.
func (primitives) Decrypt(key, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.E(errors.Invalid, "constructing AES cipher", err)
	}
	bs := block.BlockSize()
	if len(ciphertext) < bs || (len(ciphertext)-bs)%bs != 0 {
		return nil, errors.E(errors.Integrity, "ciphertext is not a valid multiple of the block size")
	}
	iv, body := ciphertext[:bs], ciphertext[bs:]
	if len(body) == 0 {
		return nil, errors.E(errors.Integrity, "ciphertext has no encrypted body")
	}
	out := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, body)
	return pkcs7Unpad(out, bs)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.E(errors.Integrity, "invalid padded ciphertext length")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, errors.E(errors.Integrity, "invalid padding")
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, errors.E(errors.Integrity, "invalid padding")
		}
	}
	return data[:len(data)-padLen], nil
}
