// Package ste holds the pieces shared between ste/edx and ste/emm: the
// on-the-wire encrypted store representation and the parallel-map
// strategy their Encrypt operations are parameterised over.
package ste

import (
	"runtime"

	"github.com/cloudsecuritygroup/arq/digest"
	"github.com/cloudsecuritygroup/arq/traverse"
)

// Ciphertext is an encrypted value: 16 bytes of IV followed by a
// PKCS#7-padded AES-CBC ciphertext, per crypto.Primitives.Encrypt.
type Ciphertext = []byte

// EncryptedStore is the server-side representation of an encrypted
// dictionary or multimap: label digests mapping to ciphertexts. Labels are
// always fixed-size SHA-512 or HMAC-SHA-512 output, which digest.Digest
// was built to hold compactly and compare/serialize deterministically.
type EncryptedStore map[digest.Digest]Ciphertext

// Strategy selects the traverse.Traverse a ste/edx or ste/emm Encrypt call
// farms its per-entry work across. Encrypt's output dictionary is
// order-independent, so any Strategy produces an identical result; it
// only affects how much of the work runs concurrently.
type Strategy func(n int) traverse.Traverse

// Serial is the default Strategy: every entry is encrypted on a single
// worker goroutine, in order.
func Serial(n int) traverse.Traverse {
	return traverse.Each(n).Limit(1)
}

// Parallel farms entries across a bounded worker pool sized to
// runtime.NumCPU().
func Parallel(n int) traverse.Traverse {
	return traverse.Each(n).Limit(runtime.NumCPU())
}
