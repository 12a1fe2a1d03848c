// Package edx implements EDX, the encrypted-dictionary structured
// encryption primitive: a key -> value mapping is transformed into a
// label -> ciphertext store such that a token derived from a single key
// unlocks exactly one lookup, without revealing the rest of the mapping.
//
// Two variants are provided: EDX, whose labels are HMAC'd and whose
// values are encrypted under keys independent of the token (so a separate
// Resolve step is needed after Query), and RevealingEDX, whose label and
// value-encryption key are both derived from the token, letting Query
// decrypt in-line.
package edx

import (
	"bytes"
	"encoding/gob"
	"sync"

	"github.com/cloudsecuritygroup/arq/crypto"
	"github.com/cloudsecuritygroup/arq/digest"
	"github.com/cloudsecuritygroup/arq/errors"
	"github.com/cloudsecuritygroup/arq/serialize"
	"github.com/cloudsecuritygroup/arq/ste"
)

// EDX encrypts a K -> V dictionary under a 2*crypto.KeyLength-byte key:
// the first half keys an HMAC over serialised keys (the label), the
// second half keys AES-CBC over serialised values.
type EDX[K comparable, V any] struct {
	prims    crypto.Primitives
	keySer   serialize.Serializer[K]
	valSer   serialize.Serializer[V]
	strategy ste.Strategy
}

// New returns an EDX scheme. strategy selects how Encrypt parallelises its
// per-entry work; pass ste.Serial for a single-goroutine fold.
func New[K comparable, V any](prims crypto.Primitives, keySer serialize.Serializer[K], valSer serialize.Serializer[V], strategy ste.Strategy) *EDX[K, V] {
	return &EDX[K, V]{prims: prims, keySer: keySer, valSer: valSer, strategy: strategy}
}

// GenerateKey returns a fresh 2*crypto.KeyLength-byte key: the first half
// for HMAC, the second for encryption.
func (e *EDX[K, V]) GenerateKey() ([]byte, error) {
	return e.prims.Rand(2 * crypto.KeyLength)
}

func (e *EDX[K, V]) hmacKey(key []byte) []byte { return key[:crypto.KeyLength] }
func (e *EDX[K, V]) encKey(key []byte) []byte  { return key[crypto.KeyLength : 2*crypto.KeyLength] }

// Strategy returns the ste.Strategy e was built with, so a caller
// resolving many auxiliary keys at once (Composer.Query, across a
// round's NextKeys) can fan its own work out the same way Encrypt does.
func (e *EDX[K, V]) Strategy() ste.Strategy { return e.strategy }

// Token returns the label a lookup of k would produce in the store
// Encrypt built under key.
func (e *EDX[K, V]) Token(key []byte, k K) ([]byte, error) {
	kb, err := e.keySer.Save(k)
	if err != nil {
		return nil, err
	}
	return e.prims.HMAC(e.hmacKey(key), kb), nil
}

// Encrypt builds the encrypted store for dict under key and serialises it
// to a self-describing blob (Encrypt's output dictionary does not depend
// on the completion order of the per-entry work, so any Strategy
// produces the same blob up to gob's own key ordering).
func (e *EDX[K, V]) Encrypt(key []byte, dict map[K]V) ([]byte, error) {
	keys := make([]K, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}

	store := make(ste.EncryptedStore, len(dict))
	var mu sync.Mutex
	err := e.strategy(len(keys)).Do(func(i int) error {
		k := keys[i]
		label, err := e.Token(key, k)
		if err != nil {
			return err
		}
		vb, err := e.valSer.Save(dict[k])
		if err != nil {
			return err
		}
		ct, err := e.prims.Encrypt(e.encKey(key), vb)
		if err != nil {
			return err
		}
		mu.Lock()
		store[digest.SHA512.New(label)] = ct
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(store); err != nil {
		return nil, errors.E(errors.Malformed, "edx: encoding encrypted store", err)
	}
	return buf.Bytes(), nil
}

// LoadEDS deserialises a blob produced by Encrypt into the server-side
// store.
func (e *EDX[K, V]) LoadEDS(blob []byte) (ste.EncryptedStore, error) {
	var store ste.EncryptedStore
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&store); err != nil {
		return nil, errors.E(errors.Malformed, "edx: decoding encrypted store", err)
	}
	return store, nil
}

// Query looks up token in store, returning the stored ciphertext and
// whether the label was present.
func (e *EDX[K, V]) Query(token []byte, store ste.EncryptedStore) ([]byte, bool) {
	ct, ok := store[digest.SHA512.New(token)]
	return ct, ok
}

// Resolve decrypts and deserialises response into a V. response must have
// come from Query against a store Encrypt built under the same key.
func (e *EDX[K, V]) Resolve(key []byte, response []byte) (V, error) {
	var zero V
	pt, err := e.prims.Decrypt(e.encKey(key), response)
	if err != nil {
		return zero, err
	}
	return e.valSer.Load(pt)
}
