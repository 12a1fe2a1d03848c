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

// labelLength is the width, in bytes, every EDX/EMM label is derived to,
// matching the non-revealing variants' HMAC-SHA-512 output so that every
// label in an EncryptedStore is a uniform digest.SHA512 digest regardless
// of which variant produced it.
const labelLength = 64

// RevealingEDX encrypts a K -> V dictionary under a single
// crypto.KeyLength-byte key. Unlike EDX, the label and the per-entry
// value-encryption key are both derived from a token bound to k, so Query
// can decrypt in-line without a separate Resolve step.
type RevealingEDX[K comparable, V any] struct {
	prims    crypto.Primitives
	keySer   serialize.Serializer[K]
	valSer   serialize.Serializer[V]
	strategy ste.Strategy
}

// NewRevealing returns a RevealingEDX scheme.
func NewRevealing[K comparable, V any](prims crypto.Primitives, keySer serialize.Serializer[K], valSer serialize.Serializer[V], strategy ste.Strategy) *RevealingEDX[K, V] {
	return &RevealingEDX[K, V]{prims: prims, keySer: keySer, valSer: valSer, strategy: strategy}
}

// GenerateKey returns a fresh crypto.KeyLength-byte key.
func (e *RevealingEDX[K, V]) GenerateKey() ([]byte, error) {
	return e.prims.Rand(crypto.KeyLength)
}

// Token returns τ = kdf(key, save(k)), the per-keyword token every label
// and value-key in this scheme is derived from.
func (e *RevealingEDX[K, V]) Token(key []byte, k K) ([]byte, error) {
	kb, err := e.keySer.Save(k)
	if err != nil {
		return nil, err
	}
	return e.prims.HKDFBytes(key, kb, crypto.KeyLength), nil
}

func (e *RevealingEDX[K, V]) label(token []byte) []byte    { return e.prims.HKDFN(token, "hmac", labelLength) }
func (e *RevealingEDX[K, V]) valueKey(token []byte) []byte { return e.prims.HKDF(token, "value") }

// Encrypt builds the encrypted store for dict under key and serialises it
// to a self-describing blob.
func (e *RevealingEDX[K, V]) Encrypt(key []byte, dict map[K]V) ([]byte, error) {
	keys := make([]K, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}

	store := make(ste.EncryptedStore, len(dict))
	var mu sync.Mutex
	err := e.strategy(len(keys)).Do(func(i int) error {
		k := keys[i]
		token, err := e.Token(key, k)
		if err != nil {
			return err
		}
		vb, err := e.valSer.Save(dict[k])
		if err != nil {
			return err
		}
		ct, err := e.prims.Encrypt(e.valueKey(token), vb)
		if err != nil {
			return err
		}
		mu.Lock()
		store[digest.SHA512.New(e.label(token))] = ct
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
func (e *RevealingEDX[K, V]) LoadEDS(blob []byte) (ste.EncryptedStore, error) {
	var store ste.EncryptedStore
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&store); err != nil {
		return nil, errors.E(errors.Malformed, "edx: decoding encrypted store", err)
	}
	return store, nil
}

// Query decrypts in-line: it derives the label and value key from token,
// looks up the label in store, and decrypts the match. ok is false if the
// token's label is absent.
func (e *RevealingEDX[K, V]) Query(token []byte, store ste.EncryptedStore) (V, bool, error) {
	var zero V
	ct, ok := store[digest.SHA512.New(e.label(token))]
	if !ok {
		return zero, false, nil
	}
	pt, err := e.prims.Decrypt(e.valueKey(token), ct)
	if err != nil {
		return zero, false, err
	}
	v, err := e.valSer.Load(pt)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}
