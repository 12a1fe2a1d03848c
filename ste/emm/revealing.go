package emm

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

// labelLength is the width, in bytes, every RevealingEMM label is derived
// to, matching EMM's HMAC-SHA-512-sized labels so every label in an
// EncryptedStore is a uniform digest.SHA512 digest regardless of variant.
const labelLength = 64

// RevealingEMM encrypts a K -> []V multimap under a single
// crypto.KeyLength-byte key. Unlike EMM, the per-keyword tag is itself a
// KDF token, and each entry's label and value-encryption key derive from
// that token and the entry's index, so Query can decrypt in-line.
type RevealingEMM[K comparable, V any] struct {
	prims    crypto.Primitives
	keySer   serialize.Serializer[K]
	valSer   serialize.Serializer[V]
	strategy ste.Strategy
}

// NewRevealing returns a RevealingEMM scheme.
func NewRevealing[K comparable, V any](prims crypto.Primitives, keySer serialize.Serializer[K], valSer serialize.Serializer[V], strategy ste.Strategy) *RevealingEMM[K, V] {
	return &RevealingEMM[K, V]{prims: prims, keySer: keySer, valSer: valSer, strategy: strategy}
}

// GenerateKey returns a fresh crypto.KeyLength-byte key.
func (e *RevealingEMM[K, V]) GenerateKey() ([]byte, error) {
	return e.prims.Rand(crypto.KeyLength)
}

// Tag returns token = kdf(key, save(k)), the per-keyword token every
// entry's label and value key in this scheme is derived from.
func (e *RevealingEMM[K, V]) Tag(key []byte, k K) ([]byte, error) {
	kb, err := e.keySer.Save(k)
	if err != nil {
		return nil, err
	}
	return e.prims.HKDFBytes(key, kb, crypto.KeyLength), nil
}

// entryLabel returns the label of the i'th entry under token: a
// labelLength-byte KDF of token with info set to i's byte encoding,
// normalised to the same width as every other EDX/EMM label.
func (e *RevealingEMM[K, V]) entryLabel(token []byte, i int) []byte {
	return e.prims.HKDFBytes(token, indexBytes(i), labelLength)
}

func (e *RevealingEMM[K, V]) entryValueKey(token []byte, i int) []byte {
	return e.prims.HKDFBytes(token, append(indexBytes(i), "value"...), crypto.KeyLength)
}

// Encrypt builds the encrypted store for dict under key and serialises it
// to a self-describing blob.
func (e *RevealingEMM[K, V]) Encrypt(key []byte, dict map[K][]V) ([]byte, error) {
	keys := make([]K, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}

	store := make(ste.EncryptedStore)
	var mu sync.Mutex
	err := e.strategy(len(keys)).Do(func(idx int) error {
		k := keys[idx]
		token, err := e.Tag(key, k)
		if err != nil {
			return err
		}
		for i, v := range dict[k] {
			vb, err := e.valSer.Save(v)
			if err != nil {
				return err
			}
			ct, err := e.prims.Encrypt(e.entryValueKey(token, i), vb)
			if err != nil {
				return err
			}
			label := e.entryLabel(token, i)
			mu.Lock()
			store[digest.SHA512.New(label)] = ct
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(store); err != nil {
		return nil, errors.E(errors.Malformed, "emm: encoding encrypted store", err)
	}
	return buf.Bytes(), nil
}

// LoadEDS deserialises a blob produced by Encrypt into the server-side
// store.
func (e *RevealingEMM[K, V]) LoadEDS(blob []byte) (ste.EncryptedStore, error) {
	var store ste.EncryptedStore
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&store); err != nil {
		return nil, errors.E(errors.Malformed, "emm: decoding encrypted store", err)
	}
	return store, nil
}

// Query walks i = 0, 1, 2, ... under token, decrypting each entry in-line,
// until a label is absent from store.
func (e *RevealingEMM[K, V]) Query(token []byte, store ste.EncryptedStore) ([]V, error) {
	var out []V
	for i := 0; ; i++ {
		ct, ok := store[digest.SHA512.New(e.entryLabel(token, i))]
		if !ok {
			return out, nil
		}
		pt, err := e.prims.Decrypt(e.entryValueKey(token, i), ct)
		if err != nil {
			return nil, err
		}
		v, err := e.valSer.Load(pt)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}
