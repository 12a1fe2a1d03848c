// Package emm implements EMM, the encrypted-multimap structured encryption
// primitive ([CJJ+13]'s Pi_bas construction): a key maps to an ordered list
// of values, each stored under its own label so a client can reconstruct
// the whole list by walking index 0, 1, 2, ... until a label comes up
// missing, without the store ever learning how many entries a key has in
// advance.
//
// As with ste/edx, two variants are provided: EMM, whose labels are HMAC'd
// and whose values are encrypted independently of the per-index token (so
// Query and Resolve are separate steps), and RevealingEMM, whose label and
// value key both derive from the per-index token, letting Query decrypt
// in-line.
package emm

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"sync"

	"github.com/cloudsecuritygroup/arq/crypto"
	"github.com/cloudsecuritygroup/arq/digest"
	"github.com/cloudsecuritygroup/arq/errors"
	"github.com/cloudsecuritygroup/arq/serialize"
	"github.com/cloudsecuritygroup/arq/ste"
)

// indexBytes returns i's little-endian uint32 byte encoding, the info
// string every per-index label and value key is derived from. Using the
// integer's actual value encoding (rather than allocating i zero bytes)
// keeps every index's derivation distinct.
func indexBytes(i int) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(i))
	return b
}

// EMM encrypts a K -> []V multimap under a 2*crypto.KeyLength-byte key: the
// first half keys an HMAC computing each entry's token, the second keys
// AES-CBC over each entry's value.
type EMM[K comparable, V any] struct {
	prims    crypto.Primitives
	keySer   serialize.Serializer[K]
	valSer   serialize.Serializer[V]
	strategy ste.Strategy
}

// New returns an EMM scheme. strategy selects how Encrypt parallelises its
// per-keyword work; pass ste.Serial for a single-goroutine fold.
func New[K comparable, V any](prims crypto.Primitives, keySer serialize.Serializer[K], valSer serialize.Serializer[V], strategy ste.Strategy) *EMM[K, V] {
	return &EMM[K, V]{prims: prims, keySer: keySer, valSer: valSer, strategy: strategy}
}

// GenerateKey returns a fresh 2*crypto.KeyLength-byte key.
func (e *EMM[K, V]) GenerateKey() ([]byte, error) {
	return e.prims.Rand(2 * crypto.KeyLength)
}

func (e *EMM[K, V]) hmacKey(key []byte) []byte { return key[:crypto.KeyLength] }
func (e *EMM[K, V]) encKey(key []byte) []byte  { return key[crypto.KeyLength : 2*crypto.KeyLength] }

// Tag returns τ = HMAC(Kh, save(k)), the per-keyword value every entry's
// label is derived from.
func (e *EMM[K, V]) Tag(key []byte, k K) ([]byte, error) {
	kb, err := e.keySer.Save(k)
	if err != nil {
		return nil, err
	}
	return e.prims.HMAC(e.hmacKey(key), kb), nil
}

// entryLabel returns the label of the i'th entry under tag τ:
// hash(τ || i_bytes).
func (e *EMM[K, V]) entryLabel(tag []byte, i int) []byte {
	return e.prims.Hash(append(append([]byte{}, tag...), indexBytes(i)...))
}

// Encrypt builds the encrypted store for dict under key and serialises it
// to a self-describing blob. Entries within a keyword's list are encrypted
// sequentially (their labels chain on the keyword's tag, not on each
// other); strategy parallelises across keywords.
func (e *EMM[K, V]) Encrypt(key []byte, dict map[K][]V) ([]byte, error) {
	keys := make([]K, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}

	store := make(ste.EncryptedStore)
	var mu sync.Mutex
	err := e.strategy(len(keys)).Do(func(idx int) error {
		k := keys[idx]
		tag, err := e.Tag(key, k)
		if err != nil {
			return err
		}
		for i, v := range dict[k] {
			vb, err := e.valSer.Save(v)
			if err != nil {
				return err
			}
			ct, err := e.prims.Encrypt(e.encKey(key), vb)
			if err != nil {
				return err
			}
			label := e.entryLabel(tag, i)
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
func (e *EMM[K, V]) LoadEDS(blob []byte) (ste.EncryptedStore, error) {
	var store ste.EncryptedStore
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&store); err != nil {
		return nil, errors.E(errors.Malformed, "emm: decoding encrypted store", err)
	}
	return store, nil
}

// Query walks i = 0, 1, 2, ... under tag, collecting the ciphertext stored
// at each index's label, until a label is absent from store.
func (e *EMM[K, V]) Query(tag []byte, store ste.EncryptedStore) [][]byte {
	var responses [][]byte
	for i := 0; ; i++ {
		ct, ok := store[digest.SHA512.New(e.entryLabel(tag, i))]
		if !ok {
			return responses
		}
		responses = append(responses, ct)
	}
}

// Resolve decrypts and deserialises each entry of responses, in order.
func (e *EMM[K, V]) Resolve(key []byte, responses [][]byte) ([]V, error) {
	out := make([]V, len(responses))
	for i, ct := range responses {
		pt, err := e.prims.Decrypt(e.encKey(key), ct)
		if err != nil {
			return nil, err
		}
		v, err := e.valSer.Load(pt)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
