package arq

import (
	"github.com/cloudsecuritygroup/arq/errors"
	"github.com/cloudsecuritygroup/arq/ste"
	"github.com/cloudsecuritygroup/arq/ste/edx"
)

// Composer binds a plaintext RangeAggregateScheme to an EDX instance,
// turning the scheme's DS dictionary into an encrypted store and its
// querier's auxiliary keys into EDX lookups. It implements the query
// protocol every plaintext scheme shares: derive the querier's current
// auxiliary keys, resolve each one through the EDX (a token lookup
// followed by a decrypt), hand the responses back to the querier, and
// repeat if it asks to continue.
type Composer[K comparable, V any] struct {
	scheme RangeAggregateScheme[map[K]V, K, V]
	edx    *edx.EDX[K, V]
}

// NewComposer returns a Composer combining scheme with the EDX instance
// e.
func NewComposer[K comparable, V any](scheme RangeAggregateScheme[map[K]V, K, V], e *edx.EDX[K, V]) *Composer[K, V] {
	return &Composer[K, V]{scheme: scheme, edx: e}
}

// GenerateKey returns a fresh EDX key.
func (c *Composer[K, V]) GenerateKey() ([]byte, error) {
	return c.edx.GenerateKey()
}

// Setup runs the scheme over table and encrypts the resulting DS under
// key, returning the blob a server stores as the encrypted database.
func (c *Composer[K, V]) Setup(key []byte, table Table) ([]byte, error) {
	ds, err := c.scheme.Setup(table)
	if err != nil {
		return nil, err
	}
	return c.edx.Encrypt(key, ds)
}

// LoadEDS deserialises a blob produced by Setup into the server-side
// store.
func (c *Composer[K, V]) LoadEDS(blob []byte) (ste.EncryptedStore, error) {
	return c.edx.LoadEDS(blob)
}

// Query answers rq over domain against store, round-tripping auxiliary
// keys through the EDX until the scheme's querier reports a final
// aggregate. Each round's keys are resolved using the EDX's own
// ste.Strategy, so a scheme whose querier asks for many keys per round
// (e.g. a wide fan-out over several tree levels) resolves them under the
// same serial/parallel policy Setup's Encrypt used.
func (c *Composer[K, V]) Query(key []byte, domain Domain, rq RangeQuery, store ste.EncryptedStore) (Number, error) {
	q, err := c.scheme.GenerateQuerier(domain, rq)
	if err != nil {
		return Number{}, err
	}

	keys := q.Query()
	for {
		responses := make([]V, len(keys))
		resolveErr := c.edx.Strategy()(len(keys)).Do(func(i int) error {
			token, err := c.edx.Token(key, keys[i])
			if err != nil {
				return err
			}
			ct, ok := c.edx.Query(token, store)
			if !ok {
				return errors.E(errors.NotExist, "composer: auxiliary key missing from encrypted store")
			}
			v, err := c.edx.Resolve(key, ct)
			if err != nil {
				return err
			}
			responses[i] = v
			return nil
		})
		if resolveErr != nil {
			return Number{}, resolveErr
		}

		result, err := q.Resolve(responses)
		if err != nil {
			return Number{}, err
		}
		if result.IsDone() {
			return result.Aggregate(), nil
		}
		keys = result.NextKeys()
	}
}
