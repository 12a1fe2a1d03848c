package arq

// ResolveResult is the tagged union a RangeAggregateQuerier's Resolve
// returns: either the query is Done with a final Number, or it needs
// another round against Continue's auxiliary keys.
type ResolveResult[K any] struct {
	done      bool
	aggregate Number
	continue_ []K
}

// Done constructs a terminal ResolveResult carrying the final aggregate.
func Done[K any](aggregate Number) ResolveResult[K] {
	return ResolveResult[K]{done: true, aggregate: aggregate}
}

// Continue constructs a ResolveResult asking the composer to issue another
// round of lookups against the given auxiliary keys.
func Continue[K any](keys []K) ResolveResult[K] {
	return ResolveResult[K]{done: false, continue_: keys}
}

// IsDone reports whether the querier has produced its final answer.
func (r ResolveResult[K]) IsDone() bool {
	return r.done
}

// Aggregate returns the final answer. It is only meaningful when IsDone()
// is true.
func (r ResolveResult[K]) Aggregate() Number {
	return r.aggregate
}

// NextKeys returns the auxiliary keys to look up next. It is only
// meaningful when IsDone() is false.
func (r ResolveResult[K]) NextKeys() []K {
	return r.continue_
}

// RangeAggregateQuerier is a one-shot object bound to a specific
// (domain, RangeQuery): it emits a small list of auxiliary keys via Query,
// and combines their corresponding DS values via Resolve. Corresponds to
// the (Q, R) half of a (S, Q, R) scheme.
type RangeAggregateQuerier[K, V any] interface {
	// Query returns the auxiliary keys to look up in the plaintext (or
	// encrypted) DS.
	Query() []K
	// Resolve combines the DS values corresponding to the most recent
	// Query(), in the same order, into either a final answer or a request
	// for another round of keys.
	Resolve(responses []V) (ResolveResult[K], error)
}

// RangeAggregateScheme is a plaintext aggregate range-query scheme
// (S, Q, R) parameterised over its DS value type and its querier's
// auxiliary key/value types.
type RangeAggregateScheme[DS, K, V any] interface {
	// Setup computes the plaintext DS from a Table; corresponds to S.
	Setup(table Table) (DS, error)
	// GenerateQuerier builds a one-shot querier for rq over domain;
	// corresponds to (Q, R).
	GenerateQuerier(domain Domain, rq RangeQuery) (RangeAggregateQuerier[K, V], error)
}
