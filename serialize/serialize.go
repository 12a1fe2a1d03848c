// Package serialize implements the encoders arq's structured-encryption
// layer uses to turn EDX/EMM keys and values into byte strings: a
// fixed-width signed 32-bit integer encoding for the common case of
// integer domain points, a struct-style tuple encoding for the small
// fixed-arity auxiliary keys the plaintext schemes use, and a self-
// describing opaque encoding sufficient to round-trip everything else a
// scheme stores as a DS value.
package serialize

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"math"

	"github.com/cloudsecuritygroup/arq/errors"
)

// A Serializer encodes values of type T to and from a byte string, for use
// as EDX/EMM dictionary keys and values.
type Serializer[T any] interface {
	Save(v T) ([]byte, error)
	Load(b []byte) (T, error)
}

// Int32Serializer encodes an int as a fixed-width, little-endian signed
// 32-bit string, matching the "fixed-width signed 32-bit integer encoding
// (little-endian)" form the serialization layer is required to provide. It
// is used for the integer domain points that key a Table and most plaintext
// DS dictionaries.
type Int32Serializer struct{}

// Save implements Serializer. It returns an Invalid error if v does not
// fit in an int32.
func (Int32Serializer) Save(v int) ([]byte, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return nil, errors.E(errors.Invalid, "Int32Serializer: value out of int32 range")
	}
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(int32(v)))
	return b, nil
}

// Load implements Serializer.
func (Int32Serializer) Load(b []byte) (int, error) {
	if len(b) != 4 {
		return 0, errors.E(errors.Malformed, "Int32Serializer: expected 4 bytes")
	}
	return int(int32(binary.LittleEndian.Uint32(b))), nil
}

// Tuple2 is the auxiliary-key shape most power/index-addressed plaintext
// schemes use: a (P, I) pair, e.g. the sparse table and AS-table's
// (power, index) keys.
type Tuple2 struct {
	A, B int
}

// Tuple2Serializer packs a Tuple2 as two little-endian int32s, the "ii"
// struct-style tuple format.
type Tuple2Serializer struct{}

// Save implements Serializer.
func (Tuple2Serializer) Save(v Tuple2) ([]byte, error) {
	b := make([]byte, 8)
	if err := putInt32(b[0:4], v.A); err != nil {
		return nil, err
	}
	if err := putInt32(b[4:8], v.B); err != nil {
		return nil, err
	}
	return b, nil
}

// Load implements Serializer.
func (Tuple2Serializer) Load(b []byte) (Tuple2, error) {
	if len(b) != 8 {
		return Tuple2{}, errors.E(errors.Malformed, "Tuple2Serializer: expected 8 bytes")
	}
	return Tuple2{A: getInt32(b[0:4]), B: getInt32(b[4:8])}, nil
}

// Tuple3 is the auxiliary-key shape the linear-EMT scheme uses: a tag
// identifying which of its three sub-tables a key belongs to, plus two
// integer components.
type Tuple3 struct {
	Tag, A, B int
}

// Tuple3Serializer packs a Tuple3 as three little-endian int32s, the "iii"
// struct-style tuple format.
type Tuple3Serializer struct{}

// Save implements Serializer.
func (Tuple3Serializer) Save(v Tuple3) ([]byte, error) {
	b := make([]byte, 12)
	if err := putInt32(b[0:4], v.Tag); err != nil {
		return nil, err
	}
	if err := putInt32(b[4:8], v.A); err != nil {
		return nil, err
	}
	if err := putInt32(b[8:12], v.B); err != nil {
		return nil, err
	}
	return b, nil
}

// Load implements Serializer.
func (Tuple3Serializer) Load(b []byte) (Tuple3, error) {
	if len(b) != 12 {
		return Tuple3{}, errors.E(errors.Malformed, "Tuple3Serializer: expected 12 bytes")
	}
	return Tuple3{Tag: getInt32(b[0:4]), A: getInt32(b[4:8]), B: getInt32(b[8:12])}, nil
}

func putInt32(b []byte, v int) error {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return errors.E(errors.Invalid, "serialize: value out of int32 range")
	}
	binary.LittleEndian.PutUint32(b, uint32(int32(v)))
	return nil
}

func getInt32(b []byte) int {
	return int(int32(binary.LittleEndian.Uint32(b)))
}

// IntSliceSerializer encodes a []int as a length-prefixed sequence of
// little-endian int32s. cmd/arqbench uses it for medianalpha's lists of
// candidate medians.
type IntSliceSerializer struct{}

// Save implements Serializer.
func (IntSliceSerializer) Save(v []int) ([]byte, error) {
	b := make([]byte, 4+4*len(v))
	binary.LittleEndian.PutUint32(b, uint32(len(v)))
	for i, x := range v {
		if err := putInt32(b[4+4*i:4+4*i+4], x); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Load implements Serializer.
func (IntSliceSerializer) Load(b []byte) ([]int, error) {
	if len(b) < 4 {
		return nil, errors.E(errors.Malformed, "IntSliceSerializer: truncated length prefix")
	}
	n := binary.LittleEndian.Uint32(b)
	b = b[4:]
	if uint32(len(b)) != n*4 {
		return nil, errors.E(errors.Malformed, "IntSliceSerializer: length mismatch")
	}
	out := make([]int, n)
	for i := range out {
		out[i] = getInt32(b[4*i : 4*i+4])
	}
	return out, nil
}

// Opaque is a Serializer for any gob-encodable type, for DS values that
// don't fit a fixed-width encoding. The bundled schemes' values all have
// dedicated serializers (modeas.ModeCountSerializer, IntSliceSerializer), so no
// caller in this module uses Opaque.
type Opaque[T any] struct{}

// Save implements Serializer.
func (Opaque[T]) Save(v T) ([]byte, error) {
	var b bytes.Buffer
	if err := gob.NewEncoder(&b).Encode(v); err != nil {
		return nil, errors.E(errors.Malformed, "Opaque: encoding value", err)
	}
	return b.Bytes(), nil
}

// Load implements Serializer.
func (Opaque[T]) Load(b []byte) (T, error) {
	var v T
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&v); err != nil {
		var zero T
		return zero, errors.E(errors.Malformed, "Opaque: decoding value", err)
	}
	return v, nil
}
