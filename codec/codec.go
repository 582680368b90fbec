// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package codec implements the deterministic list encoding shared by every BTP wire record.
// Records are RLP encoded; signed integers travel as minimal big-endian two's-complement byte strings.
package codec

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

var (
	// ErrMalformed indicates the bytes are not a canonical encoding of the expected record
	ErrMalformed = errors.New("malformed payload")

	_two = big.NewInt(2)
)

// Marshal encodes v into its canonical byte form
func Marshal(v interface{}) ([]byte, error) {
	b, err := rlp.EncodeToBytes(v)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %T", v)
	}
	return b, nil
}

// MustMarshal is Marshal which panics on error, for records that always encode
func MustMarshal(v interface{}) []byte {
	b, err := Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Unmarshal decodes data into v, trailing bytes and non-canonical sizes are rejected
func Unmarshal(data []byte, v interface{}) error {
	if err := rlp.DecodeBytes(data, v); err != nil {
		return errors.Wrapf(ErrMalformed, "failed to decode %T: %v", v, err)
	}
	return nil
}

// EncodeInt returns the minimal two's-complement big-endian form of v, zero encodes as a single 0x00
func EncodeInt(v *big.Int) []byte {
	switch v.Sign() {
	case 0:
		return []byte{0}
	case 1:
		b := v.Bytes()
		if b[0]&0x80 != 0 {
			b = append([]byte{0}, b...)
		}
		return b
	}
	abs := new(big.Int).Neg(v)
	n := new(big.Int).Sub(abs, big.NewInt(1)).BitLen()/8 + 1
	x := new(big.Int).Exp(_two, big.NewInt(int64(8*n)), nil)
	x.Sub(x, abs)
	return x.FillBytes(make([]byte, n))
}

// DecodeInt parses a minimal two's-complement big-endian integer
func DecodeInt(b []byte) (*big.Int, error) {
	if len(b) == 0 {
		return nil, errors.Wrap(ErrMalformed, "empty integer")
	}
	if len(b) > 1 {
		if (b[0] == 0x00 && b[1]&0x80 == 0) || (b[0] == 0xff && b[1]&0x80 != 0) {
			return nil, errors.Wrapf(ErrMalformed, "non-minimal integer %x", b)
		}
	}
	v := new(big.Int).SetBytes(b)
	if b[0]&0x80 != 0 {
		v.Sub(v, new(big.Int).Exp(_two, big.NewInt(int64(8*len(b))), nil))
	}
	return v, nil
}

// EncodeInt64 is EncodeInt for int64 values
func EncodeInt64(v int64) []byte {
	return EncodeInt(big.NewInt(v))
}

// DecodeInt64 is DecodeInt for values fitting int64
func DecodeInt64(b []byte) (int64, error) {
	v, err := DecodeInt(b)
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() {
		return 0, errors.Wrapf(ErrMalformed, "integer %s overflows int64", v)
	}
	return v.Int64(), nil
}
