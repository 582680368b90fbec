// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package state

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type counter struct {
	Value uint64
	Total *big.Int
}

type raw []byte

func (r raw) Serialize() ([]byte, error) { return []byte(r), nil }

func (r *raw) Deserialize(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

func TestSerialize(t *testing.T) {
	require := require.New(t)

	c := &counter{Value: 3, Total: big.NewInt(100)}
	b, err := Serialize(c)
	require.NoError(err)
	var decoded counter
	require.NoError(Deserialize(&decoded, b))
	require.Equal(uint64(3), decoded.Value)
	require.Zero(decoded.Total.Cmp(big.NewInt(100)))
	require.Equal(ErrStateDeserialization, errors.Cause(Deserialize(&decoded, b[1:])))

	b, err = Serialize(raw("abc"))
	require.NoError(err)
	require.Equal([]byte("abc"), b)
	var r raw
	require.NoError(Deserialize(&r, b))
	require.Equal(raw("abc"), r)

	_, err = Serialize(make(chan int))
	require.Equal(ErrStateSerialization, errors.Cause(err))
}
