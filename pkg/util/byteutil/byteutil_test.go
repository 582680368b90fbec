// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package byteutil

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestUint32(t *testing.T) {
	input := uint32(31415926)
	expected := []byte{0x1, 0xdf, 0x5e, 0x76}
	require.Equal(t, expected, Uint32ToBytesBigEndian(input))
	require.Equal(t, input, BytesToUint32BigEndian(expected))
}

func TestUint64(t *testing.T) {
	input := uint64(1844674407370955161)
	expected := []byte{0x19, 0x99, 0x99, 0x99, 0x99, 0x99, 0x99, 0x99}
	require.Equal(t, expected, Uint64ToBytesBigEndian(input))
	require.Equal(t, input, BytesToUint64BigEndian(expected))
}

func TestMust(t *testing.T) {
	require.Equal(t, []byte{1}, Must([]byte{1}, nil))
	require.Panics(t, func() { Must(nil, errors.New("fail")) })
}

func TestConcat(t *testing.T) {
	require.Equal(t, []byte("abc"), Concat([]byte("a"), nil, []byte("bc")))
	require.Empty(t, Concat())
}
