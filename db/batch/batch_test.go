// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package batch

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var (
	bucket1 = "test_ns1"
	testK1  = [3][]byte{[]byte("key_1"), []byte("key_2"), []byte("key_3")}
	testV1  = [3][]byte{[]byte("value_1"), []byte("value_2"), []byte("value_3")}
	testK2  = [3][]byte{[]byte("key_4"), []byte("key_5"), []byte("key_6")}
	testV2  = [3][]byte{[]byte("value_4"), []byte("value_5"), []byte("value_6")}
)

func TestBatch(t *testing.T) {
	require := require.New(t)

	b := NewBatch()
	b.Put(bucket1, testK1[0], testV1[0], "failed to put %x", testK1[0])
	b.Delete(bucket1, testK1[1], "")
	require.Equal(2, b.Size())

	w, err := b.Entry(0)
	require.NoError(err)
	require.Equal(Put, w.WriteType())
	require.Equal(bucket1, w.Namespace())
	require.Equal(testK1[0], w.Key())
	require.Equal(testV1[0], w.Value())

	w, err = b.Entry(1)
	require.NoError(err)
	require.Equal(Delete, w.WriteType())
	require.Nil(w.Value())

	_, err = b.Entry(2)
	require.Equal(ErrOutOfBound, errors.Cause(err))

	require.Equal("failed to write ns = test_ns1 key = 6b65795f32", w.Error())
	w, err = b.Entry(0)
	require.NoError(err)
	require.Equal("failed to put 6b65795f31", w.Error())

	b.Clear()
	require.Zero(b.Size())
	b.Put(bucket1, testK1[0], testV1[0], "")

	b.Lock()
	b.ClearAndUnlock()
	require.Zero(b.Size())
}

func TestCachedBatch(t *testing.T) {
	require := require.New(t)

	cb := NewCachedBatch()
	cb.Put(bucket1, testK1[0], testV1[0], "")
	v, err := cb.Get(bucket1, testK1[0])
	require.NoError(err)
	require.Equal(testV1[0], v)
	v, err = cb.Get(bucket1, testK2[0])
	require.Equal(ErrNotExist, err)
	require.Nil(v)

	cb.Delete(bucket1, testK2[0], "")
	cb.Delete(bucket1, testK1[0], "")
	_, err = cb.Get(bucket1, testK1[0])
	require.Equal(ErrAlreadyDeleted, errors.Cause(err))
	require.Equal(3, cb.Size())

	w, err := cb.Entry(2)
	require.NoError(err)
	require.Equal(bucket1, w.Namespace())
	require.Equal(testK1[0], w.Key())
	require.Equal(Delete, w.WriteType())

	// staged values are copies
	value := []byte("value")
	cb.Put(bucket1, testK2[1], value, "")
	value[0] = 'V'
	v, err = cb.Get(bucket1, testK2[1])
	require.NoError(err)
	require.Equal([]byte("value"), v)
}

func TestSnapshot(t *testing.T) {
	require := require.New(t)

	cb := NewCachedBatch()
	cb.Put(bucket1, testK1[0], testV1[0], "")
	cb.Put(bucket1, testK1[1], testV1[1], "")
	s0 := cb.Snapshot()
	require.Equal(0, s0)
	require.Equal(2, cb.Size())

	cb.Put(bucket1, testK2[0], testV2[0], "")
	cb.Put(bucket1, testK1[0], testV1[2], "")
	s1 := cb.Snapshot()
	require.Equal(1, s1)
	require.Equal(4, cb.Size())

	cb.Delete(bucket1, testK1[1], "")
	s2 := cb.Snapshot()
	require.Equal(2, s2)

	require.NoError(cb.Revert(s1))
	v, err := cb.Get(bucket1, testK1[1])
	require.NoError(err)
	require.Equal(testV1[1], v)
	require.Equal(4, cb.Size())
	// later snapshots are discarded
	require.Equal(ErrInvalidSnapshot, errors.Cause(cb.Revert(s2)))

	require.NoError(cb.Revert(s0))
	v, err = cb.Get(bucket1, testK1[0])
	require.NoError(err)
	require.Equal(testV1[0], v)
	_, err = cb.Get(bucket1, testK2[0])
	require.Equal(ErrNotExist, err)
	require.Equal(2, cb.Size())

	// snapshot numbering resumes after the reverted one
	require.Equal(1, cb.Snapshot())

	cb.Clear()
	require.Zero(cb.Size())
	require.Equal(ErrInvalidSnapshot, errors.Cause(cb.Revert(s0)))
}
