// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package batch

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

const (
	// Put stages a write of a value
	Put WriteType = iota
	// Delete stages a removal
	Delete
)

type (
	// WriteType is the type of a staged write
	WriteType uint8

	// WriteInfo is a staged Put or Delete
	WriteInfo struct {
		writeType   WriteType
		namespace   string
		key         []byte
		value       []byte
		errorFormat string
		errorArgs   []interface{}
	}

	// KVStoreBatch stages Put/Delete entries in order. KVStore.WriteBatch persists them and clears the
	// batch on success, a failed batch is kept intact for the caller to inspect or retry.
	KVStoreBatch interface {
		// Lock locks the batch
		Lock()
		// Unlock unlocks the batch
		Unlock()
		// ClearAndUnlock clears the entries and unlocks the batch
		ClearAndUnlock()
		// Put stages a write of value to (namespace, key)
		Put(string, []byte, []byte, string, ...interface{})
		// Delete stages a removal of (namespace, key)
		Delete(string, []byte, string, ...interface{})
		// Size returns the number of entries
		Size() int
		// Entry returns the entry at the index
		Entry(int) (*WriteInfo, error)
		// Clear clears the entries
		Clear()
	}

	// kvBatch is the plain KVStoreBatch
	kvBatch struct {
		mu    sync.RWMutex
		queue []*WriteInfo
	}
)

// NewBatch returns an empty batch
func NewBatch() KVStoreBatch {
	return &kvBatch{}
}

// WriteType returns the type of the write
func (wi *WriteInfo) WriteType() WriteType { return wi.writeType }

// Namespace returns the namespace written to
func (wi *WriteInfo) Namespace() string { return wi.namespace }

// Key returns a copy of the key
func (wi *WriteInfo) Key() []byte {
	return append([]byte{}, wi.key...)
}

// Value returns a copy of the value, nil for a Delete
func (wi *WriteInfo) Value() []byte {
	if wi.value == nil {
		return nil
	}
	return append([]byte{}, wi.value...)
}

// Error returns the message describing a failure to apply the write
func (wi *WriteInfo) Error() string {
	if wi.errorFormat == "" {
		return fmt.Sprintf("failed to write ns = %s key = %x", wi.namespace, wi.key)
	}
	return fmt.Sprintf(wi.errorFormat, wi.errorArgs...)
}

func (b *kvBatch) Lock() { b.mu.Lock() }

func (b *kvBatch) Unlock() { b.mu.Unlock() }

func (b *kvBatch) ClearAndUnlock() {
	b.queue = nil
	b.mu.Unlock()
}

func (b *kvBatch) Put(ns string, key, value []byte, errorFormat string, errorArgs ...interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.append(Put, ns, key, value, errorFormat, errorArgs)
}

func (b *kvBatch) Delete(ns string, key []byte, errorFormat string, errorArgs ...interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.append(Delete, ns, key, nil, errorFormat, errorArgs)
}

// Size is not locked, callers holding Lock() iterate the entries with Size and Entry
func (b *kvBatch) Size() int { return len(b.queue) }

func (b *kvBatch) Entry(i int) (*WriteInfo, error) {
	if i < 0 || i >= len(b.queue) {
		return nil, errors.Wrapf(ErrOutOfBound, "index %d of %d", i, len(b.queue))
	}
	return b.queue[i], nil
}

func (b *kvBatch) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue = nil
}

func (b *kvBatch) append(t WriteType, ns string, key, value []byte, errorFormat string, errorArgs []interface{}) *WriteInfo {
	wi := &WriteInfo{
		writeType:   t,
		namespace:   ns,
		key:         append([]byte{}, key...),
		errorFormat: errorFormat,
		errorArgs:   errorArgs,
	}
	if t == Put {
		wi.value = append([]byte{}, value...)
	}
	b.queue = append(b.queue, wi)
	return wi
}
