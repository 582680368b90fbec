// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package db

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-btp/db/batch"
	"github.com/iotexproject/iotex-btp/pkg/lifecycle"
)

var (
	// ErrNotExist indicates the namespace or key does not exist
	ErrNotExist = errors.New("not exist in DB")
	// ErrIO indicates the generic error of DB I/O operation
	ErrIO = errors.New("DB I/O operation error")
	// ErrInvalid indicates an invalid input
	ErrInvalid = errors.New("invalid input")
	// ErrDBNotStarted indicates the db has not been started
	ErrDBNotStarted = errors.New("db has not been started")
)

// KVStore is the interface of KV store.
type KVStore interface {
	lifecycle.StartStopper

	// Put insert or update a record identified by (namespace, key)
	Put(string, []byte, []byte) error
	// Get gets a record by (namespace, key)
	Get(string, []byte) ([]byte, error)
	// Delete deletes a record by (namespace, key)
	Delete(string, []byte) error
	// WriteBatch commits a batch
	WriteBatch(batch.KVStoreBatch) error
}

// memKVStore keeps namespaces in memory, nothing survives the process
type memKVStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemKVStore instantiates an in-memory KV store
func NewMemKVStore() KVStore {
	return &memKVStore{
		data: make(map[string]map[string][]byte),
	}
}

func (m *memKVStore) Start(_ context.Context) error { return nil }

func (m *memKVStore) Stop(_ context.Context) error { return nil }

func (m *memKVStore) Put(ns string, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(ns, key, value)
	return nil
}

func (m *memKVStore) Get(ns string, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bucket, ok := m.data[ns]
	if !ok {
		return nil, errors.Wrapf(ErrNotExist, "namespace = %s doesn't exist", ns)
	}
	v, ok := bucket[string(key)]
	if !ok {
		return nil, errors.Wrapf(ErrNotExist, "key = %x doesn't exist", key)
	}
	return append([]byte{}, v...), nil
}

func (m *memKVStore) Delete(ns string, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[ns], string(key))
	return nil
}

// WriteBatch applies the whole batch under one lock, so readers never observe part of it
func (m *memKVStore) WriteBatch(b batch.KVStoreBatch) error {
	b.Lock()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < b.Size(); i++ {
		write, err := b.Entry(i)
		if err != nil {
			b.Unlock()
			return err
		}
		switch write.WriteType() {
		case batch.Put:
			m.put(write.Namespace(), write.Key(), write.Value())
		case batch.Delete:
			delete(m.data[write.Namespace()], string(write.Key()))
		}
	}
	b.ClearAndUnlock()
	return nil
}

func (m *memKVStore) put(ns string, key, value []byte) {
	bucket, ok := m.data[ns]
	if !ok {
		bucket = make(map[string][]byte)
		m.data[ns] = bucket
	}
	bucket[string(key)] = append([]byte{}, value...)
}
