// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package batch

import "github.com/pkg/errors"

type (
	// CachedBatch is a KVStoreBatch which serves reads of the pending entries and can be reverted to a snapshot
	CachedBatch interface {
		KVStoreBatch
		// Get returns the pending value of (namespace, key), ErrAlreadyDeleted if a removal is pending and
		// ErrNotExist if nothing is pending
		Get(string, []byte) ([]byte, error)
		// Snapshot marks the current entries and returns the snapshot number
		Snapshot() int
		// Revert drops the entries staged after the snapshot, and the snapshots taken after it
		Revert(int) error
	}

	cacheKey struct {
		ns  string
		key string
	}

	// cachedBatch indexes the latest entry of every key, a snapshot is the size of the queue when taken
	cachedBatch struct {
		kvBatch
		latest    map[cacheKey]int
		snapshots []int
	}
)

// NewCachedBatch returns an empty cached batch
func NewCachedBatch() CachedBatch {
	return &cachedBatch{
		latest: make(map[cacheKey]int),
	}
}

func (cb *cachedBatch) ClearAndUnlock() {
	cb.reset()
	cb.mu.Unlock()
}

func (cb *cachedBatch) Put(ns string, key, value []byte, errorFormat string, errorArgs ...interface{}) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.append(Put, ns, key, value, errorFormat, errorArgs)
	cb.latest[cacheKey{ns, string(key)}] = len(cb.queue) - 1
}

func (cb *cachedBatch) Delete(ns string, key []byte, errorFormat string, errorArgs ...interface{}) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.append(Delete, ns, key, nil, errorFormat, errorArgs)
	cb.latest[cacheKey{ns, string(key)}] = len(cb.queue) - 1
}

func (cb *cachedBatch) Clear() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.reset()
}

func (cb *cachedBatch) Get(ns string, key []byte) ([]byte, error) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	i, ok := cb.latest[cacheKey{ns, string(key)}]
	if !ok {
		return nil, ErrNotExist
	}
	if cb.queue[i].writeType == Delete {
		return nil, ErrAlreadyDeleted
	}
	return cb.queue[i].value, nil
}

func (cb *cachedBatch) Snapshot() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.snapshots = append(cb.snapshots, len(cb.queue))
	return len(cb.snapshots) - 1
}

func (cb *cachedBatch) Revert(snapshot int) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if snapshot < 0 || snapshot >= len(cb.snapshots) {
		return errors.Wrapf(ErrInvalidSnapshot, "snapshot number = %d", snapshot)
	}
	cb.queue = cb.queue[:cb.snapshots[snapshot]]
	cb.snapshots = cb.snapshots[:snapshot+1]
	cb.latest = make(map[cacheKey]int, len(cb.queue))
	for i, wi := range cb.queue {
		cb.latest[cacheKey{wi.namespace, string(wi.key)}] = i
	}
	return nil
}

func (cb *cachedBatch) reset() {
	cb.queue = nil
	cb.latest = make(map[cacheKey]int)
	cb.snapshots = nil
}
