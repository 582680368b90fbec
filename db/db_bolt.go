// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package db

import (
	"context"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/iotexproject/iotex-btp/db/batch"
	"github.com/iotexproject/iotex-btp/pkg/lifecycle"
)

const fileMode = 0600

// BoltDB is the KVStore on a bolt file, one bucket per namespace
type BoltDB struct {
	lifecycle.Readiness
	db     *bolt.DB
	config Config
}

// NewBoltDB instantiates a BoltDB at cfg.DbPath
func NewBoltDB(cfg Config) *BoltDB {
	return &BoltDB{config: cfg}
}

// Start opens the bolt file, creating it if missing
func (b *BoltDB) Start(_ context.Context) error {
	opts := *bolt.DefaultOptions
	opts.ReadOnly = b.config.ReadOnly
	db, err := bolt.Open(b.config.DbPath, fileMode, &opts)
	if err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	b.db = db
	return b.TurnOn()
}

// Stop closes the bolt file
func (b *BoltDB) Stop(_ context.Context) error {
	if err := b.TurnOff(); err != nil {
		return err
	}
	if err := b.db.Close(); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	return nil
}

// Put inserts a <key, value> record
func (b *BoltDB) Put(ns string, key, value []byte) error {
	return b.update(func(tx *bolt.Tx) error {
		return put(tx, ns, key, value)
	})
}

// Get retrieves a record
func (b *BoltDB) Get(ns string, key []byte) ([]byte, error) {
	if !b.IsReady() {
		return nil, ErrDBNotStarted
	}
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(ns))
		if bucket == nil {
			return errors.Wrapf(ErrNotExist, "namespace = %s doesn't exist", ns)
		}
		v := bucket.Get(key)
		if v == nil {
			return errors.Wrapf(ErrNotExist, "key = %x doesn't exist", key)
		}
		// v is only valid within the transaction
		value = append([]byte{}, v...)
		return nil
	})
	switch errors.Cause(err) {
	case nil:
		return value, nil
	case ErrNotExist:
		return nil, err
	default:
		return nil, errors.Wrap(ErrIO, err.Error())
	}
}

// Delete deletes a record
func (b *BoltDB) Delete(ns string, key []byte) error {
	return b.update(func(tx *bolt.Tx) error {
		return del(tx, ns, key)
	})
}

// WriteBatch applies the batch in one bolt transaction, the batch is cleared only if it commits
func (b *BoltDB) WriteBatch(kvsb batch.KVStoreBatch) error {
	kvsb.Lock()
	err := b.update(func(tx *bolt.Tx) error {
		for i := 0; i < kvsb.Size(); i++ {
			write, err := kvsb.Entry(i)
			if err != nil {
				return err
			}
			switch write.WriteType() {
			case batch.Put:
				err = put(tx, write.Namespace(), write.Key(), write.Value())
			case batch.Delete:
				err = del(tx, write.Namespace(), write.Key())
			}
			if err != nil {
				return errors.Wrap(err, write.Error())
			}
		}
		return nil
	})
	if err != nil {
		kvsb.Unlock()
		return err
	}
	kvsb.ClearAndUnlock()
	return nil
}

// update runs fn in a read-write transaction, retrying up to NumRetries times
func (b *BoltDB) update(fn func(*bolt.Tx) error) error {
	if !b.IsReady() {
		return ErrDBNotStarted
	}
	retries := int(b.config.NumRetries)
	if retries == 0 {
		retries = 1
	}
	var err error
	for i := 0; i < retries; i++ {
		if err = b.db.Update(fn); err == nil {
			return nil
		}
	}
	return errors.Wrap(ErrIO, err.Error())
}

func put(tx *bolt.Tx, ns string, key, value []byte) error {
	bucket, err := tx.CreateBucketIfNotExists([]byte(ns))
	if err != nil {
		return err
	}
	return bucket.Put(key, value)
}

func del(tx *bolt.Tx, ns string, key []byte) error {
	bucket := tx.Bucket([]byte(ns))
	if bucket == nil {
		return nil
	}
	return bucket.Delete(key)
}
