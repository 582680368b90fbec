// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package db

import (
	"context"
	"syscall"

	"github.com/cockroachdb/pebble"
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-btp/db/batch"
	"github.com/iotexproject/iotex-btp/pkg/lifecycle"
	"github.com/iotexproject/iotex-btp/pkg/log"
)

// namespaces share one keyspace, each key is prefixed by the hash of its namespace
const prefixLength = 8

// PebbleDB is the KVStore on a pebble directory
type PebbleDB struct {
	lifecycle.Readiness
	db     *pebble.DB
	config Config
}

// NewPebbleDB instantiates a PebbleDB at cfg.DbPath
func NewPebbleDB(cfg Config) *PebbleDB {
	return &PebbleDB{config: cfg}
}

// Start opens the pebble directory, creating it if missing
func (p *PebbleDB) Start(_ context.Context) error {
	comparer := *pebble.DefaultComparer
	comparer.Split = func(k []byte) int {
		return prefixLength
	}
	db, err := pebble.Open(p.config.DbPath, &pebble.Options{
		Comparer:           &comparer,
		FormatMajorVersion: pebble.FormatPrePebblev1MarkedCompacted,
		ReadOnly:           p.config.ReadOnly,
	})
	if err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	p.db = db
	return p.TurnOn()
}

// Stop closes the pebble directory
func (p *PebbleDB) Stop(_ context.Context) error {
	if err := p.TurnOff(); err != nil {
		return err
	}
	if err := p.db.Close(); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	return nil
}

// Get retrieves a record
func (p *PebbleDB) Get(ns string, key []byte) ([]byte, error) {
	if !p.IsReady() {
		return nil, ErrDBNotStarted
	}
	v, closer, err := p.db.Get(nsKey(ns, key))
	switch {
	case errors.Is(err, pebble.ErrNotFound):
		return nil, errors.Wrapf(ErrNotExist, "ns = %s key = %x doesn't exist", ns, key)
	case err != nil:
		return nil, errors.Wrap(ErrIO, err.Error())
	}
	value := append([]byte{}, v...)
	return value, closer.Close()
}

// Put inserts a <key, value> record
func (p *PebbleDB) Put(ns string, key, value []byte) error {
	if !p.IsReady() {
		return ErrDBNotStarted
	}
	return p.writeErr("put", p.db.Set(nsKey(ns, key), value, pebble.Sync))
}

// Delete deletes a record
func (p *PebbleDB) Delete(ns string, key []byte) error {
	if !p.IsReady() {
		return ErrDBNotStarted
	}
	if key == nil {
		return errors.Wrap(ErrInvalid, "deleting a whole namespace is not supported")
	}
	return p.writeErr("delete", p.db.Delete(nsKey(ns, key), pebble.Sync))
}

// WriteBatch applies the batch atomically, the batch is cleared only if it commits
func (p *PebbleDB) WriteBatch(kvsb batch.KVStoreBatch) error {
	if !p.IsReady() {
		return ErrDBNotStarted
	}
	kvsb.Lock()
	pb := p.db.NewBatch()
	defer pb.Close()
	for i := 0; i < kvsb.Size(); i++ {
		write, err := kvsb.Entry(i)
		if err != nil {
			kvsb.Unlock()
			return err
		}
		// later entries of a key override earlier ones within a pebble batch
		switch write.WriteType() {
		case batch.Put:
			err = pb.Set(nsKey(write.Namespace(), write.Key()), write.Value(), nil)
		case batch.Delete:
			err = pb.Delete(nsKey(write.Namespace(), write.Key()), nil)
		}
		if err != nil {
			kvsb.Unlock()
			return errors.Wrap(err, write.Error())
		}
	}
	if err := p.writeErr("write batch", pb.Commit(pebble.Sync)); err != nil {
		kvsb.Unlock()
		return err
	}
	kvsb.ClearAndUnlock()
	return nil
}

func (p *PebbleDB) writeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, syscall.ENOSPC) {
		log.L().Fatal("Out of disk space.", zap.String("op", op), zap.Error(err))
	}
	return errors.Wrapf(ErrIO, "failed to %s: %v", op, err)
}

func nsKey(ns string, key []byte) []byte {
	h := hash.Hash160b([]byte(ns))
	k := make([]byte, prefixLength, prefixLength+len(key))
	copy(k, h[:prefixLength])
	return append(k, key...)
}
