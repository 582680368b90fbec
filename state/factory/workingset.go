// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package factory

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iotexproject/iotex-btp/action"
	"github.com/iotexproject/iotex-btp/action/protocol"
	"github.com/iotexproject/iotex-btp/db"
	"github.com/iotexproject/iotex-btp/db/batch"
	"github.com/iotexproject/iotex-btp/pkg/util/byteutil"
	"github.com/iotexproject/iotex-btp/state"
)

var (
	stateDBMtc = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iotex_btp_state_db",
			Help: "BTP host state DB",
		},
		[]string{"type"},
	)
	dbBatchSizelMtc = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "iotex_btp_db_batch_size",
			Help: "DB batch size",
		},
		[]string{},
	)
)

func init() {
	prometheus.MustRegister(stateDBMtc)
	prometheus.MustRegister(dbBatchSizelMtc)
}

type (
	// WorkingSet defines an interface for working set of states changes
	WorkingSet interface {
		protocol.StateManager
		// Logs returns the logs emitted so far
		Logs() []*action.Log
	}

	// workingSet implements WorkingSet interface, tracks pending changes to protocol states in local cache
	workingSet struct {
		height    uint64
		cb        batch.CachedBatch // cached batch for pending writes
		dao       db.KVStore        // the underlying DB for protocol storage
		logs      []*action.Log
		logMarker map[int]int // number of logs at time of snapshot
	}
)

func newWorkingSet(height uint64, kv db.KVStore) *workingSet {
	return &workingSet{
		height:    height,
		cb:        batch.NewCachedBatch(),
		dao:       kv,
		logMarker: make(map[int]int),
	}
}

// Height returns the Height of the block being worked on
func (ws *workingSet) Height() (uint64, error) {
	return ws.height, nil
}

// Snapshot takes a snapshot of the pending state changes and logs
func (ws *workingSet) Snapshot() int {
	s := ws.cb.Snapshot()
	ws.logMarker[s] = len(ws.logs)
	return s
}

// Revert discards the state changes and logs made after the snapshot
func (ws *workingSet) Revert(snapshot int) error {
	if err := ws.cb.Revert(snapshot); err != nil {
		return err
	}
	n, ok := ws.logMarker[snapshot]
	if !ok {
		return errors.Errorf("failed to get log marker for snapshot = %d", snapshot)
	}
	ws.logs = ws.logs[:n]
	return nil
}

// State pulls a state from DB
func (ws *workingSet) State(s interface{}, opts ...protocol.StateOption) (uint64, error) {
	stateDBMtc.WithLabelValues("get").Inc()
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return ws.height, err
	}
	data, err := ws.cb.Get(cfg.Namespace, cfg.Key)
	switch errors.Cause(err) {
	case nil:
	case batch.ErrAlreadyDeleted:
		return ws.height, errors.Wrapf(state.ErrStateNotExist, "ns = %s key = %x", cfg.Namespace, cfg.Key)
	case batch.ErrNotExist:
		data, err = ws.dao.Get(cfg.Namespace, cfg.Key)
		if errors.Cause(err) == db.ErrNotExist {
			return ws.height, errors.Wrapf(state.ErrStateNotExist, "ns = %s key = %x", cfg.Namespace, cfg.Key)
		}
		if err != nil {
			return ws.height, errors.Wrapf(err, "failed to get state of ns = %s key = %x", cfg.Namespace, cfg.Key)
		}
	default:
		return ws.height, err
	}
	return ws.height, state.Deserialize(s, data)
}

// PutState puts a state into DB
func (ws *workingSet) PutState(s interface{}, opts ...protocol.StateOption) (uint64, error) {
	stateDBMtc.WithLabelValues("put").Inc()
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return ws.height, err
	}
	data, err := state.Serialize(s)
	if err != nil {
		return ws.height, errors.Wrapf(err, "failed to convert state %v to bytes", s)
	}
	ws.cb.Put(cfg.Namespace, cfg.Key, data, "failed to put state of ns = %s key = %x", cfg.Namespace, cfg.Key)
	return ws.height, nil
}

// DelState deletes a state from DB
func (ws *workingSet) DelState(opts ...protocol.StateOption) (uint64, error) {
	stateDBMtc.WithLabelValues("delete").Inc()
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return ws.height, err
	}
	ws.cb.Delete(cfg.Namespace, cfg.Key, "failed to delete state of ns = %s key = %x", cfg.Namespace, cfg.Key)
	return ws.height, nil
}

// AddLogs records logs emitted by the running action
func (ws *workingSet) AddLogs(logs ...*action.Log) {
	for _, l := range logs {
		l.BlockHeight = ws.height
	}
	ws.logs = append(ws.logs, logs...)
}

// Logs returns the logs emitted so far
func (ws *workingSet) Logs() []*action.Log {
	return ws.logs
}

// commit persists all pending changes into the DB
func (ws *workingSet) commit() error {
	ws.cb.Put(AccountKVNamespace, []byte(CurrentHeightKey), byteutil.Uint64ToBytesBigEndian(ws.height), "failed to store current height")
	dbBatchSizelMtc.WithLabelValues().Set(float64(ws.cb.Size()))
	if err := ws.dao.WriteBatch(ws.cb); err != nil {
		return errors.Wrap(err, "failed to commit all changes to underlying DB in a batch")
	}
	ws.logs = nil
	ws.logMarker = make(map[int]int)
	return nil
}
