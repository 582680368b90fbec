// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package factory

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/iotex-btp/action"
	"github.com/iotexproject/iotex-btp/action/protocol"
	"github.com/iotexproject/iotex-btp/db"
	"github.com/iotexproject/iotex-btp/state"
	"github.com/iotexproject/iotex-btp/test/identityset"
)

type (
	counter struct {
		Value uint64
	}

	incr struct {
		action.Call
		Fail bool
	}

	counterProtocol struct {
		addr address.Address
	}
)

var errFail = errors.New("fail")

func (p *counterProtocol) Address() address.Address { return p.addr }

func (p *counterProtocol) Handle(ctx context.Context, act action.Action, sm protocol.StateManager) (*action.Receipt, error) {
	in, ok := act.(*incr)
	if !ok {
		return nil, protocol.ErrUnknownAction
	}
	c := counter{}
	_, err := sm.State(&c, protocol.NamespaceOption(p.addr.String()), protocol.KeyOption([]byte("counter")))
	if err != nil && errors.Cause(err) != state.ErrStateNotExist {
		return nil, err
	}
	c.Value++
	if _, err := sm.PutState(&c, protocol.NamespaceOption(p.addr.String()), protocol.KeyOption([]byte("counter"))); err != nil {
		return nil, err
	}
	sm.AddLogs(action.NewLog(p.addr.String(), "Incremented(int)", nil, [][]byte{{byte(c.Value)}}))
	if in.Fail {
		return nil, errFail
	}
	return protocol.NewReceipt(ctx, p.addr, nil), nil
}

func readCounter(t *testing.T, sf Factory, p *counterProtocol) uint64 {
	ws, err := sf.NewWorkingSet()
	require.NoError(t, err)
	c := counter{}
	_, err = ws.State(&c, protocol.NamespaceOption(p.addr.String()), protocol.KeyOption([]byte("counter")))
	if errors.Cause(err) == state.ErrStateNotExist {
		return 0
	}
	require.NoError(t, err)
	return c.Value
}

func TestFactoryRunAction(t *testing.T) {
	require := require.New(t)

	p := &counterProtocol{addr: identityset.Address(10)}
	reg := protocol.NewRegistry()
	require.NoError(reg.Register(p))
	clk := clock.NewMock()
	clk.Add(time.Hour)
	sf, err := NewFactory(db.NewMemKVStore(), RegistryOption(reg), ClockOption(clk))
	require.NoError(err)
	ctx := context.Background()
	require.NoError(sf.Start(ctx))
	defer sf.Stop(ctx)

	caller := identityset.Address(0)
	r, err := sf.RunAction(ctx, action.NewEnvelope(caller, big.NewInt(0), &incr{Call: action.Call{To: p.addr.String()}}))
	require.NoError(err)
	require.Equal(action.SuccessReceiptStatus, r.Status)
	require.Equal(uint64(1), r.BlockHeight)
	require.Len(r.Logs(), 1)
	require.Equal(uint64(1), r.Logs()[0].BlockHeight)
	require.Equal(uint64(1), readCounter(t, sf, p))

	// a failing action leaves no trace
	_, err = sf.RunAction(ctx, action.NewEnvelope(caller, nil, &incr{Call: action.Call{To: p.addr.String()}, Fail: true}))
	require.Equal(errFail, errors.Cause(err))
	require.Equal(uint64(1), readCounter(t, sf, p))
	h, err := sf.Height()
	require.NoError(err)
	require.Equal(uint64(1), h)

	_, err = sf.RunAction(ctx, action.NewEnvelope(caller, nil, &incr{Call: action.Call{To: identityset.Address(11).String()}}))
	require.Equal(ErrUnknownProtocol, errors.Cause(err))

	blkCtx := protocol.MustGetBlockCtx(sf.Context(ctx))
	require.Equal(uint64(2), blkCtx.BlockHeight)
	require.Equal(clk.Now(), blkCtx.BlockTimeStamp)
	require.Equal(reg, protocol.MustGetRegistry(sf.Context(ctx)))
}

func TestWorkingSetSnapshot(t *testing.T) {
	require := require.New(t)

	sf, err := NewFactory(db.NewMemKVStore())
	require.NoError(err)
	ctx := context.Background()
	require.NoError(sf.Start(ctx))
	defer sf.Stop(ctx)

	ws, err := sf.NewWorkingSet()
	require.NoError(err)
	ns, key := protocol.NamespaceOption("ns"), protocol.KeyOption([]byte("k"))
	_, err = ws.PutState(&counter{Value: 1}, ns, key)
	require.NoError(err)
	ws.AddLogs(action.NewLog("io1", "A()", nil, nil))

	s := ws.Snapshot()
	_, err = ws.PutState(&counter{Value: 2}, ns, key)
	require.NoError(err)
	_, err = ws.DelState(protocol.NamespaceOption("ns"), protocol.KeyOption([]byte("other")))
	require.NoError(err)
	ws.AddLogs(action.NewLog("io1", "B()", nil, nil))
	require.Len(ws.Logs(), 2)

	require.NoError(ws.Revert(s))
	require.Len(ws.Logs(), 1)
	c := counter{}
	_, err = ws.State(&c, ns, key)
	require.NoError(err)
	require.Equal(uint64(1), c.Value)

	_, err = ws.DelState(ns, key)
	require.NoError(err)
	_, err = ws.State(&c, ns, key)
	require.Equal(state.ErrStateNotExist, errors.Cause(err))

	_, err = ws.State(&c, ns)
	require.Error(err)

	require.NoError(sf.Commit(ws))
	// a working set cannot be committed twice
	require.Error(sf.Commit(ws))
}

func TestFactoryHeightPersisted(t *testing.T) {
	require := require.New(t)

	cfg := db.DefaultConfig
	cfg.DbPath = filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	sf, err := NewFactory(db.NewBoltDB(cfg))
	require.NoError(err)
	require.NoError(sf.Start(ctx))
	for i := 0; i < 3; i++ {
		ws, err := sf.NewWorkingSet()
		require.NoError(err)
		_, err = ws.PutState(&counter{Value: uint64(i)}, protocol.NamespaceOption("ns"), protocol.KeyOption([]byte("k")))
		require.NoError(err)
		require.NoError(sf.Commit(ws))
	}
	require.NoError(sf.Stop(ctx))

	sf, err = NewFactory(db.NewBoltDB(cfg))
	require.NoError(err)
	require.NoError(sf.Start(ctx))
	defer sf.Stop(ctx)
	h, err := sf.Height()
	require.NoError(err)
	require.Equal(uint64(3), h)
	ws, err := sf.NewWorkingSet()
	require.NoError(err)
	c := counter{}
	_, err = ws.State(&c, protocol.NamespaceOption("ns"), protocol.KeyOption([]byte("k")))
	require.NoError(err)
	require.Equal(uint64(2), c.Value)
}
