// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package factory

import (
	"context"
	"sync"

	"github.com/facebookgo/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-btp/action"
	"github.com/iotexproject/iotex-btp/action/protocol"
	"github.com/iotexproject/iotex-btp/db"
	"github.com/iotexproject/iotex-btp/pkg/lifecycle"
	"github.com/iotexproject/iotex-btp/pkg/log"
	"github.com/iotexproject/iotex-btp/pkg/util/byteutil"
)

const (
	// AccountKVNamespace is the namespace of the host's own bookkeeping
	AccountKVNamespace = "Account"
	// CurrentHeightKey indicates the key of current factory height in underlying DB
	CurrentHeightKey = "currentHeight"
)

var (
	// ErrUnknownProtocol is the error that no protocol is deployed at the address an action is sent to
	ErrUnknownProtocol = errors.New("unknown protocol")
)

type (
	// Factory runs actions one at a time, each action commits all of its state changes or none of them
	Factory interface {
		lifecycle.StartStopper
		// Height returns the number of actions committed
		Height() (uint64, error)
		// Registry returns the protocols deployed
		Registry() *protocol.Registry
		// NewWorkingSet creates a working set for the next height
		NewWorkingSet() (WorkingSet, error)
		// Commit persists the working set
		Commit(WorkingSet) error
		// RunAction runs the action in a new working set and commits it if no error is returned
		RunAction(context.Context, *action.Envelope) (*action.Receipt, error)
		// Context returns ctx carrying the registry and the context of the next block
		Context(context.Context) context.Context
	}

	// factory implements Factory interface, tracks changes to protocol states and batch-commits to DB
	factory struct {
		lifecycle          lifecycle.Lifecycle
		mutex              sync.RWMutex
		currentChainHeight uint64
		dao                db.KVStore
		registry           *protocol.Registry
		clk                clock.Clock
	}
)

// Option sets Factory construction parameter
type Option func(*factory) error

// RegistryOption sets the protocols deployed
func RegistryOption(reg *protocol.Registry) Option {
	return func(sf *factory) error {
		if reg == nil {
			return errors.New("invalid empty registry")
		}
		sf.registry = reg
		return nil
	}
}

// ClockOption sets the clock stamping blocks
func ClockOption(clk clock.Clock) Option {
	return func(sf *factory) error {
		sf.clk = clk
		return nil
	}
}

// NewFactory creates a new state factory on top of kv
func NewFactory(kv db.KVStore, opts ...Option) (Factory, error) {
	if kv == nil {
		return nil, errors.New("invalid empty kv store")
	}
	sf := &factory{
		dao:      kv,
		registry: protocol.NewRegistry(),
		clk:      clock.New(),
	}
	for _, opt := range opts {
		if err := opt(sf); err != nil {
			log.S().Errorf("Failed to execute state factory creation option %p: %v", opt, err)
			return nil, err
		}
	}
	sf.lifecycle.Add(sf.dao)
	return sf, nil
}

func (sf *factory) Start(ctx context.Context) error {
	if err := sf.lifecycle.OnStart(ctx); err != nil {
		return err
	}
	h, err := sf.dao.Get(AccountKVNamespace, []byte(CurrentHeightKey))
	switch errors.Cause(err) {
	case nil:
		sf.currentChainHeight = byteutil.BytesToUint64BigEndian(h)
	case db.ErrNotExist:
		sf.currentChainHeight = 0
	default:
		return errors.Wrap(err, "failed to get factory's height from underlying DB")
	}
	return nil
}

func (sf *factory) Stop(ctx context.Context) error {
	return sf.lifecycle.OnStop(ctx)
}

func (sf *factory) Height() (uint64, error) {
	sf.mutex.RLock()
	defer sf.mutex.RUnlock()
	return sf.currentChainHeight, nil
}

func (sf *factory) Registry() *protocol.Registry {
	return sf.registry
}

func (sf *factory) NewWorkingSet() (WorkingSet, error) {
	sf.mutex.RLock()
	defer sf.mutex.RUnlock()
	return newWorkingSet(sf.currentChainHeight+1, sf.dao), nil
}

func (sf *factory) Commit(ws WorkingSet) error {
	sf.mutex.Lock()
	defer sf.mutex.Unlock()
	return sf.commit(ws)
}

func (sf *factory) commit(ws WorkingSet) error {
	w, ok := ws.(*workingSet)
	if !ok {
		return errors.Errorf("unexpected working set type %T", ws)
	}
	if w.height != sf.currentChainHeight+1 {
		return errors.Errorf("working set of height %d is stale, current height is %d", w.height, sf.currentChainHeight)
	}
	if err := w.commit(); err != nil {
		return err
	}
	sf.currentChainHeight = w.height
	return nil
}

func (sf *factory) Context(ctx context.Context) context.Context {
	sf.mutex.RLock()
	height := sf.currentChainHeight + 1
	sf.mutex.RUnlock()
	ctx = protocol.WithRegistry(ctx, sf.registry)
	return protocol.WithBlockCtx(ctx, protocol.BlockCtx{
		BlockHeight:    height,
		BlockTimeStamp: sf.clk.Now(),
	})
}

func (sf *factory) RunAction(ctx context.Context, elp *action.Envelope) (*action.Receipt, error) {
	sf.mutex.Lock()
	defer sf.mutex.Unlock()

	act := elp.Action()
	p, ok := sf.registry.Find(act.Contract())
	if !ok {
		return nil, errors.Wrapf(ErrUnknownProtocol, "address %s", act.Contract())
	}
	ws := newWorkingSet(sf.currentChainHeight+1, sf.dao)
	ctx = protocol.WithRegistry(ctx, sf.registry)
	ctx = protocol.WithBlockCtx(ctx, protocol.BlockCtx{
		BlockHeight:    ws.height,
		BlockTimeStamp: sf.clk.Now(),
	})
	ctx, err := protocol.EnterCall(ctx, elp.Caller(), p.Address(), elp.Value())
	if err != nil {
		return nil, err
	}
	receipt, err := p.Handle(ctx, act, ws)
	if err != nil {
		log.L().Debug("Action reverted.",
			zap.String("caller", elp.Caller().String()),
			zap.String("contract", act.Contract()),
			zap.Error(err))
		return nil, err
	}
	if receipt == nil {
		receipt = protocol.NewReceipt(ctx, p.Address(), nil)
	}
	receipt.BlockHeight = ws.height
	receipt.AddLogs(ws.Logs()...)
	if err := sf.commit(ws); err != nil {
		return nil, err
	}
	return receipt, nil
}
