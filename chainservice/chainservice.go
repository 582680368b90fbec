// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package chainservice

import (
	"context"
	"math/big"

	"github.com/facebookgo/clock"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-btp/action"
	"github.com/iotexproject/iotex-btp/action/protocol"
	"github.com/iotexproject/iotex-btp/action/protocol/bmc"
	"github.com/iotexproject/iotex-btp/action/protocol/bmv/bridge"
	"github.com/iotexproject/iotex-btp/action/protocol/xcall"
	"github.com/iotexproject/iotex-btp/action/protocol/xcall/dapp"
	"github.com/iotexproject/iotex-btp/config"
	"github.com/iotexproject/iotex-btp/db"
	"github.com/iotexproject/iotex-btp/pkg/lifecycle"
	"github.com/iotexproject/iotex-btp/pkg/log"
	"github.com/iotexproject/iotex-btp/state/factory"
)

// ChainService is a BTP host with all protocols deployed
type ChainService struct {
	lifecycle lifecycle.Lifecycle
	owner     address.Address
	factory   factory.Factory
	registry  *protocol.Registry
	bmc       *bmc.Protocol
	verifiers map[string]*bridge.Protocol
	xcall     *xcall.Protocol
	admin     address.Address
	fees      []config.XCallFees
	dapp      *dapp.Protocol
}

type optionParams struct {
	isTesting bool
	clk       clock.Clock
}

// Option sets ChainService construction parameter.
type Option func(ops *optionParams) error

// WithTesting is an option to create a testing ChainService, which keeps its state in memory.
func WithTesting() Option {
	return func(ops *optionParams) error {
		ops.isTesting = true
		return nil
	}
}

// WithClock is an option to set the clock stamping the blocks of the host.
func WithClock(clk clock.Clock) Option {
	return func(ops *optionParams) error {
		ops.clk = clk
		return nil
	}
}

// New creates a ChainService from config
func New(cfg config.Config, opts ...Option) (*ChainService, error) {
	var ops optionParams
	for _, opt := range opts {
		if err := opt(&ops); err != nil {
			return nil, err
		}
	}
	owner, err := cfg.OwnerAddress()
	if err != nil {
		return nil, errors.Wrapf(err, "invalid bmc owner %s", cfg.BMC.Owner)
	}
	cs := &ChainService{
		owner:     owner,
		registry:  protocol.NewRegistry(),
		verifiers: make(map[string]*bridge.Protocol),
	}
	if cs.bmc, err = bmc.NewProtocol(cfg.Chain.Network, owner); err != nil {
		return nil, err
	}
	if err := cs.registry.Register(cs.bmc); err != nil {
		return nil, err
	}
	for _, v := range cfg.Verifiers {
		bmv, err := bridge.NewProtocol(cs.bmc.Address(), v.Net, v.Offset)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create verifier of %s", v.Net)
		}
		if err := cs.registry.Register(bmv); err != nil {
			return nil, err
		}
		cs.verifiers[v.Net] = bmv
	}
	if cfg.XCall.Enabled {
		admin, err := cfg.AdminAddress()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid xcall admin %s", cfg.XCall.Admin)
		}
		if cs.xcall, err = xcall.NewProtocol(cs.bmc.Address(), admin); err != nil {
			return nil, err
		}
		cs.admin, cs.fees = admin, cfg.XCall.Fees
		if err := cs.registry.Register(cs.xcall); err != nil {
			return nil, err
		}
		if cfg.XCall.DApp {
			if cs.dapp, err = dapp.NewProtocol(cs.xcall.Address()); err != nil {
				return nil, err
			}
			if err := cs.registry.Register(cs.dapp); err != nil {
				return nil, err
			}
		}
	}

	// create state factory
	dbCfg := cfg.DB
	if ops.isTesting {
		dbCfg.DBType = db.DBMemory
	}
	kv, err := db.CreateKVStore(dbCfg, dbCfg.DbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create kv store")
	}
	factoryOpts := []factory.Option{factory.RegistryOption(cs.registry)}
	if ops.clk != nil {
		factoryOpts = append(factoryOpts, factory.ClockOption(ops.clk))
	}
	if cs.factory, err = factory.NewFactory(kv, factoryOpts...); err != nil {
		return nil, errors.Wrap(err, "failed to create state factory")
	}
	cs.lifecycle.Add(cs.factory)
	log.L().Info("BTP host created.",
		zap.String("network", cfg.Chain.Network),
		zap.String("bmc", cs.bmc.BTPAddress().String()),
		zap.Int("verifiers", len(cs.verifiers)),
		zap.Bool("xcall", cs.xcall != nil))
	return cs, nil
}

// Start starts the host
func (cs *ChainService) Start(ctx context.Context) error {
	return cs.lifecycle.OnStart(ctx)
}

// Stop stops the host
func (cs *ChainService) Stop(ctx context.Context) error {
	return cs.lifecycle.OnStop(ctx)
}

// StateFactory returns the state factory of the host
func (cs *ChainService) StateFactory() factory.Factory { return cs.factory }

// Registry returns the protocols deployed
func (cs *ChainService) Registry() *protocol.Registry { return cs.registry }

// BMC returns the message center
func (cs *ChainService) BMC() *bmc.Protocol { return cs.bmc }

// Verifier returns the verifier of network net
func (cs *ChainService) Verifier(net string) (*bridge.Protocol, bool) {
	v, ok := cs.verifiers[net]
	return v, ok
}

// XCall returns the call service, nil if it is not deployed
func (cs *ChainService) XCall() *xcall.Protocol { return cs.xcall }

// DApp returns the sample dapp, nil if it is not deployed
func (cs *ChainService) DApp() *dapp.Protocol { return cs.dapp }

// Bootstrap registers the verifiers and the call service deployed with the message center, on behalf of its
// first owner. Entries registered already are skipped. The configured fees are set by the first admin of the
// call service when it gets registered
func (cs *ChainService) Bootstrap(ctx context.Context) error {
	ws, err := cs.factory.NewWorkingSet()
	if err != nil {
		return err
	}
	verifiers, err := cs.bmc.Verifiers(ws)
	if err != nil {
		return err
	}
	services, err := cs.bmc.Services(ws)
	if err != nil {
		return err
	}
	call := action.Call{To: cs.bmc.Address().String()}
	var elps []*action.Envelope
	for net, v := range cs.verifiers {
		if _, ok := verifiers[net]; !ok {
			elps = append(elps, action.NewEnvelope(cs.owner, nil, &bmc.AddVerifier{Call: call, Net: net, Addr: v.Address()}))
		}
	}
	if cs.xcall != nil {
		if _, ok := services[xcall.ServiceName]; !ok {
			elps = append(elps, action.NewEnvelope(cs.owner, nil, &bmc.AddService{Call: call, Name: xcall.ServiceName, Addr: cs.xcall.Address()}))
			for _, f := range cs.fees {
				elps = append(elps, action.NewEnvelope(cs.admin, nil, &xcall.SetFixedFees{
					Call:     action.Call{To: cs.xcall.Address().String()},
					Net:      f.Net,
					Relay:    new(big.Int).SetUint64(f.Relay),
					Protocol: new(big.Int).SetUint64(f.Protocol),
				}))
			}
		}
	}
	for _, elp := range elps {
		if _, err := cs.factory.RunAction(ctx, elp); err != nil {
			return errors.Wrapf(err, "failed to bootstrap %T", elp.Action())
		}
	}
	log.L().Info("BTP host bootstrapped.", zap.Int("actions", len(elps)))
	return nil
}
