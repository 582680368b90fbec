// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package xcall

import (
	"context"
	"math/big"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-btp/action/protocol"
	"github.com/iotexproject/iotex-btp/btp"
	"github.com/iotexproject/iotex-btp/state"
)

// Admin returns the admin of the call service
func (p *Protocol) Admin(sr protocol.StateReader) (address.Address, error) {
	a := adminState{}
	err := p.state(sr, _adminKey, &a)
	switch errors.Cause(err) {
	case nil:
		return address.FromString(a.Admin)
	case state.ErrStateNotExist:
		return p.admin, nil
	default:
		return nil, err
	}
}

func (p *Protocol) assertAdmin(ctx context.Context, sr protocol.StateReader) error {
	admin, err := p.Admin(sr)
	if err != nil {
		return err
	}
	caller := protocol.MustGetActionCtx(ctx).Caller
	if caller == nil || caller.String() != admin.String() {
		return errors.Wrapf(btp.ErrUnauthorized, "%s is not the admin", caller)
	}
	return nil
}

// SetAdmin hands the administration over to admin, the caller must be the current admin
func (p *Protocol) SetAdmin(ctx context.Context, sm protocol.StateManager, admin address.Address) error {
	if err := p.assertAdmin(ctx, sm); err != nil {
		return err
	}
	if admin == nil {
		return errors.Wrap(btp.ErrInvalidArgument, "nil admin")
	}
	return p.putState(sm, _adminKey, &adminState{Admin: admin.String()})
}

// SetFixedFees sets the fees of calls to network net, the empty network sets the default fees
func (p *Protocol) SetFixedFees(ctx context.Context, sm protocol.StateManager, net string, relay, protocolFee *big.Int) error {
	if err := p.assertAdmin(ctx, sm); err != nil {
		return err
	}
	if relay == nil || protocolFee == nil || relay.Sign() < 0 || protocolFee.Sign() < 0 {
		return errors.Wrapf(btp.ErrInvalidArgument, "invalid fees %s, %s", relay, protocolFee)
	}
	if net != "" {
		if err := btp.ValidateNetwork(net); err != nil {
			return err
		}
	}
	if err := p.putState(sm, feesKey(net), &Fees{Relay: relay, Protocol: protocolFee}); err != nil {
		return err
	}
	p.logger.Info("Fixed fees updated.", zap.String("net", net), zap.String("relay", relay.String()), zap.String("protocol", protocolFee.String()))
	sm.AddLogs(p.fixedFeesUpdatedLog(net, relay, protocolFee))
	return nil
}

// FixedFees returns the fees of calls to network net, falling back to the default fees
func (p *Protocol) FixedFees(sr protocol.StateReader, net string) (*Fees, error) {
	for _, key := range [][]byte{feesKey(net), feesKey("")} {
		f := Fees{}
		err := p.state(sr, key, &f)
		switch errors.Cause(err) {
		case nil:
			return f.normalize(), nil
		case state.ErrStateNotExist:
		default:
			return nil, err
		}
	}
	return (&Fees{}).normalize(), nil
}

// TotalFixedFees returns the value a call to network net must carry
func (p *Protocol) TotalFixedFees(sr protocol.StateReader, net string) (*big.Int, error) {
	f, err := p.FixedFees(sr, net)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Add(f.Relay, f.Protocol), nil
}

// AccruedFees returns the protocol fees accrued to addr and not claimed yet
func (p *Protocol) AccruedFees(sr protocol.StateReader, addr address.Address) (*big.Int, error) {
	a := amount{}
	if err := p.state(sr, accruedKey(addr.String()), &a); err != nil && errors.Cause(err) != state.ErrStateNotExist {
		return nil, err
	}
	if a.Value == nil {
		return big.NewInt(0), nil
	}
	return a.Value, nil
}

// accrue credits the protocol fee v to the current admin
func (p *Protocol) accrue(sm protocol.StateManager, v *big.Int) error {
	if v.Sign() == 0 {
		return nil
	}
	admin, err := p.Admin(sm)
	if err != nil {
		return err
	}
	accrued, err := p.AccruedFees(sm, admin)
	if err != nil {
		return err
	}
	return p.putState(sm, accruedKey(admin.String()), &amount{Value: new(big.Int).Add(accrued, v)})
}

// ClaimFees pays the caller out the protocol fees accrued to it
func (p *Protocol) ClaimFees(ctx context.Context, sm protocol.StateManager) (*big.Int, error) {
	caller := protocol.MustGetActionCtx(ctx).Caller
	accrued, err := p.AccruedFees(sm, caller)
	if err != nil {
		return nil, err
	}
	if accrued.Sign() == 0 {
		return nil, errors.Wrapf(btp.ErrNotExists, "no fees accrued to %s", caller)
	}
	if err := p.deleteState(sm, accruedKey(caller.String())); err != nil {
		return nil, err
	}
	_xcallMtc.WithLabelValues("claimed").Inc()
	return accrued, nil
}

func (f *Fees) normalize() *Fees {
	if f.Relay == nil {
		f.Relay = big.NewInt(0)
	}
	if f.Protocol == nil {
		f.Protocol = big.NewInt(0)
	}
	return f
}

func feesKey(net string) []byte {
	return []byte(_feesKeyPrefix + net)
}

func accruedKey(addr string) []byte {
	return []byte(_accruedKeyPrefix + addr)
}
