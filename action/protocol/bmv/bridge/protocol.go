// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package bridge

import (
	"context"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-btp/action"
	"github.com/iotexproject/iotex-btp/action/protocol"
	"github.com/iotexproject/iotex-btp/btp"
	"github.com/iotexproject/iotex-btp/codec"
	"github.com/iotexproject/iotex-btp/pkg/log"
	"github.com/iotexproject/iotex-btp/state"
)

// _protocolIDPrefix is the prefix of a bridge verifier's id, followed by the network it verifies
const _protocolIDPrefix = "bmv.bridge."

var _statusKey = []byte("status")

type (
	// HandleRelayMessage asks the verifier to verify a relay message, the caller must be the message center
	HandleRelayMessage struct {
		action.Call
		BMC  string
		Prev string
		Seq  uint64
		Msg  []byte
	}

	// status is the persisted progress of the verifier
	status struct {
		Height  uint64
		LastSeq uint64
	}

	// Protocol verifies relay messages carrying Message events of a single source network. It trusts the relayer
	// on the content of the events and only enforces ordering, destination and block progress.
	Protocol struct {
		addr   address.Address
		bmc    address.Address
		net    string
		offset uint64
		logger *zap.Logger
	}
)

// ProtocolID returns the id of the bridge verifier of network net
func ProtocolID(net string) string {
	return _protocolIDPrefix + net
}

// NewProtocol creates the bridge verifier of network net, serving the message center at bmc. offset is the
// sequence of the last message sent by the source network before the verifier is deployed
func NewProtocol(bmc address.Address, net string, offset uint64) (*Protocol, error) {
	if bmc == nil {
		return nil, errors.Wrap(btp.ErrInvalidArgument, "nil message center address")
	}
	if err := btp.ValidateNetwork(net); err != nil {
		return nil, err
	}
	addr, err := protocol.HashAddress(ProtocolID(net))
	if err != nil {
		return nil, err
	}
	return &Protocol{
		addr:   addr,
		bmc:    bmc,
		net:    net,
		offset: offset,
		logger: log.Logger("bmv").With(zap.String("net", net)),
	}, nil
}

// Address returns the address of the verifier
func (p *Protocol) Address() address.Address { return p.addr }

// Network returns the network the verifier accepts messages from
func (p *Protocol) Network() string { return p.net }

// Handle handles the actions on the verifier
func (p *Protocol) Handle(ctx context.Context, act action.Action, sm protocol.StateManager) (*action.Receipt, error) {
	switch act := act.(type) {
	case *HandleRelayMessage:
		msgs, err := p.HandleRelayMessage(ctx, sm, act.BMC, act.Prev, act.Seq, act.Msg)
		if err != nil {
			return nil, err
		}
		ret, err := codec.Marshal(msgs)
		if err != nil {
			return nil, err
		}
		return protocol.NewReceipt(ctx, p.addr, ret), nil
	}
	return nil, protocol.ErrUnknownAction
}

// HandleRelayMessage verifies the relay message and returns the BTP messages it carries
func (p *Protocol) HandleRelayMessage(
	ctx context.Context,
	sm protocol.StateManager,
	bmc string,
	prev string,
	seq uint64,
	msg []byte,
) ([][]byte, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	if actionCtx.Caller == nil || actionCtx.Caller.String() != p.bmc.String() {
		return nil, errors.Wrap(btp.ErrUnauthorized, "caller is not the message center")
	}
	prevAddr, err := btp.ParseAddress(prev)
	if err != nil {
		return nil, err
	}
	if prevAddr.Network() != p.net {
		return nil, errors.Wrapf(btp.ErrNotAcceptable, "relay from %s, expecting network %s", prev, p.net)
	}
	rm, err := DecodeRelayMessage(msg)
	if err != nil {
		return nil, err
	}
	s, err := p.status(sm)
	if err != nil {
		return nil, err
	}
	next := s.LastSeq + 1
	if seq > next {
		next = seq
	}
	var (
		msgs   [][]byte
		height = s.Height
	)
	for i, rp := range rm.Receipts {
		for _, ev := range rp.Events {
			if ev.Next != bmc {
				return nil, errors.Wrapf(btp.ErrInvalidDestination, "event to %s, expecting %s", ev.Next, bmc)
			}
			if ev.Seq != next {
				return nil, errors.Wrapf(btp.ErrInvalidSequence, "event seq %d, expecting %d", ev.Seq, next)
			}
			msgs = append(msgs, ev.Message)
			s.LastSeq = ev.Seq
			next++
		}
		if (i == 0 && rp.Height <= height) || rp.Height < height {
			return nil, errors.Wrapf(btp.ErrInvalidBlockUpdate, "proof at height %d, verified height %d", rp.Height, height)
		}
		height = rp.Height
	}
	s.Height = height
	if err := p.putStatus(sm, s); err != nil {
		return nil, err
	}
	p.logger.Debug("Verified relay message.",
		zap.Uint64("height", s.Height),
		zap.Uint64("lastSeq", s.LastSeq),
		zap.Int("messages", len(msgs)))
	return msgs, nil
}

// Status returns the progress of the verifier
func (p *Protocol) Status(_ context.Context, sr protocol.StateReader) (*protocol.VerifierStatus, error) {
	s, err := p.status(sr)
	if err != nil {
		return nil, err
	}
	return &protocol.VerifierStatus{
		Height:  s.Height,
		Offset:  p.offset,
		LastSeq: s.LastSeq,
	}, nil
}

func (p *Protocol) status(sr protocol.StateReader) (*status, error) {
	s := status{}
	_, err := sr.State(&s, protocol.NamespaceOption(p.addr.String()), protocol.KeyOption(_statusKey))
	switch errors.Cause(err) {
	case nil:
		return &s, nil
	case state.ErrStateNotExist:
		return &status{LastSeq: p.offset}, nil
	default:
		return nil, err
	}
}

func (p *Protocol) putStatus(sm protocol.StateManager, s *status) error {
	_, err := sm.PutState(s, protocol.NamespaceOption(p.addr.String()), protocol.KeyOption(_statusKey))
	return err
}
