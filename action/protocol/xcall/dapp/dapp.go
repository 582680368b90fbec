// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package dapp

import (
	"context"
	"strconv"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-btp/action"
	"github.com/iotexproject/iotex-btp/action/protocol"
	"github.com/iotexproject/iotex-btp/action/protocol/xcall"
	"github.com/iotexproject/iotex-btp/btp"
	"github.com/iotexproject/iotex-btp/codec"
	"github.com/iotexproject/iotex-btp/pkg/log"
	"github.com/iotexproject/iotex-btp/state"
)

const (
	// ProtocolID is the id of the sample dapp
	ProtocolID = "xcall.dapp"

	// MessageReceivedEventSig is the signature of the event emitted for every call received
	MessageReceivedEventSig = "MessageReceived(str,bytes)"

	_requestKeyPrefix = "request."
)

type (
	// SendMessage sends Data to To through the call service, with the value attached as fee
	SendMessage struct {
		action.Call
		To       string
		Data     []byte
		Rollback []byte
	}

	// Request is a call sent through the dapp
	Request struct {
		From     string
		To       string
		Rollback []byte
	}

	// MessageReceivedEvent is emitted when the dapp receives a call
	MessageReceivedEvent struct {
		From string
		Data []byte
	}

	callService interface {
		SendCallMessage(ctx context.Context, sm protocol.StateManager, to string, data []byte, rollback []byte) (uint64, error)
	}

	// Protocol is a sample call service receiver which proxies calls of its users to the call service
	Protocol struct {
		addr   address.Address
		xcall  address.Address
		logger *zap.Logger
	}
)

// NewProtocol creates the sample dapp talking to the call service at xcall
func NewProtocol(xcall address.Address) (*Protocol, error) {
	if xcall == nil {
		return nil, errors.Wrap(btp.ErrInvalidArgument, "nil call service")
	}
	addr, err := protocol.HashAddress(ProtocolID)
	if err != nil {
		return nil, err
	}
	return &Protocol{addr: addr, xcall: xcall, logger: log.Logger("dapp")}, nil
}

// Address returns the address of the dapp
func (p *Protocol) Address() address.Address { return p.addr }

// Handle handles the actions on the dapp
func (p *Protocol) Handle(ctx context.Context, act action.Action, sm protocol.StateManager) (*action.Receipt, error) {
	switch act := act.(type) {
	case *SendMessage:
		sn, err := p.SendMessage(ctx, sm, act.To, act.Data, act.Rollback)
		if err != nil {
			return nil, err
		}
		return protocol.NewReceipt(ctx, p.addr, codec.EncodeInt64(int64(sn))), nil
	default:
		return nil, protocol.ErrUnknownAction
	}
}

// SendMessage forwards the call and the value attached to the call service and records the request
func (p *Protocol) SendMessage(ctx context.Context, sm protocol.StateManager, to string, data []byte, rollback []byte) (uint64, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	pr, ok := protocol.MustGetRegistry(ctx).Find(p.xcall.String())
	if !ok {
		return 0, errors.Wrapf(btp.ErrNotExists, "call service %s is not deployed", p.xcall)
	}
	cs, ok := pr.(callService)
	if !ok {
		return 0, errors.Wrapf(btp.ErrInvalidArgument, "%s is not a call service", p.xcall)
	}
	cctx, err := protocol.EnterCall(ctx, p.addr, p.xcall, actionCtx.Value)
	if err != nil {
		return 0, err
	}
	sn, err := cs.SendCallMessage(cctx, sm, to, data, rollback)
	if err != nil {
		p.logger.Debug("Call service rejected the call.", zap.String("to", to), zap.Error(err))
		return 0, btp.Revert(int64(btp.CodeOf(err)), xcall.UserRevertedMsg)
	}
	if _, err := sm.PutState(&Request{
		From:     actionCtx.Caller.String(),
		To:       to,
		Rollback: rollback,
	}, protocol.NamespaceOption(p.addr.String()), protocol.KeyOption(requestKey(sn))); err != nil {
		return 0, err
	}
	return sn, nil
}

// Request returns the request sent with serial number sn
func (p *Protocol) Request(sr protocol.StateReader, sn uint64) (*Request, error) {
	req := Request{}
	_, err := sr.State(&req, protocol.NamespaceOption(p.addr.String()), protocol.KeyOption(requestKey(sn)))
	if errors.Cause(err) == state.ErrStateNotExist {
		return nil, errors.Wrapf(btp.ErrNotExists, "request %d", sn)
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// HandleCallMessage records the call received from from, the caller must be the call service
func (p *Protocol) HandleCallMessage(ctx context.Context, sm protocol.StateManager, from string, data []byte) error {
	caller := protocol.MustGetActionCtx(ctx).Caller
	if caller == nil || caller.String() != p.xcall.String() {
		return errors.Wrap(btp.ErrUnauthorized, "caller is not the call service")
	}
	p.logger.Debug("Call received.", zap.String("from", from), zap.ByteString("data", data))
	sm.AddLogs(action.NewLog(p.addr.String(), MessageReceivedEventSig, nil, [][]byte{[]byte(from), data}))
	return nil
}

// ParseMessageReceivedEvent decodes a MessageReceived event log
func ParseMessageReceivedEvent(l *action.Log) (*MessageReceivedEvent, error) {
	if !l.Is(MessageReceivedEventSig) || len(l.Data) != 2 {
		return nil, errors.Wrap(btp.ErrMalformedPayload, "not a MessageReceived event")
	}
	return &MessageReceivedEvent{From: string(l.Data[0]), Data: l.Data[1]}, nil
}

func requestKey(sn uint64) []byte {
	return []byte(_requestKeyPrefix + strconv.FormatUint(sn, 10))
}
