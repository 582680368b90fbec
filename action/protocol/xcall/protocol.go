// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package xcall

import (
	"context"
	"math/big"
	"strconv"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-btp/action"
	"github.com/iotexproject/iotex-btp/action/protocol"
	"github.com/iotexproject/iotex-btp/btp"
	"github.com/iotexproject/iotex-btp/codec"
	"github.com/iotexproject/iotex-btp/pkg/log"
	"github.com/iotexproject/iotex-btp/state"
)

const (
	// ProtocolID is the id of the call service
	ProtocolID = "xcall"
	// ServiceName is the name the call service is registered under in the message center
	ServiceName = "xcall"

	// MaxDataSize is the maximum size of the data of a call
	MaxDataSize = 2048
	// MaxRollbackSize is the maximum size of the rollback data of a call
	MaxRollbackSize = 1024

	// UserRevertedMsg is the message of the response to a call reverted by its receiver without reason
	UserRevertedMsg = "UserReverted"
)

var (
	_snKey    = []byte("sn")
	_reqIDKey = []byte("reqId")
	_adminKey = []byte("admin")

	_outgoingKeyPrefix = "outgoing."
	_incomingKeyPrefix = "incoming."
	_feesKeyPrefix     = "fees."
	_accruedKeyPrefix  = "accrued."

	_xcallMtc = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iotex_btp_xcall",
			Help: "BTP call service statistics.",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(_xcallMtc)
}

type (
	counter struct {
		Value uint64
	}

	// callRequest is a call sent and not answered yet
	callRequest struct {
		From     string
		To       string
		Rollback []byte
		Enabled  bool
	}

	// callMessage is a call received and not executed yet. Sn is the serial number to answer, zero if the
	// call needs no response
	callMessage struct {
		From string
		To   string
		Sn   uint64
		Data []byte
	}

	adminState struct {
		Admin string
	}

	// Fees are the fixed fees of calls to a network
	Fees struct {
		Relay    *big.Int
		Protocol *big.Int
	}

	amount struct {
		Value *big.Int
	}

	// Protocol is the call service. It sends calls to other networks through the message center, delivers the
	// calls it receives to their receivers and calls the senders back when their calls fail.
	Protocol struct {
		addr   address.Address
		bmc    address.Address
		admin  address.Address
		logger *zap.Logger
	}
)

// NewProtocol creates the call service on top of the message center at bmc, admin being its first admin
func NewProtocol(bmc address.Address, admin address.Address) (*Protocol, error) {
	if bmc == nil || admin == nil {
		return nil, errors.Wrap(btp.ErrInvalidArgument, "nil message center or admin")
	}
	addr, err := protocol.HashAddress(ProtocolID)
	if err != nil {
		return nil, err
	}
	return &Protocol{
		addr:   addr,
		bmc:    bmc,
		admin:  admin,
		logger: log.Logger("xcall"),
	}, nil
}

// Address returns the address of the call service
func (p *Protocol) Address() address.Address { return p.addr }

// Handle handles the actions on the call service
func (p *Protocol) Handle(ctx context.Context, act action.Action, sm protocol.StateManager) (*action.Receipt, error) {
	var (
		err error
		ret []byte
	)
	switch act := act.(type) {
	case *SendCallMessage:
		var sn uint64
		if sn, err = p.SendCallMessage(ctx, sm, act.To, act.Data, act.Rollback); err == nil {
			ret = codec.EncodeInt64(int64(sn))
		}
	case *ExecuteCall:
		err = p.ExecuteCall(ctx, sm, act.ReqID)
	case *ExecuteRollback:
		err = p.ExecuteRollback(ctx, sm, act.Sn)
	case *SetAdmin:
		err = p.SetAdmin(ctx, sm, act.Admin)
	case *SetFixedFees:
		err = p.SetFixedFees(ctx, sm, act.Net, act.Relay, act.Protocol)
	case *ClaimFees:
		var claimed *big.Int
		if claimed, err = p.ClaimFees(ctx, sm); err == nil {
			ret = codec.EncodeInt(claimed)
		}
	default:
		return nil, protocol.ErrUnknownAction
	}
	if err != nil {
		return nil, err
	}
	return protocol.NewReceipt(ctx, p.addr, ret), nil
}

func (p *Protocol) messageCenter(ctx context.Context) (protocol.MessageCenter, error) {
	mc, ok := protocol.MustGetRegistry(ctx).MessageCenter(p.bmc.String())
	if !ok {
		return nil, errors.Wrapf(btp.ErrNotExists, "message center %s is not deployed", p.bmc)
	}
	return mc, nil
}

// SendCallMessage sends data to the account of BTP address to. The value attached must cover the fees of the
// destination network, the protocol fee accrues to the admin and the rest goes to the message center as relay fee
func (p *Protocol) SendCallMessage(ctx context.Context, sm protocol.StateManager, to string, data []byte, rollback []byte) (uint64, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	dst, err := btp.ParseAddress(to)
	if err != nil {
		return 0, err
	}
	if len(data) > MaxDataSize {
		return 0, errors.Wrapf(btp.ErrInvalidArgument, "data size %d exceeds %d", len(data), MaxDataSize)
	}
	if len(rollback) > MaxRollbackSize {
		return 0, errors.Wrapf(btp.ErrInvalidArgument, "rollback size %d exceeds %d", len(rollback), MaxRollbackSize)
	}
	f, err := p.FixedFees(sm, dst.Network())
	if err != nil {
		return 0, err
	}
	value := actionCtx.Value
	if value == nil {
		value = big.NewInt(0)
	}
	if total := new(big.Int).Add(f.Relay, f.Protocol); value.Cmp(total) < 0 {
		return 0, errors.Wrapf(btp.ErrInsufficientFee, "fee %s, required %s", value, total)
	}
	sn, err := p.counter(sm, _snKey)
	if err != nil {
		return 0, err
	}
	sn++
	from := actionCtx.Caller.String()
	req := &CSMessageRequest{
		From:     from,
		To:       dst.Account(),
		Sn:       int64(sn),
		Rollback: len(rollback) > 0,
		Data:     data,
	}
	if err := p.sendBTPMessage(ctx, sm, dst.Network(), int64(sn), req.Bytes(), new(big.Int).Sub(value, f.Protocol)); err != nil {
		return 0, err
	}
	if err := p.putState(sm, _snKey, &counter{Value: sn}); err != nil {
		return 0, err
	}
	if err := p.putState(sm, outgoingKey(sn), &callRequest{
		From:     from,
		To:       to,
		Rollback: rollback,
	}); err != nil {
		return 0, err
	}
	if err := p.accrue(sm, f.Protocol); err != nil {
		return 0, err
	}
	_xcallMtc.WithLabelValues("sent").Inc()
	sm.AddLogs(p.callMessageSentLog(from, to, int64(sn)))
	return sn, nil
}

func (p *Protocol) sendBTPMessage(ctx context.Context, sm protocol.StateManager, net string, sn int64, msg []byte, value *big.Int) error {
	mc, err := p.messageCenter(ctx)
	if err != nil {
		return err
	}
	mctx, err := protocol.EnterCall(ctx, p.addr, mc.Address(), value)
	if err != nil {
		return err
	}
	return mc.SendMessage(mctx, sm, net, ServiceName, sn, msg)
}

// HandleBTPMessage handles a request or a response from network from, the caller must be the message center
func (p *Protocol) HandleBTPMessage(ctx context.Context, sm protocol.StateManager, from string, svc string, sn int64, msg []byte) error {
	caller := protocol.MustGetActionCtx(ctx).Caller
	if caller == nil || caller.String() != p.bmc.String() {
		return errors.Wrap(btp.ErrUnauthorized, "caller is not the message center")
	}
	if svc != ServiceName {
		return errors.Wrapf(btp.ErrInvalidArgument, "service %s", svc)
	}
	if sn < 0 {
		return p.handleResponse(sm, from, uint64(-sn), msg)
	}
	return p.handleRequest(sm, from, sn, msg)
}

func (p *Protocol) handleRequest(sm protocol.StateManager, net string, sn int64, msg []byte) error {
	req, err := DecodeCSMessageRequest(msg)
	if err != nil {
		return err
	}
	from, err := btp.NewAddress(net, req.From)
	if err != nil {
		return err
	}
	reqID, err := p.counter(sm, _reqIDKey)
	if err != nil {
		return err
	}
	reqID++
	if err := p.putState(sm, _reqIDKey, &counter{Value: reqID}); err != nil {
		return err
	}
	if err := p.putState(sm, incomingKey(reqID), &callMessage{
		From: from.String(),
		To:   req.To,
		Sn:   uint64(sn),
		Data: req.Data,
	}); err != nil {
		return err
	}
	_xcallMtc.WithLabelValues("received").Inc()
	sm.AddLogs(p.callMessageLog(from.String(), req.To, req.Sn, reqID))
	return nil
}

func (p *Protocol) handleResponse(sm protocol.StateManager, net string, sn uint64, msg []byte) error {
	resp, err := DecodeCSMessageResponse(msg)
	if err != nil {
		return err
	}
	req, err := p.outgoing(sm, sn)
	if err != nil {
		return err
	}
	if dst, err := btp.ParseAddress(req.To); err != nil || dst.Network() != net {
		return errors.Wrapf(btp.ErrInvalidSerialNum, "response to %d from %s", sn, net)
	}
	sm.AddLogs(p.resultLog(ResponseMessageEventSig, int64(sn), resp.Code, resp.Msg))
	if resp.Code == int64(btp.Success) || len(req.Rollback) == 0 {
		return p.deleteState(sm, outgoingKey(sn))
	}
	req.Enabled = true
	if err := p.putState(sm, outgoingKey(sn), req); err != nil {
		return err
	}
	p.logger.Info("Call failed remotely.", zap.Uint64("sn", sn), zap.Int64("code", resp.Code), zap.String("msg", resp.Msg))
	sm.AddLogs(p.rollbackMessageLog(int64(sn)))
	return nil
}

// ExecuteCall delivers the call reqID to its receiver and answers the sender with the result
func (p *Protocol) ExecuteCall(ctx context.Context, sm protocol.StateManager, reqID uint64) error {
	msg := callMessage{}
	err := p.state(sm, incomingKey(reqID), &msg)
	if errors.Cause(err) == state.ErrStateNotExist {
		return errors.Wrapf(btp.ErrInvalidRequestID, "request %d", reqID)
	}
	if err != nil {
		return err
	}
	if err := p.deleteState(sm, incomingKey(reqID)); err != nil {
		return err
	}
	code, reason := p.call(ctx, sm, msg.To, msg.From, msg.Data)
	_xcallMtc.WithLabelValues("executed").Inc()
	sm.AddLogs(p.resultLog(CallExecutedEventSig, int64(reqID), code, reason))
	if msg.Sn == 0 {
		return nil
	}
	from, err := btp.ParseAddress(msg.From)
	if err != nil {
		return err
	}
	resp := &CSMessageResponse{Code: code, Msg: reason}
	return p.sendBTPMessage(ctx, sm, from.Network(), -int64(msg.Sn), resp.Bytes(), nil)
}

// ExecuteRollback calls the sender of the failed call sn back with its rollback data
func (p *Protocol) ExecuteRollback(ctx context.Context, sm protocol.StateManager, sn uint64) error {
	req, err := p.outgoing(sm, sn)
	if err != nil {
		return err
	}
	if !req.Enabled {
		return errors.Wrapf(btp.ErrInvalidSerialNum, "rollback of %d is not enabled", sn)
	}
	if err := p.deleteState(sm, outgoingKey(sn)); err != nil {
		return err
	}
	mc, err := p.messageCenter(ctx)
	if err != nil {
		return err
	}
	code, reason := p.call(ctx, sm, req.From, mc.BTPAddress().String(), req.Rollback)
	_xcallMtc.WithLabelValues("rollback").Inc()
	sm.AddLogs(p.resultLog(RollbackExecutedEventSig, int64(sn), code, reason))
	return nil
}

// call delivers data from from to the receiver at to, whose state changes are discarded if it fails. The result
// is the code and the reason of the failure
func (p *Protocol) call(ctx context.Context, sm protocol.StateManager, to string, from string, data []byte) (int64, string) {
	recv, ok := protocol.MustGetRegistry(ctx).CallServiceReceiver(to)
	if !ok {
		return int64(btp.Failure), errors.Wrapf(btp.ErrNotExists, "receiver %s", to).Error()
	}
	rctx, err := protocol.EnterCall(ctx, p.addr, recv.Address(), nil)
	if err != nil {
		return int64(btp.Failure), err.Error()
	}
	snapshot := sm.Snapshot()
	err = recv.HandleCallMessage(rctx, sm, from, data)
	if err == nil {
		return int64(btp.Success), ""
	}
	if rerr := sm.Revert(snapshot); rerr != nil {
		p.logger.Panic("Failed to revert the failed call.", zap.Error(rerr))
	}
	p.logger.Debug("Call reverted.", zap.String("to", to), zap.Error(err))
	return resultOf(err)
}

// resultOf returns the code and reason carried by a receiver failure
func resultOf(err error) (int64, string) {
	reverted, ok := errors.Cause(err).(*btp.UserRevertedError)
	if !ok {
		return int64(btp.Failure), err.Error()
	}
	code := reverted.Code
	if code == int64(btp.Success) {
		code = int64(btp.Failure)
	}
	reason := reverted.Reason
	if reason == "" {
		reason = UserRevertedMsg
	}
	return code, reason
}

func (p *Protocol) outgoing(sr protocol.StateReader, sn uint64) (*callRequest, error) {
	req := callRequest{}
	err := p.state(sr, outgoingKey(sn), &req)
	if errors.Cause(err) == state.ErrStateNotExist {
		return nil, errors.Wrapf(btp.ErrInvalidSerialNum, "call %d", sn)
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// PendingCall reports whether the call sn waits for a response or a rollback
func (p *Protocol) PendingCall(sr protocol.StateReader, sn uint64) (bool, error) {
	_, err := p.outgoing(sr, sn)
	switch {
	case err == nil:
		return true, nil
	case btp.Is(err, btp.ErrInvalidSerialNum):
		return false, nil
	default:
		return false, err
	}
}

// PendingRequest reports whether the request reqID waits for execution
func (p *Protocol) PendingRequest(sr protocol.StateReader, reqID uint64) (bool, error) {
	err := p.state(sr, incomingKey(reqID), &callMessage{})
	switch errors.Cause(err) {
	case nil:
		return true, nil
	case state.ErrStateNotExist:
		return false, nil
	default:
		return false, err
	}
}

func (p *Protocol) counter(sr protocol.StateReader, key []byte) (uint64, error) {
	c := counter{}
	if err := p.state(sr, key, &c); err != nil && errors.Cause(err) != state.ErrStateNotExist {
		return 0, err
	}
	return c.Value, nil
}

func (p *Protocol) state(sr protocol.StateReader, key []byte, s interface{}) error {
	_, err := sr.State(s, protocol.NamespaceOption(p.addr.String()), protocol.KeyOption(key))
	return err
}

func (p *Protocol) putState(sm protocol.StateManager, key []byte, s interface{}) error {
	_, err := sm.PutState(s, protocol.NamespaceOption(p.addr.String()), protocol.KeyOption(key))
	return err
}

func (p *Protocol) deleteState(sm protocol.StateManager, key []byte) error {
	_, err := sm.DelState(protocol.NamespaceOption(p.addr.String()), protocol.KeyOption(key))
	return err
}

func outgoingKey(sn uint64) []byte {
	return []byte(_outgoingKeyPrefix + strconv.FormatUint(sn, 10))
}

func incomingKey(reqID uint64) []byte {
	return []byte(_incomingKeyPrefix + strconv.FormatUint(reqID, 10))
}
