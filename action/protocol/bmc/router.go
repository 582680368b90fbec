// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package bmc

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-btp/action/protocol"
	"github.com/iotexproject/iotex-btp/btp"
	"github.com/iotexproject/iotex-btp/state"
)

// HandleRelayMessage verifies the relay message from prev with the verifier of its network, then delivers or
// forwards the messages it carries in order. Failing to verify aborts the whole relay message, while failing to
// deliver a message is answered to its source.
func (p *Protocol) HandleRelayMessage(ctx context.Context, sm protocol.StateManager, prev string, msg []byte) error {
	net, l, err := p.prevLink(sm, prev)
	if err != nil {
		return err
	}
	mv, err := p.verifier(ctx, sm, net)
	if err != nil {
		return err
	}
	if err := assertRelay(ctx, l, prev); err != nil {
		return err
	}
	vctx, err := protocol.EnterCall(ctx, p.addr, mv.Address(), nil)
	if err != nil {
		return err
	}
	msgs, err := mv.HandleRelayMessage(vctx, sm, p.btpAddr.String(), l.Peer, l.RxSeq+1, msg)
	if err != nil {
		return err
	}
	for _, b := range msgs {
		if err := p.advanceRxSeq(sm, net); err != nil {
			return err
		}
		_bmcMtc.WithLabelValues("received").Inc()
		if err := p.handleMessage(ctx, sm, net, b); err != nil {
			return err
		}
	}
	vs, err := mv.Status(vctx, sm)
	if err != nil {
		return err
	}
	if err := p.sack(ctx, sm, net, vs.Height); err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	return p.rewardRelay(ctx, sm, net)
}

// prevLink returns the network and the link to prev
func (p *Protocol) prevLink(sr protocol.StateReader, prev string) (string, *link, error) {
	peer, err := btp.ParseAddress(prev)
	if err != nil {
		return "", nil, err
	}
	net := peer.Network()
	l, err := p.link(sr, net)
	if errors.Cause(err) == state.ErrStateNotExist || (err == nil && l.Peer != peer.String()) {
		return "", nil, errors.Wrapf(btp.ErrUnknownLink, "link %s", prev)
	}
	if err != nil {
		return "", nil, err
	}
	return net, l, nil
}

func assertRelay(ctx context.Context, l *link, prev string) error {
	caller := protocol.MustGetActionCtx(ctx).Caller
	if caller == nil || indexOf(l.Relays, caller.String()) < 0 {
		return errors.Wrapf(btp.ErrUnauthorized, "%s is not a relay of link %s", caller, prev)
	}
	return nil
}

func (p *Protocol) verifier(ctx context.Context, sr protocol.StateReader, net string) (protocol.MessageVerifier, error) {
	t, err := p.table(sr, _verifiersKey)
	if err != nil {
		return nil, err
	}
	addr, ok := t.get(net)
	if !ok {
		return nil, errors.Wrapf(btp.ErrNotExists, "verifier of %s", net)
	}
	mv, ok := protocol.MustGetRegistry(ctx).MessageVerifier(addr)
	if !ok {
		return nil, errors.Wrapf(btp.ErrNotExists, "verifier %s is not deployed", addr)
	}
	return mv, nil
}

func (p *Protocol) advanceRxSeq(sm protocol.StateManager, net string) error {
	l, err := p.link(sm, net)
	if err != nil {
		return err
	}
	l.RxSeq++
	return p.putLink(sm, net, l)
}

// handleMessage delivers or forwards a message received on the link to network net
func (p *Protocol) handleMessage(ctx context.Context, sm protocol.StateManager, net string, b []byte) error {
	m, err := btp.DecodeMessage(b)
	if err != nil {
		p.logger.Warn("Dropped malformed message.", zap.String("link", net), zap.Error(err))
		_bmcMtc.WithLabelValues("dropped").Inc()
		sm.AddLogs(p.btpEventLog("", 0, "", EventDrop))
		return nil
	}
	if m.Dst.Network() != p.btpAddr.Network() {
		next, err := p.forward(sm, m.Dst.Network(), b)
		if err != nil {
			return p.handleError(sm, m, err)
		}
		_bmcMtc.WithLabelValues("routed").Inc()
		sm.AddLogs(p.btpEventLog(m.Src.String(), m.Sn, next, EventRoute))
		return nil
	}
	if m.Svc == InternalService {
		if err := p.handleInternal(sm, net, m); err != nil {
			return p.handleError(sm, m, err)
		}
		return nil
	}
	if err := p.deliver(ctx, sm, m); err != nil {
		return p.handleError(sm, m, err)
	}
	_bmcMtc.WithLabelValues("delivered").Inc()
	sm.AddLogs(p.btpEventLog(m.Src.String(), m.Sn, "", EventReceive))
	return nil
}

func (p *Protocol) forward(sm protocol.StateManager, dst string, b []byte) (string, error) {
	net, _, err := p.resolveNext(sm, dst)
	if err != nil {
		return "", err
	}
	return p.emitMessage(sm, net, b)
}

// deliver hands the message to the local service, whose state changes are discarded if it fails
func (p *Protocol) deliver(ctx context.Context, sm protocol.StateManager, m *btp.Message) error {
	t, err := p.table(sm, _servicesKey)
	if err != nil {
		return err
	}
	addr, ok := t.get(m.Svc)
	if !ok {
		return errors.Wrapf(btp.ErrNotExists, "service %s", m.Svc)
	}
	svc, ok := protocol.MustGetRegistry(ctx).BTPService(addr)
	if !ok {
		return errors.Wrapf(btp.ErrNotExists, "service %s is not deployed at %s", m.Svc, addr)
	}
	sctx, err := protocol.EnterCall(ctx, p.addr, svc.Address(), nil)
	if err != nil {
		return err
	}
	snapshot := sm.Snapshot()
	if err := svc.HandleBTPMessage(sctx, sm, m.Src.Network(), m.Svc, m.Sn, m.Payload); err != nil {
		if rerr := sm.Revert(snapshot); rerr != nil {
			return errors.Wrap(rerr, "failed to revert the failed delivery")
		}
		return err
	}
	return nil
}

// handleError answers a request which cannot be delivered with an error response, other messages are dropped
func (p *Protocol) handleError(sm protocol.StateManager, m *btp.Message, cause error) error {
	if m.Sn <= 0 {
		p.drop(sm, m, cause)
		return nil
	}
	reply := &btp.Message{
		Src:     p.btpAddr,
		Dst:     m.Src,
		Svc:     m.Svc,
		Sn:      -m.Sn,
		Payload: btp.NewErrorMessage(cause).Bytes(),
	}
	next, err := p.forward(sm, m.Src.Network(), reply.Bytes())
	switch {
	case err == nil:
	case btp.Is(err, btp.ErrUnreachable) || btp.Is(err, btp.ErrAmbiguousRoute):
		p.drop(sm, m, err)
		return nil
	default:
		return err
	}
	p.logger.Info("Replied error.",
		zap.String("src", m.Src.String()),
		zap.String("svc", m.Svc),
		zap.Int64("sn", m.Sn),
		zap.Error(cause))
	_bmcMtc.WithLabelValues("replied").Inc()
	sm.AddLogs(p.btpEventLog(m.Src.String(), m.Sn, next, EventError))
	return nil
}

func (p *Protocol) drop(sm protocol.StateManager, m *btp.Message, cause error) {
	p.logger.Warn("Dropped message.",
		zap.String("src", m.Src.String()),
		zap.String("dst", m.Dst.String()),
		zap.String("svc", m.Svc),
		zap.Int64("sn", m.Sn),
		zap.Error(cause))
	_bmcMtc.WithLabelValues("dropped").Inc()
	sm.AddLogs(p.btpEventLog(m.Src.String(), m.Sn, "", EventDrop))
}

// resolveNext returns the network of the link to send messages for network dst through, and the message center
// of dst. A route takes precedence over a direct link, which takes precedence over the networks reachable
// through the links
func (p *Protocol) resolveNext(sr protocol.StateReader, dst string) (string, btp.Address, error) {
	r, err := p.routes(sr)
	if err != nil {
		return "", btp.Address{}, err
	}
	if rt, ok := r.get(dst); ok {
		addr, err := btp.ParseAddress(rt.Dst)
		return rt.Link, addr, err
	}
	l, err := p.link(sr, dst)
	switch errors.Cause(err) {
	case nil:
		addr, err := btp.ParseAddress(l.Peer)
		return dst, addr, err
	case state.ErrStateNotExist:
	default:
		return "", btp.Address{}, err
	}
	list, err := p.linkList(sr)
	if err != nil {
		return "", btp.Address{}, err
	}
	var (
		next  string
		found btp.Address
	)
	for _, net := range list.Nets {
		l, err := p.link(sr, net)
		if err != nil {
			return "", btp.Address{}, err
		}
		for _, reachable := range l.Reachable {
			addr, err := btp.ParseAddress(reachable)
			if err != nil {
				return "", btp.Address{}, err
			}
			if addr.Network() != dst {
				continue
			}
			if next != "" && next != net {
				return "", btp.Address{}, errors.Wrapf(btp.ErrAmbiguousRoute, "%s is reachable through %s and %s", dst, next, net)
			}
			next, found = net, addr
		}
	}
	if next == "" {
		return "", btp.Address{}, errors.Wrapf(btp.ErrUnreachable, "network %s", dst)
	}
	return next, found, nil
}

// emitMessage sends b through the link to network net and returns the peer it goes to
func (p *Protocol) emitMessage(sm protocol.StateManager, net string, b []byte) (string, error) {
	l, err := p.link(sm, net)
	if err != nil {
		return "", err
	}
	l.TxSeq++
	if err := p.putLink(sm, net, l); err != nil {
		return "", err
	}
	sm.AddLogs(p.messageLog(l.Peer, l.TxSeq, b))
	return l.Peer, nil
}

// SendMessage sends msg to the service svc on network to, on behalf of the local service svc. The value attached
// goes to the relay reward of the link the message leaves through
func (p *Protocol) SendMessage(ctx context.Context, sm protocol.StateManager, to string, svc string, sn int64, msg []byte) error {
	actionCtx := protocol.MustGetActionCtx(ctx)
	if svc == InternalService {
		return errors.Wrap(btp.ErrUnauthorized, "internal service")
	}
	t, err := p.table(sm, _servicesKey)
	if err != nil {
		return err
	}
	addr, ok := t.get(svc)
	if !ok || actionCtx.Caller == nil || actionCtx.Caller.String() != addr {
		return errors.Wrapf(btp.ErrUnauthorized, "caller is not service %s", svc)
	}
	net, dst, err := p.resolveNext(sm, to)
	if err != nil {
		return err
	}
	m := &btp.Message{
		Src:     p.btpAddr,
		Dst:     dst,
		Svc:     svc,
		Sn:      sn,
		Payload: msg,
	}
	next, err := p.emitMessage(sm, net, m.Bytes())
	if err != nil {
		return err
	}
	if actionCtx.Value != nil && actionCtx.Value.Sign() > 0 {
		pool, err := p.amount(sm, feeKey(net))
		if err != nil {
			return err
		}
		if err := p.putAmount(sm, feeKey(net), new(big.Int).Add(pool, actionCtx.Value)); err != nil {
			return err
		}
	}
	_bmcMtc.WithLabelValues("sent").Inc()
	sm.AddLogs(p.btpEventLog(p.btpAddr.String(), sn, next, EventSend))
	return nil
}

// HandleFragment reassembles a relay message from its fragments and handles it once the last one arrives
func (p *Protocol) HandleFragment(ctx context.Context, sm protocol.StateManager, prev string, msg []byte, index int64) error {
	net, l, err := p.prevLink(sm, prev)
	if err != nil {
		return err
	}
	if err := assertRelay(ctx, l, prev); err != nil {
		return err
	}
	if index < 0 {
		return p.putState(sm, fragmentKey(net), &fragment{
			Next: uint64(-index) - 1,
			Data: msg,
		})
	}
	f := fragment{}
	err = p.state(sm, fragmentKey(net), &f)
	if errors.Cause(err) == state.ErrStateNotExist {
		return errors.Wrapf(btp.ErrInvalidArgument, "no fragment of %s expected", prev)
	}
	if err != nil {
		return err
	}
	if uint64(index) != f.Next {
		return errors.Wrapf(btp.ErrInvalidArgument, "fragment %d of %s, expecting %d", index, prev, f.Next)
	}
	f.Data = append(f.Data, msg...)
	if index > 0 {
		f.Next--
		return p.putState(sm, fragmentKey(net), &f)
	}
	if err := p.deleteState(sm, fragmentKey(net)); err != nil {
		return err
	}
	return p.HandleRelayMessage(ctx, sm, prev, f.Data)
}

// DropMessage skips the inbound message seq from target, which must be the next one expected. A request is
// answered with Dropped
func (p *Protocol) DropMessage(ctx context.Context, sm protocol.StateManager, target string, seq uint64, svc string, sn int64) error {
	if err := p.assertOwner(ctx, sm); err != nil {
		return err
	}
	net, l, err := p.existingLink(sm, target)
	if err != nil {
		return err
	}
	if seq != l.RxSeq+1 {
		return errors.Wrapf(btp.ErrInvalidSequence, "seq %d, expecting %d", seq, l.RxSeq+1)
	}
	l.RxSeq++
	if err := p.putLink(sm, net, l); err != nil {
		return err
	}
	src, err := btp.ParseAddress(l.Peer)
	if err != nil {
		return err
	}
	m := &btp.Message{
		Src: src,
		Dst: p.btpAddr,
		Svc: svc,
		Sn:  sn,
	}
	return p.handleError(sm, m, errors.Wrapf(btp.ErrDropped, "seq %d of %s", seq, target))
}

// sack records the position of the link to network net and tells the peer, once every sack term
func (p *Protocol) sack(ctx context.Context, sm protocol.StateManager, net string, height uint64) error {
	l, err := p.link(sm, net)
	if err != nil {
		return err
	}
	blkHeight := protocol.MustGetBlockCtx(ctx).BlockHeight
	if l.SackTerm == 0 || blkHeight < l.SackNext {
		return nil
	}
	l.SackHeight, l.SackSeq = height, l.RxSeq
	l.SackNext = blkHeight + l.SackTerm
	if err := p.putLink(sm, net, l); err != nil {
		return err
	}
	return p.sendInternal(sm, net, &SackMessage{Height: height, Seq: l.RxSeq})
}

// rewardRelay credits the caller with the relay fee collected for the link to network net
func (p *Protocol) rewardRelay(ctx context.Context, sm protocol.StateManager, net string) error {
	pool, err := p.amount(sm, feeKey(net))
	if err != nil || pool.Sign() == 0 {
		return err
	}
	relay := protocol.MustGetActionCtx(ctx).Caller.String()
	reward, err := p.amount(sm, rewardKey(net, relay))
	if err != nil {
		return err
	}
	if err := p.putAmount(sm, rewardKey(net, relay), reward.Add(reward, pool)); err != nil {
		return err
	}
	return p.putAmount(sm, feeKey(net), big.NewInt(0))
}

// ClaimReward pays the caller out the reward it earned relaying from network net
func (p *Protocol) ClaimReward(ctx context.Context, sm protocol.StateManager, net string) (*big.Int, error) {
	caller := protocol.MustGetActionCtx(ctx).Caller
	if caller == nil {
		return nil, errors.Wrap(btp.ErrUnauthorized, "nil caller")
	}
	reward, err := p.amount(sm, rewardKey(net, caller.String()))
	if err != nil {
		return nil, err
	}
	if reward.Sign() == 0 {
		return nil, errors.Wrapf(btp.ErrNotExists, "reward of %s on %s", caller, net)
	}
	if err := p.putAmount(sm, rewardKey(net, caller.String()), big.NewInt(0)); err != nil {
		return nil, err
	}
	sm.AddLogs(p.claimRewardLog(net, caller.String(), reward))
	return reward, nil
}

// Reward returns the reward addr earned relaying from network net
func (p *Protocol) Reward(sr protocol.StateReader, net string, addr string) (*big.Int, error) {
	return p.amount(sr, rewardKey(net, addr))
}

// RelayFee returns the relay fee collected for the link to network net, not yet rewarded
func (p *Protocol) RelayFee(sr protocol.StateReader, net string) (*big.Int, error) {
	return p.amount(sr, feeKey(net))
}
