// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package bmc

import (
	"context"
	"math/big"
	"testing"

	"github.com/iotexproject/iotex-address/address"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iotexproject/iotex-btp/action"
	"github.com/iotexproject/iotex-btp/action/protocol"
	"github.com/iotexproject/iotex-btp/action/protocol/bmv/bridge"
	"github.com/iotexproject/iotex-btp/btp"
	"github.com/iotexproject/iotex-btp/db"
	"github.com/iotexproject/iotex-btp/state/factory"
	"github.com/iotexproject/iotex-btp/test/identityset"
	"github.com/iotexproject/iotex-btp/test/mock/mock_protocol"
)

const (
	_net   = "0x1.iotex"
	_netA  = "0x2.icon"
	_netB  = "0x3.bsc"
	_peerA = "btp://0x2.icon/cx0000000000000000000000000000000000000001"
	_peerB = "btp://0x3.bsc/0x0000000000000000000000000000000000000002"

	_owner   = 0
	_relayer = 5
	_other   = 9
)

type testEnv struct {
	t    *testing.T
	bmc  *Protocol
	bmvA *bridge.Protocol
	bmvB *bridge.Protocol
	svc  *mock_protocol.MockBTPService
	reg  *protocol.Registry
	sf   factory.Factory
}

func newTestEnv(t *testing.T) *testEnv {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	p, err := NewProtocol(_net, identityset.Address(_owner))
	require.NoError(err)
	bmvA, err := bridge.NewProtocol(p.Address(), _netA, 0)
	require.NoError(err)
	bmvB, err := bridge.NewProtocol(p.Address(), _netB, 0)
	require.NoError(err)
	svc := mock_protocol.NewMockBTPService(ctrl)
	svc.EXPECT().Address().Return(identityset.Address(7)).AnyTimes()

	reg := protocol.NewRegistry()
	for _, pr := range []protocol.Protocol{p, bmvA, bmvB, svc} {
		require.NoError(reg.Register(pr))
	}
	sf, err := factory.NewFactory(db.NewMemKVStore(), factory.RegistryOption(reg))
	require.NoError(err)
	require.NoError(sf.Start(context.Background()))
	t.Cleanup(func() { sf.Stop(context.Background()) })
	return &testEnv{
		t:    t,
		bmc:  p,
		bmvA: bmvA,
		bmvB: bmvB,
		svc:  svc,
		reg:  reg,
		sf:   sf,
	}
}

// setup links the message center to network A, and to network B if linkB is set, with verifiers, relays
// and the local service "svc"
func (e *testEnv) setup(linkB bool) {
	e.mustRun(_owner, &AddVerifier{Call: e.call(), Net: _netA, Addr: e.bmvA.Address()})
	e.mustRun(_owner, &AddLink{Call: e.call(), Link: _peerA})
	e.mustRun(_owner, &AddRelay{Call: e.call(), Link: _peerA, Addr: identityset.Address(_relayer)})
	e.mustRun(_owner, &AddService{Call: e.call(), Name: "svc", Addr: e.svc.Address()})
	if linkB {
		e.mustRun(_owner, &AddVerifier{Call: e.call(), Net: _netB, Addr: e.bmvB.Address()})
		e.mustRun(_owner, &AddLink{Call: e.call(), Link: _peerB})
		e.mustRun(_owner, &AddRelay{Call: e.call(), Link: _peerB, Addr: identityset.Address(_relayer)})
	}
}

func (e *testEnv) call() action.Call {
	return action.Call{To: e.bmc.Address().String()}
}

func (e *testEnv) run(caller int, act action.Action) (*action.Receipt, error) {
	return e.runWithValue(caller, nil, act)
}

func (e *testEnv) runWithValue(caller int, value *big.Int, act action.Action) (*action.Receipt, error) {
	return e.sf.RunAction(context.Background(), action.NewEnvelope(identityset.Address(caller), value, act))
}

func (e *testEnv) mustRun(caller int, act action.Action) *action.Receipt {
	r, err := e.run(caller, act)
	require.NoError(e.t, err)
	return r
}

func (e *testEnv) ws() factory.WorkingSet {
	ws, err := e.sf.NewWorkingSet()
	require.NoError(e.t, err)
	return ws
}

func (e *testEnv) status(target string) *LinkStatus {
	s, err := e.bmc.GetStatus(e.sf.Context(context.Background()), e.ws(), target)
	require.NoError(e.t, err)
	return s
}

func TestOwnership(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)
	o0, o1 := identityset.Address(0), identityset.Address(1)

	owners, err := e.bmc.Owners(e.ws())
	require.NoError(err)
	require.Equal([]string{o0.String()}, owners)

	e.mustRun(0, &AddOwner{Call: e.call(), Owner: o1})
	_, err = e.run(0, &AddOwner{Call: e.call(), Owner: o1})
	require.Equal(btp.CodeAlreadyExists, btp.CodeOf(err))

	e.mustRun(1, &RemoveOwner{Call: e.call(), Owner: o0})
	isOwner, err := e.bmc.IsOwner(e.ws(), o0)
	require.NoError(err)
	require.False(isOwner)
	_, err = e.run(0, &AddOwner{Call: e.call(), Owner: o0})
	require.Equal(btp.CodeUnauthorized, btp.CodeOf(err))

	_, err = e.run(1, &RemoveOwner{Call: e.call(), Owner: identityset.Address(3)})
	require.Equal(btp.CodeNotExists, btp.CodeOf(err))
	_, err = e.run(1, &RemoveOwner{Call: e.call(), Owner: o1})
	require.Equal(btp.CodeLastOwner, btp.CodeOf(err))

	owners, err = e.bmc.Owners(e.ws())
	require.NoError(err)
	require.Equal([]string{o1.String()}, owners)
}

func TestUnauthorized(t *testing.T) {
	e := newTestEnv(t)
	e.setup(false)
	relay := identityset.Address(_relayer)
	c := e.call()
	for _, act := range []action.Action{
		&AddOwner{Call: c, Owner: identityset.Address(_other)},
		&RemoveOwner{Call: c, Owner: identityset.Address(_owner)},
		&AddVerifier{Call: c, Net: "chainA", Addr: identityset.Address(8)},
		&RemoveVerifier{Call: c, Net: _netA},
		&AddService{Call: c, Name: "other", Addr: identityset.Address(8)},
		&RemoveService{Call: c, Name: "svc"},
		&AddLink{Call: c, Link: _peerB},
		&RemoveLink{Call: c, Link: _peerA},
		&AddBTPLink{Call: c, Link: _peerB, NetworkID: 1},
		&SetBTPLinkNetworkID{Call: c, Link: _peerA, NetworkID: 1},
		&AddRoute{Call: c, Dst: _peerB, Link: _peerA},
		&RemoveRoute{Call: c, Dst: _peerB},
		&AddRelay{Call: c, Link: _peerA, Addr: identityset.Address(_other)},
		&RemoveRelay{Call: c, Link: _peerA, Addr: relay},
		&SetLinkSackTerm{Call: c, Link: _peerA, Term: 10},
		&DropMessage{Call: c, Link: _peerA, Seq: 1, Svc: "svc", Sn: 1},
	} {
		_, err := e.run(_other, act)
		require.Equal(t, btp.CodeUnauthorized, btp.CodeOf(err), "%T", act)
	}

	ws := e.ws()
	verifiers, err := e.bmc.Verifiers(ws)
	require.NoError(t, err)
	require.Equal(t, map[string]string{_netA: e.bmvA.Address().String()}, verifiers)
	links, err := e.bmc.Links(ws)
	require.NoError(t, err)
	require.Equal(t, []string{_peerA}, links)
	relays, err := e.bmc.Relays(ws, _peerA)
	require.NoError(t, err)
	require.Equal(t, []string{relay.String()}, relays)
}

func TestConfiguration(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)
	e.setup(false)
	c := e.call()

	for _, test := range []struct {
		act  action.Action
		code btp.Code
	}{
		{&AddVerifier{Call: c, Net: _netA, Addr: identityset.Address(8)}, btp.CodeAlreadyExists},
		{&AddVerifier{Call: c, Net: "", Addr: identityset.Address(8)}, btp.CodeInvalidArgument},
		{&RemoveVerifier{Call: c, Net: _netB}, btp.CodeNotExists},
		{&AddService{Call: c, Name: "svc", Addr: identityset.Address(8)}, btp.CodeAlreadyExists},
		{&AddService{Call: c, Name: InternalService, Addr: identityset.Address(8)}, btp.CodeInvalidArgument},
		{&RemoveService{Call: c, Name: "other"}, btp.CodeNotExists},
		{&AddLink{Call: c, Link: _peerA}, btp.CodeAlreadyExists},
		{&AddLink{Call: c, Link: "btp://0x1.iotex/io1peer"}, btp.CodeInvalidArgument},
		{&AddLink{Call: c, Link: "0x2.icon/cx01"}, btp.CodeInvalidArgument},
		{&RemoveLink{Call: c, Link: _peerB}, btp.CodeNotExists},
		{&SetBTPLinkNetworkID{Call: c, Link: _peerB, NetworkID: 2}, btp.CodeNotExists},
		{&AddRoute{Call: c, Dst: "btp://0x9.eth/0x09", Link: _peerB}, btp.CodeNotExists},
		{&RemoveRoute{Call: c, Dst: "btp://0x9.eth/0x09"}, btp.CodeNotExists},
		{&AddRelay{Call: c, Link: _peerA, Addr: identityset.Address(_relayer)}, btp.CodeAlreadyExists},
		{&AddRelay{Call: c, Link: _peerB, Addr: identityset.Address(_relayer)}, btp.CodeNotExists},
		{&RemoveRelay{Call: c, Link: _peerA, Addr: identityset.Address(_other)}, btp.CodeNotExists},
		{&SetLinkSackTerm{Call: c, Link: _peerB, Term: 1}, btp.CodeNotExists},
	} {
		_, err := e.run(_owner, test.act)
		require.Equal(test.code, btp.CodeOf(err), "%T", test.act)
	}

	// a link cannot be removed while a route goes through it
	e.mustRun(_owner, &AddRoute{Call: c, Dst: "btp://0x9.eth/0x09", Link: _peerA})
	_, err := e.run(_owner, &AddRoute{Call: c, Dst: "btp://0x9.eth/0x10", Link: _peerA})
	require.Equal(btp.CodeAlreadyExists, btp.CodeOf(err))
	routes, err := e.bmc.Routes(e.ws())
	require.NoError(err)
	require.Equal(map[string]string{"btp://0x9.eth/0x09": _peerA}, routes)
	_, err = e.run(_owner, &RemoveLink{Call: c, Link: _peerA})
	require.Equal(btp.CodeReferenceExists, btp.CodeOf(err))
	e.mustRun(_owner, &RemoveRoute{Call: c, Dst: "btp://0x9.eth/0x09"})
	e.mustRun(_owner, &RemoveLink{Call: c, Link: _peerA})
	links, err := e.bmc.Links(e.ws())
	require.NoError(err)
	require.Empty(links)
	_, err = e.bmc.GetStatus(e.sf.Context(context.Background()), e.ws(), _peerA)
	require.Equal(btp.CodeNotExists, btp.CodeOf(err))

	e.mustRun(_owner, &RemoveService{Call: c, Name: "svc"})
	e.mustRun(_owner, &RemoveVerifier{Call: c, Net: _netA})
	services, err := e.bmc.Services(e.ws())
	require.NoError(err)
	require.Empty(services)

	// BTP links
	e.mustRun(_owner, &AddBTPLink{Call: c, Link: _peerB, NetworkID: 3})
	require.Equal(uint64(3), e.status(_peerB).NetworkID)
	e.mustRun(_owner, &SetBTPLinkNetworkID{Call: c, Link: _peerB, NetworkID: 4})
	require.Equal(uint64(4), e.status(_peerB).NetworkID)
}

func TestAddLink(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)
	e.setup(false)

	r := e.mustRun(_owner, &AddLink{Call: e.call(), Link: _peerB})
	evs := MessageEvents(r)
	require.Len(evs, 2)

	// the new peer learns about the existing links
	require.Equal(_peerB, evs[0].Next)
	require.Equal(uint64(1), evs[0].Seq)
	m, err := btp.DecodeMessage(evs[0].Msg)
	require.NoError(err)
	require.Equal(InternalService, m.Svc)
	require.Equal(int64(0), m.Sn)
	im, err := DecodeInternalMessage(m.Payload)
	require.NoError(err)
	require.Equal(InitType, im.Type)
	require.Equal(NewInternalMessage(&InitMessage{Links: []string{_peerA}}), im)

	// the existing peers learn about the new link
	require.Equal(_peerA, evs[1].Next)
	m, err = btp.DecodeMessage(evs[1].Msg)
	require.NoError(err)
	im, err = DecodeInternalMessage(m.Payload)
	require.NoError(err)
	require.Equal(NewInternalMessage(&LinkMessage{Link: _peerB}), im)

	r = e.mustRun(_owner, &RemoveLink{Call: e.call(), Link: _peerB})
	evs = MessageEvents(r)
	require.Len(evs, 1)
	require.Equal(_peerA, evs[0].Next)
	m, err = btp.DecodeMessage(evs[0].Msg)
	require.NoError(err)
	im, err = DecodeInternalMessage(m.Payload)
	require.NoError(err)
	require.Equal(NewInternalMessage(&UnlinkMessage{Link: _peerB}), im)
}

func TestResolveNext(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)
	e.setup(true)

	ws := e.ws()
	put := func(net string, reachable ...string) {
		l, err := e.bmc.link(ws, net)
		require.NoError(err)
		l.Reachable = reachable
		require.NoError(e.bmc.putLink(ws, net, l))
	}

	net, dst, err := e.bmc.resolveNext(ws, _netA)
	require.NoError(err)
	require.Equal(_netA, net)
	require.Equal(_peerA, dst.String())

	_, _, err = e.bmc.resolveNext(ws, "0x9.eth")
	require.Equal(btp.CodeUnreachable, btp.CodeOf(err))

	put(_netA, "btp://0x9.eth/0x09")
	net, dst, err = e.bmc.resolveNext(ws, "0x9.eth")
	require.NoError(err)
	require.Equal(_netA, net)
	require.Equal("btp://0x9.eth/0x09", dst.String())

	put(_netB, "btp://0x9.eth/0x09")
	_, _, err = e.bmc.resolveNext(ws, "0x9.eth")
	require.Equal(btp.CodeAmbiguousRoute, btp.CodeOf(err))

	// a route breaks the tie
	r, err := e.bmc.routes(ws)
	require.NoError(err)
	r.Routes = append(r.Routes, route{Net: "0x9.eth", Dst: "btp://0x9.eth/0x09", Link: _netB})
	require.NoError(e.bmc.putState(ws, _routesKey, r))
	net, _, err = e.bmc.resolveNext(ws, "0x9.eth")
	require.NoError(err)
	require.Equal(_netB, net)
}

func TestNewProtocol(t *testing.T) {
	_, err := NewProtocol(_net, nil)
	require.Equal(t, btp.CodeInvalidArgument, btp.CodeOf(err))
	_, err = NewProtocol("", identityset.Address(0))
	require.Equal(t, btp.CodeInvalidArgument, btp.CodeOf(err))

	p, err := NewProtocol(_net, identityset.Address(0))
	require.NoError(t, err)
	addr, err := address.FromString(p.BTPAddress().Account())
	require.NoError(t, err)
	require.Equal(t, p.Address().String(), addr.String())
	require.Equal(t, _net, p.BTPAddress().Network())

	_, err = p.Handle(context.Background(), &bridge.HandleRelayMessage{}, nil)
	require.Equal(t, protocol.ErrUnknownAction, err)
}
