// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package bmc

import (
	"context"
	"math/big"

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
	// ProtocolID is the id of the message center
	ProtocolID = "bmc"
	// InternalService is the name of the service the message centers talk to each other with
	InternalService = "bmc"
)

var _bmcMtc = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "iotex_btp_bmc_message",
		Help: "BTP message center statistics.",
	},
	[]string{"type"},
)

func init() {
	prometheus.MustRegister(_bmcMtc)
}

// Protocol is the message center. It keeps the links to the message centers of other networks, routes messages
// between them and delivers the messages addressed to the local services.
type Protocol struct {
	addr    address.Address
	btpAddr btp.Address
	owner   address.Address
	logger  *zap.Logger
}

// NewProtocol creates the message center of network net, owner being its first owner
func NewProtocol(net string, owner address.Address) (*Protocol, error) {
	if owner == nil {
		return nil, errors.Wrap(btp.ErrInvalidArgument, "nil owner")
	}
	addr, err := protocol.HashAddress(ProtocolID)
	if err != nil {
		return nil, err
	}
	btpAddr, err := btp.NewAddress(net, addr.String())
	if err != nil {
		return nil, err
	}
	return &Protocol{
		addr:    addr,
		btpAddr: btpAddr,
		owner:   owner,
		logger:  log.Logger("bmc"),
	}, nil
}

// Address returns the address of the message center
func (p *Protocol) Address() address.Address { return p.addr }

// BTPAddress returns the BTP address of the message center
func (p *Protocol) BTPAddress() btp.Address { return p.btpAddr }

// Handle handles the actions on the message center
func (p *Protocol) Handle(ctx context.Context, act action.Action, sm protocol.StateManager) (*action.Receipt, error) {
	var (
		err error
		ret []byte
	)
	switch act := act.(type) {
	case *AddOwner:
		err = p.AddOwner(ctx, sm, act.Owner)
	case *RemoveOwner:
		err = p.RemoveOwner(ctx, sm, act.Owner)
	case *AddVerifier:
		err = p.AddVerifier(ctx, sm, act.Net, act.Addr)
	case *RemoveVerifier:
		err = p.RemoveVerifier(ctx, sm, act.Net)
	case *AddService:
		err = p.AddService(ctx, sm, act.Name, act.Addr)
	case *RemoveService:
		err = p.RemoveService(ctx, sm, act.Name)
	case *AddLink:
		err = p.AddLink(ctx, sm, act.Link)
	case *RemoveLink:
		err = p.RemoveLink(ctx, sm, act.Link)
	case *AddBTPLink:
		err = p.AddBTPLink(ctx, sm, act.Link, act.NetworkID)
	case *SetBTPLinkNetworkID:
		err = p.SetBTPLinkNetworkID(ctx, sm, act.Link, act.NetworkID)
	case *AddRoute:
		err = p.AddRoute(ctx, sm, act.Dst, act.Link)
	case *RemoveRoute:
		err = p.RemoveRoute(ctx, sm, act.Dst)
	case *AddRelay:
		err = p.AddRelay(ctx, sm, act.Link, act.Addr)
	case *RemoveRelay:
		err = p.RemoveRelay(ctx, sm, act.Link, act.Addr)
	case *SetLinkSackTerm:
		err = p.SetLinkSackTerm(ctx, sm, act.Link, act.Term)
	case *HandleRelayMessage:
		err = p.HandleRelayMessage(ctx, sm, act.Prev, act.Msg)
	case *HandleFragment:
		err = p.HandleFragment(ctx, sm, act.Prev, act.Msg, act.Index)
	case *SendMessage:
		err = p.SendMessage(ctx, sm, act.To, act.Svc, act.Sn, act.Msg)
	case *DropMessage:
		err = p.DropMessage(ctx, sm, act.Link, act.Seq, act.Svc, act.Sn)
	case *ClaimReward:
		var reward *big.Int
		if reward, err = p.ClaimReward(ctx, sm, act.Net); err == nil {
			ret = codec.EncodeInt(reward)
		}
	default:
		return nil, protocol.ErrUnknownAction
	}
	if err != nil {
		return nil, err
	}
	return protocol.NewReceipt(ctx, p.addr, ret), nil
}

func (p *Protocol) assertOwner(ctx context.Context, sr protocol.StateReader) error {
	caller := protocol.MustGetActionCtx(ctx).Caller
	o, err := p.owners(sr)
	if err != nil {
		return err
	}
	if caller == nil || !o.contains(caller.String()) {
		return errors.Wrap(btp.ErrUnauthorized, "caller is not an owner")
	}
	return nil
}

// AddOwner adds an owner
func (p *Protocol) AddOwner(ctx context.Context, sm protocol.StateManager, owner address.Address) error {
	if err := p.assertOwner(ctx, sm); err != nil {
		return err
	}
	if owner == nil {
		return errors.Wrap(btp.ErrInvalidArgument, "nil owner")
	}
	o, err := p.owners(sm)
	if err != nil {
		return err
	}
	if o.contains(owner.String()) {
		return errors.Wrapf(btp.ErrAlreadyExists, "owner %s", owner)
	}
	o.Owners = append(o.Owners, owner.String())
	return p.putState(sm, _ownersKey, o)
}

// RemoveOwner removes an owner, the last owner cannot be removed
func (p *Protocol) RemoveOwner(ctx context.Context, sm protocol.StateManager, owner address.Address) error {
	if err := p.assertOwner(ctx, sm); err != nil {
		return err
	}
	if owner == nil {
		return errors.Wrap(btp.ErrInvalidArgument, "nil owner")
	}
	o, err := p.owners(sm)
	if err != nil {
		return err
	}
	if !o.contains(owner.String()) {
		return errors.Wrapf(btp.ErrNotExists, "owner %s", owner)
	}
	if len(o.Owners) == 1 {
		return errors.Wrapf(btp.ErrLastOwner, "owner %s", owner)
	}
	o.Owners = remove(o.Owners, owner.String())
	return p.putState(sm, _ownersKey, o)
}

// Owners returns the owners
func (p *Protocol) Owners(sr protocol.StateReader) ([]string, error) {
	o, err := p.owners(sr)
	if err != nil {
		return nil, err
	}
	return o.Owners, nil
}

// IsOwner reports whether addr is an owner
func (p *Protocol) IsOwner(sr protocol.StateReader, addr address.Address) (bool, error) {
	o, err := p.owners(sr)
	if err != nil {
		return false, err
	}
	return o.contains(addr.String()), nil
}

// AddVerifier registers the verifier at addr for messages from network net
func (p *Protocol) AddVerifier(ctx context.Context, sm protocol.StateManager, net string, addr address.Address) error {
	if err := p.assertOwner(ctx, sm); err != nil {
		return err
	}
	if err := btp.ValidateNetwork(net); err != nil {
		return err
	}
	if addr == nil {
		return errors.Wrap(btp.ErrInvalidArgument, "nil verifier")
	}
	return p.addEntry(sm, _verifiersKey, net, addr.String())
}

// RemoveVerifier unregisters the verifier of network net
func (p *Protocol) RemoveVerifier(ctx context.Context, sm protocol.StateManager, net string) error {
	if err := p.assertOwner(ctx, sm); err != nil {
		return err
	}
	return p.removeEntry(sm, _verifiersKey, net)
}

// Verifiers returns the verifiers keyed by network
func (p *Protocol) Verifiers(sr protocol.StateReader) (map[string]string, error) {
	t, err := p.table(sr, _verifiersKey)
	if err != nil {
		return nil, err
	}
	return t.toMap(), nil
}

// AddService registers the local service name at addr
func (p *Protocol) AddService(ctx context.Context, sm protocol.StateManager, name string, addr address.Address) error {
	if err := p.assertOwner(ctx, sm); err != nil {
		return err
	}
	if name == "" || name == InternalService {
		return errors.Wrapf(btp.ErrInvalidArgument, "invalid service name %q", name)
	}
	if addr == nil {
		return errors.Wrap(btp.ErrInvalidArgument, "nil service")
	}
	return p.addEntry(sm, _servicesKey, name, addr.String())
}

// RemoveService unregisters the local service name
func (p *Protocol) RemoveService(ctx context.Context, sm protocol.StateManager, name string) error {
	if err := p.assertOwner(ctx, sm); err != nil {
		return err
	}
	return p.removeEntry(sm, _servicesKey, name)
}

// Services returns the local services keyed by name
func (p *Protocol) Services(sr protocol.StateReader) (map[string]string, error) {
	t, err := p.table(sr, _servicesKey)
	if err != nil {
		return nil, err
	}
	return t.toMap(), nil
}

func (p *Protocol) addEntry(sm protocol.StateManager, key []byte, k, v string) error {
	t, err := p.table(sm, key)
	if err != nil {
		return err
	}
	if _, ok := t.get(k); ok {
		return errors.Wrapf(btp.ErrAlreadyExists, "%s %s", key, k)
	}
	t.set(k, v)
	return p.putState(sm, key, t)
}

func (p *Protocol) removeEntry(sm protocol.StateManager, key []byte, k string) error {
	t, err := p.table(sm, key)
	if err != nil {
		return err
	}
	if !t.delete(k) {
		return errors.Wrapf(btp.ErrNotExists, "%s %s", key, k)
	}
	return p.putState(sm, key, t)
}

// AddLink links to the peer message center at target, the peer is told about the other links and the other
// links about the peer
func (p *Protocol) AddLink(ctx context.Context, sm protocol.StateManager, target string) error {
	_, err := p.addLink(ctx, sm, target, 0)
	return err
}

// AddBTPLink is AddLink recording the BTP network id of the peer
func (p *Protocol) AddBTPLink(ctx context.Context, sm protocol.StateManager, target string, networkID uint64) error {
	_, err := p.addLink(ctx, sm, target, networkID)
	return err
}

func (p *Protocol) addLink(ctx context.Context, sm protocol.StateManager, target string, networkID uint64) (*link, error) {
	if err := p.assertOwner(ctx, sm); err != nil {
		return nil, err
	}
	peer, err := btp.ParseAddress(target)
	if err != nil {
		return nil, err
	}
	net := peer.Network()
	if net == p.btpAddr.Network() {
		return nil, errors.Wrapf(btp.ErrInvalidArgument, "cannot link to own network %s", net)
	}
	list, err := p.linkList(sm)
	if err != nil {
		return nil, err
	}
	if indexOf(list.Nets, net) >= 0 {
		return nil, errors.Wrapf(btp.ErrAlreadyExists, "link %s", net)
	}
	peers := make([]string, 0, len(list.Nets))
	for _, other := range list.Nets {
		l, err := p.link(sm, other)
		if err != nil {
			return nil, err
		}
		peers = append(peers, l.Peer)
	}
	l := &link{
		Peer:      peer.String(),
		NetworkID: networkID,
	}
	list.Nets = append(list.Nets, net)
	if err := p.putState(sm, _linksKey, list); err != nil {
		return nil, err
	}
	if err := p.putLink(sm, net, l); err != nil {
		return nil, err
	}
	if err := p.sendInternal(sm, net, &InitMessage{Links: peers}); err != nil {
		return nil, err
	}
	for _, other := range list.Nets[:len(list.Nets)-1] {
		if err := p.sendInternal(sm, other, &LinkMessage{Link: l.Peer}); err != nil {
			return nil, err
		}
	}
	p.logger.Info("Link added.", zap.String("link", l.Peer))
	return l, nil
}

// RemoveLink removes the link to target, which must not be the next hop of any route
func (p *Protocol) RemoveLink(ctx context.Context, sm protocol.StateManager, target string) error {
	if err := p.assertOwner(ctx, sm); err != nil {
		return err
	}
	peer, err := btp.ParseAddress(target)
	if err != nil {
		return err
	}
	net := peer.Network()
	list, err := p.linkList(sm)
	if err != nil {
		return err
	}
	if indexOf(list.Nets, net) < 0 {
		return errors.Wrapf(btp.ErrNotExists, "link %s", net)
	}
	r, err := p.routes(sm)
	if err != nil {
		return err
	}
	for _, rt := range r.Routes {
		if rt.Link == net {
			return errors.Wrapf(btp.ErrReferenceExists, "route to %s goes through link %s", rt.Net, net)
		}
	}
	l, err := p.link(sm, net)
	if err != nil {
		return err
	}
	list.Nets = remove(list.Nets, net)
	if err := p.putState(sm, _linksKey, list); err != nil {
		return err
	}
	for _, key := range [][]byte{linkKey(net), fragmentKey(net)} {
		if err := p.deleteState(sm, key); err != nil {
			return err
		}
	}
	for _, other := range list.Nets {
		if err := p.sendInternal(sm, other, &UnlinkMessage{Link: l.Peer}); err != nil {
			return err
		}
	}
	p.logger.Info("Link removed.", zap.String("link", l.Peer))
	return nil
}

// Links returns the BTP addresses of the peers linked
func (p *Protocol) Links(sr protocol.StateReader) ([]string, error) {
	list, err := p.linkList(sr)
	if err != nil {
		return nil, err
	}
	peers := make([]string, 0, len(list.Nets))
	for _, net := range list.Nets {
		l, err := p.link(sr, net)
		if err != nil {
			return nil, err
		}
		peers = append(peers, l.Peer)
	}
	return peers, nil
}

// SetBTPLinkNetworkID updates the BTP network id of the link to target
func (p *Protocol) SetBTPLinkNetworkID(ctx context.Context, sm protocol.StateManager, target string, networkID uint64) error {
	if err := p.assertOwner(ctx, sm); err != nil {
		return err
	}
	net, l, err := p.existingLink(sm, target)
	if err != nil {
		return err
	}
	l.NetworkID = networkID
	return p.putLink(sm, net, l)
}

// existingLink returns the link to target, NotExists if there is none
func (p *Protocol) existingLink(sr protocol.StateReader, target string) (string, *link, error) {
	peer, err := btp.ParseAddress(target)
	if err != nil {
		return "", nil, err
	}
	l, err := p.link(sr, peer.Network())
	if errors.Cause(err) == state.ErrStateNotExist {
		return "", nil, errors.Wrapf(btp.ErrNotExists, "link %s", target)
	}
	if err != nil {
		return "", nil, err
	}
	return peer.Network(), l, nil
}

// AddRoute routes the messages to the network of dst through the link to next
func (p *Protocol) AddRoute(ctx context.Context, sm protocol.StateManager, dst string, next string) error {
	if err := p.assertOwner(ctx, sm); err != nil {
		return err
	}
	dstAddr, err := btp.ParseAddress(dst)
	if err != nil {
		return err
	}
	net, _, err := p.existingLink(sm, next)
	if err != nil {
		return err
	}
	r, err := p.routes(sm)
	if err != nil {
		return err
	}
	if _, ok := r.get(dstAddr.Network()); ok {
		return errors.Wrapf(btp.ErrAlreadyExists, "route to %s", dstAddr.Network())
	}
	r.Routes = append(r.Routes, route{
		Net:  dstAddr.Network(),
		Dst:  dstAddr.String(),
		Link: net,
	})
	return p.putState(sm, _routesKey, r)
}

// RemoveRoute removes the route to the network of dst
func (p *Protocol) RemoveRoute(ctx context.Context, sm protocol.StateManager, dst string) error {
	if err := p.assertOwner(ctx, sm); err != nil {
		return err
	}
	dstAddr, err := btp.ParseAddress(dst)
	if err != nil {
		return err
	}
	r, err := p.routes(sm)
	if err != nil {
		return err
	}
	if !r.delete(dstAddr.Network()) {
		return errors.Wrapf(btp.ErrNotExists, "route to %s", dstAddr.Network())
	}
	return p.putState(sm, _routesKey, r)
}

// Routes returns the next hop link of each destination
func (p *Protocol) Routes(sr protocol.StateReader) (map[string]string, error) {
	r, err := p.routes(sr)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(r.Routes))
	for _, rt := range r.Routes {
		l, err := p.link(sr, rt.Link)
		if err != nil {
			return nil, err
		}
		m[rt.Dst] = l.Peer
	}
	return m, nil
}

// AddRelay authorizes addr to relay messages from target
func (p *Protocol) AddRelay(ctx context.Context, sm protocol.StateManager, target string, addr address.Address) error {
	if err := p.assertOwner(ctx, sm); err != nil {
		return err
	}
	if addr == nil {
		return errors.Wrap(btp.ErrInvalidArgument, "nil relay")
	}
	net, l, err := p.existingLink(sm, target)
	if err != nil {
		return err
	}
	if indexOf(l.Relays, addr.String()) >= 0 {
		return errors.Wrapf(btp.ErrAlreadyExists, "relay %s of link %s", addr, target)
	}
	l.Relays = append(l.Relays, addr.String())
	return p.putLink(sm, net, l)
}

// RemoveRelay revokes the authorization of addr on target
func (p *Protocol) RemoveRelay(ctx context.Context, sm protocol.StateManager, target string, addr address.Address) error {
	if err := p.assertOwner(ctx, sm); err != nil {
		return err
	}
	if addr == nil {
		return errors.Wrap(btp.ErrInvalidArgument, "nil relay")
	}
	net, l, err := p.existingLink(sm, target)
	if err != nil {
		return err
	}
	if indexOf(l.Relays, addr.String()) < 0 {
		return errors.Wrapf(btp.ErrNotExists, "relay %s of link %s", addr, target)
	}
	l.Relays = remove(l.Relays, addr.String())
	return p.putLink(sm, net, l)
}

// Relays returns the relays authorized on target
func (p *Protocol) Relays(sr protocol.StateReader, target string) ([]string, error) {
	_, l, err := p.existingLink(sr, target)
	if err != nil {
		return nil, err
	}
	return l.Relays, nil
}

// SetLinkSackTerm sets the interval in blocks between two sacks sent to target
func (p *Protocol) SetLinkSackTerm(ctx context.Context, sm protocol.StateManager, target string, term uint64) error {
	if err := p.assertOwner(ctx, sm); err != nil {
		return err
	}
	net, l, err := p.existingLink(sm, target)
	if err != nil {
		return err
	}
	l.SackTerm = term
	l.SackNext = 0
	if term > 0 {
		l.SackNext = protocol.MustGetBlockCtx(ctx).BlockHeight + term
	}
	return p.putLink(sm, net, l)
}
