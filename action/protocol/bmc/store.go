// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package bmc

import (
	"math/big"
	"sort"

	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-btp/action/protocol"
	"github.com/iotexproject/iotex-btp/state"
)

var (
	_ownersKey    = []byte("owners")
	_servicesKey  = []byte("services")
	_verifiersKey = []byte("verifiers")
	_routesKey    = []byte("routes")
	_linksKey     = []byte("links")

	_linkKeyPrefix     = "link."
	_fragmentKeyPrefix = "fragment."
	_feeKeyPrefix      = "fee."
	_rewardKeyPrefix   = "reward."
)

type (
	// owners is the set of accounts allowed to configure the message center
	owners struct {
		Owners []string
	}

	entry struct {
		Key   string
		Value string
	}

	// table is a string map kept sorted by key so that it encodes deterministically
	table struct {
		Entries []entry
	}

	// route sends messages to network Net, whose message center is Dst, through the link to network Link
	route struct {
		Net  string
		Dst  string
		Link string
	}

	routes struct {
		Routes []route
	}

	// linkList holds the networks linked, in the order they are added
	linkList struct {
		Nets []string
	}

	// link is the state of the channel to a peer message center
	link struct {
		Peer           string
		RxSeq          uint64
		TxSeq          uint64
		Relays         []string
		Reachable      []string
		SackTerm       uint64
		SackNext       uint64
		SackHeight     uint64
		SackSeq        uint64
		PeerSackHeight uint64
		PeerSackSeq    uint64
		NetworkID      uint64
	}

	// fragment is a relay message being reassembled, Next is the index of the fragment expected
	fragment struct {
		Next uint64
		Data []byte
	}

	// amount is a balance of relay fee
	amount struct {
		Value *big.Int
	}
)

func (o *owners) contains(addr string) bool {
	return indexOf(o.Owners, addr) >= 0
}

func (t *table) get(key string) (string, bool) {
	i := sort.Search(len(t.Entries), func(i int) bool { return t.Entries[i].Key >= key })
	if i < len(t.Entries) && t.Entries[i].Key == key {
		return t.Entries[i].Value, true
	}
	return "", false
}

func (t *table) set(key, value string) {
	i := sort.Search(len(t.Entries), func(i int) bool { return t.Entries[i].Key >= key })
	if i < len(t.Entries) && t.Entries[i].Key == key {
		t.Entries[i].Value = value
		return
	}
	t.Entries = append(t.Entries, entry{})
	copy(t.Entries[i+1:], t.Entries[i:])
	t.Entries[i] = entry{Key: key, Value: value}
}

func (t *table) delete(key string) bool {
	i := sort.Search(len(t.Entries), func(i int) bool { return t.Entries[i].Key >= key })
	if i < len(t.Entries) && t.Entries[i].Key == key {
		t.Entries = append(t.Entries[:i], t.Entries[i+1:]...)
		return true
	}
	return false
}

func (t *table) toMap() map[string]string {
	m := make(map[string]string, len(t.Entries))
	for _, e := range t.Entries {
		m[e.Key] = e.Value
	}
	return m
}

func (r *routes) get(net string) (route, bool) {
	for _, rt := range r.Routes {
		if rt.Net == net {
			return rt, true
		}
	}
	return route{}, false
}

func (r *routes) delete(net string) bool {
	for i, rt := range r.Routes {
		if rt.Net == net {
			r.Routes = append(r.Routes[:i], r.Routes[i+1:]...)
			return true
		}
	}
	return false
}

func indexOf(list []string, s string) int {
	for i, e := range list {
		if e == s {
			return i
		}
	}
	return -1
}

func remove(list []string, s string) []string {
	if i := indexOf(list, s); i >= 0 {
		return append(list[:i], list[i+1:]...)
	}
	return list
}

func (p *Protocol) state(sr protocol.StateReader, key []byte, s interface{}) error {
	_, err := sr.State(s, protocol.NamespaceOption(p.addr.String()), protocol.KeyOption(key))
	return err
}

// stateOrEmpty reads the state at key, leaving s untouched if it does not exist yet
func (p *Protocol) stateOrEmpty(sr protocol.StateReader, key []byte, s interface{}) error {
	if err := p.state(sr, key, s); err != nil && errors.Cause(err) != state.ErrStateNotExist {
		return err
	}
	return nil
}

func (p *Protocol) putState(sm protocol.StateManager, key []byte, s interface{}) error {
	_, err := sm.PutState(s, protocol.NamespaceOption(p.addr.String()), protocol.KeyOption(key))
	return err
}

func (p *Protocol) deleteState(sm protocol.StateManager, key []byte) error {
	_, err := sm.DelState(protocol.NamespaceOption(p.addr.String()), protocol.KeyOption(key))
	return err
}

func (p *Protocol) owners(sr protocol.StateReader) (*owners, error) {
	o := owners{}
	err := p.state(sr, _ownersKey, &o)
	switch errors.Cause(err) {
	case nil:
		return &o, nil
	case state.ErrStateNotExist:
		return &owners{Owners: []string{p.owner.String()}}, nil
	default:
		return nil, err
	}
}

func (p *Protocol) table(sr protocol.StateReader, key []byte) (*table, error) {
	t := table{}
	if err := p.stateOrEmpty(sr, key, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (p *Protocol) routes(sr protocol.StateReader) (*routes, error) {
	r := routes{}
	if err := p.stateOrEmpty(sr, _routesKey, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *Protocol) linkList(sr protocol.StateReader) (*linkList, error) {
	l := linkList{}
	if err := p.stateOrEmpty(sr, _linksKey, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// link returns the link to network net, state.ErrStateNotExist if there is none
func (p *Protocol) link(sr protocol.StateReader, net string) (*link, error) {
	l := link{}
	if err := p.state(sr, linkKey(net), &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (p *Protocol) putLink(sm protocol.StateManager, net string, l *link) error {
	return p.putState(sm, linkKey(net), l)
}

func (p *Protocol) amount(sr protocol.StateReader, key []byte) (*big.Int, error) {
	a := amount{}
	if err := p.stateOrEmpty(sr, key, &a); err != nil {
		return nil, err
	}
	if a.Value == nil {
		return big.NewInt(0), nil
	}
	return a.Value, nil
}

func (p *Protocol) putAmount(sm protocol.StateManager, key []byte, v *big.Int) error {
	if v.Sign() == 0 {
		if err := p.deleteState(sm, key); err != nil {
			return err
		}
		return nil
	}
	return p.putState(sm, key, &amount{Value: v})
}

func linkKey(net string) []byte {
	return []byte(_linkKeyPrefix + net)
}

func fragmentKey(net string) []byte {
	return []byte(_fragmentKeyPrefix + net)
}

func feeKey(net string) []byte {
	return []byte(_feeKeyPrefix + net)
}

func rewardKey(net, addr string) []byte {
	return []byte(_rewardKeyPrefix + net + "/" + addr)
}
