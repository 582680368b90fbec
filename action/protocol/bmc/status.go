// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package bmc

import (
	"context"

	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-btp/action/protocol"
	"github.com/iotexproject/iotex-btp/btp"
)

// LinkState is the stage a link is at
type LinkState int

const (
	// LinkRegistered is a link without verifier, which cannot accept messages
	LinkRegistered LinkState = iota
	// LinkReady is a link with verifier which has not accepted any message yet
	LinkReady
	// LinkActive is a link which has accepted messages
	LinkActive
)

func (s LinkState) String() string {
	switch s {
	case LinkRegistered:
		return "Registered"
	case LinkReady:
		return "Ready"
	case LinkActive:
		return "Active"
	}
	return "Unknown"
}

// LinkStatus is the status of a link
type LinkStatus struct {
	State          LinkState
	RxSeq          uint64
	TxSeq          uint64
	Verifier       *protocol.VerifierStatus
	Relays         []string
	Reachable      []string
	SackTerm       uint64
	SackNext       uint64
	SackHeight     uint64
	SackSeq        uint64
	PeerSackHeight uint64
	PeerSackSeq    uint64
	NetworkID      uint64
	CurrentHeight  uint64
}

// GetStatus returns the status of the link to target
func (p *Protocol) GetStatus(ctx context.Context, sr protocol.StateReader, target string) (*LinkStatus, error) {
	net, l, err := p.existingLink(sr, target)
	if err != nil {
		return nil, err
	}
	height, err := sr.Height()
	if err != nil {
		return nil, err
	}
	s := &LinkStatus{
		State:          LinkRegistered,
		RxSeq:          l.RxSeq,
		TxSeq:          l.TxSeq,
		Relays:         l.Relays,
		Reachable:      l.Reachable,
		SackTerm:       l.SackTerm,
		SackNext:       l.SackNext,
		SackHeight:     l.SackHeight,
		SackSeq:        l.SackSeq,
		PeerSackHeight: l.PeerSackHeight,
		PeerSackSeq:    l.PeerSackSeq,
		NetworkID:      l.NetworkID,
		CurrentHeight:  height,
	}
	mv, err := p.verifier(ctx, sr, net)
	switch {
	case err == nil:
	case btp.Is(err, btp.ErrNotExists):
		return s, nil
	default:
		return nil, err
	}
	if s.Verifier, err = mv.Status(ctx, sr); err != nil {
		return nil, errors.Wrapf(err, "failed to get status of verifier of %s", net)
	}
	s.State = LinkReady
	if l.RxSeq > 0 {
		s.State = LinkActive
	}
	return s, nil
}
