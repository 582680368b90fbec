// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package bmc

import (
	"github.com/iotexproject/iotex-address/address"

	"github.com/iotexproject/iotex-btp/action"
)

type (
	// AddOwner adds an owner of the message center
	AddOwner struct {
		action.Call
		Owner address.Address
	}

	// RemoveOwner removes an owner of the message center
	RemoveOwner struct {
		action.Call
		Owner address.Address
	}

	// AddVerifier registers the verifier of messages from network Net
	AddVerifier struct {
		action.Call
		Net  string
		Addr address.Address
	}

	// RemoveVerifier unregisters the verifier of network Net
	RemoveVerifier struct {
		action.Call
		Net string
	}

	// AddService registers the local service Name
	AddService struct {
		action.Call
		Name string
		Addr address.Address
	}

	// RemoveService unregisters the local service Name
	RemoveService struct {
		action.Call
		Name string
	}

	// AddLink links the message center to the peer message center at Link
	AddLink struct {
		action.Call
		Link string
	}

	// RemoveLink removes the link to Link
	RemoveLink struct {
		action.Call
		Link string
	}

	// AddBTPLink adds a link together with the BTP network id of the peer
	AddBTPLink struct {
		action.Call
		Link      string
		NetworkID uint64
	}

	// SetBTPLinkNetworkID updates the BTP network id of a link
	SetBTPLinkNetworkID struct {
		action.Call
		Link      string
		NetworkID uint64
	}

	// AddRoute routes messages to the network of Dst through Link
	AddRoute struct {
		action.Call
		Dst  string
		Link string
	}

	// RemoveRoute removes the route to the network of Dst
	RemoveRoute struct {
		action.Call
		Dst string
	}

	// AddRelay authorizes Addr to relay messages from Link
	AddRelay struct {
		action.Call
		Link string
		Addr address.Address
	}

	// RemoveRelay revokes the authorization of Addr on Link
	RemoveRelay struct {
		action.Call
		Link string
		Addr address.Address
	}

	// SetLinkSackTerm sets the interval in blocks between two sacks sent to Link, zero disables sacks
	SetLinkSackTerm struct {
		action.Call
		Link string
		Term uint64
	}

	// HandleRelayMessage delivers a relay message from Prev
	HandleRelayMessage struct {
		action.Call
		Prev string
		Msg  []byte
	}

	// HandleFragment delivers a fragment of a relay message from Prev. The first fragment has index -N, the
	// following ones N-1 down to 0, the last one
	HandleFragment struct {
		action.Call
		Prev  string
		Msg   []byte
		Index int64
	}

	// SendMessage sends a message on behalf of the service Svc
	SendMessage struct {
		action.Call
		To  string
		Svc string
		Sn  int64
		Msg []byte
	}

	// DropMessage skips the next inbound message from Link, replying Dropped to Svc if Sn is positive
	DropMessage struct {
		action.Call
		Link string
		Seq  uint64
		Svc  string
		Sn   int64
	}

	// ClaimReward claims the relay reward the caller earned on network Net
	ClaimReward struct {
		action.Call
		Net string
	}
)
