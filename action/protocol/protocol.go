// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package protocol

import (
	"context"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-btp/action"
	"github.com/iotexproject/iotex-btp/btp"
)

var (
	// ErrUnimplemented indicates a method is not implemented yet
	ErrUnimplemented = errors.New("method is unimplemented")
	// ErrUnknownAction indicates the protocol cannot handle the action
	ErrUnknownAction = errors.New("unknown action")
)

// Protocol defines the protocol interfaces atop the BTP host
type Protocol interface {
	ActionHandler
	// Address returns the address the protocol is deployed at
	Address() address.Address
}

// ActionHandler is the interface for the action handlers. The host passes every action addressed to the protocol
// to Handle, which parses the sub-type of the action to decide how to process it.
type ActionHandler interface {
	Handle(context.Context, action.Action, StateManager) (*action.Receipt, error)
}

// MessageCenter is the router of BTP messages, local services send messages through it
type MessageCenter interface {
	Protocol
	// SendMessage sends msg to the service svc on network to, the caller must be the service registered as svc
	SendMessage(ctx context.Context, sm StateManager, to string, svc string, sn int64, msg []byte) error
	// BTPAddress returns the BTP address of the message center
	BTPAddress() btp.Address
}

// VerifierStatus is the progress of a message verifier
type VerifierStatus struct {
	Height  uint64
	Offset  uint64
	LastSeq uint64
}

// MessageVerifier validates relay messages on behalf of the message center
type MessageVerifier interface {
	Protocol
	// HandleRelayMessage verifies msg relayed from prev and returns the BTP messages it carries in order, seq is
	// the next inbound sequence expected by the message center bmc
	HandleRelayMessage(ctx context.Context, sm StateManager, bmc string, prev string, seq uint64, msg []byte) ([][]byte, error)
	// Status returns the progress of the verifier
	Status(ctx context.Context, sr StateReader) (*VerifierStatus, error)
}

// BTPService handles BTP messages delivered by the message center
type BTPService interface {
	Protocol
	// HandleBTPMessage handles msg sent by the service on network from with serial number sn
	HandleBTPMessage(ctx context.Context, sm StateManager, from string, svc string, sn int64, msg []byte) error
}

// CallServiceReceiver receives calls delivered by the call service
type CallServiceReceiver interface {
	Protocol
	// HandleCallMessage handles data sent by from, a BTP address string
	HandleCallMessage(ctx context.Context, sm StateManager, from string, data []byte) error
}

// NewReceipt creates a success receipt for the protocol at addr
func NewReceipt(ctx context.Context, addr address.Address, ret []byte) *action.Receipt {
	height := uint64(0)
	if blkCtx, ok := GetBlockCtx(ctx); ok {
		height = blkCtx.BlockHeight
	}
	return &action.Receipt{
		Status:          action.SuccessReceiptStatus,
		BlockHeight:     height,
		ContractAddress: addr.String(),
		ReturnValue:     ret,
	}
}

// HashAddress derives a protocol address from its identifier
func HashAddress(id string) (address.Address, error) {
	h := hash.Hash160b([]byte(id))
	return address.FromBytes(h[:])
}
