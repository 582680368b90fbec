// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package action

import (
	"math/big"

	"github.com/iotexproject/iotex-address/address"
)

// Action is a call addressed to the protocol deployed at Contract()
type Action interface {
	Contract() string
}

// Call is embedded by actions to carry the address of the protocol they invoke
type Call struct {
	To string
}

// Contract returns the address of the protocol handling the action
func (c Call) Contract() string { return c.To }

// Envelope is an action together with the account submitting it and the native value attached
type Envelope struct {
	caller address.Address
	value  *big.Int
	action Action
}

// NewEnvelope wraps act into an envelope, a nil value means no value is attached
func NewEnvelope(caller address.Address, value *big.Int, act Action) *Envelope {
	if value == nil {
		value = big.NewInt(0)
	}
	return &Envelope{
		caller: caller,
		value:  new(big.Int).Set(value),
		action: act,
	}
}

// Caller returns the account submitting the action
func (elp *Envelope) Caller() address.Address { return elp.caller }

// Value returns a copy of the attached value
func (elp *Envelope) Value() *big.Int { return new(big.Int).Set(elp.value) }

// Action returns the wrapped action
func (elp *Envelope) Action() Action { return elp.action }
