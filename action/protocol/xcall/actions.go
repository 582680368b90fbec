// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package xcall

import (
	"math/big"

	"github.com/iotexproject/iotex-address/address"

	"github.com/iotexproject/iotex-btp/action"
)

type (
	// SendCallMessage sends Data to the account of BTP address To, Rollback is called back locally if the call
	// fails remotely
	SendCallMessage struct {
		action.Call
		To       string
		Data     []byte
		Rollback []byte
	}

	// ExecuteCall delivers the received call ReqID to its receiver
	ExecuteCall struct {
		action.Call
		ReqID uint64
	}

	// ExecuteRollback calls back the sender of the failed call Sn with its rollback data
	ExecuteRollback struct {
		action.Call
		Sn uint64
	}

	// SetAdmin hands the administration of the call service over to Admin
	SetAdmin struct {
		action.Call
		Admin address.Address
	}

	// SetFixedFees sets the fees of calls to network Net, an empty Net sets the default fees
	SetFixedFees struct {
		action.Call
		Net      string
		Relay    *big.Int
		Protocol *big.Int
	}

	// ClaimFees pays the caller out the protocol fees accrued to it
	ClaimFees struct {
		action.Call
	}
)
