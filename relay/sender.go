// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package relay

import (
	"context"

	"github.com/iotexproject/iotex-address/address"

	"github.com/iotexproject/iotex-btp/action"
	"github.com/iotexproject/iotex-btp/state/factory"
)

// localSender runs actions on a local host as caller
type localSender struct {
	sf     factory.Factory
	caller address.Address
}

// NewLocalSender creates a sender running actions on sf on behalf of caller
func NewLocalSender(sf factory.Factory, caller address.Address) Sender {
	return &localSender{sf: sf, caller: caller}
}

func (s *localSender) Send(ctx context.Context, act action.Action) (*action.Receipt, error) {
	return s.sf.RunAction(ctx, action.NewEnvelope(s.caller, nil, act))
}
