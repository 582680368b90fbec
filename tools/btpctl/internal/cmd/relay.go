// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/iotexproject/iotex-btp/relay"
)

func newRelayCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "relay LINK MESSAGE",
		Short: "Submit a relay message from LINK in hex, in fragments if it exceeds the tx size limit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := parseHex(args[1])
			if err != nil {
				return err
			}
			sender := relay.NewLocalSender(e.cs.StateFactory(), e.caller)
			r, err := relay.NewRelayer(e.cfg.Relay, sender, e.cs.BMC().Address(), args[0])
			if err != nil {
				return err
			}
			receipt, err := r.Relay(cmd.Context(), msg)
			if err != nil {
				return err
			}
			return e.printReceipt(receipt)
		},
	}
}
