// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"math/big"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/iotexproject/iotex-btp/action"
	"github.com/iotexproject/iotex-btp/action/protocol/xcall"
	"github.com/iotexproject/iotex-btp/btp"
)

func newXCallCmd(e *env) *cobra.Command {
	xcallCmd := &cobra.Command{
		Use:   "xcall",
		Short: "Drive the call service",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := e.open(cmd); err != nil {
				return err
			}
			if e.cs.XCall() == nil {
				return errors.Wrap(btp.ErrNotExists, "the call service is not enabled")
			}
			return nil
		},
	}
	call := func() action.Call {
		return action.Call{To: e.cs.XCall().Address().String()}
	}
	runE := func(build func(args []string) (action.Action, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			act, err := build(args)
			if err != nil {
				return err
			}
			r, err := e.run(cmd.Context(), act)
			if err != nil {
				return err
			}
			return e.printReceipt(r)
		}
	}

	var rollback string
	sendCmd := &cobra.Command{
		Use:   "send TO DATA",
		Short: "Send DATA in hex to the BTP address TO, attach the fees with --value",
		Args:  cobra.ExactArgs(2),
		RunE: runE(func(args []string) (action.Action, error) {
			data, err := parseHex(args[1])
			if err != nil {
				return nil, err
			}
			act := &xcall.SendCallMessage{Call: call(), To: args[0], Data: data}
			if rollback != "" {
				if act.Rollback, err = parseHex(rollback); err != nil {
					return nil, err
				}
			}
			return act, nil
		}),
	}
	sendCmd.Flags().StringVar(&rollback, "rollback", "", "Rollback data in hex, called back if the call fails")

	feesCmd := &cobra.Command{
		Use:   "fees [NET]",
		Short: "Show the fees of calls to NET, the default fees if NET is omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			net := ""
			if len(args) > 0 {
				net = args[0]
			}
			ws, err := e.cs.StateFactory().NewWorkingSet()
			if err != nil {
				return err
			}
			fees, err := e.cs.XCall().FixedFees(ws, net)
			if err != nil {
				return err
			}
			accrued, err := e.cs.XCall().AccruedFees(ws, e.caller)
			if err != nil {
				return err
			}
			return e.print(map[string]string{
				"relay":    fees.Relay.String(),
				"protocol": fees.Protocol.String(),
				"total":    new(big.Int).Add(fees.Relay, fees.Protocol).String(),
				"accrued":  accrued.String(),
			})
		},
	}

	xcallCmd.AddCommand(
		sendCmd,
		&cobra.Command{
			Use:   "execute REQ_ID",
			Short: "Execute a received call",
			Args:  cobra.ExactArgs(1),
			RunE: runE(func(args []string) (action.Action, error) {
				id, err := strconv.ParseUint(args[0], 10, 64)
				return &xcall.ExecuteCall{Call: call(), ReqID: id}, err
			}),
		},
		&cobra.Command{
			Use:   "rollback SN",
			Short: "Execute the rollback of a failed call",
			Args:  cobra.ExactArgs(1),
			RunE: runE(func(args []string) (action.Action, error) {
				sn, err := strconv.ParseUint(args[0], 10, 64)
				return &xcall.ExecuteRollback{Call: call(), Sn: sn}, err
			}),
		},
		feesCmd,
		&cobra.Command{
			Use:   "set-fees NET RELAY PROTOCOL",
			Short: "Set the fees of calls to NET, an empty NET sets the default fees",
			Args:  cobra.ExactArgs(3),
			RunE: runE(func(args []string) (action.Action, error) {
				relayFee, ok := new(big.Int).SetString(args[1], 10)
				if !ok {
					return nil, errors.Wrapf(btp.ErrInvalidArgument, "invalid relay fee %s", args[1])
				}
				protocolFee, ok := new(big.Int).SetString(args[2], 10)
				if !ok {
					return nil, errors.Wrapf(btp.ErrInvalidArgument, "invalid protocol fee %s", args[2])
				}
				return &xcall.SetFixedFees{Call: call(), Net: args[0], Relay: relayFee, Protocol: protocolFee}, nil
			}),
		},
		&cobra.Command{
			Use:   "set-admin ADMIN",
			Short: "Hand the administration of the call service over",
			Args:  cobra.ExactArgs(1),
			RunE: runE(func(args []string) (action.Action, error) {
				addr, err := parseAddress(args[0])
				return &xcall.SetAdmin{Call: call(), Admin: addr}, err
			}),
		},
		&cobra.Command{
			Use:   "claim-fees",
			Short: "Claim the protocol fees accrued to the caller",
			Args:  cobra.NoArgs,
			RunE: runE(func([]string) (action.Action, error) {
				return &xcall.ClaimFees{Call: call()}, nil
			}),
		},
	)
	return xcallCmd
}
