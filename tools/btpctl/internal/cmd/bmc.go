// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iotexproject/iotex-btp/action"
	"github.com/iotexproject/iotex-btp/action/protocol/bmc"
)

func newBMCCmd(e *env) *cobra.Command {
	bmcCmd := &cobra.Command{
		Use:   "bmc",
		Short: "Administer the message center",
	}
	call := func() action.Call {
		return action.Call{To: e.cs.BMC().Address().String()}
	}
	// runner builds the action of a sub-command from its arguments
	type runner func(args []string) (action.Action, error)
	sub := func(use, short string, nargs int, build runner) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(nargs),
			RunE: func(cmd *cobra.Command, args []string) error {
				act, err := build(args)
				if err != nil {
					return err
				}
				r, err := e.run(cmd.Context(), act)
				if err != nil {
					return err
				}
				return e.printReceipt(r)
			},
		}
	}

	bmcCmd.AddCommand(
		sub("add-owner OWNER", "Add an owner", 1, func(args []string) (action.Action, error) {
			addr, err := parseAddress(args[0])
			return &bmc.AddOwner{Call: call(), Owner: addr}, err
		}),
		sub("remove-owner OWNER", "Remove an owner", 1, func(args []string) (action.Action, error) {
			addr, err := parseAddress(args[0])
			return &bmc.RemoveOwner{Call: call(), Owner: addr}, err
		}),
		sub("add-verifier NET ADDRESS", "Register the verifier of a network", 2, func(args []string) (action.Action, error) {
			addr, err := parseAddress(args[1])
			return &bmc.AddVerifier{Call: call(), Net: args[0], Addr: addr}, err
		}),
		sub("remove-verifier NET", "Unregister the verifier of a network", 1, func(args []string) (action.Action, error) {
			return &bmc.RemoveVerifier{Call: call(), Net: args[0]}, nil
		}),
		sub("add-service NAME ADDRESS", "Register a service", 2, func(args []string) (action.Action, error) {
			addr, err := parseAddress(args[1])
			return &bmc.AddService{Call: call(), Name: args[0], Addr: addr}, err
		}),
		sub("remove-service NAME", "Unregister a service", 1, func(args []string) (action.Action, error) {
			return &bmc.RemoveService{Call: call(), Name: args[0]}, nil
		}),
		sub("add-link LINK", "Link the message center of another network", 1, func(args []string) (action.Action, error) {
			return &bmc.AddLink{Call: call(), Link: args[0]}, nil
		}),
		sub("remove-link LINK", "Unlink the message center of another network", 1, func(args []string) (action.Action, error) {
			return &bmc.RemoveLink{Call: call(), Link: args[0]}, nil
		}),
		sub("add-route DST LINK", "Route the messages to DST through LINK", 2, func(args []string) (action.Action, error) {
			return &bmc.AddRoute{Call: call(), Dst: args[0], Link: args[1]}, nil
		}),
		sub("remove-route DST", "Remove the route to DST", 1, func(args []string) (action.Action, error) {
			return &bmc.RemoveRoute{Call: call(), Dst: args[0]}, nil
		}),
		sub("add-relay LINK ADDRESS", "Authorize a relay of a link", 2, func(args []string) (action.Action, error) {
			addr, err := parseAddress(args[1])
			return &bmc.AddRelay{Call: call(), Link: args[0], Addr: addr}, err
		}),
		sub("remove-relay LINK ADDRESS", "Revoke a relay of a link", 2, func(args []string) (action.Action, error) {
			addr, err := parseAddress(args[1])
			return &bmc.RemoveRelay{Call: call(), Link: args[0], Addr: addr}, err
		}),
		sub("set-sack-term LINK TERM", "Set the sack term of a link in blocks, 0 disables sacks", 2, func(args []string) (action.Action, error) {
			term, err := strconv.ParseUint(args[1], 10, 64)
			return &bmc.SetLinkSackTerm{Call: call(), Link: args[0], Term: term}, err
		}),
		sub("drop-message LINK SEQ SVC SN", "Skip the next message of a link", 4, func(args []string) (action.Action, error) {
			seq, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return nil, err
			}
			sn, err := strconv.ParseInt(args[3], 10, 64)
			return &bmc.DropMessage{Call: call(), Link: args[0], Seq: seq, Svc: args[2], Sn: sn}, err
		}),
		sub("claim-reward NET", "Claim the reward of relaying from a network", 1, func(args []string) (action.Action, error) {
			return &bmc.ClaimReward{Call: call(), Net: args[0]}, nil
		}),
		newBMCStatusCmd(e),
		newBMCListCmd(e),
	)
	return bmcCmd
}

// statusOutput is the printed form of a link status
type statusOutput struct {
	State          string   `yaml:"state"`
	RxSeq          uint64   `yaml:"rxSeq"`
	TxSeq          uint64   `yaml:"txSeq"`
	Relays         []string `yaml:"relays"`
	Reachable      []string `yaml:"reachable"`
	SackTerm       uint64   `yaml:"sackTerm"`
	SackNext       uint64   `yaml:"sackNext"`
	SackHeight     uint64   `yaml:"sackHeight"`
	SackSeq        uint64   `yaml:"sackSeq"`
	PeerSackHeight uint64   `yaml:"peerSackHeight"`
	PeerSackSeq    uint64   `yaml:"peerSackSeq"`
	VerifierHeight uint64   `yaml:"verifierHeight"`
	VerifierSeq    uint64   `yaml:"verifierSeq"`
	CurrentHeight  uint64   `yaml:"currentHeight"`
}

func newBMCStatusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status LINK",
		Short: "Show the status of a link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf := e.cs.StateFactory()
			ws, err := sf.NewWorkingSet()
			if err != nil {
				return err
			}
			s, err := e.cs.BMC().GetStatus(sf.Context(cmd.Context()), ws, args[0])
			if err != nil {
				return err
			}
			out := statusOutput{
				State:          s.State.String(),
				RxSeq:          s.RxSeq,
				TxSeq:          s.TxSeq,
				Relays:         s.Relays,
				Reachable:      s.Reachable,
				SackTerm:       s.SackTerm,
				SackNext:       s.SackNext,
				SackHeight:     s.SackHeight,
				SackSeq:        s.SackSeq,
				PeerSackHeight: s.PeerSackHeight,
				PeerSackSeq:    s.PeerSackSeq,
				CurrentHeight:  s.CurrentHeight,
			}
			if s.Verifier != nil {
				out.VerifierHeight, out.VerifierSeq = s.Verifier.Height, s.Verifier.LastSeq
			}
			return e.print(out)
		},
	}
}

func newBMCListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the owners, verifiers, services, links and routes of the message center",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := e.cs.StateFactory().NewWorkingSet()
			if err != nil {
				return err
			}
			p := e.cs.BMC()
			owners, err := p.Owners(ws)
			if err != nil {
				return err
			}
			verifiers, err := p.Verifiers(ws)
			if err != nil {
				return err
			}
			services, err := p.Services(ws)
			if err != nil {
				return err
			}
			links, err := p.Links(ws)
			if err != nil {
				return err
			}
			routes, err := p.Routes(ws)
			if err != nil {
				return err
			}
			return e.print(map[string]interface{}{
				"btpAddress": p.BTPAddress().String(),
				"owners":     owners,
				"verifiers":  verifiers,
				"services":   services,
				"links":      links,
				"routes":     routes,
			})
		},
	}
}
