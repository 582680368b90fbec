// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/iotexproject/go-pkgs/crypto"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/iotexproject/iotex-btp/action"
	"github.com/iotexproject/iotex-btp/btp"
	"github.com/iotexproject/iotex-btp/chainservice"
	"github.com/iotexproject/iotex-btp/config"
	"github.com/iotexproject/iotex-btp/pkg/log"
)

// env is the host the commands operate on
type env struct {
	configPaths []string
	key         string
	value       string

	cfg    config.Config
	cs     *chainservice.ChainService
	caller address.Address
	out    io.Writer
}

// NewRootCmd creates the btpctl command tree
func NewRootCmd() *cobra.Command {
	e := &env{}
	rootCmd := &cobra.Command{
		Use:           "btpctl",
		Short:         "Command-line interface of a local BTP host",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.close(cmd.Context())
		},
	}
	flags := rootCmd.PersistentFlags()
	flags.StringSliceVarP(&e.configPaths, "config-path", "c", nil, "Config paths, later ones override earlier ones")
	flags.StringVarP(&e.key, "key", "k", "", "Private key of the caller in hex, the bmc owner of the config if empty")
	flags.StringVar(&e.value, "value", "0", "Value attached to the action")

	rootCmd.AddCommand(
		newInitCmd(e),
		newBMCCmd(e),
		newRelayCmd(e),
		newXCallCmd(e),
	)
	return rootCmd
}

func newInitCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Register the configured verifiers and the call service with the message center",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.cs.Bootstrap(cmd.Context()); err != nil {
				return err
			}
			return e.print(map[string]string{
				"bmc":     e.cs.BMC().BTPAddress().String(),
				"address": e.cs.BMC().Address().String(),
			})
		},
	}
}

func (e *env) open(cmd *cobra.Command) error {
	cfg, err := config.New(e.configPaths)
	if err != nil {
		return err
	}
	if err := log.InitLoggers(cfg.Log, cfg.SubLogs); err != nil {
		return errors.Wrap(err, "failed to init loggers")
	}
	if e.caller, err = callerAddress(cfg, e.key); err != nil {
		return err
	}
	cs, err := chainservice.New(cfg)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
		cmd.SetContext(ctx)
	}
	if err := cs.Start(ctx); err != nil {
		return err
	}
	e.cfg, e.cs, e.out = cfg, cs, cmd.OutOrStdout()
	return nil
}

func (e *env) close(ctx context.Context) error {
	if e.cs == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return e.cs.Stop(ctx)
}

func callerAddress(cfg config.Config, key string) (address.Address, error) {
	if key == "" {
		return cfg.OwnerAddress()
	}
	sk, err := crypto.HexStringToPrivateKey(strings.TrimPrefix(key, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}
	return sk.PublicKey().Address(), nil
}

// run runs act on the host on behalf of the caller
func (e *env) run(ctx context.Context, act action.Action) (*action.Receipt, error) {
	value, ok := new(big.Int).SetString(e.value, 10)
	if !ok || value.Sign() < 0 {
		return nil, errors.Wrapf(btp.ErrInvalidArgument, "invalid value %s", e.value)
	}
	return e.cs.StateFactory().RunAction(ctx, action.NewEnvelope(e.caller, value, act))
}

// receiptOutput is the printed form of a receipt
type receiptOutput struct {
	Height      uint64      `yaml:"height"`
	Contract    string      `yaml:"contract"`
	ReturnValue string      `yaml:"returnValue,omitempty"`
	Logs        []logOutput `yaml:"logs,omitempty"`
}

type logOutput struct {
	Address string   `yaml:"address"`
	Topics  []string `yaml:"topics"`
	Data    []string `yaml:"data,omitempty"`
}

func hexes(bs [][]byte) []string {
	ret := make([]string, 0, len(bs))
	for _, b := range bs {
		ret = append(ret, hex.EncodeToString(b))
	}
	return ret
}

func (e *env) printReceipt(r *action.Receipt) error {
	out := receiptOutput{
		Height:   r.BlockHeight,
		Contract: r.ContractAddress,
	}
	if len(r.ReturnValue) > 0 {
		out.ReturnValue = hex.EncodeToString(r.ReturnValue)
	}
	for _, l := range r.Logs() {
		out.Logs = append(out.Logs, logOutput{
			Address: l.Address,
			Topics:  hexes(l.Topics),
			Data:    hexes(l.Data),
		})
	}
	return e.print(out)
}

func (e *env) print(v interface{}) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(e.out, string(b))
	return err
}

func parseAddress(s string) (address.Address, error) {
	addr, err := address.FromString(s)
	if err != nil {
		return nil, errors.Wrapf(btp.ErrInvalidArgument, "invalid address %s", s)
	}
	return addr, nil
}

func parseHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, errors.Wrapf(btp.ErrInvalidArgument, "invalid hex %s", s)
	}
	return b, nil
}
