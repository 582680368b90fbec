// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/iotexproject/iotex-btp/action/protocol"
	"github.com/iotexproject/iotex-btp/action/protocol/bmc"
	"github.com/iotexproject/iotex-btp/action/protocol/bmv/bridge"
	"github.com/iotexproject/iotex-btp/action/protocol/xcall"
	"github.com/iotexproject/iotex-btp/action/protocol/xcall/dapp"
	"github.com/iotexproject/iotex-btp/btp"
	"github.com/iotexproject/iotex-btp/test/identityset"
)

const (
	_net   = "0x1.iotex"
	_netA  = "0x2.icon"
	_peerA = "btp://0x2.icon/cx0000000000000000000000000000000000000001"
)

func writeConfig(t *testing.T) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chain:
  network: `+_net+`
db:
  dbType: boltdb
  dbPath: `+filepath.Join(dir, "btp.db")+`
bmc:
  owner: `+identityset.Address(0).String()+`
verifiers:
  - net: `+_netA+`
xcall:
  dapp: true
relay:
  txSizeLimit: 64
`), 0600))
	return path
}

func execute(t *testing.T, cfgPath string, args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd := NewRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--config-path", cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mustExecute(t *testing.T, cfgPath string, args ...string) string {
	out, err := execute(t, cfgPath, args...)
	require.NoError(t, err, "%v", args)
	return out
}

func TestCommands(t *testing.T) {
	require := require.New(t)
	cfgPath := writeConfig(t)
	owner := identityset.Address(0).String()

	out := mustExecute(t, cfgPath, "init")
	require.Contains(out, "btp://"+_net+"/")
	mustExecute(t, cfgPath, "bmc", "add-link", _peerA)
	mustExecute(t, cfgPath, "bmc", "add-relay", _peerA, owner)

	var status statusOutput
	require.NoError(yaml.Unmarshal([]byte(mustExecute(t, cfgPath, "bmc", "status", _peerA)), &status))
	require.Equal(bmc.LinkReady.String(), status.State)
	require.Equal([]string{owner}, status.Relays)

	list := map[string]interface{}{}
	require.NoError(yaml.Unmarshal([]byte(mustExecute(t, cfgPath, "bmc", "list")), &list))
	require.Equal([]interface{}{_peerA}, list["links"])

	// only owners administer the message center
	_, err := execute(t, cfgPath, "--key", identityset.PrivateKey(1).HexString(), "bmc", "add-link", "btp://0x3.bsc/0x01")
	require.Equal(btp.CodeUnauthorized, btp.CodeOf(err))
	_, err = execute(t, cfgPath, "bmc", "add-relay", _peerA, "io1")
	require.Equal(btp.CodeInvalidArgument, btp.CodeOf(err))

	// relay a call to the sample dapp, fragmented by the tx size limit
	mcAddr, err := protocol.HashAddress(bmc.ProtocolID)
	require.NoError(err)
	xcallAddr, err := protocol.HashAddress(xcall.ProtocolID)
	require.NoError(err)
	dappAddr, err := protocol.HashAddress(dapp.ProtocolID)
	require.NoError(err)
	req := &xcall.CSMessageRequest{
		From: "cx00000000000000000000000000000000000000bb",
		To:   dappAddr.String(),
		Sn:   1,
		Data: []byte("hello from icon"),
	}
	local := btp.MustNewAddress(_net, mcAddr.String())
	m := &btp.Message{
		Src:     btp.MustParseAddress(_peerA),
		Dst:     local,
		Svc:     xcall.ServiceName,
		Sn:      1,
		Payload: req.Bytes(),
	}
	rm := &bridge.RelayMessage{Receipts: []*bridge.ReceiptProof{{
		Height: 10,
		Events: []*bridge.EventDataBTPMessage{{Next: local.String(), Seq: 1, Message: m.Bytes()}},
	}}}
	require.Greater(len(rm.Bytes()), 64)
	out = mustExecute(t, cfgPath, "relay", _peerA, hex.EncodeToString(rm.Bytes()))
	require.Contains(out, "logs")
	_, err = execute(t, cfgPath, "relay", _peerA, hex.EncodeToString(rm.Bytes()))
	require.Equal(btp.CodeInvalidSequence, btp.CodeOf(err))

	require.NoError(yaml.Unmarshal([]byte(mustExecute(t, cfgPath, "bmc", "status", _peerA)), &status))
	require.Equal(bmc.LinkActive.String(), status.State)
	require.Equal(uint64(1), status.RxSeq)
	require.Equal(uint64(10), status.VerifierHeight)

	var receipt receiptOutput
	require.NoError(yaml.Unmarshal([]byte(mustExecute(t, cfgPath, "xcall", "execute", "1")), &receipt))
	require.Equal(xcallAddr.String(), receipt.Contract)
	require.NotEmpty(receipt.Logs)
	_, err = execute(t, cfgPath, "xcall", "execute", "1")
	require.Equal(btp.CodeInvalidRequestID, btp.CodeOf(err))

	// fees
	mustExecute(t, cfgPath, "xcall", "set-fees", _netA, "10", "5")
	fees := map[string]string{}
	require.NoError(yaml.Unmarshal([]byte(mustExecute(t, cfgPath, "xcall", "fees", _netA)), &fees))
	require.Equal("15", fees["total"])
	_, err = execute(t, cfgPath, "xcall", "send", "btp://0x2.icon/cx01", "0x01")
	require.Equal(btp.CodeInsufficientFee, btp.CodeOf(err))
	out = mustExecute(t, cfgPath, "--value", "15", "xcall", "send", "btp://0x2.icon/cx01", "0x01", "--rollback", "02")
	require.NoError(yaml.Unmarshal([]byte(out), &receipt))
	require.Equal("01", receipt.ReturnValue)
	require.NoError(yaml.Unmarshal([]byte(mustExecute(t, cfgPath, "xcall", "fees", _netA)), &fees))
	require.Equal("5", fees["accrued"])
	mustExecute(t, cfgPath, "xcall", "claim-fees")
	_, err = execute(t, cfgPath, "xcall", "rollback", "1")
	require.Equal(btp.CodeInvalidSerialNum, btp.CodeOf(err))
}
