// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package chainservice

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/iotex-btp/action/protocol"
	"github.com/iotexproject/iotex-btp/action/protocol/xcall"
	"github.com/iotexproject/iotex-btp/config"
	"github.com/iotexproject/iotex-btp/db"
	"github.com/iotexproject/iotex-btp/test/identityset"
)

func testConfig() config.Config {
	cfg := config.Default
	cfg.BMC.Owner = identityset.Address(0).String()
	cfg.Verifiers = []config.Verifier{{Net: "0x2.icon", Offset: 10}, {Net: "0x3.bsc"}}
	cfg.XCall.DApp = true
	return cfg
}

func TestChainService(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	clk := clock.NewMock()
	clk.Add(time.Hour)

	cfg := testConfig()
	cfg.XCall.Fees = []config.XCallFees{{Relay: 3, Protocol: 1}, {Net: "0x2.icon", Relay: 5, Protocol: 2}}
	cs, err := New(cfg, WithTesting(), WithClock(clk))
	require.NoError(err)
	require.NoError(cs.Start(ctx))
	defer func() { require.NoError(cs.Stop(ctx)) }()

	require.NoError(cs.Bootstrap(ctx))
	// bootstrapping again is a no-op
	require.NoError(cs.Bootstrap(ctx))

	ws, err := cs.StateFactory().NewWorkingSet()
	require.NoError(err)
	verifiers, err := cs.BMC().Verifiers(ws)
	require.NoError(err)
	require.Len(verifiers, 2)
	icon, ok := cs.Verifier("0x2.icon")
	require.True(ok)
	require.Equal(icon.Address().String(), verifiers["0x2.icon"])
	status, err := icon.Status(ctx, ws)
	require.NoError(err)
	require.Equal(uint64(10), status.Offset)
	services, err := cs.BMC().Services(ws)
	require.NoError(err)
	require.Equal(map[string]string{xcall.ServiceName: cs.XCall().Address().String()}, services)
	require.NotNil(cs.DApp())
	fees, err := cs.XCall().FixedFees(ws, "0x2.icon")
	require.NoError(err)
	require.Equal(big.NewInt(5), fees.Relay)
	require.Equal(big.NewInt(2), fees.Protocol)
	total, err := cs.XCall().TotalFixedFees(ws, "0x3.bsc")
	require.NoError(err)
	require.Equal(big.NewInt(4), total)

	_, ok = cs.Registry().CallServiceReceiver(cs.DApp().Address().String())
	require.True(ok)
	_, ok = cs.Registry().MessageCenter(cs.BMC().Address().String())
	require.True(ok)

	blkCtx := protocol.MustGetBlockCtx(cs.StateFactory().Context(ctx))
	require.Equal(clk.Now(), blkCtx.BlockTimeStamp)
}

func TestChainServicePersisted(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	cfg := testConfig()
	cfg.XCall.Enabled, cfg.XCall.DApp = false, false
	cfg.DB.DBType = db.DBBolt
	cfg.DB.DbPath = filepath.Join(t.TempDir(), "btp.db")

	cs, err := New(cfg)
	require.NoError(err)
	require.Nil(cs.XCall())
	require.NoError(cs.Start(ctx))
	require.NoError(cs.Bootstrap(ctx))
	height, err := cs.StateFactory().Height()
	require.NoError(err)
	require.Equal(uint64(2), height)
	require.NoError(cs.Stop(ctx))

	cs, err = New(cfg)
	require.NoError(err)
	require.NoError(cs.Start(ctx))
	defer cs.Stop(ctx)
	h, err := cs.StateFactory().Height()
	require.NoError(err)
	require.Equal(height, h)
	ws, err := cs.StateFactory().NewWorkingSet()
	require.NoError(err)
	verifiers, err := cs.BMC().Verifiers(ws)
	require.NoError(err)
	require.Len(verifiers, 2)
}

func TestNewInvalid(t *testing.T) {
	cfg := testConfig()
	cfg.BMC.Owner = "io1"
	_, err := New(cfg, WithTesting())
	require.Error(t, err)

	cfg = testConfig()
	cfg.Verifiers = []config.Verifier{{Net: "0x2.icon"}, {Net: "0x2.icon"}}
	_, err = New(cfg, WithTesting())
	require.Error(t, err)
}
