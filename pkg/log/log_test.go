// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package log

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitLoggers(t *testing.T) {
	require := require.New(t)

	zapCfg := zap.NewDevelopmentConfig()
	require.NoError(InitLoggers(GlobalConfig{Zap: &zapCfg}, map[string]GlobalConfig{
		"bmc": {},
	}))
	require.NotNil(Logger("bmc"))
	require.NotNil(Logger("unknown"))
	require.NotNil(S())

	require.Equal(ErrLoggerExists, InitLoggers(GlobalConfig{}, map[string]GlobalConfig{
		"bmc": {},
	}))
	require.Equal(ErrReservedName, InitLoggers(GlobalConfig{}, map[string]GlobalConfig{
		"_global": {},
	}))
}
