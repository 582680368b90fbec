// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// btpctl operates a local BTP host: it bootstraps the message center, administers it, submits relay messages
// and drives the call service.
package main

import (
	"os"

	"github.com/iotexproject/iotex-btp/tools/btpctl/internal/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
