// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package log

import "github.com/pkg/errors"

var (
	// ErrReservedName is returned when a sub logger uses the name of the global logger
	ErrReservedName = errors.New("'_global' is a reserved name for global logger")
	// ErrLoggerExists is returned when a sub logger is initialized twice
	ErrLoggerExists = errors.New("sub logger already exists")
)
