// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package db

const (
	// DBBolt is the bolt db backend
	DBBolt = "boltdb"
	// DBPebble is the pebble db backend
	DBPebble = "pebbledb"
	// DBMemory keeps everything in memory, state is lost on restart
	DBMemory = "memory"
)

// Config is the config for database
type Config struct {
	DbPath string `yaml:"dbPath"`
	// DBType is the backend of the store, one of boltdb, pebbledb or memory
	DBType string `yaml:"dbType"`
	// NumRetries is the number of retries
	NumRetries uint8 `yaml:"numRetries"`
	// ReadOnly is set db to be opened in read only mode
	ReadOnly bool `yaml:"readOnly"`
}

// DefaultConfig returns the default config
var DefaultConfig = Config{
	DBType:     DBBolt,
	NumRetries: 3,
}
