// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package action

import (
	"bytes"

	"github.com/iotexproject/go-pkgs/hash"
)

const (
	// FailureReceiptStatus is the status that contract execution failed
	FailureReceiptStatus = uint64(0)
	// SuccessReceiptStatus is the status that contract execution success
	SuccessReceiptStatus = uint64(1)
)

type (
	// Receipt represents the result of an action
	Receipt struct {
		Status          uint64
		BlockHeight     uint64
		ContractAddress string
		ReturnValue     []byte
		logs            []*Log
	}

	// Log stores an event emitted by a protocol. Topics[0] is the hash of the event signature, the rest of
	// Topics are the indexed arguments
	Log struct {
		Address     string
		Topics      [][]byte
		Data        [][]byte
		BlockHeight uint64
	}
)

// NewLog creates an event log of the given signature, e.g. "Message(str,int,bytes)"
func NewLog(addr, signature string, indexed [][]byte, data [][]byte) *Log {
	sig := hash.Hash256b([]byte(signature))
	return &Log{
		Address: addr,
		Topics:  append([][]byte{sig[:]}, indexed...),
		Data:    data,
	}
}

// Is reports whether the log is an event of the given signature
func (l *Log) Is(signature string) bool {
	if len(l.Topics) == 0 {
		return false
	}
	sig := hash.Hash256b([]byte(signature))
	return bytes.Equal(l.Topics[0], sig[:])
}

// Indexed returns the i-th indexed argument, i starting at 1 like the topics
func (l *Log) Indexed(i int) []byte {
	if i <= 0 || i >= len(l.Topics) {
		return nil
	}
	return l.Topics[i]
}

// AddLogs adds logs to the receipt
func (receipt *Receipt) AddLogs(logs ...*Log) *Receipt {
	receipt.logs = append(receipt.logs, logs...)
	return receipt
}

// Logs returns the logs of the receipt
func (receipt *Receipt) Logs() []*Log {
	return receipt.logs
}

// Filter returns the logs of the given signature emitted by addr, an empty addr matches any emitter
func (receipt *Receipt) Filter(addr, signature string) []*Log {
	var ret []*Log
	for _, l := range receipt.logs {
		if (addr == "" || l.Address == addr) && l.Is(signature) {
			ret = append(ret, l)
		}
	}
	return ret
}
