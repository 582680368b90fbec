// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package xcall

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-btp/action"
	"github.com/iotexproject/iotex-btp/codec"
)

// event signatures
const (
	CallMessageSentEventSig  = "CallMessageSent(str,str,int)"
	CallMessageEventSig      = "CallMessage(str,str,int,int)"
	CallExecutedEventSig     = "CallExecuted(int,int,str)"
	ResponseMessageEventSig  = "ResponseMessage(int,int,str)"
	RollbackMessageEventSig  = "RollbackMessage(int)"
	RollbackExecutedEventSig = "RollbackExecuted(int,int,str)"
	FixedFeesUpdatedEventSig = "FixedFeesUpdated(str,int,int)"
)

var errInvalidLog = errors.New("invalid event log")

type (
	// CallMessageSentEvent is emitted when a call is sent
	CallMessageSentEvent struct {
		From string
		To   string
		Sn   int64
	}

	// CallMessageEvent is emitted when a call is received, waiting for ExecuteCall
	CallMessageEvent struct {
		From  string
		To    string
		Sn    int64
		ReqID int64
	}

	// ResultEvent carries the outcome of a call, it is the payload of CallExecuted, ResponseMessage and
	// RollbackExecuted. ID is the request id of CallExecuted and the serial number of the others
	ResultEvent struct {
		ID   int64
		Code int64
		Msg  string
	}

	// RollbackMessageEvent is emitted when the rollback of a failed call may be executed
	RollbackMessageEvent struct {
		Sn int64
	}

	// FixedFeesUpdatedEvent is emitted when the fees of a network change
	FixedFeesUpdatedEvent struct {
		Net      string
		Relay    *big.Int
		Protocol *big.Int
	}
)

func int64Bytes(v int64) []byte {
	return codec.EncodeInt64(v)
}

func (p *Protocol) callMessageSentLog(from, to string, sn int64) *action.Log {
	return action.NewLog(p.addr.String(), CallMessageSentEventSig,
		[][]byte{[]byte(from), []byte(to), int64Bytes(sn)}, nil)
}

func (p *Protocol) callMessageLog(from, to string, sn int64, reqID uint64) *action.Log {
	return action.NewLog(p.addr.String(), CallMessageEventSig,
		[][]byte{[]byte(from), []byte(to), int64Bytes(sn)},
		[][]byte{int64Bytes(int64(reqID))})
}

func (p *Protocol) resultLog(sig string, id int64, code int64, msg string) *action.Log {
	return action.NewLog(p.addr.String(), sig,
		[][]byte{int64Bytes(id)},
		[][]byte{int64Bytes(code), []byte(msg)})
}

func (p *Protocol) rollbackMessageLog(sn int64) *action.Log {
	return action.NewLog(p.addr.String(), RollbackMessageEventSig, [][]byte{int64Bytes(sn)}, nil)
}

func (p *Protocol) fixedFeesUpdatedLog(net string, relay, protocol *big.Int) *action.Log {
	return action.NewLog(p.addr.String(), FixedFeesUpdatedEventSig,
		[][]byte{[]byte(net)},
		[][]byte{codec.EncodeInt(relay), codec.EncodeInt(protocol)})
}

// ParseCallMessageSentEvent decodes a CallMessageSent event log
func ParseCallMessageSentEvent(l *action.Log) (*CallMessageSentEvent, error) {
	if !l.Is(CallMessageSentEventSig) || len(l.Topics) != 4 {
		return nil, errInvalidLog
	}
	sn, err := codec.DecodeInt64(l.Indexed(3))
	if err != nil {
		return nil, err
	}
	return &CallMessageSentEvent{
		From: string(l.Indexed(1)),
		To:   string(l.Indexed(2)),
		Sn:   sn,
	}, nil
}

// ParseCallMessageEvent decodes a CallMessage event log
func ParseCallMessageEvent(l *action.Log) (*CallMessageEvent, error) {
	if !l.Is(CallMessageEventSig) || len(l.Topics) != 4 || len(l.Data) != 1 {
		return nil, errInvalidLog
	}
	sn, err := codec.DecodeInt64(l.Indexed(3))
	if err != nil {
		return nil, err
	}
	reqID, err := codec.DecodeInt64(l.Data[0])
	if err != nil {
		return nil, err
	}
	return &CallMessageEvent{
		From:  string(l.Indexed(1)),
		To:    string(l.Indexed(2)),
		Sn:    sn,
		ReqID: reqID,
	}, nil
}

// ParseResultEvent decodes a CallExecuted, ResponseMessage or RollbackExecuted event log
func ParseResultEvent(l *action.Log) (*ResultEvent, error) {
	if !(l.Is(CallExecutedEventSig) || l.Is(ResponseMessageEventSig) || l.Is(RollbackExecutedEventSig)) ||
		len(l.Topics) != 2 || len(l.Data) != 2 {
		return nil, errInvalidLog
	}
	id, err := codec.DecodeInt64(l.Indexed(1))
	if err != nil {
		return nil, err
	}
	code, err := codec.DecodeInt64(l.Data[0])
	if err != nil {
		return nil, err
	}
	return &ResultEvent{
		ID:   id,
		Code: code,
		Msg:  string(l.Data[1]),
	}, nil
}

// ParseRollbackMessageEvent decodes a RollbackMessage event log
func ParseRollbackMessageEvent(l *action.Log) (*RollbackMessageEvent, error) {
	if !l.Is(RollbackMessageEventSig) || len(l.Topics) != 2 {
		return nil, errInvalidLog
	}
	sn, err := codec.DecodeInt64(l.Indexed(1))
	if err != nil {
		return nil, err
	}
	return &RollbackMessageEvent{Sn: sn}, nil
}

// ParseFixedFeesUpdatedEvent decodes a FixedFeesUpdated event log
func ParseFixedFeesUpdatedEvent(l *action.Log) (*FixedFeesUpdatedEvent, error) {
	if !l.Is(FixedFeesUpdatedEventSig) || len(l.Topics) != 2 || len(l.Data) != 2 {
		return nil, errInvalidLog
	}
	relay, err := codec.DecodeInt(l.Data[0])
	if err != nil {
		return nil, err
	}
	protocol, err := codec.DecodeInt(l.Data[1])
	if err != nil {
		return nil, err
	}
	return &FixedFeesUpdatedEvent{
		Net:      string(l.Indexed(1)),
		Relay:    relay,
		Protocol: protocol,
	}, nil
}

// Events returns the events of signature sig in the receipt decoded by parse
func Events[T any](r *action.Receipt, sig string, parse func(*action.Log) (T, error)) []T {
	var evs []T
	for _, l := range r.Filter("", sig) {
		if ev, err := parse(l); err == nil {
			evs = append(evs, ev)
		}
	}
	return evs
}
