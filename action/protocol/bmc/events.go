// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package bmc

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-btp/action"
	"github.com/iotexproject/iotex-btp/btp"
	"github.com/iotexproject/iotex-btp/codec"
)

// event signatures
const (
	MessageEventSig     = "Message(str,int,bytes)"
	BTPEventSig         = "BTPEvent(str,int,str,str)"
	ClaimRewardEventSig = "ClaimReward(str,str,int)"
)

// values of BTPEvent.Event
const (
	EventSend    = "Send"
	EventReceive = "Receive"
	EventRoute   = "Route"
	EventError   = "Error"
	EventDrop    = "Drop"
)

var errInvalidLog = errors.New("invalid event log")

type (
	// MessageEvent is emitted for every message leaving through a link, relayers carry it to Next
	MessageEvent struct {
		Next string
		Seq  uint64
		Msg  []byte
	}

	// BTPEvent audits what the message center did with a message
	BTPEvent struct {
		Src   string
		Nsn   int64
		Next  string
		Event string
	}

	// ClaimRewardEvent is emitted when a relayer claims its reward
	ClaimRewardEvent struct {
		Net     string
		Claimer string
		Amount  *big.Int
	}
)

func (p *Protocol) messageLog(next string, seq uint64, msg []byte) *action.Log {
	return action.NewLog(
		p.addr.String(),
		MessageEventSig,
		[][]byte{[]byte(next), codec.EncodeInt(new(big.Int).SetUint64(seq))},
		[][]byte{msg},
	)
}

func (p *Protocol) btpEventLog(src string, nsn int64, next, event string) *action.Log {
	return action.NewLog(
		p.addr.String(),
		BTPEventSig,
		[][]byte{[]byte(src), codec.EncodeInt64(nsn)},
		[][]byte{[]byte(next), []byte(event)},
	)
}

func (p *Protocol) claimRewardLog(net, claimer string, amount *big.Int) *action.Log {
	return action.NewLog(
		p.addr.String(),
		ClaimRewardEventSig,
		[][]byte{[]byte(net)},
		[][]byte{[]byte(claimer), codec.EncodeInt(amount)},
	)
}

// ParseMessageEvent decodes a Message event log
func ParseMessageEvent(l *action.Log) (*MessageEvent, error) {
	if !l.Is(MessageEventSig) || len(l.Topics) != 3 || len(l.Data) != 1 {
		return nil, errInvalidLog
	}
	seq, err := codec.DecodeInt(l.Indexed(2))
	if err != nil {
		return nil, err
	}
	if seq.Sign() < 0 || !seq.IsUint64() {
		return nil, errors.Wrapf(btp.ErrMalformedPayload, "invalid seq %s", seq)
	}
	return &MessageEvent{
		Next: string(l.Indexed(1)),
		Seq:  seq.Uint64(),
		Msg:  l.Data[0],
	}, nil
}

// ParseBTPEvent decodes a BTPEvent event log
func ParseBTPEvent(l *action.Log) (*BTPEvent, error) {
	if !l.Is(BTPEventSig) || len(l.Topics) != 3 || len(l.Data) != 2 {
		return nil, errInvalidLog
	}
	nsn, err := codec.DecodeInt64(l.Indexed(2))
	if err != nil {
		return nil, err
	}
	return &BTPEvent{
		Src:   string(l.Indexed(1)),
		Nsn:   nsn,
		Next:  string(l.Data[0]),
		Event: string(l.Data[1]),
	}, nil
}

// ParseClaimRewardEvent decodes a ClaimReward event log
func ParseClaimRewardEvent(l *action.Log) (*ClaimRewardEvent, error) {
	if !l.Is(ClaimRewardEventSig) || len(l.Topics) != 2 || len(l.Data) != 2 {
		return nil, errInvalidLog
	}
	amount, err := codec.DecodeInt(l.Data[1])
	if err != nil {
		return nil, err
	}
	return &ClaimRewardEvent{
		Net:     string(l.Indexed(1)),
		Claimer: string(l.Data[0]),
		Amount:  amount,
	}, nil
}

// MessageEvents returns the Message events in the receipt
func MessageEvents(r *action.Receipt) []*MessageEvent {
	var evs []*MessageEvent
	for _, l := range r.Filter("", MessageEventSig) {
		if ev, err := ParseMessageEvent(l); err == nil {
			evs = append(evs, ev)
		}
	}
	return evs
}

// BTPEvents returns the BTPEvent events in the receipt
func BTPEvents(r *action.Receipt) []*BTPEvent {
	var evs []*BTPEvent
	for _, l := range r.Filter("", BTPEventSig) {
		if ev, err := ParseBTPEvent(l); err == nil {
			evs = append(evs, ev)
		}
	}
	return evs
}
