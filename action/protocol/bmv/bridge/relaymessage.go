// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package bridge

import (
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-btp/btp"
	"github.com/iotexproject/iotex-btp/codec"
)

type (
	// EventDataBTPMessage is a Message event observed on the source network
	EventDataBTPMessage struct {
		Next    string
		Seq     uint64
		Message []byte
	}

	// ReceiptProof carries the Message events of a receipt at height
	ReceiptProof struct {
		Index  uint32
		Events []*EventDataBTPMessage
		Height uint64
	}

	// RelayMessage is the payload a relayer submits to the message center
	RelayMessage struct {
		Receipts []*ReceiptProof
	}
)

// Bytes returns the encoded relay message
func (rm *RelayMessage) Bytes() []byte {
	return codec.MustMarshal(rm)
}

// DecodeRelayMessage decodes a relay message
func DecodeRelayMessage(b []byte) (*RelayMessage, error) {
	rm := &RelayMessage{}
	if err := codec.Unmarshal(b, rm); err != nil {
		return nil, errors.Wrap(btp.ErrMalformedPayload, err.Error())
	}
	for _, rp := range rm.Receipts {
		if rp == nil {
			return nil, errors.Wrap(btp.ErrMalformedPayload, "nil receipt proof")
		}
		for _, ev := range rp.Events {
			if ev == nil {
				return nil, errors.Wrap(btp.ErrMalformedPayload, "nil event")
			}
		}
	}
	return rm, nil
}
