// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package xcall

import (
	"io"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-btp/btp"
	"github.com/iotexproject/iotex-btp/codec"
)

type (
	// CSMessageRequest is the payload of a call sent to another network
	CSMessageRequest struct {
		From     string
		To       string
		Sn       int64
		Rollback bool
		Data     []byte
	}

	csMessageRequestWire struct {
		From     string
		To       string
		Sn       []byte
		Rollback bool
		Data     []byte
	}

	// CSMessageResponse is the payload of the response to a call
	CSMessageResponse = btp.ErrorMessage
)

// EncodeRLP encodes the request as [from, to, sn, rollback, data]
func (r *CSMessageRequest) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &csMessageRequestWire{
		From:     r.From,
		To:       r.To,
		Sn:       codec.EncodeInt64(r.Sn),
		Rollback: r.Rollback,
		Data:     r.Data,
	})
}

// DecodeRLP decodes [from, to, sn, rollback, data]
func (r *CSMessageRequest) DecodeRLP(s *rlp.Stream) error {
	var wire csMessageRequestWire
	if err := s.Decode(&wire); err != nil {
		return err
	}
	sn, err := codec.DecodeInt64(wire.Sn)
	if err != nil {
		return err
	}
	*r = CSMessageRequest{
		From:     wire.From,
		To:       wire.To,
		Sn:       sn,
		Rollback: wire.Rollback,
		Data:     wire.Data,
	}
	return nil
}

// Bytes returns the encoded request
func (r *CSMessageRequest) Bytes() []byte {
	return codec.MustMarshal(r)
}

// DecodeCSMessageRequest decodes a request
func DecodeCSMessageRequest(b []byte) (*CSMessageRequest, error) {
	r := &CSMessageRequest{}
	if err := codec.Unmarshal(b, r); err != nil {
		return nil, errors.Wrap(btp.ErrMalformedPayload, err.Error())
	}
	return r, nil
}

// DecodeCSMessageResponse decodes a response
func DecodeCSMessageResponse(b []byte) (*CSMessageResponse, error) {
	return btp.DecodeErrorMessage(b)
}
