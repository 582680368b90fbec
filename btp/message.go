// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package btp

import (
	"io"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-btp/codec"
)

type (
	// Message is the unit routed between message centers. Sn > 0 is a request, sn < 0 a response
	// to request -sn and sn == 0 a one-way notification
	Message struct {
		Src     Address
		Dst     Address
		Svc     string
		Sn      int64
		Payload []byte
	}

	messageWire struct {
		Src     Address
		Dst     Address
		Svc     string
		Sn      []byte
		Payload []byte
	}

	// ErrorMessage is the payload of a response, code 0 meaning success
	ErrorMessage struct {
		Code int64
		Msg  string
	}

	errorMessageWire struct {
		Code []byte
		Msg  string
	}
)

// EncodeRLP encodes the message as [src, dst, svc, sn, payload]
func (m *Message) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &messageWire{
		Src:     m.Src,
		Dst:     m.Dst,
		Svc:     m.Svc,
		Sn:      codec.EncodeInt64(m.Sn),
		Payload: m.Payload,
	})
}

// DecodeRLP decodes [src, dst, svc, sn, payload]
func (m *Message) DecodeRLP(s *rlp.Stream) error {
	var wire messageWire
	if err := s.Decode(&wire); err != nil {
		return err
	}
	sn, err := codec.DecodeInt64(wire.Sn)
	if err != nil {
		return err
	}
	*m = Message{
		Src:     wire.Src,
		Dst:     wire.Dst,
		Svc:     wire.Svc,
		Sn:      sn,
		Payload: wire.Payload,
	}
	return nil
}

// Bytes returns the canonical encoding of the message
func (m *Message) Bytes() []byte {
	return codec.MustMarshal(m)
}

// DecodeMessage decodes a BTP message
func DecodeMessage(b []byte) (*Message, error) {
	m := &Message{}
	if err := codec.Unmarshal(b, m); err != nil {
		return nil, errors.Wrap(ErrMalformedPayload, err.Error())
	}
	return m, nil
}

// EncodeRLP encodes the error message as [code, msg]
func (e *ErrorMessage) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &errorMessageWire{
		Code: codec.EncodeInt64(e.Code),
		Msg:  e.Msg,
	})
}

// DecodeRLP decodes [code, msg]
func (e *ErrorMessage) DecodeRLP(s *rlp.Stream) error {
	var wire errorMessageWire
	if err := s.Decode(&wire); err != nil {
		return err
	}
	code, err := codec.DecodeInt64(wire.Code)
	if err != nil {
		return err
	}
	e.Code, e.Msg = code, wire.Msg
	return nil
}

// Bytes returns the canonical encoding of the error message
func (e *ErrorMessage) Bytes() []byte {
	return codec.MustMarshal(e)
}

// DecodeErrorMessage decodes an error message
func DecodeErrorMessage(b []byte) (*ErrorMessage, error) {
	e := &ErrorMessage{}
	if err := codec.Unmarshal(b, e); err != nil {
		return nil, errors.Wrap(ErrMalformedPayload, err.Error())
	}
	return e, nil
}

// NewErrorMessage converts err into the response payload reported to the peer
func NewErrorMessage(err error) *ErrorMessage {
	if err == nil {
		return &ErrorMessage{Code: int64(Success)}
	}
	code := CodeOf(err)
	msg := code.String()
	if e, ok := errors.Cause(err).(*Error); ok && e.msg != "" {
		msg = e.msg
	}
	return &ErrorMessage{Code: int64(code), Msg: msg}
}
