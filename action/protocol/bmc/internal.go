// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package bmc

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-btp/action/protocol"
	"github.com/iotexproject/iotex-btp/btp"
	"github.com/iotexproject/iotex-btp/codec"
)

// types of the messages of the internal service
const (
	InitType   = "Init"
	LinkType   = "Link"
	UnlinkType = "Unlink"
	SackType   = "Sack"
)

type (
	// InternalMessage is the payload of the messages of the internal service
	InternalMessage struct {
		Type    string
		Payload []byte
	}

	// InitMessage tells a new peer about the other links of the sender
	InitMessage struct {
		Links []string
	}

	// LinkMessage tells a peer about a new link of the sender
	LinkMessage struct {
		Link string
	}

	// UnlinkMessage tells a peer about a link removed by the sender
	UnlinkMessage struct {
		Link string
	}

	// SackMessage acknowledges the messages received up to Seq, verified up to Height of the receiver
	SackMessage struct {
		Height uint64
		Seq    uint64
	}

	internalPayload interface {
		messageType() string
	}
)

func (*InitMessage) messageType() string   { return InitType }
func (*LinkMessage) messageType() string   { return LinkType }
func (*UnlinkMessage) messageType() string { return UnlinkType }
func (*SackMessage) messageType() string   { return SackType }

// NewInternalMessage wraps an internal message payload
func NewInternalMessage(payload internalPayload) *InternalMessage {
	return &InternalMessage{
		Type:    payload.messageType(),
		Payload: codec.MustMarshal(payload),
	}
}

// Bytes returns the encoded internal message
func (m *InternalMessage) Bytes() []byte {
	return codec.MustMarshal(m)
}

// DecodeInternalMessage decodes an internal message
func DecodeInternalMessage(b []byte) (*InternalMessage, error) {
	m := &InternalMessage{}
	if err := codec.Unmarshal(b, m); err != nil {
		return nil, errors.Wrap(btp.ErrMalformedPayload, err.Error())
	}
	return m, nil
}

// sendInternal sends payload to the peer on the link to network net
func (p *Protocol) sendInternal(sm protocol.StateManager, net string, payload internalPayload) error {
	l, err := p.link(sm, net)
	if err != nil {
		return err
	}
	peer, err := btp.ParseAddress(l.Peer)
	if err != nil {
		return err
	}
	m := &btp.Message{
		Src:     p.btpAddr,
		Dst:     peer,
		Svc:     InternalService,
		Payload: NewInternalMessage(payload).Bytes(),
	}
	_, err = p.emitMessage(sm, net, m.Bytes())
	return err
}

// handleInternal handles a message of the internal service received on the link to network net
func (p *Protocol) handleInternal(sm protocol.StateManager, net string, m *btp.Message) error {
	if m.Src.Network() != net {
		return errors.Wrapf(btp.ErrUnauthorized, "internal message from %s received on link %s", m.Src, net)
	}
	im, err := DecodeInternalMessage(m.Payload)
	if err != nil {
		return err
	}
	l, err := p.link(sm, net)
	if err != nil {
		return err
	}
	switch im.Type {
	case InitType:
		initMsg := InitMessage{}
		if err := codec.Unmarshal(im.Payload, &initMsg); err != nil {
			return errors.Wrap(btp.ErrMalformedPayload, err.Error())
		}
		l.Reachable = l.Reachable[:0]
		for _, reachable := range initMsg.Links {
			if err := p.addReachable(l, reachable); err != nil {
				return err
			}
		}
	case LinkType:
		lm := LinkMessage{}
		if err := codec.Unmarshal(im.Payload, &lm); err != nil {
			return errors.Wrap(btp.ErrMalformedPayload, err.Error())
		}
		if err := p.addReachable(l, lm.Link); err != nil {
			return err
		}
	case UnlinkType:
		um := UnlinkMessage{}
		if err := codec.Unmarshal(im.Payload, &um); err != nil {
			return errors.Wrap(btp.ErrMalformedPayload, err.Error())
		}
		l.Reachable = remove(l.Reachable, um.Link)
	case SackType:
		sack := SackMessage{}
		if err := codec.Unmarshal(im.Payload, &sack); err != nil {
			return errors.Wrap(btp.ErrMalformedPayload, err.Error())
		}
		l.PeerSackHeight, l.PeerSackSeq = sack.Height, sack.Seq
	default:
		return errors.Wrapf(btp.ErrInvalidArgument, "unknown internal message type %s", im.Type)
	}
	p.logger.Debug("Handled internal message.", zap.String("link", l.Peer), zap.String("type", im.Type))
	return p.putLink(sm, net, l)
}

func (p *Protocol) addReachable(l *link, reachable string) error {
	addr, err := btp.ParseAddress(reachable)
	if err != nil {
		return err
	}
	if addr.Network() == p.btpAddr.Network() || indexOf(l.Reachable, addr.String()) >= 0 {
		return nil
	}
	l.Reachable = append(l.Reachable, addr.String())
	return nil
}
