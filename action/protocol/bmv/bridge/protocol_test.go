// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package bridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotexproject/iotex-btp/action"
	"github.com/iotexproject/iotex-btp/action/protocol"
	"github.com/iotexproject/iotex-btp/btp"
	"github.com/iotexproject/iotex-btp/codec"
	"github.com/iotexproject/iotex-btp/db"
	"github.com/iotexproject/iotex-btp/state/factory"
	"github.com/iotexproject/iotex-btp/test/identityset"
)

const (
	_bmc  = "btp://0x1.iotex/io1bmc"
	_prev = "btp://0x2.icon/cx0000000000000000000000000000000000000001"
)

func newTestVerifier(t *testing.T, offset uint64) (*Protocol, factory.Factory) {
	require := require.New(t)
	p, err := NewProtocol(identityset.Address(1), "0x2.icon", offset)
	require.NoError(err)
	reg := protocol.NewRegistry()
	require.NoError(reg.Register(p))
	sf, err := factory.NewFactory(db.NewMemKVStore(), factory.RegistryOption(reg))
	require.NoError(err)
	require.NoError(sf.Start(context.Background()))
	t.Cleanup(func() { sf.Stop(context.Background()) })
	return p, sf
}

func relay(t *testing.T, p *Protocol, sf factory.Factory, caller int, prev string, seq uint64, rm *RelayMessage) ([][]byte, error) {
	r, err := sf.RunAction(context.Background(), action.NewEnvelope(identityset.Address(caller), nil, &HandleRelayMessage{
		Call: action.Call{To: p.Address().String()},
		BMC:  _bmc,
		Prev: prev,
		Seq:  seq,
		Msg:  rm.Bytes(),
	}))
	if err != nil {
		return nil, err
	}
	var msgs [][]byte
	require.NoError(t, codec.Unmarshal(r.ReturnValue, &msgs))
	return msgs, nil
}

func proof(height uint64, seqs ...uint64) *ReceiptProof {
	rp := &ReceiptProof{Height: height}
	for _, seq := range seqs {
		rp.Events = append(rp.Events, &EventDataBTPMessage{
			Next:    _bmc,
			Seq:     seq,
			Message: []byte{byte(seq)},
		})
	}
	return rp
}

func verifierStatus(t *testing.T, p *Protocol, sf factory.Factory) *protocol.VerifierStatus {
	ws, err := sf.NewWorkingSet()
	require.NoError(t, err)
	s, err := p.Status(context.Background(), ws)
	require.NoError(t, err)
	return s
}

func TestHandleRelayMessage(t *testing.T) {
	require := require.New(t)
	p, sf := newTestVerifier(t, 0)
	require.Equal("0x2.icon", p.Network())

	s := verifierStatus(t, p, sf)
	require.Equal(uint64(0), s.Height)
	require.Equal(uint64(0), s.LastSeq)

	msgs, err := relay(t, p, sf, 1, _prev, 1, &RelayMessage{Receipts: []*ReceiptProof{proof(1, 1)}})
	require.NoError(err)
	require.Equal([][]byte{{1}}, msgs)
	s = verifierStatus(t, p, sf)
	require.Equal(uint64(1), s.Height)
	require.Equal(uint64(1), s.LastSeq)

	// several proofs, the later ones may share the height of the previous one
	msgs, err = relay(t, p, sf, 1, _prev, 2, &RelayMessage{Receipts: []*ReceiptProof{
		proof(3, 2, 3),
		proof(3, 4),
		proof(5),
	}})
	require.NoError(err)
	require.Equal([][]byte{{2}, {3}, {4}}, msgs)
	s = verifierStatus(t, p, sf)
	require.Equal(uint64(5), s.Height)
	require.Equal(uint64(4), s.LastSeq)

	// resubmitting consumed events is rejected and changes nothing
	_, err = relay(t, p, sf, 1, _prev, 5, &RelayMessage{Receipts: []*ReceiptProof{proof(6, 4)}})
	require.Equal(btp.CodeInvalidSequence, btp.CodeOf(err))
	require.Equal(s, verifierStatus(t, p, sf))
}

func TestHandleRelayMessageErrors(t *testing.T) {
	for _, test := range []struct {
		name   string
		caller int
		prev   string
		seq    uint64
		rm     *RelayMessage
		code   btp.Code
	}{
		{"unauthorized", 2, _prev, 1, &RelayMessage{Receipts: []*ReceiptProof{proof(1, 1)}}, btp.CodeUnauthorized},
		{"other network", 1, "btp://0x3.bsc/0xabc", 1, &RelayMessage{Receipts: []*ReceiptProof{proof(1, 1)}}, btp.CodeNotAcceptable},
		{"gap", 1, _prev, 1, &RelayMessage{Receipts: []*ReceiptProof{proof(1, 2)}}, btp.CodeInvalidSequence},
		{"gap in the middle", 1, _prev, 1, &RelayMessage{Receipts: []*ReceiptProof{proof(1, 1, 3)}}, btp.CodeInvalidSequence},
		{"seq ahead of last", 1, _prev, 2, &RelayMessage{Receipts: []*ReceiptProof{proof(1, 1)}}, btp.CodeInvalidSequence},
		{"stale height", 1, _prev, 1, &RelayMessage{Receipts: []*ReceiptProof{proof(0, 1)}}, btp.CodeInvalidBlockUpdate},
		{"height goes back", 1, _prev, 1, &RelayMessage{Receipts: []*ReceiptProof{proof(3, 1), proof(2, 2)}}, btp.CodeInvalidBlockUpdate},
		{"destination", 1, _prev, 1, &RelayMessage{Receipts: []*ReceiptProof{{
			Height: 1,
			Events: []*EventDataBTPMessage{{Next: "btp://0x9.other/io1bmc", Seq: 1}},
		}}}, btp.CodeInvalidDestination},
	} {
		t.Run(test.name, func(t *testing.T) {
			p, sf := newTestVerifier(t, 0)
			_, err := relay(t, p, sf, test.caller, test.prev, test.seq, test.rm)
			require.Equal(t, test.code, btp.CodeOf(err))
			s := verifierStatus(t, p, sf)
			require.Equal(t, uint64(0), s.Height)
			require.Equal(t, uint64(0), s.LastSeq)
		})
	}

	t.Run("malformed", func(t *testing.T) {
		p, sf := newTestVerifier(t, 0)
		_, err := sf.RunAction(context.Background(), action.NewEnvelope(identityset.Address(1), nil, &HandleRelayMessage{
			Call: action.Call{To: p.Address().String()},
			BMC:  _bmc,
			Prev: _prev,
			Seq:  1,
			Msg:  []byte{0xc5, 0x01},
		}))
		require.Equal(t, btp.CodeMalformedPayload, btp.CodeOf(err))
	})
}

func TestOffset(t *testing.T) {
	require := require.New(t)
	p, sf := newTestVerifier(t, 10)

	s := verifierStatus(t, p, sf)
	require.Equal(uint64(10), s.Offset)
	require.Equal(uint64(10), s.LastSeq)

	_, err := relay(t, p, sf, 1, _prev, 1, &RelayMessage{Receipts: []*ReceiptProof{proof(1, 1)}})
	require.Equal(btp.CodeInvalidSequence, btp.CodeOf(err))
	msgs, err := relay(t, p, sf, 1, _prev, 1, &RelayMessage{Receipts: []*ReceiptProof{proof(1, 11)}})
	require.NoError(err)
	require.Len(msgs, 1)
}

func TestNewProtocol(t *testing.T) {
	_, err := NewProtocol(nil, "0x2.icon", 0)
	require.Equal(t, btp.CodeInvalidArgument, btp.CodeOf(err))
	_, err = NewProtocol(identityset.Address(1), "", 0)
	require.Equal(t, btp.CodeInvalidArgument, btp.CodeOf(err))

	p1, err := NewProtocol(identityset.Address(1), "0x2.icon", 0)
	require.NoError(t, err)
	p2, err := NewProtocol(identityset.Address(2), "0x3.icon", 0)
	require.NoError(t, err)
	require.NotEqual(t, p1.Address().String(), p2.Address().String())
}
