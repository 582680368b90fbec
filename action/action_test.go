// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package action

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotexproject/iotex-btp/test/identityset"
)

type ping struct {
	Call
	Data []byte
}

func TestEnvelope(t *testing.T) {
	require := require.New(t)

	act := &ping{Call: Call{To: "io1target"}, Data: []byte("hi")}
	elp := NewEnvelope(identityset.Address(0), nil, act)
	require.Equal(identityset.Address(0), elp.Caller())
	require.Zero(elp.Value().Sign())
	require.Equal("io1target", elp.Action().Contract())

	value := big.NewInt(10)
	elp = NewEnvelope(identityset.Address(1), value, act)
	value.SetInt64(20)
	require.Equal(big.NewInt(10), elp.Value())
	elp.Value().SetInt64(30)
	require.Equal(big.NewInt(10), elp.Value())
}

func TestReceiptLogs(t *testing.T) {
	require := require.New(t)

	r := &Receipt{Status: SuccessReceiptStatus}
	r.AddLogs(
		NewLog("io1a", "Message(str,int,bytes)", [][]byte{[]byte("btp://netA/0xA")}, [][]byte{{1}, []byte("msg")}),
		NewLog("io1b", "Message(str,int,bytes)", nil, nil),
		NewLog("io1a", "BTPEvent(str,int,str,str)", nil, nil),
	)
	require.Len(r.Logs(), 3)
	require.Len(r.Filter("", "Message(str,int,bytes)"), 2)
	logs := r.Filter("io1a", "Message(str,int,bytes)")
	require.Len(logs, 1)
	require.Equal([]byte("btp://netA/0xA"), logs[0].Indexed(1))
	require.Nil(logs[0].Indexed(0))
	require.Nil(logs[0].Indexed(2))
	require.False((&Log{}).Is("Message(str,int,bytes)"))
}
