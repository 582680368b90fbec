// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package state

import (
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-btp/codec"
)

var (
	// ErrStateSerialization is the error that the state marshaling is failed
	ErrStateSerialization = errors.New("failed to marshal state")
	// ErrStateDeserialization is the error that the state un-marshaling is failed
	ErrStateDeserialization = errors.New("failed to unmarshal state")
	// ErrStateNotExist is the error that the state does not exist
	ErrStateNotExist = errors.New("state does not exist")
)

// Serializer has Serialize method to serialize struct to binary data.
type Serializer interface {
	Serialize() ([]byte, error)
}

// Deserializer has Deserialize method to deserialize binary data to struct.
type Deserializer interface {
	Deserialize(data []byte) error
}

// Serialize check if input is Serializer, if it is, use the input's Serialize method, otherwise the value is
// encoded with the canonical codec.
func Serialize(d interface{}) ([]byte, error) {
	if s, ok := d.(Serializer); ok {
		return s.Serialize()
	}
	b, err := codec.Marshal(d)
	if err != nil {
		return nil, errors.Wrapf(ErrStateSerialization, "%v", err)
	}
	return b, nil
}

// Deserialize check if input is Deserializer, if it is, use the input's Deserialize method, otherwise the data
// is decoded with the canonical codec.
func Deserialize(x interface{}, data []byte) error {
	if s, ok := x.(Deserializer); ok {
		return s.Deserialize(data)
	}
	if err := codec.Unmarshal(data, x); err != nil {
		return errors.Wrapf(ErrStateDeserialization, "%v", err)
	}
	return nil
}
