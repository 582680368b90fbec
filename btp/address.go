// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package btp

import (
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

const _scheme = "btp://"

// Address is a BTP address, btp://<network>/<account>
type Address struct {
	network string
	account string
}

// NewAddress creates a BTP address from its components
func NewAddress(network, account string) (Address, error) {
	if err := validNetwork(network); err != nil {
		return Address{}, err
	}
	if account == "" {
		return Address{}, errors.Wrap(ErrInvalidArgument, "empty account")
	}
	return Address{network: network, account: account}, nil
}

// MustNewAddress is NewAddress which panics on invalid input
func MustNewAddress(network, account string) Address {
	addr, err := NewAddress(network, account)
	if err != nil {
		panic(err)
	}
	return addr
}

// ParseAddress parses the string form of a BTP address
func ParseAddress(s string) (Address, error) {
	if !strings.HasPrefix(s, _scheme) {
		return Address{}, errors.Wrapf(ErrInvalidArgument, "invalid btp address %q", s)
	}
	network, account, ok := strings.Cut(s[len(_scheme):], "/")
	if !ok {
		return Address{}, errors.Wrapf(ErrInvalidArgument, "invalid btp address %q", s)
	}
	addr, err := NewAddress(network, account)
	if err != nil {
		return Address{}, errors.Wrapf(err, "invalid btp address %q", s)
	}
	return addr, nil
}

// MustParseAddress is ParseAddress which panics on invalid input
func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// Network returns the network identifier, e.g. 0x1.icon
func (a Address) Network() string { return a.network }

// Account returns the chain native account
func (a Address) Account() string { return a.account }

// IsZero reports whether a is the zero address
func (a Address) IsZero() bool { return a.network == "" && a.account == "" }

func (a Address) String() string {
	if a.IsZero() {
		return ""
	}
	return _scheme + a.network + "/" + a.account
}

// EncodeRLP encodes the address as its string form
func (a Address) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, a.String())
}

// DecodeRLP decodes the string form of an address
func (a *Address) DecodeRLP(s *rlp.Stream) error {
	str, err := s.Bytes()
	if err != nil {
		return err
	}
	addr, err := ParseAddress(string(str))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// ValidateNetwork checks a network identifier
func ValidateNetwork(network string) error {
	return validNetwork(network)
}

func validNetwork(network string) error {
	if network == "" {
		return errors.Wrap(ErrInvalidArgument, "empty network")
	}
	if strings.ContainsAny(network, "/ ") {
		return errors.Wrapf(ErrInvalidArgument, "invalid network %q", network)
	}
	return nil
}
