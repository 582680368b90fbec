// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package btp

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-btp/codec"
)

// Code is the numeric error kind carried on the wire and in receipts
type Code int64

// Response codes
const (
	Success Code = 0
	Failure Code = -1
)

// message center codes
const (
	CodeUnknown Code = iota + 10
	CodeUnauthorized
	CodeAlreadyExists
	CodeNotExists
	CodeReferenceExists
	CodeLastOwner
	CodeUnknownLink
	CodeUnreachable
	CodeAmbiguousRoute
	CodeMalformedPayload
	CodeInvalidArgument
	CodeDropped
	CodeReentrancy
)

// message verifier codes
const (
	CodeVerifierUnknown Code = iota + 25
	CodeInvalidSequence
	CodeInvalidDestination
	CodeInvalidBlockUpdate
	CodeNotAcceptable
)

// call service codes
const (
	CodeInsufficientFee Code = iota + 40
	CodeInvalidSerialNum
	CodeInvalidRequestID
	CodeUserReverted
)

var _codeNames = map[Code]string{
	Success:                "Success",
	Failure:                "Failure",
	CodeUnknown:            "Unknown",
	CodeUnauthorized:       "Unauthorized",
	CodeAlreadyExists:      "AlreadyExists",
	CodeNotExists:          "NotExists",
	CodeReferenceExists:    "ReferenceExists",
	CodeLastOwner:          "LastOwner",
	CodeUnknownLink:        "UnknownLink",
	CodeUnreachable:        "Unreachable",
	CodeAmbiguousRoute:     "AmbiguousRoute",
	CodeMalformedPayload:   "MalformedPayload",
	CodeInvalidArgument:    "InvalidArgument",
	CodeDropped:            "Dropped",
	CodeReentrancy:         "Reentrancy",
	CodeVerifierUnknown:    "VerifierUnknown",
	CodeInvalidSequence:    "InvalidSequence",
	CodeInvalidDestination: "InvalidDestination",
	CodeInvalidBlockUpdate: "InvalidBlockUpdate",
	CodeNotAcceptable:      "NotAcceptable",
	CodeInsufficientFee:    "InsufficientFee",
	CodeInvalidSerialNum:   "InvalidSerialNum",
	CodeInvalidRequestID:   "InvalidRequestID",
	CodeUserReverted:       "UserReverted",
}

func (c Code) String() string {
	if name, ok := _codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", int64(c))
}

// Error is an error of a known kind
type Error struct {
	code Code
	msg  string
}

// NewError creates an error of the given kind
func NewError(code Code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

func (e *Error) Error() string {
	if e.msg == "" {
		return e.code.String()
	}
	return e.code.String() + ": " + e.msg
}

// Code returns the kind of the error
func (e *Error) Code() Code { return e.code }

// sentinel errors, wrap them with errors.Wrap to add context
var (
	ErrUnknown            = NewError(CodeUnknown, "")
	ErrUnauthorized       = NewError(CodeUnauthorized, "")
	ErrAlreadyExists      = NewError(CodeAlreadyExists, "")
	ErrNotExists          = NewError(CodeNotExists, "")
	ErrReferenceExists    = NewError(CodeReferenceExists, "")
	ErrLastOwner          = NewError(CodeLastOwner, "")
	ErrUnknownLink        = NewError(CodeUnknownLink, "")
	ErrUnreachable        = NewError(CodeUnreachable, "")
	ErrAmbiguousRoute     = NewError(CodeAmbiguousRoute, "")
	ErrMalformedPayload   = NewError(CodeMalformedPayload, "")
	ErrInvalidArgument    = NewError(CodeInvalidArgument, "")
	ErrDropped            = NewError(CodeDropped, "")
	ErrReentrancy         = NewError(CodeReentrancy, "")
	ErrInvalidSequence    = NewError(CodeInvalidSequence, "")
	ErrInvalidDestination = NewError(CodeInvalidDestination, "")
	ErrInvalidBlockUpdate = NewError(CodeInvalidBlockUpdate, "")
	ErrNotAcceptable      = NewError(CodeNotAcceptable, "")
	ErrInsufficientFee    = NewError(CodeInsufficientFee, "")
	ErrInvalidSerialNum   = NewError(CodeInvalidSerialNum, "")
	ErrInvalidRequestID   = NewError(CodeInvalidRequestID, "")
)

// UserRevertedError is returned by a call receiver which rejects a call with its own code
type UserRevertedError struct {
	Code   int64
	Reason string
}

// Revert creates a UserRevertedError
func Revert(code int64, reason string) *UserRevertedError {
	return &UserRevertedError{Code: code, Reason: reason}
}

func (e *UserRevertedError) Error() string {
	return fmt.Sprintf("UserReverted(%d): %s", e.Code, e.Reason)
}

// CodeOf classifies err, errors of no known kind are Unknown
func CodeOf(err error) Code {
	if err == nil {
		return Success
	}
	switch cause := errors.Cause(err).(type) {
	case *Error:
		return cause.code
	case *UserRevertedError:
		return CodeUserReverted
	}
	if errors.Cause(err) == codec.ErrMalformed {
		return CodeMalformedPayload
	}
	return CodeUnknown
}

// Is reports whether err is of the kind of target
func Is(err error, target *Error) bool {
	return err != nil && CodeOf(err) == target.code
}
