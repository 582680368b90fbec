// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package protocol

import (
	"context"
	"math/big"
	"time"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-btp/btp"
	"github.com/iotexproject/iotex-btp/pkg/log"
)

type (
	actionCtxKey struct{}

	blockCtxKey struct{}

	registryCtxKey struct{}

	callStackCtxKey struct{}

	// ActionCtx provides the protocol being called with the caller and the value attached to the call
	ActionCtx struct {
		// account or protocol making the call
		Caller address.Address
		// native value attached to the call
		Value *big.Int
	}

	// BlockCtx provides the action with the height and time it executes at
	BlockCtx struct {
		BlockHeight    uint64
		BlockTimeStamp time.Time
	}
)

// WithActionCtx add ActionCtx into context.
func WithActionCtx(ctx context.Context, ac ActionCtx) context.Context {
	return context.WithValue(ctx, actionCtxKey{}, ac)
}

// GetActionCtx gets ActionCtx
func GetActionCtx(ctx context.Context) (ActionCtx, bool) {
	ac, ok := ctx.Value(actionCtxKey{}).(ActionCtx)
	return ac, ok
}

// MustGetActionCtx must get ActionCtx.
// If context doesn't exist, this function panic.
func MustGetActionCtx(ctx context.Context) ActionCtx {
	ac, ok := ctx.Value(actionCtxKey{}).(ActionCtx)
	if !ok {
		log.S().Panic("Miss action context")
	}
	return ac
}

// WithBlockCtx add BlockCtx into context.
func WithBlockCtx(ctx context.Context, blk BlockCtx) context.Context {
	return context.WithValue(ctx, blockCtxKey{}, blk)
}

// GetBlockCtx gets BlockCtx
func GetBlockCtx(ctx context.Context) (BlockCtx, bool) {
	blk, ok := ctx.Value(blockCtxKey{}).(BlockCtx)
	return blk, ok
}

// MustGetBlockCtx must get BlockCtx.
// If context doesn't exist, this function panic.
func MustGetBlockCtx(ctx context.Context) BlockCtx {
	blk, ok := ctx.Value(blockCtxKey{}).(BlockCtx)
	if !ok {
		log.S().Panic("Miss block context")
	}
	return blk
}

// WithRegistry adds registry to context
func WithRegistry(ctx context.Context, reg *Registry) context.Context {
	return context.WithValue(ctx, registryCtxKey{}, reg)
}

// GetRegistry returns the registry from context
func GetRegistry(ctx context.Context) (*Registry, bool) {
	reg, ok := ctx.Value(registryCtxKey{}).(*Registry)
	return reg, ok
}

// MustGetRegistry returns the registry from context, panic if it doesn't exist
func MustGetRegistry(ctx context.Context) *Registry {
	reg, ok := GetRegistry(ctx)
	if !ok {
		log.S().Panic("Miss registry context")
	}
	return reg
}

// EnterCall returns the context the protocol at callee runs in when called by caller with value attached.
// Calling into a protocol which is already on the call stack is rejected.
func EnterCall(ctx context.Context, caller address.Address, callee address.Address, value *big.Int) (context.Context, error) {
	stack, _ := ctx.Value(callStackCtxKey{}).([]string)
	to := callee.String()
	for _, addr := range stack {
		if addr == to {
			return nil, errors.Wrapf(btp.ErrReentrancy, "%s is already on the call stack", to)
		}
	}
	if value == nil {
		value = big.NewInt(0)
	}
	// full slice expression so that sibling calls never share the backing array
	ctx = context.WithValue(ctx, callStackCtxKey{}, append(stack[:len(stack):len(stack)], to))
	return WithActionCtx(ctx, ActionCtx{Caller: caller, Value: value}), nil
}

// CallStack returns the addresses of the protocols being called, outermost first
func CallStack(ctx context.Context) []string {
	stack, _ := ctx.Value(callStackCtxKey{}).([]string)
	return stack
}
