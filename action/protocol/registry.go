// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package protocol

import (
	"sync"

	"github.com/pkg/errors"
)

// Registry is the hub of all protocols deployed on the host, keyed by address
type Registry struct {
	mu        sync.RWMutex
	addrs     []string
	protocols map[string]Protocol
}

// NewRegistry create a new Registry
func NewRegistry() *Registry {
	return &Registry{
		addrs:     make([]string, 0),
		protocols: make(map[string]Protocol),
	}
}

// Register registers the protocol at its address
func (r *Registry) Register(p Protocol) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	addr := p.Address().String()
	if _, exist := r.protocols[addr]; exist {
		return errors.Errorf("Protocol at %s is already registered", addr)
	}
	r.addrs = append(r.addrs, addr)
	r.protocols[addr] = p
	return nil
}

// Find finds a protocol by address
func (r *Registry) Find(addr string) (Protocol, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.protocols[addr]
	return p, ok
}

// All returns all protocols in the order they are registered
func (r *Registry) All() []Protocol {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]Protocol, 0, len(r.addrs))
	for _, addr := range r.addrs {
		all = append(all, r.protocols[addr])
	}
	return all
}

// MessageCenter returns the message center at addr
func (r *Registry) MessageCenter(addr string) (MessageCenter, bool) {
	p, ok := r.Find(addr)
	if !ok {
		return nil, false
	}
	mc, ok := p.(MessageCenter)
	return mc, ok
}

// MessageVerifier returns the message verifier at addr
func (r *Registry) MessageVerifier(addr string) (MessageVerifier, bool) {
	p, ok := r.Find(addr)
	if !ok {
		return nil, false
	}
	mv, ok := p.(MessageVerifier)
	return mv, ok
}

// BTPService returns the BTP service at addr
func (r *Registry) BTPService(addr string) (BTPService, bool) {
	p, ok := r.Find(addr)
	if !ok {
		return nil, false
	}
	svc, ok := p.(BTPService)
	return svc, ok
}

// CallServiceReceiver returns the call receiver at addr
func (r *Registry) CallServiceReceiver(addr string) (CallServiceReceiver, bool) {
	p, ok := r.Find(addr)
	if !ok {
		return nil, false
	}
	recv, ok := p.(CallServiceReceiver)
	return recv, ok
}
