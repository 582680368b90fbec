// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package lifecycle provides application models' lifecycle management.
package lifecycle

import (
	"context"
)

type (
	// Model is application model which may require to start and stop in application lifecycle.
	Model interface{}

	// Starter is Model has a Start method.
	Starter interface {
		// Start runs on lifecycle start phase.
		Start(context.Context) error
	}

	// Stopper is Model has a Stop method.
	Stopper interface {
		// Stop runs on lifecycle stop phase.
		Stop(context.Context) error
	}

	// StartStopper is the interface that groups Start and Stop.
	StartStopper interface {
		Starter
		Stopper
	}
)

// Lifecycle manages lifecycle for models. Currently a Lifecycle has two phases: Start and Stop.
// Models are started in the order they are added and stopped in reverse order.
type Lifecycle struct {
	models []Model
}

// Add adds a model into LifeCycle.
func (lc *Lifecycle) Add(m Model) { lc.models = append(lc.models, m) }

// AddModels adds multiple models into LifeCycle.
func (lc *Lifecycle) AddModels(m ...Model) { lc.models = append(lc.models, m...) }

// OnStart runs models OnStart function if models implmented it. All OnStart functions will be run in sequence.
func (lc *Lifecycle) OnStart(ctx context.Context) error {
	for _, m := range lc.models {
		if starter, ok := m.(Starter); ok {
			if err := starter.Start(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// OnStop runs models Stop function if models implmented it. The last error is returned after all models stopped.
func (lc *Lifecycle) OnStop(ctx context.Context) error {
	var err error
	for i := len(lc.models) - 1; i >= 0; i-- {
		if stopper, ok := lc.models[i].(Stopper); ok {
			if e := stopper.Stop(ctx); e != nil {
				err = e
			}
		}
	}
	return err
}
