// Package bootstrap runs the ordered startup procedure a backend
// container must finish before it may serve traffic: wait for the
// database, migrate the schema, publish static assets, load reference
// data. Any failing step aborts the whole sequence; a backend with an
// unmigrated schema must never start serving.
package bootstrap

import (
	"context"
	"fmt"
	"log"
)

// Step is one stage of the startup sequence.
type Step struct {
	Name string

	// After is the readiness state reached when Run returns nil.
	// A step which does not advance readiness (waiting, seeding)
	// repeats the state of the step before it.
	After State

	Run func(ctx context.Context) error
}

// Sequencer executes steps strictly in order, single-threaded,
// stopping at the first error. It has no state beyond the readiness
// it reports; after a successful run the process is expected to be
// replaced by the application server.
type Sequencer struct {
	state State
	steps []Step
	log   *log.Logger
}

func New(logger *log.Logger, steps ...Step) *Sequencer {
	return &Sequencer{
		state: Unready,
		steps: steps,
		log:   logger,
	}
}

// State reports the readiness reached so far.
func (s *Sequencer) State() State {
	return s.state
}

// Run executes every step in order.
//
// On the first failing step it returns the error wrapped with the
// step's name, leaving the state where it was: no later step runs,
// and the state never regresses.
func (s *Sequencer) Run(ctx context.Context) error {
	for _, step := range s.steps {
		s.log.Printf("bootstrap: %s...", step.Name)

		if err := step.Run(ctx); err != nil {
			return fmt.Errorf("bootstrap: %s: %w", step.Name, err)
		}

		if s.state < step.After {
			s.state = step.After
		}
		s.log.Printf("bootstrap: %s done (readiness: %s)", step.Name, s.state)
	}

	if s.state < Ready {
		s.state = Ready
	}
	return nil
}
