package view

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/chrisvdg/dioadmin/client"
)

// ErrConfirmationMismatch is returned when a destructive mutation's
// typed confirmation does not match the expected value
var ErrConfirmationMismatch = errors.New("confirmation text does not match")

// Mutation represents one write against a resource plus the cache
// consequences of its success. Destructive mutations additionally
// carry a typed confirmation pair that gates execution.
type Mutation struct {
	client.MutationRequest

	// Confirm is what the operator typed; ConfirmExpected is the
	// identifying value it must equal (case-sensitive, surrounding
	// whitespace ignored). Empty ConfirmExpected means no gate.
	Confirm         string
	ConfirmExpected string

	// Invalidates lists the resource names whose cached pages this
	// mutation affects. Empty means the mutated resource itself.
	// Wallet actions, for example, mutate the wallet endpoints but
	// change what the users list shows.
	Invalidates []string
}

// Mutator executes the write. Implemented by client.Client.
type Mutator interface {
	Mutate(ctx context.Context, req client.MutationRequest) (json.RawMessage, error)
}

// Invalidator receives the coarse invalidation on success.
// Implemented by cache.Cache.
type Invalidator interface {
	InvalidateResource(name string)
}

// NewRunner creates a mutation runner
func NewRunner(m Mutator, inv Invalidator) *Runner {
	return &Runner{
		mutator:     m,
		invalidator: inv,
	}
}

// Runner executes mutations and invalidates every cached page of the
// mutated resource on success. Failures invalidate nothing and are
// returned for the caller to display; mutations are never retried
// automatically since a silent retry of a non-idempotent confirm or
// delete could double-apply a financial effect.
type Runner struct {
	mutator     Mutator
	invalidator Invalidator
}

// Run executes a single mutation
func (r *Runner) Run(ctx context.Context, m Mutation) (json.RawMessage, error) {
	if m.ConfirmExpected != "" {
		if strings.TrimSpace(m.Confirm) != strings.TrimSpace(m.ConfirmExpected) {
			return nil, ErrConfirmationMismatch
		}
	}

	body, err := r.mutator.Mutate(ctx, m.MutationRequest)
	if err != nil {
		return nil, err
	}

	targets := m.Invalidates
	if len(targets) == 0 {
		targets = []string{m.Resource}
	}
	for _, name := range targets {
		r.invalidator.InvalidateResource(name)
	}
	return body, nil
}
