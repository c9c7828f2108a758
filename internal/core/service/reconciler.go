package service

import (
	"context"
	"fmt"
	"time"

	"github.com/oluseyia/agentcore-deployer/internal/core/domain"
	"github.com/oluseyia/agentcore-deployer/internal/core/ports"
	"github.com/oluseyia/agentcore-deployer/internal/errors"
)

const DefaultSettleDelay = 10 * time.Second

// Reconciler ensures that exactly one resource with a descriptor's name
// exists in the desired configuration. It holds no durable state of its own;
// everything it decides follows from a fresh probe of the external system.
//
// Per resource: Absent -> (create) -> Present. Present, whatever its current
// spec -> (delete dependents, delete, wait, create) -> Present(desired).
// There is no in-place diffing, no retry, and no rollback; a failure mid
// sequence leaves the external system where the last successful step put it,
// and converging again is a matter of re-running reconciliation.
type Reconciler struct {
	registry    *ComponentRegistry
	logger      ports.Logger
	settleDelay time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

type ReconcilerOption func(*Reconciler)

// WithSettleDelay overrides the fixed wait between deleting a resource and
// recreating it. The delay tolerates external propagation latency; it is a
// pragmatic heuristic, not a guarantee.
func WithSettleDelay(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		if d >= 0 {
			r.settleDelay = d
		}
	}
}

// WithSleepFunc replaces the real clock, for tests.
func WithSleepFunc(fn func(ctx context.Context, d time.Duration) error) ReconcilerOption {
	return func(r *Reconciler) {
		if fn != nil {
			r.sleep = fn
		}
	}
}

func NewReconciler(registry *ComponentRegistry, logger ports.Logger, opts ...ReconcilerOption) (*Reconciler, error) {
	if registry == nil {
		return nil, errors.New(errors.CodeInternal, "component registry cannot be nil")
	}
	if logger == nil {
		return nil, errors.New(errors.CodeInternal, "logger cannot be nil")
	}

	r := &Reconciler{
		registry:    registry,
		logger:      logger,
		settleDelay: DefaultSettleDelay,
		sleep:       sleepWithContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reconcile drives one descriptor to its desired state and reports what it
// did. Probe errors other than not-found surface immediately; a present
// resource is always torn down and recreated regardless of its current spec.
func (r *Reconciler) Reconcile(ctx context.Context, desc domain.ResourceDescriptor) domain.ReconciliationResult {
	result := domain.ReconciliationResult{Kind: desc.Kind, Name: desc.Name}
	logger := r.logger.WithFields(map[string]any{"kind": desc.Kind.String(), "name": desc.Name})

	handler, err := r.registry.GetHandler(desc.Kind)
	if err != nil {
		result.Action = domain.ActionFailed
		result.Error = err
		return result
	}

	state, err := handler.Probe(ctx, desc.Name, logger)
	if err != nil {
		result.Action = domain.ActionFailed
		result.Error = errors.Wrap(err, errors.CodeProbeError,
			fmt.Sprintf("could not determine current state of %s '%s'", desc.Kind, desc.Name))
		logger.Errorf(ctx, result.Error, "Probe failed")
		return result
	}

	if !state.Exists {
		logger.Infof(ctx, "Resource absent, creating")
		identity, createErr := handler.Create(ctx, desc, logger)
		if createErr != nil {
			result.Action = domain.ActionFailed
			result.Error = errors.Wrap(createErr, errors.CodeCreateError,
				fmt.Sprintf("failed to create %s '%s'", desc.Kind, desc.Name))
			logger.Errorf(ctx, result.Error, "Create failed")
			return result
		}
		if settleErr := r.settleAfterCreate(ctx, desc, logger); settleErr != nil {
			result.Action = domain.ActionFailed
			result.Error = settleErr
			return result
		}
		result.Action = domain.ActionCreated
		result.Identity = identity
		logger.Infof(ctx, "Created")
		return result
	}

	// Existing resource: unconditional tear-down-and-recreate. Dependents go
	// first; if they cannot be removed the parent is left untouched.
	logger.Infof(ctx, "Resource exists, recreating")
	if delErr := handler.DeleteDependents(ctx, desc.Name, logger); delErr != nil {
		result.Action = domain.ActionFailed
		result.Error = errors.Wrap(delErr, errors.CodeDeleteError,
			fmt.Sprintf("failed to delete dependents of %s '%s'", desc.Kind, desc.Name))
		logger.Errorf(ctx, result.Error, "Dependent deletion failed, parent left untouched")
		return result
	}

	if delErr := handler.Delete(ctx, desc.Name, logger); delErr != nil {
		result.Action = domain.ActionFailed
		result.Error = errors.Wrap(delErr, errors.CodeDeleteError,
			fmt.Sprintf("failed to delete %s '%s'", desc.Kind, desc.Name))
		logger.Errorf(ctx, result.Error, "Delete failed")
		return result
	}

	logger.Debugf(ctx, "Waiting %s for deletion to settle", r.settleDelay)
	if waitErr := r.sleep(ctx, r.settleDelay); waitErr != nil {
		result.Action = domain.ActionFailed
		result.Error = errors.Wrap(waitErr, errors.CodeDeleteError,
			fmt.Sprintf("interrupted while waiting for %s '%s' deletion to settle", desc.Kind, desc.Name))
		return result
	}

	identity, createErr := handler.Create(ctx, desc, logger)
	if createErr != nil {
		result.Action = domain.ActionFailed
		result.Error = errors.Wrap(createErr, errors.CodeCreateError,
			fmt.Sprintf("failed to recreate %s '%s'", desc.Kind, desc.Name))
		logger.Errorf(ctx, result.Error, "Recreate failed")
		return result
	}

	if settleErr := r.settleAfterCreate(ctx, desc, logger); settleErr != nil {
		result.Action = domain.ActionFailed
		result.Error = settleErr
		return result
	}

	result.Action = domain.ActionRecreated
	result.Identity = identity
	logger.Infof(ctx, "Recreated")
	return result
}

// settleAfterCreate waits out propagation for descriptors that ask for it,
// so the next descriptor in the run sees a usable resource.
func (r *Reconciler) settleAfterCreate(ctx context.Context, desc domain.ResourceDescriptor, logger ports.Logger) error {
	if !desc.SettleAfterCreate {
		return nil
	}
	logger.Debugf(ctx, "Waiting %s for %s '%s' to propagate", r.settleDelay, desc.Kind, desc.Name)
	if err := r.sleep(ctx, r.settleDelay); err != nil {
		return errors.Wrap(err, errors.CodeCreateError,
			fmt.Sprintf("interrupted while waiting for %s '%s' to propagate", desc.Kind, desc.Name))
	}
	return nil
}

// ReconcileAll processes descriptors strictly in the order given, one at a
// time. Ordering across descriptors is the caller's responsibility: leaf
// resources first, dependents after. The first failure stops the run, since
// later descriptors typically depend on the failed one.
func (r *Reconciler) ReconcileAll(ctx context.Context, descs []domain.ResourceDescriptor) []domain.ReconciliationResult {
	results := make([]domain.ReconciliationResult, 0, len(descs))
	for _, desc := range descs {
		result := r.Reconcile(ctx, desc)
		results = append(results, result)
		if result.Action == domain.ActionFailed {
			r.logger.Warnf(ctx, "Stopping reconciliation run after failure on %s '%s'", desc.Kind, desc.Name)
			break
		}
	}
	return results
}
