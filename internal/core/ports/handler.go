package ports

import (
	"context"

	"github.com/oluseyia/agentcore-deployer/internal/core/domain"
)

// ResourceHandler knows how to probe, create, and tear down one kind of
// external resource. Handlers hold no state about the resources they manage;
// every decision the reconciler makes is driven by a fresh probe.
type ResourceHandler interface {
	Kind() domain.ResourceKind

	// Probe performs a read-only existence check. A missing resource is
	// reported as Exists=false with a nil error; any other failure is an
	// error ("could not determine current state").
	Probe(ctx context.Context, name string, logger Logger) (domain.ResourceState, error)

	// Create brings the resource into existence with the descriptor's spec.
	Create(ctx context.Context, desc domain.ResourceDescriptor, logger Logger) (domain.ResourceIdentity, error)

	// DeleteDependents removes sub-resources that block deletion of the
	// parent (attached policies, inline policies, instance profiles, images,
	// gateway targets), dependents before the parent, in a fixed order.
	DeleteDependents(ctx context.Context, name string, logger Logger) error

	// Delete removes the parent resource itself. Callers must have deleted
	// dependents first.
	Delete(ctx context.Context, name string, logger Logger) error
}
