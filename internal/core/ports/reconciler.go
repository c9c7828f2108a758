package ports

import (
	"context"

	"github.com/oluseyia/agentcore-deployer/internal/core/domain"
)

// Reconciler drives named external resources to their declared desired state.
// Callers supply descriptors in dependency order; the reconciler processes
// them one at a time and never infers ordering itself.
type Reconciler interface {
	Reconcile(ctx context.Context, desc domain.ResourceDescriptor) domain.ReconciliationResult
	ReconcileAll(ctx context.Context, descs []domain.ResourceDescriptor) []domain.ReconciliationResult
}
