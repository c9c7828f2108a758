package ports

import (
	"context"

	"github.com/oluseyia/agentcore-deployer/internal/core/domain"
)

type Reporter interface {
	Report(ctx context.Context, results []domain.ReconciliationResult) error
}

// StatusReporter is implemented by reporters that can also render the
// outcome of a read-only status probe run.
type StatusReporter interface {
	ReportStatus(ctx context.Context, statuses []domain.ResourceStatus) error
}
