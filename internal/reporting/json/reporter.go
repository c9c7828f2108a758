package json

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/oluseyia/agentcore-deployer/internal/core/domain"
	"github.com/oluseyia/agentcore-deployer/internal/core/ports"
)

const ReporterTypeJSON = "json"

type Config struct{}

type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

func NewReporter(cfg Config, logger ports.Logger) (*Reporter, error) {
	return &Reporter{
		config: cfg,
		writer: os.Stdout,
		logger: logger,
	}, nil
}

type jsonReport struct {
	Summary jsonSummary      `json:"summary"`
	Results []jsonResultItem `json:"results"`
}

type jsonSummary struct {
	TotalResourcesProcessed int `json:"total_resources_processed"`
	Created                 int `json:"created"`
	Recreated               int `json:"recreated"`
	Unchanged               int `json:"unchanged"`
	Failed                  int `json:"failed"`
}

type jsonResultItem struct {
	Action       domain.ReconcileAction `json:"action"`
	ResourceKind domain.ResourceKind    `json:"resource_kind"`
	Name         string                 `json:"name"`
	ID           string                 `json:"id,omitempty"`
	ARN          string                 `json:"arn,omitempty"`
	URL          string                 `json:"url,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
}

func (r *Reporter) Report(ctx context.Context, results []domain.ReconciliationResult) error {
	report := jsonReport{
		Summary: jsonSummary{TotalResourcesProcessed: len(results)},
		Results: make([]jsonResultItem, 0, len(results)),
	}

	for _, res := range results {
		if ctx.Err() != nil {
			r.logger.Warnf(ctx, "JSON report generation cancelled.")
			return ctx.Err()
		}

		switch res.Action {
		case domain.ActionCreated:
			report.Summary.Created++
		case domain.ActionRecreated:
			report.Summary.Recreated++
		case domain.ActionUnchanged:
			report.Summary.Unchanged++
		case domain.ActionFailed:
			report.Summary.Failed++
		}

		item := jsonResultItem{
			Action:       res.Action,
			ResourceKind: res.Kind,
			Name:         res.Name,
			ID:           res.Identity.ID,
			ARN:          res.Identity.ARN,
			URL:          res.Identity.URL,
		}
		if res.Error != nil {
			item.ErrorMessage = res.Error.Error()
		}

		report.Results = append(report.Results, item)
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(report); err != nil {
		r.logger.Errorf(ctx, err, "Failed to encode JSON report")
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}

	r.logger.Debugf(ctx, "JSON report successfully generated.")
	return nil
}

type jsonStatusItem struct {
	ResourceKind domain.ResourceKind `json:"resource_kind"`
	Name         string              `json:"name"`
	Exists       bool                `json:"exists"`
	Detail       string              `json:"detail,omitempty"`
	ErrorMessage string              `json:"error_message,omitempty"`
}

// ReportStatus renders the outcome of a read-only status probe run.
func (r *Reporter) ReportStatus(ctx context.Context, statuses []domain.ResourceStatus) error {
	items := make([]jsonStatusItem, 0, len(statuses))
	for _, st := range statuses {
		if ctx.Err() != nil {
			r.logger.Warnf(ctx, "JSON status report generation cancelled.")
			return ctx.Err()
		}

		item := jsonStatusItem{
			ResourceKind: st.Kind,
			Name:         st.Name,
			Exists:       st.Exists,
			Detail:       st.Detail,
		}
		if st.Error != nil {
			item.ErrorMessage = st.Error.Error()
		}
		items = append(items, item)
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(map[string]any{"statuses": items}); err != nil {
		r.logger.Errorf(ctx, err, "Failed to encode JSON status report")
		return fmt.Errorf("failed to encode JSON status report: %w", err)
	}
	return nil
}
