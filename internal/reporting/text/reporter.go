package text

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/oluseyia/agentcore-deployer/internal/core/domain"
	"github.com/oluseyia/agentcore-deployer/internal/core/ports"
	apperrors "github.com/oluseyia/agentcore-deployer/internal/errors"
)

const ReporterTypeText = "text"

type Config struct {
	NoColor bool `mapstructure:"no_color"`
}

type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

func NewReporter(cfg Config, logger ports.Logger) (*Reporter, error) {
	if cfg.NoColor || !isTerminal(os.Stdout) {
		color.NoColor = true
	}

	return &Reporter{
		config: cfg,
		writer: os.Stdout,
		logger: logger,
	}, nil
}

func isTerminal(f *os.File) bool {
	stat, _ := f.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// Report prints results in the order they were reconciled; dependency order
// is information, so no sorting.
func (r *Reporter) Report(ctx context.Context, results []domain.ReconciliationResult) error {
	if len(results) == 0 {
		fmt.Fprintln(r.writer, "No resources reconciled.")
		return nil
	}

	tw := tabwriter.NewWriter(r.writer, 0, 8, 2, ' ', 0)
	defer tw.Flush()

	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintln(tw, "Deployment Reconciliation Report")
	fmt.Fprintln(tw, "================================")
	fmt.Fprintln(tw, "Action\tKind\tName\tDetails")
	fmt.Fprintln(tw, "------\t----\t----\t-------")

	var created, recreated, unchanged, failed int
	for _, res := range results {
		if ctx.Err() != nil {
			r.logger.Warnf(ctx, "Text report generation cancelled.")
			return ctx.Err()
		}

		var actionStr, details string
		switch res.Action {
		case domain.ActionCreated:
			created++
			actionStr = green(string(res.Action))
			details = identityDetail(res.Identity)
		case domain.ActionRecreated:
			recreated++
			actionStr = cyan(string(res.Action))
			details = identityDetail(res.Identity)
		case domain.ActionUnchanged:
			unchanged++
			actionStr = yellow(string(res.Action))
		case domain.ActionFailed:
			failed++
			actionStr = red(string(res.Action))
			if res.Error != nil {
				details = fmt.Sprintf("[%s] %v", apperrors.GetCode(res.Error), res.Error)
			}
		default:
			actionStr = string(res.Action)
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", actionStr, res.Kind, res.Name, details)
	}

	fmt.Fprintln(tw, "------\t----\t----\t-------")
	fmt.Fprintf(tw, "Summary:\t%d created, %d recreated, %d unchanged, %d failed\n",
		created, recreated, unchanged, failed)

	return nil
}

// ReportStatus prints the outcome of a read-only status probe run.
func (r *Reporter) ReportStatus(ctx context.Context, statuses []domain.ResourceStatus) error {
	tw := tabwriter.NewWriter(r.writer, 0, 8, 2, ' ', 0)
	defer tw.Flush()

	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintln(tw, "Resource Status")
	fmt.Fprintln(tw, "===============")
	fmt.Fprintln(tw, "State\tKind\tName\tDetails")
	fmt.Fprintln(tw, "-----\t----\t----\t-------")

	for _, st := range statuses {
		if ctx.Err() != nil {
			r.logger.Warnf(ctx, "Status report generation cancelled.")
			return ctx.Err()
		}

		var stateStr, details string
		switch {
		case st.Error != nil:
			stateStr = red("ERROR")
			details = fmt.Sprintf("[%s] %v", apperrors.GetCode(st.Error), st.Error)
		case st.Exists:
			stateStr = green("PRESENT")
			details = st.Detail
		default:
			stateStr = yellow("ABSENT")
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", stateStr, st.Kind, st.Name, details)
	}

	return nil
}

func identityDetail(id domain.ResourceIdentity) string {
	switch {
	case id.URL != "":
		return id.URL
	case id.ARN != "":
		return id.ARN
	case id.ID != "":
		return id.ID
	}
	return ""
}
