package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	awsprovider "github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws"
	"github.com/oluseyia/agentcore-deployer/internal/config"
	"github.com/oluseyia/agentcore-deployer/internal/core/domain"
	"github.com/oluseyia/agentcore-deployer/internal/core/ports"
	"github.com/oluseyia/agentcore-deployer/internal/core/service"
	"github.com/oluseyia/agentcore-deployer/internal/errors"
	"github.com/oluseyia/agentcore-deployer/internal/mcpclient"
)

// Application wires the reconciler, the AWS provider, and the reporters
// behind the CLI commands.
type Application struct {
	cfg        *config.Config
	logger     ports.Logger
	registry   *service.ComponentRegistry
	reconciler ports.Reconciler
	provider   *awsprovider.Provider
}

func (a *Application) reporter() (ports.Reporter, error) {
	return a.registry.GetReporter(a.cfg.Settings.ReporterType)
}

// Deploy reconciles the full deployment plan in dependency order and
// reports the outcome. It returns an error if any resource failed.
func (a *Application) Deploy(ctx context.Context) error {
	if err := a.provider.VerifyAccount(ctx, a.cfg.Deployment.AccountID); err != nil {
		return err
	}

	plan, err := BuildPlan(a.cfg)
	if err != nil {
		return err
	}

	a.logger.Infof(ctx, "Reconciling %d resources in account %s (%s)",
		len(plan), a.cfg.Deployment.AccountID, a.cfg.Deployment.Region)

	results := a.reconciler.ReconcileAll(ctx, plan)

	reporter, err := a.reporter()
	if err != nil {
		return err
	}
	if err := reporter.Report(ctx, results); err != nil {
		return err
	}

	for _, res := range results {
		if res.Action == domain.ActionFailed {
			return res.Error
		}
	}
	return nil
}

// Status probes every resource in the plan without mutating anything.
func (a *Application) Status(ctx context.Context) error {
	plan, err := BuildPlan(a.cfg)
	if err != nil {
		return err
	}

	statuses := a.provider.Status(ctx, plan)

	reporter, err := a.reporter()
	if err != nil {
		return err
	}
	statusReporter, ok := reporter.(ports.StatusReporter)
	if !ok {
		return errors.Newf(errors.CodeNotImplemented,
			"reporter '%s' cannot render statuses", a.cfg.Settings.ReporterType)
	}
	return statusReporter.ReportStatus(ctx, statuses)
}

// Destroy tears the deployment down in reverse dependency order. Resources
// that are already gone are skipped; the first hard failure stops the run.
func (a *Application) Destroy(ctx context.Context) error {
	if err := a.provider.VerifyAccount(ctx, a.cfg.Deployment.AccountID); err != nil {
		return err
	}

	plan, err := BuildPlan(a.cfg)
	if err != nil {
		return err
	}

	for i := len(plan) - 1; i >= 0; i-- {
		desc := plan[i]
		handler, err := a.registry.GetHandler(desc.Kind)
		if err != nil {
			return err
		}

		resLogger := a.logger.WithFields(map[string]any{"kind": desc.Kind.String(), "name": desc.Name})

		state, err := handler.Probe(ctx, desc.Name, resLogger)
		if err != nil {
			return errors.Wrapf(err, errors.CodeProbeError, "failed to probe %s '%s'", desc.Kind, desc.Name)
		}
		if !state.Exists {
			resLogger.Debugf(ctx, "Already absent, skipping")
			continue
		}

		if err := handler.DeleteDependents(ctx, desc.Name, resLogger); err != nil {
			return errors.Wrapf(err, errors.CodeDeleteError, "failed to delete dependents of %s '%s'", desc.Kind, desc.Name)
		}
		if err := handler.Delete(ctx, desc.Name, resLogger); err != nil {
			return errors.Wrapf(err, errors.CodeDeleteError, "failed to delete %s '%s'", desc.Kind, desc.Name)
		}
		resLogger.Infof(ctx, "Deleted")
	}
	return nil
}

// Invoke runs a SQL statement through the gateway's Snowflake tool and
// prints the tool result to stdout. The gateway must already be deployed.
func (a *Application) Invoke(ctx context.Context, sqlText string) error {
	gatewayName := a.cfg.Deployment.GatewayName

	handler, err := a.registry.GetHandler(domain.KindGateway)
	if err != nil {
		return err
	}
	state, err := handler.Probe(ctx, gatewayName, a.logger)
	if err != nil {
		return errors.Wrapf(err, errors.CodeProbeError, "failed to probe gateway '%s'", gatewayName)
	}
	if !state.Exists {
		return errors.NewUserFacing(errors.CodeResourceNotFound,
			fmt.Sprintf("gateway '%s' does not exist", gatewayName),
			"Run 'deploy' first to create the gateway.")
	}
	gatewayID, ok := state.Spec.(string)
	if !ok || gatewayID == "" {
		return errors.Newf(errors.CodeInternal, "probe of gateway '%s' did not yield a gateway id", gatewayName)
	}

	client := mcpclient.New(gatewayID, a.cfg.Deployment.Region, a.provider.Credentials())

	if _, err := client.Initialize(ctx); err != nil {
		return err
	}
	result, err := client.ExecuteQuery(ctx, a.cfg.Deployment.TargetName, sqlText)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(json.RawMessage(result))
}

// ListTools asks the gateway for its tool inventory and prints it.
func (a *Application) ListTools(ctx context.Context) error {
	gatewayName := a.cfg.Deployment.GatewayName

	handler, err := a.registry.GetHandler(domain.KindGateway)
	if err != nil {
		return err
	}
	state, err := handler.Probe(ctx, gatewayName, a.logger)
	if err != nil {
		return errors.Wrapf(err, errors.CodeProbeError, "failed to probe gateway '%s'", gatewayName)
	}
	if !state.Exists {
		return errors.NewUserFacing(errors.CodeResourceNotFound,
			fmt.Sprintf("gateway '%s' does not exist", gatewayName),
			"Run 'deploy' first to create the gateway.")
	}
	gatewayID, _ := state.Spec.(string)

	client := mcpclient.New(gatewayID, a.cfg.Deployment.Region, a.provider.Credentials())
	if _, err := client.Initialize(ctx); err != nil {
		return err
	}
	tools, err := client.ListTools(ctx)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(json.RawMessage(tools))
}
