package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"golang.org/x/sync/errgroup"

	"github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/agentcore"
	awsecr "github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/ecr"
	awsiam "github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/iam"
	awslambda "github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/lambda"
	"github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/shared"
	"github.com/oluseyia/agentcore-deployer/internal/config"
	"github.com/oluseyia/agentcore-deployer/internal/core/domain"
	"github.com/oluseyia/agentcore-deployer/internal/core/ports"
	"github.com/oluseyia/agentcore-deployer/internal/core/service"
	"github.com/oluseyia/agentcore-deployer/internal/errors"
)

const ProviderTypeAWS = "aws"

// Provider owns the AWS SDK configuration and the per-kind resource
// handlers.
type Provider struct {
	awsConfig aws.Config
	stsClient shared.STSClientInterface
	handlers  map[domain.ResourceKind]ports.ResourceHandler
	logger    ports.Logger
}

func NewProvider(ctx context.Context, cfg *config.Config, logger ports.Logger) (*Provider, error) {
	if logger == nil {
		return nil, errors.New(errors.CodeInternal, "logger cannot be nil for AWS provider")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Deployment.Region))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigReadError, "failed to load default AWS config")
	}

	p := &Provider{
		awsConfig: awsCfg,
		stsClient: sts.NewFromConfig(awsCfg),
		handlers:  make(map[domain.ResourceKind]ports.ResourceHandler),
		logger:    logger,
	}

	p.registerHandler(awsiam.NewHandler(awsCfg))
	p.registerHandler(awslambda.NewHandler(awsCfg))
	p.registerHandler(awsecr.NewHandler(awsCfg))
	p.registerHandler(agentcore.NewGatewayHandler(awsCfg))
	p.registerHandler(agentcore.NewTargetHandler(awsCfg, cfg.Deployment.GatewayName))

	return p, nil
}

func (p *Provider) registerHandler(handler ports.ResourceHandler) {
	if handler != nil {
		p.handlers[handler.Kind()] = handler
	}
}

func (p *Provider) Type() string {
	return ProviderTypeAWS
}

// Credentials exposes the resolved credential provider, for callers that
// sign requests outside the SDK clients.
func (p *Provider) Credentials() aws.CredentialsProvider {
	return p.awsConfig.Credentials
}

func (p *Provider) Handlers() []ports.ResourceHandler {
	handlers := make([]ports.ResourceHandler, 0, len(p.handlers))
	for _, h := range p.handlers {
		handlers = append(handlers, h)
	}
	return handlers
}

// RegisterInto registers every handler with the component registry.
func (p *Provider) RegisterInto(registry *service.ComponentRegistry) error {
	for _, handler := range p.handlers {
		if err := registry.RegisterHandler(handler); err != nil {
			return err
		}
	}
	return nil
}

// VerifyAccount checks the configured account id against the credentials'
// caller identity, so a wrong profile fails before anything is mutated.
func (p *Provider) VerifyAccount(ctx context.Context, accountID string) error {
	out, err := p.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return errors.Wrap(err, errors.CodePlatformAuthError, "failed to get AWS caller identity")
	}
	if out.Account == nil {
		return errors.New(errors.CodePlatformAPIError, "AWS caller identity response did not contain an account id")
	}
	if *out.Account != accountID {
		return errors.NewUserFacing(errors.CodeValidationError,
			fmt.Sprintf("configured account id %s does not match credentials account %s", accountID, *out.Account),
			"Check the --account-id flag and the active AWS profile.")
	}
	return nil
}

// Status probes every descriptor concurrently. Probes are read-only, so
// unlike reconciliation they are safe to fan out.
func (p *Provider) Status(ctx context.Context, descs []domain.ResourceDescriptor) []domain.ResourceStatus {
	statuses := make([]domain.ResourceStatus, len(descs))
	g, childCtx := errgroup.WithContext(ctx)

	for i, desc := range descs {
		statuses[i] = domain.ResourceStatus{Kind: desc.Kind, Name: desc.Name}

		handler, found := p.handlers[desc.Kind]
		if !found {
			statuses[i].Error = errors.Newf(errors.CodeNotImplemented, "no handler for kind '%s'", desc.Kind)
			continue
		}

		idx := i
		name := desc.Name
		currentHandler := handler
		g.Go(func() error {
			probeLogger := p.logger.WithFields(map[string]any{"kind": statuses[idx].Kind.String(), "name": name})
			state, err := currentHandler.Probe(childCtx, name, probeLogger)
			if err != nil {
				statuses[idx].Error = err
				return nil // A failed probe is a status, not a run failure.
			}
			statuses[idx].Exists = state.Exists
			if detail, ok := state.Spec.(string); ok {
				statuses[idx].Detail = detail
			}
			return nil
		})
	}

	_ = g.Wait()
	return statuses
}
