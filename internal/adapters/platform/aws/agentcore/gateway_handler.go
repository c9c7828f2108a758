package agentcore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"

	awserrors "github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/errors"
	awslimiter "github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/limiter"
	"github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/shared"
	"github.com/oluseyia/agentcore-deployer/internal/core/domain"
	"github.com/oluseyia/agentcore-deployer/internal/core/ports"
	apperrors "github.com/oluseyia/agentcore-deployer/internal/errors"
)

// GatewaySpec is the desired configuration of an AgentCore gateway. The
// protocol is always MCP; authorization is AWS_IAM (SigV4) unless a JWT
// authorizer is configured upstream.
type GatewaySpec struct {
	RoleARN     string
	Description string
}

type GatewayHandler struct {
	client       GatewayClientInterface
	limiter      shared.RateLimiter
	errorHandler shared.ErrorHandler
}

type GatewayHandlerOption func(*GatewayHandler)

func WithGatewayClient(client GatewayClientInterface) GatewayHandlerOption {
	return func(h *GatewayHandler) {
		if client != nil {
			h.client = client
		}
	}
}

func WithGatewayRateLimiter(limiter shared.RateLimiter) GatewayHandlerOption {
	return func(h *GatewayHandler) {
		if limiter != nil {
			h.limiter = limiter
		}
	}
}

func WithGatewayErrorHandler(handler shared.ErrorHandler) GatewayHandlerOption {
	return func(h *GatewayHandler) {
		if handler != nil {
			h.errorHandler = handler
		}
	}
}

func NewGatewayHandler(cfg aws.Config, opts ...GatewayHandlerOption) *GatewayHandler {
	h := &GatewayHandler{
		client:       bedrockagentcorecontrol.NewFromConfig(cfg),
		limiter:      &awslimiter.DefaultRateLimiter{},
		errorHandler: &awserrors.DefaultErrorHandler{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *GatewayHandler) Kind() domain.ResourceKind { return domain.KindGateway }

// findGateway resolves a gateway by name. The control plane has no
// get-by-name call, so this pages through ListGateways.
func (h *GatewayHandler) findGateway(ctx context.Context, name string, logger ports.Logger) (*types.GatewaySummary, error) {
	var nextToken *string
	for {
		if err := h.limiter.Wait(ctx, logger); err != nil {
			return nil, err
		}
		out, err := h.client.ListGateways(ctx, &bedrockagentcorecontrol.ListGatewaysInput{NextToken: nextToken})
		if err != nil {
			return nil, h.errorHandler.Handle("AgentCore gateway", name, err, ctx)
		}
		for i := range out.Items {
			if aws.ToString(out.Items[i].Name) == name {
				return &out.Items[i], nil
			}
		}
		if out.NextToken == nil {
			return nil, nil
		}
		nextToken = out.NextToken
	}
}

func (h *GatewayHandler) Probe(ctx context.Context, name string, logger ports.Logger) (domain.ResourceState, error) {
	summary, err := h.findGateway(ctx, name, logger)
	if err != nil {
		return domain.ResourceState{}, err
	}
	if summary == nil {
		logger.Debugf(ctx, "AgentCore gateway '%s' not found", name)
		return domain.ResourceState{Exists: false}, nil
	}
	return domain.ResourceState{Exists: true, Spec: aws.ToString(summary.GatewayId)}, nil
}

func (h *GatewayHandler) Create(ctx context.Context, desc domain.ResourceDescriptor, logger ports.Logger) (domain.ResourceIdentity, error) {
	spec, ok := desc.Spec.(GatewaySpec)
	if !ok {
		return domain.ResourceIdentity{}, apperrors.Newf(apperrors.CodeInternal, "descriptor for gateway '%s' does not carry a GatewaySpec", desc.Name)
	}

	input := &bedrockagentcorecontrol.CreateGatewayInput{
		Name:           aws.String(desc.Name),
		RoleArn:        aws.String(spec.RoleARN),
		ProtocolType:   types.GatewayProtocolTypeMcp,
		AuthorizerType: types.AuthorizerTypeAwsIam,
	}
	if spec.Description != "" {
		input.Description = aws.String(spec.Description)
	}

	if err := h.limiter.Wait(ctx, logger); err != nil {
		return domain.ResourceIdentity{}, err
	}
	out, err := h.client.CreateGateway(ctx, input)
	if err != nil {
		return domain.ResourceIdentity{}, h.errorHandler.Handle("AgentCore gateway", desc.Name, err, ctx)
	}

	identity := domain.ResourceIdentity{
		ID:  aws.ToString(out.GatewayId),
		ARN: aws.ToString(out.GatewayArn),
		URL: aws.ToString(out.GatewayUrl),
	}
	logger.Infof(ctx, "Created gateway '%s' (id %s)", desc.Name, identity.ID)
	return identity, nil
}

// DeleteDependents removes every target attached to the gateway; the control
// plane refuses to delete a gateway that still has targets.
func (h *GatewayHandler) DeleteDependents(ctx context.Context, name string, logger ports.Logger) error {
	summary, err := h.findGateway(ctx, name, logger)
	if err != nil {
		return err
	}
	if summary == nil {
		return nil
	}
	gatewayID := aws.ToString(summary.GatewayId)

	var nextToken *string
	for {
		if err := h.limiter.Wait(ctx, logger); err != nil {
			return err
		}
		out, err := h.client.ListGatewayTargets(ctx, &bedrockagentcorecontrol.ListGatewayTargetsInput{
			GatewayIdentifier: aws.String(gatewayID),
			NextToken:         nextToken,
		})
		if err != nil {
			return h.errorHandler.Handle("AgentCore gateway", name, err, ctx)
		}

		for _, target := range out.Items {
			if err := h.limiter.Wait(ctx, logger); err != nil {
				return err
			}
			_, delErr := h.client.DeleteGatewayTarget(ctx, &bedrockagentcorecontrol.DeleteGatewayTargetInput{
				GatewayIdentifier: aws.String(gatewayID),
				TargetId:          target.TargetId,
			})
			if delErr != nil && !awserrors.IsNotFound(delErr) {
				return h.errorHandler.Handle("AgentCore gateway target", aws.ToString(target.TargetId), delErr, ctx)
			}
			logger.Debugf(ctx, "Deleted gateway target '%s' from gateway '%s'", aws.ToString(target.Name), name)
		}

		if out.NextToken == nil {
			return nil
		}
		nextToken = out.NextToken
	}
}

func (h *GatewayHandler) Delete(ctx context.Context, name string, logger ports.Logger) error {
	summary, err := h.findGateway(ctx, name, logger)
	if err != nil {
		return err
	}
	if summary == nil {
		logger.Warnf(ctx, "AgentCore gateway '%s' already gone", name)
		return nil
	}

	if err := h.limiter.Wait(ctx, logger); err != nil {
		return err
	}
	_, err = h.client.DeleteGateway(ctx, &bedrockagentcorecontrol.DeleteGatewayInput{
		GatewayIdentifier: summary.GatewayId,
	})
	if err != nil && !awserrors.IsNotFound(err) {
		return h.errorHandler.Handle("AgentCore gateway", name, err, ctx)
	}
	logger.Infof(ctx, "Deleted AgentCore gateway '%s'", name)
	return nil
}
