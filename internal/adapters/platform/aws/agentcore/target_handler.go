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

// TargetSpec is the desired configuration of a gateway target: the Lambda it
// fronts and the gateway it belongs to. GatewayName is resolved to a gateway
// ID at reconcile time, since the ID only exists once the gateway does.
type TargetSpec struct {
	GatewayName string
	LambdaARN   string
	Description string
}

type TargetHandler struct {
	client       GatewayClientInterface
	gatewayName  string
	limiter      shared.RateLimiter
	errorHandler shared.ErrorHandler
}

type TargetHandlerOption func(*TargetHandler)

func WithTargetClient(client GatewayClientInterface) TargetHandlerOption {
	return func(h *TargetHandler) {
		if client != nil {
			h.client = client
		}
	}
}

func WithTargetRateLimiter(limiter shared.RateLimiter) TargetHandlerOption {
	return func(h *TargetHandler) {
		if limiter != nil {
			h.limiter = limiter
		}
	}
}

func WithTargetErrorHandler(handler shared.ErrorHandler) TargetHandlerOption {
	return func(h *TargetHandler) {
		if handler != nil {
			h.errorHandler = handler
		}
	}
}

// NewTargetHandler builds a handler for targets of the named gateway. Probe
// and Delete only receive a target name, so the owning gateway is fixed per
// handler instance.
func NewTargetHandler(cfg aws.Config, gatewayName string, opts ...TargetHandlerOption) *TargetHandler {
	h := &TargetHandler{
		client:       bedrockagentcorecontrol.NewFromConfig(cfg),
		gatewayName:  gatewayName,
		limiter:      &awslimiter.DefaultRateLimiter{},
		errorHandler: &awserrors.DefaultErrorHandler{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TargetHandler) Kind() domain.ResourceKind { return domain.KindGatewayTarget }

func (h *TargetHandler) resolveGatewayID(ctx context.Context, logger ports.Logger) (string, error) {
	var nextToken *string
	for {
		if err := h.limiter.Wait(ctx, logger); err != nil {
			return "", err
		}
		out, err := h.client.ListGateways(ctx, &bedrockagentcorecontrol.ListGatewaysInput{NextToken: nextToken})
		if err != nil {
			return "", h.errorHandler.Handle("AgentCore gateway", h.gatewayName, err, ctx)
		}
		for _, gw := range out.Items {
			if aws.ToString(gw.Name) == h.gatewayName {
				return aws.ToString(gw.GatewayId), nil
			}
		}
		if out.NextToken == nil {
			return "", apperrors.Newf(apperrors.CodeResourceNotFound, "gateway '%s' not found while resolving target's parent", h.gatewayName)
		}
		nextToken = out.NextToken
	}
}

func (h *TargetHandler) findTarget(ctx context.Context, gatewayID, name string, logger ports.Logger) (*types.TargetSummary, error) {
	var nextToken *string
	for {
		if err := h.limiter.Wait(ctx, logger); err != nil {
			return nil, err
		}
		out, err := h.client.ListGatewayTargets(ctx, &bedrockagentcorecontrol.ListGatewayTargetsInput{
			GatewayIdentifier: aws.String(gatewayID),
			NextToken:         nextToken,
		})
		if err != nil {
			return nil, h.errorHandler.Handle("AgentCore gateway target", name, err, ctx)
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

func (h *TargetHandler) Probe(ctx context.Context, name string, logger ports.Logger) (domain.ResourceState, error) {
	gatewayID, err := h.resolveGatewayID(ctx, logger)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeResourceNotFound) {
			// No gateway yet means no target either.
			return domain.ResourceState{Exists: false}, nil
		}
		return domain.ResourceState{}, err
	}

	summary, err := h.findTarget(ctx, gatewayID, name, logger)
	if err != nil {
		return domain.ResourceState{}, err
	}
	if summary == nil {
		logger.Debugf(ctx, "Gateway target '%s' not found on gateway '%s'", name, h.gatewayName)
		return domain.ResourceState{Exists: false}, nil
	}
	return domain.ResourceState{Exists: true, Spec: aws.ToString(summary.TargetId)}, nil
}

func (h *TargetHandler) Create(ctx context.Context, desc domain.ResourceDescriptor, logger ports.Logger) (domain.ResourceIdentity, error) {
	spec, ok := desc.Spec.(TargetSpec)
	if !ok {
		return domain.ResourceIdentity{}, apperrors.Newf(apperrors.CodeInternal, "descriptor for gateway target '%s' does not carry a TargetSpec", desc.Name)
	}

	gatewayID, err := h.resolveGatewayID(ctx, logger)
	if err != nil {
		return domain.ResourceIdentity{}, err
	}

	input := &bedrockagentcorecontrol.CreateGatewayTargetInput{
		GatewayIdentifier:   aws.String(gatewayID),
		Name:                aws.String(desc.Name),
		TargetConfiguration: lambdaTargetConfiguration(spec.LambdaARN),
		CredentialProviderConfigurations: []types.CredentialProviderConfiguration{
			{CredentialProviderType: types.CredentialProviderTypeGatewayIamRole},
		},
	}
	if spec.Description != "" {
		input.Description = aws.String(spec.Description)
	}

	if err := h.limiter.Wait(ctx, logger); err != nil {
		return domain.ResourceIdentity{}, err
	}
	out, err := h.client.CreateGatewayTarget(ctx, input)
	if err != nil {
		return domain.ResourceIdentity{}, h.errorHandler.Handle("AgentCore gateway target", desc.Name, err, ctx)
	}

	identity := domain.ResourceIdentity{ID: aws.ToString(out.TargetId)}
	logger.Infof(ctx, "Created gateway target '%s' exposing tool '%s___%s'", desc.Name, desc.Name, ToolName)
	return identity, nil
}

// DeleteDependents is a no-op: a gateway target has no sub-resources of its
// own.
func (h *TargetHandler) DeleteDependents(ctx context.Context, name string, logger ports.Logger) error {
	return nil
}

func (h *TargetHandler) Delete(ctx context.Context, name string, logger ports.Logger) error {
	gatewayID, err := h.resolveGatewayID(ctx, logger)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeResourceNotFound) {
			return nil
		}
		return err
	}

	summary, err := h.findTarget(ctx, gatewayID, name, logger)
	if err != nil {
		return err
	}
	if summary == nil {
		logger.Warnf(ctx, "Gateway target '%s' already gone", name)
		return nil
	}

	if err := h.limiter.Wait(ctx, logger); err != nil {
		return err
	}
	_, err = h.client.DeleteGatewayTarget(ctx, &bedrockagentcorecontrol.DeleteGatewayTargetInput{
		GatewayIdentifier: aws.String(gatewayID),
		TargetId:          summary.TargetId,
	})
	if err != nil && !awserrors.IsNotFound(err) {
		return h.errorHandler.Handle("AgentCore gateway target", name, err, ctx)
	}
	logger.Infof(ctx, "Deleted gateway target '%s'", name)
	return nil
}
