package lambda

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"

	awserrors "github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/errors"
	awslimiter "github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/limiter"
	"github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/shared"
	"github.com/oluseyia/agentcore-deployer/internal/core/domain"
	"github.com/oluseyia/agentcore-deployer/internal/core/ports"
	apperrors "github.com/oluseyia/agentcore-deployer/internal/errors"
)

// FunctionSpec is the desired configuration of a Lambda function. Exactly
// one of ZipFile or ImageURI must be set; ZipFile deploys a ZIP artifact
// with Runtime and Handler, ImageURI deploys a container image.
type FunctionSpec struct {
	Description string
	RoleARN     string
	Runtime     string
	Handler     string
	ZipFile     []byte
	ImageURI    string
	Timeout     int32
	MemorySize  int32

	// InvokerPrincipals get lambda:InvokeFunction permission statements on
	// the created function, one per principal (the gateway execution role).
	InvokerPrincipals []string
}

type FunctionHandler struct {
	lambdaClient LambdaClientInterface
	limiter      shared.RateLimiter
	errorHandler shared.ErrorHandler
}

type HandlerOption func(*FunctionHandler)

func WithLambdaClient(client LambdaClientInterface) HandlerOption {
	return func(h *FunctionHandler) {
		if client != nil {
			h.lambdaClient = client
		}
	}
}

func WithRateLimiter(limiter shared.RateLimiter) HandlerOption {
	return func(h *FunctionHandler) {
		if limiter != nil {
			h.limiter = limiter
		}
	}
}

func WithErrorHandler(handler shared.ErrorHandler) HandlerOption {
	return func(h *FunctionHandler) {
		if handler != nil {
			h.errorHandler = handler
		}
	}
}

func NewHandler(cfg aws.Config, opts ...HandlerOption) *FunctionHandler {
	h := &FunctionHandler{
		lambdaClient: awslambda.NewFromConfig(cfg),
		limiter:      &awslimiter.DefaultRateLimiter{},
		errorHandler: &awserrors.DefaultErrorHandler{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *FunctionHandler) Kind() domain.ResourceKind { return domain.KindFunction }

func (h *FunctionHandler) Probe(ctx context.Context, name string, logger ports.Logger) (domain.ResourceState, error) {
	if err := h.limiter.Wait(ctx, logger); err != nil {
		return domain.ResourceState{}, err
	}

	out, err := h.lambdaClient.GetFunction(ctx, &awslambda.GetFunctionInput{FunctionName: aws.String(name)})
	if err != nil {
		if awserrors.IsNotFound(err) {
			logger.Debugf(ctx, "Lambda function '%s' not found", name)
			return domain.ResourceState{Exists: false}, nil
		}
		return domain.ResourceState{}, h.errorHandler.Handle("Lambda function", name, err, ctx)
	}

	state := domain.ResourceState{Exists: true}
	if out.Configuration != nil && out.Configuration.FunctionArn != nil {
		state.Spec = *out.Configuration.FunctionArn
	}
	return state, nil
}

func (h *FunctionHandler) Create(ctx context.Context, desc domain.ResourceDescriptor, logger ports.Logger) (domain.ResourceIdentity, error) {
	spec, ok := desc.Spec.(FunctionSpec)
	if !ok {
		return domain.ResourceIdentity{}, apperrors.Newf(apperrors.CodeInternal, "descriptor for function '%s' does not carry a FunctionSpec", desc.Name)
	}
	if len(spec.ZipFile) == 0 && spec.ImageURI == "" {
		return domain.ResourceIdentity{}, apperrors.Newf(apperrors.CodeValidationError, "function '%s' spec has neither a ZIP artifact nor an image URI", desc.Name)
	}

	input := &awslambda.CreateFunctionInput{
		FunctionName: aws.String(desc.Name),
		Role:         aws.String(spec.RoleARN),
	}
	if spec.Description != "" {
		input.Description = aws.String(spec.Description)
	}
	if spec.Timeout > 0 {
		input.Timeout = aws.Int32(spec.Timeout)
	}
	if spec.MemorySize > 0 {
		input.MemorySize = aws.Int32(spec.MemorySize)
	}

	if spec.ImageURI != "" {
		input.PackageType = types.PackageTypeImage
		input.Code = &types.FunctionCode{ImageUri: aws.String(spec.ImageURI)}
	} else {
		input.PackageType = types.PackageTypeZip
		input.Runtime = types.Runtime(spec.Runtime)
		input.Handler = aws.String(spec.Handler)
		input.Code = &types.FunctionCode{ZipFile: spec.ZipFile}
	}

	if err := h.limiter.Wait(ctx, logger); err != nil {
		return domain.ResourceIdentity{}, err
	}
	out, err := h.lambdaClient.CreateFunction(ctx, input)
	if err != nil {
		return domain.ResourceIdentity{}, h.errorHandler.Handle("Lambda function", desc.Name, err, ctx)
	}

	for i, principal := range spec.InvokerPrincipals {
		if err := h.limiter.Wait(ctx, logger); err != nil {
			return domain.ResourceIdentity{}, err
		}
		_, permErr := h.lambdaClient.AddPermission(ctx, &awslambda.AddPermissionInput{
			FunctionName: aws.String(desc.Name),
			StatementId:  aws.String(invokeStatementID(i)),
			Action:       aws.String("lambda:InvokeFunction"),
			Principal:    aws.String(principal),
		})
		if permErr != nil {
			return domain.ResourceIdentity{}, h.errorHandler.Handle("Lambda permission", desc.Name, permErr, ctx)
		}
		logger.Debugf(ctx, "Granted invoke on '%s' to '%s'", desc.Name, principal)
	}

	identity := domain.ResourceIdentity{}
	if out.FunctionArn != nil {
		identity.ARN = *out.FunctionArn
	}
	return identity, nil
}

// DeleteDependents removes the function's resource policy statements. They
// are not strictly blocking for DeleteFunction, but stale statements pointing
// at a recreated gateway role are worse than none.
func (h *FunctionHandler) DeleteDependents(ctx context.Context, name string, logger ports.Logger) error {
	if err := h.limiter.Wait(ctx, logger); err != nil {
		return err
	}
	out, err := h.lambdaClient.GetPolicy(ctx, &awslambda.GetPolicyInput{FunctionName: aws.String(name)})
	if err != nil {
		if awserrors.IsNotFound(err) {
			// No resource policy attached.
			return nil
		}
		return h.errorHandler.Handle("Lambda function", name, err, ctx)
	}
	if out.Policy == nil {
		return nil
	}

	var policy struct {
		Statement []struct {
			Sid string `json:"Sid"`
		} `json:"Statement"`
	}
	if err := json.Unmarshal([]byte(*out.Policy), &policy); err != nil {
		return apperrors.Wrapf(err, apperrors.CodeDeleteError, "failed to decode resource policy of function '%s'", name)
	}

	for _, stmt := range policy.Statement {
		if stmt.Sid == "" {
			continue
		}
		if err := h.limiter.Wait(ctx, logger); err != nil {
			return err
		}
		_, remErr := h.lambdaClient.RemovePermission(ctx, &awslambda.RemovePermissionInput{
			FunctionName: aws.String(name),
			StatementId:  aws.String(stmt.Sid),
		})
		if remErr != nil && !awserrors.IsNotFound(remErr) {
			return h.errorHandler.Handle("Lambda permission", stmt.Sid, remErr, ctx)
		}
		logger.Debugf(ctx, "Removed permission statement '%s' from function '%s'", stmt.Sid, name)
	}
	return nil
}

func (h *FunctionHandler) Delete(ctx context.Context, name string, logger ports.Logger) error {
	if err := h.limiter.Wait(ctx, logger); err != nil {
		return err
	}
	_, err := h.lambdaClient.DeleteFunction(ctx, &awslambda.DeleteFunctionInput{FunctionName: aws.String(name)})
	if err != nil {
		if awserrors.IsNotFound(err) {
			logger.Warnf(ctx, "Lambda function '%s' already gone", name)
			return nil
		}
		return h.errorHandler.Handle("Lambda function", name, err, ctx)
	}
	logger.Infof(ctx, "Deleted Lambda function '%s'", name)
	return nil
}

func invokeStatementID(i int) string {
	if i == 0 {
		return "AllowAgentCoreInvoke"
	}
	return fmt.Sprintf("AllowAgentCoreInvoke%d", i)
}
