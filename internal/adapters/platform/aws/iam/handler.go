package iam

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsiam "github.com/aws/aws-sdk-go-v2/service/iam"

	awserrors "github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/errors"
	awslimiter "github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/limiter"
	"github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/shared"
	"github.com/oluseyia/agentcore-deployer/internal/core/domain"
	"github.com/oluseyia/agentcore-deployer/internal/core/ports"
	apperrors "github.com/oluseyia/agentcore-deployer/internal/errors"
)

// RoleSpec is the desired configuration of an IAM role.
type RoleSpec struct {
	Description       string
	TrustPolicy       PolicyDocument
	InlinePolicies    map[string]PolicyDocument
	ManagedPolicyARNs []string
}

type RoleHandler struct {
	iamClient    IAMClientInterface
	limiter      shared.RateLimiter
	errorHandler shared.ErrorHandler
}

type HandlerOption func(*RoleHandler)

func WithIAMClient(client IAMClientInterface) HandlerOption {
	return func(h *RoleHandler) {
		if client != nil {
			h.iamClient = client
		}
	}
}

func WithRateLimiter(limiter shared.RateLimiter) HandlerOption {
	return func(h *RoleHandler) {
		if limiter != nil {
			h.limiter = limiter
		}
	}
}

func WithErrorHandler(handler shared.ErrorHandler) HandlerOption {
	return func(h *RoleHandler) {
		if handler != nil {
			h.errorHandler = handler
		}
	}
}

func NewHandler(cfg aws.Config, opts ...HandlerOption) *RoleHandler {
	h := &RoleHandler{
		iamClient:    awsiam.NewFromConfig(cfg),
		limiter:      &awslimiter.DefaultRateLimiter{},
		errorHandler: &awserrors.DefaultErrorHandler{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *RoleHandler) Kind() domain.ResourceKind { return domain.KindRole }

func (h *RoleHandler) Probe(ctx context.Context, name string, logger ports.Logger) (domain.ResourceState, error) {
	if err := h.limiter.Wait(ctx, logger); err != nil {
		return domain.ResourceState{}, err
	}

	out, err := h.iamClient.GetRole(ctx, &awsiam.GetRoleInput{RoleName: aws.String(name)})
	if err != nil {
		if awserrors.IsNotFound(err) {
			logger.Debugf(ctx, "IAM role '%s' not found", name)
			return domain.ResourceState{Exists: false}, nil
		}
		return domain.ResourceState{}, h.errorHandler.Handle("IAM role", name, err, ctx)
	}

	state := domain.ResourceState{Exists: true}
	if out.Role != nil && out.Role.Arn != nil {
		state.Spec = *out.Role.Arn
	}
	return state, nil
}

func (h *RoleHandler) Create(ctx context.Context, desc domain.ResourceDescriptor, logger ports.Logger) (domain.ResourceIdentity, error) {
	spec, ok := desc.Spec.(RoleSpec)
	if !ok {
		return domain.ResourceIdentity{}, apperrors.Newf(apperrors.CodeInternal, "descriptor for role '%s' does not carry a RoleSpec", desc.Name)
	}

	trustJSON, err := spec.TrustPolicy.JSON()
	if err != nil {
		return domain.ResourceIdentity{}, apperrors.Wrap(err, apperrors.CodeInternal, "failed to encode trust policy")
	}

	if err := h.limiter.Wait(ctx, logger); err != nil {
		return domain.ResourceIdentity{}, err
	}

	input := &awsiam.CreateRoleInput{
		RoleName:                 aws.String(desc.Name),
		AssumeRolePolicyDocument: aws.String(trustJSON),
	}
	if spec.Description != "" {
		input.Description = aws.String(spec.Description)
	}

	out, err := h.iamClient.CreateRole(ctx, input)
	if err != nil {
		return domain.ResourceIdentity{}, h.errorHandler.Handle("IAM role", desc.Name, err, ctx)
	}

	for policyName, doc := range spec.InlinePolicies {
		docJSON, encErr := doc.JSON()
		if encErr != nil {
			return domain.ResourceIdentity{}, apperrors.Wrapf(encErr, apperrors.CodeInternal, "failed to encode inline policy '%s'", policyName)
		}
		if err := h.limiter.Wait(ctx, logger); err != nil {
			return domain.ResourceIdentity{}, err
		}
		_, putErr := h.iamClient.PutRolePolicy(ctx, &awsiam.PutRolePolicyInput{
			RoleName:       aws.String(desc.Name),
			PolicyName:     aws.String(policyName),
			PolicyDocument: aws.String(docJSON),
		})
		if putErr != nil {
			return domain.ResourceIdentity{}, h.errorHandler.Handle("IAM role policy", policyName, putErr, ctx)
		}
		logger.Debugf(ctx, "Put inline policy '%s' on role '%s'", policyName, desc.Name)
	}

	for _, policyARN := range spec.ManagedPolicyARNs {
		if err := h.limiter.Wait(ctx, logger); err != nil {
			return domain.ResourceIdentity{}, err
		}
		_, attachErr := h.iamClient.AttachRolePolicy(ctx, &awsiam.AttachRolePolicyInput{
			RoleName:  aws.String(desc.Name),
			PolicyArn: aws.String(policyARN),
		})
		if attachErr != nil {
			return domain.ResourceIdentity{}, h.errorHandler.Handle("IAM managed policy", policyARN, attachErr, ctx)
		}
		logger.Debugf(ctx, "Attached managed policy '%s' to role '%s'", policyARN, desc.Name)
	}

	identity := domain.ResourceIdentity{}
	if out.Role != nil && out.Role.Arn != nil {
		identity.ARN = *out.Role.Arn
	}
	if out.Role != nil && out.Role.RoleId != nil {
		identity.ID = *out.Role.RoleId
	}
	return identity, nil
}

// DeleteDependents strips everything that blocks DeleteRole: attached
// managed policies, inline policies, then instance profile memberships.
func (h *RoleHandler) DeleteDependents(ctx context.Context, name string, logger ports.Logger) error {
	var attachedMarker *string
	for {
		if err := h.limiter.Wait(ctx, logger); err != nil {
			return err
		}
		attached, err := h.iamClient.ListAttachedRolePolicies(ctx, &awsiam.ListAttachedRolePoliciesInput{
			RoleName: aws.String(name),
			Marker:   attachedMarker,
		})
		if err != nil {
			return h.errorHandler.Handle("IAM role", name, err, ctx)
		}
		for _, policy := range attached.AttachedPolicies {
			if err := h.limiter.Wait(ctx, logger); err != nil {
				return err
			}
			_, detachErr := h.iamClient.DetachRolePolicy(ctx, &awsiam.DetachRolePolicyInput{
				RoleName:  aws.String(name),
				PolicyArn: policy.PolicyArn,
			})
			if detachErr != nil {
				return h.errorHandler.Handle("IAM managed policy", aws.ToString(policy.PolicyArn), detachErr, ctx)
			}
			logger.Debugf(ctx, "Detached managed policy '%s' from role '%s'", aws.ToString(policy.PolicyArn), name)
		}
		if !attached.IsTruncated {
			break
		}
		attachedMarker = attached.Marker
	}

	var inlineMarker *string
	for {
		if err := h.limiter.Wait(ctx, logger); err != nil {
			return err
		}
		inline, err := h.iamClient.ListRolePolicies(ctx, &awsiam.ListRolePoliciesInput{
			RoleName: aws.String(name),
			Marker:   inlineMarker,
		})
		if err != nil {
			return h.errorHandler.Handle("IAM role", name, err, ctx)
		}
		for _, policyName := range inline.PolicyNames {
			if err := h.limiter.Wait(ctx, logger); err != nil {
				return err
			}
			_, delErr := h.iamClient.DeleteRolePolicy(ctx, &awsiam.DeleteRolePolicyInput{
				RoleName:   aws.String(name),
				PolicyName: aws.String(policyName),
			})
			if delErr != nil {
				return h.errorHandler.Handle("IAM role policy", policyName, delErr, ctx)
			}
			logger.Debugf(ctx, "Deleted inline policy '%s' from role '%s'", policyName, name)
		}
		if !inline.IsTruncated {
			break
		}
		inlineMarker = inline.Marker
	}

	var profileMarker *string
	for {
		if err := h.limiter.Wait(ctx, logger); err != nil {
			return err
		}
		profiles, err := h.iamClient.ListInstanceProfilesForRole(ctx, &awsiam.ListInstanceProfilesForRoleInput{
			RoleName: aws.String(name),
			Marker:   profileMarker,
		})
		if err != nil {
			return h.errorHandler.Handle("IAM role", name, err, ctx)
		}
		for _, profile := range profiles.InstanceProfiles {
			if err := h.limiter.Wait(ctx, logger); err != nil {
				return err
			}
			_, removeErr := h.iamClient.RemoveRoleFromInstanceProfile(ctx, &awsiam.RemoveRoleFromInstanceProfileInput{
				RoleName:            aws.String(name),
				InstanceProfileName: profile.InstanceProfileName,
			})
			if removeErr != nil {
				return h.errorHandler.Handle("IAM instance profile", aws.ToString(profile.InstanceProfileName), removeErr, ctx)
			}
			logger.Debugf(ctx, "Removed role '%s' from instance profile '%s'", name, aws.ToString(profile.InstanceProfileName))
		}
		if !profiles.IsTruncated {
			break
		}
		profileMarker = profiles.Marker
	}

	return nil
}

func (h *RoleHandler) Delete(ctx context.Context, name string, logger ports.Logger) error {
	if err := h.limiter.Wait(ctx, logger); err != nil {
		return err
	}
	_, err := h.iamClient.DeleteRole(ctx, &awsiam.DeleteRoleInput{RoleName: aws.String(name)})
	if err != nil {
		if awserrors.IsNotFound(err) {
			logger.Warnf(ctx, "IAM role '%s' already gone", name)
			return nil
		}
		return h.errorHandler.Handle("IAM role", name, err, ctx)
	}
	logger.Infof(ctx, "Deleted IAM role '%s'", name)
	return nil
}
