package ecr

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsecr "github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecr/types"

	awserrors "github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/errors"
	awslimiter "github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/limiter"
	"github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/shared"
	"github.com/oluseyia/agentcore-deployer/internal/core/domain"
	"github.com/oluseyia/agentcore-deployer/internal/core/ports"
	apperrors "github.com/oluseyia/agentcore-deployer/internal/errors"
)

// RepositorySpec is the desired configuration of an ECR repository.
type RepositorySpec struct {
	ScanOnPush         bool
	ImageTagMutability string
}

type RepositoryHandler struct {
	ecrClient    ECRClientInterface
	limiter      shared.RateLimiter
	errorHandler shared.ErrorHandler
}

type HandlerOption func(*RepositoryHandler)

func WithECRClient(client ECRClientInterface) HandlerOption {
	return func(h *RepositoryHandler) {
		if client != nil {
			h.ecrClient = client
		}
	}
}

func WithRateLimiter(limiter shared.RateLimiter) HandlerOption {
	return func(h *RepositoryHandler) {
		if limiter != nil {
			h.limiter = limiter
		}
	}
}

func WithErrorHandler(handler shared.ErrorHandler) HandlerOption {
	return func(h *RepositoryHandler) {
		if handler != nil {
			h.errorHandler = handler
		}
	}
}

func NewHandler(cfg aws.Config, opts ...HandlerOption) *RepositoryHandler {
	h := &RepositoryHandler{
		ecrClient:    awsecr.NewFromConfig(cfg),
		limiter:      &awslimiter.DefaultRateLimiter{},
		errorHandler: &awserrors.DefaultErrorHandler{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *RepositoryHandler) Kind() domain.ResourceKind { return domain.KindRepository }

func (h *RepositoryHandler) Probe(ctx context.Context, name string, logger ports.Logger) (domain.ResourceState, error) {
	if err := h.limiter.Wait(ctx, logger); err != nil {
		return domain.ResourceState{}, err
	}

	out, err := h.ecrClient.DescribeRepositories(ctx, &awsecr.DescribeRepositoriesInput{
		RepositoryNames: []string{name},
	})
	if err != nil {
		if awserrors.IsNotFound(err) {
			logger.Debugf(ctx, "ECR repository '%s' not found", name)
			return domain.ResourceState{Exists: false}, nil
		}
		return domain.ResourceState{}, h.errorHandler.Handle("ECR repository", name, err, ctx)
	}
	if len(out.Repositories) == 0 {
		return domain.ResourceState{Exists: false}, nil
	}

	state := domain.ResourceState{Exists: true}
	if out.Repositories[0].RepositoryUri != nil {
		state.Spec = *out.Repositories[0].RepositoryUri
	}
	return state, nil
}

func (h *RepositoryHandler) Create(ctx context.Context, desc domain.ResourceDescriptor, logger ports.Logger) (domain.ResourceIdentity, error) {
	spec, ok := desc.Spec.(RepositorySpec)
	if !ok {
		return domain.ResourceIdentity{}, apperrors.Newf(apperrors.CodeInternal, "descriptor for repository '%s' does not carry a RepositorySpec", desc.Name)
	}

	input := &awsecr.CreateRepositoryInput{
		RepositoryName: aws.String(desc.Name),
		ImageScanningConfiguration: &types.ImageScanningConfiguration{
			ScanOnPush: spec.ScanOnPush,
		},
	}
	if spec.ImageTagMutability != "" {
		input.ImageTagMutability = types.ImageTagMutability(spec.ImageTagMutability)
	}

	if err := h.limiter.Wait(ctx, logger); err != nil {
		return domain.ResourceIdentity{}, err
	}
	out, err := h.ecrClient.CreateRepository(ctx, input)
	if err != nil {
		return domain.ResourceIdentity{}, h.errorHandler.Handle("ECR repository", desc.Name, err, ctx)
	}

	identity := domain.ResourceIdentity{}
	if out.Repository != nil {
		if out.Repository.RepositoryArn != nil {
			identity.ARN = *out.Repository.RepositoryArn
		}
		if out.Repository.RepositoryUri != nil {
			identity.URL = *out.Repository.RepositoryUri
		}
	}
	return identity, nil
}

// DeleteDependents removes all images so the repository can be deleted
// without force.
func (h *RepositoryHandler) DeleteDependents(ctx context.Context, name string, logger ports.Logger) error {
	for {
		if err := h.limiter.Wait(ctx, logger); err != nil {
			return err
		}
		out, err := h.ecrClient.ListImages(ctx, &awsecr.ListImagesInput{RepositoryName: aws.String(name)})
		if err != nil {
			if awserrors.IsNotFound(err) {
				return nil
			}
			return h.errorHandler.Handle("ECR repository", name, err, ctx)
		}
		if len(out.ImageIds) == 0 {
			return nil
		}

		if err := h.limiter.Wait(ctx, logger); err != nil {
			return err
		}
		_, delErr := h.ecrClient.BatchDeleteImage(ctx, &awsecr.BatchDeleteImageInput{
			RepositoryName: aws.String(name),
			ImageIds:       out.ImageIds,
		})
		if delErr != nil {
			return h.errorHandler.Handle("ECR image batch", name, delErr, ctx)
		}
		logger.Debugf(ctx, "Deleted %d images from repository '%s'", len(out.ImageIds), name)

		if out.NextToken == nil {
			return nil
		}
	}
}

func (h *RepositoryHandler) Delete(ctx context.Context, name string, logger ports.Logger) error {
	if err := h.limiter.Wait(ctx, logger); err != nil {
		return err
	}
	_, err := h.ecrClient.DeleteRepository(ctx, &awsecr.DeleteRepositoryInput{RepositoryName: aws.String(name)})
	if err != nil {
		if awserrors.IsNotFound(err) {
			logger.Warnf(ctx, "ECR repository '%s' already gone", name)
			return nil
		}
		return h.errorHandler.Handle("ECR repository", name, err, ctx)
	}
	logger.Infof(ctx, "Deleted ECR repository '%s'", name)
	return nil
}
