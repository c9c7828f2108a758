package shared

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/oluseyia/agentcore-deployer/internal/core/ports"
)

// RateLimiter gates AWS API calls behind a shared rate limit.
type RateLimiter interface {
	Wait(ctx context.Context, logger ports.Logger) error
}

// ErrorHandler maps raw AWS SDK errors onto application error codes. Service
// and operation identify where the error occurred.
type ErrorHandler interface {
	Handle(service, operation string, err error, ctx context.Context) error
}

// STSClientInterface is the slice of the STS client the handlers need.
type STSClientInterface interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}
