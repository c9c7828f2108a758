package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"

	"github.com/oluseyia/agentcore-deployer/internal/errors"
)

// HandleAWSError maps an AWS SDK error onto an application error code.
// resourceType names the AWS resource kind (e.g. "IAM role", "Lambda
// function"); resourceID identifies the instance.
func HandleAWSError(resourceType string, resourceID string, err error, ctx context.Context) error {
	if err == nil {
		return errors.New(errors.CodeInternal, fmt.Sprintf("unexpected nil error in AWS error handler for %s", resourceType))
	}

	if ctx.Err() != nil || err == context.Canceled || err == context.DeadlineExceeded {
		return errors.Wrap(err, errors.CodePlatformAPIError,
			fmt.Sprintf("context canceled during AWS %s API call", resourceType))
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "AuthFailure") ||
		strings.Contains(errMsg, "UnauthorizedOperation") ||
		strings.Contains(errMsg, "AccessDenied") ||
		strings.Contains(errMsg, "InvalidClientTokenId") ||
		strings.Contains(errMsg, "ExpiredToken") {
		return errors.Wrap(err, errors.CodePlatformAuthError,
			fmt.Sprintf("AWS authentication error accessing %s '%s'", resourceType, resourceID))
	}

	if IsNotFound(err) {
		return errors.Wrap(err, errors.CodeResourceNotFound,
			fmt.Sprintf("%s '%s' not found", resourceType, resourceID))
	}

	return errors.Wrap(err, errors.CodePlatformAPIError,
		fmt.Sprintf("failed to access %s '%s'", resourceType, resourceID))
}

// IsNotFound reports whether err indicates the target resource does not
// exist. Probes use it to turn a not-found API error into an Exists=false
// state rather than a probe failure.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	if mockErr, ok := err.(interface{ ErrorCode() string }); ok && mockErr != nil {
		if isNotFoundErrorCode(mockErr.ErrorCode()) {
			return true
		}
	}

	var apiErr smithy.APIError
	if stderrs.As(err, &apiErr) && apiErr != nil {
		if isNotFoundErrorCode(apiErr.ErrorCode()) {
			return true
		}
	}

	errMsg := err.Error()
	return strings.Contains(errMsg, "NotFound") ||
		strings.Contains(errMsg, "not found") ||
		strings.Contains(errMsg, "does not exist")
}

// IsAlreadyExists reports whether err indicates a create collided with an
// existing resource of the same name.
func IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}

	if mockErr, ok := err.(interface{ ErrorCode() string }); ok && mockErr != nil {
		if isAlreadyExistsErrorCode(mockErr.ErrorCode()) {
			return true
		}
	}

	var apiErr smithy.APIError
	if stderrs.As(err, &apiErr) && apiErr != nil {
		if isAlreadyExistsErrorCode(apiErr.ErrorCode()) {
			return true
		}
	}

	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}

func isNotFoundErrorCode(code string) bool {
	notFoundCodes := []string{
		// IAM
		"NoSuchEntity",
		"NoSuchEntityException",

		// ECR
		"RepositoryNotFoundException",
		"ImageNotFoundException",

		// Lambda, Secrets Manager, AgentCore
		"ResourceNotFoundException",

		// Generic
		"EntityNotFoundException",
		"NotFoundException",
	}

	for _, nfCode := range notFoundCodes {
		if code == nfCode {
			return true
		}
	}
	return false
}

func isAlreadyExistsErrorCode(code string) bool {
	existsCodes := []string{
		"EntityAlreadyExists",
		"EntityAlreadyExistsException",
		"ResourceConflictException",
		"RepositoryAlreadyExistsException",
		"ConflictException",
	}

	for _, eCode := range existsCodes {
		if code == eCode {
			return true
		}
	}
	return false
}

// DefaultErrorHandler implements the shared.ErrorHandler interface.
type DefaultErrorHandler struct{}

func (d *DefaultErrorHandler) Handle(service, operation string, err error, ctx context.Context) error {
	return HandleAWSError(service, operation, err, ctx)
}
