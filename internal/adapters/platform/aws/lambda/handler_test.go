package lambda_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	lambdaadapter "github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/lambda"
	"github.com/oluseyia/agentcore-deployer/internal/core/domain"
	"github.com/oluseyia/agentcore-deployer/mocks"
)

func newFunctionHandler(client *mocks.MockLambdaClient) *lambdaadapter.FunctionHandler {
	return lambdaadapter.NewHandler(aws.Config{},
		lambdaadapter.WithLambdaClient(client),
		lambdaadapter.WithRateLimiter(mocks.NoopRateLimiter{}))
}

func TestFunctionHandlerProbeAbsent(t *testing.T) {
	client := &mocks.MockLambdaClient{}
	client.On("GetFunction", mock.Anything, mock.Anything, mock.Anything).Return(
		nil, &smithy.GenericAPIError{Code: "ResourceNotFoundException", Message: "function missing"})

	handler := newFunctionHandler(client)
	state, err := handler.Probe(context.Background(), "fn", mocks.NoopLogger{})

	require.NoError(t, err)
	assert.False(t, state.Exists)
}

func TestFunctionHandlerCreateZipPackage(t *testing.T) {
	client := &mocks.MockLambdaClient{}
	client.On("CreateFunction", mock.Anything, mock.MatchedBy(func(in *awslambda.CreateFunctionInput) bool {
		return in.PackageType == types.PackageTypeZip &&
			in.Runtime == types.Runtime("python3.13") &&
			len(in.Code.ZipFile) > 0
	}), mock.Anything).Return(&awslambda.CreateFunctionOutput{
		FunctionArn: aws.String("arn:aws:lambda:us-east-1:123456789012:function:fn"),
	}, nil)
	client.On("AddPermission", mock.Anything, mock.MatchedBy(func(in *awslambda.AddPermissionInput) bool {
		return aws.ToString(in.StatementId) == "AllowAgentCoreInvoke" &&
			aws.ToString(in.Action) == "lambda:InvokeFunction"
	}), mock.Anything).Return(&awslambda.AddPermissionOutput{}, nil)

	handler := newFunctionHandler(client)
	identity, err := handler.Create(context.Background(), domain.ResourceDescriptor{
		Kind: domain.KindFunction,
		Name: "fn",
		Spec: lambdaadapter.FunctionSpec{
			RoleARN:           "arn:aws:iam::123456789012:role/lambda-snowflake-role",
			Runtime:           "python3.13",
			Handler:           "lambda_function_code.lambda_handler",
			ZipFile:           []byte("PK\x03\x04fake"),
			Timeout:           60,
			InvokerPrincipals: []string{"arn:aws:iam::123456789012:role/agentcore-SnowflakeMCPGateway-role"},
		},
	}, mocks.NoopLogger{})

	require.NoError(t, err)
	assert.Equal(t, "arn:aws:lambda:us-east-1:123456789012:function:fn", identity.ARN)
	client.AssertExpectations(t)
}

func TestFunctionHandlerCreateImagePackage(t *testing.T) {
	client := &mocks.MockLambdaClient{}
	client.On("CreateFunction", mock.Anything, mock.MatchedBy(func(in *awslambda.CreateFunctionInput) bool {
		return in.PackageType == types.PackageTypeImage &&
			aws.ToString(in.Code.ImageUri) == "123456789012.dkr.ecr.us-east-1.amazonaws.com/snowflake-mcp-api:latest"
	}), mock.Anything).Return(&awslambda.CreateFunctionOutput{
		FunctionArn: aws.String("arn:aws:lambda:us-east-1:123456789012:function:fn"),
	}, nil)

	handler := newFunctionHandler(client)
	_, err := handler.Create(context.Background(), domain.ResourceDescriptor{
		Kind: domain.KindFunction,
		Name: "fn",
		Spec: lambdaadapter.FunctionSpec{
			RoleARN:  "arn:aws:iam::123456789012:role/lambda-snowflake-role",
			ImageURI: "123456789012.dkr.ecr.us-east-1.amazonaws.com/snowflake-mcp-api:latest",
		},
	}, mocks.NoopLogger{})

	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestFunctionHandlerCreateRequiresCodeSource(t *testing.T) {
	handler := newFunctionHandler(&mocks.MockLambdaClient{})
	_, err := handler.Create(context.Background(), domain.ResourceDescriptor{
		Kind: domain.KindFunction,
		Name: "fn",
		Spec: lambdaadapter.FunctionSpec{RoleARN: "arn:aws:iam::123456789012:role/r"},
	}, mocks.NoopLogger{})
	assert.Error(t, err)
}

func TestFunctionHandlerDeleteDependentsRemovesPermissions(t *testing.T) {
	client := &mocks.MockLambdaClient{}
	policy := `{"Statement":[{"Sid":"AllowAgentCoreInvoke"},{"Sid":"AllowAgentCoreInvoke1"}]}`
	client.On("GetPolicy", mock.Anything, mock.Anything, mock.Anything).Return(
		&awslambda.GetPolicyOutput{Policy: aws.String(policy)}, nil)
	client.On("RemovePermission", mock.Anything, mock.Anything, mock.Anything).Return(
		&awslambda.RemovePermissionOutput{}, nil).Twice()

	handler := newFunctionHandler(client)
	require.NoError(t, handler.DeleteDependents(context.Background(), "fn", mocks.NoopLogger{}))
	client.AssertExpectations(t)
}

func TestFunctionHandlerDeleteDependentsNoPolicy(t *testing.T) {
	client := &mocks.MockLambdaClient{}
	client.On("GetPolicy", mock.Anything, mock.Anything, mock.Anything).Return(
		nil, &smithy.GenericAPIError{Code: "ResourceNotFoundException", Message: "no policy"})

	handler := newFunctionHandler(client)
	require.NoError(t, handler.DeleteDependents(context.Background(), "fn", mocks.NoopLogger{}))
	client.AssertNotCalled(t, "RemovePermission", mock.Anything, mock.Anything, mock.Anything)
}
