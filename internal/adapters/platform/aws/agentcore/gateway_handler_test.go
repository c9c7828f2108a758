package agentcore_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/agentcore"
	"github.com/oluseyia/agentcore-deployer/internal/core/domain"
	"github.com/oluseyia/agentcore-deployer/mocks"
)

func newGatewayHandler(client *mocks.MockGatewayClient) *agentcore.GatewayHandler {
	return agentcore.NewGatewayHandler(aws.Config{},
		agentcore.WithGatewayClient(client),
		agentcore.WithGatewayRateLimiter(mocks.NoopRateLimiter{}))
}

func TestGatewayHandlerProbeFindsByName(t *testing.T) {
	client := &mocks.MockGatewayClient{}
	client.On("ListGateways", mock.Anything, mock.Anything, mock.Anything).Return(
		&bedrockagentcorecontrol.ListGatewaysOutput{Items: []types.GatewaySummary{
			{Name: aws.String("OtherGateway"), GatewayId: aws.String("gw-other")},
			{Name: aws.String("SnowflakeMCPGateway"), GatewayId: aws.String("gw-123")},
		}}, nil)

	handler := newGatewayHandler(client)
	state, err := handler.Probe(context.Background(), "SnowflakeMCPGateway", mocks.NoopLogger{})

	require.NoError(t, err)
	assert.True(t, state.Exists)
	assert.Equal(t, "gw-123", state.Spec)
}

func TestGatewayHandlerProbePagesUntilFound(t *testing.T) {
	client := &mocks.MockGatewayClient{}
	client.On("ListGateways", mock.Anything, mock.MatchedBy(func(in *bedrockagentcorecontrol.ListGatewaysInput) bool {
		return in.NextToken == nil
	}), mock.Anything).Return(&bedrockagentcorecontrol.ListGatewaysOutput{
		Items:     []types.GatewaySummary{{Name: aws.String("Unrelated"), GatewayId: aws.String("gw-0")}},
		NextToken: aws.String("page-2"),
	}, nil)
	client.On("ListGateways", mock.Anything, mock.MatchedBy(func(in *bedrockagentcorecontrol.ListGatewaysInput) bool {
		return aws.ToString(in.NextToken) == "page-2"
	}), mock.Anything).Return(&bedrockagentcorecontrol.ListGatewaysOutput{
		Items: []types.GatewaySummary{{Name: aws.String("SnowflakeMCPGateway"), GatewayId: aws.String("gw-123")}},
	}, nil)

	handler := newGatewayHandler(client)
	state, err := handler.Probe(context.Background(), "SnowflakeMCPGateway", mocks.NoopLogger{})

	require.NoError(t, err)
	assert.True(t, state.Exists)
}

func TestGatewayHandlerProbeAbsent(t *testing.T) {
	client := &mocks.MockGatewayClient{}
	client.On("ListGateways", mock.Anything, mock.Anything, mock.Anything).Return(
		&bedrockagentcorecontrol.ListGatewaysOutput{}, nil)

	handler := newGatewayHandler(client)
	state, err := handler.Probe(context.Background(), "SnowflakeMCPGateway", mocks.NoopLogger{})

	require.NoError(t, err)
	assert.False(t, state.Exists)
}

func TestGatewayHandlerCreateUsesIAMAuthorizer(t *testing.T) {
	client := &mocks.MockGatewayClient{}
	client.On("CreateGateway", mock.Anything, mock.MatchedBy(func(in *bedrockagentcorecontrol.CreateGatewayInput) bool {
		return in.ProtocolType == types.GatewayProtocolTypeMcp &&
			in.AuthorizerType == types.AuthorizerTypeAwsIam &&
			aws.ToString(in.RoleArn) == "arn:aws:iam::123456789012:role/agentcore-SnowflakeMCPGateway-role"
	}), mock.Anything).Return(&bedrockagentcorecontrol.CreateGatewayOutput{
		GatewayId:  aws.String("gw-123"),
		GatewayArn: aws.String("arn:aws:bedrock-agentcore:us-east-1:123456789012:gateway/gw-123"),
		GatewayUrl: aws.String("https://gw-123.gateway.bedrock-agentcore.us-east-1.amazonaws.com/mcp"),
	}, nil)

	handler := newGatewayHandler(client)
	identity, err := handler.Create(context.Background(), domain.ResourceDescriptor{
		Kind: domain.KindGateway,
		Name: "SnowflakeMCPGateway",
		Spec: agentcore.GatewaySpec{RoleARN: "arn:aws:iam::123456789012:role/agentcore-SnowflakeMCPGateway-role"},
	}, mocks.NoopLogger{})

	require.NoError(t, err)
	assert.Equal(t, "gw-123", identity.ID)
	assert.Equal(t, "https://gw-123.gateway.bedrock-agentcore.us-east-1.amazonaws.com/mcp", identity.URL)
	client.AssertExpectations(t)
}

func TestGatewayHandlerDeleteDependentsRemovesTargets(t *testing.T) {
	client := &mocks.MockGatewayClient{}
	client.On("ListGateways", mock.Anything, mock.Anything, mock.Anything).Return(
		&bedrockagentcorecontrol.ListGatewaysOutput{Items: []types.GatewaySummary{
			{Name: aws.String("SnowflakeMCPGateway"), GatewayId: aws.String("gw-123")},
		}}, nil)
	client.On("ListGatewayTargets", mock.Anything, mock.Anything, mock.Anything).Return(
		&bedrockagentcorecontrol.ListGatewayTargetsOutput{Items: []types.TargetSummary{
			{Name: aws.String("SnowflakeLambdaTarget"), TargetId: aws.String("tgt-1")},
		}}, nil)
	client.On("DeleteGatewayTarget", mock.Anything, mock.MatchedBy(func(in *bedrockagentcorecontrol.DeleteGatewayTargetInput) bool {
		return aws.ToString(in.GatewayIdentifier) == "gw-123" && aws.ToString(in.TargetId) == "tgt-1"
	}), mock.Anything).Return(&bedrockagentcorecontrol.DeleteGatewayTargetOutput{}, nil)

	handler := newGatewayHandler(client)
	require.NoError(t, handler.DeleteDependents(context.Background(), "SnowflakeMCPGateway", mocks.NoopLogger{}))
	client.AssertExpectations(t)
}

func TestGatewayHandlerDeleteAbsentGateway(t *testing.T) {
	client := &mocks.MockGatewayClient{}
	client.On("ListGateways", mock.Anything, mock.Anything, mock.Anything).Return(
		&bedrockagentcorecontrol.ListGatewaysOutput{}, nil)

	handler := newGatewayHandler(client)
	require.NoError(t, handler.Delete(context.Background(), "SnowflakeMCPGateway", mocks.NoopLogger{}))
	client.AssertNotCalled(t, "DeleteGateway", mock.Anything, mock.Anything, mock.Anything)
}
