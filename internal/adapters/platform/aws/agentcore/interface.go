package agentcore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
)

// GatewayClientInterface is the slice of the Bedrock AgentCore control-plane
// client the gateway and target handlers need.
type GatewayClientInterface interface {
	ListGateways(ctx context.Context, params *bedrockagentcorecontrol.ListGatewaysInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.ListGatewaysOutput, error)
	CreateGateway(ctx context.Context, params *bedrockagentcorecontrol.CreateGatewayInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.CreateGatewayOutput, error)
	DeleteGateway(ctx context.Context, params *bedrockagentcorecontrol.DeleteGatewayInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.DeleteGatewayOutput, error)
	ListGatewayTargets(ctx context.Context, params *bedrockagentcorecontrol.ListGatewayTargetsInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.ListGatewayTargetsOutput, error)
	CreateGatewayTarget(ctx context.Context, params *bedrockagentcorecontrol.CreateGatewayTargetInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.CreateGatewayTargetOutput, error)
	DeleteGatewayTarget(ctx context.Context, params *bedrockagentcorecontrol.DeleteGatewayTargetInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.DeleteGatewayTargetOutput, error)
}
