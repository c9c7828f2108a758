package agentcore

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"
)

// ToolName is the tool exposed by the Snowflake Lambda target. The gateway
// prefixes it with the target name on the wire:
// <target-name>___execute_snowflake_query.
const ToolName = "execute_snowflake_query"

// snowflakeToolSchema is the inline MCP tool schema for the Snowflake query
// tool: a single object argument with a required "sql" string.
func snowflakeToolSchema() types.ToolSchema {
	return &types.ToolSchemaMemberInlinePayload{
		Value: []types.ToolDefinition{
			{
				Name:        aws.String(ToolName),
				Description: aws.String("Execute a SQL query on Snowflake database. Default query: SELECT current_version()"),
				InputSchema: &types.SchemaDefinition{
					Type: types.SchemaTypeObject,
					Properties: map[string]types.SchemaDefinition{
						"sql": {
							Type:        types.SchemaTypeString,
							Description: aws.String("SQL query to execute on Snowflake"),
						},
					},
					Required: []string{"sql"},
				},
			},
		},
	}
}

// lambdaTargetConfiguration wires the tool schema to the target Lambda.
func lambdaTargetConfiguration(lambdaARN string) types.TargetConfiguration {
	return &types.TargetConfigurationMemberMcp{
		Value: &types.McpTargetConfigurationMemberLambda{
			Value: types.McpLambdaTargetConfiguration{
				LambdaArn:  aws.String(lambdaARN),
				ToolSchema: snowflakeToolSchema(),
			},
		},
	}
}
