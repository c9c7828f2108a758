package iam

import (
	"encoding/json"
	"fmt"
)

const LambdaBasicExecutionPolicyARN = "arn:aws:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"

// PolicyDocument is an IAM policy document. Action, Resource and the
// principal values may each be a single string or a list, so they are typed
// loosely and marshaled as-is.
type PolicyDocument struct {
	Version   string            `json:"Version"`
	Statement []PolicyStatement `json:"Statement"`
}

type PolicyStatement struct {
	Sid       string         `json:"Sid,omitempty"`
	Effect    string         `json:"Effect"`
	Principal map[string]any `json:"Principal,omitempty"`
	Action    any            `json:"Action"`
	Resource  any            `json:"Resource,omitempty"`
	Condition map[string]any `json:"Condition,omitempty"`
}

func (d PolicyDocument) JSON() (string, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// LambdaTrustPolicy allows the Lambda service to assume the role.
func LambdaTrustPolicy() PolicyDocument {
	return PolicyDocument{
		Version: "2012-10-17",
		Statement: []PolicyStatement{
			{
				Effect:    "Allow",
				Principal: map[string]any{"Service": "lambda.amazonaws.com"},
				Action:    "sts:AssumeRole",
			},
		},
	}
}

// SecretsReadPolicy grants read access to the named secret. Secrets Manager
// appends a random suffix to secret ARNs, hence the trailing wildcard.
func SecretsReadPolicy(region, accountID, secretName string) PolicyDocument {
	return PolicyDocument{
		Version: "2012-10-17",
		Statement: []PolicyStatement{
			{
				Effect:   "Allow",
				Action:   "secretsmanager:GetSecretValue",
				Resource: fmt.Sprintf("arn:aws:secretsmanager:%s:%s:secret:%s*", region, accountID, secretName),
			},
		},
	}
}

// GatewayTrustPolicy allows the Bedrock AgentCore service to assume the
// role, scoped to the owning account and region.
func GatewayTrustPolicy(accountID, region string) PolicyDocument {
	return PolicyDocument{
		Version: "2012-10-17",
		Statement: []PolicyStatement{
			{
				Sid:       "AssumeRolePolicy",
				Effect:    "Allow",
				Principal: map[string]any{"Service": "bedrock-agentcore.amazonaws.com"},
				Action:    "sts:AssumeRole",
				Condition: map[string]any{
					"StringEquals": map[string]any{"aws:SourceAccount": accountID},
					"ArnLike":      map[string]any{"aws:SourceArn": fmt.Sprintf("arn:aws:bedrock-agentcore:%s:%s:*", region, accountID)},
				},
			},
		},
	}
}

// GatewayPermissionPolicy grants the gateway role what it needs to call
// Bedrock, invoke the target Lambda, and read the Snowflake secret.
func GatewayPermissionPolicy() PolicyDocument {
	return PolicyDocument{
		Version: "2012-10-17",
		Statement: []PolicyStatement{
			{
				Sid:    "VisualEditor0",
				Effect: "Allow",
				Action: []string{
					"bedrock-agentcore:*",
					"bedrock:*",
					"agent-credential-provider:*",
					"iam:PassRole",
					"secretsmanager:GetSecretValue",
					"lambda:InvokeFunction",
				},
				Resource: "*",
			},
		},
	}
}
