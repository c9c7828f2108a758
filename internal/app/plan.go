package app

import (
	"fmt"
	"os"

	"github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/agentcore"
	awsecr "github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/ecr"
	awsiam "github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/iam"
	awslambda "github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/lambda"
	"github.com/oluseyia/agentcore-deployer/internal/config"
	"github.com/oluseyia/agentcore-deployer/internal/core/domain"
	"github.com/oluseyia/agentcore-deployer/internal/errors"
)

// BuildPlan turns the deployment configuration into the ordered descriptor
// list the reconciler works through. The order encodes the dependency
// chain: both execution roles first (the function's resource policy
// references the gateway role, so it must exist before the function), then
// the repository, the function, the gateway, and the target that fronts
// the function. Dependent ARNs are deterministic, so every descriptor is
// fully specified up front.
func BuildPlan(cfg *config.Config) ([]domain.ResourceDescriptor, error) {
	d := cfg.Deployment

	functionSpec, err := buildFunctionSpec(d)
	if err != nil {
		return nil, err
	}

	return []domain.ResourceDescriptor{
		{
			Kind: domain.KindRole,
			Name: d.RoleName,
			Spec: awsiam.RoleSpec{
				Description:       "Execution role for the Snowflake query Lambda",
				TrustPolicy:       awsiam.LambdaTrustPolicy(),
				ManagedPolicyARNs: []string{awsiam.LambdaBasicExecutionPolicyARN},
				InlinePolicies: map[string]awsiam.PolicyDocument{
					"SnowflakeSecretAccess": awsiam.SecretsReadPolicy(d.Region, d.AccountID, d.SecretName),
				},
			},
			SettleAfterCreate: true,
		},
		{
			// The gateway role goes before the function: the function's
			// resource policy names this role as invoke principal, and
			// AddPermission rejects principals that do not exist yet.
			Kind: domain.KindRole,
			Name: d.GatewayRoleName(),
			Spec: awsiam.RoleSpec{
				Description: "AgentCore gateway execution role",
				TrustPolicy: awsiam.GatewayTrustPolicy(d.AccountID, d.Region),
				InlinePolicies: map[string]awsiam.PolicyDocument{
					"AgentCorePolicy": awsiam.GatewayPermissionPolicy(),
				},
			},
			SettleAfterCreate: true,
		},
		{
			Kind: domain.KindRepository,
			Name: d.RepositoryName,
			Spec: awsecr.RepositorySpec{
				ScanOnPush:         true,
				ImageTagMutability: "MUTABLE",
			},
		},
		{
			Kind: domain.KindFunction,
			Name: d.FunctionName,
			Spec: functionSpec,
		},
		{
			Kind: domain.KindGateway,
			Name: d.GatewayName,
			Spec: agentcore.GatewaySpec{
				RoleARN:     d.RoleARN(d.GatewayRoleName()),
				Description: "AgentCore Gateway for Snowflake MCP tools",
			},
		},
		{
			Kind: domain.KindGatewayTarget,
			Name: d.TargetName,
			Spec: agentcore.TargetSpec{
				GatewayName: d.GatewayName,
				LambdaARN:   d.FunctionARN(),
				Description: "Lambda target exposing the Snowflake query tool",
			},
		},
	}, nil
}

// buildFunctionSpec chooses the code source: an explicit ZIP artifact wins,
// then an explicit image URI, then the image at the configured repository
// and tag.
func buildFunctionSpec(d config.DeploymentConfig) (awslambda.FunctionSpec, error) {
	spec := awslambda.FunctionSpec{
		Description:       "Executes Snowflake queries on behalf of the AgentCore gateway",
		RoleARN:           d.RoleARN(d.RoleName),
		Timeout:           60,
		MemorySize:        256,
		InvokerPrincipals: []string{d.RoleARN(d.GatewayRoleName())},
	}

	switch {
	case d.ZipPath != "":
		zipBytes, err := os.ReadFile(d.ZipPath)
		if err != nil {
			return awslambda.FunctionSpec{}, errors.WrapUserFacing(err, errors.CodeConfigReadError,
				fmt.Sprintf("failed to read Lambda artifact '%s'", d.ZipPath),
				"Check that --zip-path points at an existing ZIP file.")
		}
		spec.ZipFile = zipBytes
		spec.Runtime = d.Runtime
		spec.Handler = d.Handler
	case d.ImageURI != "":
		spec.ImageURI = d.ImageURI
	default:
		spec.ImageURI = fmt.Sprintf("%s:%s", d.RepositoryURI(), d.ImageTag)
	}

	return spec, nil
}
