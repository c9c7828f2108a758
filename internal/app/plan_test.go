package app_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	awsiam "github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/iam"
	awslambda "github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/lambda"
	"github.com/oluseyia/agentcore-deployer/internal/app"
	"github.com/oluseyia/agentcore-deployer/internal/core/domain"
)

func TestBuildPlanOrdersByDependency(t *testing.T) {
	plan, err := app.BuildPlan(validTestConfig())
	require.NoError(t, err)

	kinds := make([]domain.ResourceKind, 0, len(plan))
	for _, desc := range plan {
		kinds = append(kinds, desc.Kind)
	}

	assert.Equal(t, []domain.ResourceKind{
		domain.KindRole,
		domain.KindRole,
		domain.KindRepository,
		domain.KindFunction,
		domain.KindGateway,
		domain.KindGatewayTarget,
	}, kinds)
}

// The function's resource policy names the gateway role as invoke
// principal, so the role must be created first.
func TestBuildPlanCreatesGatewayRoleBeforeFunction(t *testing.T) {
	cfg := validTestConfig()
	plan, err := app.BuildPlan(cfg)
	require.NoError(t, err)

	roleIdx, fnIdx := -1, -1
	for i, desc := range plan {
		switch {
		case desc.Kind == domain.KindRole && desc.Name == cfg.Deployment.GatewayRoleName():
			roleIdx = i
		case desc.Kind == domain.KindFunction:
			fnIdx = i
		}
	}
	require.NotEqual(t, -1, roleIdx)
	require.NotEqual(t, -1, fnIdx)
	assert.Less(t, roleIdx, fnIdx)
}

func TestBuildPlanRolesSettleAfterCreate(t *testing.T) {
	plan, err := app.BuildPlan(validTestConfig())
	require.NoError(t, err)

	for _, desc := range plan {
		if desc.Kind == domain.KindRole {
			assert.True(t, desc.SettleAfterCreate, "role '%s' should settle after create", desc.Name)
		} else {
			assert.False(t, desc.SettleAfterCreate, "%s '%s' should not settle after create", desc.Kind, desc.Name)
		}
	}
}

func TestBuildPlanWiresDeterministicARNs(t *testing.T) {
	cfg := validTestConfig()
	plan, err := app.BuildPlan(cfg)
	require.NoError(t, err)

	fnSpec, ok := plan[3].Spec.(awslambda.FunctionSpec)
	require.True(t, ok)
	assert.Equal(t, "arn:aws:iam::123456789012:role/lambda-snowflake-role", fnSpec.RoleARN)
	require.Len(t, fnSpec.InvokerPrincipals, 1)
	assert.Equal(t, "arn:aws:iam::123456789012:role/agentcore-SnowflakeMCPGateway-role", fnSpec.InvokerPrincipals[0])

	roleSpec, ok := plan[0].Spec.(awsiam.RoleSpec)
	require.True(t, ok)
	assert.Contains(t, roleSpec.ManagedPolicyARNs, awsiam.LambdaBasicExecutionPolicyARN)
	assert.Contains(t, roleSpec.InlinePolicies, "SnowflakeSecretAccess")
}

func TestBuildPlanDefaultsToRepositoryImage(t *testing.T) {
	cfg := validTestConfig()
	plan, err := app.BuildPlan(cfg)
	require.NoError(t, err)

	fnSpec := plan[3].Spec.(awslambda.FunctionSpec)
	assert.Equal(t, "123456789012.dkr.ecr.us-east-1.amazonaws.com/snowflake-mcp-api:latest", fnSpec.ImageURI)
	assert.Empty(t, fnSpec.ZipFile)
}

func TestBuildPlanPrefersZipArtifact(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "code.zip")
	require.NoError(t, os.WriteFile(zipPath, []byte("PK\x03\x04fake"), 0o600))

	cfg := validTestConfig()
	cfg.Deployment.ZipPath = zipPath

	plan, err := app.BuildPlan(cfg)
	require.NoError(t, err)

	fnSpec := plan[3].Spec.(awslambda.FunctionSpec)
	assert.NotEmpty(t, fnSpec.ZipFile)
	assert.Empty(t, fnSpec.ImageURI)
	assert.Equal(t, "python3.13", fnSpec.Runtime)
	assert.Equal(t, "lambda_function_code.lambda_handler", fnSpec.Handler)
}

func TestBuildPlanMissingZipArtifactFails(t *testing.T) {
	cfg := validTestConfig()
	cfg.Deployment.ZipPath = filepath.Join(t.TempDir(), "does-not-exist.zip")

	_, err := app.BuildPlan(cfg)
	assert.Error(t, err)
}

func TestBuildPlanGatewayTargetFrontsFunction(t *testing.T) {
	cfg := validTestConfig()
	plan, err := app.BuildPlan(cfg)
	require.NoError(t, err)

	last := plan[len(plan)-1]
	assert.Equal(t, domain.KindGatewayTarget, last.Kind)
	assert.Equal(t, cfg.Deployment.TargetName, last.Name)
}
