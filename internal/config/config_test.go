package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oluseyia/agentcore-deployer/internal/config"
)

func TestDefaultConfigNames(t *testing.T) {
	cfg := config.DefaultConfig()

	assert.Equal(t, "us-east-1", cfg.Deployment.Region)
	assert.Equal(t, "snowflakeMCPAPILambda", cfg.Deployment.FunctionName)
	assert.Equal(t, "SnowflakeMCPGateway", cfg.Deployment.GatewayName)
	assert.Equal(t, "snowflake/demo_user", cfg.Deployment.SecretName)
	assert.Empty(t, cfg.Deployment.AccountID, "the account id has no default; callers must supply it")
}

func TestSettleDelay(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, 10*time.Second, cfg.SettleDelay())

	cfg.Settings.SettleDelaySeconds = 3
	assert.Equal(t, 3*time.Second, cfg.SettleDelay())
}

func TestDerivedNamesAndARNs(t *testing.T) {
	d := config.DefaultConfig().Deployment
	d.AccountID = "123456789012"

	assert.Equal(t, "agentcore-SnowflakeMCPGateway-role", d.GatewayRoleName())
	assert.Equal(t, "arn:aws:iam::123456789012:role/lambda-snowflake-role", d.RoleARN(d.RoleName))
	assert.Equal(t, "arn:aws:lambda:us-east-1:123456789012:function:snowflakeMCPAPILambda", d.FunctionARN())
	assert.Equal(t, "123456789012.dkr.ecr.us-east-1.amazonaws.com/snowflake-mcp-api", d.RepositoryURI())
}
