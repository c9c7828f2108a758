package config

import (
	"fmt"
	"time"

	"github.com/oluseyia/agentcore-deployer/internal/log"
)

// Config is the full application configuration, merged from the config
// file, environment (DEPLOYER_ prefix), and flags.
type Config struct {
	Settings   SettingsConfig   `mapstructure:"settings"`
	Deployment DeploymentConfig `mapstructure:"deployment"`
}

type SettingsConfig struct {
	LogLevel  log.Level  `mapstructure:"log_level"`
	LogFormat log.Format `mapstructure:"log_format"`

	// AWSAPIRateRPS caps outbound AWS API calls across all handlers.
	AWSAPIRateRPS int `mapstructure:"aws_api_rate_rps"`

	// SettleDelaySeconds is the flat wait between deleting a resource and
	// recreating it, to tolerate propagation latency.
	SettleDelaySeconds int `mapstructure:"settle_delay_seconds"`

	ReporterType string `mapstructure:"reporter" validate:"oneof=text json"`
	NoColor      bool   `mapstructure:"no_color"`
}

// DeploymentConfig names every resource the deployment reconciles. All
// fields default except the account id, which callers must supply and which
// is validated as a 12-digit numeric string before any cloud call is made.
type DeploymentConfig struct {
	AccountID string `mapstructure:"account_id" validate:"required,len=12,number"`
	Region    string `mapstructure:"region" validate:"required"`

	RepositoryName string `mapstructure:"repository_name" validate:"required"`
	ImageTag       string `mapstructure:"image_tag" validate:"required"`
	FunctionName   string `mapstructure:"function_name" validate:"required"`
	RoleName       string `mapstructure:"role_name" validate:"required"`
	GatewayName    string `mapstructure:"gateway_name" validate:"required"`
	TargetName     string `mapstructure:"target_name" validate:"required"`
	SecretName     string `mapstructure:"secret_name" validate:"required"`

	// ZipPath points at the Lambda ZIP artifact; ImageURI, when set,
	// deploys a container image instead.
	ZipPath  string `mapstructure:"zip_path"`
	ImageURI string `mapstructure:"image_uri"`
	Runtime  string `mapstructure:"runtime"`
	Handler  string `mapstructure:"handler"`
}

func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Settings.SettleDelaySeconds) * time.Second
}

// GatewayRoleName is the execution role the gateway assumes; the name is
// derived from the gateway name.
func (d DeploymentConfig) GatewayRoleName() string {
	return fmt.Sprintf("agentcore-%s-role", d.GatewayName)
}

// RoleARN returns the ARN a role with the given name will have once created.
// Role ARNs are deterministic, so descriptors for dependent resources can be
// fully specified before reconciliation begins.
func (d DeploymentConfig) RoleARN(roleName string) string {
	return fmt.Sprintf("arn:aws:iam::%s:role/%s", d.AccountID, roleName)
}

// FunctionARN returns the ARN the Lambda function will have once created.
func (d DeploymentConfig) FunctionARN() string {
	return fmt.Sprintf("arn:aws:lambda:%s:%s:function:%s", d.Region, d.AccountID, d.FunctionName)
}

// RepositoryURI returns the ECR repository URI for the configured account,
// region, and repository name.
func (d DeploymentConfig) RepositoryURI() string {
	return fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com/%s", d.AccountID, d.Region, d.RepositoryName)
}

func DefaultConfig() *Config {
	return &Config{
		Settings: SettingsConfig{
			LogLevel:           log.LevelInfo,
			LogFormat:          log.FormatText,
			AWSAPIRateRPS:      20,
			SettleDelaySeconds: 10,
			ReporterType:       "text",
		},
		Deployment: DeploymentConfig{
			Region:         "us-east-1",
			RepositoryName: "snowflake-mcp-api",
			ImageTag:       "latest",
			FunctionName:   "snowflakeMCPAPILambda",
			RoleName:       "lambda-snowflake-role",
			GatewayName:    "SnowflakeMCPGateway",
			TargetName:     "SnowflakeLambdaTarget",
			SecretName:     "snowflake/demo_user",
			Runtime:        "python3.13",
			Handler:        "lambda_function_code.lambda_handler",
		},
	}
}
