package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oluseyia/agentcore-deployer/internal/app"
	"github.com/oluseyia/agentcore-deployer/internal/config"
	apperrors "github.com/oluseyia/agentcore-deployer/internal/errors"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "agentcore-deployer",
	Short: "Deploys a Snowflake MCP tool stack behind an AgentCore gateway.",
	Long: `agentcore-deployer reconciles the AWS resources that expose a Snowflake
query tool over MCP: the Lambda function and its execution role, the ECR
repository holding its image, and the Bedrock AgentCore gateway with a
Lambda target fronting the function.

Resources already present are deleted (dependents first) and recreated, so
every run converges on the declared configuration.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

func reportError(err error) {
	userMsg, suggestion, ok := apperrors.GetUserFacingMessage(err)
	if ok {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", userMsg)
		if suggestion != "" {
			fmt.Fprintf(os.Stderr, "Suggestion: %s\n", suggestion)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVarP(&cfgFile, "config", "c", "", "Configuration file path (default is .agentcore-deployer.yaml)")
	pf.String("log-level", "", "Override log level (debug, info, warn, error)")
	pf.String("log-format", "", "Override log format (text, json)")
	pf.String("reporter", "", "Report format (text, json)")
	pf.Bool("no-color", false, "Disable colored output")

	pf.String("account-id", "", "AWS account id (12 numeric digits, required)")
	pf.String("region", "", "AWS region")
	pf.String("repository-name", "", "ECR repository name")
	pf.String("image-tag", "", "Image tag to deploy from the repository")
	pf.String("function-name", "", "Lambda function name")
	pf.String("role-name", "", "Lambda execution role name")
	pf.String("gateway-name", "", "AgentCore gateway name")
	pf.String("target-name", "", "Gateway target name")
	pf.String("secret-name", "", "Secrets Manager secret holding Snowflake credentials")
	pf.String("zip-path", "", "Path to a Lambda ZIP artifact (overrides the container image)")
	pf.String("image-uri", "", "Explicit container image URI for the Lambda function")

	viper.BindPFlag("settings.log_level", pf.Lookup("log-level"))
	viper.BindPFlag("settings.log_format", pf.Lookup("log-format"))
	viper.BindPFlag("settings.reporter", pf.Lookup("reporter"))
	viper.BindPFlag("settings.no_color", pf.Lookup("no-color"))
	viper.BindPFlag("deployment.account_id", pf.Lookup("account-id"))
	viper.BindPFlag("deployment.region", pf.Lookup("region"))
	viper.BindPFlag("deployment.repository_name", pf.Lookup("repository-name"))
	viper.BindPFlag("deployment.image_tag", pf.Lookup("image-tag"))
	viper.BindPFlag("deployment.function_name", pf.Lookup("function-name"))
	viper.BindPFlag("deployment.role_name", pf.Lookup("role-name"))
	viper.BindPFlag("deployment.gateway_name", pf.Lookup("gateway-name"))
	viper.BindPFlag("deployment.target_name", pf.Lookup("target-name"))
	viper.BindPFlag("deployment.secret_name", pf.Lookup("secret-name"))
	viper.BindPFlag("deployment.zip_path", pf.Lookup("zip-path"))
	viper.BindPFlag("deployment.image_uri", pf.Lookup("image-uri"))

	viper.SetEnvPrefix("DEPLOYER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(deployCmd, statusCmd, destroyCmd, invokeCmd, toolsCmd)
}

func initializeConfig(cmd *cobra.Command) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.SetConfigName(".agentcore-deployer")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return apperrors.Wrap(err, apperrors.CodeConfigReadError, "failed to read config file")
		}
	}

	return nil
}

// loadConfig merges defaults, the config file, environment, and flags.
// Defaults are registered with viper so an unset flag's zero value never
// shadows them.
func loadConfig() (*config.Config, error) {
	defaults := config.DefaultConfig()

	viper.SetDefault("settings.log_level", string(defaults.Settings.LogLevel))
	viper.SetDefault("settings.log_format", string(defaults.Settings.LogFormat))
	viper.SetDefault("settings.aws_api_rate_rps", defaults.Settings.AWSAPIRateRPS)
	viper.SetDefault("settings.settle_delay_seconds", defaults.Settings.SettleDelaySeconds)
	viper.SetDefault("settings.reporter", defaults.Settings.ReporterType)
	viper.SetDefault("deployment.region", defaults.Deployment.Region)
	viper.SetDefault("deployment.repository_name", defaults.Deployment.RepositoryName)
	viper.SetDefault("deployment.image_tag", defaults.Deployment.ImageTag)
	viper.SetDefault("deployment.function_name", defaults.Deployment.FunctionName)
	viper.SetDefault("deployment.role_name", defaults.Deployment.RoleName)
	viper.SetDefault("deployment.gateway_name", defaults.Deployment.GatewayName)
	viper.SetDefault("deployment.target_name", defaults.Deployment.TargetName)
	viper.SetDefault("deployment.secret_name", defaults.Deployment.SecretName)
	viper.SetDefault("deployment.runtime", defaults.Deployment.Runtime)
	viper.SetDefault("deployment.handler", defaults.Deployment.Handler)

	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConfigParseError, "failed to parse configuration")
	}
	return cfg, nil
}

func bootstrapApp(ctx context.Context) (*app.Application, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.Bootstrap(ctx, cfg)
}
