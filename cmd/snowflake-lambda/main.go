// Command snowflake-lambda is the function body deployed behind the
// AgentCore gateway target. It receives a tool invocation carrying a SQL
// statement, resolves Snowflake credentials from Secrets Manager, runs the
// statement, and returns the rows.
package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/oluseyia/agentcore-deployer/internal/snowflake"
)

const defaultSecretName = "snowflake/demo_user"

func main() {
	ctx := context.Background()

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("failed to load AWS configuration: %v", err)
	}

	secretName := os.Getenv("SNOWFLAKE_SECRET_NAME")
	if secretName == "" {
		secretName = defaultSecretName
	}

	handler := snowflake.NewHandler(secretsmanager.NewFromConfig(cfg), secretName, snowflake.NewExecutor())
	lambda.Start(handler.Handle)
}
