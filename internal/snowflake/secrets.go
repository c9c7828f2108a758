package snowflake

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/oluseyia/agentcore-deployer/internal/errors"
)

// Credentials is the shape of the Snowflake connection secret. All fields
// are required; a secret missing any of them is rejected before a
// connection is attempted.
type Credentials struct {
	User      string `json:"user" validate:"required"`
	Password  string `json:"password" validate:"required"`
	Account   string `json:"account" validate:"required"`
	Warehouse string `json:"warehouse" validate:"required"`
	Database  string `json:"database" validate:"required"`
	Schema    string `json:"schema" validate:"required"`
}

// SecretsClientInterface is the slice of the Secrets Manager client the
// credential loader needs.
type SecretsClientInterface interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// LoadCredentials resolves the named secret and validates that every
// connection parameter is present.
func LoadCredentials(ctx context.Context, client SecretsClientInterface, secretName string) (Credentials, error) {
	var creds Credentials

	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		return creds, apperrors.Wrapf(err, apperrors.CodeSecretError, "failed to read secret '%s'", secretName)
	}
	if out.SecretString == nil {
		return creds, apperrors.Newf(apperrors.CodeSecretError, "secret '%s' has no string value", secretName)
	}

	if err := json.Unmarshal([]byte(*out.SecretString), &creds); err != nil {
		return creds, apperrors.Wrapf(err, apperrors.CodeSecretError, "failed to decode secret '%s'", secretName)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(ctx, creds); err != nil {
		return creds, apperrors.Wrapf(err, apperrors.CodeValidationError, "secret '%s' is missing required connection parameters", secretName)
	}

	return creds, nil
}
