package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	awsprovider "github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws"
	awslimiter "github.com/oluseyia/agentcore-deployer/internal/adapters/platform/aws/limiter"
	"github.com/oluseyia/agentcore-deployer/internal/config"
	"github.com/oluseyia/agentcore-deployer/internal/core/ports"
	"github.com/oluseyia/agentcore-deployer/internal/core/service"
	"github.com/oluseyia/agentcore-deployer/internal/errors"
	"github.com/oluseyia/agentcore-deployer/internal/log"
	jsonreporter "github.com/oluseyia/agentcore-deployer/internal/reporting/json"
	textreporter "github.com/oluseyia/agentcore-deployer/internal/reporting/text"
)

// Bootstrap validates the configuration and wires the application together.
// Validation runs before any AWS client is constructed, so a malformed
// account id fails without a single network call.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	if err := ValidateConfig(ctx, cfg); err != nil {
		return nil, err
	}

	logger, err := log.NewLogger(log.Config{
		Level:  cfg.Settings.LogLevel,
		Format: cfg.Settings.LogFormat,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigParseError, "failed to initialize logger")
	}

	awslimiter.Initialize(cfg.Settings.AWSAPIRateRPS, logger)

	provider, err := awsprovider.NewProvider(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	registry := service.NewComponentRegistry()
	if err := provider.RegisterInto(registry); err != nil {
		return nil, err
	}
	if err := registerReporters(registry, cfg, logger); err != nil {
		return nil, err
	}

	reconciler, err := service.NewReconciler(registry, logger,
		service.WithSettleDelay(cfg.SettleDelay()))
	if err != nil {
		return nil, err
	}

	return &Application{
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		reconciler: reconciler,
		provider:   provider,
	}, nil
}

// ValidateConfig checks the merged configuration against its struct tags and
// converts the first violation into a user-facing error naming the field.
func ValidateConfig(ctx context.Context, cfg *config.Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	err := validate.StructCtx(ctx, cfg)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !stderrors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return errors.Wrap(err, errors.CodeValidationError, "configuration validation failed")
	}

	fieldErr := validationErrs[0]
	field := strings.ToLower(fieldErr.Field())

	var message, suggestion string
	switch {
	case fieldErr.Field() == "AccountID":
		message = fmt.Sprintf("account id '%s' is invalid: it must be exactly 12 numeric digits", fieldErr.Value())
		suggestion = "Pass the 12-digit AWS account id via --account-id (for example 123456789012)."
	case fieldErr.Tag() == "required":
		message = fmt.Sprintf("required parameter '%s' is missing", field)
		suggestion = fmt.Sprintf("Provide a value for '%s' via flag, environment, or config file.", field)
	default:
		message = fmt.Sprintf("parameter '%s' failed validation '%s'", field, fieldErr.Tag())
		suggestion = fmt.Sprintf("Check the value supplied for '%s'.", field)
	}

	return errors.NewUserFacing(errors.CodeValidationError, message, suggestion)
}

func registerReporters(registry *service.ComponentRegistry, cfg *config.Config, logger ports.Logger) error {
	text, err := textreporter.NewReporter(textreporter.Config{NoColor: cfg.Settings.NoColor}, logger)
	if err != nil {
		return err
	}
	if err := registry.RegisterReporter(textreporter.ReporterTypeText, text); err != nil {
		return err
	}

	jsonRep, err := jsonreporter.NewReporter(jsonreporter.Config{}, logger)
	if err != nil {
		return err
	}
	return registry.RegisterReporter(jsonreporter.ReporterTypeJSON, jsonRep)
}
