package errors_test

import (
	stderrs "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oluseyia/agentcore-deployer/internal/errors"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrs.New("underlying")
	wrapped := errors.Wrap(cause, errors.CodeCreateError, "failed to create role")

	assert.Equal(t, errors.CodeCreateError, errors.GetCode(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "failed to create role")
	assert.Contains(t, wrapped.Error(), "underlying")
}

func TestWrapSameCodePassesThrough(t *testing.T) {
	original := errors.New(errors.CodeDeleteError, "delete failed")
	rewrapped := errors.Wrap(original, errors.CodeDeleteError, "outer context")

	assert.Same(t, original, rewrapped)
}

func TestWrapDifferentCodeLayers(t *testing.T) {
	inner := errors.New(errors.CodeResourceNotFound, "role missing")
	outer := errors.Wrap(inner, errors.CodeProbeError, "probe failed")

	assert.Equal(t, errors.CodeProbeError, errors.GetCode(outer))
	assert.True(t, errors.Is(outer, errors.CodeProbeError))
}

func TestGetCodeOnPlainError(t *testing.T) {
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrs.New("plain")))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(nil))
}

func TestGetUserFacingMessage(t *testing.T) {
	err := errors.NewUserFacing(errors.CodeValidationError, "account id must be 12 digits", "Pass --account-id.")

	gotMsg, gotSuggestion, gotOK := errors.GetUserFacingMessage(err)
	assert.True(t, gotOK)
	assert.Equal(t, "account id must be 12 digits", gotMsg)
	assert.Equal(t, "Pass --account-id.", gotSuggestion)

	_, _, plainOK := errors.GetUserFacingMessage(stderrs.New("plain"))
	assert.False(t, plainOK)
}
