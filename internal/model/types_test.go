package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSandboxStatus(t *testing.T) {
	status, err := ParseSandboxStatus("Running")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, status)

	_, err = ParseSandboxStatus("paused")
	assert.Error(t, err)
}

func TestValidateName(t *testing.T) {
	valid := []string{"music-bot", "a", "env2", "A1-b2-c3"}
	for _, name := range valid {
		assert.NoError(t, ValidateName(name), "name %q should be valid", name)
	}

	invalid := []string{"", "-leading", "trailing-", "under_score", "has space", "has/slash"}
	for _, name := range invalid {
		assert.Error(t, ValidateName(name), "name %q should be invalid", name)
	}
}

func TestValidateEnvName(t *testing.T) {
	valid := []string{"LD_LIBRARY_PATH", "_private", "Path2"}
	for _, name := range valid {
		assert.NoError(t, ValidateEnvName(name), "name %q should be valid", name)
	}

	invalid := []string{"", "9LEADING", "WITH-DASH", "WITH SPACE", "A$B"}
	for _, name := range invalid {
		assert.Error(t, ValidateEnvName(name), "name %q should be invalid", name)
	}
}

func TestCLIError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := WrapCLIError(ExitInstallFailed, "install failed", inner)

	assert.Equal(t, ExitInstallFailed, err.Code)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "install failed")
	assert.Contains(t, err.Error(), "boom")

	bare := NewCLIError(ExitSandboxNotFound, "no such sandbox")
	assert.Nil(t, bare.Unwrap())
	assert.Equal(t, "no such sandbox", bare.Error())
}
