package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserError(t *testing.T) {
	err := NewUserError("Could not read the file", ErrNotFound)

	assert.Equal(t, "Could not read the file: not found", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Could not read the file", UserMessage(err, "fallback"))
	assert.Equal(t, "fallback", UserMessage(errors.New("plain"), "fallback"))
	assert.Equal(t, "only message", NewUserError("only message", nil).Error())
}

func TestContractViolation(t *testing.T) {
	err := ContractViolation("unexpected action %q", "dance")

	assert.ErrorIs(t, err, ErrOracleContract)
	assert.Equal(t, `oracle contract violation: unexpected action "dance"`, err.Error())
}
