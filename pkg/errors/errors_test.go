package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewValidation(t *testing.T) {
	err := NewValidation("malformed request body")

	assert.Equal(t, ErrValidation, err.Code)
	assert.Equal(t, "malformed request body", err.Error())
	assert.Nil(t, err.Fields)
	assert.True(t, IsValidation(err))
}

func TestNewFieldValidation(t *testing.T) {
	err := NewFieldValidation("reason", "must not be empty")

	assert.Equal(t, ErrValidation, err.Code)
	assert.Equal(t, map[string]string{"reason": "must not be empty"}, err.Fields)
	assert.Contains(t, err.Error(), "reason")
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrNotFound, CodeOf(NewNotFound("booking", nil)))
	assert.Equal(t, ErrConflict, CodeOf(NewConflict("slot taken", nil)))
	assert.Equal(t, ErrExpired, CodeOf(NewExpired("request is no longer pending")))
	assert.Equal(t, ErrAuthorization, CodeOf(NewAuthorization("forbidden")))
	assert.Equal(t, ErrInternal, CodeOf(errors.New("plain")))
}

func TestCodeOfWrapped(t *testing.T) {
	wrapped := fmt.Errorf("approve request: %w", NewConflict("slot taken", nil))
	assert.True(t, IsConflict(wrapped))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewInternal(cause)
	assert.ErrorIs(t, err, cause)
}
