package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyang/agentflow/internal/domain/apperr"
)

func TestErrorClasses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
		msg  string
	}{
		{"validation", apperr.Validation("name is required"), apperr.ErrValidation, "name is required"},
		{"not found", apperr.NotFound("Agent not found"), apperr.ErrNotFound, "Agent not found"},
		{"conflict", apperr.Conflict("Admin already exists"), apperr.ErrConflict, "Admin already exists"},
		{"unauthorized", apperr.Unauthorized("Invalid credentials"), apperr.ErrUnauthorized, "Invalid credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("create agent: %w", tt.err)
			assert.True(t, errors.Is(wrapped, tt.kind))
			assert.True(t, errors.Is(wrapped, tt.err))
			assert.Equal(t, tt.msg, apperr.PublicMessage(wrapped))
		})
	}
}

func TestPublicMessage_PlainError(t *testing.T) {
	assert.Empty(t, apperr.PublicMessage(errors.New("connection refused")))
}
