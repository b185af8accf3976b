package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("game abc: %w", ErrNotFound), "not_found"},
		{fmt.Errorf("wrong turn: %w", ErrInvalidState), "invalid_state"},
		{fmt.Errorf("%w: hand is full", ErrCapacity), "capacity"},
		{fmt.Errorf("%w: card", ErrDuplicate), "duplicate"},
		{fmt.Errorf("%w: mismatch", ErrValidation), "validation"},
		{errors.New("boom"), "internal"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Code(tt.err))
	}
}
