package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	pkgerrors "infinicraft-backend/pkg/errors"
)

type sample struct {
	Element1 string `json:"element1_id" validate:"required,max=128"`
	UserID   string `json:"user_id,omitempty" validate:"max=4"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   sample
		wantErr string
	}{
		{name: "valid", input: sample{Element1: "a"}},
		{name: "missing", input: sample{}, wantErr: "element1_id is required"},
		{name: "too long", input: sample{Element1: "a", UserID: "toolong"}, wantErr: "user_id must be at most 4 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, pkgerrors.IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
