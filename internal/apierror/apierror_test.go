/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package apierror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/mitrahub/mitra/internal/apierror"
	"github.com/stretchr/testify/assert"
)

func TestNewAPIError(t *testing.T) {
	details := "Some internal error details"
	apiErr := apierror.NewAPIError(apierror.ErrInternalServer, "Something went wrong", details)

	assert.Equal(t, apierror.ErrInternalServer, apiErr.Code)
	assert.Equal(t, "Something went wrong", apiErr.Message)
	assert.Equal(t, details, apiErr.Details)
	assert.Equal(t, "INTERNAL_SERVER_ERROR: Something went wrong", apiErr.Error())
}

func TestMapErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"not found", apierror.NewAPIError(apierror.ErrNotFound, "partner not found", nil), http.StatusNotFound},
		{"conflict", apierror.NewAPIError(apierror.ErrConflict, "top-up already settled", nil), http.StatusConflict},
		{"invalid input", apierror.NewAPIError(apierror.ErrInvalidInput, "amount must be positive", nil), http.StatusBadRequest},
		{"unauthorized", apierror.NewAPIError(apierror.ErrUnauthorized, "invalid session", nil), http.StatusUnauthorized},
		{"transient", apierror.NewAPIError(apierror.ErrTransient, "store unavailable", nil), http.StatusServiceUnavailable},
		{"internal", apierror.NewAPIError(apierror.ErrInternalServer, "boom", nil), http.StatusInternalServerError},
		{"plain error", errors.New("plain"), http.StatusInternalServerError},
		{
			"wrapped conflict",
			fmt.Errorf("approve: %w", apierror.NewAPIError(apierror.ErrConflict, "top-up already settled", nil)),
			http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, apierror.MapErrorToHTTPStatus(tt.err))
		})
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, apierror.Retryable(apierror.NewAPIError(apierror.ErrTransient, "write failed", nil)))
	assert.False(t, apierror.Retryable(apierror.NewAPIError(apierror.ErrConflict, "already approved", nil)))
	assert.False(t, apierror.Retryable(nil))
	assert.False(t, apierror.Retryable(errors.New("plain")))
}

func TestMessage(t *testing.T) {
	err := fmt.Errorf("ctx: %w", apierror.NewAPIError(apierror.ErrNotFound, "top-up not found", nil))
	assert.Equal(t, "top-up not found", apierror.Message(err))
	assert.Equal(t, "plain", apierror.Message(errors.New("plain")))
}
