package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/domain"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ValidationError("bad", nil), http.StatusBadRequest},
		{domain.CatalogError("no catalog loaded", nil), http.StatusServiceUnavailable},
		{fmt.Errorf("wrapped: %w", domain.DelegationError("down", nil)), http.StatusBadGateway},
		{domain.IOError("disk", nil), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}
