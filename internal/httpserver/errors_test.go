package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/storefront/internal/domain"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("qty: %w", domain.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("x: %w", domain.ErrInvalidStatus), http.StatusBadRequest},
		{fmt.Errorf("x: %w", domain.ErrInsufficientInventory), http.StatusBadRequest},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("product: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrConflict, http.StatusConflict},
		{fmt.Errorf("%w: timeout", domain.ErrPaymentGateway), http.StatusBadGateway},
		{echo.NewHTTPError(http.StatusTooManyRequests), http.StatusTooManyRequests},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), tt.err.Error())
	}
}
