package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/transport"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInsufficientInventory):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPaymentGateway):
		return http.StatusBadGateway
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// fail logs err under event and writes the mapped status. Internal errors
// are logged at error level and never echoed to the client.
func fail(c echo.Context, l *slog.Logger, event string, err error) error {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		l.Error(event, "status", status, "error", err)
		return c.JSON(status, transport.ErrorResponse{Error: "internal server error"})
	}
	l.Warn(event, "status", status, "error", err)
	return c.JSON(status, transport.ErrorResponse{Error: err.Error()})
}

func badRequest(c echo.Context, l *slog.Logger, event, reason string) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", reason)
	return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: reason})
}
