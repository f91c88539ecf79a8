package httpserver

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/cookies"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

const (
	cartCookie    = "cartId"
	cartCookieTTL = 30 * 24 * time.Hour
)

func cookieCartID(c echo.Context) *uuid.UUID {
	ck, err := c.Cookie(cartCookie)
	if err != nil || ck.Value == "" {
		return nil
	}
	id, err := uuid.Parse(ck.Value)
	if err != nil {
		return nil
	}
	return &id
}

func paramUUID(c echo.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	return id, err == nil
}

func userID(c echo.Context) *uuid.UUID {
	return middleware.UserID(c)
}

func isAdmin(c echo.Context) bool {
	return middleware.IsAdmin(c)
}

func setCartCookie(c echo.Context, id uuid.UUID) {
	c.SetCookie(cookies.Create(cartCookie, id.String(), "/", time.Now().Add(cartCookieTTL)))
}
