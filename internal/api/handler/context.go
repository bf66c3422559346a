package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/modernshop/shop-api/internal/api/middleware"
	"github.com/modernshop/shop-api/internal/core/domain"
)

// ctxUser returns the user injected by the Auth middleware. A missing user
// means the route was registered without the middleware; treat it as
// unauthenticated rather than panic.
func ctxUser(c echo.Context) (*domain.User, error) {
	user, ok := c.Get(middleware.ContextKeyUser).(*domain.User)
	if !ok || user == nil || user.ID == "" {
		return nil, domain.ErrMissingToken
	}
	return user, nil
}
