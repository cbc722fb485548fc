package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/simnova/sharethrift/internal/api/middleware"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
)

// ctxPassport returns the passport resolved by the Passport middleware. A
// request that never went through it is treated as a guest.
func ctxPassport(c echo.Context) passport.Passport {
	if p, ok := c.Get(middleware.PassportKey).(passport.Passport); ok && p != nil {
		return p
	}
	return passport.Guest()
}

// bindAndValidate decodes the request into req and runs the struct
// validator. Bind failures are 400, validation failures 422.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}
