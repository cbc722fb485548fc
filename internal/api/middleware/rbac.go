package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/simnova/sharethrift/internal/core/domain/passport"
	"github.com/simnova/sharethrift/internal/core/ports"
)

// Passport resolves the passport of the caller once per request. The role
// snapshot read here is what every visa minted during the request sees.
func Passport(factory ports.PassportFactory, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get(UserIDKey).(string)
			p, err := factory.ForIdentity(c.Request().Context(), userID)
			if err != nil {
				log.Error().Err(err).Str("user_id", userID).Msg("failed to resolve passport")
				return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
			}
			c.Set(PassportKey, p)
			return next(c)
		}
	}
}

// RequirePrincipal rejects requests that resolved to the guest passport.
// Callers that sent no token get 401; callers whose token maps to no active
// user (unknown or blocked) get 403.
func RequirePrincipal() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, _ := c.Get(PassportKey).(passport.Passport)
			if p != nil && p.PrincipalID() != "" {
				return next(c)
			}
			if userID, _ := c.Get(UserIDKey).(string); userID == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			}
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		}
	}
}
