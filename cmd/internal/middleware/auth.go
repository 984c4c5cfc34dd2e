// Package middleware gates routes on the session token. The required
// role is declared where the route is registered, so the contract is
// visible in the route table instead of hidden inside handlers.
package middleware

import (
	"strings"

	"telefonia/cmd/internal/token"
	"telefonia/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

const claimsKey = "claims"

// RequireUser validates the Bearer token and stores its claims in the
// request context. A missing or non-Bearer Authorization header is a
// client error (400); a bad, expired or inactive token is 401.
func RequireUser(codec *token.Codec) echo.MiddlewareFunc {
	return requireClaims(codec.Validate)
}

// RequireAdmin is RequireUser plus the administrator-role check.
func RequireAdmin(codec *token.Codec) echo.MiddlewareFunc {
	return requireClaims(codec.ValidateAdmin)
}

func requireClaims(validate func(string) (*token.Claims, apierror.ErrorResponse)) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return c.JSON(apierror.MissingAuthHeaderError.Code(), apierror.MissingAuthHeaderError)
			}

			schema, raw, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(schema, "Bearer") {
				return c.JSON(apierror.InvalidAuthSchemaError.Code(), apierror.InvalidAuthSchemaError)
			}

			claims, apierr := validate(strings.TrimSpace(raw))
			if apierr != nil {
				return c.JSON(apierr.Code(), apierr)
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// ClaimsFrom returns the token claims stored by RequireUser/RequireAdmin,
// or nil when the route was not gated.
func ClaimsFrom(c echo.Context) *token.Claims {
	claims, _ := c.Get(claimsKey).(*token.Claims)
	return claims
}
