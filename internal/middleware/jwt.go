package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/problemhub/problemhub/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer session token
// and injects the token's user ID into the request context under "user_id".
// Invalid and expired tokens are indistinguishable to the client: both get
// the same 401 so the response never acts as an oracle.
func JWTAuth(tokens *utils.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
			}
			userID, err := tokens.Verify(strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
			}
			c.Set("user_id", userID)
			return next(c)
		}
	}
}

// UserID extracts the authenticated user ID stored by JWTAuth. The boolean is
// false when the middleware did not run or the value is malformed.
func UserID(c echo.Context) (string, bool) {
	v, ok := c.Get("user_id").(string)
	return v, ok && v != ""
}
