package middleware

import (
	"net/http"
	"strings"

	"p2p-lending-backend/pkg/address"

	"github.com/labstack/echo/v4"
)

// CallerHeader carries the account the wallet layer authenticated.
const CallerHeader = "Ax-Caller-Id"

const callerKey = "caller"

// CallerIdentity requires a valid caller account and stores its checksummed
// form on the context.
func CallerIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := strings.TrimSpace(c.Request().Header.Get(CallerHeader))
			if raw == "" {
				return deny(c, http.StatusUnauthorized, "unauthenticated", "missing "+CallerHeader)
			}
			caller, err := address.Normalize(raw)
			if err != nil {
				return deny(c, http.StatusUnauthorized, "unauthenticated", "invalid "+CallerHeader)
			}
			SetCaller(c, caller)
			return next(c)
		}
	}
}

// Caller returns the account set by CallerIdentity, or "".
func Caller(c echo.Context) string {
	s, _ := c.Get(callerKey).(string)
	return s
}

func SetCaller(c echo.Context, caller string) { c.Set(callerKey, caller) }
