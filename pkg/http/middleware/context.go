package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
)

func contextWithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

// RouteTag copies echo's matched route template onto the request context so
// wrapped net/http middleware can label by route instead of raw path.
func RouteTag() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if p := c.Path(); p != "" {
				c.SetRequest(WithRoute(c.Request(), p))
			}
			return next(c)
		}
	}
}
