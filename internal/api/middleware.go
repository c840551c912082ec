package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/beesaferoot/officelease/internal/audit"
	"github.com/beesaferoot/officelease/internal/logging"
)

// UserHeader names the acting user recorded in the audit log.
const UserHeader = "X-User"

// requestID reuses the caller's request id or assigns a new one, and echoes
// it back on the response.
func requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		id := req.Header.Get(logging.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			req.Header.Set(logging.RequestIDHeader, id)
		}
		c.Response().Header().Set(logging.RequestIDHeader, id)
		c.SetRequest(req.WithContext(audit.WithRequestID(req.Context(), id)))
		return next(c)
	}
}

func auditContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := audit.WithIP(req.Context(), c.RealIP())
		if user := req.Header.Get(UserHeader); user != "" {
			ctx = audit.WithActor(ctx, user)
		}
		c.SetRequest(req.WithContext(ctx))
		return next(c)
	}
}
