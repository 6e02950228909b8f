/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"chainguard.dev/siteassist/identity"
	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// requestLogger attaches a request scoped logger carrying the request id,
// records HTTP metrics and logs the outcome of every request.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			log := clog.FromContext(req.Context()).
				With("request_id", id).
				With("method", req.Method).
				With("route", route)
			c.SetRequest(req.WithContext(clog.WithLogger(req.Context(), log)))

			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			elapsed := time.Since(start)
			status := c.Response().Status

			requestCount.WithLabelValues(route, req.Method, strconv.Itoa(status)).Inc()
			requestDuration.WithLabelValues(route, req.Method).Observe(elapsed.Seconds())
			log.With("status", status).With("duration", elapsed).Info("Request completed")
			return nil
		}
	}
}

// authenticate rejects requests without a bearer token the verifier accepts
// and attaches the verified identity to the request context.
func authenticate(v identity.Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}
			ctx := c.Request().Context()
			id, err := v.Verify(ctx, strings.TrimSpace(token))
			if err != nil {
				return err
			}
			ctx = identity.WithIdentity(ctx, id)
			ctx = clog.WithLogger(ctx, clog.FromContext(ctx).With("user", id.Subject))
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
