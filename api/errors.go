/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"errors"
	"fmt"
	"net/http"

	"chainguard.dev/siteassist/agents/llm"
	"chainguard.dev/siteassist/changeset"
	"chainguard.dev/siteassist/contentstore"
	"chainguard.dev/siteassist/identity"
	"github.com/chainguard-dev/clog"
	"github.com/labstack/echo/v4"
)

// errNotConfigured marks a request for a component the server was started without.
var errNotConfigured = errors.New("not configured")

func notConfigured(component string) error {
	return fmt.Errorf("%s %w", component, errNotConfigured)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// classify maps err to a status code and the message shown to the client.
func classify(err error) (int, string) {
	var (
		he     *echo.HTTPError
		apiErr *llm.APIError
	)
	switch {
	case errors.As(err, &he):
		if he.Code == http.StatusMethodNotAllowed {
			return he.Code, "Method not allowed"
		}
		return he.Code, fmt.Sprint(he.Message)
	case errors.Is(err, identity.ErrUnauthenticated):
		return http.StatusUnauthorized, "Invalid session"
	case errors.Is(err, changeset.ErrInvalid):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, contentstore.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, contentstore.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, fmt.Sprintf("AI error (%d): %s", apiErr.StatusCode, apiErr.Body)
	case errors.Is(err, llm.ErrNoChoices):
		return http.StatusBadGateway, "No response from AI"
	case errors.Is(err, contentstore.ErrUpstream):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, errNotConfigured):
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, "Internal error: " + err.Error()
	}
}

// handleError renders err in the response envelope.
func handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := classify(err)

	log := clog.FromContext(c.Request().Context()).With("status", code)
	if code >= http.StatusInternalServerError {
		log.Error("Request failed", "error", err)
	} else {
		log.Debugf("Request rejected: %v", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, errorResponse{Error: msg})
	}
	if err != nil {
		log.Warnf("Failed to write error response: %v", err)
	}
}
