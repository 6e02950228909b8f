/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"chainguard.dev/siteassist/agents/agenttrace"
	"chainguard.dev/siteassist/assistant"
	"chainguard.dev/siteassist/changeset"
	"chainguard.dev/siteassist/changeset/lifecycle"
	"chainguard.dev/siteassist/changeset/preview"
	"chainguard.dev/siteassist/identity"
	"github.com/labstack/echo/v4"
)

// Legacy actions accepted by POST /api/apply.
const (
	ActionCreatePR      = "create-pr"
	ActionApprove       = "approve"
	ActionReject        = "reject"
	ActionPreviewStatus = "preview-status"
)

type chatResponse struct {
	Success bool `json:"success"`
	*assistant.TurnResult
}

type proposalResponse struct {
	Success bool `json:"success"`
	*changeset.ChangeSet
	Message string `json:"message"`
}

type resolveResponse struct {
	Success bool `json:"success"`
	*lifecycle.Result
}

type previewResponse struct {
	Success bool `json:"success"`
	*preview.Status
}

// applyRequest is the body of the legacy action endpoint. The proposal
// fields are only read for create-pr.
type applyRequest struct {
	Action   string `json:"action"`
	PRNumber int    `json:"pr_number"`
	changeset.Proposal
}

func (s *Server) healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *Server) chat(c echo.Context) error {
	if s.assistant == nil {
		return notConfigured("assistant")
	}
	var req assistant.TurnRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	ctx := c.Request().Context()
	tc := agenttrace.TurnContext{
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
		Surface:   "chat",
	}
	if id, ok := identity.FromContext(ctx); ok {
		tc.UserID = id.Subject
	}
	if req.PageContext != nil {
		tc.PagePath = req.PageContext.Path
	}

	res, err := s.assistant.Turn(agenttrace.WithTurnContext(ctx, tc), req)
	if err != nil {
		return err
	}
	turnProposals.Observe(float64(len(res.Proposals)))
	return c.JSON(http.StatusOK, chatResponse{Success: true, TurnResult: res})
}

func (s *Server) createProposal(c echo.Context) error {
	var prop changeset.Proposal
	if err := c.Bind(&prop); err != nil {
		return err
	}
	return s.submit(c, prop)
}

func (s *Server) approveProposal(c echo.Context) error {
	number, err := prNumber(c.Param("number"))
	if err != nil {
		return err
	}
	return s.resolve(c, ActionApprove, number)
}

func (s *Server) rejectProposal(c echo.Context) error {
	number, err := prNumber(c.Param("number"))
	if err != nil {
		return err
	}
	return s.resolve(c, ActionReject, number)
}

func (s *Server) previewProposal(c echo.Context) error {
	number, err := prNumber(c.Param("number"))
	if err != nil {
		return err
	}
	return s.previewStatus(c, number)
}

// apply dispatches the legacy single-endpoint actions onto the same
// operations as the resource routes.
func (s *Server) apply(c echo.Context) error {
	var req applyRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	switch req.Action {
	case ActionCreatePR:
		return s.submit(c, req.Proposal)
	case ActionApprove, ActionReject:
		if req.PRNumber <= 0 {
			return errPRNumber
		}
		return s.resolve(c, req.Action, req.PRNumber)
	case ActionPreviewStatus:
		if req.PRNumber <= 0 {
			return errPRNumber
		}
		return s.previewStatus(c, req.PRNumber)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown action")
	}
}

func (s *Server) submit(c echo.Context, prop changeset.Proposal) error {
	if s.pipeline == nil {
		return notConfigured("pipeline")
	}
	if prop.Path == "" || len(prop.Patches) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "path and patches required")
	}
	cs, err := s.pipeline.Submit(c.Request().Context(), prop)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, proposalResponse{
		Success:   true,
		ChangeSet: cs,
		Message:   fmt.Sprintf("PR #%d created. Vercel preview deploying…", cs.PRNumber),
	})
}

func (s *Server) resolve(c echo.Context, action string, number int) error {
	if s.lifecycle == nil {
		return notConfigured("lifecycle manager")
	}
	ctx := c.Request().Context()
	var (
		res *lifecycle.Result
		err error
	)
	if action == ActionApprove {
		res, err = s.lifecycle.Approve(ctx, number)
	} else {
		res, err = s.lifecycle.Reject(ctx, number)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resolveResponse{Success: true, Result: res})
}

func (s *Server) previewStatus(c echo.Context, number int) error {
	if s.preview == nil {
		return notConfigured("preview resolver")
	}
	st, err := s.preview.Status(c.Request().Context(), number)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, previewResponse{Success: true, Status: st})
}

var errPRNumber = echo.NewHTTPError(http.StatusBadRequest, "pr_number required")

func prNumber(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errPRNumber
	}
	return n, nil
}
