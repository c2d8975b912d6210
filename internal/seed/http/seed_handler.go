// Package http provides HTTP handlers for OTP enrollment and verification.
package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/seedvault/internal/httputil"
	"github.com/allisson/seedvault/internal/seed/http/dto"
	seedUseCase "github.com/allisson/seedvault/internal/seed/usecase"
	customValidation "github.com/allisson/seedvault/internal/validation"
)

// SeedHandler handles HTTP requests for the seed lifecycle.
type SeedHandler struct {
	seedUseCase seedUseCase.SeedUseCase
	logger      *slog.Logger
}

// NewSeedHandler creates a new seed handler with required dependencies.
func NewSeedHandler(seedUseCase seedUseCase.SeedUseCase, logger *slog.Logger) *SeedHandler {
	return &SeedHandler{
		seedUseCase: seedUseCase,
		logger:      logger,
	}
}

// EnrollHandler provisions a seed for the principal.
// POST /v1/enrollments/:principal
// Returns 201 Created with the provisioning URI and QR image when the seed was created by
// this request, or 200 OK without them when the principal was already enrolled.
func (h *SeedHandler) EnrollHandler(c *gin.Context) {
	principal := c.Param("principal")

	// The body is optional; an empty one decodes to io.EOF.
	var req dto.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	enrollment, err := h.seedUseCase.Enroll(c.Request.Context(), principal, req.AccountLabel)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	status := http.StatusOK
	if enrollment.JustCreated {
		status = http.StatusCreated
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(status, dto.MapEnrollmentToResponse(enrollment))
}

// ResetHandler deletes the principal's seed.
// DELETE /v1/enrollments/:principal
// Returns 204 No Content.
func (h *SeedHandler) ResetHandler(c *gin.Context) {
	principal := c.Param("principal")

	if err := h.seedUseCase.Reset(c.Request.Context(), principal); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// VerifyHandler checks a one-time code for the principal.
// POST /v1/verifications/:principal
// Returns 200 OK with the result: match, no_match, secret_unavailable or no_enrollment.
func (h *SeedHandler) VerifyHandler(c *gin.Context) {
	principal := c.Param("principal")

	var req dto.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.seedUseCase.VerifyToken(c.Request.Context(), principal, req.Code)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVerifyResultToResponse(principal, result))
}
