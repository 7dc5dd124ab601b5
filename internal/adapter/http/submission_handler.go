package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"municipal-portal/internal/adapter/middleware"
	domainSubmission "municipal-portal/internal/domain/submission"
	"municipal-portal/internal/usecase/submission"

	"github.com/labstack/echo/v4"
)

// Submissions is the part of submission.Usecase the handlers call.
type Submissions interface {
	CreateRequest(ctx context.Context, in submission.CreateRequestInput) (*submission.CreateRequestResult, error)
	CreateResponse(ctx context.Context, in submission.CreateResponseInput) (*submission.CreateResponseResult, error)
	GetRequest(ctx context.Context, requestID uint64, v submission.Viewer) (*submission.RequestDetail, error)
}

type SubmissionHandler struct {
	uc       Submissions
	maxBytes int64
	logger   *slog.Logger
}

func NewSubmissionHandler(uc Submissions, maxBytes int64, logger *slog.Logger) *SubmissionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmissionHandler{uc: uc, maxBytes: maxBytes, logger: logger}
}

type createRequestForm struct {
	TypeID string `form:"id_tipo"            validate:"required,number"`
	Email  string `form:"email_notificacion" validate:"omitempty,email,max=255"`
}

type createResponseForm struct {
	RequestID string `form:"id_solicitud" validate:"required,number"`
	Body      string `form:"mensaje"      validate:"required"`
	Status    string `form:"estado"       validate:"required,status"`
}

func (h *SubmissionHandler) CreateRequest(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
	}
	form, err := readMultipart(c, h.maxBytes)
	if err != nil {
		return c.JSON(formStatus(err), ErrorResponse{Error: err.Error()})
	}

	req := createRequestForm{
		TypeID: form.Get("id_tipo"),
		Email:  form.Get("email_notificacion"),
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	typeID, err := strconv.ParseUint(req.TypeID, 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id_tipo"})
	}

	res, err := h.uc.CreateRequest(c.Request().Context(), submission.CreateRequestInput{
		RequesterRUT:      id.RUT,
		TypeID:            typeID,
		NotificationEmail: req.Email,
		Fields:            form.Extra("id_tipo", "email_notificacion"),
		Uploads:           form.Files,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *SubmissionHandler) CreateResponse(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
	}
	form, err := readMultipart(c, h.maxBytes)
	if err != nil {
		return c.JSON(formStatus(err), ErrorResponse{Error: err.Error()})
	}

	req := createResponseForm{
		RequestID: form.Get("id_solicitud"),
		Body:      form.Get("mensaje"),
		Status:    form.Get("estado"),
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	requestID, err := strconv.ParseUint(req.RequestID, 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id_solicitud"})
	}

	res, err := h.uc.CreateResponse(c.Request().Context(), submission.CreateResponseInput{
		RequestID: requestID,
		StaffRUT:  id.RUT,
		Body:      req.Body,
		Status:    req.Status,
		Uploads:   form.Files,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *SubmissionHandler) GetRequest(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
	}
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || requestID == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request id"})
	}
	res, err := h.uc.GetRequest(c.Request().Context(), requestID, submission.Viewer{
		RUT:   id.RUT,
		Staff: id.Role.IsStaff(),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Map domain errors → HTTP codes. Server-side detail is logged, not returned.
func (h *SubmissionHandler) fail(c echo.Context, err error) error {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			slog.String("path", c.Path()),
			slog.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			slog.Any("error", err),
		)
		return c.JSON(code, ErrorResponse{Error: "internal error"})
	}
	return c.JSON(code, ErrorResponse{Error: err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domainSubmission.ErrReferenceNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainSubmission.ErrValidation),
		errors.Is(err, domainSubmission.ErrUnsupportedFileType):
		return http.StatusBadRequest
	case errors.Is(err, domainSubmission.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domainSubmission.ErrAlreadyResolved):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
