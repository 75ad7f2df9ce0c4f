// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/wafra/Wafra-Promotion/app/dto"
	"github.com/wafra/Wafra-Promotion/app/middleware"
	businessflow "github.com/wafra/Wafra-Promotion/business_flow"
	"github.com/wafra/Wafra-Promotion/utils"
)

// EntryHandlerInterface defines the contract for entry submission handlers
type EntryHandlerInterface interface {
	SubmitCode(c fiber.Ctx) error
	SubmitImage(c fiber.Ctx) error
}

// EntryHandler handles code and image submissions from the message channel
type EntryHandler struct {
	flow      businessflow.EntryFlow
	validator *validator.Validate
}

// NewEntryHandler creates a new entry handler
func NewEntryHandler(flow businessflow.EntryFlow) *EntryHandler {
	return &EntryHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *EntryHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *EntryHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// SubmitCode accepts a promotion code texted by a participant and registers a
// partial entry for today.
func (h *EntryHandler) SubmitCode(c fiber.Ctx) error {
	var req dto.SubmitCodeRequest
	if err := c.Bind().Body(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request format", "VALIDATION_ERROR", err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		validationErrors := make(map[string]string)
		for _, fieldError := range err.(validator.ValidationErrors) {
			validationErrors[fieldError.Field()] = getValidationErrorMessage(fieldError)
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	result, err := h.flow.SubmitCode(h.createRequestContext(c, "/api/v1/whatsapp/message"), &req, metadata)
	if err != nil {
		middleware.RecordSubmission("code", "rejected")
		return h.handleSubmissionError(c, err, "Failed to submit code", "CODE_SUBMISSION_FAILED")
	}

	middleware.RecordSubmission("code", "accepted")
	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// SubmitImage accepts a pack photo upload and reconciles it with today's
// entry for the sending phone number.
func (h *EntryHandler) SubmitImage(c fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader == nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Image file is required", "VALIDATION_ERROR", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid file", "VALIDATION_ERROR", err.Error())
	}
	defer file.Close()

	req := dto.SubmitImageRequest{
		PhoneNumber:      c.FormValue("phone_number"),
		Code:             c.FormValue("code"),
		File:             file,
		OriginalFilename: fileHeader.Filename,
		FileSize:         fileHeader.Size,
	}
	if raw := c.FormValue("entry_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid entry_id", "VALIDATION_ERROR", nil)
		}
		req.EntryID = utils.ToPtr(uint(id))
	}

	if err := h.validator.Struct(req); err != nil {
		validationErrors := make(map[string]string)
		for _, fieldError := range err.(validator.ValidationErrors) {
			validationErrors[fieldError.Field()] = getValidationErrorMessage(fieldError)
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	result, err := h.flow.SubmitImage(h.createRequestContext(c, "/api/v1/whatsapp/image"), &req, metadata)
	if err != nil {
		middleware.RecordSubmission("image", "rejected")
		return h.handleSubmissionError(c, err, "Failed to submit image", "IMAGE_SUBMISSION_FAILED")
	}

	middleware.RecordSubmission("image", "accepted")
	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// handleSubmissionError maps business error codes to HTTP statuses
func (h *EntryHandler) handleSubmissionError(c fiber.Ctx, err error, fallbackMessage, fallbackCode string) error {
	if be, ok := err.(*businessflow.BusinessError); ok {
		switch be.Code {
		case "VALIDATION_ERROR":
			return h.ErrorResponse(c, fiber.StatusBadRequest, be.Message, be.Code, nil)
		case "DUPLICATE_SUBMISSION", "CONFLICT":
			return h.ErrorResponse(c, fiber.StatusConflict, be.Message, be.Code, nil)
		case "IMAGE_STORE_FAILED", "ENTRY_CODE_MISSING":
			return h.ErrorResponse(c, fiber.StatusInternalServerError, be.Message, be.Code, nil)
		}
	}
	return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMessage, fallbackCode, nil)
}

func (h *EntryHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	return ctx
}
