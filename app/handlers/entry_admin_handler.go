// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/wafra/Wafra-Promotion/app/dto"
	businessflow "github.com/wafra/Wafra-Promotion/business_flow"
	"github.com/wafra/Wafra-Promotion/utils"
)

// AdminEntryHandlerInterface defines the contract for admin entry handlers
type AdminEntryHandlerInterface interface {
	ListEntries(c fiber.Ctx) error
	GetEntry(c fiber.Ctx) error
	ListSoftSignals(c fiber.Ctx) error
	ExportEntries(c fiber.Ctx) error
	PreviewEntryImage(c fiber.Ctx) error
}

// AdminEntryHandler serves the admin browsing, export and preview endpoints
type AdminEntryHandler struct {
	flow businessflow.AdminEntryFlow
}

// NewAdminEntryHandler creates a new admin entry handler
func NewAdminEntryHandler(flow businessflow.AdminEntryFlow) *AdminEntryHandler {
	return &AdminEntryHandler{flow: flow}
}

func (h *AdminEntryHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AdminEntryHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListEntries returns a filtered page of entries
func (h *AdminEntryHandler) ListEntries(c fiber.Ctx) error {
	var req dto.ListEntriesRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "VALIDATION_ERROR", err.Error())
	}

	result, err := h.flow.ListEntries(h.createRequestContext(c, "/api/v1/admin/entries"), &req)
	if err != nil {
		return h.handleAdminError(c, err, "Failed to list entries", "LIST_ENTRIES_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// GetEntry returns one entry with its audit trail
func (h *AdminEntryHandler) GetEntry(c fiber.Ctx) error {
	entryID, err := parseEntryID(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid entry id", "VALIDATION_ERROR", nil)
	}

	result, err := h.flow.GetEntry(h.createRequestContext(c, "/api/v1/admin/entries/{id}"), entryID)
	if err != nil {
		return h.handleAdminError(c, err, "Failed to get entry", "GET_ENTRY_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Entry retrieved successfully", result)
}

// ListSoftSignals returns flagged submissions for manual review
func (h *AdminEntryHandler) ListSoftSignals(c fiber.Ctx) error {
	var req dto.ListSoftSignalsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "VALIDATION_ERROR", err.Error())
	}

	result, err := h.flow.ListSoftSignals(h.createRequestContext(c, "/api/v1/admin/entries/flags"), &req)
	if err != nil {
		return h.handleAdminError(c, err, "Failed to list flagged submissions", "LIST_SOFT_SIGNALS_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// ExportEntries streams the filtered entries as an xlsx workbook
func (h *AdminEntryHandler) ExportEntries(c fiber.Ctx) error {
	var req dto.ExportEntriesRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "VALIDATION_ERROR", err.Error())
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	filename, data, err := h.flow.ExportEntries(h.createRequestContext(c, "/api/v1/admin/entries/export"), &req, metadata)
	if err != nil {
		return h.handleAdminError(c, err, "Failed to export entries", "EXPORT_ENTRIES_FAILED")
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// PreviewEntryImage returns a thumbnail of the entry's pack photo
func (h *AdminEntryHandler) PreviewEntryImage(c fiber.Ctx) error {
	entryID, err := parseEntryID(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid entry id", "VALIDATION_ERROR", nil)
	}

	filename, contentType, data, err := h.flow.PreviewEntryImage(h.createRequestContext(c, "/api/v1/admin/entries/{id}/preview"), entryID)
	if err != nil {
		return h.handleAdminError(c, err, "Failed to generate preview", "PREVIEW_FAILED")
	}

	if contentType != "" {
		c.Set("Content-Type", contentType)
	}
	c.Set("Content-Disposition", "inline; filename="+filename)
	return c.Send(data)
}

func (h *AdminEntryHandler) handleAdminError(c fiber.Ctx, err error, fallbackMessage, fallbackCode string) error {
	if be, ok := err.(*businessflow.BusinessError); ok {
		switch be.Code {
		case "VALIDATION_ERROR", "INVALID_PATH":
			return h.ErrorResponse(c, fiber.StatusBadRequest, be.Message, be.Code, nil)
		case "ENTRY_NOT_FOUND", "ENTRY_IMAGE_MISSING":
			return h.ErrorResponse(c, fiber.StatusNotFound, be.Message, be.Code, nil)
		}
	}
	return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMessage, fallbackCode, nil)
}

func parseEntryID(c fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, businessflow.ErrEntryNotFound
	}
	return uint(id), nil
}

func (h *AdminEntryHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	return ctx
}
