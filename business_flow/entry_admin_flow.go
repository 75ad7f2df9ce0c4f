// Package businessflow contains admin entry browsing and export operations
package businessflow

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wafra/Wafra-Promotion/app/dto"
	"github.com/wafra/Wafra-Promotion/models"
	"github.com/wafra/Wafra-Promotion/repository"
	"github.com/wafra/Wafra-Promotion/utils"
	"github.com/xuri/excelize/v2"
	xdraw "golang.org/x/image/draw"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// AdminEntryFlow exposes admin browsing, export and image preview use cases
type AdminEntryFlow interface {
	ListEntries(ctx context.Context, req *dto.ListEntriesRequest) (*dto.ListEntriesResponse, error)
	GetEntry(ctx context.Context, entryID uint) (*dto.EntryDetailResponse, error)
	ListSoftSignals(ctx context.Context, req *dto.ListSoftSignalsRequest) (*dto.ListSoftSignalsResponse, error)
	ExportEntries(ctx context.Context, req *dto.ExportEntriesRequest, metadata *ClientMetadata) (string, []byte, error)
	PreviewEntryImage(ctx context.Context, entryID uint) (string, string, []byte, error)
}

// AdminEntryFlowImpl implements AdminEntryFlow
type AdminEntryFlowImpl struct {
	entryRepo  repository.EntryRepository
	auditRepo  repository.AuditLogRepository
	uploadRoot string
}

func NewAdminEntryFlow(entryRepo repository.EntryRepository, auditRepo repository.AuditLogRepository, uploadRoot string) AdminEntryFlow {
	return &AdminEntryFlowImpl{
		entryRepo:  entryRepo,
		auditRepo:  auditRepo,
		uploadRoot: uploadRoot,
	}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListEntries returns a filtered page of entries, newest first
func (f *AdminEntryFlowImpl) ListEntries(ctx context.Context, req *dto.ListEntriesRequest) (*dto.ListEntriesResponse, error) {
	page, pageSize, err := normalizePagination(req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}

	filter, err := buildEntryFilter(req.PhoneNumber, req.Code, req.HasImage, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	total, err := f.entryRepo.Count(ctx, *filter)
	if err != nil {
		return nil, NewBusinessError("LIST_ENTRIES_FAILED", "Failed to count entries", err)
	}

	entries, err := f.entryRepo.ByFilter(ctx, *filter, "submitted_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("LIST_ENTRIES_FAILED", "Failed to list entries", err)
	}

	items := make([]dto.EntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, ToEntryDTO(*entry))
	}

	return &dto.ListEntriesResponse{
		Message:    "Entries retrieved successfully",
		Items:      items,
		Pagination: buildPagination(page, pageSize, total),
	}, nil
}

// GetEntry returns one entry with its full audit trail
func (f *AdminEntryFlowImpl) GetEntry(ctx context.Context, entryID uint) (*dto.EntryDetailResponse, error) {
	entry, err := f.entryRepo.ByID(ctx, entryID)
	if err != nil {
		return nil, NewBusinessError("GET_ENTRY_FAILED", "Failed to get entry", err)
	}
	if entry == nil {
		return nil, NewBusinessError("ENTRY_NOT_FOUND", "Entry not found", ErrEntryNotFound)
	}

	rows, err := f.auditRepo.ListByEntry(ctx, entry.ID, 0, 0)
	if err != nil {
		return nil, NewBusinessError("GET_ENTRY_FAILED", "Failed to get entry audit trail", err)
	}

	trail := make([]dto.AuditLogDTO, 0, len(rows))
	for _, row := range rows {
		trail = append(trail, toAuditLogDTO(*row))
	}

	return &dto.EntryDetailResponse{
		Entry:    ToEntryDTO(*entry),
		AuditLog: trail,
	}, nil
}

// ListSoftSignals pages through advisory verification signals
func (f *AdminEntryFlowImpl) ListSoftSignals(ctx context.Context, req *dto.ListSoftSignalsRequest) (*dto.ListSoftSignalsResponse, error) {
	page, pageSize, err := normalizePagination(req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}

	rows, err := f.auditRepo.ListSoftSignals(ctx, pageSize+1, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("LIST_SOFT_SIGNALS_FAILED", "Failed to list flagged submissions", err)
	}

	hasMore := len(rows) > pageSize
	if hasMore {
		rows = rows[:pageSize]
	}

	items := make([]dto.AuditLogDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toAuditLogDTO(*row))
	}

	total := int64((page-1)*pageSize + len(items))
	if hasMore {
		total++
	}

	return &dto.ListSoftSignalsResponse{
		Message:    "Flagged submissions retrieved successfully",
		Items:      items,
		Pagination: buildPagination(page, pageSize, total),
	}, nil
}

// ExportEntries renders the filtered entries as an xlsx workbook
func (f *AdminEntryFlowImpl) ExportEntries(ctx context.Context, req *dto.ExportEntriesRequest, metadata *ClientMetadata) (string, []byte, error) {
	filter, err := buildEntryFilter(nil, nil, req.HasImage, req.StartDate, req.EndDate)
	if err != nil {
		return "", nil, err
	}

	entries, err := f.entryRepo.ByFilter(ctx, *filter, "submitted_at ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_ENTRIES_FAILED", "Failed to load entries", err)
	}

	wb := excelize.NewFile()
	defer wb.Close()

	const sheet = "Entries"
	wb.SetSheetName(wb.GetSheetName(0), sheet)

	header := []any{"ID", "UUID", "Phone Number", "Code", "OCR Code", "Image Hash", "Image Path", "Complete", "Submitted At"}
	if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
		return "", nil, NewBusinessError("EXPORT_ENTRIES_FAILED", "Failed to render export", err)
	}

	for i, entry := range entries {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			entry.ID,
			entry.UUID.String(),
			entry.PhoneNumber,
			entry.Code,
			utils.Deref(entry.OcrCode),
			utils.Deref(entry.ImageHash),
			utils.Deref(entry.ImagePath),
			entry.IsComplete(),
			entry.SubmittedAt.Format(time.RFC3339),
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			return "", nil, NewBusinessError("EXPORT_ENTRIES_FAILED", "Failed to render export", err)
		}
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_ENTRIES_FAILED", "Failed to render export", err)
	}

	recordAudit(ctx, f.auditRepo, nil, models.AuditActionEntriesExported,
		fmt.Sprintf("%d entries exported", len(entries)), true, metadata,
		map[string]any{"count": len(entries)})

	filename := fmt.Sprintf("entries-%s.xlsx", utils.UTCNowFormat("2006-01-02"))
	return filename, buf.Bytes(), nil
}

// PreviewEntryImage returns a jpeg thumbnail of the stored pack photo
func (f *AdminEntryFlowImpl) PreviewEntryImage(ctx context.Context, entryID uint) (string, string, []byte, error) {
	entry, err := f.entryRepo.ByID(ctx, entryID)
	if err != nil {
		return "", "", nil, NewBusinessError("GET_ENTRY_FAILED", "Failed to get entry", err)
	}
	if entry == nil {
		return "", "", nil, NewBusinessError("ENTRY_NOT_FOUND", "Entry not found", ErrEntryNotFound)
	}
	if !entry.IsComplete() {
		return "", "", nil, NewBusinessError("ENTRY_IMAGE_MISSING", "Entry has no image", ErrEntryNotFound)
	}

	cleanPath, err := f.sanitizeImagePath(utils.Deref(entry.ImagePath))
	if err != nil {
		return "", "", nil, err
	}

	file, err := os.Open(cleanPath)
	if err != nil {
		return "", "", nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return "", "", nil, err
	}

	thumb := resizeImage(img, 512)
	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, thumb, &jpeg.Options{Quality: 75}); err != nil {
		return "", "", nil, err
	}

	return "preview.jpg", "image/jpeg", buf.Bytes(), nil
}

// resizeImage downscales to fit within maxDim while keeping aspect ratio.
// Transparent regions are flattened onto white for the jpeg encoding.
func resizeImage(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return src
	}

	var nw, nh int
	if w >= h {
		nw = maxDim
		nh = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		nh = maxDim
		nw = int(float64(w) * float64(maxDim) / float64(h))
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	imagedraw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, imagedraw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

// sanitizeImagePath rejects paths that escaped the upload root
func (f *AdminEntryFlowImpl) sanitizeImagePath(path string) (string, error) {
	if path == "" {
		return "", NewBusinessError("INVALID_PATH", "path is empty", nil)
	}
	cleaned := filepath.Clean(path)
	root := filepath.Clean(f.uploadRoot)
	if cleaned != root && !strings.HasPrefix(cleaned, root+string(filepath.Separator)) {
		return "", NewBusinessError("INVALID_PATH", "path is outside the upload directory", nil)
	}
	return cleaned, nil
}

func normalizePagination(page, pageSize int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	if page < 1 {
		return 0, 0, NewBusinessError("VALIDATION_ERROR", "Page must be at least 1", ErrInvalidPage)
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return 0, 0, NewBusinessError("VALIDATION_ERROR", fmt.Sprintf("Page size must be between 1 and %d", maxPageSize), ErrInvalidPageSize)
	}
	return page, pageSize, nil
}

func buildPagination(page, pageSize int, total int64) dto.PaginationInfo {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return dto.PaginationInfo{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}
}

func buildEntryFilter(phoneNumber, code *string, hasImage *bool, startDate, endDate *string) (*models.EntryFilter, error) {
	filter := &models.EntryFilter{
		HasImage: hasImage,
	}
	if phoneNumber != nil && *phoneNumber != "" {
		filter.PhoneNumber = phoneNumber
	}
	if code != nil && *code != "" {
		filter.Code = code
	}
	if startDate != nil && *startDate != "" {
		st, err := time.Parse(time.RFC3339, *startDate)
		if err != nil {
			return nil, NewBusinessError("VALIDATION_ERROR", "Invalid start_date format", err)
		}
		st = st.UTC()
		filter.SubmittedAfter = &st
	}
	if endDate != nil && *endDate != "" {
		et, err := time.Parse(time.RFC3339, *endDate)
		if err != nil {
			return nil, NewBusinessError("VALIDATION_ERROR", "Invalid end_date format", err)
		}
		et = et.UTC()
		filter.SubmittedBefore = &et
	}
	if filter.SubmittedAfter != nil && filter.SubmittedBefore != nil && filter.SubmittedAfter.After(*filter.SubmittedBefore) {
		return nil, NewBusinessError("VALIDATION_ERROR", "start_date cannot be after end_date", ErrStartDateAfterEndDate)
	}
	return filter, nil
}

func toAuditLogDTO(row models.AuditLog) dto.AuditLogDTO {
	return dto.AuditLogDTO{
		ID:          row.ID,
		EntryID:     row.EntryID,
		Action:      row.Action,
		Description: utils.Deref(row.Description),
		Success:     utils.IsTrue(row.Success),
		Metadata:    string(row.Metadata),
		CreatedAt:   row.CreatedAt.Format(time.RFC3339),
	}
}
