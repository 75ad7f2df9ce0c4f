package dto

import "io"

// SubmitCodeRequest is a code submission from the message channel
type SubmitCodeRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=5,max=20"`
	Code        string `json:"code" validate:"required,min=1,max=64"`
}

// SubmitCodeResponse acknowledges an accepted code submission
type SubmitCodeResponse struct {
	EntryID uint   `json:"entry_id"`
	Message string `json:"message"`
}

// SubmitImageRequest is a pack photo submission. EntryID and Code are
// optional; the reconciliation rules decide which entry the image completes.
type SubmitImageRequest struct {
	PhoneNumber      string    `json:"phone_number" validate:"required,min=5,max=20"`
	EntryID          *uint     `json:"entry_id,omitempty"`
	Code             string    `json:"code,omitempty" validate:"omitempty,max=64"`
	File             io.Reader `json:"-"`
	OriginalFilename string    `json:"-"`
	FileSize         int64     `json:"-"`
}

// SubmitImageResponse acknowledges an accepted image submission. Flags carry
// advisory verification signals; their presence never means rejection.
type SubmitImageResponse struct {
	EntryID uint     `json:"entry_id"`
	Message string   `json:"message"`
	Flags   []string `json:"flags,omitempty"`
}

// EntryDTO is the API representation of a promotion entry
type EntryDTO struct {
	ID          uint   `json:"id"`
	UUID        string `json:"uuid"`
	PhoneNumber string `json:"phone_number"`
	Code        string `json:"code"`
	ImagePath   string `json:"image_path,omitempty"`
	ImageHash   string `json:"image_hash,omitempty"`
	OcrCode     string `json:"ocr_code,omitempty"`
	Complete    bool   `json:"complete"`
	SubmittedAt string `json:"submitted_at"`
}

// AuditLogDTO is the API representation of an audit row
type AuditLogDTO struct {
	ID          uint   `json:"id"`
	EntryID     *uint  `json:"entry_id,omitempty"`
	Action      string `json:"action"`
	Description string `json:"description,omitempty"`
	Success     bool   `json:"success"`
	Metadata    string `json:"metadata,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// ListEntriesRequest carries admin browsing filters
type ListEntriesRequest struct {
	Page        int     `query:"page"`
	PageSize    int     `query:"page_size"`
	PhoneNumber *string `query:"phone_number"`
	Code        *string `query:"code"`
	HasImage    *bool   `query:"has_image"`
	StartDate   *string `query:"start_date"`
	EndDate     *string `query:"end_date"`
}

// PaginationInfo contains pagination metadata
type PaginationInfo struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// ListEntriesResponse is a page of entries
type ListEntriesResponse struct {
	Message    string         `json:"message"`
	Items      []EntryDTO     `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
}

// EntryDetailResponse is a single entry with its audit trail
type EntryDetailResponse struct {
	Entry    EntryDTO      `json:"entry"`
	AuditLog []AuditLogDTO `json:"audit_log"`
}

// ListSoftSignalsRequest pages through flagged submissions
type ListSoftSignalsRequest struct {
	Page     int `query:"page"`
	PageSize int `query:"page_size"`
}

// ListSoftSignalsResponse is a page of advisory verification signals
type ListSoftSignalsResponse struct {
	Message    string         `json:"message"`
	Items      []AuditLogDTO  `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
}

// ExportEntriesRequest carries export filters; the same date semantics as
// ListEntriesRequest apply
type ExportEntriesRequest struct {
	StartDate *string `query:"start_date"`
	EndDate   *string `query:"end_date"`
	HasImage  *bool   `query:"has_image"`
}
