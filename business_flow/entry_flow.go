// Package businessflow contains the core business logic and use cases for entry reconciliation workflows
package businessflow

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/wafra/Wafra-Promotion/app/dto"
	"github.com/wafra/Wafra-Promotion/app/services"
	"github.com/wafra/Wafra-Promotion/models"
	"github.com/wafra/Wafra-Promotion/repository"
	"github.com/wafra/Wafra-Promotion/utils"
	"gorm.io/gorm"
)

// EntryFlow reconciles asynchronous code and image submissions into verified
// promotion entries.
type EntryFlow interface {
	SubmitCode(ctx context.Context, req *dto.SubmitCodeRequest, metadata *ClientMetadata) (*dto.SubmitCodeResponse, error)
	SubmitImage(ctx context.Context, req *dto.SubmitImageRequest, metadata *ClientMetadata) (*dto.SubmitImageResponse, error)
}

// EntryFlowImpl implements EntryFlow.
type EntryFlowImpl struct {
	entryRepo          repository.EntryRepository
	auditRepo          repository.AuditLogRepository
	recognizer         services.RecognitionService
	db                 *gorm.DB
	rc                 *redis.Client
	locks              *phoneLocks
	uploadRoot         string
	recognitionTimeout time.Duration
	cachePrefix        string
}

// NewEntryFlow creates a new entry flow instance.
func NewEntryFlow(
	entryRepo repository.EntryRepository,
	auditRepo repository.AuditLogRepository,
	recognizer services.RecognitionService,
	db *gorm.DB,
	rc *redis.Client,
	uploadRoot string,
	recognitionTimeout time.Duration,
	cachePrefix string,
) EntryFlow {
	return &EntryFlowImpl{
		entryRepo:          entryRepo,
		auditRepo:          auditRepo,
		recognizer:         recognizer,
		db:                 db,
		rc:                 rc,
		locks:              newPhoneLocks(),
		uploadRoot:         uploadRoot,
		recognitionTimeout: recognitionTimeout,
		cachePrefix:        cachePrefix,
	}
}

const (
	codeAcceptedMessage  = "Thank you for sending your code: %s. Please upload a photo of the pack showing the code."
	imageAcceptedMessage = "Thank you! Your photo has been uploaded and is being processed."
)

// Soft signal flags reported alongside an accepted image submission.
const (
	FlagOcrMismatch       = "ocr_mismatch"
	FlagDuplicateImage    = "duplicate_image"
	FlagRecognitionFailed = "recognition_failed"
)

// SubmitCode registers a partial entry for today. At most one entry per phone
// number per UTC day, in any completeness state.
func (f *EntryFlowImpl) SubmitCode(ctx context.Context, req *dto.SubmitCodeRequest, metadata *ClientMetadata) (*dto.SubmitCodeResponse, error) {
	if req == nil || strings.TrimSpace(req.PhoneNumber) == "" {
		return nil, NewBusinessError("VALIDATION_ERROR", "Phone number is required", ErrPhoneNumberRequired)
	}
	if strings.TrimSpace(req.Code) == "" {
		return nil, NewBusinessError("VALIDATION_ERROR", "Code is required", ErrCodeRequired)
	}

	phone := strings.TrimSpace(req.PhoneNumber)
	code := strings.TrimSpace(req.Code)

	unlock := f.locks.lock(phone)
	defer unlock()

	// Cache fast path; the store query below stays authoritative.
	if f.hasCachedSubmission(ctx, phone) {
		return nil, NewBusinessError("DUPLICATE_SUBMISSION", "You have already submitted an entry today", ErrAlreadySubmittedToday)
	}

	submitted, err := f.hasEntryToday(ctx, phone)
	if err != nil {
		return nil, NewBusinessError("ENTRY_LOOKUP_FAILED", "Failed to check today's submissions", err)
	}
	if submitted {
		f.markSubmission(ctx, phone)
		return nil, NewBusinessError("DUPLICATE_SUBMISSION", "You have already submitted an entry today", ErrAlreadySubmittedToday)
	}

	entry := &models.Entry{
		PhoneNumber: phone,
		Code:        code,
		SubmittedAt: utils.UTCNow(),
	}

	err = withTx(ctx, f.db, func(txCtx context.Context) error {
		if err := f.entryRepo.Save(txCtx, entry); err != nil {
			return err
		}
		recordAudit(txCtx, f.auditRepo, &entry.ID, models.AuditActionCodeSubmitted,
			fmt.Sprintf("code submitted for %s", phone), true, metadata, nil)
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("ENTRY_SAVE_FAILED", "Failed to save entry", err)
	}

	f.markSubmission(ctx, phone)

	return &dto.SubmitCodeResponse{
		EntryID: entry.ID,
		Message: fmt.Sprintf(codeAcceptedMessage, code),
	}, nil
}

// SubmitImage completes (or creates) today's entry with a pack photo. The
// matching policy, guard ordering and soft-signal handling follow the
// reconciliation rules: verification outcomes never reject an accepted image.
func (f *EntryFlowImpl) SubmitImage(ctx context.Context, req *dto.SubmitImageRequest, metadata *ClientMetadata) (*dto.SubmitImageResponse, error) {
	if req == nil || strings.TrimSpace(req.PhoneNumber) == "" {
		return nil, NewBusinessError("VALIDATION_ERROR", "Phone number is required", ErrPhoneNumberRequired)
	}
	if req.File == nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Image file is required", ErrImageRequired)
	}

	phone := strings.TrimSpace(req.PhoneNumber)
	code := strings.TrimSpace(req.Code)

	unlock := f.locks.lock(phone)
	defer unlock()

	// Direct match by entry id. Only an imageless entry owned by the caller
	// resolves here; a stale, complete or foreign id falls through to the
	// fallback match instead of failing, since clients lose track of ids.
	var entry *models.Entry
	if req.EntryID != nil && *req.EntryID != 0 {
		candidate, err := f.entryRepo.ByID(ctx, *req.EntryID)
		if err != nil {
			return nil, NewBusinessError("ENTRY_LOOKUP_FAILED", "Failed to look up entry", err)
		}
		if candidate != nil && candidate.PhoneNumber == phone && !candidate.IsComplete() {
			entry = candidate
		}
	}

	// Fallback match: newest imageless entry for today.
	if entry == nil {
		candidate, err := f.entryRepo.LatestPartialForDay(ctx, phone)
		if err != nil {
			return nil, NewBusinessError("ENTRY_LOOKUP_FAILED", "Failed to look up entry", err)
		}
		entry = candidate
	}

	// Both matchers resolve imageless entries only; guard anyway so a
	// completed entry is never overwritten.
	if entry != nil && entry.IsComplete() {
		return nil, NewBusinessError("CONFLICT", "Image already submitted for this entry", ErrImageAlreadySubmitted)
	}

	if entry == nil && code == "" {
		return nil, NewBusinessError("VALIDATION_ERROR", "No prior code submission found and none provided with the image", ErrNoCodeForImage)
	}

	// Daily completion guard, before any file write so a rejection never
	// leaves an orphaned upload behind.
	completed, err := f.hasCompletedEntryToday(ctx, phone, entry)
	if err != nil {
		return nil, NewBusinessError("ENTRY_LOOKUP_FAILED", "Failed to check today's submissions", err)
	}
	if completed {
		return nil, NewBusinessError("CONFLICT", "A completed entry already exists today", ErrDailyEntryCompleted)
	}

	storedPath, err := f.saveImageToDisk(req.File, req.OriginalFilename)
	if err != nil {
		if be, ok := err.(*BusinessError); ok {
			return nil, be
		}
		return nil, NewBusinessError("IMAGE_STORE_FAILED", "Failed to store image", ErrImageStoreFailed)
	}

	created := false
	if entry == nil {
		entry = &models.Entry{
			PhoneNumber: phone,
			Code:        code,
			SubmittedAt: utils.UTCNow(),
		}
		created = true
	}

	entry.ImagePath = utils.ToPtr(storedPath)
	if entry.Code == "" && code != "" {
		entry.Code = code
	}
	if entry.Code == "" {
		// Unreachable given the guards above; compensate and surface a bug signal.
		_ = os.Remove(storedPath)
		return nil, NewBusinessError("ENTRY_CODE_MISSING", "Entry has no code", ErrEntryCodeMissing)
	}

	flags := f.runRecognition(ctx, entry, storedPath)

	err = withTx(ctx, f.db, func(txCtx context.Context) error {
		if created {
			if err := f.entryRepo.Save(txCtx, entry); err != nil {
				return err
			}
		} else {
			entry.UpdatedAt = utils.UTCNow()
			if err := f.entryRepo.Update(txCtx, entry); err != nil {
				return err
			}
		}

		recordAudit(txCtx, f.auditRepo, &entry.ID, models.AuditActionImageSubmitted,
			fmt.Sprintf("image stored at %s", storedPath), true, metadata, nil)
		recordAudit(txCtx, f.auditRepo, &entry.ID, models.AuditActionEntryCompleted,
			fmt.Sprintf("entry completed for %s", phone), true, metadata, nil)
		for _, flag := range flags {
			f.recordSoftSignal(txCtx, entry, flag, metadata)
		}
		return nil
	})
	if err != nil {
		_ = os.Remove(storedPath)
		return nil, NewBusinessError("ENTRY_SAVE_FAILED", "Failed to save entry", err)
	}

	f.markSubmission(ctx, phone)

	return &dto.SubmitImageResponse{
		EntryID: entry.ID,
		Message: imageAcceptedMessage,
		Flags:   flags,
	}, nil
}

// runRecognition invokes the recognition tool with a bounded wait and applies
// its outcome to the entry. Failures and anomalies are advisory: they are
// returned as flags, never as errors.
func (f *EntryFlowImpl) runRecognition(ctx context.Context, entry *models.Entry, imagePath string) []string {
	var flags []string

	recogCtx, cancel := context.WithTimeout(ctx, f.recognitionTimeout)
	defer cancel()

	result, err := f.recognizer.Recognize(recogCtx, imagePath)
	if err != nil {
		log.Printf("recognition failed for entry phone=%s: %v", entry.PhoneNumber, err)
		entry.OcrCode = utils.ToPtr(models.OcrProcessingError)
		return append(flags, FlagRecognitionFailed)
	}

	entry.OcrCode = utils.ToPtr(result.OcrText)
	if result.Phash != "" {
		entry.ImageHash = utils.ToPtr(result.Phash)
	}

	// Empty OCR text is a mismatch signal, not a failure.
	if utils.NormalizeCode(result.OcrText) != utils.NormalizeCode(entry.Code) {
		flags = append(flags, FlagOcrMismatch)
	}

	if result.Phash != "" {
		filter := models.EntryFilter{ImageHash: &result.Phash}
		if entry.ID != 0 {
			filter.ExcludeID = &entry.ID
		}
		duplicate, err := f.entryRepo.Exists(ctx, filter)
		if err != nil {
			log.Printf("duplicate hash lookup failed for phone=%s: %v", entry.PhoneNumber, err)
		} else if duplicate {
			flags = append(flags, FlagDuplicateImage)
		}
	}

	return flags
}

func (f *EntryFlowImpl) recordSoftSignal(ctx context.Context, entry *models.Entry, flag string, metadata *ClientMetadata) {
	switch flag {
	case FlagOcrMismatch:
		recordAudit(ctx, f.auditRepo, &entry.ID, models.AuditActionCodeMismatchFlagged,
			"submitted code does not match recognized text", false, metadata,
			map[string]any{"code": entry.Code, "ocr_code": utils.Deref(entry.OcrCode)})
	case FlagDuplicateImage:
		recordAudit(ctx, f.auditRepo, &entry.ID, models.AuditActionDuplicateImageFlagged,
			"image hash collides with another entry", false, metadata,
			map[string]any{"image_hash": utils.Deref(entry.ImageHash)})
	case FlagRecognitionFailed:
		recordAudit(ctx, f.auditRepo, &entry.ID, models.AuditActionRecognitionFailed,
			"recognition tool failed or timed out", false, metadata, nil)
	}
}

// hasEntryToday reports whether any entry exists for the phone number in the
// current UTC day, regardless of completeness.
func (f *EntryFlowImpl) hasEntryToday(ctx context.Context, phone string) (bool, error) {
	start, end := utils.TodayBounds()
	return f.entryRepo.Exists(ctx, models.EntryFilter{
		PhoneNumber:     &phone,
		SubmittedAfter:  &start,
		SubmittedBefore: &end,
	})
}

// hasCompletedEntryToday reports whether another completed entry exists for
// the phone number today, excluding the entry about to be updated.
func (f *EntryFlowImpl) hasCompletedEntryToday(ctx context.Context, phone string, current *models.Entry) (bool, error) {
	start, end := utils.TodayBounds()
	filter := models.EntryFilter{
		PhoneNumber:     &phone,
		HasImage:        utils.ToPtr(true),
		SubmittedAfter:  &start,
		SubmittedBefore: &end,
	}
	if current != nil && current.ID != 0 {
		filter.ExcludeID = &current.ID
	}
	return f.entryRepo.Exists(ctx, filter)
}

const maxImageSize = utils.MaxUploadSize

// saveImageToDisk writes the upload under the upload root with a
// collision-resistant name. The content must sniff as an image.
func (f *EntryFlowImpl) saveImageToDisk(reader io.Reader, originalFilename string) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(reader, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	head = head[:n]

	detected := http.DetectContentType(head)
	if !strings.HasPrefix(detected, "image/") {
		return "", NewBusinessError("VALIDATION_ERROR", "File content is not an image", ErrImageRequired)
	}

	if err := os.MkdirAll(f.uploadRoot, 0o755); err != nil {
		return "", err
	}

	filename := uuid.New().String() + "_" + sanitizeFilename(originalFilename)
	fullPath := filepath.Join(f.uploadRoot, filename)
	dst, err := os.Create(fullPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	fullReader := io.MultiReader(bytes.NewReader(head), reader)
	limited := io.LimitReader(fullReader, maxImageSize+1)
	written, err := io.Copy(dst, limited)
	if err != nil {
		_ = os.Remove(fullPath)
		return "", err
	}
	if written > maxImageSize {
		_ = os.Remove(fullPath)
		return "", NewBusinessError("VALIDATION_ERROR", "Image exceeds the maximum upload size", ErrImageRequired)
	}

	return fullPath, nil
}

// sanitizeFilename keeps only the base name with a safe character set.
func sanitizeFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "upload"
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func (f *EntryFlowImpl) submissionCacheKey(phone string) string {
	return fmt.Sprintf("%sentry:submitted:%s:%s", f.cachePrefix, phone, utils.UTCNowFormat("2006-01-02"))
}

func (f *EntryFlowImpl) hasCachedSubmission(ctx context.Context, phone string) bool {
	if f.rc == nil {
		return false
	}
	n, err := f.rc.Exists(ctx, f.submissionCacheKey(phone)).Result()
	if err != nil {
		return false
	}
	return n > 0
}

func (f *EntryFlowImpl) markSubmission(ctx context.Context, phone string) {
	if f.rc == nil {
		return
	}
	if err := f.rc.Set(ctx, f.submissionCacheKey(phone), "1", utils.UntilEndOfDay()).Err(); err != nil {
		log.Printf("failed to set submission cache for %s: %v", phone, err)
	}
}
