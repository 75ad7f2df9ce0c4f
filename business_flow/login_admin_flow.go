// Package businessflow contains the core business logic and use cases for authentication workflows
package businessflow

import (
	"context"
	"fmt"
	"log"

	"github.com/wafra/Wafra-Promotion/app/dto"
	"github.com/wafra/Wafra-Promotion/app/services"
	"github.com/wafra/Wafra-Promotion/models"
	"github.com/wafra/Wafra-Promotion/repository"
	"github.com/wafra/Wafra-Promotion/utils"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuthFlow represents the admin authentication flow used by handlers
type AdminAuthFlow interface {
	Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error)
	Refresh(ctx context.Context, req *dto.AdminRefreshTokenRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error)
}

// AdminAuthFlowImpl verifies admin credentials and issues token pairs
type AdminAuthFlowImpl struct {
	adminRepo    repository.AdminRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.TokenService
}

func NewAdminAuthFlow(adminRepo repository.AdminRepository, auditRepo repository.AuditLogRepository, tokenService services.TokenService) AdminAuthFlow {
	return &AdminAuthFlowImpl{
		adminRepo:    adminRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
	}
}

func (af *AdminAuthFlowImpl) Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error) {
	// Validate request
	if req == nil || len(req.Username) == 0 || len(req.Password) == 0 {
		return nil, NewBusinessError("ADMIN_LOGIN_VALIDATION_FAILED", "Admin login validation failed", ErrIncorrectPassword)
	}

	// Lookup admin
	admin, err := af.adminRepo.ByUsername(ctx, req.Username)
	if err != nil {
		return nil, NewBusinessError("ADMIN_LOOKUP_FAILED", "Failed to lookup admin", err)
	}
	if admin == nil {
		recordAudit(ctx, af.auditRepo, nil, models.AuditActionAdminLoginFailed,
			fmt.Sprintf("unknown admin username %s", req.Username), false, metadata, nil)
		return nil, NewBusinessError("ADMIN_NOT_FOUND", "Admin not found", ErrAdminNotFound)
	}
	if !utils.IsTrue(admin.IsActive) {
		recordAudit(ctx, af.auditRepo, nil, models.AuditActionAdminLoginFailed,
			fmt.Sprintf("inactive admin %s", admin.Username), false, metadata, nil)
		return nil, NewBusinessError("ADMIN_INACTIVE", "Admin account is inactive", ErrAdminInactive)
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		recordAudit(ctx, af.auditRepo, nil, models.AuditActionAdminLoginFailed,
			fmt.Sprintf("wrong password for admin %s", admin.Username), false, metadata, nil)
		return nil, NewBusinessError("ADMIN_INCORRECT_PASSWORD", "Incorrect password", ErrIncorrectPassword)
	}

	// Generate admin tokens
	accessToken, refreshToken, err := af.tokenService.GenerateAdminTokens(admin.ID)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate tokens", err)
	}

	admin.LastLoginAt = utils.UTCNowPtr()
	if err := af.adminRepo.Update(ctx, admin); err != nil {
		log.Printf("failed to record last login for admin %s: %v", admin.Username, err)
	}

	recordAudit(ctx, af.auditRepo, nil, models.AuditActionAdminLoginSuccess,
		fmt.Sprintf("admin %s logged in", admin.Username), true, metadata, nil)

	return &dto.AdminLoginResponse{
		Admin:   ToAdminDTO(*admin),
		Session: ToAdminSessionDTO(accessToken, refreshToken, utils.AccessTokenTTL),
	}, nil
}

func (af *AdminAuthFlowImpl) Refresh(ctx context.Context, req *dto.AdminRefreshTokenRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error) {
	if req == nil || len(req.RefreshToken) == 0 {
		return nil, NewBusinessError("ADMIN_REFRESH_VALIDATION_FAILED", "Refresh token is required", services.ErrTokenInvalid)
	}

	accessToken, refreshToken, err := af.tokenService.RefreshAdminToken(req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("ADMIN_REFRESH_FAILED", "Failed to refresh tokens", err)
	}

	claims, err := af.tokenService.ValidateAdminToken(accessToken)
	if err != nil {
		return nil, NewBusinessError("ADMIN_REFRESH_FAILED", "Failed to refresh tokens", err)
	}

	admin, err := af.adminRepo.ByID(ctx, claims.AdminID)
	if err != nil {
		return nil, NewBusinessError("ADMIN_LOOKUP_FAILED", "Failed to lookup admin", err)
	}
	if admin == nil {
		return nil, NewBusinessError("ADMIN_NOT_FOUND", "Admin not found", ErrAdminNotFound)
	}
	if !utils.IsTrue(admin.IsActive) {
		return nil, NewBusinessError("ADMIN_INACTIVE", "Admin account is inactive", ErrAdminInactive)
	}

	return &dto.AdminLoginResponse{
		Admin:   ToAdminDTO(*admin),
		Session: ToAdminSessionDTO(accessToken, refreshToken, utils.AccessTokenTTL),
	}, nil
}
