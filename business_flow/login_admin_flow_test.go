package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wafra/Wafra-Promotion/app/dto"
	"github.com/wafra/Wafra-Promotion/app/services"
	"github.com/wafra/Wafra-Promotion/models"
	"github.com/wafra/Wafra-Promotion/repository"
	testingutil "github.com/wafra/Wafra-Promotion/testing"
	"github.com/wafra/Wafra-Promotion/utils"
)

func newTestTokenService(t *testing.T) services.TokenService {
	t.Helper()
	svc, err := services.NewTokenService(
		15*time.Minute,
		7*24*time.Hour,
		"test-issuer",
		"test-audience",
		false,
		"",
		"",
		"test-secret-key-for-jwt-signing-32-chars",
	)
	require.NoError(t, err)
	return svc
}

func TestAdminAuthFlowLogin(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		adminRepo := repository.NewAdminRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := NewAdminAuthFlow(adminRepo, auditRepo, newTestTokenService(t))
		ctx := context.Background()

		_, err := fixtures.CreateTestAdmin("ops-admin", "correct-password-1")
		require.NoError(t, err)

		t.Run("Success", func(t *testing.T) {
			resp, err := flow.Login(ctx, &dto.AdminLoginRequest{
				Username: "ops-admin",
				Password: "correct-password-1",
			}, NewClientMetadata("1.2.3.4", "test-agent"))

			require.NoError(t, err)
			assert.Equal(t, "ops-admin", resp.Admin.Username)
			assert.NotEmpty(t, resp.Session.AccessToken)
			assert.NotEmpty(t, resp.Session.RefreshToken)
			assert.Equal(t, "Bearer", resp.Session.TokenType)

			// Last login is recorded
			admin, err := adminRepo.ByUsername(ctx, "ops-admin")
			require.NoError(t, err)
			assert.NotNil(t, admin.LastLoginAt)

			logs, err := auditRepo.ListByAction(ctx, models.AuditActionAdminLoginSuccess, 0, 0)
			require.NoError(t, err)
			assert.Len(t, logs, 1)
		})

		t.Run("UnknownUsername", func(t *testing.T) {
			_, err := flow.Login(ctx, &dto.AdminLoginRequest{
				Username: "ghost",
				Password: "whatever-password",
			}, nil)
			require.Error(t, err)
			assert.True(t, IsAdminNotFound(err))
		})

		t.Run("WrongPassword", func(t *testing.T) {
			_, err := flow.Login(ctx, &dto.AdminLoginRequest{
				Username: "ops-admin",
				Password: "wrong-password-1",
			}, nil)
			require.Error(t, err)
			assert.True(t, IsIncorrectPassword(err))

			logs, err := auditRepo.ListByAction(ctx, models.AuditActionAdminLoginFailed, 0, 0)
			require.NoError(t, err)
			assert.NotEmpty(t, logs)
		})

		t.Run("InactiveAdmin", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin("ops-disabled", "correct-password-2")
			require.NoError(t, err)
			admin.IsActive = utils.ToPtr(false)
			require.NoError(t, adminRepo.Update(ctx, admin))

			_, err = flow.Login(ctx, &dto.AdminLoginRequest{
				Username: "ops-disabled",
				Password: "correct-password-2",
			}, nil)
			require.Error(t, err)
			assert.True(t, IsAdminInactive(err))
		})

		t.Run("EmptyCredentials", func(t *testing.T) {
			_, err := flow.Login(ctx, &dto.AdminLoginRequest{}, nil)
			assert.Error(t, err)

			_, err = flow.Login(ctx, nil, nil)
			assert.Error(t, err)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAdminAuthFlowRefresh(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		adminRepo := repository.NewAdminRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := NewAdminAuthFlow(adminRepo, auditRepo, newTestTokenService(t))
		ctx := context.Background()

		_, err := fixtures.CreateTestAdmin("ops-refresh", "correct-password-3")
		require.NoError(t, err)

		login, err := flow.Login(ctx, &dto.AdminLoginRequest{
			Username: "ops-refresh",
			Password: "correct-password-3",
		}, nil)
		require.NoError(t, err)

		t.Run("Success", func(t *testing.T) {
			resp, err := flow.Refresh(ctx, &dto.AdminRefreshTokenRequest{
				RefreshToken: login.Session.RefreshToken,
			}, nil)
			require.NoError(t, err)
			assert.Equal(t, "ops-refresh", resp.Admin.Username)
			assert.NotEmpty(t, resp.Session.AccessToken)
			assert.NotEqual(t, login.Session.AccessToken, resp.Session.AccessToken)
		})

		t.Run("AccessTokenRejected", func(t *testing.T) {
			_, err := flow.Refresh(ctx, &dto.AdminRefreshTokenRequest{
				RefreshToken: login.Session.AccessToken,
			}, nil)
			assert.Error(t, err)
		})

		t.Run("EmptyToken", func(t *testing.T) {
			_, err := flow.Refresh(ctx, &dto.AdminRefreshTokenRequest{}, nil)
			assert.Error(t, err)
		})

		t.Run("DeactivatedAfterLogin", func(t *testing.T) {
			admin, err := adminRepo.ByUsername(ctx, "ops-refresh")
			require.NoError(t, err)
			admin.IsActive = utils.ToPtr(false)
			require.NoError(t, adminRepo.Update(ctx, admin))

			_, err = flow.Refresh(ctx, &dto.AdminRefreshTokenRequest{
				RefreshToken: login.Session.RefreshToken,
			}, nil)
			require.Error(t, err)
			assert.True(t, IsAdminInactive(err))
		})

		return nil
	})
	require.NoError(t, err)
}
