// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wafra/Wafra-Promotion/models"
	testingutil "github.com/wafra/Wafra-Promotion/testing"
	"github.com/wafra/Wafra-Promotion/utils"
	"golang.org/x/crypto/bcrypt"
)

func TestAdminRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := NewAdminRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("Save", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin("ops-save", "strong-password-1")
			require.NoError(t, err)
			assert.NotZero(t, admin.ID)
		})

		t.Run("ByUsername", func(t *testing.T) {
			original, err := fixtures.CreateTestAdmin("ops-lookup", "strong-password-2")
			require.NoError(t, err)

			admin, err := repo.ByUsername(ctx, "ops-lookup")
			require.NoError(t, err)
			require.NotNil(t, admin)
			assert.Equal(t, original.ID, admin.ID)

			// Stored hash verifies against the original password
			err = bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("strong-password-2"))
			assert.NoError(t, err)
		})

		t.Run("ByUsernameNotFound", func(t *testing.T) {
			admin, err := repo.ByUsername(ctx, "nobody")
			assert.NoError(t, err)
			assert.Nil(t, admin)
		})

		t.Run("FilterByIsActive", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin("ops-inactive", "strong-password-3")
			require.NoError(t, err)

			admin.IsActive = utils.ToPtr(false)
			require.NoError(t, repo.Update(ctx, admin))

			inactive, err := repo.ByFilter(ctx, models.AdminFilter{IsActive: utils.ToPtr(false)}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, inactive, 1)
			assert.Equal(t, "ops-inactive", inactive[0].Username)
		})

		t.Run("LastLoginAtUpdate", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin("ops-login", "strong-password-4")
			require.NoError(t, err)
			require.Nil(t, admin.LastLoginAt)

			admin.LastLoginAt = utils.UTCNowPtr()
			require.NoError(t, repo.Update(ctx, admin))

			reloaded, err := repo.ByID(ctx, admin.ID)
			require.NoError(t, err)
			assert.NotNil(t, reloaded.LastLoginAt)
		})

		return nil
	})
	require.NoError(t, err)
}
