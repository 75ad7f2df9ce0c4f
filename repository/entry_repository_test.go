// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wafra/Wafra-Promotion/models"
	testingutil "github.com/wafra/Wafra-Promotion/testing"
	"github.com/wafra/Wafra-Promotion/utils"
)

func TestEntryRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := NewEntryRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("Save", func(t *testing.T) {
			entry, err := fixtures.CreateTestEntry(testingutil.RandomPhoneNumber(), "SAVE01")
			require.NoError(t, err)
			assert.NotZero(t, entry.ID)
			assert.NotEmpty(t, entry.UUID)
		})

		t.Run("ByID", func(t *testing.T) {
			original, err := fixtures.CreateTestEntry(testingutil.RandomPhoneNumber(), "BYID01")
			require.NoError(t, err)

			entry, err := repo.ByID(ctx, original.ID)
			require.NoError(t, err)
			require.NotNil(t, entry)
			assert.Equal(t, original.ID, entry.ID)
			assert.Equal(t, original.PhoneNumber, entry.PhoneNumber)
			assert.Equal(t, "BYID01", entry.Code)
		})

		t.Run("ByIDNotFound", func(t *testing.T) {
			entry, err := repo.ByID(ctx, 999999)
			assert.NoError(t, err)
			assert.Nil(t, entry)
		})

		t.Run("ByUUID", func(t *testing.T) {
			original, err := fixtures.CreateTestEntry(testingutil.RandomPhoneNumber(), "UUID01")
			require.NoError(t, err)

			entry, err := repo.ByUUID(ctx, original.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, entry)
			assert.Equal(t, original.ID, entry.ID)
		})

		t.Run("ByUUIDInvalid", func(t *testing.T) {
			_, err := repo.ByUUID(ctx, "not-a-uuid")
			assert.Error(t, err)
		})

		t.Run("Update", func(t *testing.T) {
			entry, err := fixtures.CreateTestEntry(testingutil.RandomPhoneNumber(), "UPD001")
			require.NoError(t, err)

			entry.ImagePath = utils.ToPtr("/uploads/test.png")
			entry.ImageHash = utils.ToPtr("00000000000000aa")
			require.NoError(t, repo.Update(ctx, entry))

			reloaded, err := repo.ByID(ctx, entry.ID)
			require.NoError(t, err)
			assert.True(t, reloaded.IsComplete())
			assert.Equal(t, "00000000000000aa", utils.Deref(reloaded.ImageHash))
		})

		t.Run("FilterByHasImage", func(t *testing.T) {
			phone := testingutil.RandomPhoneNumber()
			_, err := fixtures.CreateTestEntry(phone, "PART01")
			require.NoError(t, err)
			_, err = fixtures.CreateCompletedTestEntry(phone, "COMP01", "/uploads/a.png", "00000000000000bb")
			require.NoError(t, err)

			partial, err := repo.ByFilter(ctx, models.EntryFilter{
				PhoneNumber: &phone,
				HasImage:    utils.ToPtr(false),
			}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, partial, 1)
			assert.Equal(t, "PART01", partial[0].Code)

			complete, err := repo.ByFilter(ctx, models.EntryFilter{
				PhoneNumber: &phone,
				HasImage:    utils.ToPtr(true),
			}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, complete, 1)
			assert.Equal(t, "COMP01", complete[0].Code)
		})

		t.Run("FilterByImageHashWithExcludeID", func(t *testing.T) {
			hash := "00000000000000cc"
			first, err := fixtures.CreateCompletedTestEntry(testingutil.RandomPhoneNumber(), "HASH01", "/uploads/h1.png", hash)
			require.NoError(t, err)

			// Same hash on a second entry
			_, err = fixtures.CreateCompletedTestEntry(testingutil.RandomPhoneNumber(), "HASH02", "/uploads/h2.png", hash)
			require.NoError(t, err)

			exists, err := repo.Exists(ctx, models.EntryFilter{
				ImageHash: &hash,
				ExcludeID: &first.ID,
			})
			require.NoError(t, err)
			assert.True(t, exists)

			// Excluding the only holder of a unique hash finds nothing
			uniqueHash := "00000000000000dd"
			only, err := fixtures.CreateCompletedTestEntry(testingutil.RandomPhoneNumber(), "HASH03", "/uploads/h3.png", uniqueHash)
			require.NoError(t, err)

			exists, err = repo.Exists(ctx, models.EntryFilter{
				ImageHash: &uniqueHash,
				ExcludeID: &only.ID,
			})
			require.NoError(t, err)
			assert.False(t, exists)
		})

		t.Run("FilterBySubmissionWindow", func(t *testing.T) {
			phone := testingutil.RandomPhoneNumber()
			now := utils.UTCNow()
			_, err := fixtures.CreateTestEntryAt(phone, "OLD001", now.Add(-48*time.Hour))
			require.NoError(t, err)
			_, err = fixtures.CreateTestEntryAt(phone, "NEW001", now)
			require.NoError(t, err)

			start, end := utils.TodayBounds()
			rows, err := repo.ByFilter(ctx, models.EntryFilter{
				PhoneNumber:     &phone,
				SubmittedAfter:  &start,
				SubmittedBefore: &end,
			}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, "NEW001", rows[0].Code)
		})

		t.Run("LatestPartialForDay", func(t *testing.T) {
			phone := testingutil.RandomPhoneNumber()
			now := utils.UTCNow()

			// Yesterday's partial must not match
			_, err := fixtures.CreateTestEntryAt(phone, "YEST01", now.Add(-26*time.Hour))
			require.NoError(t, err)

			older, err := fixtures.CreateTestEntryAt(phone, "TODAY1", now.Add(-2*time.Hour))
			require.NoError(t, err)
			newest, err := fixtures.CreateTestEntryAt(phone, "TODAY2", now.Add(-1*time.Hour))
			require.NoError(t, err)

			found, err := repo.LatestPartialForDay(ctx, phone)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, newest.ID, found.ID)
			assert.NotEqual(t, older.ID, found.ID)
		})

		t.Run("LatestPartialForDayIgnoresCompleted", func(t *testing.T) {
			phone := testingutil.RandomPhoneNumber()
			_, err := fixtures.CreateCompletedTestEntry(phone, "DONE01", "/uploads/done.png", "00000000000000ee")
			require.NoError(t, err)

			found, err := repo.LatestPartialForDay(ctx, phone)
			require.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("CountAndExists", func(t *testing.T) {
			phone := testingutil.RandomPhoneNumber()
			_, err := fixtures.CreateTestEntry(phone, "CNT001")
			require.NoError(t, err)
			_, err = fixtures.CreateTestEntry(phone, "CNT002")
			require.NoError(t, err)

			count, err := repo.Count(ctx, models.EntryFilter{PhoneNumber: &phone})
			require.NoError(t, err)
			assert.Equal(t, int64(2), count)

			exists, err := repo.Exists(ctx, models.EntryFilter{PhoneNumber: &phone})
			require.NoError(t, err)
			assert.True(t, exists)

			missing := testingutil.RandomPhoneNumber()
			exists, err = repo.Exists(ctx, models.EntryFilter{PhoneNumber: &missing})
			require.NoError(t, err)
			assert.False(t, exists)
		})

		t.Run("ByFilterPagination", func(t *testing.T) {
			phone := testingutil.RandomPhoneNumber()
			now := utils.UTCNow()
			for i := 0; i < 5; i++ {
				_, err := fixtures.CreateTestEntryAt(phone, "PAGE01", now.Add(time.Duration(-i)*time.Minute))
				require.NoError(t, err)
			}

			page1, err := repo.ByFilter(ctx, models.EntryFilter{PhoneNumber: &phone}, "submitted_at DESC", 2, 0)
			require.NoError(t, err)
			assert.Len(t, page1, 2)

			page3, err := repo.ByFilter(ctx, models.EntryFilter{PhoneNumber: &phone}, "submitted_at DESC", 2, 4)
			require.NoError(t, err)
			assert.Len(t, page3, 1)

			// Zero limit means no limit
			all, err := repo.ByFilter(ctx, models.EntryFilter{PhoneNumber: &phone}, "submitted_at DESC", 0, 0)
			require.NoError(t, err)
			assert.Len(t, all, 5)
			assert.True(t, all[0].SubmittedAt.After(all[4].SubmittedAt) || all[0].SubmittedAt.Equal(all[4].SubmittedAt))
		})

		return nil
	})
	require.NoError(t, err)
}
