package repository

import (
	"testing"
	"time"

	"github.com/savanna-table/savanna-backend/internal/app/model"
	"github.com/savanna-table/savanna-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupUserTest(t *testing.T) (*gorm.DB, UserRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return testDB, NewUserRepository(testDB)
}

func newTestUser(email string) *model.User {
	return &model.User{
		Email:        email,
		PasswordHash: "hashedpassword",
		FirstName:    "Test",
		LastName:     "User",
		Phone:        "555-0100",
	}
}

func TestUserRepository_Create(t *testing.T) {
	_, repo := setupUserTest(t)

	tests := []struct {
		name    string
		user    *model.User
		wantErr bool
	}{
		{name: "Valid user", user: newTestUser("test@example.com")},
		{name: "Duplicate email", user: newTestUser("test@example.com"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(tt.user)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.NotZero(t, tt.user.ID)
			}
		})
	}
}

func TestUserRepository_FindByID_PreloadsAddressesInCreationOrder(t *testing.T) {
	testDB, repo := setupUserTest(t)

	user := newTestUser("test@example.com")
	require.NoError(t, repo.Create(user))

	first := &model.Address{UserID: user.ID, Street: "1 First St", City: "Austin", State: "TX", ZipCode: "73301", IsDefault: true}
	second := &model.Address{UserID: user.ID, Street: "2 Second St", City: "Austin", State: "TX", ZipCode: "73301"}
	require.NoError(t, testDB.Create(first).Error)
	require.NoError(t, testDB.Create(second).Error)

	found, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	require.Len(t, found.Addresses, 2)
	assert.Equal(t, first.ID, found.Addresses[0].ID)
	assert.Equal(t, second.ID, found.Addresses[1].ID)

	_, err = repo.FindByID(9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_FindByEmail(t *testing.T) {
	_, repo := setupUserTest(t)
	require.NoError(t, repo.Create(newTestUser("test@example.com")))

	found, err := repo.FindByEmail("test@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Test", found.FirstName)

	_, err = repo.FindByEmail("missing@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_UpdateProfileAndLastLogin(t *testing.T) {
	_, repo := setupUserTest(t)

	user := newTestUser("test@example.com")
	require.NoError(t, repo.Create(user))

	require.NoError(t, repo.UpdateProfile(user.ID, "Ada", "Lovelace", "555-0199"))
	now := time.Now()
	require.NoError(t, repo.UpdateLastLogin(user.ID, now))

	found, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", found.FirstName)
	assert.Equal(t, "Lovelace", found.LastName)
	assert.Equal(t, "555-0199", found.Phone)
	require.NotNil(t, found.LastLoginAt)
	assert.WithinDuration(t, now, *found.LastLoginAt, time.Second)

	assert.ErrorIs(t, repo.UpdateProfile(9999, "a", "b", "c"), gorm.ErrRecordNotFound)
}

func TestUserRepository_ListNewestFirstAndCount(t *testing.T) {
	testDB, repo := setupUserTest(t)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		require.NoError(t, repo.Create(newTestUser(email)))
	}

	users, err := repo.List()
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "c@example.com", users[0].Email)
	assert.Equal(t, "a@example.com", users[2].Email)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.NoError(t, db.TruncateAllTables(testDB))
	count, err = repo.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUserRepository_LockByIDInsideTransaction(t *testing.T) {
	testDB, repo := setupUserTest(t)

	user := newTestUser("test@example.com")
	require.NoError(t, repo.Create(user))

	err := testDB.Transaction(func(tx *gorm.DB) error {
		locked, err := NewUserRepository(tx).LockByID(user.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, user.ID, locked.ID)
		return nil
	})
	assert.NoError(t, err)
}
