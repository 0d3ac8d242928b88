package repository

import (
	"testing"

	"github.com/savanna-table/savanna-backend/internal/app/model"
	"github.com/savanna-table/savanna-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAddressTest(t *testing.T) (AddressRepository, *model.User) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	user := newTestUser("addr@example.com")
	require.NoError(t, testDB.Create(user).Error)

	return NewAddressRepository(testDB), user
}

func addTestAddress(t *testing.T, repo AddressRepository, userID uint, street string, isDefault bool) *model.Address {
	a := &model.Address{UserID: userID, Street: street, City: "Nairobi", State: "NRB", ZipCode: "00100", IsDefault: isDefault}
	require.NoError(t, repo.Create(a))
	return a
}

func TestAddressRepository_ClearDefaultKeepsException(t *testing.T) {
	repo, user := setupAddressTest(t)

	a := addTestAddress(t, repo, user.ID, "1 A St", true)
	b := addTestAddress(t, repo, user.ID, "2 B St", true)

	require.NoError(t, repo.ClearDefault(user.ID, b.ID))

	list, err := repo.FindByUserID(user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.False(t, list[0].IsDefault)
	assert.True(t, list[1].IsDefault)

	require.NoError(t, repo.ClearDefault(user.ID, 0))
	list, err = repo.FindByUserID(user.ID)
	require.NoError(t, err)
	assert.False(t, list[1].IsDefault)
}

func TestAddressRepository_FindByUserAndIDScopesToOwner(t *testing.T) {
	repo, user := setupAddressTest(t)
	a := addTestAddress(t, repo, user.ID, "1 A St", true)

	found, err := repo.FindByUserAndID(user.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "1 A St", found.Street)

	_, err = repo.FindByUserAndID(user.ID+1, a.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAddressRepository_UpdateDeleteMarkDefault(t *testing.T) {
	repo, user := setupAddressTest(t)
	a := addTestAddress(t, repo, user.ID, "1 A St", true)
	b := addTestAddress(t, repo, user.ID, "2 B St", false)

	a.City = "Mombasa"
	require.NoError(t, repo.Update(a))
	require.NoError(t, repo.Delete(a.ID))
	require.NoError(t, repo.MarkDefault(b.ID))

	list, err := repo.FindByUserID(user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
	assert.True(t, list[0].IsDefault)
}
