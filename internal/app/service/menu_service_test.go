package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/savanna-table/savanna-backend/internal/app/model"
	"github.com/savanna-table/savanna-backend/internal/app/repository"
	"github.com/savanna-table/savanna-backend/internal/db"
	"github.com/savanna-table/savanna-backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memoryImages struct {
	saved   map[string]string
	deleted []string
}

func (m *memoryImages) Save(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	url := "/uploads/" + filename
	m.saved[url] = string(data)
	return url, nil
}

func (m *memoryImages) Delete(ctx context.Context, url string) error {
	m.deleted = append(m.deleted, url)
	delete(m.saved, url)
	return nil
}

func setupMenuServiceTest(t *testing.T) (MenuService, *gorm.DB, *memoryImages) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	images := &memoryImages{saved: map[string]string{}}
	return NewMenuService(repository.NewMenuRepository(testDB), images, 1024), testDB, images
}

func pngUpload(name, body string) *ImageUpload {
	return &ImageUpload{Filename: name, ContentType: "image/png", Size: int64(len(body)), Body: strings.NewReader(body)}
}

func TestMenuService_CreateAndList(t *testing.T) {
	svc, _, _ := setupMenuServiceTest(t)
	ctx := context.Background()

	hidden := false
	_, err := svc.CreateMenuItem(ctx, MenuItemInput{Title: "Puff Puff", Description: "Fried dough", Price: 4.5, Category: "Desserts"}, nil)
	require.NoError(t, err)
	_, err = svc.CreateMenuItem(ctx, MenuItemInput{Title: "Zobo", Description: "Hibiscus drink", Price: 3, Category: "beverages", Available: &hidden}, nil)
	require.NoError(t, err)
	mains, err := svc.CreateMenuItem(ctx, MenuItemInput{Title: "Jollof Rice", Description: "Party rice", Price: 10.99, Category: "mains"}, nil)
	require.NoError(t, err)
	assert.True(t, mains.Available)
	assert.Equal(t, model.DefaultPreparationTime, mains.PreparationTime)

	public, err := svc.ListMenu("", false)
	require.NoError(t, err)
	assert.Len(t, public, 2)

	all, err := svc.ListMenu("", true)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	onlyMains, err := svc.ListMenu("MAINS", false)
	require.NoError(t, err)
	require.Len(t, onlyMains, 1)
	assert.Equal(t, "Jollof Rice", onlyMains[0].Title)

	_, err = svc.ListMenu("soups", false)
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestMenuService_CreateValidation(t *testing.T) {
	svc, _, _ := setupMenuServiceTest(t)
	ctx := context.Background()

	_, err := svc.CreateMenuItem(ctx, MenuItemInput{Title: "Soup", Description: "Hot", Price: 5, Category: "soups"}, nil)
	assert.ErrorIs(t, err, ErrInvalidCategory)

	_, err = svc.CreateMenuItem(ctx, MenuItemInput{Title: "", Description: "Hot", Price: 5, Category: "mains"}, nil)
	assert.ErrorIs(t, err, ErrInvalidMenuItem)

	_, err = svc.CreateMenuItem(ctx, MenuItemInput{Title: "Free", Description: "Hot", Price: -1, Category: "mains"}, nil)
	assert.ErrorIs(t, err, ErrInvalidMenuItem)

	big := &ImageUpload{Filename: "big.png", ContentType: "image/png", Size: 4096, Body: strings.NewReader("x")}
	_, err = svc.CreateMenuItem(ctx, MenuItemInput{Title: "Suya", Description: "Skewers", Price: 8.5, Category: "appetizers"}, big)
	assert.ErrorIs(t, err, storage.ErrFileTooLarge)

	pdf := &ImageUpload{Filename: "menu.pdf", ContentType: "application/pdf", Size: 3, Body: strings.NewReader("pdf")}
	_, err = svc.CreateMenuItem(ctx, MenuItemInput{Title: "Suya", Description: "Skewers", Price: 8.5, Category: "appetizers"}, pdf)
	assert.ErrorIs(t, err, storage.ErrUnsupportedType)
}

func TestMenuService_GetMenuItem(t *testing.T) {
	svc, _, _ := setupMenuServiceTest(t)
	ctx := context.Background()

	hidden := false
	item, err := svc.CreateMenuItem(ctx, MenuItemInput{Title: "Egusi", Description: "Stew", Price: 12, Category: "mains", Available: &hidden}, nil)
	require.NoError(t, err)

	_, err = svc.GetMenuItem(item.ID, false)
	assert.ErrorIs(t, err, ErrMenuItemNotFound)

	found, err := svc.GetMenuItem(item.ID, true)
	require.NoError(t, err)
	assert.False(t, found.Available)

	_, err = svc.GetMenuItem(9999, true)
	assert.ErrorIs(t, err, ErrMenuItemNotFound)
}

func TestMenuService_UpdateReplacesImage(t *testing.T) {
	svc, _, images := setupMenuServiceTest(t)
	ctx := context.Background()

	item, err := svc.CreateMenuItem(ctx, MenuItemInput{Title: "Suya", Description: "Skewers", Price: 8.5, Category: "appetizers"}, pngUpload("suya.png", "v1"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/suya.png", item.Image)

	price := 9.25
	hidden := false
	updated, err := svc.UpdateMenuItem(ctx, item.ID, MenuItemUpdate{Price: &price, Available: &hidden}, pngUpload("suya-2.png", "v2"))
	require.NoError(t, err)
	assert.Equal(t, 9.25, updated.Price)
	assert.False(t, updated.Available)
	assert.Equal(t, "/uploads/suya-2.png", updated.Image)
	assert.Equal(t, []string{"/uploads/suya.png"}, images.deleted)
	assert.Equal(t, "v2", images.saved["/uploads/suya-2.png"])

	bad := "soups"
	_, err = svc.UpdateMenuItem(ctx, item.ID, MenuItemUpdate{Category: &bad}, nil)
	assert.ErrorIs(t, err, ErrInvalidCategory)

	_, err = svc.UpdateMenuItem(ctx, 9999, MenuItemUpdate{Price: &price}, nil)
	assert.ErrorIs(t, err, ErrMenuItemNotFound)
}

func TestMenuService_UpdateImageCleanup(t *testing.T) {
	svc, _, images := setupMenuServiceTest(t)
	ctx := context.Background()

	item, err := svc.CreateMenuItem(ctx, MenuItemInput{Title: "Suya", Description: "Skewers", Price: 8.5, Category: "appetizers"}, pngUpload("old.png", "old"))
	require.NoError(t, err)
	images.saved["/uploads/someone-else.png"] = "other"

	// an uploaded file wins over image_url and the stored original is the one removed
	foreign := "/uploads/someone-else.png"
	updated, err := svc.UpdateMenuItem(ctx, item.ID, MenuItemUpdate{Image: &foreign}, pngUpload("new.png", "new"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/new.png", updated.Image)
	assert.Equal(t, []string{"/uploads/old.png"}, images.deleted)
	assert.Contains(t, images.saved, "/uploads/someone-else.png")
	assert.NotContains(t, images.saved, "/uploads/old.png")

	external := "https://cdn.example.com/suya.jpg"
	updated, err = svc.UpdateMenuItem(ctx, item.ID, MenuItemUpdate{Image: &external}, nil)
	require.NoError(t, err)
	assert.Equal(t, external, updated.Image)
	assert.Equal(t, []string{"/uploads/old.png", "/uploads/new.png"}, images.deleted)

	title := "Suya Platter"
	_, err = svc.UpdateMenuItem(ctx, item.ID, MenuItemUpdate{Title: &title}, nil)
	require.NoError(t, err)
	assert.Len(t, images.deleted, 2)
}

type failingUpdateRepo struct {
	repository.MenuRepository
}

func (r failingUpdateRepo) Update(item *model.MenuItem) error {
	return errors.New("write failed")
}

func TestMenuService_UpdateFailureDropsNewUpload(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	repo := repository.NewMenuRepository(testDB)
	images := &memoryImages{saved: map[string]string{}}
	item, err := NewMenuService(repo, images, 1024).CreateMenuItem(context.Background(),
		MenuItemInput{Title: "Suya", Description: "Skewers", Price: 8.5, Category: "appetizers"}, pngUpload("old.png", "old"))
	require.NoError(t, err)

	svc := NewMenuService(failingUpdateRepo{repo}, images, 1024)
	_, err = svc.UpdateMenuItem(context.Background(), item.ID, MenuItemUpdate{}, pngUpload("new.png", "new"))
	require.Error(t, err)

	assert.Equal(t, []string{"/uploads/new.png"}, images.deleted)
	assert.Contains(t, images.saved, "/uploads/old.png")
}

func TestMenuService_DeleteAndPopular(t *testing.T) {
	svc, testDB, _ := setupMenuServiceTest(t)
	ctx := context.Background()

	var ids []uint
	for i, title := range []string{"Jollof", "Suya", "Chapman"} {
		item, err := svc.CreateMenuItem(ctx, MenuItemInput{Title: title, Description: title, Price: 5, Category: "mains"}, nil)
		require.NoError(t, err)
		require.NoError(t, testDB.Model(&model.MenuItem{}).Where("id = ?", item.ID).UpdateColumn("order_count", 10-i).Error)
		ids = append(ids, item.ID)
	}

	popular, err := svc.RefreshPopular(2)
	require.NoError(t, err)
	assert.Equal(t, ids[:2], popular)

	require.NoError(t, svc.DeleteMenuItem(ids[0]))
	assert.ErrorIs(t, svc.DeleteMenuItem(ids[0]), ErrMenuItemNotFound)

	_, err = svc.GetMenuItem(ids[0], true)
	assert.ErrorIs(t, err, ErrMenuItemNotFound)

	popular, err = svc.RefreshPopular(2)
	require.NoError(t, err)
	assert.Equal(t, ids[1:], popular)
}
