package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/savanna-table/savanna-backend/internal/app/model"
	"github.com/savanna-table/savanna-backend/internal/app/repository"
	"github.com/savanna-table/savanna-backend/internal/storage"
	"github.com/savanna-table/savanna-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrMenuItemNotFound = errors.New("menu item not found")
	ErrInvalidCategory  = errors.New("invalid menu category")
	ErrInvalidMenuItem  = errors.New("menu item needs a title, a description and a non-negative price")
)

// ImageUpload is an image file attached to a menu create or update
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type MenuItemInput struct {
	Title           string
	Description     string
	Price           float64
	Category        string
	Available       *bool
	Image           string
	Ingredients     []string
	Allergens       []string
	Nutrition       model.Nutrition
	PreparationTime int
}

// MenuItemUpdate changes only the non-nil fields
type MenuItemUpdate struct {
	Title           *string
	Description     *string
	Price           *float64
	Category        *string
	Available       *bool
	Image           *string
	Ingredients     []string
	Allergens       []string
	Nutrition       *model.Nutrition
	PreparationTime *int
}

type MenuService interface {
	ListMenu(category string, includeUnavailable bool) ([]model.MenuItem, error)
	GetMenuItem(id uint, includeUnavailable bool) (*model.MenuItem, error)
	CreateMenuItem(ctx context.Context, input MenuItemInput, image *ImageUpload) (*model.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id uint, update MenuItemUpdate, image *ImageUpload) (*model.MenuItem, error)
	DeleteMenuItem(id uint) error
	RefreshPopular(topN int) ([]uint, error)
}

type menuService struct {
	menuRepo      repository.MenuRepository
	images        storage.ImageStorage
	maxImageBytes int64
}

// NewMenuService builds the catalog service. images may be nil when uploads are disabled.
func NewMenuService(menuRepo repository.MenuRepository, images storage.ImageStorage, maxImageBytes int64) MenuService {
	return &menuService{
		menuRepo:      menuRepo,
		images:        images,
		maxImageBytes: maxImageBytes,
	}
}

func (s *menuService) ListMenu(category string, includeUnavailable bool) ([]model.MenuItem, error) {
	filter := repository.MenuFilter{AvailableOnly: !includeUnavailable}
	if strings.TrimSpace(category) != "" {
		c, ok := model.ParseMenuCategory(category)
		if !ok {
			return nil, ErrInvalidCategory
		}
		filter.Category = c
	}
	return s.menuRepo.FindAll(filter)
}

func (s *menuService) GetMenuItem(id uint, includeUnavailable bool) (*model.MenuItem, error) {
	item, err := s.menuRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, err
	}
	if !item.Available && !includeUnavailable {
		return nil, ErrMenuItemNotFound
	}
	return item, nil
}

func (s *menuService) saveImage(ctx context.Context, image *ImageUpload) (string, error) {
	if err := storage.ValidateFileSize(image.Size, s.maxImageBytes); err != nil {
		return "", err
	}
	if err := storage.ValidateContentType(image.ContentType, storage.AllowedImageTypes); err != nil {
		return "", err
	}
	if s.images == nil {
		return "", errors.New("image storage is not configured")
	}

	url, err := s.images.Save(ctx, image.Filename, image.ContentType, image.Body, image.Size)
	if err != nil {
		logger.Error("Failed to store menu image", err, map[string]interface{}{
			"filename": image.Filename,
		})
		return "", err
	}
	return url, nil
}

func (s *menuService) CreateMenuItem(ctx context.Context, input MenuItemInput, image *ImageUpload) (*model.MenuItem, error) {
	logger.Info("Creating menu item", map[string]interface{}{
		"title":    input.Title,
		"category": input.Category,
	})

	category, ok := model.ParseMenuCategory(input.Category)
	if !ok {
		return nil, ErrInvalidCategory
	}

	item := &model.MenuItem{
		Title:           strings.TrimSpace(input.Title),
		Description:     strings.TrimSpace(input.Description),
		Price:           RoundMoney(input.Price),
		Category:        category,
		Available:       true,
		Image:           strings.TrimSpace(input.Image),
		Ingredients:     input.Ingredients,
		Allergens:       input.Allergens,
		Nutrition:       input.Nutrition,
		PreparationTime: input.PreparationTime,
	}
	if input.Available != nil {
		item.Available = *input.Available
	}
	if item.PreparationTime <= 0 {
		item.PreparationTime = model.DefaultPreparationTime
	}
	if item.Title == "" || item.Description == "" || input.Price < 0 {
		return nil, ErrInvalidMenuItem
	}

	if image != nil {
		url, err := s.saveImage(ctx, image)
		if err != nil {
			return nil, err
		}
		item.Image = url
	}

	if err := s.menuRepo.Create(item); err != nil {
		if image != nil && s.images != nil {
			_ = s.images.Delete(ctx, item.Image)
		}
		return nil, err
	}

	logger.Info("Menu item created", map[string]interface{}{
		"menu_item_id": item.ID,
		"available":    item.Available,
	})
	return item, nil
}

func (s *menuService) UpdateMenuItem(ctx context.Context, id uint, update MenuItemUpdate, image *ImageUpload) (*model.MenuItem, error) {
	logger.Info("Updating menu item", map[string]interface{}{
		"menu_item_id": id,
		"new_image":    image != nil,
	})

	item, err := s.menuRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, err
	}
	previousImage := item.Image

	if update.Title != nil {
		item.Title = strings.TrimSpace(*update.Title)
	}
	if update.Description != nil {
		item.Description = strings.TrimSpace(*update.Description)
	}
	if update.Price != nil {
		if *update.Price < 0 {
			return nil, ErrInvalidMenuItem
		}
		item.Price = RoundMoney(*update.Price)
	}
	if update.Category != nil {
		c, ok := model.ParseMenuCategory(*update.Category)
		if !ok {
			return nil, ErrInvalidCategory
		}
		item.Category = c
	}
	if update.Available != nil {
		item.Available = *update.Available
	}
	if update.Image != nil {
		item.Image = strings.TrimSpace(*update.Image)
	}
	if update.Ingredients != nil {
		item.Ingredients = update.Ingredients
	}
	if update.Allergens != nil {
		item.Allergens = update.Allergens
	}
	if update.Nutrition != nil {
		item.Nutrition = *update.Nutrition
	}
	if update.PreparationTime != nil && *update.PreparationTime > 0 {
		item.PreparationTime = *update.PreparationTime
	}
	if item.Title == "" || item.Description == "" {
		return nil, ErrInvalidMenuItem
	}

	if image != nil {
		url, err := s.saveImage(ctx, image)
		if err != nil {
			return nil, err
		}
		item.Image = url
	}

	if err := s.menuRepo.Update(item); err != nil {
		if image != nil && s.images != nil {
			_ = s.images.Delete(ctx, item.Image)
		}
		return nil, err
	}

	if previousImage != "" && previousImage != item.Image && s.images != nil {
		if err := s.images.Delete(ctx, previousImage); err != nil {
			logger.Warn("Failed to delete replaced menu image", map[string]interface{}{
				"menu_item_id": id,
				"image":        previousImage,
				"error":        err.Error(),
			})
		}
	}

	logger.Info("Menu item updated", map[string]interface{}{
		"menu_item_id": id,
	})
	return item, nil
}

// DeleteMenuItem removes the item from the catalog; past orders keep their line snapshots
func (s *menuService) DeleteMenuItem(id uint) error {
	if err := s.menuRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMenuItemNotFound
		}
		return err
	}
	logger.Info("Menu item deleted", map[string]interface{}{
		"menu_item_id": id,
	})
	return nil
}

func (s *menuService) RefreshPopular(topN int) ([]uint, error) {
	if topN <= 0 {
		topN = 4
	}
	ids, err := s.menuRepo.RefreshPopular(topN)
	if err != nil {
		return nil, err
	}
	logger.Info("Popular menu items refreshed", map[string]interface{}{
		"top_n":   topN,
		"popular": ids,
	})
	return ids, nil
}
