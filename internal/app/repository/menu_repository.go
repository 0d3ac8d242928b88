package repository

import (
	"github.com/savanna-table/savanna-backend/internal/app/model"
	"github.com/savanna-table/savanna-backend/pkg/logger"
	"gorm.io/gorm"
)

// MenuFilter narrows catalog listings. Zero value lists everything.
type MenuFilter struct {
	Category      model.MenuCategory
	AvailableOnly bool
}

type MenuRepository interface {
	Create(item *model.MenuItem) error
	FindByID(id uint) (*model.MenuItem, error)
	FindByIDs(ids []uint) ([]model.MenuItem, error)
	FindAll(filter MenuFilter) ([]model.MenuItem, error)
	Update(item *model.MenuItem) error
	Delete(id uint) error
	IncrementOrderCount(id uint, quantity int) error
	RefreshPopular(topN int) ([]uint, error)
	Count() (int64, error)
}

type menuRepository struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) MenuRepository {
	return &menuRepository{db: db}
}

func (r *menuRepository) Create(item *model.MenuItem) error {
	logger.Debug("Creating menu item in database", map[string]interface{}{
		"title":    item.Title,
		"category": item.Category,
	})

	if err := r.db.Create(item).Error; err != nil {
		logger.Error("Failed to create menu item in database", err, map[string]interface{}{
			"title": item.Title,
		})
		return err
	}

	logger.Debug("Menu item created in database", map[string]interface{}{
		"menu_item_id": item.ID,
	})
	return nil
}

func (r *menuRepository) FindByID(id uint) (*model.MenuItem, error) {
	var item model.MenuItem
	if err := r.db.First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *menuRepository) FindByIDs(ids []uint) ([]model.MenuItem, error) {
	var items []model.MenuItem
	if len(ids) == 0 {
		return items, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&items).Error; err != nil {
		logger.Error("Failed to find menu items by IDs", err, map[string]interface{}{
			"ids": ids,
		})
		return nil, err
	}
	return items, nil
}

// FindAll lists menu items by category then title
func (r *menuRepository) FindAll(filter MenuFilter) ([]model.MenuItem, error) {
	query := r.db.Model(&model.MenuItem{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.AvailableOnly {
		query = query.Where("available = ?", true)
	}

	var items []model.MenuItem
	if err := query.Order("category ASC, title ASC, id ASC").Find(&items).Error; err != nil {
		logger.Error("Failed to list menu items", err, map[string]interface{}{
			"category":       filter.Category,
			"available_only": filter.AvailableOnly,
		})
		return nil, err
	}

	logger.Debug("Menu items listed", map[string]interface{}{
		"category": filter.Category,
		"count":    len(items),
	})
	return items, nil
}

func (r *menuRepository) Update(item *model.MenuItem) error {
	if err := r.db.Save(item).Error; err != nil {
		logger.Error("Failed to update menu item in database", err, map[string]interface{}{
			"menu_item_id": item.ID,
		})
		return err
	}
	return nil
}

// Delete soft-deletes the item; order lines keep their own snapshot
func (r *menuRepository) Delete(id uint) error {
	result := r.db.Delete(&model.MenuItem{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete menu item", result.Error, map[string]interface{}{
			"menu_item_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *menuRepository) IncrementOrderCount(id uint, quantity int) error {
	return r.db.Model(&model.MenuItem{}).
		Where("id = ?", id).
		UpdateColumn("order_count", gorm.Expr("order_count + ?", quantity)).Error
}

// RefreshPopular flags the topN most ordered items as popular and clears the rest
func (r *menuRepository) RefreshPopular(topN int) ([]uint, error) {
	var ids []uint
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.MenuItem{}).
			Where("order_count > ?", 0).
			Order("order_count DESC, id ASC").
			Limit(topN).
			Pluck("id", &ids).Error; err != nil {
			return err
		}

		clear := tx.Model(&model.MenuItem{}).Where("is_popular = ?", true)
		if len(ids) > 0 {
			clear = clear.Where("id NOT IN ?", ids)
		}
		if err := clear.UpdateColumn("is_popular", false).Error; err != nil {
			return err
		}

		if len(ids) == 0 {
			return nil
		}
		return tx.Model(&model.MenuItem{}).Where("id IN ?", ids).UpdateColumn("is_popular", true).Error
	})
	if err != nil {
		logger.Error("Failed to refresh popular menu items", err, map[string]interface{}{
			"top_n": topN,
		})
		return nil, err
	}
	return ids, nil
}

func (r *menuRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.MenuItem{}).Count(&count).Error
	return count, err
}
