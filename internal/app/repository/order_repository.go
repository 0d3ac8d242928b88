package repository

import (
	"time"

	"github.com/savanna-table/savanna-backend/internal/app/model"
	"github.com/savanna-table/savanna-backend/pkg/logger"
	"gorm.io/gorm"
)

// OrderFilter narrows order listings. Limit <= 0 means no limit.
type OrderFilter struct {
	UserID *uint
	Status model.OrderStatus
	Page   int
	Limit  int
}

type OrderRepository interface {
	Create(order *model.Order) error
	FindByID(id uint) (*model.Order, error)
	List(filter OrderFilter) ([]model.Order, int64, error)
	SetOrderNumber(id uint, orderNumber string) error
	UpdateStatus(id uint, status model.OrderStatus, actualDelivery *time.Time) error
	SaveReview(id uint, rating int, review string) error
	Count() (int64, error)
	CountByStatus(status model.OrderStatus) (int64, error)
	SumTotal() (float64, error)
	FindRecent(limit int) ([]model.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// preloadOrder loads items (with their menu entry, even if since deleted) and the customer
func (r *orderRepository) preloadOrder(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(idb *gorm.DB) *gorm.DB {
		return idb.Order("id ASC")
	}).Preload("Items.MenuItem", func(mdb *gorm.DB) *gorm.DB {
		return mdb.Unscoped()
	}).Preload("User")
}

func (r *orderRepository) Create(order *model.Order) error {
	logger.Debug("Creating order in database", map[string]interface{}{
		"user_id":    order.UserID,
		"total":      order.Total,
		"item_count": len(order.Items),
	})

	if err := r.db.Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"user_id": order.UserID,
			"total":   order.Total,
		})
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
	})
	return nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	var order model.Order
	if err := r.preloadOrder(r.db).First(&order, id).Error; err != nil {
		logger.Debug("Order not found by ID", map[string]interface{}{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, err
	}
	return &order, nil
}

// List returns matching orders newest first along with the unpaginated total
func (r *orderRepository) List(filter OrderFilter) ([]model.Order, int64, error) {
	query := r.db.Model(&model.Order{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count orders", err)
		return nil, 0, err
	}

	page := query.Order("created_at DESC, id DESC")
	if filter.Limit > 0 {
		offset := 0
		if filter.Page > 1 {
			offset = (filter.Page - 1) * filter.Limit
		}
		page = page.Limit(filter.Limit).Offset(offset)
	}

	var orders []model.Order
	if err := r.preloadOrder(page).Find(&orders).Error; err != nil {
		logger.Error("Failed to list orders", err, map[string]interface{}{
			"status": filter.Status,
		})
		return nil, 0, err
	}

	logger.Debug("Orders listed", map[string]interface{}{
		"count": len(orders),
		"total": total,
	})
	return orders, total, nil
}

func (r *orderRepository) SetOrderNumber(id uint, orderNumber string) error {
	return r.db.Model(&model.Order{}).Where("id = ?", id).UpdateColumn("order_number", orderNumber).Error
}

func (r *orderRepository) UpdateStatus(id uint, status model.OrderStatus, actualDelivery *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if actualDelivery != nil {
		updates["actual_delivery_time"] = *actualDelivery
	}

	result := r.db.Model(&model.Order{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		logger.Error("Failed to update order status", result.Error, map[string]interface{}{
			"order_id": id,
			"status":   status,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepository) SaveReview(id uint, rating int, review string) error {
	return r.db.Model(&model.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"rating": rating,
		"review": review,
	}).Error
}

func (r *orderRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Order{}).Count(&count).Error
	return count, err
}

func (r *orderRepository) CountByStatus(status model.OrderStatus) (int64, error) {
	var count int64
	err := r.db.Model(&model.Order{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// SumTotal adds up every order total, 0 when there are none
func (r *orderRepository) SumTotal() (float64, error) {
	var sum float64
	err := r.db.Model(&model.Order{}).Select("COALESCE(SUM(total), 0)").Scan(&sum).Error
	return sum, err
}

// FindRecent returns the newest orders with the customer loaded
func (r *orderRepository) FindRecent(limit int) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.Preload("User").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}
