package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/savanna-table/savanna-backend/config"
	"github.com/savanna-table/savanna-backend/internal/app/model"
	"github.com/savanna-table/savanna-backend/internal/app/repository"
	"github.com/savanna-table/savanna-backend/internal/metrics"
	"github.com/savanna-table/savanna-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderForbidden       = errors.New("order belongs to another user")
	ErrEmptyOrder           = errors.New("order must contain at least one item")
	ErrInvalidQuantity      = errors.New("item quantity must be at least 1")
	ErrInvalidPaymentMethod = errors.New("unsupported payment method")
	ErrInvalidAmount        = errors.New("amounts must not be negative")
	ErrTotalMismatch        = errors.New("total does not equal subtotal + delivery fee + tax")
	ErrMenuItemUnavailable  = errors.New("menu item is not available")
	ErrInvalidOrderStatus   = errors.New("invalid order status")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrOrderNotDelivered    = errors.New("only delivered orders can be reviewed")
	ErrInvalidRating        = errors.New("rating must be between 1 and 5")
	ErrAlreadyReviewed      = errors.New("order has already been reviewed")
)

// OrderLineInput is one cart line as sent by the client
type OrderLineInput struct {
	MenuItemID          uint
	Title               string
	Price               float64
	Quantity            int
	SpecialInstructions string
}

type PlaceOrderInput struct {
	Items         []OrderLineInput
	DeliveryInfo  model.DeliveryInfo
	PaymentMethod model.PaymentMethod
	Subtotal      float64
	DeliveryFee   float64
	Tax           float64
	Total         float64
	Notes         string
}

// OrderEventPublisher is told about order lifecycle events after they commit
type OrderEventPublisher interface {
	OrderCreated(order *model.Order)
	OrderStatusChanged(order *model.Order, previous model.OrderStatus)
}

type OrderService interface {
	PlaceOrder(userID uint, input PlaceOrderInput) (*model.Order, error)
	ListOrders(filter repository.OrderFilter) ([]model.Order, int64, error)
	ListUserOrders(userID uint) ([]model.Order, error)
	GetOrder(orderID, requesterID uint, isAdmin bool) (*model.Order, error)
	UpdateStatus(orderID uint, status model.OrderStatus) (*model.Order, error)
	ReviewOrder(userID, orderID uint, rating int, review string) (*model.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	db        *gorm.DB
	cfg       config.OrderConfig
	policy    StatusPolicy
	events    OrderEventPublisher
	now       func() time.Time
}

// NewOrderService wires the order workflow. events may be nil.
func NewOrderService(
	orderRepo repository.OrderRepository,
	db *gorm.DB,
	cfg config.OrderConfig,
	events OrderEventPublisher,
) OrderService {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 50
	}
	return &orderService{
		orderRepo: orderRepo,
		db:        db,
		cfg:       cfg,
		policy:    NewStatusPolicy(cfg.StrictTransitions),
		events:    events,
		now:       time.Now,
	}
}

func validateOrderInput(input PlaceOrderInput) error {
	if len(input.Items) == 0 {
		return ErrEmptyOrder
	}
	for _, line := range input.Items {
		if line.Quantity < 1 {
			return ErrInvalidQuantity
		}
		if line.Price < 0 {
			return ErrInvalidAmount
		}
	}
	if !input.PaymentMethod.Valid() {
		return ErrInvalidPaymentMethod
	}
	return nil
}

func (s *orderService) PlaceOrder(userID uint, input PlaceOrderInput) (*model.Order, error) {
	logger.Info("Placing order", map[string]interface{}{
		"user_id":        userID,
		"item_count":     len(input.Items),
		"payment_method": input.PaymentMethod,
		"pricing_mode":   s.cfg.PricingMode,
	})

	if err := validateOrderInput(input); err != nil {
		logger.Warn("Order rejected by validation", map[string]interface{}{
			"user_id": userID,
			"reason":  err.Error(),
		})
		return nil, err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		logger.Error("Failed to begin order transaction", tx.Error, map[string]interface{}{
			"user_id": userID,
		})
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during order creation, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"user_id": userID,
			})
			panic(r)
		}
	}()

	menuRepo := repository.NewMenuRepository(tx)
	lines, err := s.snapshotLines(menuRepo, input.Items)
	if err != nil {
		tx.Rollback()
		logger.Warn("Order rejected while resolving items", map[string]interface{}{
			"user_id": userID,
			"reason":  err.Error(),
		})
		return nil, err
	}

	totals, err := s.price(lines, input)
	if err != nil {
		tx.Rollback()
		logger.Warn("Order rejected by pricing", map[string]interface{}{
			"user_id": userID,
			"reason":  err.Error(),
		})
		return nil, err
	}

	now := s.now()
	eta := now.Add(s.cfg.EstimatedDelivery)
	order := &model.Order{
		// replaced by the id-based number below, before commit
		OrderNumber:           "PENDING-" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		UserID:                userID,
		DeliveryInfo:          normalizeDeliveryInfo(input.DeliveryInfo),
		PaymentMethod:         input.PaymentMethod,
		PaymentStatus:         input.PaymentMethod.InitialPaymentStatus(),
		Subtotal:              totals.Subtotal,
		DeliveryFee:           totals.DeliveryFee,
		Tax:                   totals.Tax,
		Total:                 totals.Total,
		Status:                model.OrderStatusPending,
		EstimatedDeliveryTime: &eta,
		Notes:                 strings.TrimSpace(input.Notes),
		Items:                 lines,
		CreatedAt:             now,
	}

	orderRepo := repository.NewOrderRepository(tx)
	if err := orderRepo.Create(order); err != nil {
		tx.Rollback()
		return nil, err
	}

	order.OrderNumber = FormatOrderNumber(order.CreatedAt, order.ID)
	if err := orderRepo.SetOrderNumber(order.ID, order.OrderNumber); err != nil {
		tx.Rollback()
		logger.Error("Failed to assign order number", err, map[string]interface{}{
			"order_id": order.ID,
		})
		return nil, err
	}

	for _, line := range lines {
		if err := menuRepo.IncrementOrderCount(line.MenuItemID, line.Quantity); err != nil {
			tx.Rollback()
			logger.Error("Failed to increment menu item order count", err, map[string]interface{}{
				"menu_item_id": line.MenuItemID,
			})
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit order transaction", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	metrics.OrderPlaced(string(order.PaymentMethod), order.Total)
	if s.events != nil {
		s.events.OrderCreated(order)
	}

	logger.Info("Order placed", map[string]interface{}{
		"order_id":       order.ID,
		"order_number":   order.OrderNumber,
		"user_id":        userID,
		"total":          order.Total,
		"payment_status": order.PaymentStatus,
	})
	return order, nil
}

// snapshotLines resolves every line against the catalog and copies title and price onto the order
func (s *orderService) snapshotLines(menuRepo repository.MenuRepository, items []OrderLineInput) ([]model.OrderItem, error) {
	ids := make([]uint, 0, len(items))
	seen := make(map[uint]bool, len(items))
	for _, line := range items {
		if !seen[line.MenuItemID] {
			seen[line.MenuItemID] = true
			ids = append(ids, line.MenuItemID)
		}
	}

	found, err := menuRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	catalog := make(map[uint]model.MenuItem, len(found))
	for _, item := range found {
		catalog[item.ID] = item
	}

	recompute := s.cfg.PricingMode == config.PricingModeRecompute
	lines := make([]model.OrderItem, 0, len(items))
	for _, in := range items {
		item, ok := catalog[in.MenuItemID]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrMenuItemNotFound, in.MenuItemID)
		}

		line := model.OrderItem{
			MenuItemID:          item.ID,
			Title:               strings.TrimSpace(in.Title),
			Price:               RoundMoney(in.Price),
			Quantity:            in.Quantity,
			SpecialInstructions: strings.TrimSpace(in.SpecialInstructions),
		}
		if recompute {
			if !item.Available {
				return nil, fmt.Errorf("%w: %s", ErrMenuItemUnavailable, item.Title)
			}
			line.Title = item.Title
			line.Price = item.Price
		} else if line.Title == "" {
			line.Title = item.Title
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *orderService) price(lines []model.OrderItem, input PlaceOrderInput) (Totals, error) {
	if s.cfg.PricingMode == config.PricingModeRecompute {
		return ComputeTotals(lines, s.cfg.DeliveryFee, s.cfg.TaxRate), nil
	}

	totals := Totals{
		Subtotal:    RoundMoney(input.Subtotal),
		DeliveryFee: RoundMoney(input.DeliveryFee),
		Tax:         RoundMoney(input.Tax),
		Total:       RoundMoney(input.Total),
	}
	if totals.Subtotal < 0 || totals.DeliveryFee < 0 || totals.Tax < 0 || totals.Total < 0 {
		return Totals{}, ErrInvalidAmount
	}
	if !s.cfg.VerifyTotals {
		return totals, nil
	}
	if err := CheckTotals(Totals{
		Subtotal:    input.Subtotal,
		DeliveryFee: input.DeliveryFee,
		Tax:         input.Tax,
		Total:       input.Total,
	}); err != nil {
		return Totals{}, err
	}
	return totals, nil
}

func normalizeDeliveryInfo(d model.DeliveryInfo) model.DeliveryInfo {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)
	d.City = strings.TrimSpace(d.City)
	d.State = strings.TrimSpace(d.State)
	d.ZipCode = strings.TrimSpace(d.ZipCode)
	d.Instructions = strings.TrimSpace(d.Instructions)
	return d
}

func (s *orderService) ListOrders(filter repository.OrderFilter) ([]model.Order, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, ErrInvalidOrderStatus
	}
	return s.orderRepo.List(filter)
}

// ListUserOrders returns the user's most recent orders, newest first
func (s *orderService) ListUserOrders(userID uint) ([]model.Order, error) {
	orders, _, err := s.orderRepo.List(repository.OrderFilter{
		UserID: &userID,
		Limit:  s.cfg.HistoryLimit,
	})
	if err != nil {
		logger.Error("Failed to list user orders", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}

// GetOrder returns the order when the requester owns it or is an admin
func (s *orderService) GetOrder(orderID, requesterID uint, isAdmin bool) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if !isAdmin && order.UserID != requesterID {
		logger.Warn("Order access denied", map[string]interface{}{
			"order_id":     orderID,
			"requester_id": requesterID,
		})
		return nil, ErrOrderForbidden
	}
	return order, nil
}

func (s *orderService) UpdateStatus(orderID uint, status model.OrderStatus) (*model.Order, error) {
	logger.Info("Updating order status", map[string]interface{}{
		"order_id": orderID,
		"status":   status,
		"strict":   s.policy.Strict(),
	})

	if !status.Valid() {
		return nil, ErrInvalidOrderStatus
	}

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	previous := order.Status
	if err := s.policy.CanTransition(previous, status); err != nil {
		logger.Warn("Order status transition rejected", map[string]interface{}{
			"order_id": orderID,
			"from":     previous,
			"to":       status,
		})
		return nil, err
	}

	var deliveredAt *time.Time
	if status == model.OrderStatusDelivered && previous != model.OrderStatusDelivered {
		now := s.now()
		deliveredAt = &now
	}

	if err := s.orderRepo.UpdateStatus(orderID, status, deliveredAt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	order.Status = status
	if deliveredAt != nil {
		order.ActualDeliveryTime = deliveredAt
	}

	metrics.OrderStatusChanged(string(status))
	if s.events != nil && previous != status {
		s.events.OrderStatusChanged(order, previous)
	}

	logger.Info("Order status updated", map[string]interface{}{
		"order_id": orderID,
		"from":     previous,
		"to":       status,
	})
	return order, nil
}

func (s *orderService) ReviewOrder(userID, orderID uint, rating int, review string) (*model.Order, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	order, err := s.GetOrder(orderID, userID, false)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderStatusDelivered {
		return nil, ErrOrderNotDelivered
	}
	if order.Rating != nil {
		return nil, ErrAlreadyReviewed
	}

	review = strings.TrimSpace(review)
	if err := s.orderRepo.SaveReview(orderID, rating, review); err != nil {
		logger.Error("Failed to save order review", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}

	order.Rating = &rating
	order.Review = review

	logger.Info("Order reviewed", map[string]interface{}{
		"order_id": orderID,
		"user_id":  userID,
		"rating":   rating,
	})
	return order, nil
}
