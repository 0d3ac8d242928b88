package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/savanna-table/savanna-backend/internal/app/model"
	"github.com/savanna-table/savanna-backend/internal/app/repository"
	"github.com/savanna-table/savanna-backend/internal/app/service"
	apperrors "github.com/savanna-table/savanna-backend/internal/errors"
	"github.com/savanna-table/savanna-backend/internal/middleware"
	"github.com/savanna-table/savanna-backend/pkg/logger"
)

const (
	defaultAdminPageSize = 20
	maxAdminPageSize     = 100
)

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

type OrderItemRequest struct {
	MenuItemID          uint    `json:"menu_item_id" binding:"required"`
	Title               string  `json:"title" binding:"max=200"`
	Price               float64 `json:"price" binding:"gte=0"`
	Quantity            int     `json:"quantity" binding:"required,min=1"`
	SpecialInstructions string  `json:"special_instructions" binding:"max=500"`
}

type DeliveryInfoRequest struct {
	FirstName    string `json:"first_name" binding:"required,max=100"`
	LastName     string `json:"last_name" binding:"required,max=100"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone" binding:"required,max=30"`
	Address      string `json:"address" binding:"required"`
	City         string `json:"city" binding:"required,max=100"`
	State        string `json:"state" binding:"required,max=100"`
	ZipCode      string `json:"zip_code" binding:"required,max=20"`
	Instructions string `json:"delivery_instructions" binding:"max=500"`
}

type PlaceOrderRequest struct {
	Items         []OrderItemRequest  `json:"items" binding:"required,min=1,dive"`
	DeliveryInfo  DeliveryInfoRequest `json:"delivery_info" binding:"required"`
	PaymentMethod string              `json:"payment_method" binding:"required,payment_method"`
	Subtotal      float64             `json:"subtotal" binding:"gte=0"`
	DeliveryFee   float64             `json:"delivery_fee" binding:"gte=0"`
	Tax           float64             `json:"tax" binding:"gte=0"`
	Total         float64             `json:"total" binding:"gte=0"`
	Notes         string              `json:"notes" binding:"max=1000"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,order_status"`
}

type ReviewOrderRequest struct {
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Review string `json:"review" binding:"max=2000"`
}

// respondOrderError maps service errors to responses. hideForbidden answers 404 instead of 403.
func respondOrderError(c *gin.Context, log *logger.Logger, err error, action string, hideForbidden bool) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
	case errors.Is(err, service.ErrOrderForbidden):
		if hideForbidden {
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
			return
		}
		apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzOwnerOnly, "You can only view your own orders")
	case errors.Is(err, service.ErrEmptyOrder):
		apperrors.BadRequest(c, apperrors.OrderEmpty, "Order must contain at least one item")
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidAmount):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
	case errors.Is(err, service.ErrMenuItemNotFound):
		apperrors.BadRequest(c, apperrors.MenuItemNotFound, err.Error())
	case errors.Is(err, service.ErrMenuItemUnavailable):
		apperrors.BadRequest(c, apperrors.MenuItemUnavailable, err.Error())
	case errors.Is(err, service.ErrTotalMismatch):
		apperrors.BadRequest(c, apperrors.OrderTotalMismatch, err.Error())
	case errors.Is(err, service.ErrInvalidOrderStatus):
		apperrors.BadRequest(c, apperrors.OrderInvalidStatus, "Invalid order status")
	case errors.Is(err, service.ErrInvalidTransition):
		apperrors.Conflict(c, apperrors.OrderInvalidTransition, err.Error())
	case errors.Is(err, service.ErrOrderNotDelivered):
		apperrors.Conflict(c, apperrors.OrderNotDelivered, "Only delivered orders can be reviewed")
	case errors.Is(err, service.ErrInvalidRating):
		apperrors.BadRequest(c, apperrors.OrderInvalidRating, "Rating must be between 1 and 5")
	case errors.Is(err, service.ErrAlreadyReviewed):
		apperrors.Conflict(c, apperrors.ResourceAlreadyExists, "Order has already been reviewed")
	default:
		log.Error("Order request failed", err, map[string]interface{}{
			"action": action,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, action)
	}
}

// PlaceOrder creates an order from the checkout payload
// POST /api/orders
func (ctrl *OrderController) PlaceOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid order request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.RespondBindingError(c, err)
		return
	}

	input := service.PlaceOrderInput{
		Items: make([]service.OrderLineInput, 0, len(req.Items)),
		DeliveryInfo: model.DeliveryInfo{
			FirstName:    req.DeliveryInfo.FirstName,
			LastName:     req.DeliveryInfo.LastName,
			Email:        req.DeliveryInfo.Email,
			Phone:        req.DeliveryInfo.Phone,
			Address:      req.DeliveryInfo.Address,
			City:         req.DeliveryInfo.City,
			State:        req.DeliveryInfo.State,
			ZipCode:      req.DeliveryInfo.ZipCode,
			Instructions: req.DeliveryInfo.Instructions,
		},
		PaymentMethod: model.PaymentMethod(req.PaymentMethod),
		Subtotal:      req.Subtotal,
		DeliveryFee:   req.DeliveryFee,
		Tax:           req.Tax,
		Total:         req.Total,
		Notes:         req.Notes,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.OrderLineInput{
			MenuItemID:          item.MenuItemID,
			Title:               item.Title,
			Price:               item.Price,
			Quantity:            item.Quantity,
			SpecialInstructions: item.SpecialInstructions,
		})
	}

	order, err := ctrl.orderService.PlaceOrder(userID, input)
	if err != nil {
		respondOrderError(c, log, err, "create order", false)
		return
	}

	log.Info("Order placed", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order": gin.H{
			"id":                      order.ID,
			"order_number":            order.OrderNumber,
			"total":                   order.Total,
			"status":                  order.Status,
			"payment_status":          order.PaymentStatus,
			"estimated_delivery_time": order.EstimatedDeliveryTime,
		},
	})
}

// GetUserOrders returns every order of the caller, newest first
// GET /api/orders/user
func (ctrl *OrderController) GetUserOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	orders, _, err := ctrl.orderService.ListOrders(repository.OrderFilter{UserID: &userID})
	if err != nil {
		respondOrderError(c, log, err, "orders", false)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrderHistory returns the caller's most recent orders
// GET /api/user/orders
func (ctrl *OrderController) GetOrderHistory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	orders, err := ctrl.orderService.ListUserOrders(userID)
	if err != nil {
		respondOrderError(c, log, err, "orders", false)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrder returns an order to its owner or to an admin
// GET /api/orders/:id
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	ctrl.getOrder(c, middleware.IsAdmin(c), false)
}

// GetUserOrder is the user-scoped detail view; other users' orders look missing
// GET /api/user/orders/:id
func (ctrl *OrderController) GetUserOrder(c *gin.Context) {
	ctrl.getOrder(c, false, true)
}

func (ctrl *OrderController) getOrder(c *gin.Context, isAdmin, hideForbidden bool) {
	log := middleware.GetLoggerFromContext(c)

	requesterID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetOrder(orderID, requesterID, isAdmin)
	if err != nil {
		respondOrderError(c, log, err, "order", hideForbidden)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// ReviewOrder stores the caller's rating for a delivered order
// POST /api/user/orders/:id/review
func (ctrl *OrderController) ReviewOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ReviewOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondBindingError(c, err)
		return
	}

	order, err := ctrl.orderService.ReviewOrder(userID, orderID, req.Rating, req.Review)
	if err != nil {
		respondOrderError(c, log, err, "update order", true)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Thank you for your review",
		"order":   order,
	})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

// ListOrders is the admin order board
// GET /api/admin/orders?status=&user_id=&page=&limit=
func (ctrl *OrderController) ListOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter := repository.OrderFilter{
		Status: model.OrderStatus(c.Query("status")),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", defaultAdminPageSize),
	}
	if filter.Limit > maxAdminPageSize {
		filter.Limit = maxAdminPageSize
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid user_id")
			return
		}
		uid := uint(id)
		filter.UserID = &uid
	}

	orders, total, err := ctrl.orderService.ListOrders(filter)
	if err != nil {
		respondOrderError(c, log, err, "orders", false)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
		"page":   filter.Page,
		"limit":  filter.Limit,
	})
}

// UpdateOrderStatus moves an order through the kitchen workflow
// PUT /api/admin/orders/:id/status
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondBindingError(c, err)
		return
	}

	order, err := ctrl.orderService.UpdateStatus(orderID, model.OrderStatus(req.Status))
	if err != nil {
		respondOrderError(c, log, err, "update order", false)
		return
	}

	log.Info("Order status updated by admin", map[string]interface{}{
		"order_id": orderID,
		"status":   order.Status,
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated",
		"order":   order,
	})
}
