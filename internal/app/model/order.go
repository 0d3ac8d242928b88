package model

import (
	"time"

	"gorm.io/gorm"
)

type OrderStatus string
type PaymentStatus string
type PaymentMethod string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusOutForDelivery OrderStatus = "out-for-delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"

	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"

	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodPaypal PaymentMethod = "paypal"
	PaymentMethodApple  PaymentMethod = "apple"
	PaymentMethodGoogle PaymentMethod = "google"
	PaymentMethodCash   PaymentMethod = "cash"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var PaymentMethods = []PaymentMethod{
	PaymentMethodCard,
	PaymentMethodPaypal,
	PaymentMethodApple,
	PaymentMethodGoogle,
	PaymentMethodCash,
}

func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// InitialPaymentStatus is pending for cash on delivery and completed for everything else.
// Payments are not captured by this service.
func (m PaymentMethod) InitialPaymentStatus() PaymentStatus {
	if m == PaymentMethodCash {
		return PaymentStatusPending
	}
	return PaymentStatusCompleted
}

// DeliveryInfo is copied onto the order at checkout
type DeliveryInfo struct {
	FirstName    string `gorm:"size:100;not null" json:"first_name"`
	LastName     string `gorm:"size:100;not null" json:"last_name"`
	Email        string `gorm:"size:255;not null" json:"email"`
	Phone        string `gorm:"size:30;not null" json:"phone"`
	Address      string `gorm:"type:text;not null" json:"address"`
	City         string `gorm:"size:100;not null" json:"city"`
	State        string `gorm:"size:100;not null" json:"state"`
	ZipCode      string `gorm:"size:20;not null" json:"zip_code"`
	Instructions string `gorm:"type:text" json:"delivery_instructions,omitempty"`
}

type Order struct {
	ID                    uint           `gorm:"primarykey" json:"id"`
	OrderNumber           string         `gorm:"size:40;uniqueIndex;not null" json:"order_number"`
	UserID                uint           `gorm:"not null;index" json:"user_id"`
	DeliveryInfo          DeliveryInfo   `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery_info"`
	PaymentMethod         PaymentMethod  `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentStatus         PaymentStatus  `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	Subtotal              float64        `gorm:"not null" json:"subtotal"`
	DeliveryFee           float64        `gorm:"not null" json:"delivery_fee"`
	Tax                   float64        `gorm:"not null" json:"tax"`
	Total                 float64        `gorm:"not null" json:"total"`
	Status                OrderStatus    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	EstimatedDeliveryTime *time.Time     `json:"estimated_delivery_time,omitempty"`
	ActualDeliveryTime    *time.Time     `json:"actual_delivery_time,omitempty"`
	Notes                 string         `gorm:"type:text" json:"notes,omitempty"`
	Rating                *int           `json:"rating,omitempty"`
	Review                string         `gorm:"type:text" json:"review,omitempty"`
	CreatedAt             time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`

	User  *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem snapshots the title and price at checkout time
type OrderItem struct {
	ID                  uint    `gorm:"primarykey" json:"id"`
	OrderID             uint    `gorm:"not null;index" json:"order_id"`
	MenuItemID          uint    `gorm:"not null;index" json:"menu_item_id"`
	Title               string  `gorm:"size:200;not null" json:"title"`
	Price               float64 `gorm:"not null" json:"price"`
	Quantity            int     `gorm:"not null" json:"quantity"`
	SpecialInstructions string  `gorm:"type:text" json:"special_instructions,omitempty"`

	MenuItem *MenuItem `gorm:"foreignKey:MenuItemID" json:"menu_item,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
