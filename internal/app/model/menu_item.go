package model

import (
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type MenuCategory string

const (
	CategoryAppetizers MenuCategory = "appetizers"
	CategoryMains      MenuCategory = "mains"
	CategoryBeverages  MenuCategory = "beverages"
	CategoryDesserts   MenuCategory = "desserts"
)

var MenuCategories = []MenuCategory{
	CategoryAppetizers,
	CategoryMains,
	CategoryBeverages,
	CategoryDesserts,
}

// ParseMenuCategory lower-cases the input and reports whether it names a known category
func ParseMenuCategory(s string) (MenuCategory, bool) {
	c := MenuCategory(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range MenuCategories {
		if c == known {
			return c, true
		}
	}
	return c, false
}

const DefaultPreparationTime = 15

type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

type MenuItem struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	Title           string         `gorm:"size:200;not null" json:"title"`
	Description     string         `gorm:"type:text;not null" json:"description"`
	Price           float64        `gorm:"not null" json:"price"`
	Category        MenuCategory   `gorm:"type:varchar(20);not null;index" json:"category"`
	Available       bool           `gorm:"not null;index" json:"available"` // set explicitly, true unless the admin says otherwise
	Image           string         `json:"image,omitempty"`
	Ingredients     pq.StringArray `gorm:"type:text" json:"ingredients"`
	Allergens       pq.StringArray `gorm:"type:text" json:"allergens"`
	Nutrition       Nutrition      `gorm:"embedded;embeddedPrefix:nutrition_" json:"nutrition"`
	PreparationTime int            `gorm:"not null;default:15" json:"preparation_time"` // minutes
	IsPopular       bool           `gorm:"not null;default:false" json:"is_popular"`
	OrderCount      int            `gorm:"not null;default:0" json:"order_count"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (MenuItem) TableName() string {
	return "menu_items"
}
