package service

import (
	"fmt"
	"math"
	"time"

	"github.com/savanna-table/savanna-backend/internal/app/model"
)

// Money is handled in integer cents while pricing; float64 is only the storage and wire form.

func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

func fromCents(c int64) float64 {
	return float64(c) / 100
}

// RoundMoney rounds to the nearest cent
func RoundMoney(v float64) float64 {
	return fromCents(toCents(v))
}

// Totals is the price breakdown stored on an order
type Totals struct {
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"delivery_fee"`
	Tax         float64 `json:"tax"`
	Total       float64 `json:"total"`
}

// CheckTotals verifies total == subtotal + delivery fee + tax to the cent
func CheckTotals(t Totals) error {
	if t.Subtotal < 0 || t.DeliveryFee < 0 || t.Tax < 0 || t.Total < 0 {
		return ErrInvalidAmount
	}
	want := toCents(t.Subtotal) + toCents(t.DeliveryFee) + toCents(t.Tax)
	if toCents(t.Total) != want {
		return fmt.Errorf("%w: expected %.2f, got %.2f", ErrTotalMismatch, fromCents(want), t.Total)
	}
	return nil
}

// ComputeTotals prices lines server side: flat delivery fee plus tax on the subtotal
func ComputeTotals(lines []model.OrderItem, deliveryFee, taxRate float64) Totals {
	var subtotal int64
	for _, l := range lines {
		subtotal += toCents(l.Price) * int64(l.Quantity)
	}
	fee := toCents(deliveryFee)
	tax := int64(math.Round(float64(subtotal) * taxRate))

	return Totals{
		Subtotal:    fromCents(subtotal),
		DeliveryFee: fromCents(fee),
		Tax:         fromCents(tax),
		Total:       fromCents(subtotal + fee + tax),
	}
}

// FormatOrderNumber renders SAV-YYYYMMDD-000042 from the creation date and row id
func FormatOrderNumber(createdAt time.Time, id uint) string {
	return fmt.Sprintf("SAV-%s-%06d", createdAt.UTC().Format("20060102"), id)
}
