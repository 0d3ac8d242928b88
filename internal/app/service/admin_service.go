package service

import (
	"errors"
	"time"

	"github.com/savanna-table/savanna-backend/internal/app/model"
	"github.com/savanna-table/savanna-backend/internal/app/repository"
	"github.com/savanna-table/savanna-backend/pkg/logger"
	"github.com/savanna-table/savanna-backend/pkg/util"
	"gorm.io/gorm"
)

const recentOrdersOnDashboard = 5

type RecentOrderCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type RecentOrder struct {
	ID          uint                `json:"id"`
	OrderNumber string              `json:"order_number"`
	Total       float64             `json:"total"`
	Status      model.OrderStatus   `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	Customer    RecentOrderCustomer `json:"customer"`
}

type DashboardStats struct {
	TotalUsers      int64         `json:"total_users"`
	TotalOrders     int64         `json:"total_orders"`
	TotalRevenue    float64       `json:"total_revenue"`
	PendingOrders   int64         `json:"pending_orders"`
	CompletedOrders int64         `json:"completed_orders"`
	RecentOrders    []RecentOrder `json:"recent_orders"`
}

type AdminService interface {
	Dashboard() (*DashboardStats, error)
	ListUsers() ([]model.User, error)
	EnsureSuperAdmin(name, email, password string) (*model.Admin, bool, error)
}

type adminService struct {
	userRepo  repository.UserRepository
	orderRepo repository.OrderRepository
	adminRepo repository.AdminRepository
}

func NewAdminService(
	userRepo repository.UserRepository,
	orderRepo repository.OrderRepository,
	adminRepo repository.AdminRepository,
) AdminService {
	return &adminService{
		userRepo:  userRepo,
		orderRepo: orderRepo,
		adminRepo: adminRepo,
	}
}

// Dashboard runs independent aggregate queries; the numbers are not a consistent snapshot
func (s *adminService) Dashboard() (*DashboardStats, error) {
	logger.Info("Fetching admin dashboard statistics")

	stats := &DashboardStats{RecentOrders: []RecentOrder{}}
	var err error

	if stats.TotalUsers, err = s.userRepo.Count(); err != nil {
		logger.Error("Failed to count users", err)
		return nil, err
	}
	if stats.TotalOrders, err = s.orderRepo.Count(); err != nil {
		logger.Error("Failed to count orders", err)
		return nil, err
	}

	revenue, err := s.orderRepo.SumTotal()
	if err != nil {
		logger.Error("Failed to sum order revenue", err)
		return nil, err
	}
	stats.TotalRevenue = RoundMoney(revenue)

	if stats.PendingOrders, err = s.orderRepo.CountByStatus(model.OrderStatusPending); err != nil {
		return nil, err
	}
	if stats.CompletedOrders, err = s.orderRepo.CountByStatus(model.OrderStatusDelivered); err != nil {
		return nil, err
	}

	recent, err := s.orderRepo.FindRecent(recentOrdersOnDashboard)
	if err != nil {
		logger.Error("Failed to load recent orders", err)
		return nil, err
	}
	for _, o := range recent {
		entry := RecentOrder{
			ID:          o.ID,
			OrderNumber: o.OrderNumber,
			Total:       o.Total,
			Status:      o.Status,
			CreatedAt:   o.CreatedAt,
		}
		if o.User != nil {
			entry.Customer = RecentOrderCustomer{FirstName: o.User.FirstName, LastName: o.User.LastName}
		}
		stats.RecentOrders = append(stats.RecentOrders, entry)
	}

	logger.Info("Dashboard statistics fetched", map[string]interface{}{
		"total_orders":  stats.TotalOrders,
		"total_revenue": stats.TotalRevenue,
	})
	return stats, nil
}

func (s *adminService) ListUsers() ([]model.User, error) {
	return s.userRepo.List()
}

// EnsureSuperAdmin creates the super admin when no account with that email exists.
// The bool reports whether a new account was created.
func (s *adminService) EnsureSuperAdmin(name, email, password string) (*model.Admin, bool, error) {
	email = normalizeEmail(email)

	existing, err := s.adminRepo.FindByEmail(email)
	if err == nil {
		logger.Debug("Super admin already present", map[string]interface{}{
			"admin_id": existing.ID,
		})
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	hashed, err := util.HashPassword(password)
	if err != nil {
		return nil, false, err
	}

	admin := &model.Admin{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         model.AdminRoleSuperAdmin,
		Permissions:  append([]string(nil), model.AllPermissions...),
		IsActive:     true,
	}
	if err := s.adminRepo.Create(admin); err != nil {
		return nil, false, err
	}

	logger.Info("Super admin created", map[string]interface{}{
		"admin_id": admin.ID,
		"email":    email,
	})
	return admin, true, nil
}
