package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/savanna-table/savanna-backend/internal/app/service"
	apperrors "github.com/savanna-table/savanna-backend/internal/errors"
	"github.com/savanna-table/savanna-backend/internal/middleware"
)

type AdminController struct {
	adminService service.AdminService
}

func NewAdminController(adminService service.AdminService) *AdminController {
	return &AdminController{
		adminService: adminService,
	}
}

// Dashboard returns the headline counters and the latest orders
// GET /api/admin/dashboard
func (ctrl *AdminController) Dashboard(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	stats, err := ctrl.adminService.Dashboard()
	if err != nil {
		log.Error("Failed to build dashboard", err)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "dashboard")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListUsers returns every customer account, newest first
// GET /api/admin/users
func (ctrl *AdminController) ListUsers(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	users, err := ctrl.adminService.ListUsers()
	if err != nil {
		log.Error("Failed to list users", err)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "users")
		return
	}

	out := make([]gin.H, 0, len(users))
	for i := range users {
		out = append(out, userResponse(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"users": out,
		"count": len(out),
	})
}
