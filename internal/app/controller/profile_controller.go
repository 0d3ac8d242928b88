package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/savanna-table/savanna-backend/internal/app/model"
	"github.com/savanna-table/savanna-backend/internal/app/service"
	apperrors "github.com/savanna-table/savanna-backend/internal/errors"
	"github.com/savanna-table/savanna-backend/internal/middleware"
	"github.com/savanna-table/savanna-backend/pkg/logger"
)

type ProfileController struct {
	authService    service.AuthService
	addressService service.AddressService
}

func NewProfileController(authService service.AuthService, addressService service.AddressService) *ProfileController {
	return &ProfileController{
		authService:    authService,
		addressService: addressService,
	}
}

type UpdateProfileRequest struct {
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"required,max=100"`
	Phone     string `json:"phone" binding:"max=30"`
}

type AddressRequest struct {
	Street    string `json:"street" binding:"required"`
	City      string `json:"city" binding:"required,max=100"`
	State     string `json:"state" binding:"required,max=100"`
	ZipCode   string `json:"zip_code" binding:"required,max=20"`
	IsDefault bool   `json:"is_default"`
}

type UpdateAddressRequest struct {
	Street    *string `json:"street" binding:"omitempty,min=1"`
	City      *string `json:"city" binding:"omitempty,min=1,max=100"`
	State     *string `json:"state" binding:"omitempty,min=1,max=100"`
	ZipCode   *string `json:"zip_code" binding:"omitempty,min=1,max=20"`
	IsDefault *bool   `json:"is_default"`
}

func addressesResponse(addresses []model.Address) gin.H {
	if addresses == nil {
		addresses = []model.Address{}
	}
	var defaultID *uint
	if def := service.EffectiveDefault(addresses); def != nil {
		defaultID = &def.ID
	}
	return gin.H{
		"addresses":            addresses,
		"effective_default_id": defaultID,
	}
}

func respondProfileError(c *gin.Context, log *logger.Logger, err error, action string) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
	case errors.Is(err, service.ErrAddressNotFound):
		apperrors.NotFound(c, apperrors.AddressNotFound, "Address not found")
	default:
		log.Error("Profile request failed", err, map[string]interface{}{
			"action": action,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, action)
	}
}

// GetProfile returns the caller with their saved addresses
// GET /api/user/profile
func (ctrl *ProfileController) GetProfile(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.authService.GetProfile(userID)
	if err != nil {
		respondProfileError(c, log, err, "user")
		return
	}

	resp := userResponse(user)
	for k, v := range addressesResponse(user.Addresses) {
		resp[k] = v
	}
	c.JSON(http.StatusOK, gin.H{"user": resp})
}

// UpdateProfile changes name and phone
// PUT /api/user/profile
func (ctrl *ProfileController) UpdateProfile(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondBindingError(c, err)
		return
	}

	user, err := ctrl.authService.UpdateProfile(userID, req.FirstName, req.LastName, req.Phone)
	if err != nil {
		respondProfileError(c, log, err, "update user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    userResponse(user),
	})
}

// ListAddresses
// GET /api/user/addresses
func (ctrl *ProfileController) ListAddresses(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	addresses, err := ctrl.addressService.ListAddresses(userID)
	if err != nil {
		respondProfileError(c, log, err, "addresses")
		return
	}
	c.JSON(http.StatusOK, addressesResponse(addresses))
}

// AddAddress saves a delivery address; is_default clears the flag elsewhere
// POST /api/user/addresses
func (ctrl *ProfileController) AddAddress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondBindingError(c, err)
		return
	}

	addresses, err := ctrl.addressService.AddAddress(userID, service.AddressInput{
		Street:    req.Street,
		City:      req.City,
		State:     req.State,
		ZipCode:   req.ZipCode,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		respondProfileError(c, log, err, "create address")
		return
	}

	c.JSON(http.StatusCreated, addressesResponse(addresses))
}

// UpdateAddress
// PUT /api/user/addresses/:id
func (ctrl *ProfileController) UpdateAddress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	addressID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondBindingError(c, err)
		return
	}

	addresses, err := ctrl.addressService.UpdateAddress(userID, addressID, service.AddressUpdate{
		Street:    req.Street,
		City:      req.City,
		State:     req.State,
		ZipCode:   req.ZipCode,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		respondProfileError(c, log, err, "update address")
		return
	}
	c.JSON(http.StatusOK, addressesResponse(addresses))
}

// DeleteAddress
// DELETE /api/user/addresses/:id
func (ctrl *ProfileController) DeleteAddress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	addressID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	addresses, err := ctrl.addressService.DeleteAddress(userID, addressID)
	if err != nil {
		respondProfileError(c, log, err, "delete address")
		return
	}
	c.JSON(http.StatusOK, addressesResponse(addresses))
}
