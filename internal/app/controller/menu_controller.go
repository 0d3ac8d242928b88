package controller

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/savanna-table/savanna-backend/internal/app/model"
	"github.com/savanna-table/savanna-backend/internal/app/service"
	apperrors "github.com/savanna-table/savanna-backend/internal/errors"
	"github.com/savanna-table/savanna-backend/internal/middleware"
	"github.com/savanna-table/savanna-backend/internal/storage"
	"github.com/savanna-table/savanna-backend/pkg/logger"
)

type MenuController struct {
	menuService service.MenuService
}

func NewMenuController(menuService service.MenuService) *MenuController {
	return &MenuController{
		menuService: menuService,
	}
}

// MenuItemRequest is accepted as JSON or multipart/form-data. Nil fields are left unchanged on update.
type MenuItemRequest struct {
	Title           *string          `json:"title" form:"title" binding:"omitempty,min=1,max=200"`
	Description     *string          `json:"description" form:"description"`
	Price           *float64         `json:"price" form:"price" binding:"omitempty,gte=0"`
	Category        *string          `json:"category" form:"category" binding:"omitempty,menu_category"`
	Available       *bool            `json:"available" form:"available"`
	Image           *string          `json:"image" form:"image_url"`
	Ingredients     []string         `json:"ingredients" form:"ingredients"`
	Allergens       []string         `json:"allergens" form:"allergens"`
	Nutrition       *model.Nutrition `json:"nutrition" form:"-"`
	Calories        *float64         `json:"-" form:"calories"`
	Protein         *float64         `json:"-" form:"protein"`
	Carbs           *float64         `json:"-" form:"carbs"`
	Fat             *float64         `json:"-" form:"fat"`
	PreparationTime *int             `json:"preparation_time" form:"preparation_time" binding:"omitempty,gte=1"`
}

// splitList accepts repeated form values as well as a single comma separated one
func splitList(values []string) []string {
	if values == nil {
		return nil
	}
	out := []string{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// nutrition merges the JSON object with flat form fields
func (r *MenuItemRequest) nutrition() *model.Nutrition {
	if r.Nutrition == nil && r.Calories == nil && r.Protein == nil && r.Carbs == nil && r.Fat == nil {
		return nil
	}
	n := model.Nutrition{}
	if r.Nutrition != nil {
		n = *r.Nutrition
	}
	if r.Calories != nil {
		n.Calories = *r.Calories
	}
	if r.Protein != nil {
		n.Protein = *r.Protein
	}
	if r.Carbs != nil {
		n.Carbs = *r.Carbs
	}
	if r.Fat != nil {
		n.Fat = *r.Fat
	}
	return &n
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// imageFromRequest opens the optional "image" multipart file. The caller closes the returned file.
func imageFromRequest(c *gin.Context) (*service.ImageUpload, multipart.File, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, nil, nil
	}
	header, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	file, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	return &service.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, file, nil
}

func respondMenuError(c *gin.Context, log *logger.Logger, err error, action string) {
	switch {
	case errors.Is(err, service.ErrMenuItemNotFound):
		apperrors.NotFound(c, apperrors.MenuItemNotFound, "Menu item not found")
	case errors.Is(err, service.ErrInvalidCategory):
		apperrors.BadRequest(c, apperrors.MenuInvalidCategory, "Category must be one of appetizers, mains, beverages, desserts")
	case errors.Is(err, service.ErrInvalidMenuItem):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
	case errors.Is(err, storage.ErrFileTooLarge):
		apperrors.BadRequest(c, apperrors.UploadFileTooLarge, "Image is too large")
	case errors.Is(err, storage.ErrUnsupportedType):
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Image must be JPEG, PNG, WebP or GIF")
	default:
		log.Error("Menu request failed", err, map[string]interface{}{
			"action": action,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, action)
	}
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid ID")
		return 0, false
	}
	return uint(id), true
}

// ListMenu returns available items
// GET /api/menu?category=mains
func (ctrl *MenuController) ListMenu(c *gin.Context) {
	ctrl.list(c, false)
}

// ListAllMenu includes unavailable items
// GET /api/admin/menu
func (ctrl *MenuController) ListAllMenu(c *gin.Context) {
	ctrl.list(c, true)
}

func (ctrl *MenuController) list(c *gin.Context, includeUnavailable bool) {
	log := middleware.GetLoggerFromContext(c)

	items, err := ctrl.menuService.ListMenu(c.Query("category"), includeUnavailable)
	if err != nil {
		respondMenuError(c, log, err, "list menu")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"menu_items": items,
		"count":      len(items),
	})
}

// GetMenuItem returns one available item
// GET /api/menu/:id
func (ctrl *MenuController) GetMenuItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := ctrl.menuService.GetMenuItem(id, false)
	if err != nil {
		respondMenuError(c, log, err, "menu item")
		return
	}
	c.JSON(http.StatusOK, gin.H{"menu_item": item})
}

// CreateMenuItem adds a catalog entry, optionally with an image upload
// POST /api/admin/menu
func (ctrl *MenuController) CreateMenuItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req MenuItemRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Warn("Invalid menu item request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondBindingError(c, err)
		return
	}
	if req.Title == nil || req.Description == nil || req.Price == nil || req.Category == nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "title, description, price and category are required")
		return
	}

	image, file, err := imageFromRequest(c)
	if err != nil {
		apperrors.BadRequest(c, apperrors.UploadFailed, "Could not read the uploaded image")
		return
	}
	if file != nil {
		defer file.Close()
	}

	input := service.MenuItemInput{
		Title:           *req.Title,
		Description:     *req.Description,
		Price:           *req.Price,
		Category:        *req.Category,
		Available:       req.Available,
		Image:           deref(req.Image),
		Ingredients:     splitList(req.Ingredients),
		Allergens:       splitList(req.Allergens),
		PreparationTime: deref(req.PreparationTime),
	}
	if n := req.nutrition(); n != nil {
		input.Nutrition = *n
	}

	item, err := ctrl.menuService.CreateMenuItem(c.Request.Context(), input, image)
	if err != nil {
		respondMenuError(c, log, err, "create menu item")
		return
	}

	log.Info("Menu item created", map[string]interface{}{
		"menu_item_id": item.ID,
	})
	c.JSON(http.StatusCreated, gin.H{
		"message":   "Menu item created successfully",
		"menu_item": item,
	})
}

// UpdateMenuItem patches a catalog entry; a new image replaces the old one
// PUT /api/admin/menu/:id
func (ctrl *MenuController) UpdateMenuItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req MenuItemRequest
	if err := c.ShouldBind(&req); err != nil {
		apperrors.RespondBindingError(c, err)
		return
	}

	image, file, err := imageFromRequest(c)
	if err != nil {
		apperrors.BadRequest(c, apperrors.UploadFailed, "Could not read the uploaded image")
		return
	}
	if file != nil {
		defer file.Close()
	}

	update := service.MenuItemUpdate{
		Title:           req.Title,
		Description:     req.Description,
		Price:           req.Price,
		Category:        req.Category,
		Available:       req.Available,
		Image:           req.Image,
		Ingredients:     splitList(req.Ingredients),
		Allergens:       splitList(req.Allergens),
		Nutrition:       req.nutrition(),
		PreparationTime: req.PreparationTime,
	}

	item, err := ctrl.menuService.UpdateMenuItem(c.Request.Context(), id, update, image)
	if err != nil {
		respondMenuError(c, log, err, "update menu item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Menu item updated successfully",
		"menu_item": item,
	})
}

// DeleteMenuItem removes a catalog entry
// DELETE /api/admin/menu/:id
func (ctrl *MenuController) DeleteMenuItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.menuService.DeleteMenuItem(id); err != nil {
		respondMenuError(c, log, err, "delete menu item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Menu item deleted successfully",
	})
}
