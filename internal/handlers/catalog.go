package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/logger"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/media"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/models"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/services"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/utils"
)

// CatalogHandler serves the product, category and option group endpoints.
// Product and option item mutations arrive as multipart forms so an image
// can ride along with the fields.
type CatalogHandler struct {
	catalog *services.CatalogService
	media   *media.Store
	log     *logger.Logger
}

func NewCatalogHandler(catalog *services.CatalogService, m *media.Store, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, media: m, log: log}
}

// ---- Products ----

// ListProducts handles GET /products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	byCat, err := h.catalog.ProductsByCategory(c.Request.Context())
	if err != nil {
		h.log.Error("CATALOG", "Failed to list products: "+err.Error())
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to list products", err.Error()))
		return
	}
	c.JSON(http.StatusOK, byCat)
}

// GetProduct handles GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Product not found", ""))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to retrieve product", err.Error()))
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct handles POST /products (multipart form)
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	in, ok := h.bindProductForm(c)
	if !ok {
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), in)
	if err != nil {
		h.log.Error("CATALOG", "Failed to create product: "+err.Error())
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to create product", err.Error()))
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /products/:id (multipart form)
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	in, ok := h.bindProductForm(c)
	if !ok {
		return
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), id, in)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Product not found", ""))
			return
		}
		h.log.Error("CATALOG", "Failed to update product: "+err.Error())
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to update product", err.Error()))
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /products/:id
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Product not found", ""))
			return
		}
		h.log.Error("CATALOG", "Failed to delete product: "+err.Error())
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to delete product", err.Error()))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Product deleted", nil))
}

func (h *CatalogHandler) bindProductForm(c *gin.Context) (*services.ProductIn, bool) {
	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Product name is required", ""))
		return nil, false
	}

	price, err := decimal.NewFromString(c.PostForm("base_price"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid base price", c.PostForm("base_price")))
		return nil, false
	}

	category := strings.TrimSpace(c.PostForm("category_name"))
	if category == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Category name is required", ""))
		return nil, false
	}

	in := &services.ProductIn{
		Name:         name,
		BasePrice:    price,
		CategoryName: category,
	}

	if desc := strings.TrimSpace(c.PostForm("description")); desc != "" {
		in.Description = &desc
	}

	if raw, exists := c.GetPostFormArray("option_group_ids"); exists {
		ids, err := parseIDList(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid option group IDs", err.Error()))
			return nil, false
		}
		in.OptionGroupIDs = ids
	}

	if file, err := c.FormFile("image"); err == nil {
		filename, err := h.media.Save(file)
		if err != nil {
			h.log.Error("MEDIA", "Failed to save product image: "+err.Error())
			c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to store image", err.Error()))
			return nil, false
		}
		in.ImageFilename = &filename
	}

	return in, true
}

// ---- Categories ----

// ListCategories handles GET /categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	cats, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to list categories", err.Error()))
		return
	}
	c.JSON(http.StatusOK, cats)
}

// DeleteCategory handles DELETE /categories/:id
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Category not found", ""))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to delete category", err.Error()))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Category deleted", nil))
}

// ---- Option groups ----

// ListGroups handles GET /options/groups
func (h *CatalogHandler) ListGroups(c *gin.Context) {
	groups, err := h.catalog.Groups(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to list option groups", err.Error()))
		return
	}
	c.JSON(http.StatusOK, groups)
}

type groupRequest struct {
	Name       string            `json:"name"`
	SelectType models.SelectType `json:"select_type"`
	IsRequired bool              `json:"is_required"`
}

func (r *groupRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if r.SelectType == "" {
		r.SelectType = models.SelectSingle
	}
	if r.SelectType != models.SelectSingle && r.SelectType != models.SelectMulti {
		return errors.New("select_type must be single or multi")
	}
	return nil
}

// CreateGroup handles POST /options/groups
func (h *CatalogHandler) CreateGroup(c *gin.Context) {
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Validation failed", err.Error()))
		return
	}

	group, err := h.catalog.CreateGroup(c.Request.Context(), strings.TrimSpace(req.Name), req.SelectType, req.IsRequired)
	if err != nil {
		if errors.Is(err, services.ErrGroupExists) {
			c.JSON(http.StatusConflict, utils.ErrorResponse("Option group already exists", req.Name))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to create option group", err.Error()))
		return
	}
	c.JSON(http.StatusCreated, group)
}

// UpdateGroup handles PUT /options/groups/:id
func (h *CatalogHandler) UpdateGroup(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Validation failed", err.Error()))
		return
	}

	group, err := h.catalog.UpdateGroup(c.Request.Context(), id, strings.TrimSpace(req.Name), req.SelectType, req.IsRequired)
	if err != nil {
		if errors.Is(err, services.ErrGroupNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Option group not found", ""))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to update option group", err.Error()))
		return
	}
	c.JSON(http.StatusOK, group)
}

// DeleteGroup handles DELETE /options/groups/:id
func (h *CatalogHandler) DeleteGroup(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.catalog.DeleteGroup(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrGroupNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Option group not found", ""))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to delete option group", err.Error()))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Option group deleted", nil))
}

// ---- Option items ----

// AddItem handles POST /options/groups/:id/items (multipart form)
func (h *CatalogHandler) AddItem(c *gin.Context) {
	groupID, ok := pathID(c)
	if !ok {
		return
	}
	in, ok := h.bindItemForm(c)
	if !ok {
		return
	}

	item, err := h.catalog.AddItem(c.Request.Context(), groupID, in)
	if err != nil {
		if errors.Is(err, services.ErrGroupNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Option group not found", ""))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to create option item", err.Error()))
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateItem handles PUT /options/items/:id (multipart form)
func (h *CatalogHandler) UpdateItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	in, ok := h.bindItemForm(c)
	if !ok {
		return
	}
	in.ClearImage = c.PostForm("clear_image") == "true"

	item, err := h.catalog.UpdateItem(c.Request.Context(), id, in)
	if err != nil {
		if errors.Is(err, services.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Option item not found", ""))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to update option item", err.Error()))
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteItem handles DELETE /options/items/:id
func (h *CatalogHandler) DeleteItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.catalog.DeleteItem(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Option item not found", ""))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to delete option item", err.Error()))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Option item deleted", nil))
}

func (h *CatalogHandler) bindItemForm(c *gin.Context) (*services.OptionItemIn, bool) {
	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Item name is required", ""))
		return nil, false
	}

	price := decimal.Zero
	if raw := c.PostForm("price"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid price", raw))
			return nil, false
		}
		price = p
	}

	in := &services.OptionItemIn{Name: name, Price: price}

	if file, err := c.FormFile("image"); err == nil {
		filename, err := h.media.Save(file)
		if err != nil {
			h.log.Error("MEDIA", "Failed to save item image: "+err.Error())
			c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to store image", err.Error()))
			return nil, false
		}
		in.ImageFilename = &filename
	}

	return in, true
}

// ---- Shared helpers ----

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid ID", c.Param("id")))
		return 0, false
	}
	return id, true
}

func parseIDList(raw []string) ([]int64, error) {
	ids := make([]int64, 0, len(raw))
	for _, field := range raw {
		for _, part := range strings.Split(field, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
