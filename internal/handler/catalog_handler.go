package handler

import (
	"net/http"

	"storehub/internal/middleware"
	"storehub/internal/service"
	"storehub/pkg/pagination"
	"storehub/pkg/response"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/products")
	{
		products.GET("", middleware.RequirePermission("products.read"), h.ListProducts)
		products.GET("/:id", middleware.RequirePermission("products.read"), h.GetProduct)
		products.POST("", middleware.RequirePermission("products.write"), h.CreateProduct)
		products.PUT("/:id", middleware.RequirePermission("products.write"), h.UpdateProduct)
		products.DELETE("/:id", middleware.RequirePermission("products.delete"), h.DeleteProduct)
	}

	categories := router.Group("/categories")
	{
		categories.GET("", middleware.RequirePermission("categories.read"), h.ListCategories)
		categories.POST("", middleware.RequirePermission("categories.write"), h.CreateCategory)
		categories.PUT("/:id", middleware.RequirePermission("categories.write"), h.UpdateCategory)
		categories.DELETE("/:id", middleware.RequirePermission("categories.delete"), h.DeleteCategory)
	}

	suppliers := router.Group("/suppliers")
	{
		suppliers.GET("", middleware.RequirePermission("suppliers.read"), h.ListSuppliers)
		suppliers.POST("", middleware.RequirePermission("suppliers.write"), h.CreateSupplier)
		suppliers.PUT("/:id", middleware.RequirePermission("suppliers.write"), h.UpdateSupplier)
		suppliers.DELETE("/:id", middleware.RequirePermission("suppliers.delete"), h.DeleteSupplier)
	}
}

// ListProducts handles GET /products
// @Summary      List products
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        page         query     int     false  "Page"
// @Param        limit        query     int     false  "Limit"
// @Param        search       query     string  false  "Search by name or SKU"
// @Param        category_id  query     string  false  "Filter by category"
// @Success      200          {object}  response.Response{data=[]service.ProductResponse}
// @Router       /products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	params := pagination.Parse(c)

	products, total, err := h.catalogService.ListProducts(
		c.Request.Context(), params.Page, params.Limit,
		c.Query("search"), c.Query("category_id"),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, products, params.Page, params.Limit, total))
}

// GetProduct handles GET /products/:id
// @Summary      Get product by ID
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=service.ProductResponse}
// @Failure      404  {object}  response.Response
// @Router       /products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.catalogService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// CreateProduct handles POST /products
// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateProductRequest  true  "Create Product Payload"
// @Success      201      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Router       /products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// UpdateProduct handles PUT /products/:id
// @Summary      Update a product
// @Description  Updates product fields; orders already placed keep their captured prices
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Product ID"
// @Param        payload  body      service.UpdateProductRequest  true  "Update Product Payload"
// @Success      200      {object}  response.Response{data=service.ProductResponse}
// @Failure      404      {object}  response.Response
// @Router       /products/{id} [put]
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.catalogService.UpdateProduct(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// DeleteProduct handles DELETE /products/:id
// @Summary      Delete a product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /products/{id} [delete]
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	if err := h.catalogService.DeleteProduct(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "product deleted"}))
}

// ListCategories handles GET /categories
// @Summary      List categories
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.CategoryResponse}
// @Router       /categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	params := pagination.Parse(c)

	categories, total, err := h.catalogService.ListCategories(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, categories, params.Page, params.Limit, total))
}

// CreateCategory handles POST /categories
// @Summary      Create a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CategoryRequest  true  "Category Payload"
// @Success      201      {object}  response.Response{data=service.CategoryResponse}
// @Failure      400      {object}  response.Response
// @Router       /categories [post]
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	category, err := h.catalogService.CreateCategory(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, category))
}

// UpdateCategory handles PUT /categories/:id
// @Summary      Update a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Category ID"
// @Param        payload  body      service.CategoryRequest  true  "Category Payload"
// @Success      200      {object}  response.Response{data=service.CategoryResponse}
// @Failure      404      {object}  response.Response
// @Router       /categories/{id} [put]
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	category, err := h.catalogService.UpdateCategory(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, category))
}

// DeleteCategory handles DELETE /categories/:id
// @Summary      Delete a category
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /categories/{id} [delete]
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	if err := h.catalogService.DeleteCategory(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "category deleted"}))
}

// ListSuppliers handles GET /suppliers
// @Summary      List suppliers
// @Tags         suppliers
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Search by name"
// @Success      200     {object}  response.Response{data=[]service.SupplierResponse}
// @Router       /suppliers [get]
func (h *CatalogHandler) ListSuppliers(c *gin.Context) {
	params := pagination.Parse(c)

	suppliers, total, err := h.catalogService.ListSuppliers(c.Request.Context(), params.Page, params.Limit, c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, suppliers, params.Page, params.Limit, total))
}

// CreateSupplier handles POST /suppliers
// @Summary      Create a supplier
// @Tags         suppliers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SupplierRequest  true  "Supplier Payload"
// @Success      201      {object}  response.Response{data=service.SupplierResponse}
// @Failure      400      {object}  response.Response
// @Router       /suppliers [post]
func (h *CatalogHandler) CreateSupplier(c *gin.Context) {
	var req service.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	supplier, err := h.catalogService.CreateSupplier(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, supplier))
}

// UpdateSupplier handles PUT /suppliers/:id
// @Summary      Update a supplier
// @Tags         suppliers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Supplier ID"
// @Param        payload  body      service.SupplierRequest  true  "Supplier Payload"
// @Success      200      {object}  response.Response{data=service.SupplierResponse}
// @Failure      404      {object}  response.Response
// @Router       /suppliers/{id} [put]
func (h *CatalogHandler) UpdateSupplier(c *gin.Context) {
	var req service.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	supplier, err := h.catalogService.UpdateSupplier(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, supplier))
}

// DeleteSupplier handles DELETE /suppliers/:id
// @Summary      Delete a supplier
// @Tags         suppliers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Supplier ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /suppliers/{id} [delete]
func (h *CatalogHandler) DeleteSupplier(c *gin.Context) {
	if err := h.catalogService.DeleteSupplier(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "supplier deleted"}))
}
