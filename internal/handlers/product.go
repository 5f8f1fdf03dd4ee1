// internal/handlers/product.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/franchisehub/supply-backend/internal/models"
	"github.com/franchisehub/supply-backend/internal/services"
	"github.com/franchisehub/supply-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	// Staff browse the full catalog including deactivated products.
	includeInactive := false
	if role, ok := utils.GetUserRoleFromContext(c); ok {
		r := models.UserRole(role)
		includeInactive = r == models.UserRoleAdmin || r == models.UserRoleWarehouse
	}

	products, total, err := h.productService.SearchProducts(params, c.Query("category"), includeInactive)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(products, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id", "product ID")
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(id)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"product": product})
}

// GET /products/categories
func (h *ProductHandler) GetCategories(c *gin.Context) {
	categories, err := h.productService.ListCategories()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"categories": categories})
}

// POST /products (admin)
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	product, err := h.productService.CreateProduct(&req)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": "Product created",
		"product": product,
	})
}

// PUT /products/:id (admin)
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id", "product ID")
	if !ok {
		return
	}

	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	product, err := h.productService.UpdateProduct(id, &req)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Product updated",
		"product": product,
	})
}

// POST /products/:id/stock (staff)
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, ok := pathUUID(c, "id", "product ID")
	if !ok {
		return
	}

	var req services.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	product, err := h.productService.AdjustStock(id, &req)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Stock adjusted",
		"product": product,
	})
}
