// internal/handlers/cart.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/franchisehub/supply-backend/internal/services"
	"github.com/franchisehub/supply-backend/internal/utils"
)

type CartHandler struct {
	cartService *services.CartService
}

func NewCartHandler(cartService *services.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	cart, err := h.cartService.GetOrCreate(userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"cart": cart})
}

// POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	cart, err := h.cartService.AddItem(userID, &req)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"cart": cart})
}

// PUT /cart/items/:id
func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	itemID, ok := pathUUID(c, "id", "cart item ID")
	if !ok {
		return
	}

	var req services.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	cart, err := h.cartService.UpdateItem(userID, itemID, &req)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"cart": cart})
}

// DELETE /cart/items/:id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	itemID, ok := pathUUID(c, "id", "cart item ID")
	if !ok {
		return
	}

	cart, err := h.cartService.RemoveItem(userID, itemID)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"cart": cart})
}

// DELETE /cart
func (h *CartHandler) Clear(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.cartService.Clear(userID); err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Cart cleared"})
}
