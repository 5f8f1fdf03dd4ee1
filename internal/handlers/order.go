// internal/handlers/order.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/franchisehub/supply-backend/internal/models"
	"github.com/franchisehub/supply-backend/internal/services"
	"github.com/franchisehub/supply-backend/internal/utils"
)

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	order, dispatch, err := h.orderService.CreateOrder(c.Request.Context(), userID, &req)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.CreatedResponseWithWarnings(c, gin.H{
		"message": "Order placed",
		"order":   order,
	}, dispatch.Warnings)
}

// GET /orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}

	params := services.OrderSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
	}

	// Franchisees see only their own orders; staff may filter by user.
	if role == models.UserRoleFranchisee {
		params.UserID = &userID
	} else if userIDStr := c.Query("user_id"); userIDStr != "" {
		if filterID, err := uuid.Parse(userIDStr); err == nil {
			params.UserID = &filterID
		}
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.OrderStatus(statusStr)
		if !status.Valid() {
			utils.BadRequestResponse(c, "Invalid status filter", nil)
			return
		}
		params.Status = &status
	}

	orders, total, err := h.orderService.SearchOrders(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(orders, total, params.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}

	orderID, ok := pathUUID(c, "id", "order ID")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(orderID, userID, role)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"order": order})
}

// PUT /orders/:id/status (staff)
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	orderID, ok := pathUUID(c, "id", "order ID")
	if !ok {
		return
	}

	var req services.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	order, dispatch, err := h.orderService.UpdateStatus(c.Request.Context(), orderID, req.Status, userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponseWithWarnings(c, gin.H{
		"message": "Order status updated",
		"order":   order,
	}, dispatch.Warnings)
}

// POST /orders/:id/invoice (staff)
func (h *OrderHandler) SyncInvoice(c *gin.Context) {
	orderID, ok := pathUUID(c, "id", "order ID")
	if !ok {
		return
	}

	invoiceID, warnings, err := h.orderService.SyncInvoice(c.Request.Context(), orderID)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponseWithWarnings(c, gin.H{
		"message":    "Invoice synced",
		"invoice_id": invoiceID,
	}, warnings)
}
