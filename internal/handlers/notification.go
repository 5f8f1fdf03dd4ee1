// internal/handlers/notification.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/franchisehub/supply-backend/internal/services"
	"github.com/franchisehub/supply-backend/internal/utils"
)

type NotificationHandler struct {
	dispatcher *services.NotificationDispatcher
}

func NewNotificationHandler(dispatcher *services.NotificationDispatcher) *NotificationHandler {
	return &NotificationHandler{dispatcher: dispatcher}
}

// GET /notifications
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	unreadOnly, _ := strconv.ParseBool(c.DefaultQuery("unread", "false"))

	notifications, err := h.dispatcher.ListForUser(userID, unreadOnly)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"notifications": notifications})
}

// PUT /notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	notificationID, ok := pathUUID(c, "id", "notification ID")
	if !ok {
		return
	}

	if err := h.dispatcher.MarkAsRead(userID, notificationID); err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Notification marked as read"})
}

// DELETE /notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	notificationID, ok := pathUUID(c, "id", "notification ID")
	if !ok {
		return
	}

	if err := h.dispatcher.Delete(userID, notificationID); err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Notification deleted"})
}
