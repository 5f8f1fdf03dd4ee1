// internal/handlers/helpers.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/franchisehub/supply-backend/internal/models"
	"github.com/franchisehub/supply-backend/internal/services"
	"github.com/franchisehub/supply-backend/internal/utils"
)

// currentUser pulls the authenticated identity out of the gin context.
// Returns false after writing the error response, so callers just return.
func currentUser(c *gin.Context) (uuid.UUID, models.UserRole, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, "", false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return uuid.Nil, "", false
	}

	roleStr, _ := utils.GetUserRoleFromContext(c)
	return userID, models.UserRole(roleStr), true
}

func pathUUID(c *gin.Context, param, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+label, nil)
		return uuid.Nil, false
	}
	return id, true
}

// serviceError maps the service sentinels onto HTTP responses. Unknown
// errors become 500s without leaking internals in production responses.
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, "Resource")
	case errors.Is(err, services.ErrInsufficientStock):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		utils.UnprocessableResponse(c, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		utils.ForbiddenResponse(c, err.Error())
	case errors.Is(err, services.ErrExternalService):
		utils.ErrorResponse(c, 502, "EXTERNAL_SERVICE", err.Error(), nil)
	default:
		if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
			utils.ValidationErrorResponse(c, validationErrors)
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
	}
}
