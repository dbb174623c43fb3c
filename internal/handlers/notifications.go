package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/nutriconsultas/backend/internal/auth"
	"github.com/nutriconsultas/backend/internal/middleware"
	"github.com/nutriconsultas/backend/internal/notifications"
	"github.com/nutriconsultas/backend/internal/services"
	"github.com/nutriconsultas/backend/pkg/errors"
	"github.com/nutriconsultas/backend/pkg/response"
)

// NotificationHandler exposes notification history and the live stream.
type NotificationHandler struct {
	service *services.NotificationService
	hub     *notifications.Hub
	jwt     *iauth.JWTService
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(service *services.NotificationService, hub *notifications.Hub, jwt *iauth.JWTService) *NotificationHandler {
	return &NotificationHandler{service: service, hub: hub, jwt: jwt}
}

// List returns notifications addressed to the current user.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	limit := parseIntQuery(c, "limit", 25)
	offset := parseIntQuery(c, "offset", 0)

	items, total, err := h.service.ListForUser(requestContext(c), userID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}

// Stream upgrades the connection to a WebSocket for notification delivery.
// The token may arrive as a query parameter because browsers cannot set
// headers on WebSocket dials.
func (h *NotificationHandler) Stream(c *gin.Context) {
	if h.jwt == nil || h.hub == nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		authz := c.GetHeader("Authorization")
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			token = strings.TrimSpace(authz[7:])
		}
	}

	if token == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	claims, err := h.jwt.ValidateAccessToken(token)
	if err != nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	h.hub.Serve(claims.UserID, c.Writer, c.Request)
}
