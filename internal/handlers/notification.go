package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/household-api/internal/services"
	"github.com/yukikurage/household-api/internal/utils"
)

type NotificationHandler struct {
	notifications  *services.NotificationService
	vapidPublicKey string
}

func NewNotificationHandler(notifications *services.NotificationService, vapidPublicKey string) *NotificationHandler {
	return &NotificationHandler{
		notifications:  notifications,
		vapidPublicKey: vapidPublicKey,
	}
}

// ListNotifications returns the caller's notifications. unread=true limits
// the page to unread ones.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	onlyUnread, _ := strconv.ParseBool(c.Query("unread"))
	notifications, err := h.notifications.GetNotifications(c.Request.Context(), userID, onlyUnread, utils.GetPaginationParams(c))
	respond(c, http.StatusOK, notifications, err)
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	notificationID, ok := pathID(c, "notificationId")
	if !ok {
		return
	}
	notification, err := h.notifications.MarkAsRead(c.Request.Context(), notificationID, userID)
	respond(c, http.StatusOK, notification, err)
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	noContent(c, h.notifications.MarkAllAsRead(c.Request.Context(), userID))
}

func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	notificationID, ok := pathID(c, "notificationId")
	if !ok {
		return
	}
	noContent(c, h.notifications.DeleteNotification(c.Request.Context(), notificationID, userID))
}

func (h *NotificationHandler) GetSettings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	settings, err := h.notifications.GetNotificationSettings(c.Request.Context(), householdID, userID)
	respond(c, http.StatusOK, settings, err)
}

func (h *NotificationHandler) UpdateSettings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	var req struct {
		EmailEnabled         *bool `json:"email_enabled"`
		PushEnabled          *bool `json:"push_enabled"`
		ChoreReminders       *bool `json:"chore_reminders"`
		ExpenseReminders     *bool `json:"expense_reminders"`
		MessageNotifications *bool `json:"message_notifications"`
	}
	if !bindJSON(c, &req) {
		return
	}
	settings, err := h.notifications.UpdateNotificationSettings(c.Request.Context(), householdID, services.NotificationSettingsInput{
		EmailEnabled:         req.EmailEnabled,
		PushEnabled:          req.PushEnabled,
		ChoreReminders:       req.ChoreReminders,
		ExpenseReminders:     req.ExpenseReminders,
		MessageNotifications: req.MessageNotifications,
	}, userID)
	respond(c, http.StatusOK, settings, err)
}

// PushPublicKey exposes the VAPID key browsers need to subscribe.
func (h *NotificationHandler) PushPublicKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"public_key": h.vapidPublicKey})
}

func (h *NotificationHandler) SaveSubscription(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		Endpoint string `json:"endpoint" binding:"required,url"`
		Keys     struct {
			P256dh string `json:"p256dh" binding:"required"`
			Auth   string `json:"auth" binding:"required"`
		} `json:"keys"`
	}
	if !bindJSON(c, &req) {
		return
	}
	respond(c, http.StatusCreated, nil, h.notifications.SavePushSubscription(c.Request.Context(), services.PushSubscriptionInput{
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	}, userID))
}

func (h *NotificationHandler) DeleteSubscription(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		Endpoint string `json:"endpoint" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	noContent(c, h.notifications.DeletePushSubscription(c.Request.Context(), req.Endpoint, userID))
}
