package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/household-api/internal/errors"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/services"
)

type EventHandler struct {
	events *services.EventService
}

func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

type reminderRequest struct {
	Type models.ReminderType `json:"type" binding:"required"`
	Time time.Time           `json:"time" binding:"required"`
}

type eventRequest struct {
	Title       string               `json:"title" binding:"required,max=200"`
	Description string               `json:"description"`
	StartTime   time.Time            `json:"start_time" binding:"required"`
	EndTime     time.Time            `json:"end_time" binding:"required"`
	IsAllDay    bool                 `json:"is_all_day"`
	Location    string               `json:"location"`
	Category    models.EventCategory `json:"category"`
	Reminders   []reminderRequest    `json:"reminders" binding:"dive"`
	Recurrence  *recurrenceRequest   `json:"recurrence"`
}

func (r eventRequest) input() services.EventInput {
	reminders := make([]services.ReminderInput, len(r.Reminders))
	for i, rem := range r.Reminders {
		reminders[i] = services.ReminderInput{Type: rem.Type, Time: rem.Time}
	}
	return services.EventInput{
		Title:       r.Title,
		Description: r.Description,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		IsAllDay:    r.IsAllDay,
		Location:    r.Location,
		Category:    r.Category,
		Reminders:   reminders,
		Recurrence:  r.Recurrence.input(),
	}
}

// ListEvents returns events in an optional time window and category. A date
// query parameter lists the events of that day instead.
func (h *EventHandler) ListEvents(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}

	date, ok := queryTime(c, "date")
	if !ok {
		return
	}
	if date != nil {
		events, err := h.events.GetEventsByDate(c.Request.Context(), householdID, *date, userID)
		respond(c, http.StatusOK, events, err)
		return
	}

	from, ok := queryTime(c, "from")
	if !ok {
		return
	}
	to, ok := queryTime(c, "to")
	if !ok {
		return
	}
	query := services.EventQuery{From: from, To: to}
	if category := c.Query("category"); category != "" {
		cat := models.EventCategory(category)
		if !cat.Valid() {
			apierrors.BadRequest(c, "Invalid category")
			return
		}
		query.Category = &cat
	}

	events, err := h.events.GetEvents(c.Request.Context(), householdID, userID, query)
	respond(c, http.StatusOK, events, err)
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "eventId")
	if !ok {
		return
	}
	event, err := h.events.GetEventByID(c.Request.Context(), ids[0], ids[1], userID)
	respond(c, http.StatusOK, event, err)
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	var req eventRequest
	if !bindJSON(c, &req) {
		return
	}
	event, err := h.events.CreateEvent(c.Request.Context(), householdID, req.input(), userID)
	respond(c, http.StatusCreated, event, err)
}

func (h *EventHandler) UpdateEvent(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "eventId")
	if !ok {
		return
	}
	var req struct {
		Title       *string               `json:"title" binding:"omitempty,max=200"`
		Description *string               `json:"description"`
		StartTime   *time.Time            `json:"start_time"`
		EndTime     *time.Time            `json:"end_time"`
		IsAllDay    *bool                 `json:"is_all_day"`
		Location    *string               `json:"location"`
		Category    *models.EventCategory `json:"category"`
		Recurrence  *recurrenceRequest    `json:"recurrence"`
	}
	if !bindJSON(c, &req) {
		return
	}
	event, err := h.events.UpdateEvent(c.Request.Context(), ids[0], ids[1], services.UpdateEventInput{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsAllDay:    req.IsAllDay,
		Location:    req.Location,
		Category:    req.Category,
		Recurrence:  req.Recurrence.input(),
	}, userID)
	respond(c, http.StatusOK, event, err)
}

func (h *EventHandler) UpdateEventStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "eventId")
	if !ok {
		return
	}
	var req struct {
		Status models.EventStatus `json:"status" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	event, err := h.events.UpdateEventStatus(c.Request.Context(), ids[0], ids[1], req.Status, userID)
	respond(c, http.StatusOK, event, err)
}

func (h *EventHandler) DeleteEvent(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "eventId")
	if !ok {
		return
	}
	noContent(c, h.events.DeleteEvent(c.Request.Context(), ids[0], ids[1], userID))
}

func (h *EventHandler) AddReminder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "eventId")
	if !ok {
		return
	}
	var req reminderRequest
	if !bindJSON(c, &req) {
		return
	}
	event, err := h.events.AddReminder(c.Request.Context(), ids[0], ids[1], services.ReminderInput{Type: req.Type, Time: req.Time}, userID)
	respond(c, http.StatusCreated, event, err)
}

func (h *EventHandler) RemoveReminder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "eventId", "reminderId")
	if !ok {
		return
	}
	event, err := h.events.RemoveReminder(c.Request.Context(), ids[0], ids[1], ids[2], userID)
	respond(c, http.StatusOK, event, err)
}
