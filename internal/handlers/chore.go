package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/household-api/internal/errors"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/services"
	"github.com/yukikurage/household-api/internal/utils"
)

type ChoreHandler struct {
	chores      *services.ChoreService
	subtasks    *services.SubtaskService
	events      *services.EventService
	suggestions *services.SuggestionService
}

func NewChoreHandler(chores *services.ChoreService, subtasks *services.SubtaskService, events *services.EventService, suggestions *services.SuggestionService) *ChoreHandler {
	return &ChoreHandler{
		chores:      chores,
		subtasks:    subtasks,
		events:      events,
		suggestions: suggestions,
	}
}

type subtaskRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description"`
}

type recurrenceRequest struct {
	Frequency models.RecurrenceFrequency `json:"frequency" binding:"required"`
	Interval  int                        `json:"interval"`
	Until     *time.Time                 `json:"until"`
}

func (r *recurrenceRequest) input() *services.RecurrenceInput {
	if r == nil {
		return nil
	}
	return &services.RecurrenceInput{Frequency: r.Frequency, Interval: r.Interval, Until: r.Until}
}

func subtaskInputs(reqs []subtaskRequest) []services.SubtaskInput {
	out := make([]services.SubtaskInput, len(reqs))
	for i, r := range reqs {
		out[i] = services.SubtaskInput{Title: r.Title, Description: r.Description}
	}
	return out
}

// ListChores returns a page of chores, optionally filtered by status or assignee.
func (h *ChoreHandler) ListChores(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	assignee, ok := queryUint(c, "assigned_user_id")
	if !ok {
		return
	}
	query := services.ChoreQuery{
		AssignedUserID: assignee,
		Pagination:     utils.GetPaginationParams(c),
	}
	if status := c.Query("status"); status != "" {
		s := models.ChoreStatus(status)
		query.Status = &s
	}

	chores, err := h.chores.GetChores(c.Request.Context(), householdID, userID, query)
	respond(c, http.StatusOK, chores, err)
}

func (h *ChoreHandler) GetChore(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "choreId")
	if !ok {
		return
	}
	chore, err := h.chores.GetChoreByID(c.Request.Context(), ids[0], ids[1], userID)
	respond(c, http.StatusOK, chore, err)
}

func (h *ChoreHandler) CreateChore(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	var req struct {
		Title           string             `json:"title" binding:"required,max=200"`
		Description     string             `json:"description"`
		DueDate         *time.Time         `json:"due_date"`
		Priority        int                `json:"priority"`
		AssignedUserIDs []uint64           `json:"assigned_user_ids"`
		Subtasks        []subtaskRequest   `json:"subtasks" binding:"dive"`
		Recurrence      *recurrenceRequest `json:"recurrence"`
	}
	if !bindJSON(c, &req) {
		return
	}

	chore, err := h.chores.CreateChore(c.Request.Context(), householdID, services.CreateChoreInput{
		Title:           req.Title,
		Description:     req.Description,
		DueDate:         req.DueDate,
		Priority:        req.Priority,
		AssignedUserIDs: req.AssignedUserIDs,
		Subtasks:        subtaskInputs(req.Subtasks),
		Recurrence:      req.Recurrence.input(),
	}, userID)
	respond(c, http.StatusCreated, chore, err)
}

func (h *ChoreHandler) UpdateChore(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "choreId")
	if !ok {
		return
	}
	var req struct {
		Title           *string             `json:"title" binding:"omitempty,max=200"`
		Description     *string             `json:"description"`
		DueDate         *time.Time          `json:"due_date"`
		Status          *models.ChoreStatus `json:"status"`
		Priority        *int                `json:"priority"`
		AssignedUserIDs *[]uint64           `json:"assigned_user_ids"`
		Subtasks        *[]subtaskRequest   `json:"subtasks"`
	}
	if !bindJSON(c, &req) {
		return
	}

	input := services.UpdateChoreInput{
		Title:           req.Title,
		Description:     req.Description,
		DueDate:         req.DueDate,
		Status:          req.Status,
		Priority:        req.Priority,
		AssignedUserIDs: req.AssignedUserIDs,
	}
	if req.Subtasks != nil {
		subtasks := subtaskInputs(*req.Subtasks)
		input.Subtasks = &subtasks
	}
	chore, err := h.chores.UpdateChore(c.Request.Context(), ids[0], ids[1], input, userID)
	respond(c, http.StatusOK, chore, err)
}

func (h *ChoreHandler) DeleteChore(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "choreId")
	if !ok {
		return
	}
	noContent(c, h.chores.DeleteChore(c.Request.Context(), ids[0], ids[1], userID))
}

func (h *ChoreHandler) GetHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "choreId")
	if !ok {
		return
	}
	history, err := h.chores.GetChoreHistory(c.Request.Context(), ids[0], ids[1], userID)
	respond(c, http.StatusOK, history, err)
}

func (h *ChoreHandler) ListSubtasks(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "choreId")
	if !ok {
		return
	}
	subtasks, err := h.subtasks.GetSubtasks(c.Request.Context(), ids[0], ids[1], userID)
	respond(c, http.StatusOK, subtasks, err)
}

func (h *ChoreHandler) AddSubtask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "choreId")
	if !ok {
		return
	}
	var req subtaskRequest
	if !bindJSON(c, &req) {
		return
	}
	subtask, err := h.subtasks.AddSubtask(c.Request.Context(), ids[0], ids[1], services.SubtaskInput{
		Title:       req.Title,
		Description: req.Description,
	}, userID)
	respond(c, http.StatusCreated, subtask, err)
}

// UpdateSubtask changes a subtask. Completing the last open subtask
// completes the chore.
func (h *ChoreHandler) UpdateSubtask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "choreId", "subtaskId")
	if !ok {
		return
	}
	var req struct {
		Title       *string               `json:"title" binding:"omitempty,max=200"`
		Description *string               `json:"description"`
		Status      *models.SubtaskStatus `json:"status"`
	}
	if !bindJSON(c, &req) {
		return
	}
	subtask, err := h.subtasks.UpdateSubtask(c.Request.Context(), ids[0], ids[1], ids[2], services.UpdateSubtaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	}, userID)
	respond(c, http.StatusOK, subtask, err)
}

func (h *ChoreHandler) DeleteSubtask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "choreId", "subtaskId")
	if !ok {
		return
	}
	noContent(c, h.subtasks.DeleteSubtask(c.Request.Context(), ids[0], ids[1], ids[2], userID))
}

func (h *ChoreHandler) ListSwapRequests(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "choreId")
	if !ok {
		return
	}
	requests, err := h.chores.GetSwapRequests(c.Request.Context(), ids[0], ids[1], userID)
	respond(c, http.StatusOK, requests, err)
}

// CreateSwapRequest asks another member to take over the chore.
func (h *ChoreHandler) CreateSwapRequest(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "choreId")
	if !ok {
		return
	}
	var req struct {
		TargetUserID uint64 `json:"target_user_id" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	request, err := h.chores.CreateChoreSwapRequest(c.Request.Context(), ids[0], ids[1], req.TargetUserID, userID)
	respond(c, http.StatusCreated, request, err)
}

// ResolveSwapRequest lets the target of a swap request approve or reject it.
func (h *ChoreHandler) ResolveSwapRequest(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "choreId", "swapRequestId")
	if !ok {
		return
	}
	var req struct {
		Approve *bool `json:"approve" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	request, err := h.chores.ApproveOrRejectChoreSwap(c.Request.Context(), ids[0], ids[1], ids[2], *req.Approve, userID)
	respond(c, http.StatusOK, request, err)
}

// CreateChoreEvent schedules a calendar event for the chore.
func (h *ChoreHandler) CreateChoreEvent(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "choreId")
	if !ok {
		return
	}
	var req eventRequest
	if !bindJSON(c, &req) {
		return
	}
	event, err := h.events.CreateChoreEvent(c.Request.Context(), ids[0], ids[1], req.input(), userID)
	respond(c, http.StatusCreated, event, err)
}

// SuggestChores turns free text into chore suggestions.
func (h *ChoreHandler) SuggestChores(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text" binding:"required,max=4000"`
	}
	if !bindJSON(c, &req) {
		return
	}
	suggestions, err := h.suggestions.SuggestChores(c.Request.Context(), householdID, req.Text, userID)
	if errors.Is(err, services.ErrSuggestionsUnavailable) {
		apierrors.ServiceUnavailable(c, "Chore suggestions are not available")
		return
	}
	respond(c, http.StatusOK, gin.H{"suggestions": suggestions}, err)
}
