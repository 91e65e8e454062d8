package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/services"
)

type HouseholdHandler struct {
	households *services.HouseholdService
}

func NewHouseholdHandler(households *services.HouseholdService) *HouseholdHandler {
	return &HouseholdHandler{households: households}
}

type householdRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=100"`
	Currency *string `json:"currency" binding:"omitempty,len=3"`
	Icon     *string `json:"icon"`
	Timezone *string `json:"timezone"`
	Language *string `json:"language"`
}

func (r householdRequest) input() services.HouseholdInput {
	return services.HouseholdInput{
		Name:     r.Name,
		Currency: r.Currency,
		Icon:     r.Icon,
		Timezone: r.Timezone,
		Language: r.Language,
	}
}

// ListHouseholds returns the households the caller belongs to.
func (h *HouseholdHandler) ListHouseholds(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	households, err := h.households.GetHouseholds(c.Request.Context(), userID)
	respond(c, http.StatusOK, households, err)
}

// CreateHousehold creates a household with the caller as its admin.
func (h *HouseholdHandler) CreateHousehold(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req householdRequest
	if !bindJSON(c, &req) {
		return
	}
	household, err := h.households.CreateHousehold(c.Request.Context(), req.input(), userID)
	respond(c, http.StatusCreated, household, err)
}

func (h *HouseholdHandler) GetHousehold(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	household, err := h.households.GetHouseholdByID(c.Request.Context(), householdID, userID)
	respond(c, http.StatusOK, household, err)
}

func (h *HouseholdHandler) UpdateHousehold(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	var req householdRequest
	if !bindJSON(c, &req) {
		return
	}
	household, err := h.households.UpdateHousehold(c.Request.Context(), householdID, req.input(), userID)
	respond(c, http.StatusOK, household, err)
}

func (h *HouseholdHandler) DeleteHousehold(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	noContent(c, h.households.DeleteHousehold(c.Request.Context(), householdID, userID))
}

// SetActiveHousehold remembers the household the caller works in.
func (h *HouseholdHandler) SetActiveHousehold(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	user, err := h.households.SetActiveHousehold(c.Request.Context(), householdID, userID)
	respond(c, http.StatusOK, user, err)
}

func (h *HouseholdHandler) ListMembers(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	members, err := h.households.GetMembers(c.Request.Context(), householdID, userID)
	respond(c, http.StatusOK, members, err)
}

// AddMember invites a registered user by email.
func (h *HouseholdHandler) AddMember(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	var req struct {
		Email string               `json:"email" binding:"required"`
		Role  models.HouseholdRole `json:"role"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.Role == "" {
		req.Role = models.RoleMember
	}
	member, err := h.households.AddMember(c.Request.Context(), householdID, req.Email, req.Role, userID)
	respond(c, http.StatusCreated, member, err)
}

func (h *HouseholdHandler) UpdateMemberRole(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "memberId")
	if !ok {
		return
	}
	var req struct {
		Role models.HouseholdRole `json:"role" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	member, err := h.households.UpdateMemberRole(c.Request.Context(), ids[0], ids[1], req.Role, userID)
	respond(c, http.StatusOK, member, err)
}

func (h *HouseholdHandler) RemoveMember(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "memberId")
	if !ok {
		return
	}
	noContent(c, h.households.RemoveMember(c.Request.Context(), ids[0], ids[1], userID))
}

// RespondToInvitation accepts or rejects the caller's pending invitation.
func (h *HouseholdHandler) RespondToInvitation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	var req struct {
		Accept *bool `json:"accept" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	member, err := h.households.AcceptOrRejectInvitation(c.Request.Context(), householdID, userID, *req.Accept)
	respond(c, http.StatusOK, member, err)
}

func (h *HouseholdHandler) ListInvitations(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	invitations, err := h.households.GetPendingInvitations(c.Request.Context(), userID)
	respond(c, http.StatusOK, invitations, err)
}

func (h *HouseholdHandler) LeaveHousehold(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	noContent(c, h.households.LeaveHousehold(c.Request.Context(), householdID, userID))
}

// SendInvitationEmail emails an invitation link to an address.
func (h *HouseholdHandler) SendInvitationEmail(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	respond(c, http.StatusAccepted, nil, h.households.SendInvitationEmail(c.Request.Context(), householdID, req.Email, userID))
}
