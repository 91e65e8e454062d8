package handlers

import (
	"fmt"
	"net/http"

	"github.com/yukikurage/household-api/internal/dto"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/realtime"
	"github.com/yukikurage/household-api/internal/services"
)

func (suite *HandlerTestSuite) householdPath(format string, args ...any) string {
	return fmt.Sprintf("/api/households/%d", suite.household.ID) + fmt.Sprintf(format, args...)
}

func (suite *HandlerTestSuite) TestCreateHousehold_CreatorBecomesAdmin() {
	w := suite.do(http.MethodPost, "/api/households", map[string]string{"name": "Cabin", "currency": "EUR"}, suite.outsider)

	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var household dto.HouseholdDTO
	suite.decode(w, &household)
	suite.Equal("Cabin", household.Name)
	suite.Equal("EUR", household.Currency)
	suite.Require().Len(household.Members, 1)
	suite.Equal(models.RoleAdmin, household.Members[0].Role)
	suite.Equal(suite.outsider.ID, household.Members[0].User.ID)
}

func (suite *HandlerTestSuite) TestCreateHousehold_RejectsBadCurrency() {
	w := suite.do(http.MethodPost, "/api/households", map[string]string{"name": "Cabin", "currency": "EURO"}, suite.admin)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestGetHousehold_DeniesOutsider() {
	w := suite.do(http.MethodGet, suite.householdPath(""), nil, suite.outsider)
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.do(http.MethodGet, suite.householdPath(""), nil, suite.member)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlerTestSuite) TestUpdateHousehold_AdminOnly() {
	body := map[string]string{"name": "Renamed"}

	w := suite.do(http.MethodPatch, suite.householdPath(""), body, suite.member)
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.do(http.MethodPatch, suite.householdPath(""), body, suite.admin)
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "Renamed")
}

func (suite *HandlerTestSuite) TestInvitationFlow() {
	w := suite.do(http.MethodPost, suite.householdPath("/members"), map[string]string{"email": suite.outsider.Email}, suite.admin)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var invited dto.MemberDTO
	suite.decode(w, &invited)
	suite.True(invited.IsInvited)
	suite.Equal(models.RoleMember, invited.Role)
	suite.True(suite.bus.Has(realtime.UserChannel(suite.outsider.ID), services.EventHouseholdInvitation))

	w = suite.do(http.MethodGet, "/api/households/invitations", nil, suite.outsider)
	suite.Require().Equal(http.StatusOK, w.Code)
	var invitations []dto.InvitationDTO
	suite.decode(w, &invitations)
	suite.Require().Len(invitations, 1)
	suite.Equal(suite.household.ID, invitations[0].Household.ID)

	w = suite.do(http.MethodPost, suite.householdPath("/invitation"), map[string]bool{"accept": true}, suite.outsider)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.do(http.MethodGet, suite.householdPath(""), nil, suite.outsider)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlerTestSuite) TestRespondToInvitation_RequiresAnswer() {
	w := suite.do(http.MethodPost, suite.householdPath("/invitation"), map[string]string{}, suite.outsider)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestAddMember_UnknownEmail() {
	w := suite.do(http.MethodPost, suite.householdPath("/members"), map[string]string{"email": "ghost@example.com"}, suite.admin)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestListMembers() {
	w := suite.do(http.MethodGet, suite.householdPath("/members"), nil, suite.member)

	suite.Require().Equal(http.StatusOK, w.Code)
	var members []dto.MemberDTO
	suite.decode(w, &members)
	suite.Len(members, 2)
}

func (suite *HandlerTestSuite) TestLeaveHousehold() {
	w := suite.do(http.MethodPost, suite.householdPath("/leave"), nil, suite.member)
	suite.Equal(http.StatusNoContent, w.Code, w.Body.String())

	w = suite.do(http.MethodGet, suite.householdPath(""), nil, suite.member)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlerTestSuite) TestSetActiveHousehold() {
	w := suite.do(http.MethodPost, suite.householdPath("/active"), nil, suite.member)

	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var user dto.UserDTO
	suite.decode(w, &user)
	suite.Require().NotNil(user.ActiveHouseholdID)
	suite.Equal(suite.household.ID, *user.ActiveHouseholdID)
}

func (suite *HandlerTestSuite) TestSendInvitationEmail() {
	w := suite.do(http.MethodPost, suite.householdPath("/invite-email"), map[string]string{"email": "friend@example.com"}, suite.admin)

	suite.Equal(http.StatusAccepted, w.Code, w.Body.String())
	suite.Require().Len(suite.mailer.sent, 1)
	suite.Equal("friend@example.com", suite.mailer.sent[0].to)
	suite.Contains(suite.mailer.sent[0].subject, "Home")
}
