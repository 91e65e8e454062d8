package services

import (
	"context"
	"errors"
	"sync"

	apierrors "github.com/yukikurage/household-api/internal/errors"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/realtime"
	"github.com/yukikurage/household-api/internal/testutil"
)

type sentEmail struct {
	To      string
	Subject string
	Body    string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (m *recordingMailer) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{To: to, Subject: subject, Body: body})
	return nil
}

func (s *ServiceTestSuite) householdService() (*HouseholdService, *recordingMailer) {
	mailer := &recordingMailer{}
	return NewHouseholdService(s.store, s.guard, s.bus, mailer, newNopLogger()), mailer
}

func (s *ServiceTestSuite) TestCreateHousehold_CreatorBecomesAdmin() {
	svc, _ := s.householdService()

	out, err := svc.CreateHousehold(s.ctx, HouseholdInput{Name: ptr("Flat")}, s.outsider.ID)
	s.Require().NoError(err)
	s.Equal("Flat", out.Name)

	member, err := s.guard.Verify(s.ctx, out.ID, s.outsider.ID, AdminOnly...)
	s.Require().NoError(err)
	s.Equal(models.RoleAdmin, member.Role)

	user, err := s.store.Users.FindByID(s.ctx, s.outsider.ID, false)
	s.Require().NoError(err)
	s.Require().NotNil(user.ActiveHouseholdID)
	s.Equal(out.ID, *user.ActiveHouseholdID)
}

func (s *ServiceTestSuite) TestCreateHousehold_RequiresName() {
	svc, _ := s.householdService()

	_, err := svc.CreateHousehold(s.ctx, HouseholdInput{Name: ptr("  ")}, s.admin.ID)
	s.requireKind(err, apierrors.KindBadRequest)
}

func (s *ServiceTestSuite) TestUpdateHousehold_AdminOnly() {
	svc, _ := s.householdService()

	_, err := svc.UpdateHousehold(s.ctx, s.household.ID, HouseholdInput{Name: ptr("Renamed")}, s.member.ID)
	s.ErrorIs(err, ErrAccessDenied)

	out, err := svc.UpdateHousehold(s.ctx, s.household.ID, HouseholdInput{Name: ptr("Renamed")}, s.admin.ID)
	s.Require().NoError(err)
	s.Equal("Renamed", out.Name)
	s.True(s.bus.Has(s.householdChannel(), EventHouseholdUpdate))
}

func (s *ServiceTestSuite) TestInvitation_AcceptFlow() {
	svc, _ := s.householdService()

	invited, err := svc.AddMember(s.ctx, s.household.ID, s.outsider.Email, models.RoleMember, s.admin.ID)
	s.Require().NoError(err)
	s.True(invited.IsInvited)
	s.False(invited.IsAccepted)
	s.True(s.bus.Has(realtime.UserChannel(s.outsider.ID), EventHouseholdInvitation))

	_, err = s.guard.Verify(s.ctx, s.household.ID, s.outsider.ID, AnyRole...)
	s.ErrorIs(err, ErrAccessDenied)

	pending, err := svc.GetPendingInvitations(s.ctx, s.outsider.ID)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(s.household.ID, pending[0].Household.ID)

	accepted, err := svc.AcceptOrRejectInvitation(s.ctx, s.household.ID, s.outsider.ID, true)
	s.Require().NoError(err)
	s.True(accepted.IsAccepted)
	s.False(accepted.IsInvited)

	_, err = s.guard.Verify(s.ctx, s.household.ID, s.outsider.ID, AnyRole...)
	s.NoError(err)

	_, err = svc.AcceptOrRejectInvitation(s.ctx, s.household.ID, s.outsider.ID, true)
	s.ErrorIs(err, ErrInvalidInvitation)
}

func (s *ServiceTestSuite) TestInvitation_RejectKeepsAccessDenied() {
	svc, _ := s.householdService()

	_, err := svc.AddMember(s.ctx, s.household.ID, s.outsider.Email, models.RoleMember, s.admin.ID)
	s.Require().NoError(err)

	rejected, err := svc.AcceptOrRejectInvitation(s.ctx, s.household.ID, s.outsider.ID, false)
	s.Require().NoError(err)
	s.True(rejected.IsRejected)
	s.NotNil(rejected.LeftAt)

	_, err = s.guard.Verify(s.ctx, s.household.ID, s.outsider.ID, AnyRole...)
	s.ErrorIs(err, ErrAccessDenied)
}

func (s *ServiceTestSuite) TestAddMember_RejectsExistingMembership() {
	svc, _ := s.householdService()

	_, err := svc.AddMember(s.ctx, s.household.ID, s.member.Email, models.RoleMember, s.admin.ID)
	s.ErrorIs(err, ErrAlreadyMember)
}

func (s *ServiceTestSuite) TestAddMember_RequiresAdmin() {
	svc, _ := s.householdService()

	_, err := svc.AddMember(s.ctx, s.household.ID, s.outsider.Email, models.RoleMember, s.member.ID)
	s.ErrorIs(err, ErrAccessDenied)
}

func (s *ServiceTestSuite) TestRemoveMember() {
	svc, _ := s.householdService()
	membership, err := s.store.Members.Find(s.ctx, s.household.ID, s.member.ID)
	s.Require().NoError(err)
	self, err := s.store.Members.Find(s.ctx, s.household.ID, s.admin.ID)
	s.Require().NoError(err)

	s.ErrorIs(svc.RemoveMember(s.ctx, s.household.ID, self.ID, s.admin.ID), ErrCannotRemoveYourself)

	s.Require().NoError(svc.RemoveMember(s.ctx, s.household.ID, membership.ID, s.admin.ID))
	_, err = s.guard.Verify(s.ctx, s.household.ID, s.member.ID, AnyRole...)
	s.ErrorIs(err, ErrAccessDenied)
	s.True(s.bus.Has(realtime.UserChannel(s.member.ID), EventMemberRemoved))
	s.True(s.bus.Has(realtime.UserChannel(s.member.ID), realtime.EventMembershipRevoked))
}

func (s *ServiceTestSuite) TestLeaveHousehold_ClearsActivePointer() {
	svc, _ := s.householdService()
	_, err := svc.SetActiveHousehold(s.ctx, s.household.ID, s.member.ID)
	s.Require().NoError(err)

	s.Require().NoError(svc.LeaveHousehold(s.ctx, s.household.ID, s.member.ID))

	user, err := s.store.Users.FindByID(s.ctx, s.member.ID, false)
	s.Require().NoError(err)
	s.Nil(user.ActiveHouseholdID)
	_, err = s.guard.Verify(s.ctx, s.household.ID, s.member.ID, AnyRole...)
	s.ErrorIs(err, ErrAccessDenied)
	s.True(s.bus.Has(realtime.UserChannel(s.member.ID), realtime.EventMembershipRevoked))
}

func (s *ServiceTestSuite) TestDeleteHousehold_HidesItFromMembers() {
	svc, _ := s.householdService()

	s.ErrorIs(svc.DeleteHousehold(s.ctx, s.household.ID, s.member.ID), ErrAccessDenied)
	s.Require().NoError(svc.DeleteHousehold(s.ctx, s.household.ID, s.admin.ID))

	households, err := svc.GetHouseholds(s.ctx, s.member.ID)
	s.Require().NoError(err)
	s.Empty(households)
	s.True(s.bus.Has(s.householdChannel(), EventHouseholdDeleted))
}

func (s *ServiceTestSuite) TestSendInvitationEmail() {
	svc, mailer := s.householdService()

	s.Require().NoError(svc.SendInvitationEmail(s.ctx, s.household.ID, "friend@example.com", s.admin.ID))
	s.Require().Len(mailer.sent, 1)
	s.Equal("friend@example.com", mailer.sent[0].To)
	s.Contains(mailer.sent[0].Subject, "Home")

	mailer.err = errors.New("smtp unavailable")
	s.Error(svc.SendInvitationEmail(s.ctx, s.household.ID, "friend@example.com", s.admin.ID))
}

func (s *ServiceTestSuite) TestGetMembers_ListsEveryMembership() {
	svc, _ := s.householdService()
	pending := testutil.CreateUser(s.T(), s.db, "pending@example.com")
	_, err := svc.AddMember(s.ctx, s.household.ID, pending.Email, models.RoleMember, s.admin.ID)
	s.Require().NoError(err)

	members, err := svc.GetMembers(s.ctx, s.household.ID, s.member.ID)
	s.Require().NoError(err)
	s.Len(members, 3)

	_, err = svc.GetMembers(s.ctx, s.household.ID, s.outsider.ID)
	s.ErrorIs(err, ErrAccessDenied)
}
