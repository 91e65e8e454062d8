package services

import (
	"time"

	apierrors "github.com/yukikurage/household-api/internal/errors"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/realtime"
	"github.com/yukikurage/household-api/internal/testutil"
)

func (s *ServiceTestSuite) choreService() *ChoreService {
	return NewChoreService(s.store, s.guard, s.bus, newNopLogger())
}

func (s *ServiceTestSuite) subtaskService() *SubtaskService {
	return NewSubtaskService(s.store, s.guard, s.bus, newNopLogger())
}

func (s *ServiceTestSuite) createChore(assignees []uint64, subtasks ...string) uint64 {
	input := CreateChoreInput{Title: "Dishes", AssignedUserIDs: assignees}
	for _, title := range subtasks {
		input.Subtasks = append(input.Subtasks, SubtaskInput{Title: title})
	}
	out, err := s.choreService().CreateChore(s.ctx, s.household.ID, input, s.admin.ID)
	s.Require().NoError(err)
	return out.ID
}

func (s *ServiceTestSuite) historyActions(choreID uint64) []models.ChoreAction {
	entries, err := s.store.Chores.ListHistory(s.ctx, choreID)
	s.Require().NoError(err)
	actions := make([]models.ChoreAction, len(entries))
	for i, e := range entries {
		actions[i] = e.Action
	}
	return actions
}

func countAction(actions []models.ChoreAction, action models.ChoreAction) int {
	n := 0
	for _, a := range actions {
		if a == action {
			n++
		}
	}
	return n
}

func (s *ServiceTestSuite) TestCreateChore() {
	out, err := s.choreService().CreateChore(s.ctx, s.household.ID, CreateChoreInput{
		Title:           "Laundry",
		AssignedUserIDs: []uint64{s.member.ID, s.member.ID},
		Subtasks:        []SubtaskInput{{Title: "wash"}, {Title: "dry"}},
		Recurrence:      &RecurrenceInput{Frequency: models.FrequencyWeekly},
	}, s.admin.ID)
	s.Require().NoError(err)

	s.Equal(models.ChoreStatusPending, out.Status)
	s.Len(out.Assignments, 1)
	s.Len(out.Subtasks, 2)
	s.Require().NotNil(out.RecurrenceRule)
	s.Equal(1, out.RecurrenceRule.Interval)
	s.Equal([]models.ChoreAction{models.ChoreActionCreated}, s.historyActions(out.ID))
	s.True(s.bus.Has(s.householdChannel(), EventChoreCreated))
}

func (s *ServiceTestSuite) TestCreateChore_Validation() {
	svc := s.choreService()

	_, err := svc.CreateChore(s.ctx, s.household.ID, CreateChoreInput{Title: "Dishes"}, s.member.ID)
	s.ErrorIs(err, ErrAccessDenied)

	_, err = svc.CreateChore(s.ctx, s.household.ID, CreateChoreInput{Title: " "}, s.admin.ID)
	s.ErrorIs(err, ErrInvalidChoreTitle)

	_, err = svc.CreateChore(s.ctx, s.household.ID, CreateChoreInput{Title: "Dishes", AssignedUserIDs: []uint64{s.outsider.ID}}, s.admin.ID)
	s.ErrorIs(err, ErrAssigneeNotMember)
}

func (s *ServiceTestSuite) TestGetChores_FiltersByAssignee() {
	s.createChore([]uint64{s.member.ID})
	s.createChore([]uint64{s.admin.ID})

	out, err := s.choreService().GetChores(s.ctx, s.household.ID, s.member.ID, ChoreQuery{AssignedUserID: &s.member.ID})
	s.Require().NoError(err)
	s.Require().Len(out.Items, 1)
	s.Equal(s.member.ID, out.Items[0].Assignments[0].UserID)

	_, err = s.choreService().GetChores(s.ctx, s.household.ID, s.outsider.ID, ChoreQuery{})
	s.ErrorIs(err, ErrAccessDenied)
}

func (s *ServiceTestSuite) TestUpdateChore_CompletionAppendsHistory() {
	choreID := s.createChore([]uint64{s.member.ID})
	completed := models.ChoreStatusCompleted

	out, err := s.choreService().UpdateChore(s.ctx, s.household.ID, choreID, UpdateChoreInput{Status: &completed}, s.member.ID)
	s.Require().NoError(err)
	s.Equal(models.ChoreStatusCompleted, out.Status)

	_, err = s.choreService().UpdateChore(s.ctx, s.household.ID, choreID, UpdateChoreInput{Status: &completed}, s.member.ID)
	s.Require().NoError(err)

	s.Equal(1, countAction(s.historyActions(choreID), models.ChoreActionCompleted))
}

func (s *ServiceTestSuite) TestUpdateChore_ReplacesAssignments() {
	choreID := s.createChore([]uint64{s.member.ID})

	out, err := s.choreService().UpdateChore(s.ctx, s.household.ID, choreID, UpdateChoreInput{
		AssignedUserIDs: &[]uint64{s.admin.ID},
	}, s.member.ID)
	s.Require().NoError(err)
	s.Require().Len(out.Assignments, 1)
	s.Equal(s.admin.ID, out.Assignments[0].UserID)

	bad := models.ChoreStatus("DONE")
	_, err = s.choreService().UpdateChore(s.ctx, s.household.ID, choreID, UpdateChoreInput{Status: &bad}, s.member.ID)
	s.requireKind(err, apierrors.KindBadRequest)
}

func (s *ServiceTestSuite) TestSwap_DoubleApproval() {
	svc := s.choreService()
	choreID := s.createChore([]uint64{s.admin.ID})

	// A (admin) asks B (member) to take the chore over.
	request, err := svc.CreateChoreSwapRequest(s.ctx, s.household.ID, choreID, s.member.ID, s.admin.ID)
	s.Require().NoError(err)
	s.Equal(models.SwapStatusPending, request.Status)
	s.True(s.bus.Has(realtime.UserChannel(s.member.ID), EventChoreSwapRequest))

	approved, err := svc.ApproveOrRejectChoreSwap(s.ctx, s.household.ID, choreID, request.ID, true, s.member.ID)
	s.Require().NoError(err)
	s.Equal(models.SwapStatusApproved, approved.Status)

	_, err = svc.ApproveOrRejectChoreSwap(s.ctx, s.household.ID, choreID, request.ID, true, s.admin.ID)
	s.ErrorIs(err, ErrNotSwapTarget)
	s.requireKind(err, apierrors.KindUnauthorized)

	_, err = svc.ApproveOrRejectChoreSwap(s.ctx, s.household.ID, choreID, request.ID, true, s.member.ID)
	s.ErrorIs(err, ErrSwapNotPending)
	s.requireKind(err, apierrors.KindBadRequest)

	chore, err := svc.GetChoreByID(s.ctx, s.household.ID, choreID, s.admin.ID)
	s.Require().NoError(err)
	s.Require().Len(chore.Assignments, 1)
	s.Equal(s.member.ID, chore.Assignments[0].UserID)
	s.Equal(1, countAction(s.historyActions(choreID), models.ChoreActionSwapped))
	s.True(s.bus.Has(realtime.UserChannel(s.admin.ID), EventChoreSwapApproved))
}

func (s *ServiceTestSuite) TestSwap_RejectKeepsAssignment() {
	svc := s.choreService()
	choreID := s.createChore([]uint64{s.admin.ID})
	request, err := svc.CreateChoreSwapRequest(s.ctx, s.household.ID, choreID, s.member.ID, s.admin.ID)
	s.Require().NoError(err)

	rejected, err := svc.ApproveOrRejectChoreSwap(s.ctx, s.household.ID, choreID, request.ID, false, s.member.ID)
	s.Require().NoError(err)
	s.Equal(models.SwapStatusRejected, rejected.Status)

	chore, err := svc.GetChoreByID(s.ctx, s.household.ID, choreID, s.admin.ID)
	s.Require().NoError(err)
	s.Equal(s.admin.ID, chore.Assignments[0].UserID)
}

func (s *ServiceTestSuite) TestSwap_RequestValidation() {
	svc := s.choreService()
	choreID := s.createChore([]uint64{s.admin.ID})

	_, err := svc.CreateChoreSwapRequest(s.ctx, s.household.ID, choreID, s.admin.ID, s.member.ID)
	s.ErrorIs(err, ErrNotAssigned)

	_, err = svc.CreateChoreSwapRequest(s.ctx, s.household.ID, choreID, s.admin.ID, s.admin.ID)
	s.ErrorIs(err, ErrSwapTargetInvalid)

	_, err = svc.CreateChoreSwapRequest(s.ctx, s.household.ID, choreID, s.outsider.ID, s.admin.ID)
	s.ErrorIs(err, ErrSwapTargetInvalid)

	_, err = svc.ApproveOrRejectChoreSwap(s.ctx, s.household.ID, choreID, 999, true, s.member.ID)
	s.ErrorIs(err, ErrSwapRequestNotFound)
}

func (s *ServiceTestSuite) TestDeleteChore_Cascade() {
	svc := s.choreService()
	choreID := s.createChore([]uint64{s.admin.ID}, "rinse")
	request, err := svc.CreateChoreSwapRequest(s.ctx, s.household.ID, choreID, s.member.ID, s.admin.ID)
	s.Require().NoError(err)
	start := time.Now().Add(time.Hour)
	event, err := s.eventService().CreateChoreEvent(s.ctx, s.household.ID, choreID, EventInput{
		Title: "Dishes", StartTime: start, EndTime: start.Add(time.Hour),
	}, s.admin.ID)
	s.Require().NoError(err)

	s.ErrorIs(svc.DeleteChore(s.ctx, s.household.ID, choreID, s.member.ID), ErrAccessDenied)
	s.Require().NoError(svc.DeleteChore(s.ctx, s.household.ID, choreID, s.admin.ID))

	_, err = svc.GetChoreByID(s.ctx, s.household.ID, choreID, s.admin.ID)
	s.ErrorIs(err, ErrChoreNotFound)

	swap, err := s.store.SwapRequests.FindByID(s.ctx, request.ID)
	s.Require().NoError(err)
	s.Equal(models.SwapStatusRejected, swap.Status)

	_, err = s.store.Events.FindByID(s.ctx, s.household.ID, event.ID, false)
	s.Error(err)

	subtasks, err := s.store.Subtasks.ListByChore(s.ctx, choreID)
	s.Require().NoError(err)
	s.Empty(subtasks)

	history, err := svc.GetChoreHistory(s.ctx, s.household.ID, choreID, s.admin.ID)
	s.Require().NoError(err)
	s.Equal(models.ChoreActionDeleted, history[len(history)-1].Action)
}

func (s *ServiceTestSuite) TestSubtask_AutoCompletesChoreOnce() {
	choreID := s.createChore([]uint64{s.member.ID}, "wash", "dry")
	subtasks, err := s.subtaskService().GetSubtasks(s.ctx, s.household.ID, choreID, s.member.ID)
	s.Require().NoError(err)
	s.Require().Len(subtasks, 2)

	completed := models.SubtaskStatusCompleted
	svc := s.subtaskService()
	_, err = svc.UpdateSubtask(s.ctx, s.household.ID, choreID, subtasks[0].ID, UpdateSubtaskInput{Status: &completed}, s.member.ID)
	s.Require().NoError(err)

	chore, err := s.choreService().GetChoreByID(s.ctx, s.household.ID, choreID, s.member.ID)
	s.Require().NoError(err)
	s.Equal(models.ChoreStatusPending, chore.Status)

	_, err = svc.UpdateSubtask(s.ctx, s.household.ID, choreID, subtasks[1].ID, UpdateSubtaskInput{Status: &completed}, s.member.ID)
	s.Require().NoError(err)
	_, err = svc.UpdateSubtask(s.ctx, s.household.ID, choreID, subtasks[1].ID, UpdateSubtaskInput{Status: &completed}, s.member.ID)
	s.Require().NoError(err)

	chore, err = s.choreService().GetChoreByID(s.ctx, s.household.ID, choreID, s.member.ID)
	s.Require().NoError(err)
	s.Equal(models.ChoreStatusCompleted, chore.Status)
	s.Equal(1, countAction(s.historyActions(choreID), models.ChoreActionCompleted))
	s.True(s.bus.Has(s.householdChannel(), EventChoreUpdate))
}

func (s *ServiceTestSuite) TestSubtask_AddAndDelete() {
	choreID := s.createChore(nil)
	svc := s.subtaskService()

	subtask, err := svc.AddSubtask(s.ctx, s.household.ID, choreID, SubtaskInput{Title: "sweep"}, s.member.ID)
	s.Require().NoError(err)
	s.Equal(models.SubtaskStatusPending, subtask.Status)

	s.ErrorIs(svc.DeleteSubtask(s.ctx, s.household.ID, choreID, subtask.ID, s.member.ID), ErrAccessDenied)
	s.Require().NoError(svc.DeleteSubtask(s.ctx, s.household.ID, choreID, subtask.ID, s.admin.ID))

	_, err = svc.UpdateSubtask(s.ctx, s.household.ID, choreID, subtask.ID, UpdateSubtaskInput{Title: ptr("x")}, s.member.ID)
	s.ErrorIs(err, ErrSubtaskNotFound)
}

func (s *ServiceTestSuite) TestChore_CrossHouseholdIsNotFound() {
	choreID := s.createChore(nil)
	other := testutil.CreateHousehold(s.T(), s.db, "Cabin", s.member)

	_, err := s.choreService().GetChoreByID(s.ctx, other.ID, choreID, s.member.ID)
	s.ErrorIs(err, ErrChoreNotFound)
}
