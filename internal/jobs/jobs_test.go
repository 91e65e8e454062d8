package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/notifier"
	"github.com/yukikurage/household-api/internal/realtime"
	"github.com/yukikurage/household-api/internal/repository"
	"github.com/yukikurage/household-api/internal/services"
	"github.com/yukikurage/household-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type sentEmail struct {
	To, Subject, Body string
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeEmail) SendEmail(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{To: to, Subject: subject, Body: body})
	return nil
}

type fakePush struct {
	mu   sync.Mutex
	sent map[uint64][]notifier.PushMessage
	err  error
}

func (f *fakePush) Send(_ context.Context, userID uint64, msg notifier.PushMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sent == nil {
		f.sent = make(map[uint64][]notifier.PushMessage)
	}
	f.sent[userID] = append(f.sent[userID], msg)
	return f.err
}

type JobsTestSuite struct {
	suite.Suite
	db            *gorm.DB
	store         *repository.Store
	bus           *testutil.RecordingBroadcaster
	notifications *services.NotificationService
	email         *fakeEmail
	push          *fakePush
	ctx           context.Context
	now           time.Time
	admin         *models.User
	member        *models.User
	household     *models.Household
}

func (s *JobsTestSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.store = repository.NewStore(s.db)
	s.bus = &testutil.RecordingBroadcaster{}
	s.notifications = services.NewNotificationService(s.store, services.NewMembershipGuard(s.store), s.bus, zap.NewNop())
	s.email = &fakeEmail{}
	s.push = &fakePush{}
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.admin = testutil.CreateUser(s.T(), s.db, "admin@example.com")
	s.member = testutil.CreateUser(s.T(), s.db, "member@example.com")
	s.household = testutil.CreateHousehold(s.T(), s.db, "Home", s.admin)
	testutil.AddMember(s.T(), s.db, s.household, s.member, models.RoleMember)
}

func TestJobsTestSuite(t *testing.T) {
	suite.Run(t, new(JobsTestSuite))
}

func (s *JobsTestSuite) dispatch() *NotificationDispatch {
	return NewNotificationDispatch(s.store.Notifications, s.notifications, s.email, s.push, zap.NewNop())
}

func (s *JobsTestSuite) createNotification(userID uint64, t models.NotificationType, message string) *models.Notification {
	n := &models.Notification{UserID: userID, HouseholdID: &s.household.ID, Type: t, Message: message}
	s.Require().NoError(s.db.Create(n).Error)
	return n
}

func (s *JobsTestSuite) isRead(id uint64) bool {
	var n models.Notification
	s.Require().NoError(s.db.First(&n, id).Error)
	return n.IsRead
}

func (s *JobsTestSuite) TestNotificationDispatch_DeliversAndMarksRead() {
	n := s.createNotification(s.member.ID, models.NotificationTypeChore, "Dishes are due")

	s.Require().NoError(s.dispatch().Run(s.ctx))

	s.True(s.isRead(n.ID))
	s.Require().Len(s.email.sent, 1)
	s.Equal(sentEmail{To: "member@example.com", Subject: "New CHORE Notification", Body: "Dishes are due"}, s.email.sent[0])
	s.Require().Len(s.push.sent[s.member.ID], 1)
	s.Equal("Dishes are due", s.push.sent[s.member.ID][0].Body)
}

func (s *JobsTestSuite) TestNotificationDispatch_FailedEmailStaysUnread() {
	s.email.err = errors.New("smtp down")
	n := s.createNotification(s.member.ID, models.NotificationTypeExpense, "Rent")

	s.Require().NoError(s.dispatch().Run(s.ctx))

	s.False(s.isRead(n.ID))
}

func (s *JobsTestSuite) TestNotificationDispatch_PushFailureDoesNotBlock() {
	s.push.err = errors.New("push service down")
	n := s.createNotification(s.member.ID, models.NotificationTypeOther, "Hello")

	s.Require().NoError(s.dispatch().Run(s.ctx))

	s.True(s.isRead(n.ID))
	s.Len(s.email.sent, 1)
}

func (s *JobsTestSuite) TestNotificationDispatch_DisabledChannelsStillMarkRead() {
	s.email.err = notifier.ErrDisabled
	n := s.createNotification(s.member.ID, models.NotificationTypeOther, "Hello")

	s.Require().NoError(s.dispatch().Run(s.ctx))

	s.True(s.isRead(n.ID))
}

func (s *JobsTestSuite) TestNotificationDispatch_HonorsSettings() {
	settings := models.DefaultNotificationSettings(s.member.ID, s.household.ID)
	settings.ChoreReminders = false
	settings.PushEnabled = false
	s.Require().NoError(s.db.Create(&settings).Error)

	chore := s.createNotification(s.member.ID, models.NotificationTypeChore, "Dishes")
	message := s.createNotification(s.member.ID, models.NotificationTypeNewMessage, "New message")

	s.Require().NoError(s.dispatch().Run(s.ctx))

	s.True(s.isRead(chore.ID))
	s.True(s.isRead(message.ID))
	s.Require().Len(s.email.sent, 1)
	s.Equal("New message", s.email.sent[0].Body)
	s.Empty(s.push.sent)
}

func (s *JobsTestSuite) rotation() *ChoreRotation {
	j := NewChoreRotation(s.store, s.bus, zap.NewNop())
	j.now = func() time.Time { return s.now }
	j.pick = func(int) int { return 0 }
	return j
}

func (s *JobsTestSuite) createTemplate(frequency models.RecurrenceFrequency, due *time.Time, until *time.Time) *models.Chore {
	rule := &models.RecurrenceRule{Frequency: frequency, Interval: 1, Until: until}
	s.Require().NoError(s.store.Chores.CreateRecurrenceRule(s.ctx, rule))
	template := &models.Chore{
		HouseholdID:      s.household.ID,
		Title:            "Take out trash",
		Status:           models.ChoreStatusPending,
		Priority:         2,
		DueDate:          due,
		RecurrenceRuleID: &rule.ID,
	}
	s.Require().NoError(s.store.Chores.Create(s.ctx, template))
	return template
}

func (s *JobsTestSuite) instances(templateID uint64) []models.Chore {
	var chores []models.Chore
	s.Require().NoError(s.db.Preload("Assignments").
		Where("household_id = ? AND id <> ?", s.household.ID, templateID).
		Find(&chores).Error)
	return chores
}

func (s *JobsTestSuite) TestChoreRotation_CreatesInstanceWithEvent() {
	template := s.createTemplate(models.FrequencyWeekly, nil, nil)

	s.Require().NoError(s.rotation().Run(s.ctx))

	created := s.instances(template.ID)
	s.Require().Len(created, 1)
	instance := created[0]
	s.Equal("Take out trash", instance.Title)
	s.Equal(2, instance.Priority)
	s.Nil(instance.RecurrenceRuleID)
	s.Require().NotNil(instance.DueDate)
	s.True(instance.DueDate.Equal(s.now.AddDate(0, 0, 7)))
	s.Require().Len(instance.Assignments, 1)
	s.Contains([]uint64{s.admin.ID, s.member.ID}, instance.Assignments[0].UserID)

	s.Require().NotNil(instance.EventID)
	var event models.Event
	s.Require().NoError(s.db.First(&event, *instance.EventID).Error)
	s.Equal(models.EventCategoryChore, event.Category)
	s.Equal(models.EventStatusScheduled, event.Status)
	s.Nil(event.CreatedByID)
	s.Require().NotNil(event.ChoreID)
	s.Equal(instance.ID, *event.ChoreID)
	s.Equal(24*time.Hour, event.EndTime.Sub(event.StartTime))

	var history []models.ChoreHistory
	s.Require().NoError(s.db.Where("chore_id = ?", instance.ID).Find(&history).Error)
	s.Require().Len(history, 1)
	s.Equal(models.ChoreActionCreated, history[0].Action)
	s.Nil(history[0].ChangedByID)

	var updated models.Chore
	s.Require().NoError(s.db.First(&updated, template.ID).Error)
	s.Require().NotNil(updated.DueDate)
	s.True(updated.DueDate.After(s.now))

	s.True(s.bus.Has(realtime.HouseholdChannel(s.household.ID), services.EventChoreCreated))
}

func (s *JobsTestSuite) TestChoreRotation_AdvancesTemplateByOnePeriod() {
	due := s.now.Add(-time.Hour)
	template := s.createTemplate(models.FrequencyDaily, &due, nil)

	s.Require().NoError(s.rotation().Run(s.ctx))

	var updated models.Chore
	s.Require().NoError(s.db.First(&updated, template.ID).Error)
	s.True(updated.DueDate.Equal(due.AddDate(0, 0, 1)))

	s.Require().NoError(s.rotation().Run(s.ctx))
	s.Len(s.instances(template.ID), 1)
}

func (s *JobsTestSuite) TestChoreRotation_SkipsHouseholdWithoutAdmin() {
	template := s.createTemplate(models.FrequencyDaily, nil, nil)
	s.Require().NoError(s.db.Model(&models.HouseholdMember{}).
		Where("household_id = ?", s.household.ID).
		Update("role", models.RoleMember).Error)

	s.Require().NoError(s.rotation().Run(s.ctx))

	s.Empty(s.instances(template.ID))
	s.Empty(s.bus.Events())
}

func (s *JobsTestSuite) TestChoreRotation_SkipsExpiredRules() {
	until := s.now.AddDate(0, 0, -1)
	template := s.createTemplate(models.FrequencyDaily, nil, &until)

	s.Require().NoError(s.rotation().Run(s.ctx))

	s.Empty(s.instances(template.ID))
}

func (s *JobsTestSuite) TestChoreRotation_SkipsTemplatesNotYetDue() {
	due := s.now.Add(48 * time.Hour)
	template := s.createTemplate(models.FrequencyDaily, &due, nil)

	s.Require().NoError(s.rotation().Run(s.ctx))

	s.Empty(s.instances(template.ID))
}

func (s *JobsTestSuite) TestChoreRotation_SkipsDeletedHousehold() {
	template := s.createTemplate(models.FrequencyWeekly, nil, nil)
	s.Require().NoError(s.store.Households.Delete(s.ctx, s.household.ID))

	s.Require().NoError(s.rotation().Run(s.ctx))

	s.Empty(s.instances(template.ID))
	s.Empty(s.bus.Events())
}

func (s *JobsTestSuite) reminders() *DueReminders {
	j := NewDueReminders(s.store, s.notifications, zap.NewNop())
	j.now = func() time.Time { return s.now }
	return j
}

func (s *JobsTestSuite) userNotifications(userID uint64) []models.Notification {
	var out []models.Notification
	s.Require().NoError(s.db.Where("user_id = ?", userID).Order("id ASC").Find(&out).Error)
	return out
}

func (s *JobsTestSuite) TestDueReminders_NotifiesAssigneesAndSplitMembers() {
	soon := s.now.Add(2 * time.Hour)
	later := s.now.Add(72 * time.Hour)

	dueChore := &models.Chore{
		HouseholdID: s.household.ID, Title: "Dishes", Status: models.ChoreStatusPending, DueDate: &soon,
		Assignments: []models.ChoreAssignment{{UserID: s.member.ID, AssignedAt: s.now}},
	}
	doneChore := &models.Chore{
		HouseholdID: s.household.ID, Title: "Laundry", Status: models.ChoreStatusCompleted, DueDate: &soon,
		Assignments: []models.ChoreAssignment{{UserID: s.member.ID, AssignedAt: s.now}},
	}
	farChore := &models.Chore{
		HouseholdID: s.household.ID, Title: "Windows", Status: models.ChoreStatusPending, DueDate: &later,
		Assignments: []models.ChoreAssignment{{UserID: s.member.ID, AssignedAt: s.now}},
	}
	for _, c := range []*models.Chore{dueChore, doneChore, farChore} {
		s.Require().NoError(s.store.Chores.Create(s.ctx, c))
	}

	expense := &models.Expense{
		HouseholdID: s.household.ID, Title: "Internet", Amount: 60, PaidByID: s.admin.ID, DueDate: &soon,
		Splits: []models.ExpenseSplit{
			{UserID: s.admin.ID, Amount: 30},
			{UserID: s.member.ID, Amount: 30},
		},
	}
	s.Require().NoError(s.store.Expenses.Create(s.ctx, expense))

	s.Require().NoError(s.reminders().Run(s.ctx))

	memberNotes := s.userNotifications(s.member.ID)
	s.Require().Len(memberNotes, 2)
	s.Equal(models.NotificationTypeChore, memberNotes[0].Type)
	s.Equal(dueChore.ID, *memberNotes[0].ChoreID)
	s.Contains(memberNotes[0].Message, "Dishes")
	s.Equal(models.NotificationTypeExpense, memberNotes[1].Type)
	s.Contains(memberNotes[1].Message, "30.00")

	adminNotes := s.userNotifications(s.admin.ID)
	s.Require().Len(adminNotes, 1)
	s.Equal(expense.ID, *adminNotes[0].ExpenseID)

	s.True(s.bus.Has(realtime.UserChannel(s.member.ID), services.EventNotificationUpdate))
}

func (s *JobsTestSuite) TestDueReminders_SkipsDeletedHousehold() {
	soon := s.now.Add(2 * time.Hour)
	s.Require().NoError(s.store.Chores.Create(s.ctx, &models.Chore{
		HouseholdID: s.household.ID, Title: "Dishes", Status: models.ChoreStatusPending, DueDate: &soon,
		Assignments: []models.ChoreAssignment{{UserID: s.member.ID, AssignedAt: s.now}},
	}))
	s.Require().NoError(s.store.Expenses.Create(s.ctx, &models.Expense{
		HouseholdID: s.household.ID, Title: "Internet", Amount: 60, PaidByID: s.admin.ID, DueDate: &soon,
		Splits: []models.ExpenseSplit{{UserID: s.member.ID, Amount: 60}},
	}))
	s.Require().NoError(s.store.Households.Delete(s.ctx, s.household.ID))

	s.Require().NoError(s.reminders().Run(s.ctx))

	s.Empty(s.userNotifications(s.member.ID))
}

type countingJob struct {
	runs int
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

func TestScheduler(t *testing.T) {
	sched := NewScheduler(zap.NewNop(), time.Second)
	job := &countingJob{}

	assert.Error(t, sched.Register("not a spec", job))
	require.NoError(t, sched.Register("@every 1h", job))

	sched.RunNow(job)
	job.err = errors.New("boom")
	sched.RunNow(job)
	assert.Equal(t, 2, job.runs)

	sched.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, sched.Stop(ctx))
}
