package services

import (
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/realtime"
	"github.com/yukikurage/household-api/internal/utils"
)

func (s *ServiceTestSuite) notificationService() *NotificationService {
	return NewNotificationService(s.store, s.guard, s.bus, newNopLogger())
}

func (s *ServiceTestSuite) TestCreateNotification() {
	svc := s.notificationService()

	_, err := svc.CreateNotification(s.ctx, CreateNotificationInput{UserID: s.member.ID, Message: " "})
	s.ErrorIs(err, ErrInvalidNotification)

	_, err = svc.CreateNotification(s.ctx, CreateNotificationInput{UserID: 9999, Message: "hello"})
	s.ErrorIs(err, ErrUserNotFound)

	out, err := svc.CreateNotification(s.ctx, CreateNotificationInput{
		UserID:      s.member.ID,
		HouseholdID: &s.household.ID,
		Type:        "SOMETHING_NEW",
		Message:     "Bins go out tonight",
	})
	s.Require().NoError(err)
	s.Equal(models.NotificationTypeOther, out.Type)
	s.False(out.IsRead)
	s.True(s.bus.Has(realtime.UserChannel(s.member.ID), EventNotificationUpdate))
}

func (s *ServiceTestSuite) TestMarkAsRead_OnlyOwnNotifications() {
	svc := s.notificationService()
	created, err := svc.CreateNotification(s.ctx, CreateNotificationInput{UserID: s.member.ID, Message: "hi"})
	s.Require().NoError(err)

	_, err = svc.MarkAsRead(s.ctx, created.ID, s.admin.ID)
	s.ErrorIs(err, ErrNotificationNotFound)

	read, err := svc.MarkAsRead(s.ctx, created.ID, s.member.ID)
	s.Require().NoError(err)
	s.True(read.IsRead)

	unread, err := svc.GetNotifications(s.ctx, s.member.ID, true, utils.PaginationParams{Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.Empty(unread.Items)

	s.ErrorIs(svc.DeleteNotification(s.ctx, created.ID, s.admin.ID), ErrNotificationNotFound)
	s.Require().NoError(svc.DeleteNotification(s.ctx, created.ID, s.member.ID))
	all, err := svc.GetNotifications(s.ctx, s.member.ID, false, utils.PaginationParams{Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.Empty(all.Items)
}

func (s *ServiceTestSuite) TestMarkAllAsRead() {
	svc := s.notificationService()
	for _, text := range []string{"one", "two", "three"} {
		_, err := svc.CreateNotification(s.ctx, CreateNotificationInput{UserID: s.member.ID, Message: text})
		s.Require().NoError(err)
	}
	_, err := svc.CreateNotification(s.ctx, CreateNotificationInput{UserID: s.admin.ID, Message: "admin only"})
	s.Require().NoError(err)

	s.Require().NoError(svc.MarkAllAsRead(s.ctx, s.member.ID))

	s.Empty(s.unreadNotifications(s.member.ID))
	s.Len(s.unreadNotifications(s.admin.ID), 1)
}

func (s *ServiceTestSuite) TestNotificationSettings() {
	svc := s.notificationService()

	defaults, err := svc.SettingsFor(s.ctx, s.household.ID, s.member.ID)
	s.Require().NoError(err)
	s.True(defaults.EmailEnabled)
	var stored int64
	s.Require().NoError(s.db.Model(&models.NotificationSettings{}).Count(&stored).Error)
	s.Zero(stored)

	got, err := svc.GetNotificationSettings(s.ctx, s.household.ID, s.member.ID)
	s.Require().NoError(err)
	s.True(got.PushEnabled)
	s.Require().NoError(s.db.Model(&models.NotificationSettings{}).Count(&stored).Error)
	s.Equal(int64(1), stored)

	updated, err := svc.UpdateNotificationSettings(s.ctx, s.household.ID, NotificationSettingsInput{EmailEnabled: ptr(false)}, s.member.ID)
	s.Require().NoError(err)
	s.False(updated.EmailEnabled)
	s.True(updated.ChoreReminders)
	s.True(s.bus.Has(realtime.UserChannel(s.member.ID), EventSettingsUpdate))

	reloaded, err := svc.SettingsFor(s.ctx, s.household.ID, s.member.ID)
	s.Require().NoError(err)
	s.False(reloaded.EmailEnabled)

	_, err = svc.GetNotificationSettings(s.ctx, s.household.ID, s.outsider.ID)
	s.ErrorIs(err, ErrAccessDenied)
}

func (s *ServiceTestSuite) TestPushSubscriptions() {
	svc := s.notificationService()

	s.ErrorIs(svc.SavePushSubscription(s.ctx, PushSubscriptionInput{Endpoint: "https://push.example.com/1"}, s.member.ID), ErrInvalidSubscription)

	input := PushSubscriptionInput{Endpoint: "https://push.example.com/1", P256dh: "key", Auth: "secret"}
	s.Require().NoError(svc.SavePushSubscription(s.ctx, input, s.member.ID))
	s.Require().NoError(svc.SavePushSubscription(s.ctx, input, s.member.ID))

	subs, err := s.store.Notifications.ListSubscriptions(s.ctx, s.member.ID)
	s.Require().NoError(err)
	s.Len(subs, 1)

	s.Require().NoError(svc.DeletePushSubscription(s.ctx, input.Endpoint, s.member.ID))
	subs, err = s.store.Notifications.ListSubscriptions(s.ctx, s.member.ID)
	s.Require().NoError(err)
	s.Empty(subs)
}
