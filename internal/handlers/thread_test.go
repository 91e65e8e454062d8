package handlers

import (
	"fmt"
	"net/http"

	"github.com/yukikurage/household-api/internal/dto"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/realtime"
	"github.com/yukikurage/household-api/internal/services"
)

func (suite *HandlerTestSuite) createThread(title string, author *models.User) dto.ThreadDTO {
	w := suite.do(http.MethodPost, suite.householdPath("/threads"), map[string]any{"title": title}, author)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var thread dto.ThreadDTO
	suite.decode(w, &thread)
	return thread
}

func (suite *HandlerTestSuite) postMessage(threadID uint64, body map[string]any, author *models.User) dto.MessageDTO {
	w := suite.do(http.MethodPost, suite.householdPath("/threads/%d/messages", threadID), body, author)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var message dto.MessageDTO
	suite.decode(w, &message)
	return message
}

func (suite *HandlerTestSuite) TestThreads_CreateAndList() {
	thread := suite.createThread("Groceries plan", suite.admin)
	suite.Equal("Groceries plan", thread.Title)

	w := suite.do(http.MethodGet, suite.householdPath("/threads"), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)
	var page dto.ListResponse[dto.ThreadDTO]
	suite.decode(w, &page)
	suite.Len(page.Items, 1)

	w = suite.do(http.MethodGet, suite.householdPath("/threads"), nil, suite.outsider)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlerTestSuite) TestThreads_InviteRejectsOutsider() {
	thread := suite.createThread("Planning", suite.admin)

	w := suite.do(http.MethodPost, suite.householdPath("/threads/%d/invite", thread.ID),
		map[string]any{"user_ids": []uint64{suite.outsider.ID}}, suite.admin)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, suite.householdPath("/threads/%d/invite", thread.ID),
		map[string]any{"user_ids": []uint64{suite.member.ID}}, suite.admin)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var got dto.ThreadDTO
	suite.decode(w, &got)
	suite.Len(got.Participants, 2)
}

func (suite *HandlerTestSuite) TestMessages_MentionNotifiesUser() {
	thread := suite.createThread("Weekend", suite.admin)

	message := suite.postMessage(thread.ID, map[string]any{
		"content":            "Can you take the recycling out?",
		"mentioned_user_ids": []uint64{suite.member.ID},
		"attachments": []map[string]string{
			{"url": "https://files.example.com/bins.jpg", "file_type": "image/jpeg"},
		},
	}, suite.admin)
	suite.Len(message.Mentions, 1)
	suite.Len(message.Attachments, 1)
	suite.True(suite.bus.Has(realtime.UserChannel(suite.member.ID), services.EventNotificationUpdate))

	w := suite.do(http.MethodGet, suite.householdPath("/mentions/unread-count"), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)
	var count struct {
		Count int64 `json:"count"`
	}
	suite.decode(w, &count)
	suite.EqualValues(1, count.Count)

	w = suite.do(http.MethodGet, "/api/notifications?unread=true", nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)
	var page dto.ListResponse[dto.NotificationDTO]
	suite.decode(w, &page)
	suite.Require().Len(page.Items, 1)
	suite.Equal(models.NotificationTypeMention, page.Items[0].Type)

	w = suite.do(http.MethodPatch, "/api/notifications/read-all", nil, suite.member)
	suite.Equal(http.StatusNoContent, w.Code)

	w = suite.do(http.MethodGet, "/api/notifications?unread=true", nil, suite.member)
	suite.decode(w, &page)
	suite.Empty(page.Items)
}

func (suite *HandlerTestSuite) TestMessages_EmptyContentRejected() {
	thread := suite.createThread("Empty", suite.admin)

	w := suite.do(http.MethodPost, suite.householdPath("/threads/%d/messages", thread.ID), map[string]any{"content": ""}, suite.admin)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestMessages_OnlyAuthorCanEdit() {
	thread := suite.createThread("Edits", suite.admin)
	message := suite.postMessage(thread.ID, map[string]any{"content": "original"}, suite.admin)
	path := suite.householdPath("/threads/%d/messages/%d", thread.ID, message.ID)

	w := suite.do(http.MethodPatch, path, map[string]string{"content": "hijacked"}, suite.member)
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.do(http.MethodPatch, path, map[string]string{"content": "edited"}, suite.admin)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Contains(w.Body.String(), "edited")
}

func (suite *HandlerTestSuite) TestReactionsAndReadReceipts() {
	thread := suite.createThread("Reactions", suite.admin)
	message := suite.postMessage(thread.ID, map[string]any{"content": "Pizza tonight?"}, suite.admin)
	base := suite.householdPath("/threads/%d/messages/%d", thread.ID, message.ID)

	w := suite.do(http.MethodPost, base+"/reactions", map[string]string{"type": string(models.ReactionLove)}, suite.member)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var reaction dto.ReactionDTO
	suite.decode(w, &reaction)

	w = suite.do(http.MethodPost, base+"/reactions", map[string]string{"type": string(models.ReactionLove)}, suite.member)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, base+"/read", nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var receipts []dto.ReadReceiptDTO
	suite.decode(w, &receipts)
	suite.Require().Len(receipts, 1)
	suite.Equal(suite.member.ID, receipts[0].UserID)

	w = suite.do(http.MethodDelete, fmt.Sprintf("%s/reactions/%d", base, reaction.ID), nil, suite.member)
	suite.Equal(http.StatusNoContent, w.Code, w.Body.String())

	w = suite.do(http.MethodGet, base+"/reactions", nil, suite.member)
	var reactions []dto.ReactionDTO
	suite.decode(w, &reactions)
	suite.Empty(reactions)
}

func (suite *HandlerTestSuite) TestPolls_VoteAndRemoveVote() {
	thread := suite.createThread("Dinner", suite.admin)
	message := suite.postMessage(thread.ID, map[string]any{"content": "Where should we eat?"}, suite.admin)

	w := suite.do(http.MethodPost, suite.householdPath("/threads/%d/messages/%d/polls", thread.ID, message.ID), map[string]any{
		"question": "Restaurant?",
		"options":  []map[string]string{{"text": "Tacos"}, {"text": "Sushi"}},
	}, suite.admin)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var poll dto.PollDTO
	suite.decode(w, &poll)
	suite.Equal(models.PollTypeSingleChoice, poll.PollType)
	suite.Require().Len(poll.Options, 2)

	w = suite.do(http.MethodPost, suite.householdPath("/polls/%d/vote", poll.ID),
		map[string]uint64{"option_id": poll.Options[1].ID}, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &poll)
	suite.Require().Len(poll.Options[1].Votes, 1)
	vote := poll.Options[1].Votes[0]
	suite.Equal(suite.member.ID, vote.UserID)

	w = suite.do(http.MethodPost, suite.householdPath("/polls/%d/vote", poll.ID),
		map[string]uint64{"option_id": poll.Options[0].ID}, suite.outsider)
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.do(http.MethodDelete, suite.householdPath("/polls/%d/votes/%d", poll.ID, vote.ID), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &poll)
	suite.Empty(poll.Options[1].Votes)
}

func (suite *HandlerTestSuite) TestNotificationSettings() {
	w := suite.do(http.MethodGet, suite.householdPath("/notification-settings"), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var settings dto.NotificationSettingsDTO
	suite.decode(w, &settings)
	suite.True(settings.PushEnabled)

	w = suite.do(http.MethodPut, suite.householdPath("/notification-settings"), map[string]bool{"push_enabled": false}, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &settings)
	suite.False(settings.PushEnabled)
	suite.True(settings.EmailEnabled)

	w = suite.do(http.MethodGet, suite.householdPath("/notification-settings"), nil, suite.outsider)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlerTestSuite) TestPushSubscriptions() {
	w := suite.do(http.MethodGet, "/api/push/public-key", nil, nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "vapid-public")

	body := map[string]any{
		"endpoint": "https://push.example.com/sub/1",
		"keys":     map[string]string{"p256dh": "key", "auth": "secret"},
	}
	w = suite.do(http.MethodPost, "/api/push/subscriptions", body, suite.member)
	suite.Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.do(http.MethodPost, "/api/push/subscriptions", map[string]any{"endpoint": "https://push.example.com/sub/2"}, suite.member)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodDelete, "/api/push/subscriptions", map[string]string{"endpoint": "https://push.example.com/sub/1"}, suite.member)
	suite.Equal(http.StatusNoContent, w.Code, w.Body.String())
}
