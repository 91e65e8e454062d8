package services

import (
	"time"

	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/realtime"
	"github.com/yukikurage/household-api/internal/utils"
)

func (s *ServiceTestSuite) threadService() *ThreadService {
	return NewThreadService(s.store, s.guard, s.bus, newNopLogger())
}

func (s *ServiceTestSuite) messageService() *MessageService {
	return NewMessageService(s.store, s.guard, s.bus, newNopLogger())
}

func (s *ServiceTestSuite) pollService() *PollService {
	return NewPollService(s.store, s.guard, s.bus, newNopLogger())
}

func (s *ServiceTestSuite) createThread(participants ...uint64) uint64 {
	out, err := s.threadService().CreateThread(s.ctx, s.household.ID, CreateThreadInput{
		Title:          "Weekend plans",
		ParticipantIDs: participants,
	}, s.admin.ID)
	s.Require().NoError(err)
	return out.ID
}

func (s *ServiceTestSuite) unreadNotifications(userID uint64) []models.Notification {
	var out []models.Notification
	s.Require().NoError(s.db.Where("user_id = ? AND is_read = ?", userID, false).Order("id ASC").Find(&out).Error)
	return out
}

func (s *ServiceTestSuite) TestCreateThread() {
	svc := s.threadService()

	_, err := svc.CreateThread(s.ctx, s.household.ID, CreateThreadInput{Title: " "}, s.admin.ID)
	s.ErrorIs(err, ErrInvalidThreadTitle)

	_, err = svc.CreateThread(s.ctx, s.household.ID, CreateThreadInput{Title: "Hi", ParticipantIDs: []uint64{s.outsider.ID}}, s.admin.ID)
	s.ErrorIs(err, ErrParticipantNotMember)

	out, err := svc.CreateThread(s.ctx, s.household.ID, CreateThreadInput{
		Title:          "Hi",
		InitialMessage: "Anyone home?",
		ParticipantIDs: []uint64{s.member.ID, s.member.ID},
	}, s.admin.ID)
	s.Require().NoError(err)
	s.Len(out.Participants, 2)
	s.True(s.bus.Has(s.householdChannel(), EventThreadUpdate))
	s.True(s.bus.Has(s.householdChannel(), EventMessageUpdate))

	list, err := svc.GetThreads(s.ctx, s.household.ID, s.member.ID, utils.PaginationParams{Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.Len(list.Items, 1)
}

func (s *ServiceTestSuite) TestUpdateThread_AuthorOrAdmin() {
	threadID := s.createThread(s.member.ID)

	_, err := s.threadService().UpdateThread(s.ctx, s.household.ID, threadID, "Mine now", s.member.ID)
	s.ErrorIs(err, ErrNotThreadAuthor)

	out, err := s.threadService().UpdateThread(s.ctx, s.household.ID, threadID, "Renamed", s.admin.ID)
	s.Require().NoError(err)
	s.Equal("Renamed", out.Title)

	s.ErrorIs(s.threadService().DeleteThread(s.ctx, s.household.ID, threadID, s.member.ID), ErrAccessDenied)
	s.Require().NoError(s.threadService().DeleteThread(s.ctx, s.household.ID, threadID, s.admin.ID))
	_, err = s.threadService().GetThreadByID(s.ctx, s.household.ID, threadID, s.admin.ID)
	s.ErrorIs(err, ErrThreadNotFound)
}

func (s *ServiceTestSuite) TestCreateMessage_NotifiesParticipantsAndMentions() {
	third := s.outsider
	s.addActiveMember(third)
	threadID := s.createThread(s.member.ID, third.ID)

	out, err := s.messageService().CreateMessage(s.ctx, s.household.ID, threadID, CreateMessageInput{
		Content:          "Who took out the trash?",
		MentionedUserIDs: []uint64{s.member.ID},
		Attachments:      []AttachmentInput{{URL: "https://files.example.com/bin.jpg", FileType: "image/jpeg"}},
	}, s.admin.ID)
	s.Require().NoError(err)
	s.Len(out.Mentions, 1)
	s.Len(out.Attachments, 1)

	memberNotes := s.unreadNotifications(s.member.ID)
	s.Require().Len(memberNotes, 1)
	s.Equal(models.NotificationTypeMention, memberNotes[0].Type)

	thirdNotes := s.unreadNotifications(third.ID)
	s.Require().Len(thirdNotes, 1)
	s.Equal(models.NotificationTypeNewMessage, thirdNotes[0].Type)

	s.Empty(s.unreadNotifications(s.admin.ID))
	s.True(s.bus.Has(realtime.UserChannel(s.member.ID), EventNotificationUpdate))
	s.True(s.bus.Has(s.householdChannel(), EventMentionUpdate))

	count, err := s.messageService().GetUnreadMentionsCount(s.ctx, s.household.ID, s.member.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *ServiceTestSuite) TestCreateMessage_Validation() {
	threadID := s.createThread()
	svc := s.messageService()

	_, err := svc.CreateMessage(s.ctx, s.household.ID, threadID, CreateMessageInput{Content: "  "}, s.admin.ID)
	s.ErrorIs(err, ErrEmptyMessage)

	_, err = svc.CreateMessage(s.ctx, s.household.ID, threadID, CreateMessageInput{
		Content: "hey", MentionedUserIDs: []uint64{s.outsider.ID},
	}, s.admin.ID)
	s.ErrorIs(err, ErrMentionNotMember)

	_, err = svc.CreateMessage(s.ctx, s.household.ID, threadID+100, CreateMessageInput{Content: "hey"}, s.admin.ID)
	s.ErrorIs(err, ErrThreadNotFound)
}

func (s *ServiceTestSuite) TestMessage_AuthorAndModeration() {
	threadID := s.createThread(s.member.ID)
	svc := s.messageService()
	msg, err := svc.CreateMessage(s.ctx, s.household.ID, threadID, CreateMessageInput{Content: "first"}, s.member.ID)
	s.Require().NoError(err)

	_, err = svc.UpdateMessage(s.ctx, s.household.ID, threadID, msg.ID, "edited", s.admin.ID)
	s.ErrorIs(err, ErrNotMessageAuthor)

	edited, err := svc.UpdateMessage(s.ctx, s.household.ID, threadID, msg.ID, "edited", s.member.ID)
	s.Require().NoError(err)
	s.Equal("edited", edited.Content)

	s.Require().NoError(svc.DeleteMessage(s.ctx, s.household.ID, threadID, msg.ID, s.admin.ID))
	_, err = svc.GetReactions(s.ctx, s.household.ID, threadID, msg.ID, s.member.ID)
	s.ErrorIs(err, ErrMessageNotFound)
}

func (s *ServiceTestSuite) TestReactions() {
	threadID := s.createThread(s.member.ID)
	svc := s.messageService()
	msg, err := svc.CreateMessage(s.ctx, s.household.ID, threadID, CreateMessageInput{Content: "pizza?"}, s.admin.ID)
	s.Require().NoError(err)

	_, err = svc.AddReaction(s.ctx, s.household.ID, threadID, msg.ID, "MEH", s.member.ID)
	s.ErrorIs(err, ErrInvalidReactionType)

	reaction, err := svc.AddReaction(s.ctx, s.household.ID, threadID, msg.ID, models.ReactionLove, s.member.ID)
	s.Require().NoError(err)
	_, err = svc.AddReaction(s.ctx, s.household.ID, threadID, msg.ID, models.ReactionLove, s.member.ID)
	s.ErrorIs(err, ErrDuplicateReaction)
	_, err = svc.AddReaction(s.ctx, s.household.ID, threadID, msg.ID, models.ReactionLove, s.admin.ID)
	s.Require().NoError(err)

	s.ErrorIs(svc.RemoveReaction(s.ctx, s.household.ID, threadID, msg.ID, reaction.ID, s.admin.ID), ErrNotReactionOwner)
	s.Require().NoError(svc.RemoveReaction(s.ctx, s.household.ID, threadID, msg.ID, reaction.ID, s.member.ID))

	reactions, err := svc.GetReactions(s.ctx, s.household.ID, threadID, msg.ID, s.member.ID)
	s.Require().NoError(err)
	s.Len(reactions, 1)
}

func (s *ServiceTestSuite) TestReadReceiptsAndMentions() {
	threadID := s.createThread(s.member.ID)
	svc := s.messageService()
	msg, err := svc.CreateMessage(s.ctx, s.household.ID, threadID, CreateMessageInput{Content: "rent is due"}, s.admin.ID)
	s.Require().NoError(err)

	reads, err := svc.MarkMessageAsRead(s.ctx, s.household.ID, threadID, msg.ID, s.member.ID)
	s.Require().NoError(err)
	s.Require().Len(reads, 1)
	s.Equal(s.member.ID, reads[0].UserID)

	_, err = svc.MarkMessageAsRead(s.ctx, s.household.ID, threadID, msg.ID, s.member.ID)
	s.Require().NoError(err)
	status, err := svc.GetMessageReadStatus(s.ctx, s.household.ID, threadID, msg.ID, s.admin.ID)
	s.Require().NoError(err)
	s.Len(status, 1)

	mention, err := svc.CreateMention(s.ctx, s.household.ID, threadID, msg.ID, s.member.ID, s.admin.ID)
	s.Require().NoError(err)
	mentions, err := svc.GetUserMentions(s.ctx, s.household.ID, s.member.ID)
	s.Require().NoError(err)
	s.Len(mentions, 1)

	third := s.outsider
	s.addActiveMember(third)
	s.ErrorIs(svc.DeleteMention(s.ctx, s.household.ID, threadID, msg.ID, mention.ID, third.ID), ErrAccessDenied)
	s.Require().NoError(svc.DeleteMention(s.ctx, s.household.ID, threadID, msg.ID, mention.ID, s.member.ID))
}

func (s *ServiceTestSuite) TestAttachments() {
	threadID := s.createThread(s.member.ID)
	svc := s.messageService()
	msg, err := svc.CreateMessage(s.ctx, s.household.ID, threadID, CreateMessageInput{Content: "receipt"}, s.member.ID)
	s.Require().NoError(err)

	_, err = svc.AddAttachment(s.ctx, s.household.ID, threadID, msg.ID, AttachmentInput{URL: "https://x"}, s.admin.ID)
	s.ErrorIs(err, ErrNotMessageAuthor)
	_, err = svc.AddAttachment(s.ctx, s.household.ID, threadID, msg.ID, AttachmentInput{URL: " "}, s.member.ID)
	s.ErrorIs(err, ErrInvalidAttachmentURL)

	attachment, err := svc.AddAttachment(s.ctx, s.household.ID, threadID, msg.ID, AttachmentInput{URL: "https://files.example.com/a.pdf", FileType: "application/pdf"}, s.member.ID)
	s.Require().NoError(err)
	s.Require().NoError(svc.DeleteAttachment(s.ctx, s.household.ID, threadID, msg.ID, attachment.ID, s.admin.ID))
	s.ErrorIs(svc.DeleteAttachment(s.ctx, s.household.ID, threadID, msg.ID, attachment.ID, s.admin.ID), ErrAttachmentNotFound)
}

func (s *ServiceTestSuite) createPoll(pollType models.PollType) uint64 {
	threadID := s.createThread(s.member.ID)
	msg, err := s.messageService().CreateMessage(s.ctx, s.household.ID, threadID, CreateMessageInput{Content: "Dinner?"}, s.admin.ID)
	s.Require().NoError(err)
	poll, err := s.pollService().CreatePoll(s.ctx, s.household.ID, threadID, msg.ID, CreatePollInput{
		Question: "Where?",
		PollType: pollType,
		Options:  []PollOptionInput{{Text: "Thai"}, {Text: "Pizza"}},
	}, s.admin.ID)
	s.Require().NoError(err)
	return poll.ID
}

func (s *ServiceTestSuite) TestCreatePoll_Validation() {
	threadID := s.createThread(s.member.ID)
	msg, err := s.messageService().CreateMessage(s.ctx, s.household.ID, threadID, CreateMessageInput{Content: "Vote"}, s.admin.ID)
	s.Require().NoError(err)
	svc := s.pollService()
	options := []PollOptionInput{{Text: "A"}, {Text: "B"}}

	_, err = svc.CreatePoll(s.ctx, s.household.ID, threadID, msg.ID, CreatePollInput{Question: "Q", Options: options}, s.member.ID)
	s.ErrorIs(err, ErrNotMessageAuthor)
	_, err = svc.CreatePoll(s.ctx, s.household.ID, threadID, msg.ID, CreatePollInput{Question: "Q", Options: options[:1]}, s.admin.ID)
	s.ErrorIs(err, ErrInvalidPollOptions)
	_, err = svc.CreatePoll(s.ctx, s.household.ID, threadID, msg.ID, CreatePollInput{Question: "Q", PollType: "BORDA", Options: options}, s.admin.ID)
	s.ErrorIs(err, ErrInvalidPollType)

	poll, err := svc.CreatePoll(s.ctx, s.household.ID, threadID, msg.ID, CreatePollInput{Question: "Q", Options: options}, s.admin.ID)
	s.Require().NoError(err)
	s.Equal(models.PollTypeSingleChoice, poll.PollType)
	s.Equal(models.PollStatusOpen, poll.Status)

	_, err = svc.CreatePoll(s.ctx, s.household.ID, threadID, msg.ID, CreatePollInput{Question: "Q", Options: options}, s.admin.ID)
	s.ErrorIs(err, ErrPollExists)
}

func (s *ServiceTestSuite) TestVotePoll_SingleChoiceReplacesVote() {
	pollID := s.createPoll(models.PollTypeSingleChoice)
	svc := s.pollService()
	poll, err := svc.GetPoll(s.ctx, s.household.ID, pollID, s.member.ID)
	s.Require().NoError(err)
	first, second := poll.Options[0].ID, poll.Options[1].ID

	_, err = svc.VotePoll(s.ctx, s.household.ID, pollID, VoteInput{OptionID: first}, s.member.ID)
	s.Require().NoError(err)
	out, err := svc.VotePoll(s.ctx, s.household.ID, pollID, VoteInput{OptionID: second}, s.member.ID)
	s.Require().NoError(err)

	s.Empty(out.Options[0].Votes)
	s.Require().Len(out.Options[1].Votes, 1)
	s.True(s.bus.Has(s.householdChannel(), EventPollVoteUpdate))

	_, err = svc.VotePoll(s.ctx, s.household.ID, pollID, VoteInput{OptionID: second + 100}, s.member.ID)
	s.ErrorIs(err, ErrPollOptionNotFound)

	voteID := out.Options[1].Votes[0].ID
	_, err = svc.RemovePollVote(s.ctx, s.household.ID, pollID, voteID, s.admin.ID)
	s.ErrorIs(err, ErrNotVoteOwner)
	cleared, err := svc.RemovePollVote(s.ctx, s.household.ID, pollID, voteID, s.member.ID)
	s.Require().NoError(err)
	s.Empty(cleared.Options[1].Votes)
}

func (s *ServiceTestSuite) TestVotePoll_MultipleChoiceKeepsVotes() {
	pollID := s.createPoll(models.PollTypeMultipleChoice)
	svc := s.pollService()
	poll, err := svc.GetPoll(s.ctx, s.household.ID, pollID, s.member.ID)
	s.Require().NoError(err)

	for _, option := range poll.Options {
		_, err = svc.VotePoll(s.ctx, s.household.ID, pollID, VoteInput{OptionID: option.ID}, s.member.ID)
		s.Require().NoError(err)
	}
	out, err := svc.GetPoll(s.ctx, s.household.ID, pollID, s.member.ID)
	s.Require().NoError(err)
	s.Len(out.Options[0].Votes, 1)
	s.Len(out.Options[1].Votes, 1)
}

func (s *ServiceTestSuite) TestVotePoll_RejectsClosedOrExpiredPolls() {
	pollID := s.createPoll(models.PollTypeSingleChoice)
	svc := s.pollService()
	poll, err := svc.GetPoll(s.ctx, s.household.ID, pollID, s.member.ID)
	s.Require().NoError(err)
	vote := VoteInput{OptionID: poll.Options[0].ID}

	closed := models.PollStatusClosed
	_, err = svc.UpdatePoll(s.ctx, s.household.ID, pollID, UpdatePollInput{Status: &closed}, s.member.ID)
	s.ErrorIs(err, ErrNotPollCreator)
	_, err = svc.UpdatePoll(s.ctx, s.household.ID, pollID, UpdatePollInput{Status: &closed}, s.admin.ID)
	s.Require().NoError(err)
	_, err = svc.VotePoll(s.ctx, s.household.ID, pollID, vote, s.member.ID)
	s.ErrorIs(err, ErrPollNotActive)

	open := models.PollStatusOpen
	past := time.Now().Add(-time.Hour)
	_, err = svc.UpdatePoll(s.ctx, s.household.ID, pollID, UpdatePollInput{Status: &open, EndDate: &past}, s.admin.ID)
	s.Require().NoError(err)
	_, err = svc.VotePoll(s.ctx, s.household.ID, pollID, vote, s.member.ID)
	s.ErrorIs(err, ErrPollNotActive)
}

func (s *ServiceTestSuite) TestUpdatePoll_ReplacesOptions() {
	pollID := s.createPoll(models.PollTypeSingleChoice)
	options := []PollOptionInput{{Text: "Sushi"}, {Text: "Tacos"}, {Text: "Curry"}}

	out, err := s.pollService().UpdatePoll(s.ctx, s.household.ID, pollID, UpdatePollInput{Options: &options}, s.admin.ID)
	s.Require().NoError(err)
	s.Require().Len(out.Options, 3)
	s.Equal("Sushi", out.Options[0].Text)

	s.ErrorIs(s.pollService().DeletePoll(s.ctx, s.household.ID, pollID, s.member.ID), ErrNotPollCreator)
	s.Require().NoError(s.pollService().DeletePoll(s.ctx, s.household.ID, pollID, s.admin.ID))
	_, err = s.pollService().GetPoll(s.ctx, s.household.ID, pollID, s.admin.ID)
	s.ErrorIs(err, ErrPollNotFound)
}
