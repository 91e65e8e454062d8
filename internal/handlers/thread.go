package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/household-api/internal/models"
	"github.com/yukikurage/household-api/internal/services"
	"github.com/yukikurage/household-api/internal/utils"
)

// ThreadHandler serves threads, their messages and everything hanging off a
// message: reactions, mentions, attachments, read receipts and polls.
type ThreadHandler struct {
	threads  *services.ThreadService
	messages *services.MessageService
	polls    *services.PollService
}

func NewThreadHandler(threads *services.ThreadService, messages *services.MessageService, polls *services.PollService) *ThreadHandler {
	return &ThreadHandler{
		threads:  threads,
		messages: messages,
		polls:    polls,
	}
}

type attachmentRequest struct {
	URL      string `json:"url" binding:"required,url"`
	FileType string `json:"file_type"`
}

type pollOptionRequest struct {
	Text      string     `json:"text" binding:"required,max=200"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

func pollOptionInputs(reqs []pollOptionRequest) []services.PollOptionInput {
	out := make([]services.PollOptionInput, len(reqs))
	for i, r := range reqs {
		out[i] = services.PollOptionInput{Text: r.Text, StartTime: r.StartTime, EndTime: r.EndTime}
	}
	return out
}

func (h *ThreadHandler) ListThreads(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	threads, err := h.threads.GetThreads(c.Request.Context(), householdID, userID, utils.GetPaginationParams(c))
	respond(c, http.StatusOK, threads, err)
}

func (h *ThreadHandler) GetThread(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "threadId")
	if !ok {
		return
	}
	thread, err := h.threads.GetThreadByID(c.Request.Context(), ids[0], ids[1], userID)
	respond(c, http.StatusOK, thread, err)
}

func (h *ThreadHandler) CreateThread(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	var req struct {
		Title          string   `json:"title" binding:"required,max=200"`
		InitialMessage string   `json:"initial_message"`
		ParticipantIDs []uint64 `json:"participant_ids"`
	}
	if !bindJSON(c, &req) {
		return
	}
	thread, err := h.threads.CreateThread(c.Request.Context(), householdID, services.CreateThreadInput{
		Title:          req.Title,
		InitialMessage: req.InitialMessage,
		ParticipantIDs: req.ParticipantIDs,
	}, userID)
	respond(c, http.StatusCreated, thread, err)
}

func (h *ThreadHandler) UpdateThread(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "threadId")
	if !ok {
		return
	}
	var req struct {
		Title string `json:"title" binding:"required,max=200"`
	}
	if !bindJSON(c, &req) {
		return
	}
	thread, err := h.threads.UpdateThread(c.Request.Context(), ids[0], ids[1], req.Title, userID)
	respond(c, http.StatusOK, thread, err)
}

func (h *ThreadHandler) DeleteThread(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "threadId")
	if !ok {
		return
	}
	noContent(c, h.threads.DeleteThread(c.Request.Context(), ids[0], ids[1], userID))
}

func (h *ThreadHandler) InviteToThread(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "threadId")
	if !ok {
		return
	}
	var req struct {
		UserIDs []uint64 `json:"user_ids" binding:"required,min=1"`
	}
	if !bindJSON(c, &req) {
		return
	}
	thread, err := h.threads.InviteUsersToThread(c.Request.Context(), ids[0], ids[1], req.UserIDs, userID)
	respond(c, http.StatusOK, thread, err)
}

func (h *ThreadHandler) ListMessages(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "threadId")
	if !ok {
		return
	}
	messages, err := h.messages.GetMessages(c.Request.Context(), ids[0], ids[1], userID, utils.GetPaginationParams(c))
	respond(c, http.StatusOK, messages, err)
}

func (h *ThreadHandler) CreateMessage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "threadId")
	if !ok {
		return
	}
	var req struct {
		Content          string              `json:"content" binding:"required"`
		MentionedUserIDs []uint64            `json:"mentioned_user_ids"`
		Attachments      []attachmentRequest `json:"attachments" binding:"dive"`
	}
	if !bindJSON(c, &req) {
		return
	}
	attachments := make([]services.AttachmentInput, len(req.Attachments))
	for i, a := range req.Attachments {
		attachments[i] = services.AttachmentInput{URL: a.URL, FileType: a.FileType}
	}
	message, err := h.messages.CreateMessage(c.Request.Context(), ids[0], ids[1], services.CreateMessageInput{
		Content:          req.Content,
		MentionedUserIDs: req.MentionedUserIDs,
		Attachments:      attachments,
	}, userID)
	respond(c, http.StatusCreated, message, err)
}

func (h *ThreadHandler) UpdateMessage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "threadId", "messageId")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	message, err := h.messages.UpdateMessage(c.Request.Context(), ids[0], ids[1], ids[2], req.Content, userID)
	respond(c, http.StatusOK, message, err)
}

func (h *ThreadHandler) DeleteMessage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "threadId", "messageId")
	if !ok {
		return
	}
	noContent(c, h.messages.DeleteMessage(c.Request.Context(), ids[0], ids[1], ids[2], userID))
}

func (h *ThreadHandler) MarkMessageRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "threadId", "messageId")
	if !ok {
		return
	}
	receipts, err := h.messages.MarkMessageAsRead(c.Request.Context(), ids[0], ids[1], ids[2], userID)
	respond(c, http.StatusOK, receipts, err)
}

func (h *ThreadHandler) GetReadStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "threadId", "messageId")
	if !ok {
		return
	}
	receipts, err := h.messages.GetMessageReadStatus(c.Request.Context(), ids[0], ids[1], ids[2], userID)
	respond(c, http.StatusOK, receipts, err)
}

func (h *ThreadHandler) ListReactions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "threadId", "messageId")
	if !ok {
		return
	}
	reactions, err := h.messages.GetReactions(c.Request.Context(), ids[0], ids[1], ids[2], userID)
	respond(c, http.StatusOK, reactions, err)
}

func (h *ThreadHandler) AddReaction(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "threadId", "messageId")
	if !ok {
		return
	}
	var req struct {
		Type models.ReactionType `json:"type" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	reaction, err := h.messages.AddReaction(c.Request.Context(), ids[0], ids[1], ids[2], req.Type, userID)
	respond(c, http.StatusCreated, reaction, err)
}

func (h *ThreadHandler) RemoveReaction(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "threadId", "messageId", "reactionId")
	if !ok {
		return
	}
	noContent(c, h.messages.RemoveReaction(c.Request.Context(), ids[0], ids[1], ids[2], ids[3], userID))
}

func (h *ThreadHandler) CreateMention(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "threadId", "messageId")
	if !ok {
		return
	}
	var req struct {
		UserID uint64 `json:"user_id" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	mention, err := h.messages.CreateMention(c.Request.Context(), ids[0], ids[1], ids[2], req.UserID, userID)
	respond(c, http.StatusCreated, mention, err)
}

func (h *ThreadHandler) DeleteMention(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "threadId", "messageId", "mentionId")
	if !ok {
		return
	}
	noContent(c, h.messages.DeleteMention(c.Request.Context(), ids[0], ids[1], ids[2], ids[3], userID))
}

// ListMyMentions returns the caller's mentions in the household.
func (h *ThreadHandler) ListMyMentions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	mentions, err := h.messages.GetUserMentions(c.Request.Context(), householdID, userID)
	respond(c, http.StatusOK, mentions, err)
}

func (h *ThreadHandler) UnreadMentionsCount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	householdID, ok := pathID(c, "householdId")
	if !ok {
		return
	}
	count, err := h.messages.GetUnreadMentionsCount(c.Request.Context(), householdID, userID)
	respond(c, http.StatusOK, gin.H{"count": count}, err)
}

func (h *ThreadHandler) AddAttachment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "threadId", "messageId")
	if !ok {
		return
	}
	var req attachmentRequest
	if !bindJSON(c, &req) {
		return
	}
	attachment, err := h.messages.AddAttachment(c.Request.Context(), ids[0], ids[1], ids[2], services.AttachmentInput{
		URL:      req.URL,
		FileType: req.FileType,
	}, userID)
	respond(c, http.StatusCreated, attachment, err)
}

func (h *ThreadHandler) DeleteAttachment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "threadId", "messageId", "attachmentId")
	if !ok {
		return
	}
	noContent(c, h.messages.DeleteAttachment(c.Request.Context(), ids[0], ids[1], ids[2], ids[3], userID))
}

// CreatePoll attaches a poll to a message.
func (h *ThreadHandler) CreatePoll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "threadId", "messageId")
	if !ok {
		return
	}
	var req struct {
		Question   string              `json:"question" binding:"required,max=500"`
		PollType   models.PollType     `json:"poll_type"`
		MaxChoices *int                `json:"max_choices"`
		EndDate    *time.Time          `json:"end_date"`
		Options    []pollOptionRequest `json:"options" binding:"required,dive"`
	}
	if !bindJSON(c, &req) {
		return
	}
	poll, err := h.polls.CreatePoll(c.Request.Context(), ids[0], ids[1], ids[2], services.CreatePollInput{
		Question:   req.Question,
		PollType:   req.PollType,
		MaxChoices: req.MaxChoices,
		EndDate:    req.EndDate,
		Options:    pollOptionInputs(req.Options),
	}, userID)
	respond(c, http.StatusCreated, poll, err)
}

func (h *ThreadHandler) GetPoll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "pollId")
	if !ok {
		return
	}
	poll, err := h.polls.GetPoll(c.Request.Context(), ids[0], ids[1], userID)
	respond(c, http.StatusOK, poll, err)
}

func (h *ThreadHandler) UpdatePoll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "pollId")
	if !ok {
		return
	}
	var req struct {
		Question   *string              `json:"question" binding:"omitempty,max=500"`
		Status     *models.PollStatus   `json:"status"`
		MaxChoices *int                 `json:"max_choices"`
		EndDate    *time.Time           `json:"end_date"`
		Options    *[]pollOptionRequest `json:"options"`
	}
	if !bindJSON(c, &req) {
		return
	}
	input := services.UpdatePollInput{
		Question:   req.Question,
		Status:     req.Status,
		MaxChoices: req.MaxChoices,
		EndDate:    req.EndDate,
	}
	if req.Options != nil {
		options := pollOptionInputs(*req.Options)
		input.Options = &options
	}
	poll, err := h.polls.UpdatePoll(c.Request.Context(), ids[0], ids[1], input, userID)
	respond(c, http.StatusOK, poll, err)
}

func (h *ThreadHandler) DeletePoll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "pollId")
	if !ok {
		return
	}
	noContent(c, h.polls.DeletePoll(c.Request.Context(), ids[0], ids[1], userID))
}

func (h *ThreadHandler) VotePoll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "pollId")
	if !ok {
		return
	}
	var req struct {
		OptionID uint64 `json:"option_id" binding:"required"`
		Rank     *int   `json:"rank"`
	}
	if !bindJSON(c, &req) {
		return
	}
	poll, err := h.polls.VotePoll(c.Request.Context(), ids[0], ids[1], services.VoteInput{OptionID: req.OptionID, Rank: req.Rank}, userID)
	respond(c, http.StatusOK, poll, err)
}

func (h *ThreadHandler) RemoveVote(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "householdId", "pollId", "voteId")
	if !ok {
		return
	}
	poll, err := h.polls.RemovePollVote(c.Request.Context(), ids[0], ids[1], ids[2], userID)
	respond(c, http.StatusOK, poll, err)
}
