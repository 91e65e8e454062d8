package dto

import (
	"time"

	"github.com/yukikurage/household-api/internal/models"
)

// ThreadDTO represents a discussion thread
type ThreadDTO struct {
	ID           uint64           `json:"id"`
	HouseholdID  uint64           `json:"household_id"`
	Title        string           `json:"title"`
	Author       *UserSummaryDTO  `json:"author,omitempty"`
	Participants []UserSummaryDTO `json:"participants"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// AttachmentDTO represents a file attached to a message
type AttachmentDTO struct {
	ID        uint64 `json:"id"`
	MessageID uint64 `json:"message_id"`
	URL       string `json:"url"`
	FileType  string `json:"file_type"`
}

// ReactionDTO represents a reaction on a message
type ReactionDTO struct {
	ID        uint64              `json:"id"`
	MessageID uint64              `json:"message_id"`
	UserID    uint64              `json:"user_id"`
	Type      models.ReactionType `json:"type"`
	User      *UserSummaryDTO     `json:"user,omitempty"`
}

// MentionDTO represents a mention of a user in a message
type MentionDTO struct {
	ID          uint64          `json:"id"`
	MessageID   uint64          `json:"message_id"`
	UserID      uint64          `json:"user_id"`
	MentionedAt time.Time       `json:"mentioned_at"`
	ReadAt      *time.Time      `json:"read_at"`
	User        *UserSummaryDTO `json:"user,omitempty"`
}

// ReadReceiptDTO represents a user having read a message
type ReadReceiptDTO struct {
	UserID uint64    `json:"user_id"`
	ReadAt time.Time `json:"read_at"`
}

// PollVoteDTO represents one vote
type PollVoteDTO struct {
	ID       uint64 `json:"id"`
	OptionID uint64 `json:"option_id"`
	UserID   uint64 `json:"user_id"`
	Rank     *int   `json:"rank,omitempty"`
}

// PollOptionDTO represents a poll option and its votes
type PollOptionDTO struct {
	ID        uint64        `json:"id"`
	Text      string        `json:"text"`
	Order     int           `json:"order"`
	StartTime *time.Time    `json:"start_time,omitempty"`
	EndTime   *time.Time    `json:"end_time,omitempty"`
	Votes     []PollVoteDTO `json:"votes"`
}

// PollDTO represents a poll attached to a message
type PollDTO struct {
	ID         uint64            `json:"id"`
	MessageID  uint64            `json:"message_id"`
	Question   string            `json:"question"`
	PollType   models.PollType   `json:"poll_type"`
	MaxChoices *int              `json:"max_choices"`
	EndDate    *time.Time        `json:"end_date"`
	Status     models.PollStatus `json:"status"`
	Options    []PollOptionDTO   `json:"options"`
}

// MessageDTO represents a message in a thread
type MessageDTO struct {
	ID          uint64           `json:"id"`
	ThreadID    uint64           `json:"thread_id"`
	HouseholdID uint64           `json:"household_id"`
	Content     string           `json:"content"`
	Author      UserSummaryDTO   `json:"author"`
	Attachments []AttachmentDTO  `json:"attachments"`
	Reactions   []ReactionDTO    `json:"reactions"`
	Mentions    []MentionDTO     `json:"mentions"`
	Reads       []ReadReceiptDTO `json:"reads"`
	Poll        *PollDTO         `json:"poll,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// ToThreadDTO converts a Thread model with its loaded relations
func ToThreadDTO(thread models.Thread) ThreadDTO {
	out := ThreadDTO{
		ID:           thread.ID,
		HouseholdID:  thread.HouseholdID,
		Title:        thread.Title,
		Author:       optionalUser(thread.Author),
		Participants: make([]UserSummaryDTO, 0, len(thread.Participants)),
		CreatedAt:    thread.CreatedAt,
		UpdatedAt:    thread.UpdatedAt,
	}
	for _, p := range thread.Participants {
		if p.User != nil {
			out.Participants = append(out.Participants, ToUserSummaryDTO(*p.User))
		}
	}
	return out
}

// ToThreadDTOs converts a slice of threads
func ToThreadDTOs(threads []models.Thread) []ThreadDTO {
	out := make([]ThreadDTO, len(threads))
	for i, t := range threads {
		out[i] = ToThreadDTO(t)
	}
	return out
}

// ToAttachmentDTO converts an Attachment model
func ToAttachmentDTO(a models.Attachment) AttachmentDTO {
	return AttachmentDTO{ID: a.ID, MessageID: a.MessageID, URL: a.URL, FileType: a.FileType}
}

// ToReactionDTO converts a Reaction model
func ToReactionDTO(r models.Reaction) ReactionDTO {
	return ReactionDTO{
		ID:        r.ID,
		MessageID: r.MessageID,
		UserID:    r.UserID,
		Type:      models.NormalizeReactionType(r.Type),
		User:      optionalUser(r.User),
	}
}

// ToReactionDTOs converts a slice of reactions
func ToReactionDTOs(reactions []models.Reaction) []ReactionDTO {
	out := make([]ReactionDTO, len(reactions))
	for i, r := range reactions {
		out[i] = ToReactionDTO(r)
	}
	return out
}

// ToMentionDTO converts a Mention model
func ToMentionDTO(m models.Mention) MentionDTO {
	return MentionDTO{
		ID:          m.ID,
		MessageID:   m.MessageID,
		UserID:      m.UserID,
		MentionedAt: m.MentionedAt,
		ReadAt:      m.ReadAt,
		User:        optionalUser(m.User),
	}
}

// ToMentionDTOs converts a slice of mentions
func ToMentionDTOs(mentions []models.Mention) []MentionDTO {
	out := make([]MentionDTO, len(mentions))
	for i, m := range mentions {
		out[i] = ToMentionDTO(m)
	}
	return out
}

// ToReadReceiptDTOs converts message reads
func ToReadReceiptDTOs(reads []models.MessageRead) []ReadReceiptDTO {
	out := make([]ReadReceiptDTO, len(reads))
	for i, r := range reads {
		out[i] = ReadReceiptDTO{UserID: r.UserID, ReadAt: r.ReadAt}
	}
	return out
}

// ToPollDTO converts a Poll model with options and votes
func ToPollDTO(poll models.Poll) PollDTO {
	out := PollDTO{
		ID:         poll.ID,
		MessageID:  poll.MessageID,
		Question:   poll.Question,
		PollType:   models.NormalizePollType(poll.PollType),
		MaxChoices: poll.MaxChoices,
		EndDate:    poll.EndDate,
		Status:     models.NormalizePollStatus(poll.Status),
		Options:    make([]PollOptionDTO, len(poll.Options)),
	}
	for i, o := range poll.Options {
		option := PollOptionDTO{
			ID:        o.ID,
			Text:      o.Text,
			Order:     o.Order,
			StartTime: o.StartTime,
			EndTime:   o.EndTime,
			Votes:     make([]PollVoteDTO, len(o.Votes)),
		}
		for j, v := range o.Votes {
			option.Votes[j] = PollVoteDTO{ID: v.ID, OptionID: v.OptionID, UserID: v.UserID, Rank: v.Rank}
		}
		out.Options[i] = option
	}
	return out
}

// ToMessageDTO converts a Message; the author and thread relations are required.
func ToMessageDTO(message models.Message) (MessageDTO, error) {
	if message.Author == nil {
		return MessageDTO{}, missing("Message", "Author")
	}
	if message.Thread == nil {
		return MessageDTO{}, missing("Message", "Thread")
	}
	out := MessageDTO{
		ID:          message.ID,
		ThreadID:    message.ThreadID,
		HouseholdID: message.Thread.HouseholdID,
		Content:     message.Content,
		Author:      ToUserSummaryDTO(*message.Author),
		Attachments: make([]AttachmentDTO, len(message.Attachments)),
		Reactions:   ToReactionDTOs(message.Reactions),
		Mentions:    ToMentionDTOs(message.Mentions),
		Reads:       ToReadReceiptDTOs(message.Reads),
		CreatedAt:   message.CreatedAt,
		UpdatedAt:   message.UpdatedAt,
	}
	for i, a := range message.Attachments {
		out.Attachments[i] = ToAttachmentDTO(a)
	}
	if message.Poll != nil {
		poll := ToPollDTO(*message.Poll)
		out.Poll = &poll
	}
	return out, nil
}

// ToMessageDTOs converts a slice of messages
func ToMessageDTOs(messages []models.Message) ([]MessageDTO, error) {
	out := make([]MessageDTO, len(messages))
	for i, m := range messages {
		dto, err := ToMessageDTO(m)
		if err != nil {
			return nil, err
		}
		out[i] = dto
	}
	return out, nil
}
