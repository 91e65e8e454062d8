package models

import (
	"time"

	"gorm.io/gorm"
)

type Thread struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	HouseholdID uint64         `gorm:"not null;index" json:"household_id"`
	AuthorID    uint64         `gorm:"not null" json:"author_id"`
	Title       string         `gorm:"size:200;not null" json:"title"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Author       *User               `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Participants []ThreadParticipant `gorm:"foreignKey:ThreadID" json:"participants,omitempty"`
}

type ThreadParticipant struct {
	ID       uint64    `gorm:"primarykey" json:"id"`
	ThreadID uint64    `gorm:"not null;uniqueIndex:idx_thread_participants_thread_user" json:"thread_id"`
	UserID   uint64    `gorm:"not null;uniqueIndex:idx_thread_participants_thread_user" json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

type Message struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	ThreadID  uint64         `gorm:"not null;index" json:"thread_id"`
	AuthorID  uint64         `gorm:"not null;index" json:"author_id"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Thread      *Thread       `gorm:"foreignKey:ThreadID" json:"thread,omitempty"`
	Author      *User         `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Attachments []Attachment  `gorm:"foreignKey:MessageID" json:"attachments,omitempty"`
	Reactions   []Reaction    `gorm:"foreignKey:MessageID" json:"reactions,omitempty"`
	Mentions    []Mention     `gorm:"foreignKey:MessageID" json:"mentions,omitempty"`
	Reads       []MessageRead `gorm:"foreignKey:MessageID" json:"reads,omitempty"`
	Poll        *Poll         `gorm:"foreignKey:MessageID" json:"poll,omitempty"`
}

type Attachment struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	MessageID uint64    `gorm:"not null;index" json:"message_id"`
	URL       string    `gorm:"not null" json:"url"`
	FileType  string    `gorm:"size:100" json:"file_type"`
	CreatedAt time.Time `json:"created_at"`
}

type Reaction struct {
	ID        uint64       `gorm:"primarykey" json:"id"`
	MessageID uint64       `gorm:"not null;uniqueIndex:idx_reactions_message_user_type" json:"message_id"`
	UserID    uint64       `gorm:"not null;uniqueIndex:idx_reactions_message_user_type" json:"user_id"`
	Type      ReactionType `gorm:"type:varchar(20);not null;uniqueIndex:idx_reactions_message_user_type" json:"type"`
	CreatedAt time.Time    `json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

type Mention struct {
	ID          uint64     `gorm:"primarykey" json:"id"`
	MessageID   uint64     `gorm:"not null;index" json:"message_id"`
	UserID      uint64     `gorm:"not null;index" json:"user_id"`
	MentionedAt time.Time  `json:"mentioned_at"`
	ReadAt      *time.Time `json:"read_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

type MessageRead struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	MessageID uint64    `gorm:"not null;uniqueIndex:idx_message_reads_message_user" json:"message_id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:idx_message_reads_message_user" json:"user_id"`
	ReadAt    time.Time `json:"read_at"`
}

type Poll struct {
	ID         uint64     `gorm:"primarykey" json:"id"`
	MessageID  uint64     `gorm:"not null;uniqueIndex" json:"message_id"`
	Question   string     `gorm:"not null" json:"question"`
	PollType   PollType   `gorm:"type:varchar(20);not null" json:"poll_type"`
	MaxChoices *int       `json:"max_choices"`
	EndDate    *time.Time `json:"end_date"`
	Status     PollStatus `gorm:"type:varchar(20);not null;default:'OPEN'" json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Relations
	Message *Message     `gorm:"foreignKey:MessageID" json:"-"`
	Options []PollOption `gorm:"foreignKey:PollID" json:"options,omitempty"`
}

type PollOption struct {
	ID        uint64     `gorm:"primarykey" json:"id"`
	PollID    uint64     `gorm:"not null;index" json:"poll_id"`
	Text      string     `gorm:"not null" json:"text"`
	Order     int        `gorm:"column:sort_order;not null;default:0" json:"order"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`

	// Relations
	Votes []PollVote `gorm:"foreignKey:OptionID" json:"votes,omitempty"`
}

type PollVote struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	PollID    uint64    `gorm:"not null;index" json:"poll_id"`
	OptionID  uint64    `gorm:"not null;index" json:"option_id"`
	UserID    uint64    `gorm:"not null;index" json:"user_id"`
	Rank      *int      `json:"rank"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
