package models

import "time"

// ForumTopic without a FilialID is club-wide.
type ForumTopic struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	FilialID    *uint      `gorm:"index" json:"filialId"`
	Branch      *Branch    `gorm:"foreignKey:FilialID" json:"-"`
	AuthorID    uint       `gorm:"not null;index" json:"authorId"`
	AuthorName  string     `gorm:"size:100" json:"authorName"`
	Title       string     `gorm:"size:150;not null" json:"title"`
	Body        string     `gorm:"type:text;not null" json:"body"`
	Closed      bool       `gorm:"not null;default:false" json:"closed"`
	Pinned      bool       `gorm:"not null;default:false" json:"pinned"`
	ReplyCount  int        `gorm:"not null;default:0" json:"replyCount"`
	LastReplyAt *time.Time `json:"lastReplyAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Replies []ForumReply `gorm:"foreignKey:TopicID;constraint:OnDelete:CASCADE" json:"-"`
}

type ForumReply struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TopicID    uint      `gorm:"not null;index" json:"topicId"`
	AuthorID   uint      `gorm:"not null" json:"authorId"`
	AuthorName string    `gorm:"size:100" json:"authorName"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
