package chat

import "time"

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Message is one side of a turn. It is never modified after it is appended.
type Message struct {
	Seq       uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	ID        string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"id"`
	UserID    string    `gorm:"type:varchar(128);index:idx_chat_msg_user_seq,priority:1;not null" json:"-"`
	Role      Role      `gorm:"type:varchar(16);not null" json:"role"`
	Text      *string   `gorm:"type:text" json:"text"`
	FileURL   *string   `gorm:"type:varchar(512)" json:"file_url"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
}

func (Message) TableName() string { return "chat_messages" }

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
