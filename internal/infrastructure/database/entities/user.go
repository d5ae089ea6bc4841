package entities

import (
	"time"

	"parley-server/chat-api/internal/domain/user"
)

// User maps external auth subjects to internal IDs.
type User struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Subject string `gorm:"type:varchar(255);uniqueIndex;not null"`
}

// TableName specifies the table name for User.
func (User) TableName() string {
	return "users"
}

// EtoD converts database entity to domain model
func (u *User) EtoD() *user.User {
	return &user.User{
		ID:        u.ID,
		Subject:   u.Subject,
		CreatedAt: u.CreatedAt,
	}
}
