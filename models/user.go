package models

import (
	"strconv"
	"time"
)

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// SenderID is the string form used on messages.
func (u User) SenderID() string { return strconv.FormatInt(u.ID, 10) }
