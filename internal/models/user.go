package models

import "time"

// DefaultAvatarURL is used when a user has not uploaded a profile picture.
const DefaultAvatarURL = "https://icon-library.com/images/anonymous-avatar-icon/anonymous-avatar-icon-25.jpg"

// User represents a registered account. The password hash is never serialized.
type User struct {
	ID        int       `db:"id" json:"id"`
	Fullname  string    `db:"fullname" json:"fullname"`
	Email     string    `db:"email" json:"email"`
	Password  string    `db:"password" json:"-"`
	Pic       string    `db:"pic" json:"pic"`
	Bio       string    `db:"bio" json:"bio"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
