package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	Username     string    `gorm:"primaryKey;size:50"                  json:"username"`
	PasswordHash string    `gorm:"size:100;not null"                   json:"-"`
	Email        string    `gorm:"size:128;uniqueIndex;not null"       json:"email"`
	IsBanned     bool      `gorm:"not null;default:false"              json:"is_banned"`
	IsVerified   bool      `gorm:"not null;default:false"              json:"is_verified"`
	IsAdmin      bool      `gorm:"not null;default:false"              json:"is_admin"`
	FullName     string    `gorm:"size:100"                            json:"full_name"`
	Phone        string    `gorm:"size:20"                             json:"phone"`
	Address      string    `gorm:"size:255"                            json:"address"`
	Picture      string    `gorm:"size:255"                            json:"picture"`
	CreatedAt    time.Time `                                           json:"created_at"`
	UpdatedAt    time.Time `                                           json:"-"`
}

func (u *User) Role() string {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// RevokedToken is append-only; a jti present here is never accepted again.
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;size:64" json:"jti"`
	RevokedAt time.Time `gorm:"not null"           json:"revoked_at"`
	ExpiresAt time.Time `gorm:"index"              json:"expires_at"`
}

// Session holds the single live session of a user.
type Session struct {
	Username  string    `gorm:"primaryKey;size:50"  json:"username"`
	SessionID string    `gorm:"size:36;not null"    json:"session_id"`
	TokenHash string    `gorm:"size:64;not null"    json:"-"`
	ExpiresAt time.Time `gorm:"not null"            json:"expires_at"`
	CreatedAt time.Time `                           json:"created_at"`
	UpdatedAt time.Time `                           json:"updated_at"`
}

func AllModels() []any {
	return []any{
		&User{},
		&RevokedToken{},
		&Session{},
		&Product{},
		&Picture{},
		&UserReport{},
		&ProductReport{},
	}
}
