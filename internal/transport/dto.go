package transport

import "time"

type RegisterRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Email    string `json:"email"    form:"email"`
}

type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// TokenRequest lets non-browser clients pass the refresh token in the body.
type TokenRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

type ResendRequest struct {
	Email string `json:"email" form:"email"`
}

type PatchProfileRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
}

type ReportUserRequest struct {
	ReportedUser string `json:"reported_user" form:"reported_user"`
	Description  string `json:"description"   form:"description"`
}

type ReportProductRequest struct {
	Description string `json:"description" form:"description"`
}

type TokenResponse struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	IsAdmin          bool      `json:"is_admin"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
