package dto

import "github.com/spec-kit/ticket-bot/internal/domain"

// UserPayload identifies the platform user on whose behalf an intent runs.
type UserPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Tag      string `json:"tag"`
}

// Domain converts the payload into a domain.User.
func (u UserPayload) Domain() domain.User {
	return domain.User{ID: u.ID, Username: u.Username, Tag: u.Tag}
}

// Missing reports whether the identifying fields are absent.
func (u UserPayload) Missing() bool {
	return u.ID == "" || u.Username == ""
}

// UserResponse mirrors a domain.User.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Tag      string `json:"tag"`
}

// NewUserResponse maps a user; nil stays nil.
func NewUserResponse(u *domain.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{ID: u.ID, Username: u.Username, Tag: u.DisplayTag()}
}
