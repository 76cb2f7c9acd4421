package domain

import "time"

// User is an account on the platform. PasswordHash and RefreshToken
// never leave the process through JSON.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullname"`
	PasswordHash  string    `json:"-"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage"`
	RefreshToken  string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Sanitized returns a copy safe to embed in API responses.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.RefreshToken = ""
	return u
}

// ChannelProfile is the public projection of a user viewed as a
// channel, with subscription counts relative to the caller.
type ChannelProfile struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	FullName          string `json:"fullname"`
	Email             string `json:"email"`
	AvatarURL         string `json:"avatar"`
	CoverImageURL     string `json:"coverImage"`
	SubscribersCount  int64  `json:"subscribersCount"`
	SubscribedToCount int64  `json:"subscribedToCount"`
	IsSubscribed      bool   `json:"isSubscribed"`
}
