package domain

import "time"

type Video struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"videoFile"`
	ThumbnailURL string    `json:"thumbnail"`
	Duration     float64   `json:"duration"`
	IsPublished  bool      `json:"isPublished"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VideoOwner is the slim owner projection attached to watch-history
// entries.
type VideoOwner struct {
	Username  string `json:"username"`
	FullName  string `json:"fullname"`
	AvatarURL string `json:"avatar"`
}

// WatchedVideo is a video joined with its owner, in the order the
// caller watched it.
type WatchedVideo struct {
	Video
	Owner VideoOwner `json:"owner"`
}
