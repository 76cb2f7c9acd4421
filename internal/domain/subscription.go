package domain

import "time"

// Subscription links a subscriber to a channel (both users). It is
// read through aggregation queries; the pair is unique.
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriber_id"`
	ChannelID    string    `json:"channel_id"`
	CreatedAt    time.Time `json:"created_at"`
}
