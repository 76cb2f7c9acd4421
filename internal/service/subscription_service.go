package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"vidtube/internal/domain"
	"vidtube/internal/repository"
)

var ErrSelfSubscription = errors.New("cannot subscribe to own channel")

// SubscriptionService toggles subscriber/channel pairs.
type SubscriptionService struct {
	users repository.UserRepository
	subs  repository.SubscriptionRepository
}

func NewSubscriptionService(users repository.UserRepository, subs repository.SubscriptionRepository) *SubscriptionService {
	return &SubscriptionService{users: users, subs: subs}
}

// Toggle subscribes the caller to the channel, or unsubscribes when a
// subscription already exists. Returns the resulting subscribed state.
func (s *SubscriptionService) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	if subscriberID == channelID {
		return false, ErrSelfSubscription
	}

	if _, err := s.users.GetByID(ctx, channelID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("load channel: %w", err)
	}

	exists, err := s.subs.Exists(ctx, subscriberID, channelID)
	if err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}
	if exists {
		if err := s.subs.Delete(ctx, subscriberID, channelID); err != nil {
			return false, fmt.Errorf("delete subscription: %w", err)
		}
		return false, nil
	}

	sub := domain.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: subscriberID,
		ChannelID:    channelID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		return false, fmt.Errorf("create subscription: %w", err)
	}
	return true, nil
}
