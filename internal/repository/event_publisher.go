package repository

import (
	"context"

	"aegis/backend/internal/model"
	"aegis/backend/pkg/redis"
)

// EventPublisher broadcasts position lifecycle events on the position update
// channel for dashboards and the operator notifier.
type EventPublisher struct {
	redis *redis.Client
}

func NewEventPublisher(redisClient *redis.Client) *EventPublisher {
	return &EventPublisher{redis: redisClient}
}

func (p *EventPublisher) PublishPosition(ctx context.Context, event model.PositionEvent) error {
	return p.redis.PublishJSON(ctx, redis.ChannelPositionUpdate, event)
}
