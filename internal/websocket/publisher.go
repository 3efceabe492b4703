package websocket

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"studyhall-backend/internal/models"
)

func noticeChannel(userID uuid.UUID) string {
	return "learner_notices:" + userID.String()
}

// Publisher pushes notices onto the per-learner redis channel the hub relays
// from. Publishing goes through redis rather than the hub directly so notices
// reach connections held by any instance.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(userID uuid.UUID, n models.Notice) {
	data, err := json.Marshal(n)
	if err != nil {
		log.Printf("notice marshal failed for user %s: %v", userID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.client.Publish(ctx, noticeChannel(userID), data).Err(); err != nil {
		log.Printf("notice publish failed for user %s: %v", userID, err)
	}
}
