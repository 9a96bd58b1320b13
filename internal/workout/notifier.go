package workout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const restChannelPrefix = "gymtracker:rest:"

// RestEvent is emitted when a rest countdown reaches zero.
type RestEvent struct {
	RunID      string    `json:"runId"`
	SessionID  string    `json:"sessionId"`
	Username   string    `json:"username"`
	Exercise   string    `json:"exercise"`
	SetIndex   int       `json:"setIndex"`
	FinishedAt time.Time `json:"finishedAt"`
}

type Notifier interface {
	RestFinished(ctx context.Context, event RestEvent)
}

func RestChannel(username string) string {
	return restChannelPrefix + username
}

// RedisNotifier publishes rest events on a per user pub/sub channel, so a
// client that was not watching the countdown still gets the completion.
type RedisNotifier struct {
	redisClient *redis.Client
}

func NewRedisNotifier(redisClient *redis.Client) *RedisNotifier {
	return &RedisNotifier{redisClient: redisClient}
}

func (n *RedisNotifier) RestFinished(ctx context.Context, event RestEvent) {
	log.Infof("rest finished for [%s]: %s set %d", event.Username, event.Exercise, event.SetIndex)

	payload, err := json.Marshal(event)
	if err != nil {
		log.Errorf("rest notifier, marshal event: %s", err)
		return
	}

	if err := n.redisClient.Publish(ctx, RestChannel(event.Username), payload).Err(); err != nil {
		log.Errorf("rest notifier, publish to %s: %s", RestChannel(event.Username), err)
	}
}

type LogNotifier struct{}

func (LogNotifier) RestFinished(_ context.Context, event RestEvent) {
	log.Infof("rest finished for [%s]: %s set %d", event.Username, event.Exercise, event.SetIndex)
}
