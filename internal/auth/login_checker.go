package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jonboulle/clockwork"
)

type LoginChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
	clock       clockwork.Clock
}

func NewLoginChecker(ttl time.Duration, redisClient *redis.Client, clock clockwork.Clock) *LoginChecker {
	return &LoginChecker{
		ttl:         ttl,
		redisClient: redisClient,
		clock:       clock,
	}
}

func (lc *LoginChecker) IsLogged(ctx context.Context, token string) (*LoginSession, error) {
	sessionKey := sessionKeyPrefix + token
	cmd := lc.redisClient.Get(ctx, sessionKey)
	if errors.Is(cmd.Err(), redis.Nil) {
		return nil, nil
	} else if err := cmd.Err(); err != nil {
		return nil, err
	}

	session, err := decodeSession(token, cmd.Val())
	if err != nil {
		return nil, err
	}

	if lc.clock.Since(session.CreatedAt) > lc.ttl {
		return nil, nil
	}

	return session, nil
}
