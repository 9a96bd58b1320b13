package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/gymtracker/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	TokenHeader      = "X-GYM-TOKEN"
	sessionKeyPrefix = "gymtracker-session||"
	tokensSetKey     = "gymtracker-sessions"
	tokenLength      = 35
)

var ErrInvalidSessionValue = errors.New("invalid login session value")

type LoginSession struct {
	Token     string
	Username  string
	CreatedAt time.Time
}

// session values are stored as "<created-at-unix>|<username>"
func encodeSession(username string, createdAt time.Time) string {
	return fmt.Sprintf("%d|%s", createdAt.Unix(), username)
}

func decodeSession(token, value string) (*LoginSession, error) {
	parts := strings.SplitN(value, "|", 2)
	if len(parts) != 2 {
		return nil, ErrInvalidSessionValue
	}
	createdAtUnix, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSessionValue, err)
	}
	return &LoginSession{
		Token:     token,
		Username:  parts[1],
		CreatedAt: time.Unix(createdAtUnix, 0),
	}, nil
}

// Service issues and revokes redis backed login tokens.
type Service struct {
	redisClient *redis.Client
	ttl         time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewAuthService(
	ttl time.Duration,
	redisClient *redis.Client,
) *Service {
	return &Service{
		ttl:            ttl,
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

func (as *Service) Login(ctx context.Context, username string, createdAt time.Time) (string, error) {
	token, err := as.RandStringFunc(tokenLength)
	if err != nil {
		return "", err
	}

	sessionKey := sessionKeyPrefix + token
	cmdSet := as.redisClient.Set(ctx, sessionKey, encodeSession(username, createdAt), 0)
	if err := cmdSet.Err(); err != nil {
		return "", err
	}

	// add token to list of sessions
	cmdSAdd := as.redisClient.SAdd(ctx, tokensSetKey, token)
	if err := cmdSAdd.Err(); err != nil {
		return "", err
	}

	return token, nil
}

// Logout removes the token. It reports false when the token was unknown.
func (as *Service) Logout(ctx context.Context, token string) (bool, error) {
	sessionKey := sessionKeyPrefix + token
	cmdDel := as.redisClient.Del(ctx, sessionKey)
	if err := cmdDel.Err(); err != nil {
		return false, err
	}

	// remove token from the list of sessions
	cmdSRem := as.redisClient.SRem(ctx, tokensSetKey, token)
	if err := cmdSRem.Err(); err != nil {
		return false, err
	}

	return cmdDel.Val() > 0, nil
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old.
// It returns the removed tokens.
func (as *Service) ScanAndClean(ctx context.Context, now time.Time) []string {
	cmd := as.redisClient.SMembers(ctx, tokensSetKey)
	if err := cmd.Err(); err != nil {
		log.Errorf("!!! auth service, scan and clean, get sessions: %s", err)
		return nil
	}

	sessionTokens := cmd.Val()
	if len(sessionTokens) == 0 {
		log.Debugln("=> auth service, scan and clean abort, no sessions")
		return nil
	}

	log.Infof("=> auth service, scan and clean [%d sessions] start ...", len(sessionTokens))
	var toRemove []string
	for _, token := range sessionTokens {
		sessionKey := sessionKeyPrefix + token
		cmd := as.redisClient.Get(ctx, sessionKey)
		if errors.Is(cmd.Err(), redis.Nil) {
			// dangling set member
			toRemove = append(toRemove, token)
			continue
		} else if err := cmd.Err(); err != nil {
			log.Errorf("=> auth service, scan and clean token: %s", err)
			continue
		}

		session, err := decodeSession(token, cmd.Val())
		if err != nil {
			log.Errorf("=> auth service, scan and clean token: %s", err)
			toRemove = append(toRemove, token)
			continue
		}

		if now.Sub(session.CreatedAt) > as.ttl {
			log.Infof("=>\twill clean the session of user: %s", session.Username)
			toRemove = append(toRemove, token)
		}
	}

	removed := make([]string, 0, len(toRemove))
	for _, token := range toRemove {
		sessionKey := sessionKeyPrefix + token
		cmdDel := as.redisClient.Del(ctx, sessionKey)
		if err := cmdDel.Err(); err != nil {
			log.Errorf("=> auth service, clean token: %s", err)
			continue
		}

		// remove token from the list of sessions
		cmdSRem := as.redisClient.SRem(ctx, tokensSetKey, token)
		if err := cmdSRem.Err(); err != nil {
			log.Errorf("=> auth service, clean token: %s", err)
			continue
		}
		removed = append(removed, token)
	}

	return removed
}
