package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/rerack/pkg"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "rerack-session||"
	tokensSetKey     = "rerack-sessions"
	tokenLength      = 35
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrEmptyUserID     = errors.New("empty user id")
)

// SessionStore keeps login sessions in redis, keyed by token.
type SessionStore struct {
	redisClient *redis.Client
	ttl         time.Duration
	// injectable token generator (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewSessionStore(ttl time.Duration, redisClient *redis.Client) *SessionStore {
	return &SessionStore{
		ttl:            ttl,
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

func sessionValue(userID string, createdAt time.Time) string {
	return fmt.Sprintf("%d|%s", createdAt.Unix(), userID)
}

func parseSessionValue(value string) (userID string, createdAt time.Time, err error) {
	createdAtStr, userID, ok := strings.Cut(value, "|")
	if !ok || userID == "" {
		return "", time.Time{}, fmt.Errorf("malformed session value: %q", value)
	}
	createdAtUnix, err := strconv.ParseInt(createdAtStr, 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("parse session created at: %w", err)
	}
	return userID, time.Unix(createdAtUnix, 0), nil
}

func (s *SessionStore) Login(ctx context.Context, userID string, createdAt time.Time) (*Session, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	token, err := s.RandStringFunc(tokenLength)
	if err != nil {
		return nil, err
	}

	sessionKey := sessionKeyPrefix + token
	if err := s.redisClient.Set(ctx, sessionKey, sessionValue(userID, createdAt), 0).Err(); err != nil {
		return nil, err
	}

	// add token to the set of sessions
	if err := s.redisClient.SAdd(ctx, tokensSetKey, token).Err(); err != nil {
		return nil, err
	}

	return &Session{
		UserID:    userID,
		Token:     token,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(s.ttl),
	}, nil
}

// Resolve returns the session behind a token.
func (s *SessionStore) Resolve(ctx context.Context, token string) (*Session, error) {
	cmd := s.redisClient.Get(ctx, sessionKeyPrefix+token)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	userID, createdAt, err := parseSessionValue(cmd.Val())
	if err != nil {
		return nil, err
	}

	if time.Since(createdAt) > s.ttl {
		return nil, ErrSessionExpired
	}

	return &Session{
		UserID:    userID,
		Token:     token,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(s.ttl),
	}, nil
}

func (s *SessionStore) IsLogged(ctx context.Context, token string) (bool, error) {
	_, err := s.Resolve(ctx, token)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionExpired):
		return false, nil
	default:
		return false, err
	}
}

func (s *SessionStore) Logout(ctx context.Context, token string) error {
	if err := s.redisClient.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return err
	}
	// remove token from the set of sessions
	return s.redisClient.SRem(ctx, tokensSetKey, token).Err()
}

// ScanAndClean runs through all sessions and removes the expired ones.
func (s *SessionStore) ScanAndClean(ctx context.Context) {
	cmd := s.redisClient.SMembers(ctx, tokensSetKey)
	if err := cmd.Err(); err != nil {
		log.Errorf("session store, scan and clean, get sessions: %s", err)
		return
	}

	sessionTokens := cmd.Val()
	if len(sessionTokens) == 0 {
		log.Debugln("session store, scan and clean abort, no sessions")
		return
	}

	log.Debugf("session store, scan and clean [%d sessions] start ...", len(sessionTokens))
	var toRemove []string
	for _, token := range sessionTokens {
		cmd := s.redisClient.Get(ctx, sessionKeyPrefix+token)
		if err := cmd.Err(); err != nil {
			if errors.Is(err, redis.Nil) {
				toRemove = append(toRemove, token)
				continue
			}
			log.Errorf("session store, scan and clean token %s: %s", token, err)
			continue
		}

		_, createdAt, err := parseSessionValue(cmd.Val())
		if err != nil {
			log.Errorf("session store, scan and clean token %s: %s", token, err)
			continue
		}

		if time.Since(createdAt) > s.ttl {
			toRemove = append(toRemove, token)
		}
	}

	for _, token := range toRemove {
		if err := s.Logout(ctx, token); err != nil {
			log.Errorf("session store, clean token %s: %s", token, err)
		}
	}
}
