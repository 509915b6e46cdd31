package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/rubenfitness/backend/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "fitness-service-session||"
	tokensSetKey     = "fitness-service-sessions"
)

// Admin is the coach account, allowed to see the admin dashboard
type Admin struct {
	Username     string
	PasswordHash string
}

type Service struct {
	redisClient *redis.Client
	ttl         time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewService(ttl time.Duration, redisClient *redis.Client) *Service {
	return &Service{
		ttl:            ttl,
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

func (s *Service) Login(ctx context.Context, createdAt time.Time) (string, error) {
	token, err := s.RandStringFunc(35)
	if err != nil {
		return "", err
	}

	sessionKey := sessionKeyPrefix + token
	if err := s.redisClient.Set(ctx, sessionKey, createdAt.Unix(), 0).Err(); err != nil {
		return "", err
	}

	// add token to the set of all sessions, for later cleanup
	if err := s.redisClient.SAdd(ctx, tokensSetKey, token).Err(); err != nil {
		return "", err
	}

	return token, nil
}

func (s *Service) Logout(ctx context.Context, token string) (bool, error) {
	sessionKey := sessionKeyPrefix + token
	if err := s.redisClient.Get(ctx, sessionKey).Err(); err != nil {
		return false, err
	}

	if err := s.redisClient.Del(ctx, sessionKey).Err(); err != nil {
		return false, err
	}
	if err := s.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
		return false, err
	}

	return true, nil
}

// ScanAndClean removes expired sessions from redis
func (s *Service) ScanAndClean(ctx context.Context) {
	tokens, err := s.redisClient.SMembers(ctx, tokensSetKey).Result()
	if err != nil {
		log.Errorf("auth service, scan and clean, get tokens: %s", err)
		return
	}

	var cleaned int
	for _, token := range tokens {
		sessionKey := sessionKeyPrefix + token
		createdAtUnixStr, err := s.redisClient.Get(ctx, sessionKey).Result()
		if err == redis.Nil {
			// session value gone, remove the dangling set member
			if err := s.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
				log.Errorf("auth service, scan and clean, remove dangling token: %s", err)
			}
			cleaned++
			continue
		} else if err != nil {
			log.Errorf("auth service, scan and clean, get session: %s", err)
			continue
		}

		createdAtUnix, err := strconv.ParseInt(createdAtUnixStr, 10, 64)
		if err != nil {
			log.Errorf("auth service, scan and clean, parse created at: %s", err)
			continue
		}

		if time.Since(time.Unix(createdAtUnix, 0)) <= s.ttl {
			continue
		}

		if err := s.redisClient.Del(ctx, sessionKey).Err(); err != nil {
			log.Errorf("auth service, scan and clean, delete session: %s", err)
			continue
		}
		if err := s.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
			log.Errorf("auth service, scan and clean, remove token: %s", err)
			continue
		}
		cleaned++
	}

	log.Debugf("auth service, scan and clean: %d sessions removed", cleaned)
}
