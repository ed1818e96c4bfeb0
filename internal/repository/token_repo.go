package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/mathieu-neron/creatordash/pkg/hash"
)

// tokenRefreshGrace keeps an access-only token cached slightly past its
// expiry so a clock skew does not drop it early.
const tokenRefreshGrace = time.Minute

// TokenRepo caches the owner's OAuth token in Redis so a restart can resume
// the session without a new consent round-trip. With a nil client every
// operation is a no-op.
type TokenRepo struct {
	rdb *redis.Client
	key string
}

// NewTokenRepo connects to redisURL. An empty or unreachable URL yields a
// repo with caching disabled.
func NewTokenRepo(redisURL, clientID string) *TokenRepo {
	repo := &TokenRepo{key: tokenKey(clientID)}
	if redisURL == "" {
		log.Info().Msg("redis: no URL configured, token cache disabled")
		return repo
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis: invalid URL, token cache disabled")
		return repo
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: connection failed, token cache disabled")
		_ = rdb.Close()
		return repo
	}

	log.Info().Msg("redis: connected, token cache enabled")
	repo.rdb = rdb
	return repo
}

// NewTokenRepoWithClient wraps an existing client.
func NewTokenRepoWithClient(rdb *redis.Client, clientID string) *TokenRepo {
	return &TokenRepo{rdb: rdb, key: tokenKey(clientID)}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (r *TokenRepo) Client() *redis.Client {
	return r.rdb
}

// Load returns the cached token, or nil when none is cached.
func (r *TokenRepo) Load(ctx context.Context) (*oauth2.Token, error) {
	if r.rdb == nil {
		return nil, nil
	}
	data, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		// A corrupt entry is dropped rather than blocking every startup.
		_ = r.rdb.Del(ctx, r.key).Err()
		return nil, nil
	}
	return &tok, nil
}

// Save caches the token. Tokens without a refresh token expire from the cache
// together with the access token.
func (r *TokenRepo) Save(ctx context.Context, tok *oauth2.Token) error {
	if r.rdb == nil || tok == nil {
		return nil
	}
	b, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.key, b, tokenTTL(tok, time.Now())).Err()
}

// Clear removes the cached token.
func (r *TokenRepo) Clear(ctx context.Context) error {
	if r.rdb == nil {
		return nil
	}
	return r.rdb.Del(ctx, r.key).Err()
}

// Close shuts down the Redis connection.
func (r *TokenRepo) Close() error {
	if r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}

// tokenTTL returns 0 (no expiry) for refreshable tokens.
func tokenTTL(tok *oauth2.Token, now time.Time) time.Duration {
	if tok.RefreshToken != "" || tok.Expiry.IsZero() {
		return 0
	}
	ttl := tok.Expiry.Sub(now) + tokenRefreshGrace
	if ttl <= 0 {
		return time.Second
	}
	return ttl
}

func tokenKey(clientID string) string {
	return "token:" + hash.Prefix(clientID, 16)
}
