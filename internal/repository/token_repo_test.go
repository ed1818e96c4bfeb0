package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

func newTestTokenRepo(t *testing.T) (*TokenRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewTokenRepoWithClient(rdb, "client-123"), mr
}

func TestTokenRepo_SaveLoadClear(t *testing.T) {
	repo, mr := newTestTokenRepo(t)
	ctx := context.Background()

	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).Truncate(time.Second),
	}
	if err := repo.Save(ctx, tok); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ttl := mr.TTL(tokenKey("client-123")); ttl != 0 {
		t.Errorf("ttl = %v, want none for refreshable token", ttl)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || got.AccessToken != "access" || got.RefreshToken != "refresh" || !got.Expiry.Equal(tok.Expiry) {
		t.Errorf("loaded = %+v", got)
	}

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, err = repo.Load(ctx)
	if err != nil || got != nil {
		t.Errorf("after Clear: %+v, %v", got, err)
	}
}

func TestTokenRepo_AccessOnlyTokenExpires(t *testing.T) {
	repo, mr := newTestTokenRepo(t)
	ctx := context.Background()

	tok := &oauth2.Token{AccessToken: "a", Expiry: time.Now().Add(30 * time.Minute)}
	if err := repo.Save(ctx, tok); err != nil {
		t.Fatalf("Save: %v", err)
	}

	ttl := mr.TTL(tokenKey("client-123"))
	if ttl < 30*time.Minute || ttl > 32*time.Minute {
		t.Errorf("ttl = %v, want about 31m", ttl)
	}

	mr.FastForward(40 * time.Minute)
	got, err := repo.Load(ctx)
	if err != nil || got != nil {
		t.Errorf("after expiry: %+v, %v", got, err)
	}
}

func TestTokenRepo_CorruptEntryDropped(t *testing.T) {
	repo, mr := newTestTokenRepo(t)
	key := tokenKey("client-123")
	if err := mr.Set(key, "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := repo.Load(context.Background())
	if err != nil || got != nil {
		t.Errorf("Load = %+v, %v; want nil, nil", got, err)
	}
	if mr.Exists(key) {
		t.Error("corrupt entry was not deleted")
	}
}

func TestTokenRepo_DisabledIsNoop(t *testing.T) {
	repo := NewTokenRepo("", "client-123")
	ctx := context.Background()

	if repo.Client() != nil {
		t.Error("Client() != nil for disabled cache")
	}
	if err := repo.Save(ctx, &oauth2.Token{AccessToken: "x"}); err != nil {
		t.Errorf("Save: %v", err)
	}
	if got, err := repo.Load(ctx); got != nil || err != nil {
		t.Errorf("Load = %+v, %v", got, err)
	}
	if err := repo.Clear(ctx); err != nil {
		t.Errorf("Clear: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestTokenTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		tok  *oauth2.Token
		want time.Duration
	}{
		{"refreshable", &oauth2.Token{RefreshToken: "r", Expiry: now.Add(time.Hour)}, 0},
		{"no expiry", &oauth2.Token{AccessToken: "a"}, 0},
		{"access only", &oauth2.Token{AccessToken: "a", Expiry: now.Add(10 * time.Minute)}, 11 * time.Minute},
		{"already expired", &oauth2.Token{AccessToken: "a", Expiry: now.Add(-time.Hour)}, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tokenTTL(tt.tok, now); got != tt.want {
				t.Errorf("tokenTTL = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenKey_DoesNotLeakClientID(t *testing.T) {
	key := tokenKey("client-123")
	if key == "token:client-123" || len(key) != len("token:")+16 {
		t.Errorf("key = %q", key)
	}
}
