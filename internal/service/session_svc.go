package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/youtube/v3"
	"google.golang.org/api/youtubeanalytics/v2"

	"github.com/mathieu-neron/creatordash/internal/metrics"
	"github.com/mathieu-neron/creatordash/internal/model"
	"github.com/mathieu-neron/creatordash/internal/repository"
)

// DefaultRevokeURL is Google's token revocation endpoint.
const DefaultRevokeURL = "https://oauth2.googleapis.com/revoke"

// oauthStateTTL bounds how long a login link stays usable.
const oauthStateTTL = 10 * time.Minute

// OAuthScopes are requested at consent time.
var OAuthScopes = []string{
	youtube.YoutubeScope,
	youtubeanalytics.YtAnalyticsReadonlyScope,
	youtubeanalytics.YtAnalyticsMonetaryReadonlyScope,
	oauth2api.OpenIDScope,
	oauth2api.UserinfoProfileScope,
}

// NewOAuthConfig builds the Google OAuth client configuration.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       OAuthScopes,
		Endpoint:     google.Endpoint,
	}
}

// TokenStore persists the bearer token between restarts.
type TokenStore interface {
	Load(ctx context.Context) (*oauth2.Token, error)
	Save(ctx context.Context, tok *oauth2.Token) error
	Clear(ctx context.Context) error
}

// ProfileSource fetches the signed-in user's profile.
type ProfileSource interface {
	Me(ctx context.Context) (*model.Profile, error)
}

// Refresher is the part of the dashboard the session drives.
type Refresher interface {
	Refresh(ctx context.Context, trigger string) error
	Reset()
}

// SessionTokens holds the owner's OAuth token and is the oauth2.TokenSource
// behind every Google API client. Calls fail with ErrNotAuthenticated while
// nobody is signed in. Renewed tokens are written back to the store.
type SessionTokens struct {
	oauth *oauth2.Config
	store TokenStore
	http  *http.Client
	ctx   context.Context

	mu     sync.Mutex
	source oauth2.TokenSource
	last   *oauth2.Token
}

// NewSessionTokens creates an empty token holder. ctx bounds token renewal
// requests; httpClient may be nil.
func NewSessionTokens(ctx context.Context, oauth *oauth2.Config, store TokenStore, httpClient *http.Client) *SessionTokens {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &SessionTokens{
		oauth: oauth,
		store: store,
		http:  httpClient,
		ctx:   context.WithValue(ctx, oauth2.HTTPClient, httpClient),
	}
}

// Transport returns an HTTP transport that authenticates with the current
// token.
func (t *SessionTokens) Transport(base http.RoundTripper) http.RoundTripper {
	return &oauth2.Transport{Source: t, Base: base}
}

// Token implements oauth2.TokenSource.
func (t *SessionTokens) Token() (*oauth2.Token, error) {
	t.mu.Lock()
	src := t.source
	t.mu.Unlock()
	if src == nil {
		return nil, ErrNotAuthenticated
	}

	tok, err := src.Token()
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	changed := t.source == src && (t.last == nil || t.last.AccessToken != tok.AccessToken)
	if changed {
		t.last = tok
	}
	t.mu.Unlock()

	if changed {
		ctx, cancel := context.WithTimeout(t.ctx, 3*time.Second)
		defer cancel()
		if err := t.store.Save(ctx, tok); err != nil {
			log.Warn().Err(err).Msg("session: failed to cache renewed token")
		}
	}
	return tok, nil
}

// set installs tok as the session token and caches it.
func (t *SessionTokens) set(ctx context.Context, tok *oauth2.Token) {
	src := oauth2.ReuseTokenSource(tok, t.oauth.TokenSource(t.ctx, tok))
	t.mu.Lock()
	t.source = src
	t.last = tok
	t.mu.Unlock()

	if err := t.store.Save(ctx, tok); err != nil {
		log.Warn().Err(err).Msg("session: failed to cache token")
	}
}

// clear drops the session token, removes it from the store and returns the
// last token seen, if any.
func (t *SessionTokens) clear(ctx context.Context) *oauth2.Token {
	t.mu.Lock()
	last := t.last
	t.source = nil
	t.last = nil
	t.mu.Unlock()

	if err := t.store.Clear(ctx); err != nil {
		log.Warn().Err(err).Msg("session: failed to clear cached token")
	}
	return last
}

func (t *SessionTokens) active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.source != nil
}

// SessionConfig configures the owner session.
type SessionConfig struct {
	RevokeURL       string
	RefreshInterval time.Duration
}

// SessionService owns the single process-wide owner session: the token, the
// profile and the refresh timer.
type SessionService struct {
	tokens    *SessionTokens
	revokeURL string
	profiles  ProfileSource
	dashboard Refresher
	worker    *RefreshWorker

	mu      sync.Mutex
	profile *model.Profile
	states  map[string]time.Time
	// epoch changes on every login and logout.
	epoch uint64
}

// NewSessionService creates the session. Background refreshes run under the
// context the tokens were created with; cancel it on shutdown.
func NewSessionService(tokens *SessionTokens, cfg SessionConfig, profiles ProfileSource, dashboard Refresher) *SessionService {
	revokeURL := cfg.RevokeURL
	if revokeURL == "" {
		revokeURL = DefaultRevokeURL
	}

	s := &SessionService{
		tokens:    tokens,
		revokeURL: revokeURL,
		profiles:  profiles,
		dashboard: dashboard,
		states:    make(map[string]time.Time),
	}
	s.worker = NewRefreshWorker(cfg.RefreshInterval, s.runRefresh)
	return s
}

// LoginURL returns the Google consent URL with a fresh single-use state.
func (s *SessionService) LoginURL() string {
	state := uuid.NewString()
	now := time.Now()

	s.mu.Lock()
	for k, exp := range s.states {
		if now.After(exp) {
			delete(s.states, k)
		}
	}
	s.states[state] = now.Add(oauthStateTTL)
	s.mu.Unlock()

	return s.tokens.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (s *SessionService) consumeState(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.states[state]
	delete(s.states, state)
	return ok && time.Now().Before(exp)
}

// Callback completes the consent flow and starts the session.
func (s *SessionService) Callback(ctx context.Context, code, state string) (*model.Profile, error) {
	if !s.consumeState(state) || code == "" {
		return nil, fmt.Errorf("%w: invalid or expired login state", ErrInvalidInput)
	}

	tok, err := s.tokens.oauth.Exchange(context.WithValue(ctx, oauth2.HTTPClient, s.tokens.http), code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return s.start(ctx, tok, TriggerLogin)
}

// Resume restores a cached session at startup. A missing or unusable token
// leaves the service signed out without error.
func (s *SessionService) Resume(ctx context.Context) error {
	tok, err := s.tokens.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load cached token: %w", err)
	}
	if tok == nil || (!tok.Valid() && tok.RefreshToken == "") {
		metrics.TokenCacheMisses.Inc()
		if tok != nil {
			_ = s.tokens.store.Clear(ctx)
		}
		return nil
	}

	metrics.TokenCacheHits.Inc()
	if _, err := s.start(ctx, tok, TriggerStartup); err != nil {
		log.Warn().Err(err).Msg("session: cached token rejected")
		if repository.IsUnauthorized(err) {
			return nil
		}
		return err
	}
	return nil
}

func (s *SessionService) start(ctx context.Context, tok *oauth2.Token, trigger string) (*model.Profile, error) {
	s.worker.Stop()
	s.dashboard.Reset()

	s.mu.Lock()
	s.profile = nil
	s.epoch++
	s.mu.Unlock()
	s.tokens.set(ctx, tok)

	profile, err := s.profiles.Me(ctx)
	if err != nil {
		s.Logout(ctx)
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()

	log.Info().Str("trigger", trigger).Msg("session: started")
	s.worker.Restart(s.tokens.ctx, trigger)
	return profile, nil
}

// Current returns the signed-in profile.
func (s *SessionService) Current() (*model.Profile, bool) {
	if !s.tokens.active() {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil, false
	}
	p := *s.profile
	return &p, true
}

// Active reports whether an owner is signed in.
func (s *SessionService) Active() bool {
	_, ok := s.Current()
	return ok
}

// OwnerID returns the signed-in owner's id, or "" when signed out.
func (s *SessionService) OwnerID() string {
	if p, ok := s.Current(); ok {
		return p.ID
	}
	return ""
}

// Logout stops the refresh timer, clears all session state and revokes the
// token with Google. Revocation is best effort.
func (s *SessionService) Logout(ctx context.Context) {
	s.worker.Stop()

	wasActive := s.tokens.active()
	tok := s.tokens.clear(ctx)
	s.mu.Lock()
	s.profile = nil
	s.epoch++
	s.mu.Unlock()

	s.dashboard.Reset()

	if tok != nil {
		if err := s.revoke(ctx, tok); err != nil {
			log.Warn().Err(err).Msg("session: token revocation failed")
		}
	}
	if wasActive {
		log.Info().Msg("session: logged out")
	}
}

func (s *SessionService) revoke(ctx context.Context, tok *oauth2.Token) error {
	value := tok.RefreshToken
	if value == "" {
		value = tok.AccessToken
	}
	if value == "" {
		return nil
	}

	form := url.Values{"token": {value}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.tokens.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revoke status %d", resp.StatusCode)
	}
	return nil
}

// HandleUnauthorized logs out when err means Google rejected the session.
// It reports whether a logout happened.
func (s *SessionService) HandleUnauthorized(ctx context.Context, err error) bool {
	if !repository.IsUnauthorized(err) {
		return false
	}
	log.Warn().Err(err).Msg("session: credentials rejected, forcing logout")
	s.Logout(context.WithoutCancel(ctx))
	return true
}

func (s *SessionService) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// handleUnauthorizedFrom is HandleUnauthorized for work started in epoch.
// A rejection of a token from an earlier session is ignored.
func (s *SessionService) handleUnauthorizedFrom(ctx context.Context, epoch uint64, err error) bool {
	if !repository.IsUnauthorized(err) {
		return false
	}
	if s.currentEpoch() != epoch {
		log.Debug().Err(err).Msg("session: ignoring rejected credentials from an ended session")
		return false
	}
	return s.HandleUnauthorized(ctx, err)
}

// RefreshNow runs a refresh cycle outside the timer.
func (s *SessionService) RefreshNow(ctx context.Context) error {
	epoch := s.currentEpoch()
	if _, ok := s.Current(); !ok {
		return ErrNotAuthenticated
	}
	err := s.dashboard.Refresh(ctx, TriggerManual)
	if s.handleUnauthorizedFrom(ctx, epoch, err) {
		return err
	}
	return nil
}

func (s *SessionService) runRefresh(ctx context.Context, trigger string) {
	epoch := s.currentEpoch()
	err := s.dashboard.Refresh(ctx, trigger)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.handleUnauthorizedFrom(ctx, epoch, err)
	}
}

// Close stops background work.
func (s *SessionService) Close() {
	s.worker.Stop()
}
