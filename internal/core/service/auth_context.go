package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/royavalet/valet-site/internal/core/domain"
	"github.com/royavalet/valet-site/internal/core/ports"
	"github.com/royavalet/valet-site/internal/pkg/metrics"
)

const (
	msgLoginFailed   = "Login failed"
	msgSessionFailed = "Unable to start a session. Please try again."
)

type sessionIDKey struct{}

// ContextWithSessionID returns a copy of ctx carrying the session id whose
// token authenticated backend calls should use.
func ContextWithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, sessionID)
}

// SessionIDFromContext returns the session id stored by ContextWithSessionID.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(sessionIDKey{}).(string)
	return sid, ok && sid != ""
}

// StorageTokens reads bearer tokens straight from durable session storage, so
// the token sent is always the one persisted for the session in ctx.
type StorageTokens struct {
	storage ports.SessionStorage
}

func NewStorageTokens(storage ports.SessionStorage) *StorageTokens {
	return &StorageTokens{storage: storage}
}

func (t *StorageTokens) Token(ctx context.Context) (string, bool) {
	sid, ok := SessionIDFromContext(ctx)
	if !ok {
		return "", false
	}
	rec, err := t.storage.Get(ctx, sid)
	if err != nil || rec.Token == "" {
		return "", false
	}
	return rec.Token, true
}

// AuthProvider hands out per-session auth contexts. It is built once and
// shared by every request.
type AuthProvider struct {
	storage ports.SessionStorage
	client  ports.BackendClient
	log     zerolog.Logger
}

func NewAuthProvider(storage ports.SessionStorage, client ports.BackendClient, log zerolog.Logger) *AuthProvider {
	return &AuthProvider{storage: storage, client: client, log: log}
}

// Open hydrates the session stored under sessionID.
//
// A record with only one of its two halves, or with a user value that does
// not parse, is deleted and the session starts anonymous. When storage cannot
// be read the context stays loading.
func (p *AuthProvider) Open(ctx context.Context, sessionID string) ports.Session {
	a := &AuthContext{p: p, id: sessionID, loading: true}
	if sessionID == "" {
		a.loading = false
		return a
	}

	rec, err := p.storage.Get(ctx, sessionID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		a.loading = false
		return a
	case err != nil:
		p.log.Error().Err(err).Str("session", shortID(sessionID)).Msg("session hydration failed")
		return a
	}

	a.loading = false
	if rec.Empty() {
		return a
	}
	if !rec.Complete() {
		p.log.Warn().Str("session", shortID(sessionID)).Msg("incomplete session record, clearing")
		p.Discard(ctx, sessionID)
		return a
	}

	user, err := domain.ParseUser([]byte(rec.User))
	if err != nil {
		p.log.Warn().Err(err).Str("session", shortID(sessionID)).Msg("corrupt session user, clearing")
		p.Discard(ctx, sessionID)
		return a
	}
	a.token = rec.Token
	a.user = &user
	return a
}

// Fresh returns an anonymous, hydrated session bound to a new id.
func (p *AuthProvider) Fresh(sessionID string) ports.Session {
	return &AuthContext{p: p, id: sessionID}
}

// Discard deletes the record stored under sessionID. Errors are logged.
func (p *AuthProvider) Discard(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := p.storage.Delete(ctx, sessionID); err != nil {
		p.log.Error().Err(err).Str("session", shortID(sessionID)).Msg("session delete failed")
	}
}

// AuthContext is the auth state of one session.
type AuthContext struct {
	p  *AuthProvider
	id string

	mu      sync.RWMutex
	loading bool
	token   string
	user    *domain.User
}

func (a *AuthContext) ID() string { return a.id }

func (a *AuthContext) IsLoading() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loading
}

func (a *AuthContext) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token != "" && a.user != nil
}

func (a *AuthContext) IsAdmin() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token != "" && a.user.IsAdmin()
}

// User returns a copy of the signed-in user, or nil.
func (a *AuthContext) User() *domain.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.user == nil {
		return nil
	}
	u := *a.user
	return &u
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginData struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user"`
}

// Login exchanges credentials for a token. The record is persisted before
// memory is updated; if persisting fails the session stays signed out.
func (a *AuthContext) Login(ctx context.Context, email, password string) ports.LoginResult {
	ctx = ContextWithSessionID(ctx, a.id)
	log := a.p.log.With().Str("session", shortID(a.id)).Logger()

	resp, err := a.p.client.Request(ctx, ports.EndpointAuthLogin, ports.RequestOptions{
		Method: http.MethodPost,
		Body:   loginRequest{Email: email, Password: password},
	})
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("login request failed")
		return ports.LoginResult{Message: err.Error(), Failure: ports.LoginBackendError}
	}
	if resp.Failure != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("unreachable").Inc()
		return ports.LoginResult{Message: resp.Message(), Failure: ports.LoginUnavailable}
	}
	if !resp.OK() {
		metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
		return ports.LoginResult{Message: orDefault(resp.Message(), msgLoginFailed)}
	}

	var data loginData
	if err := resp.Decode(&data); err != nil || data.Token == "" {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("login response missing token")
		return ports.LoginResult{Message: msgLoginFailed, Failure: ports.LoginBackendError}
	}
	user, err := domain.ParseUser(data.User)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("login response user unusable")
		return ports.LoginResult{Message: msgLoginFailed, Failure: ports.LoginBackendError}
	}

	rec := domain.SessionRecord{Token: data.Token, User: string(data.User), ExpiresAt: tokenExpiry(data.Token)}
	if err := a.p.storage.Put(ctx, a.id, rec); errors.Is(err, domain.ErrSessionExpired) {
		metrics.LoginAttemptsTotal.WithLabelValues("expired").Inc()
		log.Warn().Time("expires_at", rec.ExpiresAt).Msg("login returned an expired token")
		return ports.LoginResult{Message: msgLoginFailed}
	} else if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("storage_error").Inc()
		log.Error().Err(err).Msg("session persist failed")
		return ports.LoginResult{Message: msgSessionFailed, Failure: ports.LoginUnavailable}
	}

	a.mu.Lock()
	a.token = data.Token
	a.user = &user
	a.loading = false
	a.mu.Unlock()

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	log.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("admin signed in")
	out := user
	return ports.LoginResult{Success: true, Message: resp.Message(), User: &out}
}

// Logout removes the durable record and clears memory. It never fails.
func (a *AuthContext) Logout(ctx context.Context) {
	a.p.Discard(ctx, a.id)

	a.mu.Lock()
	a.token = ""
	a.user = nil
	a.mu.Unlock()
}

type meData struct {
	User json.RawMessage `json:"user"`
}

// VerifyToken asks the backend who the token belongs to. Only an explicit 401
// signs the session out; any other failure leaves it as it is.
func (a *AuthContext) VerifyToken(ctx context.Context) bool {
	a.mu.RLock()
	token := a.token
	a.mu.RUnlock()
	if token == "" {
		return false
	}

	ctx = ContextWithSessionID(ctx, a.id)
	log := a.p.log.With().Str("session", shortID(a.id)).Logger()

	resp, err := a.p.client.Request(ctx, ports.EndpointAuthMe, ports.RequestOptions{IncludeAuth: true})
	if err != nil {
		metrics.TokenVerificationsTotal.WithLabelValues("failed").Inc()
		log.Warn().Err(err).Msg("token verification failed, keeping session")
		return false
	}
	if resp.Status == http.StatusUnauthorized {
		metrics.TokenVerificationsTotal.WithLabelValues("rejected").Inc()
		log.Info().Msg("token rejected, signing out")
		a.Logout(ctx)
		return false
	}
	if !resp.OK() {
		metrics.TokenVerificationsTotal.WithLabelValues("failed").Inc()
		log.Warn().Int("status", resp.Status).Str("message", resp.Message()).Msg("token verification failed, keeping session")
		return false
	}

	var data meData
	if err := resp.Decode(&data); err != nil {
		metrics.TokenVerificationsTotal.WithLabelValues("failed").Inc()
		log.Warn().Err(err).Msg("who-am-i response does not decode")
		return false
	}
	user, err := domain.ParseUser(data.User)
	if err != nil {
		metrics.TokenVerificationsTotal.WithLabelValues("failed").Inc()
		log.Warn().Err(err).Msg("who-am-i user unusable")
		return false
	}

	rec := domain.SessionRecord{Token: token, User: string(data.User), ExpiresAt: tokenExpiry(token)}
	if err := a.p.storage.Put(ctx, a.id, rec); err != nil {
		log.Error().Err(err).Msg("session refresh failed")
	} else {
		a.mu.Lock()
		if a.token == token {
			a.user = &user
		}
		a.mu.Unlock()
	}

	metrics.TokenVerificationsTotal.WithLabelValues("valid").Inc()
	return true
}

// tokenExpiry reads the exp claim of a JWT without checking its signature;
// the backend owns verification. Opaque tokens yield the zero time.
func tokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func shortID(sid string) string {
	if len(sid) > 8 {
		return sid[:8]
	}
	return sid
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
