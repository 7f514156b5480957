package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// ErrNotSignedIn reports that no credentials are stored and a token was
// requested.
var ErrNotSignedIn = errors.New("not signed in")

// refreshMargin renews tokens this long before they expire, so a call
// issued right at the edge still carries a live token.
const refreshMargin = time.Minute

// tokenExpiry reads the exp claim out of a bearer token without
// verifying the signature; the client only needs the timestamp, the
// backend does the verifying.
func tokenExpiry(idToken string) (time.Time, bool) {
	if idToken == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// TokenSource yields live bearer tokens for API calls, refreshing
// through the identity provider ahead of expiry and persisting renewed
// credentials so the next process start does not need a password.
// It implements oauth2.TokenSource.
type TokenSource struct {
	client *Client
	creds  *CredentialStore
	now    func() time.Time

	mu      sync.Mutex
	session Session
	loaded  bool
}

// NewTokenSource builds a token source over the provider client and the
// on-disk credential store.
func NewTokenSource(client *Client, creds *CredentialStore) *TokenSource {
	return &TokenSource{client: client, creds: creds, now: time.Now}
}

// SetSession installs a session obtained from a fresh sign-in or
// sign-up and persists it.
func (ts *TokenSource) SetSession(s Session) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.session = s
	ts.loaded = true
	if ts.creds == nil {
		return nil
	}
	if err := ts.creds.Save(s); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// Clear forgets the session in memory and on disk.
func (ts *TokenSource) Clear() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.session = Session{}
	ts.loaded = true
	if ts.creds == nil {
		return nil
	}
	return ts.creds.Clear()
}

// Authenticated reports whether credentials exist at all; it does not
// promise the token is still live, only that Token can try.
func (ts *TokenSource) Authenticated() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if err := ts.loadLocked(); err != nil {
		return false
	}
	return ts.session.RefreshToken != "" || ts.session.IDToken != ""
}

// Session returns the current session without refreshing it.
func (ts *TokenSource) Session() (Session, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if err := ts.loadLocked(); err != nil {
		return Session{}, err
	}
	if ts.session.IDToken == "" && ts.session.RefreshToken == "" {
		return Session{}, ErrNotSignedIn
	}
	return ts.session, nil
}

// Token returns a live bearer token, refreshing when the cached one is
// within the renewal margin of expiry.
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if err := ts.loadLocked(); err != nil {
		return nil, err
	}

	now := ts.now()
	if ts.session.IDToken != "" && now.Add(refreshMargin).Before(ts.session.ExpiresAt) {
		return ts.oauthTokenLocked(), nil
	}
	if ts.session.RefreshToken == "" {
		return nil, ErrNotSignedIn
	}

	fresh, err := ts.client.Refresh(context.Background(), ts.session.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	if fresh.Email == "" {
		fresh.Email = ts.session.Email
	}
	if fresh.UserID == "" {
		fresh.UserID = ts.session.UserID
	}
	ts.session = fresh
	if ts.creds != nil {
		if err := ts.creds.Save(fresh); err != nil {
			slog.Warn("could not persist refreshed credentials", "error", err)
		}
	}
	slog.Debug("refreshed identity token", "expires_at", fresh.ExpiresAt)
	return ts.oauthTokenLocked(), nil
}

func (ts *TokenSource) oauthTokenLocked() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: ts.session.IDToken,
		TokenType:   "Bearer",
		Expiry:      ts.session.ExpiresAt,
	}
}

func (ts *TokenSource) loadLocked() error {
	if ts.loaded {
		return nil
	}
	ts.loaded = true
	if ts.creds == nil {
		return nil
	}
	s, err := ts.creds.Load()
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	if s != nil {
		ts.session = *s
	}
	return nil
}
