// Package identity talks to the identity provider that vouches for the
// learner: credential sign-in/sign-up, password reset, account deletion
// and token refresh. The provider speaks the Identity Toolkit REST
// surface, so the client works against the hosted service and against
// the local practice sandbox alike.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Session is one authenticated grant: the bearer token the API wants,
// plus the refresh token that can mint the next one.
type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	IDToken      string    `json:"id_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Valid reports whether the session still carries a usable token at
// time now.
func (s Session) Valid(now time.Time) bool {
	return s.IDToken != "" && now.Before(s.ExpiresAt)
}

// AuthError is the provider's refusal: a short upstream code such as
// EMAIL_NOT_FOUND or INVALID_PASSWORD plus the HTTP status it rode on.
type AuthError struct {
	Code   string
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("identity provider: %s (HTTP %d)", e.Code, e.Status)
}

// Client calls the identity provider.
type Client struct {
	http     *http.Client
	baseURL  string // accounts endpoints root, e.g. https://identitytoolkit.googleapis.com
	tokenURL string // refresh grant endpoint, e.g. https://securetoken.googleapis.com/v1/token
	apiKey   string
}

// Option tweaks a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTokenURL points the refresh grant at a different host. The
// default derives it from the base URL, which is what the sandbox
// expects; the hosted provider refreshes on a separate domain.
func WithTokenURL(u string) Option {
	return func(c *Client) { c.tokenURL = strings.TrimRight(u, "/") }
}

// NewClient builds a client for the provider rooted at baseURL,
// authorizing calls with apiKey.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
	for _, o := range opts {
		o(c)
	}
	if c.tokenURL == "" {
		c.tokenURL = c.baseURL + "/v1/token"
	}
	return c
}

// sessionResponse covers both the accounts endpoints (camelCase) and
// the token endpoint (snake_case); the provider quotes numbers, so
// expiry fields arrive as strings.
type sessionResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`

	UserID       string `json:"user_id"`
	AltIDToken   string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	AltRefresh   string `json:"refresh_token"`
	AltExpiresIn string `json:"expires_in"`
}

func (r sessionResponse) session(now time.Time) Session {
	s := Session{
		UserID:       r.LocalID,
		Email:        r.Email,
		IDToken:      r.IDToken,
		RefreshToken: r.RefreshToken,
	}
	if s.UserID == "" {
		s.UserID = r.UserID
	}
	if s.IDToken == "" {
		s.IDToken = r.AltIDToken
	}
	if s.IDToken == "" {
		s.IDToken = r.AccessToken
	}
	if s.RefreshToken == "" {
		s.RefreshToken = r.AltRefresh
	}
	expires := r.ExpiresIn
	if expires == "" {
		expires = r.AltExpiresIn
	}
	secs, err := strconv.Atoi(expires)
	if err != nil || secs <= 0 {
		secs = 3600
	}
	s.ExpiresAt = now.Add(time.Duration(secs) * time.Second)
	// The token itself may expire sooner than the response claims;
	// trust the earlier of the two.
	if exp, ok := tokenExpiry(s.IDToken); ok && exp.Before(s.ExpiresAt) {
		s.ExpiresAt = exp
	}
	return s
}

// SignUp creates an account and returns its first session.
func (c *Client) SignUp(ctx context.Context, email, password string) (Session, error) {
	return c.credentialCall(ctx, "accounts:signUp", email, password)
}

// SignIn exchanges credentials for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	return c.credentialCall(ctx, "accounts:signInWithPassword", email, password)
}

func (c *Client) credentialCall(ctx context.Context, op, email, password string) (Session, error) {
	body := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	var resp sessionResponse
	if err := c.post(ctx, c.accountsURL(op), body, &resp); err != nil {
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}
	return resp.session(time.Now()), nil
}

// SendPasswordReset asks the provider to mail a reset code.
func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	body := map[string]any{"requestType": "PASSWORD_RESET", "email": email}
	if err := c.post(ctx, c.accountsURL("accounts:sendOobCode"), body, nil); err != nil {
		return fmt.Errorf("send password reset: %w", err)
	}
	return nil
}

// DeleteAccount removes the account the token belongs to.
func (c *Client) DeleteAccount(ctx context.Context, idToken string) error {
	body := map[string]any{"idToken": idToken}
	if err := c.post(ctx, c.accountsURL("accounts:delete"), body, nil); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// Refresh trades a refresh token for a fresh session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	u := c.tokenURL + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return Session{}, fmt.Errorf("refresh token: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp sessionResponse
	if err := c.do(req, &resp); err != nil {
		return Session{}, fmt.Errorf("refresh token: %w", err)
	}
	return resp.session(time.Now()), nil
}

func (c *Client) accountsURL(op string) string {
	return c.baseURL + "/v1/" + op + "?key=" + url.QueryEscape(c.apiKey)
}

func (c *Client) post(ctx context.Context, u string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return decodeAuthError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAuthError(resp *http.Response) error {
	var body struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		return &AuthError{Code: body.Error.Message, Status: resp.StatusCode}
	}
	return &AuthError{Code: strings.TrimSpace(string(raw)), Status: resp.StatusCode}
}
