package sandbox

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// demoUserID is the shared account every unauthenticated request maps
// to. The sandbox never turns a practice request away over auth.
const demoUserID = "demo_user_authenticated"

const tokenTTL = time.Hour

// authority mints and resolves the sandbox's bearer tokens.
type authority struct {
	secret []byte
}

func newAuthority(secret string) *authority {
	return &authority{secret: []byte(secret)}
}

type learnerClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func (a *authority) issue(userID, email string, now time.Time) (string, error) {
	claims := &learnerClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    "elysian-sandbox",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.secret)
}

// resolve maps an Authorization header to a user id. Tokens the
// sandbox signed name their user directly. Foreign JWTs are read
// without verification so that clients of the hosted service keep
// their identity against the sandbox. Anything else lands on the
// shared demo account.
func (a *authority) resolve(header string) string {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return demoUserID
	}

	keyFn := func(*jwt.Token) (any, error) { return a.secret, nil }
	if token, err := jwt.ParseWithClaims(raw, &learnerClaims{}, keyFn); err == nil && token.Valid {
		if c, ok := token.Claims.(*learnerClaims); ok && c.UserID != "" {
			return c.UserID
		}
	}

	var claims jwt.MapClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return demoUserID
	}
	for _, key := range []string{"user_id", "sub", "email"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return "demo_user"
}

func newRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Identity endpoints. They speak the Identity Toolkit wire format so
// the client's identity package works against the sandbox unchanged:
// accounts endpoints answer in camelCase with quoted expiry seconds,
// the token endpoint answers the snake_case refresh grant.

type credentialRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountSession struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

func (s *Server) session(w http.ResponseWriter, u *learner) {
	now := s.state.now()
	idToken, err := s.auth.issue(u.ID, u.Email, now)
	if err != nil {
		respondAuthError(w, http.StatusInternalServerError, "TOKEN_SIGNING_FAILED")
		return
	}
	refresh, err := newRefreshToken()
	if err != nil {
		respondAuthError(w, http.StatusInternalServerError, "TOKEN_SIGNING_FAILED")
		return
	}
	s.state.issueRefresh(u.ID, refresh)
	respondJSON(w, http.StatusOK, accountSession{
		LocalID:      u.ID,
		Email:        u.Email,
		IDToken:      idToken,
		RefreshToken: refresh,
		ExpiresIn:    "3600",
	})
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondAuthError(w, http.StatusBadRequest, "INVALID_EMAIL")
		return
	}
	if len(req.Password) < 6 {
		respondAuthError(w, http.StatusBadRequest, "WEAK_PASSWORD : Password should be at least 6 characters")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondAuthError(w, http.StatusInternalServerError, "PASSWORD_HASHING_FAILED")
		return
	}
	u, ok := s.state.createAccount(strings.ToLower(strings.TrimSpace(req.Email)), hash)
	if !ok {
		respondAuthError(w, http.StatusBadRequest, "EMAIL_EXISTS")
		return
	}
	s.session(w, u)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondAuthError(w, http.StatusBadRequest, "INVALID_EMAIL")
		return
	}
	if req.Password == "" {
		respondAuthError(w, http.StatusBadRequest, "MISSING_PASSWORD")
		return
	}
	u, ok := s.state.byEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if !ok {
		respondAuthError(w, http.StatusBadRequest, "EMAIL_NOT_FOUND")
		return
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)); err != nil {
		respondAuthError(w, http.StatusBadRequest, "INVALID_PASSWORD")
		return
	}
	s.session(w, u)
}

func (s *Server) handleSendOobCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RequestType string `json:"requestType"`
		Email       string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondAuthError(w, http.StatusBadRequest, "INVALID_EMAIL")
		return
	}
	if _, ok := s.state.byEmail(strings.ToLower(strings.TrimSpace(req.Email))); !ok {
		respondAuthError(w, http.StatusBadRequest, "EMAIL_NOT_FOUND")
		return
	}
	// Nothing is mailed; the sandbox acknowledges the request so
	// client flows can be exercised end to end.
	respondJSON(w, http.StatusOK, map[string]string{"email": req.Email})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"idToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IDToken == "" {
		respondAuthError(w, http.StatusBadRequest, "INVALID_ID_TOKEN")
		return
	}
	userID := s.auth.resolve("Bearer " + req.IDToken)
	if userID == demoUserID || userID == "demo_user" || !s.state.removeAccount(userID) {
		respondAuthError(w, http.StatusBadRequest, "INVALID_ID_TOKEN")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{})
}

type tokenSession struct {
	UserID       string `json:"user_id"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondAuthError(w, http.StatusBadRequest, "INVALID_GRANT_TYPE")
		return
	}
	if r.PostFormValue("grant_type") != "refresh_token" {
		respondAuthError(w, http.StatusBadRequest, "INVALID_GRANT_TYPE")
		return
	}
	refresh := r.PostFormValue("refresh_token")
	u, ok := s.state.redeemRefresh(refresh)
	if !ok {
		respondAuthError(w, http.StatusBadRequest, "INVALID_REFRESH_TOKEN")
		return
	}
	idToken, err := s.auth.issue(u.ID, u.Email, s.state.now())
	if err != nil {
		respondAuthError(w, http.StatusInternalServerError, "TOKEN_SIGNING_FAILED")
		return
	}
	respondJSON(w, http.StatusOK, tokenSession{
		UserID:       u.ID,
		IDToken:      idToken,
		RefreshToken: refresh,
		ExpiresIn:    "3600",
		TokenType:    "Bearer",
	})
}

// respondAuthError writes the provider error envelope.
func respondAuthError(w http.ResponseWriter, status int, code string) {
	respondJSON(w, status, map[string]any{
		"error": map[string]any{"code": status, "message": code},
	})
}
