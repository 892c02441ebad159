package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	sharedauth "careercoach-backend/internal/shared/auth"
	"careercoach-backend/internal/shared/server/respond"
	"careercoach-backend/internal/shared/telemetry"
	"careercoach-backend/internal/users"
)

const (
	subjectPrefix   = "google:"
	userInfoURL     = "https://openidconnect.googleapis.com/v1/userinfo"
	stateCookie     = "cc_oauth_state"
	stateCookiePath = "/api/v1/auth/google"
	stateTTL        = 10 * time.Minute
)

// TokenSigner issues session tokens.
type TokenSigner interface {
	Sign(claims sharedauth.Claims) (string, error)
}

// UserEnsurer creates or syncs the user row behind a login.
type UserEnsurer interface {
	Ensure(ctx context.Context, id users.Identity) (users.User, error)
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// UIRedirect receives ?token= on success and ?error= on failure.
	UIRedirect string
	// StateSecret signs the login state cookie.
	StateSecret string
	// SecureCookie marks the state cookie Secure; off for plain-http local dev.
	SecureCookie bool
}

// GoogleService runs the authorization code flow with PKCE and hands the
// browser back to the UI with a session token.
type GoogleService struct {
	oauth        *oauth2.Config
	uiRedirect   string
	userInfoURL  string
	secureCookie bool
	state        stateCodec
	signer       TokenSigner
	users        UserEnsurer
}

func NewGoogleService(cfg GoogleConfig, signer TokenSigner, users UserEnsurer) *GoogleService {
	return &GoogleService{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		uiRedirect:   cfg.UIRedirect,
		userInfoURL:  userInfoURL,
		secureCookie: cfg.SecureCookie,
		state:        stateCodec{secret: []byte(cfg.StateSecret), ttl: stateTTL, now: time.Now},
		signer:       signer,
		users:        users,
	}
}

func (s *GoogleService) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/google/start", s.start)
	rg.GET("/auth/google/callback", s.callback)
}

func (s *GoogleService) configured() bool {
	return s.oauth.ClientID != "" && s.oauth.ClientSecret != "" && s.oauth.RedirectURL != "" &&
		len(s.state.secret) > 0 && s.signer != nil
}

func (s *GoogleService) start(c *gin.Context) {
	if !s.configured() {
		respond.Error(c, http.StatusServiceUnavailable, "auth_not_configured", "Google login is not configured", nil)
		return
	}

	nonce := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	cookie, err := s.state.encode(nonce, verifier)
	if err != nil {
		respond.Internal(c, fmt.Errorf("encode login state: %w", err))
		return
	}
	s.setStateCookie(c, cookie, int(stateTTL.Seconds()))

	c.Redirect(http.StatusFound, s.oauth.AuthCodeURL(nonce,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	))
}

func (s *GoogleService) callback(c *gin.Context) {
	// the state cookie is single use whatever the outcome
	raw, _ := c.Cookie(stateCookie)
	s.setStateCookie(c, "", -1)

	if reason := c.Query("error"); reason != "" {
		telemetry.Warn("auth.google.denied", map[string]any{"reason": reason})
		s.redirectUI(c, "error", "access_denied")
		return
	}
	code, returned := c.Query("code"), c.Query("state")
	if code == "" || returned == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "missing state or code", nil)
		return
	}
	login, err := s.state.decode(raw, returned)
	if err != nil {
		telemetry.Warn("auth.google.bad_state", map[string]any{"error": err})
		respond.Error(c, http.StatusBadRequest, "invalid_request", "login expired, start again", nil)
		return
	}

	ctx := c.Request.Context()
	token, err := s.oauth.Exchange(ctx, code, oauth2.VerifierOption(login.Verifier))
	if err != nil {
		telemetry.Warn("auth.google.exchange_failed", map[string]any{"error": err})
		s.redirectUI(c, "error", "exchange_failed")
		return
	}
	info, err := s.fetchUserInfo(ctx, s.oauth.Client(ctx, token))
	if err != nil {
		telemetry.Warn("auth.google.userinfo_failed", map[string]any{"error": err})
		s.redirectUI(c, "error", "profile_unavailable")
		return
	}
	session, err := s.issue(ctx, info)
	if err != nil {
		respond.Internal(c, fmt.Errorf("issue session: %w", err))
		return
	}

	telemetry.Info("auth.google.login", map[string]any{"subject": subjectPrefix + info.Sub})
	s.redirectUI(c, "token", session)
}

func (s *GoogleService) setStateCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, value, maxAge, stateCookiePath, "", s.secureCookie, true)
}

func (s *GoogleService) redirectUI(c *gin.Context, key, value string) {
	target, err := withQuery(s.uiRedirect, key, value)
	if err != nil {
		respond.Internal(c, err)
		return
	}
	c.Redirect(http.StatusFound, target)
}

// issue makes sure the user row exists so a first login starts with the
// default balance, then signs the session token.
func (s *GoogleService) issue(ctx context.Context, info googleUserInfo) (string, error) {
	if info.Sub == "" {
		return "", errors.New("userinfo missing subject")
	}
	subject := subjectPrefix + info.Sub
	if s.users != nil {
		if _, err := s.users.Ensure(ctx, users.Identity{
			Subject: subject,
			Email:   info.Email,
			Name:    info.Name,
			Picture: info.Picture,
		}); err != nil {
			return "", fmt.Errorf("ensure user: %w", err)
		}
	}
	return s.signer.Sign(sharedauth.Claims{
		Email:            info.Email,
		Name:             info.Name,
		Picture:          info.Picture,
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	})
}

type googleUserInfo struct {
	Sub     string `json:"sub"`
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (s *GoogleService) fetchUserInfo(ctx context.Context, client *http.Client) (googleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return googleUserInfo{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return googleUserInfo{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return googleUserInfo{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return googleUserInfo{}, fmt.Errorf("decode userinfo: %w", err)
	}
	// the legacy v2 endpoint names the subject "id"
	if info.Sub == "" {
		info.Sub = info.ID
	}
	info.Email = strings.ToLower(strings.TrimSpace(info.Email))
	return info, nil
}

func withQuery(rawURL, key, value string) (string, error) {
	if rawURL == "" {
		return "", errors.New("ui redirect url is not configured")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse ui redirect: %w", err)
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
