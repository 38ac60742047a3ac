package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dsim/backend/internal/apperrors"
	"github.com/dsim/backend/internal/models"
	"github.com/dsim/backend/internal/repository"
	"github.com/dsim/backend/internal/service/auth/tokenmanager"
)

const (
	defaultAccessCookieName  = "dsim_access"
	defaultRefreshCookieName = "dsim_refresh"
	defaultCSRFCookieName    = "dsim_csrf"
	defaultCSRFHeaderName    = "X-CSRF-Token"
	defaultAccessAuthScheme  = "Bearer"

	csrfTokenBytesLen = 32
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher to use during sign-up and sign-in
	// BcryptHasher is used if not set
	Hasher PasswordHasher

	// Cookie and header names, defaults used when empty
	AccessCookieName  string
	RefreshCookieName string
	CSRFCookieName    string
	CSRFHeaderName    string

	// Set the Secure attribute on session cookies (prod deployments)
	SecureCookies bool
}

type AuthService struct {
	// Manager to issue and rotate token pairs
	token *tokenmanager.TokenManager

	// Hasher to hash or compare user passwords
	hasher PasswordHasher

	// Repository to access user records
	userRepo repository.UserRepo

	accessCookieName  string
	refreshCookieName string
	csrfCookieName    string
	csrfHeaderName    string
	secureCookies     bool

	// Compared against on sign-in with unknown email, so the miss costs the
	// same as a wrong password and reveals nothing about account existence
	dummyHash string
}

func NewService(cfg Config, token *tokenmanager.TokenManager, userRepo repository.UserRepo) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	setDefault := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	setDefault(&cfg.AccessCookieName, defaultAccessCookieName)
	setDefault(&cfg.RefreshCookieName, defaultRefreshCookieName)
	setDefault(&cfg.CSRFCookieName, defaultCSRFCookieName)
	setDefault(&cfg.CSRFHeaderName, defaultCSRFHeaderName)

	dummyHash, err := hasher.Hash("dsim-not-a-password")
	if err != nil {
		return nil, fmt.Errorf("error while preparing hasher. Err: %w", err)
	}

	return &AuthService{
		token:             token,
		hasher:            hasher,
		userRepo:          userRepo,
		accessCookieName:  cfg.AccessCookieName,
		refreshCookieName: cfg.RefreshCookieName,
		csrfCookieName:    cfg.CSRFCookieName,
		csrfHeaderName:    cfg.CSRFHeaderName,
		secureCookies:     cfg.SecureCookies,
		dummyHash:         dummyHash,
	}, nil
}

// SignUp registers a user and issues the initial token pair.
// New users always get the traveler role.
func (s *AuthService) SignUp(ctx context.Context, email string, password string, name string, remember bool) (models.User, models.TokenPair, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, email, name, models.RoleTraveler, hash)
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	pair, err := s.token.GeneratePair(ctx, user, remember)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	return user, pair, nil
}

// SignIn verifies credentials and issues a fresh token pair.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthService) SignIn(ctx context.Context, email string, password string, remember bool) (models.User, models.TokenPair, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		// Burn the same bcrypt work as a real comparison before failing
		_ = s.hasher.Compare(s.dummyHash, password)
		return models.User{}, models.TokenPair{}, apperrors.ErrAuthInvalid
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return models.User{}, models.TokenPair{}, apperrors.ErrAuthInvalid
	}

	pair, err := s.token.GeneratePair(ctx, user, remember)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	return user, pair, nil
}

// RefreshPair rotates the presented refresh token: the old record is revoked
// and a replacement pair issued in its place. The rotated pair always gets
// the long "remember" lifetime, matching how sessions behaved before the
// rewrite (see DESIGN.md).
func (s *AuthService) RefreshPair(ctx context.Context, refresh string) (models.User, models.TokenPair, error) {
	token, err := s.token.UseRefresh(ctx, refresh)
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	user, err := s.userRepo.GetUserByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return models.User{}, models.TokenPair{}, apperrors.ErrAuthInvalid
		}
		return models.User{}, models.TokenPair{}, err
	}

	pair, err := s.token.GeneratePair(ctx, user, true)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	return user, pair, nil
}

// Revoke invalidates the refresh token if it is still active.
// Safe to call with revoked, expired or unknown tokens.
func (s *AuthService) Revoke(ctx context.Context, refresh string) error {
	return s.token.Revoke(ctx, refresh)
}

// Auth resolves the request to a session identity: access token from the
// session cookie first, the bearer Authorization header second
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.Session, error) {
	access := ""

	if cookie, err := r.Cookie(s.accessCookieName); err == nil {
		access = cookie.Value
	} else if header := r.Header.Get("Authorization"); header != "" {
		scheme, value, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, defaultAccessAuthScheme) {
			return models.Session{}, apperrors.ErrAuthInvalid
		}
		access = value
	}

	if access == "" {
		return models.Session{}, apperrors.ErrAuthInvalid
	}

	return s.token.ParseAccess(access)
}

// CheckCSRF verifies the double-submit pair: the readable CSRF cookie must be
// echoed byte for byte in the request header
func (s *AuthService) CheckCSRF(r *http.Request) error {
	cookie, err := r.Cookie(s.csrfCookieName)
	if err != nil || cookie.Value == "" {
		return apperrors.ErrAuthInvalid
	}

	header := r.Header.Get(s.csrfHeaderName)
	if header == "" {
		return apperrors.ErrAuthInvalid
	}

	if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
		return apperrors.ErrAuthInvalid
	}

	return nil
}

// SetTokenPairToResponse writes the session cookies: HttpOnly access and
// refresh plus a freshly rotated readable CSRF token
func (s *AuthService) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) error {
	csrf, err := generateCSRFToken()
	if err != nil {
		return fmt.Errorf("error while generating csrf token. Err: %w", err)
	}

	http.SetCookie(w, s.sessionCookie(s.accessCookieName, pair.Access.Value, pair.Access.ExpiresAt, true))
	http.SetCookie(w, s.sessionCookie(s.refreshCookieName, pair.Refresh.Value, pair.Refresh.ExpiresAt, true))
	http.SetCookie(w, s.sessionCookie(s.csrfCookieName, csrf, pair.Refresh.ExpiresAt, false))

	return nil
}

// ClearSessionCookies unconditionally expires all three session cookies
func (s *AuthService) ClearSessionCookies(w http.ResponseWriter) {
	for _, c := range []struct {
		name     string
		httpOnly bool
	}{
		{s.accessCookieName, true},
		{s.refreshCookieName, true},
		{s.csrfCookieName, false},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     c.name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: c.httpOnly,
			SameSite: http.SameSiteLaxMode,
			Secure:   s.secureCookies,
		})
	}
}

// ReadRefreshToken extracts the raw refresh token from the request cookie
func (s *AuthService) ReadRefreshToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.refreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", apperrors.ErrAuthInvalid
	}
	return cookie.Value, nil
}

// SetTokenPairToRequest prepares a client request the way a browser would
// after SetTokenPairToResponse: session cookies plus a matching CSRF pair.
// Intended for tests.
func (s *AuthService) SetTokenPairToRequest(r *http.Request, pair models.TokenPair) error {
	csrf, err := generateCSRFToken()
	if err != nil {
		return fmt.Errorf("error while generating csrf token. Err: %w", err)
	}

	r.AddCookie(&http.Cookie{Name: s.accessCookieName, Value: pair.Access.Value})
	r.AddCookie(&http.Cookie{Name: s.refreshCookieName, Value: pair.Refresh.Value})
	r.AddCookie(&http.Cookie{Name: s.csrfCookieName, Value: csrf})
	r.Header.Set(s.csrfHeaderName, csrf)
	r.Header.Set("Authorization", defaultAccessAuthScheme+" "+pair.Access.Value)

	return nil
}

func (s *AuthService) sessionCookie(name string, value string, expiresAt time.Time, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: httpOnly,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secureCookies,
	}
}

func generateCSRFToken() (string, error) {
	b := make([]byte, csrfTokenBytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
