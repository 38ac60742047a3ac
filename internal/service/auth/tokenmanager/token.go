package tokenmanager

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dsim/backend/internal/models"
	"github.com/dsim/backend/internal/repository"
)

const (
	defaultSigningMethod    = "HS256"
	defaultAccessTokenTTL   = 15 * time.Minute
	defaultRefreshTokenTTL  = 7 * 24 * time.Hour
	defaultRememberTokenTTL = 30 * 24 * time.Hour

	// Entropy of the raw refresh secret
	refreshSecretBytesLen = 48
)

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Token manager config with sensible defaults
type Config struct {
	// Secret key to sign access tokens
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set the default is used
	Alg string

	// Token lifetimes: access, plain refresh and "remember me" refresh
	// If not set the defaults are used
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	RememberTTL time.Duration
}

type TokenManager struct {
	// Secret key to sign access tokens
	key string

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod

	// Token lifetimes
	accessTTL   time.Duration
	refreshTTL  time.Duration
	rememberTTL time.Duration

	// Refresh token repo
	refreshRepo repository.RefreshTokenRepo
}

func New(cfg Config, refreshRepo repository.RefreshTokenRepo) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)
	setDefaultDuration(&cfg.RememberTTL, defaultRememberTokenTTL)

	return &TokenManager{
		key:         cfg.SecretKey,
		alg:         jwt.GetSigningMethod(cfg.Alg),
		accessTTL:   cfg.AccessTTL,
		refreshTTL:  cfg.RefreshTTL,
		rememberTTL: cfg.RememberTTL,
		refreshRepo: refreshRepo,
	}, nil
}

// GeneratePair mints an access token and a brand new refresh token.
// Exactly one refresh record is inserted per call; only the sha256 digest of
// the raw secret is persisted.
func (m *TokenManager) GeneratePair(ctx context.Context, user models.User, remember bool) (models.TokenPair, error) {
	var pair models.TokenPair
	now := time.Now().Truncate(time.Second)
	accessExpiresAt := now.Add(m.accessTTL)

	refreshTTL := m.refreshTTL
	if remember {
		refreshTTL = m.rememberTTL
	}
	refreshExpiresAt := now.Add(refreshTTL)

	// Generate JWT access token encoded as string
	accessToken := jwt.NewWithClaims(
		m.alg,
		AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   user.ID.String(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(accessExpiresAt),
			},
			Email: user.Email,
			Role:  user.Role,
		},
	)
	access, err := accessToken.SignedString([]byte(m.key))
	if err != nil {
		return pair, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	// Generate random refresh secret
	b := make([]byte, refreshSecretBytesLen)
	_, err = rand.Read(b)
	if err != nil {
		return pair, fmt.Errorf("error while generating refresh token. Err: %w", err)
	}
	refresh := hex.EncodeToString(b)

	err = m.refreshRepo.Save(ctx, models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: HashToken(refresh),
		CreatedAt: now,
		ExpiresAt: refreshExpiresAt,
		Revoked:   false,
	})
	if err != nil {
		return pair, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return models.TokenPair{
		Access:  models.IssuedToken{Value: access, ExpiresAt: accessExpiresAt},
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: refreshExpiresAt},
	}, nil
}

// UseRefresh consumes the presented raw refresh token: the matching record
// is revoked and returned. Replay, unknown and expired tokens all fail with
// the same apperrors.ErrAuthInvalid.
func (m *TokenManager) UseRefresh(ctx context.Context, refresh string) (models.RefreshToken, error) {
	token, err := m.refreshRepo.Consume(ctx, HashToken(refresh), time.Now())
	if err != nil {
		return token, fmt.Errorf("error while consuming refresh token. Err: %w", err)
	}

	return token, nil
}

// Revoke marks every active record matching the raw token as revoked.
// Idempotent: revoking an already revoked or unknown token is not an error.
func (m *TokenManager) Revoke(ctx context.Context, refresh string) error {
	return m.refreshRepo.Revoke(ctx, HashToken(refresh))
}

// Parse and validate access token, returning the session identity
func (m *TokenManager) ParseAccess(access string) (models.Session, error) {
	claims := &AccessTokenClaims{}

	_, err := jwt.ParseWithClaims(
		access,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(m.key), nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return models.Session{}, fmt.Errorf("error while parsing or validating token. Err: %w", err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return models.Session{}, fmt.Errorf("invalid subject claim. Err: %w", err)
	}

	return models.Session{
		UserID: userID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// HashToken returns the hex sha256 digest of the raw refresh secret,
// the only form the secret is ever stored in
func HashToken(refresh string) string {
	sum := sha256.Sum256([]byte(refresh))
	return hex.EncodeToString(sum[:])
}
