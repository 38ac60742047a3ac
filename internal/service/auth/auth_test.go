package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsim/backend/internal/apperrors"
	"github.com/dsim/backend/internal/models"
	"github.com/dsim/backend/internal/repository/postgres"
	"github.com/dsim/backend/internal/service/auth/tokenmanager"
	"github.com/dsim/backend/internal/testutil"
)

func Test_Auth(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Begin new db transaction and create new AuthService
	// Rollback transaction when test stops
	withTx := func(dbpool *pgxpool.Pool, t *testing.T, fn func(s *AuthService)) {
		testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
			userRepo := &postgres.UserRepo{DB: tx}
			refreshRepo := &postgres.RefreshTokenRepo{DB: tx}

			tokenManager, err := tokenmanager.New(
				tokenmanager.Config{
					SecretKey:  "test-secret-key",
					AccessTTL:  15 * time.Minute,
					RefreshTTL: 24 * time.Hour,
				},
				refreshRepo,
			)
			require.NoError(t, err, "token manager should be created without errors")

			s, err := NewService(Config{}, tokenManager, userRepo)
			require.NoError(t, err, "auth service could't be started", err)

			fn(s)
		})
	}

	t.Run("new auth service defaults", func(t *testing.T) {
		s, err := NewService(Config{}, nil, nil)
		require.NoError(t, err, "auth service should be created without errors")

		require.Equal(t, defaultAccessCookieName, s.accessCookieName, "default access cookie name should be set")
		require.Equal(t, defaultRefreshCookieName, s.refreshCookieName, "default refresh cookie name should be set")
		require.Equal(t, defaultCSRFCookieName, s.csrfCookieName, "default csrf cookie name should be set")
		require.Equal(t, defaultCSRFHeaderName, s.csrfHeaderName, "default csrf header name should be set")
		require.Equal(t, BcryptHasher{}, s.hasher, "default hasher should be set to BcryptHasher")
		require.NotEmpty(t, s.dummyHash, "dummy hash must be precomputed")
	})

	t.Run("SignUp", func(t *testing.T) {
		t.Run("new user ok", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				user, pair, err := s.SignUp(t.Context(), "alice@example.com", "pwd123", "Alice", false)

				require.NoError(t, err, "registering new user should be ok")
				require.Equal(t, "alice@example.com", user.Email)
				require.Equal(t, models.RoleTraveler, user.Role, "new users always start as travelers")
				require.NotEmpty(t, pair.Access.Value, "access token should not be empty")
				require.NotEmpty(t, pair.Refresh.Value, "refresh token should not be empty")
			})
		})

		t.Run("fail if user exists", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				_, _, err := s.SignUp(t.Context(), "alice@example.com", "pwd123", "Alice", false)
				require.NoError(t, err, "no error has should happen if user not exists")

				_, _, err = s.SignUp(t.Context(), "alice@example.com", "other-pwd", "Other Alice", false)

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
			})
		})
	})

	t.Run("SignIn", func(t *testing.T) {
		t.Run("existing user ok", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				_, _, err := s.SignUp(t.Context(), "alice@example.com", "pwd123", "Alice", false)
				require.NoError(t, err)

				user, pair, err := s.SignIn(t.Context(), "alice@example.com", "pwd123", false)

				require.NoError(t, err)
				require.Equal(t, "alice@example.com", user.Email)
				require.NotEmpty(t, pair.Access.Value, "access token should not be empty")
				require.NotEmpty(t, pair.Refresh.Value, "refresh token should not be empty")
			})
		})

		t.Run("wrong password and unknown email look the same", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				_, _, err := s.SignUp(t.Context(), "alice@example.com", "pwd123", "Alice", false)
				require.NoError(t, err)

				_, _, errWrongPwd := s.SignIn(t.Context(), "alice@example.com", "wrong", false)
				_, _, errNoUser := s.SignIn(t.Context(), "nobody@example.com", "pwd123", false)

				require.ErrorIs(t, errWrongPwd, apperrors.ErrAuthInvalid)
				require.ErrorIs(t, errNoUser, apperrors.ErrAuthInvalid)
				assert.Equal(t, errWrongPwd, errNoUser, "both failures must be the same sentinel")
			})
		})

		t.Run("remember extends refresh expiry", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				_, _, err := s.SignUp(t.Context(), "alice@example.com", "pwd123", "Alice", false)
				require.NoError(t, err)

				_, plain, err := s.SignIn(t.Context(), "alice@example.com", "pwd123", false)
				require.NoError(t, err)
				_, remembered, err := s.SignIn(t.Context(), "alice@example.com", "pwd123", true)
				require.NoError(t, err)

				assert.True(t, remembered.Refresh.ExpiresAt.After(plain.Refresh.ExpiresAt),
					"remembered session must outlive the plain one")
			})
		})
	})

	t.Run("RefreshPair", func(t *testing.T) {
		t.Run("rotates the pair", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				_, pair, err := s.SignUp(t.Context(), "alice@example.com", "pwd123", "Alice", false)
				require.NoError(t, err)

				user, rotated, err := s.RefreshPair(t.Context(), pair.Refresh.Value)

				require.NoError(t, err)
				require.Equal(t, "alice@example.com", user.Email)
				require.NotEmpty(t, rotated.Access.Value)
				require.NotEqual(t, pair.Refresh.Value, rotated.Refresh.Value, "refresh secret must change on rotation")
			})
		})

		t.Run("replay of rotated token fails", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				_, pair, err := s.SignUp(t.Context(), "alice@example.com", "pwd123", "Alice", false)
				require.NoError(t, err)

				_, _, err = s.RefreshPair(t.Context(), pair.Refresh.Value)
				require.NoError(t, err)

				_, _, err = s.RefreshPair(t.Context(), pair.Refresh.Value)

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrAuthInvalid)
			})
		})

		t.Run("revoked token does not rotate", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				_, pair, err := s.SignUp(t.Context(), "alice@example.com", "pwd123", "Alice", false)
				require.NoError(t, err)

				require.NoError(t, s.Revoke(t.Context(), pair.Refresh.Value))

				_, _, err = s.RefreshPair(t.Context(), pair.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrAuthInvalid)
			})
		})
	})

	t.Run("Auth", func(t *testing.T) {
		t.Run("session cookie accepted", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				user, pair, err := s.SignUp(t.Context(), "alice@example.com", "pwd123", "Alice", false)
				require.NoError(t, err)

				r := httptest.NewRequest(http.MethodGet, "/", nil)
				r.AddCookie(&http.Cookie{Name: s.accessCookieName, Value: pair.Access.Value})

				session, err := s.Auth(t.Context(), r)

				require.NoError(t, err)
				assert.Equal(t, user.ID, session.UserID)
				assert.Equal(t, user.Email, session.Email)
			})
		})

		t.Run("bearer header accepted", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				user, pair, err := s.SignUp(t.Context(), "alice@example.com", "pwd123", "Alice", false)
				require.NoError(t, err)

				r := httptest.NewRequest(http.MethodGet, "/", nil)
				r.Header.Set("Authorization", "Bearer "+pair.Access.Value)

				session, err := s.Auth(t.Context(), r)

				require.NoError(t, err)
				assert.Equal(t, user.ID, session.UserID)
			})
		})

		t.Run("no credentials rejected", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				r := httptest.NewRequest(http.MethodGet, "/", nil)

				_, err := s.Auth(t.Context(), r)

				require.ErrorIs(t, err, apperrors.ErrAuthInvalid)
			})
		})

		t.Run("wrong auth scheme rejected", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *AuthService) {
				r := httptest.NewRequest(http.MethodGet, "/", nil)
				r.Header.Set("Authorization", "Basic dXNlcjpwd2Q=")

				_, err := s.Auth(t.Context(), r)

				require.ErrorIs(t, err, apperrors.ErrAuthInvalid)
			})
		})
	})

	t.Run("CheckCSRF", func(t *testing.T) {
		s, err := NewService(Config{}, nil, nil)
		require.NoError(t, err)

		t.Run("matching pair ok", func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", nil)
			r.AddCookie(&http.Cookie{Name: s.csrfCookieName, Value: "csrf-value"})
			r.Header.Set(s.csrfHeaderName, "csrf-value")

			require.NoError(t, s.CheckCSRF(r))
		})

		t.Run("mismatch rejected", func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", nil)
			r.AddCookie(&http.Cookie{Name: s.csrfCookieName, Value: "csrf-value"})
			r.Header.Set(s.csrfHeaderName, "other-value")

			require.ErrorIs(t, s.CheckCSRF(r), apperrors.ErrAuthInvalid)
		})

		t.Run("missing header rejected", func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", nil)
			r.AddCookie(&http.Cookie{Name: s.csrfCookieName, Value: "csrf-value"})

			require.ErrorIs(t, s.CheckCSRF(r), apperrors.ErrAuthInvalid)
		})

		t.Run("missing cookie rejected", func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", nil)
			r.Header.Set(s.csrfHeaderName, "csrf-value")

			require.ErrorIs(t, s.CheckCSRF(r), apperrors.ErrAuthInvalid)
		})
	})

	t.Run("session cookies", func(t *testing.T) {
		t.Run("set writes all three", func(t *testing.T) {
			s, err := NewService(Config{}, nil, nil)
			require.NoError(t, err)

			pair := models.TokenPair{
				Access:  models.IssuedToken{Value: "access-token", ExpiresAt: time.Now().Add(15 * time.Minute)},
				Refresh: models.IssuedToken{Value: "refresh-token", ExpiresAt: time.Now().Add(24 * time.Hour)},
			}

			w := httptest.NewRecorder()
			require.NoError(t, s.SetTokenPairToResponse(w, pair))

			cookies := w.Result().Cookies()
			byName := map[string]*http.Cookie{}
			for _, c := range cookies {
				byName[c.Name] = c
			}
			require.Len(t, byName, 3)

			access := byName[s.accessCookieName]
			require.NotNil(t, access)
			assert.Equal(t, "access-token", access.Value)
			assert.True(t, access.HttpOnly, "access cookie must be http only")
			assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
			assert.Equal(t, "/", access.Path)

			refresh := byName[s.refreshCookieName]
			require.NotNil(t, refresh)
			assert.True(t, refresh.HttpOnly, "refresh cookie must be http only")

			csrf := byName[s.csrfCookieName]
			require.NotNil(t, csrf)
			assert.False(t, csrf.HttpOnly, "csrf cookie must stay readable for the double submit")
			assert.NotEmpty(t, csrf.Value)
		})

		t.Run("clear expires all three", func(t *testing.T) {
			s, err := NewService(Config{}, nil, nil)
			require.NoError(t, err)

			w := httptest.NewRecorder()
			s.ClearSessionCookies(w)

			cookies := w.Result().Cookies()
			require.Len(t, cookies, 3)
			for _, c := range cookies {
				assert.Equal(t, -1, c.MaxAge, "cookie %s must be expired", c.Name)
				assert.Empty(t, c.Value)
			}
		})
	})
}
