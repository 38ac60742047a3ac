package auth

import (
	"io"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsim/backend/internal/models"
	"github.com/dsim/backend/internal/testutil"
	"github.com/dsim/backend/tests/e2e"
)

const (
	RefreshURL = "/auth/refresh"
	LogoutURL  = "/auth/logout"
	MeURL      = "/auth/me"
)

func Test_AuthRefresh(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("refresh rotates the pair", func(t *testing.T) {
		e2e.ServeWithTx(pg.Pool, t, func(tx pgx.Tx, srvURL string, s e2e.Services) {
			_, pair, err := s.AuthService.SignUp(t.Context(), "alice@example.com", "pwd123", "Alice", false)
			require.NoError(t, err)

			req, err := http.NewRequest(http.MethodPost, srvURL+RefreshURL, nil)
			require.NoError(t, err)
			require.NoError(t, s.AuthService.SetTokenPairToRequest(req, pair))

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() // nolint:errcheck

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))

			cookies := map[string]*http.Cookie{}
			for _, c := range resp.Cookies() {
				cookies[c.Name] = c
			}
			require.Contains(t, cookies, "dsim_refresh")
			assert.NotEqual(t, pair.Refresh.Value, cookies["dsim_refresh"].Value,
				"refresh token should be changed after refresh")
			require.Contains(t, cookies, "dsim_access")
			assert.NotEqual(t, pair.Access.Value, cookies["dsim_access"].Value,
				"access token should be changed after refresh")
		})
	})

	t.Run("refresh twice fails", func(t *testing.T) {
		e2e.ServeWithTx(pg.Pool, t, func(tx pgx.Tx, srvURL string, s e2e.Services) {
			_, pair, err := s.AuthService.SignUp(t.Context(), "alice@example.com", "pwd123", "Alice", false)
			require.NoError(t, err)

			createRequest := func(pair models.TokenPair) *http.Request {
				req, err := http.NewRequest(http.MethodPost, srvURL+RefreshURL, nil)
				require.NoError(t, err)
				require.NoError(t, s.AuthService.SetTokenPairToRequest(req, pair))
				return req
			}

			resp1, err := http.DefaultClient.Do(createRequest(pair))
			require.NoError(t, err, "refresh request should always complete")
			body1, err := io.ReadAll(resp1.Body)
			require.NoError(t, err)
			defer resp1.Body.Close() // nolint:errcheck
			require.Equalf(t, http.StatusOK, resp1.StatusCode, "not expected code. Body: %s", string(body1))

			resp2, err := http.DefaultClient.Do(createRequest(pair))
			require.NoError(t, err, "refresh request should always complete")
			body2, err := io.ReadAll(resp2.Body)
			require.NoError(t, err)
			defer resp2.Body.Close() // nolint:errcheck

			require.Equalf(t, http.StatusUnauthorized, resp2.StatusCode, "not expected code. Body: %s", string(body2))
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "Unauthorized"
				}`, string(body2))
		})
	})

	t.Run("csrf mismatch rejected before rotation", func(t *testing.T) {
		e2e.ServeWithTx(pg.Pool, t, func(tx pgx.Tx, srvURL string, s e2e.Services) {
			_, pair, err := s.AuthService.SignUp(t.Context(), "alice@example.com", "pwd123", "Alice", false)
			require.NoError(t, err)

			req, err := http.NewRequest(http.MethodPost, srvURL+RefreshURL, nil)
			require.NoError(t, err)
			require.NoError(t, s.AuthService.SetTokenPairToRequest(req, pair))
			req.Header.Set("X-CSRF-Token", "tampered")

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() // nolint:errcheck

			require.Equalf(t, http.StatusForbidden, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "Invalid CSRF token"
				}`, string(body))

			// The guard fired before the rotation: the token must still work
			req2, err := http.NewRequest(http.MethodPost, srvURL+RefreshURL, nil)
			require.NoError(t, err)
			require.NoError(t, s.AuthService.SetTokenPairToRequest(req2, pair))

			resp2, err := http.DefaultClient.Do(req2)
			require.NoError(t, err)
			defer resp2.Body.Close() // nolint:errcheck
			assert.Equal(t, http.StatusOK, resp2.StatusCode, "rejected request must not consume the refresh token")
		})
	})
}

func Test_AuthLogout(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("logout revokes and clears cookies", func(t *testing.T) {
		e2e.ServeWithTx(pg.Pool, t, func(tx pgx.Tx, srvURL string, s e2e.Services) {
			_, pair, err := s.AuthService.SignUp(t.Context(), "alice@example.com", "pwd123", "Alice", false)
			require.NoError(t, err)

			req, err := http.NewRequest(http.MethodPost, srvURL+LogoutURL, nil)
			require.NoError(t, err)
			require.NoError(t, s.AuthService.SetTokenPairToRequest(req, pair))

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close() // nolint:errcheck

			require.Equal(t, http.StatusOK, resp.StatusCode)

			cookies := resp.Cookies()
			require.Len(t, cookies, 3)
			for _, c := range cookies {
				assert.Equal(t, -1, c.MaxAge, "cookie %s must be expired", c.Name)
			}

			// The refresh token must be dead now
			_, _, err = s.AuthService.RefreshPair(t.Context(), pair.Refresh.Value)
			require.Error(t, err)
		})
	})

	t.Run("logout without session still ok", func(t *testing.T) {
		e2e.ServeWithTx(pg.Pool, t, func(tx pgx.Tx, srvURL string, s e2e.Services) {
			resp, err := http.Post(srvURL+LogoutURL, "application/json", nil)
			require.NoError(t, err)
			defer resp.Body.Close() // nolint:errcheck

			require.Equal(t, http.StatusOK, resp.StatusCode)
		})
	})
}

func Test_AuthMe(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("me returns the session user", func(t *testing.T) {
		e2e.ServeWithTx(pg.Pool, t, func(tx pgx.Tx, srvURL string, s e2e.Services) {
			user, pair, err := s.AuthService.SignUp(t.Context(), "alice@example.com", "pwd123", "Alice", false)
			require.NoError(t, err)

			req, err := http.NewRequest(http.MethodGet, srvURL+MeURL, nil)
			require.NoError(t, err)
			require.NoError(t, s.AuthService.SetTokenPairToRequest(req, pair))

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() // nolint:errcheck

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))
			assert.Contains(t, string(body), user.Email)
		})
	})

	t.Run("me without credentials rejected", func(t *testing.T) {
		e2e.ServeWithTx(pg.Pool, t, func(tx pgx.Tx, srvURL string, s e2e.Services) {
			resp, err := http.Get(srvURL + MeURL)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() // nolint:errcheck

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", string(body))
		})
	})
}
