package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dsim/backend/internal/models"
)

// Auth service stub that fails token revocation but tracks cookie clearing
type authServiceStub struct {
	revokeErr   error
	revokeCalls int
	clearCalls  int
}

func (s *authServiceStub) SignUp(_ context.Context, _, _, _ string, _ bool) (models.User, models.TokenPair, error) {
	return models.User{}, models.TokenPair{}, errors.New("not implemented")
}

func (s *authServiceStub) SignIn(_ context.Context, _, _ string, _ bool) (models.User, models.TokenPair, error) {
	return models.User{}, models.TokenPair{}, errors.New("not implemented")
}

func (s *authServiceStub) RefreshPair(_ context.Context, _ string) (models.User, models.TokenPair, error) {
	return models.User{}, models.TokenPair{}, errors.New("not implemented")
}

func (s *authServiceStub) Revoke(_ context.Context, _ string) error {
	s.revokeCalls++
	return s.revokeErr
}

func (s *authServiceStub) ReadRefreshToken(_ *http.Request) (string, error) {
	return "raw-refresh-token", nil
}

func (s *authServiceStub) SetTokenPairToResponse(_ http.ResponseWriter, _ models.TokenPair) error {
	return nil
}

func (s *authServiceStub) ClearSessionCookies(w http.ResponseWriter) {
	s.clearCalls++
	http.SetCookie(w, &http.Cookie{Name: "dsim_refresh", Value: "", MaxAge: -1})
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Run("cookies cleared even when revoke fails", func(t *testing.T) {
		stub := &authServiceStub{revokeErr: errors.New("store unreachable")}
		handler := NewAuthHandler(stub, nil)

		srv := httptest.NewServer(http.HandlerFunc(handler.Logout))
		defer srv.Close()

		resp, err := http.Post(srv.URL+"/auth/logout", "application/json", nil)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equalf(t, http.StatusOK, resp.StatusCode, "logout must not fail on revoke errors. Resp: %s", string(body))
		require.JSONEq(t, `{"message": "Logged out"}`, string(body))

		require.Equal(t, 1, stub.clearCalls, "session cookies should be cleared")
		require.Equal(t, 1, stub.revokeCalls, "revoke should still be attempted")

		cookies := resp.Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, "dsim_refresh", cookies[0].Name)
		require.Equal(t, -1, cookies[0].MaxAge)
	})
}
