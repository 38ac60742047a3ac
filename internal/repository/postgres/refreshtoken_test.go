package postgres

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsim/backend/internal/apperrors"
	"github.com/dsim/backend/internal/models"
	"github.com/dsim/backend/internal/testutil"
)

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

func createTestUser(t *testing.T, repo *UserRepo, email string) models.User {
	t.Helper()
	user, err := repo.CreateUser(t.Context(), email, "Test User", models.RoleTraveler, "hash")
	require.NoError(t, err)
	return user
}

func Test_RefreshTokenRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	newToken := func(userID uuid.UUID) models.RefreshToken {
		return models.RefreshToken{
			ID:        uuid.New(),
			UserID:    userID,
			TokenHash: uuid.NewString(),
			CreatedAt: mustParseTime("2024-01-01 19:00:01Z"),
			ExpiresAt: mustParseTime("2200-01-01 03:00:02Z"),
			Revoked:   false,
		}
	}

	t.Run("save token ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createTestUser(t, &UserRepo{DB: tx}, "save@example.com")
			repo := RefreshTokenRepo{DB: tx}
			token := newToken(user.ID)

			err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			got, err := repo.Get(t.Context(), token.TokenHash)
			require.NoError(t, err)
			require.Equal(t, token.ID, got.ID)
			require.Equal(t, token.UserID, got.UserID)
			require.Equal(t, token.TokenHash, got.TokenHash)
			require.WithinDuration(t, token.CreatedAt, got.CreatedAt, time.Microsecond)
			require.WithinDuration(t, token.ExpiresAt, got.ExpiresAt, time.Microsecond)
			require.False(t, got.Revoked, "fresh token must not be revoked")
		})
	})

	t.Run("consume active token", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createTestUser(t, &UserRepo{DB: tx}, "consume@example.com")
			repo := RefreshTokenRepo{DB: tx}
			token := newToken(user.ID)
			require.NoError(t, repo.Save(t.Context(), token))

			got, err := repo.Consume(t.Context(), token.TokenHash, time.Now())

			require.NoError(t, err)
			require.True(t, got.Revoked, "consumed token must be marked revoked")
			require.Equal(t, token.UserID, got.UserID)
		})
	})

	t.Run("consume is single use", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createTestUser(t, &UserRepo{DB: tx}, "replay@example.com")
			repo := RefreshTokenRepo{DB: tx}
			token := newToken(user.ID)
			require.NoError(t, repo.Save(t.Context(), token))

			_, err := repo.Consume(t.Context(), token.TokenHash, time.Now())
			require.NoError(t, err)

			_, err = repo.Consume(t.Context(), token.TokenHash, time.Now())
			require.Error(t, err, "second consume is a replay and must fail")
			assert.ErrorIs(t, err, apperrors.ErrAuthInvalid)
		})
	})

	t.Run("consume unknown token", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}

			_, err := repo.Consume(t.Context(), "never-saved", time.Now())

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrAuthInvalid)
		})
	})

	t.Run("consume expired token leaves record untouched", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createTestUser(t, &UserRepo{DB: tx}, "expired@example.com")
			repo := RefreshTokenRepo{DB: tx}
			token := newToken(user.ID)
			token.ExpiresAt = mustParseTime("2024-01-02 19:00:01Z")
			require.NoError(t, repo.Save(t.Context(), token))

			_, err := repo.Consume(t.Context(), token.TokenHash, time.Now())
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrAuthInvalid)

			got, err := repo.Get(t.Context(), token.TokenHash)
			require.NoError(t, err)
			assert.False(t, got.Revoked, "expired token must not be flipped to revoked")
		})
	})

	t.Run("revoke is idempotent", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createTestUser(t, &UserRepo{DB: tx}, "revoke@example.com")
			repo := RefreshTokenRepo{DB: tx}
			token := newToken(user.ID)
			require.NoError(t, repo.Save(t.Context(), token))

			require.NoError(t, repo.Revoke(t.Context(), token.TokenHash))
			require.NoError(t, repo.Revoke(t.Context(), token.TokenHash), "revoking revoked token must not fail")
			require.NoError(t, repo.Revoke(t.Context(), "never-saved"), "revoking unknown token must not fail")

			got, err := repo.Get(t.Context(), token.TokenHash)
			require.NoError(t, err)
			assert.True(t, got.Revoked)
		})
	})

	t.Run("concurrent consume lets exactly one through", func(t *testing.T) {
		// Runs on the pool directly: two transactions racing on one row is
		// the scenario, a shared test tx would serialize them
		userRepo := &UserRepo{DB: pg.Pool}
		repo := RefreshTokenRepo{DB: pg.Pool}

		user := createTestUser(t, userRepo, "race@example.com")
		token := newToken(user.ID)
		require.NoError(t, repo.Save(t.Context(), token))

		const workers = 2
		errs := make([]error, workers)

		var wg sync.WaitGroup
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = repo.Consume(t.Context(), token.TokenHash, time.Now())
			}()
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, apperrors.ErrAuthInvalid)
			}
		}
		assert.Equal(t, 1, succeeded, "exactly one concurrent consume must win")
	})
}
