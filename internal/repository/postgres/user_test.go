package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsim/backend/internal/apperrors"
	"github.com/dsim/backend/internal/models"
	"github.com/dsim/backend/internal/testutil"
)

func Test_UserRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("create user ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			user, err := repo.CreateUser(t.Context(), "alice@example.com", "Alice", models.RoleTraveler, "hash")

			require.NoError(t, err)
			require.NotEqual(t, uuid.Nil, user.ID)
			require.Equal(t, "alice@example.com", user.Email)
			require.Equal(t, "Alice", user.Name)
			require.Equal(t, models.RoleTraveler, user.Role)
			require.Equal(t, "hash", user.PasswordHash)
			require.False(t, user.CreatedAt.IsZero())
		})
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}
			_, err := repo.CreateUser(t.Context(), "bob@example.com", "Bob", models.RoleTraveler, "hash")
			require.NoError(t, err)

			_, err = repo.CreateUser(t.Context(), "bob@example.com", "Other Bob", models.RoleTraveler, "hash")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
		})
	})

	t.Run("get by id and email", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}
			created, err := repo.CreateUser(t.Context(), "carol@example.com", "Carol", models.RoleGuide, "hash")
			require.NoError(t, err)

			byID, err := repo.GetUserByID(t.Context(), created.ID)
			require.NoError(t, err)
			require.Equal(t, created.ID, byID.ID)
			require.Equal(t, models.RoleGuide, byID.Role)

			byEmail, err := repo.GetUserByEmail(t.Context(), "carol@example.com")
			require.NoError(t, err)
			require.Equal(t, created.ID, byEmail.ID)
		})
	})

	t.Run("get missing user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			_, err := repo.GetUserByID(t.Context(), uuid.New())
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

			_, err = repo.GetUserByEmail(t.Context(), "nobody@example.com")
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("search matches name and email case insensitive", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}
			_, err := repo.CreateUser(t.Context(), "dora@example.com", "Dora Explorer", models.RoleTraveler, "hash")
			require.NoError(t, err)
			_, err = repo.CreateUser(t.Context(), "explorer@example.com", "Somebody Else", models.RoleTraveler, "hash")
			require.NoError(t, err)

			users, err := repo.SearchUsers(t.Context(), "EXPLORER", 10)

			require.NoError(t, err)
			require.Len(t, users, 2, "should match one by name and one by email")
		})
	})

	t.Run("search respects limit", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}
			for _, email := range []string{"t1@example.com", "t2@example.com", "t3@example.com"} {
				_, err := repo.CreateUser(t.Context(), email, "Traveler", models.RoleTraveler, "hash")
				require.NoError(t, err)
			}

			users, err := repo.SearchUsers(t.Context(), "traveler", 2)

			require.NoError(t, err)
			require.Len(t, users, 2)
		})
	})
}
