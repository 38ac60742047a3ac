package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsim/backend/internal/testutil"
)

func Test_FollowRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("follow and list both directions", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := &UserRepo{DB: tx}
			repo := FollowRepo{DB: tx}
			alice := createTestUser(t, users, "alice@example.com")
			bob := createTestUser(t, users, "bob@example.com")

			require.NoError(t, repo.Save(t.Context(), alice.ID, bob.ID))

			followers, err := repo.ListFollowers(t.Context(), bob.ID)
			require.NoError(t, err)
			require.Len(t, followers, 1)
			assert.Equal(t, alice.ID, followers[0].ID)

			following, err := repo.ListFollowing(t.Context(), alice.ID)
			require.NoError(t, err)
			require.Len(t, following, 1)
			assert.Equal(t, bob.ID, following[0].ID)
		})
	})

	t.Run("save is idempotent", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := &UserRepo{DB: tx}
			repo := FollowRepo{DB: tx}
			alice := createTestUser(t, users, "alice2@example.com")
			bob := createTestUser(t, users, "bob2@example.com")

			require.NoError(t, repo.Save(t.Context(), alice.ID, bob.ID))
			require.NoError(t, repo.Save(t.Context(), alice.ID, bob.ID))

			followers, err := repo.ListFollowers(t.Context(), bob.ID)
			require.NoError(t, err)
			require.Len(t, followers, 1, "double follow must not create a second record")
		})
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := &UserRepo{DB: tx}
			repo := FollowRepo{DB: tx}
			alice := createTestUser(t, users, "alice3@example.com")
			bob := createTestUser(t, users, "bob3@example.com")

			require.NoError(t, repo.Save(t.Context(), alice.ID, bob.ID))
			require.NoError(t, repo.Delete(t.Context(), alice.ID, bob.ID))
			require.NoError(t, repo.Delete(t.Context(), alice.ID, bob.ID), "deleting absent follow must not fail")

			followers, err := repo.ListFollowers(t.Context(), bob.ID)
			require.NoError(t, err)
			assert.Empty(t, followers)
		})
	})
}
