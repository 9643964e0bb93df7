package users

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/ideauth/internal/client/migrations"
	"github.com/dmitrijs2005/ideauth/internal/client/models"
	"github.com/dmitrijs2005/ideauth/internal/common"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, "."))
	return db
}

func backends(t *testing.T) map[string]Repository {
	return map[string]Repository{
		"json":   NewJSONRepository(filepath.Join(t.TempDir(), "users.json")),
		"sqlite": NewSQLiteRepository(setupDB(t)),
	}
}

func sampleUser(id string) *models.User {
	return &models.User{
		UserID:          id,
		Username:        models.Sealed{Cipher: []byte("uc-" + id), Nonce: []byte("un")},
		Email:           models.Sealed{Cipher: []byte("ec-" + id), Nonce: []byte("en")},
		PasswordHash:    "$argon2id$v=19$m=64,t=1,p=1$c2FsdA$aGFzaA",
		AESKeyEncrypted: models.Sealed{Cipher: []byte("kc"), Nonce: []byte("kn")},
		AESSalt:         []byte("salt-" + id),
		Preferences:     models.DefaultPreferences(),
		Keybindings:     models.Keybindings{"control+s": "save file"},
		CreatedAt:       time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRepository_EmptyList(t *testing.T) {
	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			list, err := r.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestRepository_CreateListPreservesOrder(t *testing.T) {
	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ids := []string{"c", "a", "b"}
			for _, id := range ids {
				require.NoError(t, r.Create(ctx, sampleUser(id)))
			}

			list, err := r.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 3)
			for i, id := range ids {
				assert.Equal(t, id, list[i].UserID)
			}

			got := list[1]
			want := sampleUser("a")
			assert.Equal(t, want.Username, got.Username)
			assert.Equal(t, want.AESKeyEncrypted, got.AESKeyEncrypted)
			assert.Equal(t, want.AESSalt, got.AESSalt)
			assert.Equal(t, want.PasswordHash, got.PasswordHash)
			assert.Equal(t, want.Preferences, got.Preferences)
			assert.Equal(t, want.Keybindings, got.Keybindings)
			assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
		})
	}
}

func TestRepository_CreateDuplicateFails(t *testing.T) {
	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, r.Create(ctx, sampleUser("x")))
			require.Error(t, r.Create(ctx, sampleUser("x")))

			list, err := r.List(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestRepository_GetMissingReturnsNilNil(t *testing.T) {
	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			u, err := r.Get(context.Background(), "absent")
			require.NoError(t, err)
			assert.Nil(t, u)
		})
	}
}

func TestRepository_Update(t *testing.T) {
	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, r.Create(ctx, sampleUser("u1")))
			require.NoError(t, r.Create(ctx, sampleUser("u2")))

			u, err := r.Get(ctx, "u1")
			require.NoError(t, err)
			require.NotNil(t, u)

			u.Preferences.Theme = "light"
			u.Keybindings = models.Keybindings{"meta+o": "open file"}
			require.NoError(t, r.Update(ctx, u))

			again, err := r.Get(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, "light", again.Preferences.Theme)
			assert.Equal(t, models.Keybindings{"meta+o": "open file"}, again.Keybindings)

			// order is unchanged by an update
			list, _ := r.List(ctx)
			assert.Equal(t, "u1", list[0].UserID)

			err = r.Update(ctx, sampleUser("ghost"))
			require.ErrorIs(t, err, common.ErrorNotFound)
		})
	}
}

func TestRepository_Delete(t *testing.T) {
	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, id := range []string{"u1", "u2", "u3"} {
				require.NoError(t, r.Create(ctx, sampleUser(id)))
			}

			require.NoError(t, r.Delete(ctx, "u2"))

			list, err := r.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "u1", list[0].UserID)
			assert.Equal(t, "u3", list[1].UserID)

			gone, err := r.Get(ctx, "u2")
			require.NoError(t, err)
			assert.Nil(t, gone)

			require.ErrorIs(t, r.Delete(ctx, "u2"), common.ErrorNotFound)
		})
	}
}

func TestRepository_CanceledContext(t *testing.T) {
	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			require.Error(t, r.Create(ctx, sampleUser("x")))
		})
	}
}

func TestJSONRepository_CorruptFileIsPersistenceError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte("{not an array"), 0o600))

	r := NewJSONRepository(path)
	_, err := r.List(context.Background())
	require.ErrorIs(t, err, common.ErrPersistence)

	err = r.Create(context.Background(), sampleUser("x"))
	require.ErrorIs(t, err, common.ErrPersistence)

	// the corrupt file is left as found
	data, _ := os.ReadFile(path)
	assert.Equal(t, "{not an array", string(data))
}

func TestJSONRepository_FileIsOwnerOnlyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	r := NewJSONRepository(path)
	require.NoError(t, r.Create(context.Background(), sampleUser("x")))

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte('['), data[0])
	assert.Contains(t, string(data), `"aes_key_encrypted"`)
}

func TestSQLiteRepository_DBErrorWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Close())

	_, err := r.List(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to list users")

	_, err = r.Get(ctx, "k")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to get user[k]")

	err = r.Create(ctx, sampleUser("k"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to create user[k]")
}
