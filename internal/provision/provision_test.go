package provision

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/keeperbot/internal/logging"
	"github.com/dmitrijs2005/keeperbot/internal/remote"
	"github.com/dmitrijs2005/keeperbot/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("hunter2")

func TestInit_LocalOnly(t *testing.T) {
	ctx := context.Background()
	mem := remote.NewMemoryStore()
	path := filepath.Join(t.TempDir(), "data", "keeper.kbx")

	require.NoError(t, Init(ctx, mem, Options{LocalPath: path, RemotePath: "keeper.kbx", Secret: secret}, logging.Discard()))

	v, err := vault.Open(path, secret)
	require.NoError(t, err)
	defer v.Close()
	assert.Empty(t, v.Entries())
	assert.Zero(t, mem.Puts())
}

func TestInit_Push(t *testing.T) {
	ctx := context.Background()
	mem := remote.NewMemoryStore()
	path := filepath.Join(t.TempDir(), "keeper.kbx")

	require.NoError(t, Init(ctx, mem, Options{LocalPath: path, RemotePath: "db/keeper.kbx", Secret: secret, Push: true}, logging.Discard()))

	local, err := os.ReadFile(path)
	require.NoError(t, err)
	uploaded, err := mem.Get(ctx, "db/keeper.kbx")
	require.NoError(t, err)
	assert.Equal(t, local, uploaded)
}

func TestInit_RefusesOverwrite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "keeper.kbx")
	require.NoError(t, os.WriteFile(path, []byte("existing"), 0o600))

	err := Init(ctx, remote.NewMemoryStore(), Options{LocalPath: path, Secret: secret}, logging.Discard())
	assert.ErrorIs(t, err, ErrExists)

	mem := remote.NewMemoryStore()
	require.NoError(t, mem.Put(ctx, "keeper.kbx", []byte("remote")))
	fresh := filepath.Join(dir, "fresh.kbx")
	err = Init(ctx, mem, Options{LocalPath: fresh, RemotePath: "keeper.kbx", Secret: secret, Push: true}, logging.Discard())
	assert.ErrorIs(t, err, ErrExists)
	_, statErr := os.Stat(fresh)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))

	require.NoError(t, Init(ctx, mem, Options{LocalPath: path, RemotePath: "keeper.kbx", Secret: secret, Push: true, Force: true}, logging.Discard()))
	_, err = vault.Open(path, secret)
	assert.NoError(t, err)
}

func TestInit_EmptySecret(t *testing.T) {
	err := Init(context.Background(), remote.NewMemoryStore(), Options{LocalPath: filepath.Join(t.TempDir(), "k.kbx")}, logging.Discard())
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(int) ([]byte, error) {
		if len(answers) == 0 {
			return nil, errors.New("no more input")
		}
		next := answers[0]
		answers = answers[1:]
		return []byte(next), nil
	}
}

func TestGetNewPassword(t *testing.T) {
	t.Run("matching", func(t *testing.T) {
		stubPasswords(t, "pw", "pw")
		var out bytes.Buffer

		pw, err := GetNewPassword(&out)
		require.NoError(t, err)
		assert.Equal(t, "pw", string(pw))
		assert.Contains(t, out.String(), "Repeat master password")
	})

	t.Run("mismatch", func(t *testing.T) {
		stubPasswords(t, "pw", "other")
		_, err := GetNewPassword(&bytes.Buffer{})
		assert.ErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("empty", func(t *testing.T) {
		stubPasswords(t, "")
		_, err := GetNewPassword(&bytes.Buffer{})
		assert.ErrorIs(t, err, ErrEmptyPassword)
	})

	t.Run("read error", func(t *testing.T) {
		stubPasswords(t, "pw")
		_, err := GetNewPassword(&bytes.Buffer{})
		assert.Error(t, err)
	})
}
