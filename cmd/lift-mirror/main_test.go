// ABOUTME: Tests for lift-mirror commands: token issuing and store selection.
// ABOUTME: Uses the memory driver so no database is needed.
package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/lift/internal/mirror"
	"github.com/harperreed/lift/internal/remote"
)

func TestTokenCommandIssuesVerifiableToken(t *testing.T) {
	t.Setenv("LIFT_MIRROR_JWT_SECRET", "cmd-secret")
	configDir = t.TempDir()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "--user", "alice"})
	require.NoError(t, rootCmd.Execute())

	token := strings.TrimSpace(out.String())
	user, err := remote.TokenIdentity{Token: token}.UserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
}

func TestTokenCommandRequiresSecret(t *testing.T) {
	t.Setenv("LIFT_MIRROR_JWT_SECRET", "")
	configDir = t.TempDir()

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"token", "--user", "alice"})
	assert.Error(t, rootCmd.Execute())
}

func TestOpenStoreMemory(t *testing.T) {
	store, err := openStore(context.Background(), mirror.StoreConfig{Driver: mirror.DriverMemory})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	assert.IsType(t, &mirror.MemoryStore{}, store)
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	_, err := openStore(context.Background(), mirror.StoreConfig{Driver: "redis"})
	assert.Error(t, err)
}
