// ABOUTME: Runs the mirror store suite against PostgreSQL.
// ABOUTME: Skipped unless LIFT_TEST_POSTGRES_URL points at a scratch database.
package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harperreed/lift/internal/mirror"
	"github.com/harperreed/lift/internal/mirror/mirrortest"
)

func TestStore(t *testing.T) {
	dsn := os.Getenv("LIFT_TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("LIFT_TEST_POSTGRES_URL not set")
	}

	store, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	mirrortest.Run(t, func(t *testing.T) mirror.Store { return store })
}

func TestOpenRejectsBadDSN(t *testing.T) {
	_, err := Open(context.Background(), "postgres://%zz")
	require.Error(t, err)
}
