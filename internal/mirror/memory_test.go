// ABOUTME: Runs the shared store behavior suite against MemoryStore.
// ABOUTME: The database-backed stores run the same suite behind env guards.
package mirror_test

import (
	"testing"

	"github.com/harperreed/lift/internal/mirror"
	"github.com/harperreed/lift/internal/mirror/mirrortest"
)

func TestMemoryStore(t *testing.T) {
	mirrortest.Run(t, func(t *testing.T) mirror.Store {
		return mirror.NewMemoryStore()
	})
}
