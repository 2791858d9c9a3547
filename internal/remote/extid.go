// ABOUTME: Deterministic external ids that let mirrors deduplicate repeated creates.
// ABOUTME: Derived from the install id, entity kind and local id with UUIDv5.
package remote

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/lift/internal/models"
)

// externalIDNamespace scopes lift's name-based UUIDs.
var externalIDNamespace = uuid.MustParse("6f1c2a7e-4b7d-5c1e-9a53-1f0a9d2b8e44")

// ExternalID returns the stable client-generated key for a local entity.
// The same install, kind and local id always produce the same key.
func ExternalID(installID string, ref models.Ref) string {
	name := fmt.Sprintf("%s/%s/%d", installID, ref.Kind, ref.ID)
	return uuid.NewSHA1(externalIDNamespace, []byte(name)).String()
}
