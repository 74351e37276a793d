// Package staging provides temporary public stores for media that the
// platform must fetch by URL. A store uploads a payload and returns a
// publicly reachable URL together with a deletion handle; the publishing
// pipeline deletes every staged object if the run aborts.
package staging

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Artifact is one staged upload: where the platform can fetch it and what
// the store needs to delete it again.
type Artifact struct {
	// URL is the publicly reachable location of the object.
	URL string

	// Name is the object name the store assigned or was given.
	Name string

	// Handle is the provider-specific deletion token (blob SHA for GitHub,
	// object key for S3 and GCS).
	Handle string

	// UploadedAt records when the upload completed.
	UploadedAt time.Time
}

// Store is a temporary public object store.
type Store interface {
	// Name identifies the provider in errors and logs.
	Name() string

	// Put uploads data under the given object name and returns the
	// resulting artifact. The name already carries a collision-free suffix.
	Put(ctx context.Context, name string, data []byte, contentType string) (Artifact, error)

	// Delete removes a previously staged artifact. Deleting an object that
	// is already gone is not an error.
	Delete(ctx context.Context, artifact Artifact) error
}

// ObjectName builds a short random-suffixed object name preserving the
// detected extension, e.g. "threads-9f2c1a8e.jpg".
func ObjectName(ext string) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return "threads-" + suffix + ext
}
