package staging

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	pkgerrs "github.com/chainthreads/go-threads-publisher/pkg/errors"
)

// GCSStore stages media in a Google Cloud Storage bucket. The bucket must
// grant public read (allUsers objectViewer) so the platform can fetch
// staged objects.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore builds a store from a service-account credentials file.
func NewGCSStore(ctx context.Context, bucket, prefix, credentialsFile string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &GCSStore{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

func (s *GCSStore) Name() string { return "gcs" }

func (s *GCSStore) object(name string) string {
	if s.prefix != "" {
		return s.prefix + "/" + name
	}
	return name
}

func (s *GCSStore) Put(ctx context.Context, name string, data []byte, contentType string) (Artifact, error) {
	obj := s.object(name)
	w := s.client.Bucket(s.bucket).Object(obj).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return Artifact{}, &pkgerrs.StagingError{Provider: s.Name(), Err: err}
	}
	if err := w.Close(); err != nil {
		return Artifact{}, &pkgerrs.StagingError{Provider: s.Name(), Err: err}
	}

	return Artifact{
		URL:        fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, obj),
		Name:       name,
		Handle:     obj,
		UploadedAt: time.Now(),
	}, nil
}

func (s *GCSStore) Delete(ctx context.Context, artifact Artifact) error {
	err := s.client.Bucket(s.bucket).Object(artifact.Handle).Delete(ctx)
	if err == storage.ErrObjectNotExist {
		return nil
	}
	if err != nil {
		return &pkgerrs.StagingError{Provider: s.Name(), Err: err}
	}
	return nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
