package staging

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	pkgerrs "github.com/chainthreads/go-threads-publisher/pkg/errors"
)

// S3Store stages media in an S3 bucket with public-read objects.
type S3Store struct {
	s3     *s3.S3
	bucket string
	prefix string
}

// NewS3Store builds a store backed by the given region and bucket. The
// bucket must allow public reads for the platform to fetch staged media.
func NewS3Store(region, bucket, prefix string) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, err
	}

	return &S3Store{
		s3:     s3.New(sess),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

func (s *S3Store) Name() string { return "s3" }

func (s *S3Store) key(name string) string {
	if s.prefix != "" {
		return s.prefix + "/" + name
	}
	return name
}

func (s *S3Store) Put(ctx context.Context, name string, data []byte, contentType string) (Artifact, error) {
	key := s.key(name)
	_, err := s.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return Artifact{}, s.wrap(err)
	}

	return Artifact{
		URL:        fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key),
		Name:       name,
		Handle:     key,
		UploadedAt: time.Now(),
	}, nil
}

func (s *S3Store) Delete(ctx context.Context, artifact Artifact) error {
	_, err := s.s3.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(artifact.Handle),
	})
	if err != nil {
		return s.wrap(err)
	}
	return nil
}

func (s *S3Store) wrap(err error) error {
	if aerr, ok := err.(awserr.Error); ok {
		return &pkgerrs.StagingError{Provider: s.Name(), Body: aerr.Code() + ": " + aerr.Message(), Err: err}
	}
	return &pkgerrs.StagingError{Provider: s.Name(), Err: err}
}
