package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client abstracts the S3 API operation used by [S3].
// The [s3.Client] type satisfies this interface.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 streams PCM from an object in Amazon S3 or any S3-compatible
// store (MinIO, R2, etc.).
//
// The caller is responsible for configuring the [s3.Client] with
// appropriate credentials, region, and endpoint.
type S3 struct {
	client S3Client
	bucket string
	key    string
}

// NewS3 creates an S3-backed source for s3://{bucket}/{key}.
// Any type satisfying [S3Client] is accepted; typically an [s3.Client].
func NewS3(client S3Client, bucket, key string) *S3 {
	return &S3{client: client, bucket: bucket, key: key}
}

// Open streams the object body via GetObject.
// Returns an error wrapping os.ErrNotExist if the key does not exist.
func (s *S3) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("source: %s: %w", s.URI(), os.ErrNotExist)
		}
		return nil, err
	}
	return out.Body, nil
}

// URI returns the s3 URI.
func (s *S3) URI() string {
	return "s3://" + s.bucket + "/" + s.key
}

// isS3NotFound reports whether err indicates the S3 object does not exist.
func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

var _ Source = (*S3)(nil)
