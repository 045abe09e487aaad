package repositories

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/playgrid/playgrid-server/internal/config"
)

// R2BlobStore stores blobs in a Cloudflare R2 bucket through the S3 API.
type R2BlobStore struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewR2BlobStore initializes the R2 client using static credentials and a
// custom endpoint.
func NewR2BlobStore(cfg config.R2Config) (*R2BlobStore, error) {
	if cfg.AccountID == "" || cfg.BucketName == "" {
		return nil, errors.New("r2 storage backend requires R2_ACCOUNT_ID and R2_BUCKET_NAME")
	}
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)

	awsCfg := aws.Config{
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Region:      cfg.Region,
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &R2BlobStore{
		client:  client,
		bucket:  cfg.BucketName,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

func (s *R2BlobStore) Store(ctx context.Context, key string, r io.Reader) (string, error) {
	clean := strings.TrimPrefix(path.Clean("/"+key), "/")
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(clean),
		Body:   r,
	})
	if err != nil {
		return "", err
	}
	return clean, nil
}

// Exists checks if a given object key exists in the R2 bucket.
// Returns true if the object exists, false if not, and an error if
// something went wrong.
func (s *R2BlobStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NotFound
		if ok := errors.As(err, &nsk); ok {
			// Object not found
			return false, nil
		}
		// Other error (e.g. auth, network)
		return false, err
	}
	return true, nil
}

func (s *R2BlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("blob %q: %w", key, ErrBlobNotFound)
		}
		return nil, err
	}
	return out.Body, nil
}

func (s *R2BlobStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

func (s *R2BlobStore) PublicURL(key string) string {
	return s.baseURL + "/" + strings.TrimPrefix(path.Clean("/"+key), "/")
}

// ErrBlobNotFound marks a key with no backing object in the store.
var ErrBlobNotFound = errors.New("blob not found")
