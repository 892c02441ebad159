package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"careercoach-backend/internal/shared/storage/object"
)

// api is the subset of *s3.Client the store calls.
type api interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config selects the bucket and encryption for archived media.
type Config struct {
	Region string
	Bucket string
	// Prefix is prepended to every key, e.g. "generated".
	Prefix string
	// KMSKeyID switches server-side encryption from AES256 to aws:kms.
	KMSKeyID string
}

// Store archives media in an S3 bucket.
type Store struct {
	client api
	cfg    Config
}

// New loads the default AWS credential chain for cfg.Region.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.Bucket = strings.TrimSpace(cfg.Bucket)
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region := strings.TrimSpace(cfg.Region); region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newWithClient(s3.NewFromConfig(awsCfg), cfg), nil
}

func newWithClient(client api, cfg Config) *Store {
	cfg.Prefix = strings.Trim(strings.TrimSpace(cfg.Prefix), "/")
	cfg.KMSKeyID = strings.TrimSpace(cfg.KMSKeyID)
	return &Store{client: client, cfg: cfg}
}

// Put buffers the body so the upload carries a content length; generated
// images are a few megabytes at most.
func (s *Store) Put(ctx context.Context, m object.Media) (object.Stored, error) {
	key, mimeType, body, err := object.Prepare(m)
	if err != nil {
		return object.Stored{}, err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return object.Stored{}, fmt.Errorf("read body: %w", err)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(s.objectKey(key)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(mimeType),
		Metadata:      map[string]string{"content-id": m.ContentID},
	}
	if s.cfg.KMSKeyID != "" {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAwsKms
		input.SSEKMSKeyId = aws.String(s.cfg.KMSKeyID)
	} else {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAes256
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return object.Stored{}, fmt.Errorf("s3 put %s/%s: %w", s.cfg.Bucket, s.objectKey(key), err)
	}
	return object.Stored{Key: key, MimeType: mimeType, Size: int64(len(data))}, nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	clean, err := object.CleanKey(key)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(s.objectKey(clean)),
	})
	if err != nil {
		var missing *s3types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("%w: %s", object.ErrNotFound, clean)
		}
		return nil, fmt.Errorf("s3 get %s/%s: %w", s.cfg.Bucket, s.objectKey(clean), err)
	}
	return out.Body, nil
}

// Delete relies on S3 treating a missing key as success.
func (s *Store) Delete(ctx context.Context, key string) error {
	clean, err := object.CleanKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(s.objectKey(clean)),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", s.cfg.Bucket, s.objectKey(clean), err)
	}
	return nil
}

func (s *Store) objectKey(key string) string {
	if s.cfg.Prefix == "" {
		return key
	}
	return s.cfg.Prefix + "/" + key
}

var _ object.ObjectStore = (*Store)(nil)
