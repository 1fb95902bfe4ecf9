package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"archivist/internal/domain"
	"archivist/internal/domain/services"
)

// S3Config configures the S3 backend
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string
	Local    bool // MinIO: static credentials and path-style addressing
}

// s3API is the subset of the S3 client used here
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3Storage keeps files in an S3 bucket
type S3Storage struct {
	client s3API
	bucket string
	logger *slog.Logger
}

var _ services.FileStorage = (*S3Storage)(nil)

// NewS3Storage builds the client. In local mode the bucket is created when missing.
func NewS3Storage(ctx context.Context, cfg S3Config, logger *slog.Logger) (*S3Storage, error) {
	var client *s3.Client

	if cfg.Local {
		client = s3.New(s3.Options{
			Region: cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				"minioadmin",
				"minioadmin",
				"",
			),
			BaseEndpoint: aws.String(cfg.Endpoint),
			UsePathStyle: true,
		})
	} else {
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
		})
	}

	s := newS3Storage(client, cfg.Bucket, logger)
	if cfg.Local {
		if err := s.ensureBucket(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func newS3Storage(client s3API, bucket string, logger *slog.Logger) *S3Storage {
	return &S3Storage{client: client, bucket: bucket, logger: logger}
}

func (s *S3Storage) ensureBucket(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err == nil {
		return nil
	}

	if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}

	s.logger.Info("bucket created", "bucket", s.bucket)
	return nil
}

// Store uploads the file. The key carries a short random suffix so a retried
// import never overwrites an object that is already referenced.
func (s *S3Storage) Store(ctx context.Context, localPath, code string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", domain.WrapStorage("open upload", err)
	}
	defer f.Close()

	key := objectKey(code+"-"+uuid.NewString()[:8], localPath, time.Now())
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", domain.WrapStorage("upload object", err)
	}

	s.logger.Debug("object uploaded", "bucket", s.bucket, "key", key)
	return key, nil
}

// Retrieve downloads an object to destPath
func (s *S3Storage) Retrieve(ctx context.Context, serverPath, destPath string) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(serverPath),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return domain.NewNotFoundError("file", serverPath)
		}
		return domain.WrapStorage("download object", err)
	}
	defer out.Body.Close()

	f, err := os.Create(destPath)
	if err != nil {
		return domain.WrapStorage("create download target", err)
	}
	if _, err := io.Copy(f, out.Body); err != nil {
		f.Close()
		return domain.WrapStorage("download object", err)
	}
	if err := f.Close(); err != nil {
		return domain.WrapStorage("download object", err)
	}
	return nil
}

// Exists reports whether the object is present
func (s *S3Storage) Exists(ctx context.Context, serverPath string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(serverPath),
	})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, domain.WrapStorage("head object", err)
}

// Delete removes the object. S3 treats missing keys as success.
func (s *S3Storage) Delete(ctx context.Context, serverPath string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(serverPath),
	})
	if err != nil {
		return domain.WrapStorage("delete object", err)
	}
	return nil
}

func (s *S3Storage) Hash(localPath string) (string, error) {
	return hashFile(localPath)
}

func (s *S3Storage) LocalExists(localPath string) bool {
	return localExists(localPath)
}
