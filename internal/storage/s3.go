package storage

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"snapbooth/site/internal/config"
	"snapbooth/site/internal/domain"
)

// S3Mirror copies durable uploads to an S3-compatible bucket so the business has an off-host copy.
type S3Mirror struct {
	client     *s3.Client
	bucketName string
	prefix     string
}

// NewS3Mirror creates a mirror for cfg. It returns nil, nil when no bucket is configured.
func NewS3Mirror(ctx context.Context, cfg config.S3Config) (*S3Mirror, error) {
	if cfg.BucketName == "" {
		return nil, nil
	}

	opts := []func(*awsCfg.LoadOptions) error{awsCfg.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsCfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsSDKConfig, err := awsCfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			// S3-compatible services (MinIO, Spaces, R2) need a custom endpoint and path-style addressing.
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	log.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.BucketName).Msg("S3 upload mirror initialized")

	return &S3Mirror{
		client:     client,
		bucketName: cfg.BucketName,
		prefix:     cfg.Prefix,
	}, nil
}

// ObjectKey returns the bucket key used for a stored file.
func (m *S3Mirror) ObjectKey(storageName string) string {
	return path.Join(m.prefix, storageName)
}

// Mirror uploads the local durable copy under ObjectKey. A nil mirror does nothing.
func (m *S3Mirror) Mirror(ctx context.Context, file domain.StoredFile, localPath string) error {
	if m == nil {
		return nil
	}
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucketName),
		Key:           aws.String(m.ObjectKey(file.StorageName)),
		Body:          f,
		ContentType:   aws.String(file.ContentType),
		ContentLength: aws.Int64(file.Size),
		CacheControl:  aws.String(CacheControl),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", file.StorageName, err)
	}
	return nil
}
