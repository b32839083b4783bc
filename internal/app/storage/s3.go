package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"chatterbox/internal/pkg/logx"
)

const defaultS3Region = "auto"

// S3Destination stores downloads in an S3-compatible bucket.
type S3Destination struct {
	cfg      ServiceConfig
	client   *s3.Client
	uploader *manager.Uploader
}

// NewS3Destination initializes the S3 client using a custom configuration that supports S3-compatible endpoints.
func NewS3Destination(ctx context.Context, cfg ServiceConfig) (*S3Destination, error) {
	region := cfg.S3Region
	if region == "" {
		region = defaultS3Region
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)))
	}

	sdkCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		logx.Error(err, "Failed to load AWS SDK config")
		return nil, errors.New("failed to initialize S3 client configuration")
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Destination{
		cfg:      cfg,
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

// Key returns the object key of the file name.
func (d *S3Destination) Key(name string) string {
	return objectKey(d.cfg.S3Prefix, name)
}

func objectKey(prefix, name string) string {
	name = path.Base("/" + name)
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

func (d *S3Destination) Store(ctx context.Context, name string, content io.Reader, size int64) (string, error) {
	key := d.Key(name)

	input := &s3.PutObjectInput{
		Bucket: &d.cfg.S3BucketName,
		Key:    &key,
		Body:   content,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := d.uploader.Upload(ctx, input); err != nil {
		logx.Error(err, "S3 upload failed", "key", key)
		return "", fmt.Errorf("upload %s to bucket: %w", key, err)
	}

	return "s3://" + d.cfg.S3BucketName + "/" + key, nil
}

func (d *S3Destination) Has(ctx context.Context, name string) (bool, error) {
	key := d.Key(name)

	_, err := d.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &d.cfg.S3BucketName,
		Key:    &key,
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, fmt.Errorf("head %s: %w", key, err)
	}

	return true, nil
}
