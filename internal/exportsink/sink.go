// Package exportsink delivers CSV exports to a destination: a local file or
// an S3-compatible bucket.
package exportsink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jwp-tools/jwpedit/pkg/errors"
)

// Sink stores an export under a key and returns where it went.
type Sink interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// FileSink writes exports below a directory.
type FileSink struct {
	Dir string
}

// Put implements Sink.
func (f FileSink) Put(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	path := filepath.Join(f.Dir, filepath.Clean("/" + key)[1:])
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", errors.WrapIO("create", filepath.Dir(path), err)
	}
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return "", errors.WrapIO("create", path, err)
	}
	if _, err := io.Copy(out, body); err != nil {
		_ = out.Close()
		return "", errors.WrapIO("write", path, err)
	}
	if err := out.Close(); err != nil {
		return "", errors.WrapIO("write", path, err)
	}
	return path, nil
}

// S3Config holds explicit construction parameters. Credentials fall back to
// the default AWS chain when the key pair is empty.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, for MinIO and other S3-compatible stores
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool

	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient aws.HTTPClient
}

// S3Sink uploads exports as objects in one bucket.
type S3Sink struct {
	client *s3.Client
	bucket string
}

// NewS3 creates an S3 sink from cfg.
func NewS3(ctx context.Context, cfg S3Config) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, errors.NewConfigError("export", "s3 bucket required", nil)
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.NewConfigError("export", "load aws config", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// Not every S3-compatible store accepts default checksum trailers.
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
	})
	return &S3Sink{client: client, bucket: cfg.Bucket}, nil
}

// Put implements Sink. The body is buffered so the request can be signed.
func (s *S3Sink) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", errors.WrapIO("read", key, err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("upload s3://%s/%s: %w", s.bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
