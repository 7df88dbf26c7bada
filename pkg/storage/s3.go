package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/traceops/capfetch/internal"
)

// S3Config is the full credential set for an S3-compatible store. Endpoint is
// optional and only needed for non-AWS stores (MinIO and friends); it must
// include the scheme.
type S3Config struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

type s3Backend struct {
	client *s3.Client
	bucket string
}

// NewS3 builds the S3-compatible backend. Credentials are static; no ambient
// AWS configuration is consulted.
func NewS3(ctx context.Context, conf S3Config) (Backend, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(conf.AccessKey, conf.SecretKey, "")),
		awsconfig.WithRegion(conf.Region),
	}
	if conf.Endpoint != "" {
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(
			aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				if service == s3.ServiceID {
					return aws.Endpoint{
						URL:           conf.Endpoint,
						SigningRegion: region,
					}, nil
				}
				return aws.Endpoint{}, fmt.Errorf("unknown endpoint requested")
			}),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if conf.Endpoint != "" {
			o.UsePathStyle = true
		}
	})
	return &s3Backend{client: client, bucket: conf.Bucket}, nil
}

func (b *s3Backend) Name() string { return "s3://" + b.bucket + "/" }

func (b *s3Backend) ListDay(ctx context.Context, prefix string) ([]Object, error) {
	var out []Object
	p := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, classifyS3Error(err)
		}
		for _, obj := range page.Contents {
			out = append(out, Object{
				Key:  aws.ToString(obj.Key),
				Size: aws.ToInt64(obj.Size),
			})
		}
	}
	return out, nil
}

func (b *s3Backend) Fetch(ctx context.Context, key, dest string) (int64, error) {
	resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return 0, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return 0, classifyS3Error(err)
	}
	return internal.WriteReadCloserToFile(resp.Body, dest)
}

func classifyS3Error(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return fmt.Errorf("%w: %v", ErrBackendAuth, err)
		case "NoSuchKey":
			return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
}
