package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Storage implements Storage using the AWS SDK. Each container maps to one bucket.
type S3Storage struct {
	client     *s3.Client
	publicBase string
}

// NewS3Storage builds an S3 client with static credentials. endpoint may be empty
// for AWS itself or point at any S3-compatible service.
func NewS3Storage(ctx context.Context, endpoint, region, accessKey, secretKey, publicBase string) (*S3Storage, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{client: client, publicBase: publicBase}, nil
}

// EnsureContainer creates the bucket and attaches a public-read policy when it is missing.
func (s *S3Storage) EnsureContainer(ctx context.Context, container string) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(container)})
	if err == nil {
		return nil
	}
	var notFound *s3types.NotFound
	if !errors.As(err, &notFound) {
		return fmt.Errorf("s3 head bucket %s: %w", container, err)
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(container)})
	if err != nil {
		var owned *s3types.BucketAlreadyOwnedByYou
		var exists *s3types.BucketAlreadyExists
		if !errors.As(err, &owned) && !errors.As(err, &exists) {
			return fmt.Errorf("s3 create bucket %s: %w", container, err)
		}
	}
	slog.Info("storage: created bucket", "bucket", container)

	_, err = s.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(container),
		Policy: aws.String(publicReadPolicy(container)),
	})
	if err != nil {
		return fmt.Errorf("s3 put bucket policy %s: %w", container, err)
	}
	return nil
}

// Put uploads the reader under key.
func (s *S3Storage) Put(ctx context.Context, container, key string, reader io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(container),
		Key:         aws.String(key),
		Body:        reader,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3 put object bucket=%s key=%s: %w", container, key, err)
	}
	return nil
}

// Remove deletes key after confirming it exists.
func (s *S3Storage) Remove(ctx context.Context, container, key string) error {
	if _, err := s.Stat(ctx, container, key); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete object bucket=%s key=%s: %w", container, key, err)
	}
	return nil
}

// Keys pages through ListObjectsV2 until max keys are collected.
func (s *S3Storage) Keys(ctx context.Context, container string, max int) ([]string, error) {
	if max <= 0 {
		return nil, nil
	}
	pageSize := int32(max)
	if pageSize > 1000 {
		pageSize = 1000
	}
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:  aws.String(container),
		MaxKeys: aws.Int32(pageSize),
	})

	keys := make([]string, 0, max)
	for p.HasMorePages() && len(keys) < max {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list objects bucket=%s: %w", container, err)
		}
		for _, obj := range page.Contents {
			if len(keys) >= max {
				break
			}
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// Stat issues a HeadObject for key.
func (s *S3Storage) Stat(ctx context.Context, container, key string) (ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *s3types.NotFound
		if errors.As(err, &notFound) {
			return ObjectInfo{}, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return ObjectInfo{}, fmt.Errorf("s3 head object bucket=%s key=%s: %w", container, key, err)
	}
	return ObjectInfo{
		Key:         key,
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
	}, nil
}

// ObjectURL returns "<publicBase>/<bucket>/<key>".
func (s *S3Storage) ObjectURL(container, key string) string {
	return objectURL(s.publicBase, container, key)
}

var _ Storage = (*S3Storage)(nil)
