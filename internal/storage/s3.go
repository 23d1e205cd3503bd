// Package storage provides object-storage containers backed by any
// S3-compatible service (Amazon S3, Hetzner Object Storage, ...).
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"nathanbeddoewebdev/provctl/internal/awsconf"
	"nathanbeddoewebdev/provctl/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// s3API is the subset of the S3 client used by Store.
type s3API interface {
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	ListBuckets(ctx context.Context, in *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	DeleteBucket(ctx context.Context, in *s3.DeleteBucketInput, optFns ...func(*s3.Options)) (*s3.DeleteBucketOutput, error)
	PutBucketWebsite(ctx context.Context, in *s3.PutBucketWebsiteInput, optFns ...func(*s3.Options)) (*s3.PutBucketWebsiteOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Compile-time check that Store satisfies domain.ContainerAPI.
var _ domain.ContainerAPI = (*Store)(nil)

// Config selects the S3 service.
type Config struct {
	// Endpoint is the service URL. Empty means Amazon S3.
	Endpoint string

	Region string
	Keys   awsconf.KeyPair

	// PathStyle addresses buckets as endpoint/bucket instead of
	// bucket.endpoint.
	PathStyle bool
}

// Store implements domain.ContainerAPI on an S3 bucket namespace.
type Store struct {
	s3       s3API
	region   string
	endpoint string
}

// New creates a Store for the given service.
func New(ctx context.Context, cfg Config) (*Store, error) {
	awsCfg, err := awsconf.Load(ctx, cfg.Region, cfg.Keys)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return &Store{s3: client, region: cfg.Region, endpoint: cfg.Endpoint}, nil
}

// CreateContainer creates a bucket. A bucket already owned by the
// caller is returned as is.
func (s *Store) CreateContainer(ctx context.Context, name string) (domain.Handle, error) {
	in := &s3.CreateBucketInput{Bucket: aws.String(name)}
	// us-east-1 rejects an explicit location constraint.
	if s.endpoint == "" && s.region != "" && s.region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}

	if _, err := s.s3.CreateBucket(ctx, in); err != nil && !isBucketAlreadyOwnedByYou(err) {
		return domain.Handle{}, mapError("create container "+name, err)
	}
	return containerHandle(name, 0), nil
}

// GetContainer returns the bucket with its current object count.
func (s *Store) GetContainer(ctx context.Context, name string) (domain.Handle, error) {
	if _, err := s.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(name)}); err != nil {
		return domain.Handle{}, mapError("get container "+name, err)
	}

	objects, err := s.ListObjects(ctx, name)
	if err != nil {
		return domain.Handle{}, err
	}
	return containerHandle(name, len(objects)), nil
}

// ListContainers lists buckets. Object counts are not included; use
// GetContainer for an authoritative count.
func (s *Store) ListContainers(ctx context.Context) ([]domain.Handle, error) {
	out, err := s.s3.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, mapError("list containers", err)
	}

	handles := make([]domain.Handle, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		h := containerHandle(aws.ToString(b.Name), 0)
		delete(h.Attributes, domain.AttrObjectCount)
		handles = append(handles, h)
	}
	return handles, nil
}

func (s *Store) ListObjects(ctx context.Context, container string) ([]domain.Object, error) {
	var objects []domain.Object
	paginator := s3.NewListObjectsV2Paginator(s.s3, &s3.ListObjectsV2Input{Bucket: aws.String(container)})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapError("list objects in "+container, err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, domain.Object{
				Key:  aws.ToString(obj.Key),
				Size: aws.ToInt64(obj.Size),
			})
		}
	}
	return objects, nil
}

func (s *Store) PutObject(ctx context.Context, container, key string, body io.Reader, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	if _, err := s.s3.PutObject(ctx, in); err != nil {
		return mapError(fmt.Sprintf("put object %s/%s", container, key), err)
	}
	return nil
}

func (s *Store) DeleteObject(ctx context.Context, container, key string) error {
	_, err := s.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
	})
	if err != nil {
		return mapError(fmt.Sprintf("delete object %s/%s", container, key), err)
	}
	return nil
}

// DeleteContainer deletes a bucket. The bucket must be empty.
func (s *Store) DeleteContainer(ctx context.Context, name string) error {
	if _, err := s.s3.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(name)}); err != nil {
		return mapError("delete container "+name, err)
	}
	return nil
}

// EnableWebsite configures static website hosting and returns the
// website hostname.
func (s *Store) EnableWebsite(ctx context.Context, name, indexKey, errorKey string) (string, error) {
	cfg := &types.WebsiteConfiguration{
		IndexDocument: &types.IndexDocument{Suffix: aws.String(indexKey)},
	}
	if errorKey != "" {
		cfg.ErrorDocument = &types.ErrorDocument{Key: aws.String(errorKey)}
	}

	_, err := s.s3.PutBucketWebsite(ctx, &s3.PutBucketWebsiteInput{
		Bucket:               aws.String(name),
		WebsiteConfiguration: cfg,
	})
	if err != nil {
		return "", mapError("enable website on "+name, err)
	}
	return s.websiteHost(name), nil
}

// websiteHost returns the public website hostname of a bucket.
func (s *Store) websiteHost(bucket string) string {
	if s.endpoint == "" {
		return fmt.Sprintf("%s.s3-website.%s.amazonaws.com", bucket, s.region)
	}
	host := s.endpoint
	if u, err := url.Parse(s.endpoint); err == nil && u.Host != "" {
		host = u.Host
	}
	return bucket + "." + strings.TrimSuffix(host, "/")
}

func containerHandle(name string, objects int) domain.Handle {
	return domain.Handle{
		ID:     name,
		Kind:   domain.KindContainer,
		Name:   name,
		Status: domain.StatusActive,
		Attributes: map[string]any{
			domain.AttrObjectCount: objects,
		},
	}
}

// isBucketAlreadyOwnedByYou checks if the error indicates the bucket exists and is owned by us.
func isBucketAlreadyOwnedByYou(err error) bool {
	var owned *types.BucketAlreadyOwnedByYou
	if errors.As(err, &owned) {
		return true
	}

	// S3-compatible services may not return the exact SDK error types.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "BucketAlreadyOwnedByYou"
	}
	return false
}

// mapError converts S3 errors to domain sentinels.
func mapError(op string, err error) error {
	var sentinel error

	var noBucket *types.NoSuchBucket
	var notFound *types.NotFound
	var exists *types.BucketAlreadyExists
	var apiErr smithy.APIError
	switch {
	case errors.As(err, &noBucket), errors.As(err, &notFound):
		sentinel = domain.ErrNotFound
	case errors.As(err, &exists):
		sentinel = domain.ErrConflict
	case errors.As(err, &apiErr):
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchBucket", "NoSuchKey", "404":
			sentinel = domain.ErrNotFound
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "403":
			sentinel = domain.ErrUnauthorized
		case "BucketNotEmpty", "BucketAlreadyExists", "OperationAborted":
			sentinel = domain.ErrConflict
		case "SlowDown", "TooManyRequests":
			sentinel = domain.ErrRateLimited
		case "NotImplemented", "MethodNotAllowed":
			sentinel = domain.ErrUnsupported
		}
	}
	if sentinel != nil {
		err = fmt.Errorf("%w: %w", sentinel, err)
	}
	return &domain.APIError{Op: op, Err: err}
}
