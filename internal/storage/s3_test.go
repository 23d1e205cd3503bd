package storage

import (
	"context"
	"io"
	"sort"
	"strings"
	"testing"

	"nathanbeddoewebdev/provctl/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 keeps buckets and objects in memory.
type fakeS3 struct {
	buckets map[string]map[string]string
	website map[string]*types.WebsiteConfiguration

	createErr error
	lastPut   *s3.PutObjectInput
}

func newFakeS3(buckets ...string) *fakeS3 {
	f := &fakeS3{buckets: map[string]map[string]string{}, website: map[string]*types.WebsiteConfiguration{}}
	for _, b := range buckets {
		f.buckets[b] = map[string]string{}
	}
	return f
}

func noSuchBucket() error {
	return &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "no such bucket"}
}

func (f *fakeS3) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.buckets[*in.Bucket]; ok {
		return nil, &types.BucketAlreadyOwnedByYou{}
	}
	f.buckets[*in.Bucket] = map[string]string{}
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeS3) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if _, ok := f.buckets[*in.Bucket]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) ListBuckets(_ context.Context, _ *s3.ListBucketsInput, _ ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	var names []string
	for name := range f.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	out := &s3.ListBucketsOutput{}
	for _, n := range names {
		out.Buckets = append(out.Buckets, types.Bucket{Name: aws.String(n)})
	}
	return out, nil
}

func (f *fakeS3) DeleteBucket(_ context.Context, in *s3.DeleteBucketInput, _ ...func(*s3.Options)) (*s3.DeleteBucketOutput, error) {
	objects, ok := f.buckets[*in.Bucket]
	if !ok {
		return nil, noSuchBucket()
	}
	if len(objects) > 0 {
		return nil, &smithy.GenericAPIError{Code: "BucketNotEmpty", Message: "not empty"}
	}
	delete(f.buckets, *in.Bucket)
	return &s3.DeleteBucketOutput{}, nil
}

func (f *fakeS3) PutBucketWebsite(_ context.Context, in *s3.PutBucketWebsiteInput, _ ...func(*s3.Options)) (*s3.PutBucketWebsiteOutput, error) {
	f.website[*in.Bucket] = in.WebsiteConfiguration
	return &s3.PutBucketWebsiteOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	objects, ok := f.buckets[*in.Bucket]
	if !ok {
		return nil, noSuchBucket()
	}
	var keys []string
	for k := range objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k), Size: aws.Int64(int64(len(objects[k])))})
	}
	return out, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	objects, ok := f.buckets[*in.Bucket]
	if !ok {
		return nil, noSuchBucket()
	}
	data, _ := io.ReadAll(in.Body)
	objects[*in.Key] = string(data)
	f.lastPut = in
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.buckets[*in.Bucket], *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestStore_CreateContainer_AlreadyOwnedIsFine(t *testing.T) {
	store := &Store{s3: newFakeS3("site")}

	h, err := store.CreateContainer(context.Background(), "site")
	require.NoError(t, err)
	assert.Equal(t, domain.KindContainer, h.Kind)
	assert.Equal(t, "site", h.ID)
}

func TestStore_CreateContainer_Conflict(t *testing.T) {
	fake := newFakeS3()
	fake.createErr = &types.BucketAlreadyExists{}
	store := &Store{s3: fake}

	_, err := store.CreateContainer(context.Background(), "taken")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStore_GetContainer_CountsObjects(t *testing.T) {
	fake := newFakeS3("site")
	store := &Store{s3: fake}
	ctx := context.Background()

	require.NoError(t, store.PutObject(ctx, "site", "index.html", strings.NewReader("<h1>hi</h1>"), "text/html"))
	require.NoError(t, store.PutObject(ctx, "site", "error.html", strings.NewReader("oops"), ""))
	assert.Equal(t, "text/html", aws.ToString(fake.lastPut.ContentType))

	h, err := store.GetContainer(ctx, "site")
	require.NoError(t, err)
	n, ok := h.Int(domain.AttrObjectCount)
	require.True(t, ok)
	assert.Equal(t, 2, n)

	objects, err := store.ListObjects(ctx, "site")
	require.NoError(t, err)
	assert.Equal(t, []domain.Object{{Key: "error.html", Size: 4}, {Key: "index.html", Size: 11}}, objects)
}

func TestStore_GetContainer_NotFound(t *testing.T) {
	store := &Store{s3: newFakeS3()}

	_, err := store.GetContainer(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ListContainers_OmitsObjectCount(t *testing.T) {
	store := &Store{s3: newFakeS3("a", "b")}

	handles, err := store.ListContainers(context.Background())
	require.NoError(t, err)
	require.Len(t, handles, 2)
	_, ok := handles[0].Int(domain.AttrObjectCount)
	assert.False(t, ok, "listing must not claim an object count")
}

func TestStore_DeleteContainer_NotEmptyIsConflict(t *testing.T) {
	fake := newFakeS3("site")
	fake.buckets["site"]["index.html"] = "x"
	store := &Store{s3: fake}

	err := store.DeleteContainer(context.Background(), "site")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStore_EnableWebsite(t *testing.T) {
	fake := newFakeS3("site")

	t.Run("amazon", func(t *testing.T) {
		store := &Store{s3: fake, region: "eu-central-1"}
		host, err := store.EnableWebsite(context.Background(), "site", "index.html", "error.html")
		require.NoError(t, err)
		assert.Equal(t, "site.s3-website.eu-central-1.amazonaws.com", host)
		assert.Equal(t, "index.html", aws.ToString(fake.website["site"].IndexDocument.Suffix))
		assert.Equal(t, "error.html", aws.ToString(fake.website["site"].ErrorDocument.Key))
	})

	t.Run("custom endpoint", func(t *testing.T) {
		store := &Store{s3: fake, region: "fsn1", endpoint: "https://fsn1.your-objectstorage.com"}
		host, err := store.EnableWebsite(context.Background(), "site", "index.html", "")
		require.NoError(t, err)
		assert.Equal(t, "site.fsn1.your-objectstorage.com", host)
	})
}

func TestMapError(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{"NoSuchBucket", domain.ErrNotFound},
		{"AccessDenied", domain.ErrUnauthorized},
		{"SlowDown", domain.ErrRateLimited},
		{"NotImplemented", domain.ErrUnsupported},
	}
	for _, tt := range tests {
		err := mapError("op", &smithy.GenericAPIError{Code: tt.code})
		assert.ErrorIs(t, err, tt.want, tt.code)
	}
}
