package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/glyphscan/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.GetObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.PutObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockS3Client) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.ListObjectsV2Output), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockS3Client) UploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	args := m.Called(ctx, params)
	return nil, args.Error(1)
}

func (m *MockS3Client) CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	return nil, args.Error(1)
}

func (m *MockS3Client) CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	return nil, args.Error(1)
}

func (m *MockS3Client) AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	return nil, args.Error(1)
}

func TestStore_Open(t *testing.T) {
	ctx := context.Background()
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "bucket", "glyphs")

	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Bucket == "bucket" && *in.Key == "glyphs/a.json"
	})).Return(&s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(`[{"id":"g1","vec":[1]}]`)),
	}, nil).Once()

	rc, err := store.Open(ctx, "a.json")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"g1","vec":[1]}]`, string(data))
	mockClient.AssertExpectations(t)
}

func TestStore_OpenNotFound(t *testing.T) {
	ctx := context.Background()
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "bucket", "")

	mockClient.On("GetObject", mock.Anything, mock.Anything).
		Return(nil, &types.NoSuchKey{}).Once()

	_, err := store.Open(ctx, "missing.json")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
	assert.False(t, blobstore.ShouldRetry(err))
}

func TestStore_OpenOtherError(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "bucket", "")
	boom := errors.New("boom")

	mockClient.On("GetObject", mock.Anything, mock.Anything).Return(nil, boom).Once()

	_, err := store.Open(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.True(t, blobstore.ShouldRetry(err))
}

func TestStore_ListPaginates(t *testing.T) {
	ctx := context.Background()
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "bucket", "glyphs/")

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return *in.Prefix == "glyphs/run" && in.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		Contents:              []types.Object{{Key: aws.String("glyphs/run/b.json")}},
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("next"),
	}, nil).Once()
	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return in.ContinuationToken != nil && *in.ContinuationToken == "next"
	})).Return(&s3.ListObjectsV2Output{
		Contents:    []types.Object{{Key: aws.String("glyphs/run/a.json")}},
		IsTruncated: aws.Bool(false),
	}, nil).Once()

	names, err := store.List(ctx, "run")
	require.NoError(t, err)
	assert.Equal(t, []string{"run/a.json", "run/b.json"}, names)
	mockClient.AssertExpectations(t)
}

func TestStore_PutSmallObject(t *testing.T) {
	ctx := context.Background()
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "bucket", "reports")

	mockClient.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Bucket == "bucket" && *in.Key == "reports/run.json"
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	require.NoError(t, store.Put(ctx, "run.json", []byte("{}")))
	mockClient.AssertExpectations(t)
}

func TestStore_Key(t *testing.T) {
	tests := []struct {
		root, name, want string
	}{
		{"glyphs/", "a.json", "glyphs/a.json"},
		{"glyphs", "in/", "glyphs/in/"},
		{"glyphs", "", "glyphs/"},
		{"", "in/", "in/"},
		{"", "", ""},
	}
	for _, tt := range tests {
		s := NewStore(new(MockS3Client), "bucket", tt.root)
		assert.Equal(t, tt.want, s.key(tt.name), "root=%q name=%q", tt.root, tt.name)
	}
}
