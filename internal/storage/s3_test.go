package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumire/identity/internal/domain"
)

type fakeS3 struct {
	put     *s3.PutObjectInput
	body    []byte
	deleted []string
	putErr  error
	delErr  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.put = in
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.delErr != nil {
		return nil, f.delErr
	}
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func newTestStore(api *fakeS3) *S3Store {
	s := newS3Store(api, "photos-bucket")
	s.now = func() time.Time { return time.Date(2024, 5, 7, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestS3StoreStore(t *testing.T) {
	api := &fakeS3{}
	s := newTestStore(api)

	id, err := s.Store(context.Background(), domain.BinaryData{
		ContentType: "image/png",
		Length:      3,
		Body:        bytes.NewReader([]byte{1, 2, 3}),
	})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^photos/2024/05/07/[0-9a-f-]{36}$`), id)
	require.NotNil(t, api.put)
	assert.Equal(t, "photos-bucket", aws.ToString(api.put.Bucket))
	assert.Equal(t, id, aws.ToString(api.put.Key))
	assert.Equal(t, "image/png", aws.ToString(api.put.ContentType))
	assert.Equal(t, int64(3), aws.ToInt64(api.put.ContentLength))
	assert.Equal(t, []byte{1, 2, 3}, api.body)
}

func TestS3StoreStoreUniqueKeys(t *testing.T) {
	s := newTestStore(&fakeS3{})
	a, err := s.Store(context.Background(), domain.BinaryData{Body: bytes.NewReader(nil)})
	require.NoError(t, err)
	b, err := s.Store(context.Background(), domain.BinaryData{Body: bytes.NewReader(nil)})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestS3StoreStoreError(t *testing.T) {
	s := newTestStore(&fakeS3{putErr: errors.New("bucket gone")})
	_, err := s.Store(context.Background(), domain.BinaryData{Body: bytes.NewReader(nil), Length: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket gone")
}

func TestS3StoreDelete(t *testing.T) {
	api := &fakeS3{}
	s := newTestStore(api)

	require.NoError(t, s.Delete(context.Background(), "photos/a"))
	require.NoError(t, s.Delete(context.Background(), ""))
	assert.Equal(t, []string{"photos/a"}, api.deleted)

	api.delErr = errors.New("denied")
	err := s.Delete(context.Background(), "photos/b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "photos/b")
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{Region: "us-east-1"})
	require.Error(t, err)
}

func TestNewS3Store(t *testing.T) {
	s, err := NewS3Store(context.Background(), S3Config{
		AccessKey:    "admin",
		SecretKey:    "secret",
		Bucket:       "photos",
		Region:       "us-east-1",
		BaseEndpoint: "http://127.0.0.1:9000",
	})
	require.NoError(t, err)
	assert.Equal(t, "photos", s.bucket)
	assert.NotNil(t, s.client)
}
