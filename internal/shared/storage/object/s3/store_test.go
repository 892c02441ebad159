package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careercoach-backend/internal/shared/storage/object"
)

const contentID = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"

type fakeS3 struct {
	objects map[string][]byte
	puts    []*s3.PutObjectInput
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestPutWritesUnderPrefixWithEncryption(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantSSE s3types.ServerSideEncryption
		prefix  string
	}{
		{name: "aes default", cfg: Config{Bucket: "media", Prefix: "/generated/"}, wantSSE: s3types.ServerSideEncryptionAes256, prefix: "generated/"},
		{name: "kms", cfg: Config{Bucket: "media", KMSKeyID: "key-1"}, wantSSE: s3types.ServerSideEncryptionAwsKms},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeS3()
			store := newWithClient(fake, tt.cfg)

			stored, err := store.Put(context.Background(), object.Media{
				Owner:     "user-1",
				ContentID: contentID,
				MimeType:  "image/jpeg",
				Body:      strings.NewReader("jpeg-bytes"),
			})
			require.NoError(t, err)
			assert.Equal(t, int64(10), stored.Size)
			assert.True(t, strings.HasSuffix(stored.Key, contentID+".jpg"))

			require.Len(t, fake.puts, 1)
			put := fake.puts[0]
			assert.Equal(t, tt.prefix+stored.Key, aws.ToString(put.Key))
			assert.Equal(t, tt.wantSSE, put.ServerSideEncryption)
			assert.Equal(t, int64(10), aws.ToInt64(put.ContentLength))
			assert.Equal(t, "image/jpeg", aws.ToString(put.ContentType))
		})
	}
}

func TestOpenMapsMissingKey(t *testing.T) {
	fake := newFakeS3()
	store := newWithClient(fake, Config{Bucket: "media", Prefix: "generated"})

	stored, err := store.Put(context.Background(), object.Media{Owner: "u", ContentID: contentID, MimeType: "image/png", Body: strings.NewReader("png")})
	require.NoError(t, err)

	rc, err := store.Open(context.Background(), stored.Key)
	require.NoError(t, err)
	got, _ := io.ReadAll(rc)
	assert.Equal(t, "png", string(got))

	require.NoError(t, store.Delete(context.Background(), stored.Key))
	_, err = store.Open(context.Background(), stored.Key)
	assert.True(t, errors.Is(err, object.ErrNotFound))
}

func TestOpenRejectsTraversal(t *testing.T) {
	store := newWithClient(newFakeS3(), Config{Bucket: "media"})
	_, err := store.Open(context.Background(), "../other-bucket/key")
	assert.ErrorIs(t, err, object.ErrInvalidKey)
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{Region: "us-east-1", Bucket: "  "})
	assert.Error(t, err)
}
