package filestore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAllowedImage(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"a.png":      true,
		"a.JPG":      true,
		"a.jpeg":     true,
		"photo.gif":  true,
		"a.bmp":      false,
		"noext":      false,
		"trailing.":  false,
		"a.png.exe":  false,
	}
	for name, want := range tests {
		assert.Equal(t, want, IsAllowedImage(name), name)
	}
}

func TestSecureFilename(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"My cat.png":          "My_cat.png",
		"../../etc/passwd":    "passwd",
		`C:\Users\x\evil.jpg`: "evil.jpg",
		".hidden.gif":         "hidden.gif",
		"ñ.png":               "png",
		"":                    "file",
	}
	for in, want := range tests {
		assert.Equal(t, want, SecureFilename(in), in)
	}
}

func TestDiskStore_PutDelete(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := &DiskStore{Dir: dir}
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "products/1/a.png", bytes.NewReader([]byte("img")), 3, "image/png"))
	data, err := os.ReadFile(filepath.Join(dir, "products", "1", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "img", string(data))

	require.NoError(t, s.Delete(ctx, "products/1/a.png"))
	require.NoError(t, s.Delete(ctx, "products/1/a.png"))
	_, err = os.Stat(filepath.Join(dir, "products", "1", "a.png"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, s.Put(ctx, "../escape", bytes.NewReader(nil), 0, ""), ErrInvalidKey)
	assert.ErrorIs(t, s.Delete(ctx, "/abs"), ErrInvalidKey)
}

type fakeS3 struct {
	puts    map[string][]byte
	deletes []string
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_PutDelete(t *testing.T) {
	t.Parallel()

	fake := &fakeS3{puts: map[string][]byte{}}
	s := &S3Store{client: fake, bucket: "pics"}
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "users/alice/me.png", bytes.NewReader([]byte("x")), 1, "image/png"))
	assert.Equal(t, []byte("x"), fake.puts["pics/users/alice/me.png"])

	require.NoError(t, s.Delete(ctx, "users/alice/me.png"))
	assert.Equal(t, []string{"pics/users/alice/me.png"}, fake.deletes)
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	t.Parallel()

	_, err := NewS3Store(context.Background(), S3Config{Region: "us-east-1"})
	require.Error(t, err)
}
