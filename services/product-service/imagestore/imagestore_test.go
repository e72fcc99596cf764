package imagestore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicIDFromURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{"https://host/folder123/abc.jpg", "folder123/abc"},
		{"https://res.cloudinary.com/demo/image/upload/v1712/groovy/5f1c.png", "groovy/5f1c"},
		{"https://host/folder/archive.tar.gz", "folder/archive"},
		{"https://host/folder/noext", "folder/noext"},
		{"abc.jpg", "abc"},
		{"https://host/abc.jpg", "abc"},
		{"https://host/folder/abc.jpg?v=2", "folder/abc"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PublicIDFromURL(tc.in), tc.in)
	}
}

type fakeS3 struct {
	objects map[string]string
	deleted []string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Key)] = string(b)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
		}
	}
	return out, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string]string{}}
	store := NewS3Store(fake, S3Config{Bucket: "groovy", Folder: "/products/", Endpoint: "http://localhost:4566/"})

	res, err := store.Upload(ctx, strings.NewReader("jpeg"), "Thumb.JPG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.URL, "http://localhost:4566/groovy/products/"))
	assert.True(t, strings.HasSuffix(res.URL, ".jpg"))
	assert.Equal(t, res.PublicID, PublicIDFromURL(res.URL))

	require.NoError(t, store.Destroy(ctx, res.PublicID))
	assert.Len(t, fake.deleted, 1)
	assert.Empty(t, fake.objects)

	// unknown ids are not an error
	require.NoError(t, store.Destroy(ctx, "products/missing"))
	assert.ErrorIs(t, store.Destroy(ctx, ""), ErrEmptyPublicID)
}

func TestS3PublicURL(t *testing.T) {
	s := NewS3Store(nil, S3Config{Bucket: "b", Folder: "f", CDNDomain: "cdn.example.com"})
	assert.Equal(t, "https://cdn.example.com/f/x.png", s.publicURL("f/x.png"))

	s = NewS3Store(nil, S3Config{Bucket: "b", Folder: "f"})
	assert.Equal(t, "https://b.s3.amazonaws.com/f/x.png", s.publicURL("f/x.png"))
}
