package imagestore

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config locates the bucket and how its objects are addressed publicly.
type S3Config struct {
	Bucket string
	Folder string
	// Endpoint is a custom S3 endpoint (LocalStack); URLs become path-style.
	Endpoint string
	// CDNDomain, when set, takes precedence for public URLs.
	CDNDomain string
}

type S3Store struct {
	client S3API
	cfg    S3Config
}

func NewS3Store(client S3API, cfg S3Config) *S3Store {
	cfg.Folder = strings.Trim(cfg.Folder, "/")
	return &S3Store{client: client, cfg: cfg}
}

func (s *S3Store) Upload(ctx context.Context, r io.Reader, filename string) (*UploadResult, error) {
	ext := strings.ToLower(path.Ext(filename))
	id := s.cfg.Folder + "/" + uuid.NewString()
	key := id + ext

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		input.ContentType = aws.String(ct)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("s3 put %s: %w", key, err)
	}
	return &UploadResult{URL: s.publicURL(key), PublicID: id}, nil
}

func (s *S3Store) publicURL(key string) string {
	switch {
	case s.cfg.CDNDomain != "":
		return fmt.Sprintf("https://%s/%s", strings.TrimRight(s.cfg.CDNDomain, "/"), key)
	case s.cfg.Endpoint != "":
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.cfg.Endpoint, "/"), s.cfg.Bucket, key)
	default:
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.cfg.Bucket, key)
	}
}

// Destroy removes every object stored under publicID regardless of extension.
func (s *S3Store) Destroy(ctx context.Context, publicID string) error {
	if publicID == "" {
		return ErrEmptyPublicID
	}
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.cfg.Bucket),
		Prefix: aws.String(publicID + "."),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("s3 list %s: %w", publicID, err)
		}
		for _, obj := range page.Contents {
			_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.cfg.Bucket),
				Key:    obj.Key,
			})
			if err != nil {
				return fmt.Errorf("s3 delete %s: %w", aws.ToString(obj.Key), err)
			}
		}
	}
	return nil
}
