package imagestore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// CloudinaryStore stores images in a single Cloudinary folder.
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret, folder string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init error: %w", err)
	}
	cld.Config.URL.Secure = true
	return &CloudinaryStore{cld: cld, folder: strings.Trim(folder, "/")}, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, r io.Reader, filename string) (*UploadResult, error) {
	resp, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID: uuid.NewString(),
		Folder:   s.folder,
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload %s: %w", filename, err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload %s: %s", filename, resp.Error.Message)
	}
	return &UploadResult{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}

func (s *CloudinaryStore) Destroy(ctx context.Context, publicID string) error {
	if publicID == "" {
		return ErrEmptyPublicID
	}
	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("cloudinary destroy %s: %w", publicID, err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy %s: %s", publicID, resp.Error.Message)
	}
	// "ok" or "not found"; both leave the asset absent.
	return nil
}
