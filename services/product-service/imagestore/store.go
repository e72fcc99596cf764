// Package imagestore uploads and destroys product images on a remote asset
// host. Stored URLs are mapped back to host identifiers with PublicIDFromURL,
// so every adapter names assets <folder>/<file> with no further nesting.
package imagestore

import (
	"context"
	"errors"
	"io"
)

// ErrEmptyPublicID is returned by Destroy when called without an identifier.
var ErrEmptyPublicID = errors.New("imagestore: empty public id")

// UploadResult identifies an uploaded asset.
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// Store is the remote image host. Destroy of an unknown identifier succeeds.
type Store interface {
	Upload(ctx context.Context, r io.Reader, filename string) (*UploadResult, error)
	Destroy(ctx context.Context, publicID string) error
}
