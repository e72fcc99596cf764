package services

import (
	"context"
	"io"
)

// ImageFile is an image received from a client and not yet uploaded.
type ImageFile struct {
	Filename string
	Content  io.Reader
}

// ImageFiles carries the optional new images of a create or update request.
type ImageFiles struct {
	Thumbnail      *ImageFile
	DetailedImages []ImageFile
}

func (f *ImageFiles) hasThumbnail() bool { return f != nil && f.Thumbnail != nil }
func (f *ImageFiles) hasDetailed() bool  { return f != nil && len(f.DetailedImages) > 0 }

// ListProductsParams contains parameters for listing products with filters.
type ListProductsParams struct {
	Page        int
	Limit       int
	PriceMin    *float64
	PriceMax    *float64
	SortByPrice string // "1", "-1", "asc", "desc"; empty means ascending
	Category    string
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// MetricsRecorder is satisfied by the CloudWatch metrics client.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
}
