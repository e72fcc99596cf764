package controllers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/models"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/services"
)

// Validation constants
const (
	MaxPageNumber = 1000000
	MaxUploadSize = 50 * 1024 * 1024 // 50MB
	MaxImages     = 10
)

var (
	allowedSheetExtensions = map[string]bool{
		".csv":  true,
		".xlsx": true,
	}

	allowedImageTypes = map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/webp": true,
		"image/gif":  true,
	}
)

// listQuery binds the listing query string.
type listQuery struct {
	Page        string `form:"page"`
	Limit       string `form:"limit" validate:"omitempty,numeric"`
	PriceMin    string `form:"priceMin" validate:"omitempty,numeric"`
	PriceMax    string `form:"priceMax" validate:"omitempty,numeric"`
	SortByPrice string `form:"sortByPrice" validate:"omitempty,oneof=1 -1 asc desc ASC DESC"`
	Category    string `form:"category"`
}

// RequestValidator handles all input validation
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		validate: validator.New(),
	}
}

// ParseListParams validates the listing query. Range clamping of page and
// limit is left to the service.
func (rv *RequestValidator) ParseListParams(c *gin.Context) (services.ListProductsParams, error) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return services.ListProductsParams{}, fmt.Errorf("invalid query: %w", err)
	}
	if err := rv.validate.Struct(&q); err != nil {
		return services.ListProductsParams{}, fmt.Errorf("invalid query: %w", err)
	}

	params := services.ListProductsParams{
		SortByPrice: strings.ToLower(q.SortByPrice),
		Category:    strings.TrimSpace(q.Category),
	}

	var err error
	if params.Page, err = parseInt(q.Page, services.DefaultPage); err != nil {
		return params, errors.New("invalid page number")
	}
	if params.Page > MaxPageNumber {
		params.Page = MaxPageNumber
	}
	if params.Limit, err = parseInt(q.Limit, services.DefaultLimit); err != nil {
		return params, errors.New("invalid page size")
	}
	if params.PriceMin, err = parseFloat(q.PriceMin); err != nil {
		return params, errors.New("invalid priceMin value")
	}
	if params.PriceMax, err = parseFloat(q.PriceMax); err != nil {
		return params, errors.New("invalid priceMax value")
	}
	return params, nil
}

func parseInt(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func parseFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// FormFields flattens multipart values: detailedImages keeps every value,
// other fields keep the first.
func (rv *RequestValidator) FormFields(form *multipart.Form) map[string]interface{} {
	fields := make(map[string]interface{}, len(form.Value))
	for key, values := range form.Value {
		if len(values) == 0 {
			continue
		}
		if key == models.FieldDetailedImages {
			fields[key] = values
			continue
		}
		fields[key] = values[0]
	}
	return fields
}

// ImageHeaders returns the thumbnail and detailed image headers after
// checking their types and sizes.
func (rv *RequestValidator) ImageHeaders(form *multipart.Form) (*multipart.FileHeader, []*multipart.FileHeader, error) {
	var thumb *multipart.FileHeader
	if files := form.File[models.FieldThumbnail]; len(files) > 0 {
		thumb = files[0]
	}
	detailed := form.File[models.FieldDetailedImages]
	if len(detailed) > MaxImages {
		return nil, nil, fmt.Errorf("at most %d detailed images are allowed", MaxImages)
	}

	all := append([]*multipart.FileHeader{}, detailed...)
	if thumb != nil {
		all = append(all, thumb)
	}
	for _, fh := range all {
		if !rv.IsValidImageType(fh) {
			return nil, nil, fmt.Errorf("invalid image type for file %s. Allowed: jpeg, jpg, png, webp, gif", fh.Filename)
		}
		if err := rv.ValidateFileSize(fh); err != nil {
			return nil, nil, err
		}
	}
	return thumb, detailed, nil
}

// IsValidImageType checks if the file is a valid image
func (rv *RequestValidator) IsValidImageType(file *multipart.FileHeader) bool {
	if allowedImageTypes[file.Header.Get("Content-Type")] {
		return true
	}

	switch strings.ToLower(filepath.Ext(file.Filename)) {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif":
		return true
	}
	return false
}

// IsValidSheet accepts .csv and .xlsx uploads.
func (rv *RequestValidator) IsValidSheet(file *multipart.FileHeader) bool {
	return allowedSheetExtensions[strings.ToLower(filepath.Ext(file.Filename))]
}

// ValidateFileSize checks if file size is within limits
func (rv *RequestValidator) ValidateFileSize(file *multipart.FileHeader) error {
	if file.Size > MaxUploadSize {
		return fmt.Errorf("file too large (max %dMB)", MaxUploadSize/(1024*1024))
	}
	return nil
}
