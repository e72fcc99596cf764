package controllers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/logger"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/response"
)

// bulkTimeout is longer than DefaultContextTimeout since every row is a
// separate create.
const bulkTimeout = 5 * time.Minute

// BulkImportHandler handles bulk product import operations
type BulkImportHandler struct {
	productService ProductServiceAPI
	cache          *CacheManager
	validator      *RequestValidator
	timeout        time.Duration
}

func NewBulkImportHandler(ps ProductServiceAPI, cache *CacheManager, validator *RequestValidator) *BulkImportHandler {
	return &BulkImportHandler{
		productService: ps,
		cache:          cache,
		validator:      validator,
		timeout:        bulkTimeout,
	}
}

// ValidateBulkImport checks a sheet without importing it
func (h *BulkImportHandler) ValidateBulkImport(c *gin.Context) {
	file, err := h.getAndValidateFile(c)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	fileHandle, err := file.Open()
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, msgInternal, "Failed to open file")
		return
	}
	defer fileHandle.Close()

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	result, err := h.productService.ValidateBulkImport(ctx, fileHandle, file.Filename)
	if err != nil {
		response.Error(c, err, msgInternal, msgFallback)
		return
	}
	response.Success(c, http.StatusOK, result.Message, result)
}

// CreateBulkProducts imports products from a CSV or XLSX sheet
func (h *BulkImportHandler) CreateBulkProducts(c *gin.Context) {
	file, err := h.getAndValidateFile(c)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	fileHandle, err := file.Open()
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, msgInternal, "Failed to open file")
		return
	}
	defer fileHandle.Close()

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	result, err := h.productService.ImportProducts(ctx, fileHandle, file.Filename)
	if err != nil {
		logger.WithRequest(ctx, zap.L()).Error("Bulk import failed", zap.Error(err), zap.String("file", file.Filename))
		response.Error(c, err, msgInternal, msgFallback)
		return
	}

	if result.InsertedCount > 0 {
		h.cache.InvalidateProduct(ctx, "")
	}

	status := http.StatusCreated
	if result.InsertedCount == 0 {
		status = http.StatusUnprocessableEntity
	} else if result.ErrorsCount > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, response.Body{Success: result.InsertedCount > 0, Message: result.Message, Data: result})
}

func (h *BulkImportHandler) getAndValidateFile(c *gin.Context) (*multipart.FileHeader, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, errors.New("file is required")
	}
	if !h.validator.IsValidSheet(file) {
		return nil, errors.New("invalid file type, only .csv and .xlsx are allowed")
	}
	if err := h.validator.ValidateFileSize(file); err != nil {
		return nil, err
	}
	return file, nil
}
