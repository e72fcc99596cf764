package controllers

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/response"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/services"
)

const (
	msgInternal = "Internal Server Error"
	msgFallback = "An unexpected error occurred"
)

// ProductController handles product HTTP requests
type ProductController struct {
	service   ProductServiceAPI
	cache     *CacheManager
	validator *RequestValidator
	timeout   time.Duration
}

// NewProductController creates a new product controller. cache may be nil.
func NewProductController(service ProductServiceAPI, cache *CacheManager, validator *RequestValidator) *ProductController {
	return &ProductController{
		service:   service,
		cache:     cache,
		validator: validator,
		timeout:   DefaultContextTimeout,
	}
}

func (pc *ProductController) context(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), pc.timeout)
}

// openedImages keeps multipart files open for the duration of a service call.
type openedImages struct {
	files   *services.ImageFiles
	closers []io.Closer
}

func (o *openedImages) Close() {
	for _, c := range o.closers {
		_ = c.Close()
	}
}

func openImages(thumb *multipart.FileHeader, detailed []*multipart.FileHeader) (*openedImages, error) {
	o := &openedImages{files: &services.ImageFiles{}}
	open := func(fh *multipart.FileHeader) (*services.ImageFile, error) {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		o.closers = append(o.closers, f)
		return &services.ImageFile{Filename: fh.Filename, Content: f}, nil
	}

	if thumb != nil {
		img, err := open(thumb)
		if err != nil {
			o.Close()
			return nil, err
		}
		o.files.Thumbnail = img
	}
	for _, fh := range detailed {
		img, err := open(fh)
		if err != nil {
			o.Close()
			return nil, err
		}
		o.files.DetailedImages = append(o.files.DetailedImages, *img)
	}
	return o, nil
}

// CreateProduct handles POST /products (multipart form).
func (pc *ProductController) CreateProduct(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "Bad Request", "Expected multipart form data")
		return
	}
	thumb, detailed, err := pc.validator.ImageHeaders(form)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if thumb == nil {
		response.Fail(c, http.StatusBadRequest, "Thumbnail is required", "Thumbnail is required")
		return
	}

	images, err := openImages(thumb, detailed)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "Bad Request", "Failed to read uploaded image")
		return
	}
	defer images.Close()

	ctx, cancel := pc.context(c)
	defer cancel()

	product, err := pc.service.CreateProduct(ctx, pc.validator.FormFields(form), images.files)
	if err != nil {
		response.Error(c, err, msgInternal, msgFallback)
		return
	}

	pc.cache.InvalidateProduct(ctx, "")
	response.Success(c, http.StatusCreated, "Product created successfully", product)
}

// GetProducts handles GET /products with pagination and filters.
func (pc *ProductController) GetProducts(c *gin.Context) {
	params, err := pc.validator.ParseListParams(c)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	ctx, cancel := pc.context(c)
	defer cancel()

	if page, ok := pc.cache.GetProductList(ctx, params); ok {
		c.Header("X-Cache", "HIT")
		response.Success(c, http.StatusOK, "Products fetched successfully", page)
		return
	}

	page, err := pc.service.ListProducts(ctx, params)
	if err != nil {
		response.Error(c, err, msgInternal, msgFallback)
		return
	}

	pc.cache.SetProductListAsync(params, page)
	c.Header("X-Cache", "MISS")
	response.Success(c, http.StatusOK, "Products fetched successfully", page)
}

// GetAllProducts handles GET /products/all.
func (pc *ProductController) GetAllProducts(c *gin.Context) {
	ctx, cancel := pc.context(c)
	defer cancel()

	products, err := pc.service.ListAllProducts(ctx)
	if err != nil {
		response.Error(c, err, msgInternal, msgFallback)
		return
	}
	response.Success(c, http.StatusOK, "Products fetched successfully", products)
}

// GetCategories handles GET /products/categories.
func (pc *ProductController) GetCategories(c *gin.Context) {
	ctx, cancel := pc.context(c)
	defer cancel()

	if categories, ok := pc.cache.GetCategories(ctx); ok {
		response.Success(c, http.StatusOK, "Categories fetched successfully", categories)
		return
	}

	categories, err := pc.service.ListCategories(ctx)
	if err != nil {
		response.Error(c, err, msgInternal, msgFallback)
		return
	}
	pc.cache.SetCategoriesAsync(categories)
	response.Success(c, http.StatusOK, "Categories fetched successfully", categories)
}

// GetProduct handles GET /products/:id.
func (pc *ProductController) GetProduct(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := pc.context(c)
	defer cancel()

	if product, ok := pc.cache.GetProduct(ctx, id); ok {
		c.Header("X-Cache", "HIT")
		response.Success(c, http.StatusOK, "Product fetched successfully", product)
		return
	}

	product, err := pc.service.GetProduct(ctx, id)
	if err != nil {
		response.Error(c, err, msgInternal, msgFallback)
		return
	}

	pc.cache.SetProductAsync(id, product)
	c.Header("X-Cache", "MISS")
	response.Success(c, http.StatusOK, "Product fetched successfully", product)
}

// UpdateProduct handles PUT /products/:id. Multipart requests may carry new
// images; JSON requests update fields only.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	id := c.Param("id")

	var (
		fields map[string]interface{}
		files  *services.ImageFiles
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, err := c.MultipartForm()
		if err != nil {
			response.Fail(c, http.StatusBadRequest, "Bad Request", "Invalid multipart form")
			return
		}
		thumb, detailed, err := pc.validator.ImageHeaders(form)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		images, err := openImages(thumb, detailed)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, "Bad Request", "Failed to read uploaded image")
			return
		}
		defer images.Close()
		fields, files = pc.validator.FormFields(form), images.files
	} else if err := c.ShouldBindJSON(&fields); err != nil {
		response.Fail(c, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}

	ctx, cancel := pc.context(c)
	defer cancel()

	product, err := pc.service.UpdateProduct(ctx, id, fields, files)
	if err != nil {
		response.Error(c, err, msgInternal, msgFallback)
		return
	}

	pc.cache.InvalidateProduct(ctx, id)
	response.Success(c, http.StatusOK, "Product updated successfully", product)
}

// DeleteProduct handles DELETE /products/:id.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := pc.context(c)
	defer cancel()

	confirmation, err := pc.service.DeleteProduct(ctx, id)
	if err != nil {
		response.Error(c, err, msgInternal, msgFallback)
		return
	}

	pc.cache.InvalidateProduct(ctx, id)
	response.Success(c, http.StatusOK, "Product deleted successfully", confirmation)
}

// AddStock handles PATCH /products/:id/stock.
func (pc *ProductController) AddStock(c *gin.Context) {
	id := c.Param("id")

	var req StockRequest
	if c.ContentType() == gin.MIMEJSON {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Fail(c, http.StatusBadRequest, "Quantity must be a number", "Invalid JSON body")
			return
		}
	} else if q, ok := c.GetPostForm("quantity"); ok {
		req.Quantity = q
	}

	ctx, cancel := pc.context(c)
	defer cancel()

	product, err := pc.service.AddStockQuantity(ctx, id, req.Quantity)
	if err != nil {
		response.Error(c, err, msgInternal, msgFallback)
		return
	}

	pc.cache.InvalidateProduct(ctx, id)
	response.Success(c, http.StatusOK, "Stock quantity updated successfully", product)
}
