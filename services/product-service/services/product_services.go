package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	awspkg "github.com/MeetKhetani2003/Groovy-Frozen-Server/pkg/aws"
	apperrors "github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/errors"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/logger"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/imagestore"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/models"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/repository"
)

const (
	msgDuplicateName = "Product already exists. Please update its stock instead."
	msgNotFound      = "Product not found"
	msgInvalidID     = "Invalid or missing product ID"
	msgBadQuantity   = "Quantity must be a number"
)

// ProductService coordinates product records with their hosted images.
type ProductService struct {
	repo    repository.ProductRepo
	images  imagestore.Store
	logger  *zap.Logger
	metrics MetricsRecorder
}

func NewProductService(repo repository.ProductRepo, images imagestore.Store, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{repo: repo, images: images, logger: logger}
}

// WithMetrics enables business metrics; a nil recorder disables them.
func (s *ProductService) WithMetrics(m MetricsRecorder) *ProductService {
	s.metrics = m
	return s
}

func (s *ProductService) log(ctx context.Context) *zap.Logger {
	return logger.WithRequest(ctx, s.logger)
}

func (s *ProductService) count(metric string) {
	if s.metrics == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.metrics.RecordCount(ctx, metric, map[string]string{"Service": "product-service"})
	}()
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, apperrors.InvalidArgument(msgInvalidID, err)
	}
	return oid, nil
}

// repoError maps repository failures to application errors.
func repoError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound(msgNotFound)
	case errors.Is(err, repository.ErrDuplicateName):
		return apperrors.DuplicateEntity(msgDuplicateName)
	default:
		return apperrors.Storage("Failed to "+op, err)
	}
}

func fieldsError(err error) error {
	var fe *models.FieldError
	if errors.As(err, &fe) {
		return apperrors.InvalidArgument(fe.Error(), fe)
	}
	return apperrors.InvalidArgument("Invalid product data", err)
}

// uploads tracks assets uploaded during one request so they can be removed
// if the request fails.
type uploads struct {
	store     imagestore.Store
	thumbnail *imagestore.UploadResult
	detailed  []*imagestore.UploadResult
}

func (u *uploads) uploadThumbnail(ctx context.Context, f *ImageFile) error {
	res, err := u.store.Upload(ctx, f.Content, f.Filename)
	if err != nil {
		return apperrors.Storage("Failed to upload thumbnail", err)
	}
	u.thumbnail = res
	return nil
}

// uploadDetailed uploads concurrently and keeps the client's order.
func (u *uploads) uploadDetailed(ctx context.Context, files []ImageFile) error {
	u.detailed = make([]*imagestore.UploadResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			res, err := u.store.Upload(gctx, f.Content, f.Filename)
			if err != nil {
				return fmt.Errorf("upload %s: %w", f.Filename, err)
			}
			u.detailed[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// The saga only compensates completed steps, so the uploads that
		// did finish are removed here.
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
		defer cancel()
		if derr := u.destroyDetailed(cctx); derr != nil {
			err = errors.Join(err, fmt.Errorf("cleanup: %w", derr))
		}
		u.detailed = nil
		return apperrors.Storage("Failed to upload detailed images", err)
	}
	return nil
}

func (u *uploads) detailedURLs() []string {
	urls := make([]string, 0, len(u.detailed))
	for _, r := range u.detailed {
		urls = append(urls, r.URL)
	}
	return urls
}

func (u *uploads) destroyThumbnail(ctx context.Context) error {
	if u.thumbnail == nil {
		return nil
	}
	return u.store.Destroy(ctx, u.thumbnail.PublicID)
}

func (u *uploads) destroyDetailed(ctx context.Context) error {
	var errs []error
	for _, r := range u.detailed {
		if r == nil {
			continue
		}
		if err := u.store.Destroy(ctx, r.PublicID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *ProductService) destroyURL(ctx context.Context, url string) error {
	publicID := imagestore.PublicIDFromURL(url)
	if err := s.images.Destroy(ctx, publicID); err != nil {
		return apperrors.Storage("Failed to delete image "+publicID, err)
	}
	s.count(awspkg.MetricImagesDestroyed)
	return nil
}

// destroyAll removes every image concurrently. The first failure cancels the
// remaining destroys and is returned.
func (s *ProductService) destroyAll(ctx context.Context, urls []string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, u := range urls {
		g.Go(func() error { return s.destroyURL(gctx, u) })
	}
	return g.Wait()
}

// CreateProduct validates fields, rejects a name that is already taken,
// uploads the given images and stores the product. Image URLs may also be
// passed directly in fields when they were uploaded elsewhere.
func (s *ProductService) CreateProduct(ctx context.Context, fields map[string]interface{}, files *ImageFiles) (*models.Product, error) {
	coerced, err := models.CoerceFields(fields)
	if err != nil {
		return nil, fieldsError(err)
	}
	product, err := models.NewProduct(coerced)
	if err != nil {
		return nil, fieldsError(err)
	}

	up := &uploads{store: s.images}
	sg := newSaga("create product", s.log(ctx)).
		step("check duplicate name", func(ctx context.Context) error {
			_, err := s.repo.FindOne(ctx, map[string]interface{}{models.FieldName: product.Name})
			switch {
			case err == nil:
				return apperrors.DuplicateEntity(msgDuplicateName)
			case errors.Is(err, repository.ErrNotFound):
				return nil
			default:
				return repoError("check product name", err)
			}
		}, nil)

	if files.hasThumbnail() {
		sg.step("upload thumbnail", func(ctx context.Context) error {
			if err := up.uploadThumbnail(ctx, files.Thumbnail); err != nil {
				return err
			}
			product.Thumbnail = up.thumbnail.URL
			return nil
		}, up.destroyThumbnail)
	}
	if files.hasDetailed() {
		sg.step("upload detailed images", func(ctx context.Context) error {
			if err := up.uploadDetailed(ctx, files.DetailedImages); err != nil {
				return err
			}
			product.DetailedImages = up.detailedURLs()
			return nil
		}, up.destroyDetailed)
	}

	sg.step("insert product", func(ctx context.Context) error {
		if err := s.repo.Create(ctx, product); err != nil {
			return repoError("create product", err)
		}
		return nil
	}, nil)

	if err := sg.run(ctx); err != nil {
		return nil, err
	}

	s.log(ctx).Info("product created", zap.String("product_id", product.ID.Hex()), zap.String("name", product.Name))
	s.count(awspkg.MetricProductsCreated)
	return product, nil
}

// GetProduct returns a product by id.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	product, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return nil, repoError("fetch product", err)
	}
	return product, nil
}

// UpdateProduct applies a partial field set. A new thumbnail or a new set of
// detailed images replaces the stored ones: the old images are destroyed
// first and any destroy failure aborts the update before the record changes.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, fields map[string]interface{}, files *ImageFiles) (*models.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	set, err := models.CoerceFields(fields)
	if err != nil {
		return nil, fieldsError(err)
	}
	if err := models.ValidateFields(set); err != nil {
		return nil, fieldsError(err)
	}

	existing, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return nil, repoError("fetch product", err)
	}

	up := &uploads{store: s.images}
	sg := newSaga("update product", s.log(ctx))

	if files.hasThumbnail() {
		sg.step("upload thumbnail", func(ctx context.Context) error {
			if err := up.uploadThumbnail(ctx, files.Thumbnail); err != nil {
				return err
			}
			set[models.FieldThumbnail] = up.thumbnail.URL
			return nil
		}, up.destroyThumbnail)
	}
	if files.hasDetailed() {
		sg.step("upload detailed images", func(ctx context.Context) error {
			if err := up.uploadDetailed(ctx, files.DetailedImages); err != nil {
				return err
			}
			set[models.FieldDetailedImages] = up.detailedURLs()
			return nil
		}, up.destroyDetailed)
	}

	_, replacingThumb := fields[models.FieldThumbnail]
	if (replacingThumb || files.hasThumbnail()) && existing.Thumbnail != "" {
		sg.step("destroy old thumbnail", func(ctx context.Context) error {
			if set[models.FieldThumbnail] == existing.Thumbnail {
				return nil
			}
			return s.destroyURL(ctx, existing.Thumbnail)
		}, nil)
	}
	_, replacingDetailed := fields[models.FieldDetailedImages]
	if (replacingDetailed || files.hasDetailed()) && len(existing.DetailedImages) > 0 {
		sg.step("destroy old detailed images", func(ctx context.Context) error {
			keep, _ := set[models.FieldDetailedImages].([]string)
			return s.destroyAll(ctx, without(existing.DetailedImages, keep))
		}, nil)
	}

	var updated *models.Product
	sg.step("update record", func(ctx context.Context) error {
		updated, err = s.repo.UpdateByID(ctx, oid, set)
		if err != nil {
			return repoError("update product", err)
		}
		return nil
	}, nil)

	if err := sg.run(ctx); err != nil {
		return nil, err
	}

	s.log(ctx).Info("product updated", zap.String("product_id", id), zap.Int("fields", len(set)))
	return updated, nil
}

// without returns the urls not present in keep.
func without(urls, keep []string) []string {
	kept := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		kept[k] = struct{}{}
	}
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := kept[u]; !ok {
			out = append(out, u)
		}
	}
	return out
}

// DeleteProduct destroys the product's images and then removes the record.
// Any image failure leaves the record in place.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) (*models.DeleteConfirmation, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return nil, repoError("fetch product", err)
	}

	sg := newSaga("delete product", s.log(ctx))
	if existing.Thumbnail != "" {
		sg.step("destroy thumbnail", func(ctx context.Context) error {
			return s.destroyURL(ctx, existing.Thumbnail)
		}, nil)
	}
	if len(existing.DetailedImages) > 0 {
		sg.step("destroy detailed images", func(ctx context.Context) error {
			return s.destroyAll(ctx, existing.DetailedImages)
		}, nil)
	}
	sg.step("delete record", func(ctx context.Context) error {
		if err := s.repo.DeleteByID(ctx, oid); err != nil {
			return repoError("delete product", err)
		}
		return nil
	}, nil)

	if err := sg.run(ctx); err != nil {
		return nil, err
	}

	destroyed := len(existing.DetailedImages)
	if existing.Thumbnail != "" {
		destroyed++
	}
	s.log(ctx).Info("product deleted", zap.String("product_id", id), zap.Int("images_destroyed", destroyed))
	s.count(awspkg.MetricProductsDeleted)
	return &models.DeleteConfirmation{ID: id, Name: existing.Name, ImagesDestroyed: destroyed}, nil
}

// AddStockQuantity adds quantity to the product's stock. quantity may be any
// value that converts to a finite number, such as a JSON number or a form
// string.
func (s *ProductService) AddStockQuantity(ctx context.Context, id string, quantity interface{}) (*models.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	switch q := quantity.(type) {
	case nil, bool:
		return nil, apperrors.InvalidArgument(msgBadQuantity, nil)
	case string:
		quantity = strings.TrimSpace(q)
	}
	delta, err := cast.ToFloat64E(quantity)
	if err != nil {
		return nil, apperrors.InvalidArgument(msgBadQuantity, err)
	}
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return nil, apperrors.InvalidArgument(msgBadQuantity, nil)
	}

	product, err := s.repo.IncrementStock(ctx, oid, delta)
	if err != nil {
		return nil, repoError("update stock", err)
	}
	s.log(ctx).Info("stock added", zap.String("product_id", id), zap.Float64("quantity", delta))
	return product, nil
}

// ListProducts returns one page of products. Without price bounds the floor
// is 0; without a sort direction prices ascend.
func (s *ProductService) ListProducts(ctx context.Context, p ListProductsParams) (*models.ProductPage, error) {
	page := p.Page
	if page < 1 {
		page = DefaultPage
	}
	limit := p.Limit
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	sortDir, err := parseSort(p.SortByPrice)
	if err != nil {
		return nil, err
	}
	if p.PriceMin != nil && p.PriceMax != nil && *p.PriceMin > *p.PriceMax {
		return nil, apperrors.InvalidArgument("priceMin must not exceed priceMax", nil)
	}

	q := models.ProductQuery{
		PriceMin:  p.PriceMin,
		PriceMax:  p.PriceMax,
		Category:  strings.TrimSpace(p.Category),
		SortPrice: sortDir,
		Skip:      int64(page-1) * int64(limit),
		Limit:     int64(limit),
	}
	if q.PriceMin == nil && q.PriceMax == nil {
		floor := 0.0
		q.PriceMin = &floor
	}

	items, total, err := s.repo.FindPaginated(ctx, q)
	if err != nil {
		return nil, repoError("list products", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &models.ProductPage{
		Items:      items,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}, nil
}

func parseSort(v string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "1", "asc":
		return 1, nil
	case "-1", "desc":
		return -1, nil
	default:
		return 0, apperrors.InvalidArgument("sortByPrice must be 1, -1, asc or desc", nil)
	}
}

// ListAllProducts returns every product, newest first.
func (s *ProductService) ListAllProducts(ctx context.Context) ([]*models.Product, error) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, repoError("list products", err)
	}
	return products, nil
}

// ListCategories returns the distinct product categories.
func (s *ProductService) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.DistinctCategories(ctx)
	if err != nil {
		return nil, repoError("list categories", err)
	}
	return categories, nil
}
