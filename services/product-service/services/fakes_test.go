package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/imagestore"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/models"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/repository"
)

// journal records calls across fakes so tests can assert ordering.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(format string, args ...interface{}) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type fakeRepo struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]*models.Product
	log      *journal
	writes   int

	createErr error
	lastQuery models.ProductQuery
}

func newFakeRepo(log *journal) *fakeRepo {
	return &fakeRepo{products: map[primitive.ObjectID]*models.Product{}, log: log}
}

func clone(p *models.Product) *models.Product {
	c := *p
	c.DetailedImages = append([]string(nil), p.DetailedImages...)
	return &c
}

func (r *fakeRepo) seed(p *models.Product) *models.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	r.products[p.ID] = clone(p)
	return p
}

func (r *fakeRepo) Create(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.add("repo.create %s", p.Name)
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.products {
		if existing.Name == p.Name {
			return repository.ErrDuplicateName
		}
	}
	r.writes++
	p.ID = primitive.NewObjectID()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.products[p.ID] = clone(p)
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(p), nil
}

func (r *fakeRepo) FindOne(_ context.Context, filter map[string]interface{}) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Name == filter[models.FieldName] {
			return clone(p), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRepo) FindAll(context.Context) ([]*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Product{}
	for _, p := range r.products {
		out = append(out, clone(p))
	}
	return out, nil
}

func (r *fakeRepo) FindPaginated(_ context.Context, q models.ProductQuery) ([]*models.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastQuery = q
	return []*models.Product{}, int64(len(r.products)), nil
}

func (r *fakeRepo) UpdateByID(_ context.Context, id primitive.ObjectID, fields map[string]interface{}) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.add("repo.update %s", id.Hex())
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r.writes++
	for k, v := range fields {
		switch k {
		case models.FieldThumbnail:
			p.Thumbnail = v.(string)
		case models.FieldDetailedImages:
			p.DetailedImages = v.([]string)
		case models.FieldName:
			p.Name = v.(string)
		case models.FieldStockQuantity:
			p.StockQuantity = v.(float64)
		}
	}
	p.UpdatedAt = time.Now()
	return clone(p), nil
}

func (r *fakeRepo) DeleteByID(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.add("repo.delete %s", id.Hex())
	if _, ok := r.products[id]; !ok {
		return repository.ErrNotFound
	}
	r.writes++
	delete(r.products, id)
	return nil
}

func (r *fakeRepo) DistinctCategories(context.Context) ([]string, error) {
	return []string{"fries"}, nil
}

func (r *fakeRepo) IncrementStock(_ context.Context, id primitive.ObjectID, delta float64) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r.writes++
	p.StockQuantity += delta
	return clone(p), nil
}

func (r *fakeRepo) EnsureIndexes(context.Context) error { return nil }

type fakeStore struct {
	log        *journal
	mu         sync.Mutex
	uploads    int
	uploaded   []string
	destroyed  []string
	failOn     map[string]bool
	failUpload map[string]bool
	failAll    bool
	seq        int
}

func newFakeStore(log *journal) *fakeStore {
	return &fakeStore{log: log, failOn: map[string]bool{}, failUpload: map[string]bool{}}
}

func (s *fakeStore) Upload(_ context.Context, r io.Reader, filename string) (*imagestore.UploadResult, error) {
	_, _ = io.Copy(io.Discard, r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	s.log.add("store.upload %s", filename)
	if s.failUpload[filename] {
		return nil, errors.New("upload failed")
	}
	s.seq++
	id := fmt.Sprintf("groovy/up%d", s.seq)
	s.uploaded = append(s.uploaded, id)
	return &imagestore.UploadResult{URL: "https://img.test/" + id + ".jpg", PublicID: id}, nil
}

func (s *fakeStore) Destroy(_ context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.add("store.destroy %s", publicID)
	s.destroyed = append(s.destroyed, publicID)
	if s.failAll || s.failOn[publicID] {
		return errors.New("image host unavailable")
	}
	return nil
}

func (s *fakeStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads + len(s.destroyed)
}
