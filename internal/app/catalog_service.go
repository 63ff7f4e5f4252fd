package app

import (
	"context"
	"strings"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

const maxPageSize = 100

// CatalogService serves the product catalog.
type CatalogService struct {
	repo domain.ProductRepository
}

// NewCatalogService creates a CatalogService backed by the given repository.
func NewCatalogService(repo domain.ProductRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// List returns up to limit products starting at offset.
func (s *CatalogService) List(ctx context.Context, offset, limit int) ([]domain.Product, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	return s.repo.ListProducts(ctx, offset, limit)
}

// Get returns a product by id, or domain.ErrNotFound.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// Seed stores products, replacing entries with the same id.
func (s *CatalogService) Seed(ctx context.Context, products []domain.Product) error {
	for _, p := range products {
		if err := s.repo.UpsertProduct(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Create adds a product. An empty ID is generated and an empty slug is
// derived from the title.
func (s *CatalogService) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	existing, err := s.repo.GetProduct(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &domain.ValidationError{Op: "create product", Msg: "product already exists"}
	}
	return s.save(ctx, "create product", p)
}

// Update replaces the product with the given id, or returns
// domain.ErrNotFound.
func (s *CatalogService) Update(ctx context.Context, id string, p domain.Product) (*domain.Product, error) {
	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrNotFound
	}
	p.ID = id
	return s.save(ctx, "update product", p)
}

func (s *CatalogService) save(ctx context.Context, op string, p domain.Product) (*domain.Product, error) {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return nil, &domain.ValidationError{Op: op, Msg: "title is required"}
	}
	if p.Price < 0 {
		return nil, &domain.ValidationError{Op: op, Msg: "price must not be negative"}
	}
	if p.Slug == "" {
		p.Slug = slugify(p.Title)
	}
	if err := s.repo.UpsertProduct(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

func slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
