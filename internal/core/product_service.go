package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/inventory-backend/internal/db"
	"github.com/example/inventory-backend/internal/models"
)

// productService implements the ProductService interface.
type productService struct {
	repo   db.ProductRepository
	audit  AuditService
	logger *zap.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(repo db.ProductRepository, audit AuditService, logger *zap.Logger) ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &productService{repo: repo, audit: audit, logger: logger}
}

// CreateProduct inserts the product and records a CREATE_PRODUCT event.
func (s *productService) CreateProduct(ctx context.Context, in models.NewProduct, actor *models.Actor) (*models.Product, error) {
	product, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.audit.RecordProductEvent(models.ActionCreateProduct, product, actor)
	s.logger.Info("Product created", zap.Int64("product_id", product.ID))
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *productService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translateProductErr(err)
	}
	return product, nil
}

// UpdateProduct applies patch. An empty patch returns the current row and
// records nothing.
func (s *productService) UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch, actor *models.Actor) (*models.Product, error) {
	product, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, translateProductErr(err)
	}
	if patch.IsEmpty() {
		return product, nil
	}

	s.audit.RecordProductEvent(models.ActionUpdateProduct, product, actor)
	s.logger.Info("Product updated", zap.Int64("product_id", id))
	return product, nil
}

// DeleteProduct reports false when the product does not exist.
func (s *productService) DeleteProduct(ctx context.Context, id int64, actor *models.Actor) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete product %d: %w", id, err)
	}

	s.audit.RecordProductEvent(models.ActionDeleteProduct, deleted, actor)
	s.logger.Info("Product deleted", zap.Int64("product_id", id))
	return true, nil
}

func translateProductErr(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrProductNotFound, err)
	}
	return err
}
