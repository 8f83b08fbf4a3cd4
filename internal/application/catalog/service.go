package catalog

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/alxiri/fulfillment/internal/domain/catalog"
	"github.com/alxiri/fulfillment/internal/domain/rbac"
	"github.com/alxiri/fulfillment/internal/pkg/logging"
	"go.uber.org/zap"
)

// Service owns the product catalog. Every mutation is gated by the PRODUCT
// role on the catalog's own authorizer.
type Service struct {
	repo domain.Repository
	auth rbac.Authorizer
}

func NewService(repo domain.Repository, auth rbac.Authorizer) *Service {
	return &Service{
		repo: repo,
		auth: auth,
	}
}

type RegisterInput struct {
	Name        string
	Description string
	Total       int
	Price       int64
}

// Register stores a new product as ACTIVE. The caller must hold PRODUCT.
func (s *Service) Register(ctx context.Context, caller string, input RegisterInput) (*domain.Product, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "catalog_service"))

	if err := rbac.Require(ctx, s.auth, rbac.RoleProduct, caller); err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, errors.New("catalog: product name is required")
	}

	product, err := domain.New(input.Name, input.Description, input.Total, input.Price)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, product); err != nil {
		return nil, err
	}

	logger.Info("product_registered",
		zap.String("name", product.Name),
		zap.Int("total", product.Total),
		zap.Int64("price", product.Price),
	)
	return product, nil
}

// Update overwrites total and price per field. Non-positive values keep the
// current value without raising an error.
func (s *Service) Update(ctx context.Context, caller, name string, total int, price int64) (*domain.Product, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "catalog_service"))

	if err := rbac.Require(ctx, s.auth, rbac.RoleProduct, caller); err != nil {
		return nil, err
	}

	product, err := s.repo.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	product.ApplyUpdate(total, price)

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("catalog: update %s: %w", name, err)
	}

	logger.Info("product_updated",
		zap.String("name", product.Name),
		zap.Int("total", product.Total),
		zap.Int64("price", product.Price),
	)
	return product, nil
}

func (s *Service) GetDetail(ctx context.Context, name string) (*domain.Product, error) {
	return s.repo.Get(ctx, name)
}

func (s *Service) ListAll(ctx context.Context) ([]*domain.Product, error) {
	return s.repo.List(ctx)
}

// DecrementStock reduces a product's stock on behalf of the workflow engine.
// The caller identity (the engine's own account) must hold PRODUCT.
func (s *Service) DecrementStock(ctx context.Context, caller, name string, quantity int) error {
	logger := logging.FromContext(ctx).With(zap.String("component", "catalog_service"))

	if err := rbac.Require(ctx, s.auth, rbac.RoleProduct, caller); err != nil {
		return err
	}

	product, err := s.repo.Get(ctx, name)
	if err != nil {
		return err
	}

	if err := product.Deduct(quantity); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return fmt.Errorf("catalog: decrement %s: %w", name, err)
	}

	logger.Info("stock_decremented",
		zap.String("name", name),
		zap.Int("quantity", quantity),
		zap.Int("remaining", product.Total),
	)
	return nil
}
