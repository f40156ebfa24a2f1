package services

import (
	"context"
	"errors"
	"time"

	"catalog/internal/logger"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/validation"

	"github.com/go-playground/validator/v10"
)

// ProductEventPublisher receives an event after every successful product write.
type ProductEventPublisher interface {
	PublishProductEvent(ctx context.Context, event models.ProductEvent) error
}

// ProductService handles business logic related to products.
// It holds no per-request state and is safe for concurrent use.
type ProductService struct {
	repo      repositories.ProductRepository
	publisher ProductEventPublisher
	validate  *validator.Validate
}

// NewProductService creates a new ProductService. publisher may be nil.
func NewProductService(repo repositories.ProductRepository, publisher ProductEventPublisher) *ProductService {
	return &ProductService{
		repo:      repo,
		publisher: publisher,
		validate:  validation.New(),
	}
}

// ListProducts returns every product, newest first.
func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, &StoreError{Op: "list products", Err: err}
	}
	return products, nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupError("get product", err)
	}
	return product, nil
}

// CreateProduct validates input and stores a new product owned by ownerID.
func (s *ProductService) CreateProduct(ctx context.Context, input models.ProductInput, ownerID string) (*models.Product, error) {
	if err := s.check(input); err != nil {
		return nil, err
	}

	product := input.NewProduct(ownerID)
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, &StoreError{Op: "create product", Err: err}
	}

	s.publish(ctx, models.EventProductCreated, product.ID, product.OwnerID, product)
	return product, nil
}

// UpdateProduct merges patch onto the product with the given ID. Only the
// owner may update; anyone else gets ErrProductNotFound.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, patch models.ProductPatch, callerID string) (*models.Product, error) {
	if err := s.check(patch); err != nil {
		return nil, err
	}

	product, err := s.ownedProduct(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	patch.ApplyTo(product)
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, s.lookupError("update product", err)
	}

	s.publish(ctx, models.EventProductUpdated, product.ID, product.OwnerID, product)
	return product, nil
}

// DeleteProduct permanently removes the product with the given ID. Only the
// owner may delete; anyone else gets ErrProductNotFound.
func (s *ProductService) DeleteProduct(ctx context.Context, id string, callerID string) error {
	product, err := s.ownedProduct(ctx, id, callerID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, product.ID); err != nil {
		return s.lookupError("delete product", err)
	}

	s.publish(ctx, models.EventProductDeleted, product.ID, product.OwnerID, nil)
	return nil
}

func (s *ProductService) ownedProduct(ctx context.Context, id, callerID string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupError("get product", err)
	}
	if product.OwnerID != callerID {
		logger.Logger.Debug().
			Str("product_id", id).
			Str("caller_id", callerID).
			Msg("caller does not own product")
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *ProductService) check(v interface{}) error {
	if err := s.validate.Struct(v); err != nil {
		return toValidationError(err)
	}
	return nil
}

func (s *ProductService) lookupError(op string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrProductNotFound
	}
	return &StoreError{Op: op, Err: err}
}

func (s *ProductService) publish(ctx context.Context, eventType, productID, ownerID string, product *models.Product) {
	if s.publisher == nil {
		return
	}

	event := models.ProductEvent{
		Type:       eventType,
		ProductID:  productID,
		OwnerID:    ownerID,
		Product:    product,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishProductEvent(ctx, event); err != nil {
		logger.Logger.Warn().
			Err(err).
			Str("event", eventType).
			Str("product_id", productID).
			Msg("failed to publish product event")
	}
}
