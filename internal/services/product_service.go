// internal/services/product_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/franchisehub/supply-backend/internal/models"
	"github.com/franchisehub/supply-backend/internal/utils"
)

// ProductService owns the catalog. Stock adjustments go through the
// inventory service so the locking discipline lives in one place.
type ProductService struct {
	db        *gorm.DB
	inventory *InventoryService
}

type CreateProductRequest struct {
	Name           string                 `json:"name" validate:"required,min=2,max=255"`
	SKU            string                 `json:"sku" validate:"required,min=2,max=64"`
	Description    string                 `json:"description,omitempty"`
	Category       string                 `json:"category,omitempty"`
	BasePrice      float64                `json:"base_price" validate:"required,gt=0"`
	InventoryCount int                    `json:"inventory_count" validate:"min=0"`
	Images         []string               `json:"images,omitempty"`
	Variants       []CreateVariantRequest `json:"variants,omitempty" validate:"omitempty,dive"`
}

type CreateVariantRequest struct {
	Name            string  `json:"name" validate:"required,min=1,max=255"`
	PriceAdjustment float64 `json:"price_adjustment"`
	InventoryCount  int     `json:"inventory_count" validate:"min=0"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	BasePrice   *float64 `json:"base_price,omitempty" validate:"omitempty,gt=0"`
	Images      []string `json:"images,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

type AdjustStockRequest struct {
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Delta     int        `json:"delta" validate:"required"`
}

func NewProductService(db *gorm.DB, inventory *InventoryService) *ProductService {
	return &ProductService{db: db, inventory: inventory}
}

func (s *ProductService) GetProduct(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.Preload("Variants").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

// SearchProducts lists active products; staff also see inactive ones.
func (s *ProductService) SearchProducts(params utils.PaginationParams, category string, includeInactive bool) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{}).Preload("Variants")

	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR LOWER(description) LIKE ?",
			searchTerm, searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "base_price", "category"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

func (s *ProductService) CreateProduct(req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var existing models.Product
	if err := s.db.First(&existing, "sku = ?", req.SKU).Error; err == nil {
		return nil, fmt.Errorf("SKU %s already exists", req.SKU)
	}

	product := &models.Product{
		Name:           req.Name,
		SKU:            req.SKU,
		Description:    req.Description,
		Category:       req.Category,
		BasePrice:      req.BasePrice,
		InventoryCount: req.InventoryCount,
		Images:         pq.StringArray(req.Images),
		IsActive:       true,
	}
	for _, v := range req.Variants {
		product.Variants = append(product.Variants, models.ProductVariant{
			Name:            v.Name,
			PriceAdjustment: v.PriceAdjustment,
			InventoryCount:  v.InventoryCount,
		})
		// Variant stock counts toward the product aggregate.
		product.InventoryCount += v.InventoryCount
	}

	if err := s.db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"product_id": product.ID,
		"sku":        product.SKU,
	}).Info("Product created")

	return product, nil
}

func (s *ProductService) UpdateProduct(id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.BasePrice != nil {
		updates["base_price"] = *req.BasePrice
	}
	if req.Images != nil {
		updates["images"] = pq.StringArray(req.Images)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(product).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}

	return s.GetProduct(id)
}

// AdjustStock applies a signed stock delta through the inventory ledger.
// Positive deltas restock, negative deltas write stock off; a write-off
// larger than the counter fails with ErrInsufficientStock.
func (s *ProductService) AdjustStock(id uuid.UUID, req *AdjustStockRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var err error
	switch {
	case req.Delta > 0:
		err = s.inventory.Increase(id, req.Delta, req.VariantID)
	case req.Delta < 0:
		err = s.inventory.Decrease(id, -req.Delta, req.VariantID)
	default:
		return nil, errors.New("delta must be non-zero")
	}
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"product_id": id,
		"delta":      req.Delta,
	}).Info("Stock adjusted")

	return s.GetProduct(id)
}

func (s *ProductService) ListCategories() ([]string, error) {
	var categories []string
	err := s.db.Model(&models.Product{}).
		Where("is_active = ? AND category <> ''", true).
		Distinct("category").Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return categories, nil
}
