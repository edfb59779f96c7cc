package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storehub/internal/model"
	"storehub/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type CreateProductRequest struct {
	SKU         string `json:"sku" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       string `json:"price" binding:"required"`
	ImageURL    string `json:"image_url"`
	CategoryID  string `json:"category_id"`
}

type UpdateProductRequest struct {
	SKU         string `json:"sku" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       string `json:"price" binding:"required"`
	ImageURL    string `json:"image_url"`
	CategoryID  string `json:"category_id"`
	IsActive    *bool  `json:"is_active"`
}

type ProductResponse struct {
	ID           string `json:"id"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	ImageURL     string `json:"image_url"`
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	IsActive     bool   `json:"is_active"`
}

type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

type SupplierRequest struct {
	Name          string `json:"name" binding:"required"`
	TaxCode       string `json:"tax_code"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email" binding:"omitempty,email"`
	Address       string `json:"address"`
	IsActive      *bool  `json:"is_active"`
}

type SupplierResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	TaxCode       string `json:"tax_code"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	IsActive      bool   `json:"is_active"`
}

// CatalogService covers the reference data behind the storefront:
// categories, products, and suppliers.
type CatalogService interface {
	ListProducts(ctx context.Context, page, limit int, search, categoryID string) ([]ProductResponse, int64, error)
	GetProduct(ctx context.Context, id string) (*ProductResponse, error)
	CreateProduct(ctx context.Context, userID string, req CreateProductRequest) (*ProductResponse, error)
	UpdateProduct(ctx context.Context, userID, id string, req UpdateProductRequest) (*ProductResponse, error)
	DeleteProduct(ctx context.Context, userID, id string) error

	ListCategories(ctx context.Context, page, limit int) ([]CategoryResponse, int64, error)
	CreateCategory(ctx context.Context, userID string, req CategoryRequest) (*CategoryResponse, error)
	UpdateCategory(ctx context.Context, userID, id string, req CategoryRequest) (*CategoryResponse, error)
	DeleteCategory(ctx context.Context, userID, id string) error

	ListSuppliers(ctx context.Context, page, limit int, search string) ([]SupplierResponse, int64, error)
	CreateSupplier(ctx context.Context, userID string, req SupplierRequest) (*SupplierResponse, error)
	UpdateSupplier(ctx context.Context, userID, id string, req SupplierRequest) (*SupplierResponse, error)
	DeleteSupplier(ctx context.Context, userID, id string) error
}

type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	supplierRepo repository.SupplierRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewCatalogService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	supplierRepo repository.SupplierRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CatalogService {
	return &catalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		supplierRepo: supplierRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

func (s *catalogService) audit(ctx context.Context, userID, action, entityID, entityName string, payload interface{}) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}

	details, _ := json.Marshal(payload)
	return s.auditRepo.Log(ctx, &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(details),
	})
}

// --- Products ---

func mapProductToResponse(p *model.Product) ProductResponse {
	categoryID := ""
	categoryName := ""
	if p.CategoryID != nil {
		categoryID = p.CategoryID.String()
	}
	if p.Category != nil {
		categoryName = p.Category.Name
	}

	return ProductResponse{
		ID:           p.ID.String(),
		SKU:          p.SKU,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price.StringFixed(2),
		ImageURL:     p.ImageURL,
		CategoryID:   categoryID,
		CategoryName: categoryName,
		IsActive:     p.IsActive,
	}
}

func (s *catalogService) ListProducts(ctx context.Context, page, limit int, search, categoryID string) ([]ProductResponse, int64, error) {
	var catID *uuid.UUID
	if categoryID != "" {
		parsed, err := uuid.Parse(categoryID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid category id: %w", err)
		}
		catID = &parsed
	}

	products, total, err := s.productRepo.List(ctx, page, limit, search, catID)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, mapProductToResponse(&products[i]))
	}
	return res, total, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (*ProductResponse, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	product, err := s.productRepo.FindByID(ctx, pid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	resp := mapProductToResponse(product)
	return &resp, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, userID string, req CreateProductRequest) (*ProductResponse, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return nil, errors.New("price must be a non-negative decimal")
	}

	product := model.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		ImageURL:    req.ImageURL,
		IsActive:    true,
	}

	if req.CategoryID != "" {
		catID, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return nil, errors.New("invalid category id")
		}
		if _, err := s.categoryRepo.FindByID(ctx, catID); err != nil {
			return nil, errors.New("category does not exist")
		}
		product.CategoryID = &catID
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Create(txCtx, &product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionCreateProduct, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return nil, err
	}

	return s.GetProduct(ctx, product.ID.String())
}

func (s *catalogService) UpdateProduct(ctx context.Context, userID, id string, req UpdateProductRequest) (*ProductResponse, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	product, err := s.productRepo.FindByID(ctx, pid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return nil, errors.New("price must be a non-negative decimal")
	}

	product.SKU = req.SKU
	product.Name = req.Name
	product.Description = req.Description
	// Catalog price changes apply to future orders only; captured
	// line-item prices on existing orders are untouched.
	product.Price = price
	product.ImageURL = req.ImageURL
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if req.CategoryID != "" {
		catID, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return nil, errors.New("invalid category id")
		}
		product.CategoryID = &catID
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Update(txCtx, product); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionUpdateProduct, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return nil, err
	}

	return s.GetProduct(ctx, id)
}

func (s *catalogService) DeleteProduct(ctx context.Context, userID, id string) error {
	pid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	product, err := s.productRepo.FindByID(ctx, pid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Delete(txCtx, pid); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionDeleteProduct, product.ID.String(), product.Name, nil)
	})
}

// --- Categories ---

func mapCategoryToResponse(c *model.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		IsActive:    c.IsActive,
	}
}

func (s *catalogService) ListCategories(ctx context.Context, page, limit int) ([]CategoryResponse, int64, error) {
	categories, total, err := s.categoryRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		res = append(res, mapCategoryToResponse(&categories[i]))
	}
	return res, total, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, userID string, req CategoryRequest) (*CategoryResponse, error) {
	category := model.Category{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.categoryRepo.Create(txCtx, &category); err != nil {
			return fmt.Errorf("failed to create category: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionCreateCategory, category.ID.String(), category.Name, req)
	})
	if err != nil {
		return nil, err
	}

	resp := mapCategoryToResponse(&category)
	return &resp, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, userID, id string, req CategoryRequest) (*CategoryResponse, error) {
	catID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	category, err := s.categoryRepo.FindByID(ctx, catID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	category.Name = req.Name
	category.Description = req.Description
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.categoryRepo.Update(txCtx, category); err != nil {
			return fmt.Errorf("failed to update category: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionUpdateCategory, category.ID.String(), category.Name, req)
	})
	if err != nil {
		return nil, err
	}

	resp := mapCategoryToResponse(category)
	return &resp, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, userID, id string) error {
	catID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	category, err := s.categoryRepo.FindByID(ctx, catID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.categoryRepo.Delete(txCtx, catID); err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionDeleteCategory, category.ID.String(), category.Name, nil)
	})
}

// --- Suppliers ---

func mapSupplierToResponse(sup *model.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:            sup.ID.String(),
		Name:          sup.Name,
		TaxCode:       sup.TaxCode,
		ContactPerson: sup.ContactPerson,
		Phone:         sup.Phone,
		Email:         sup.Email,
		Address:       sup.Address,
		IsActive:      sup.IsActive,
	}
}

func (s *catalogService) ListSuppliers(ctx context.Context, page, limit int, search string) ([]SupplierResponse, int64, error) {
	suppliers, total, err := s.supplierRepo.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, err
	}

	res := make([]SupplierResponse, 0, len(suppliers))
	for i := range suppliers {
		res = append(res, mapSupplierToResponse(&suppliers[i]))
	}
	return res, total, nil
}

func (s *catalogService) CreateSupplier(ctx context.Context, userID string, req SupplierRequest) (*SupplierResponse, error) {
	supplier := model.Supplier{
		Name:          req.Name,
		TaxCode:       req.TaxCode,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		IsActive:      true,
	}
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.supplierRepo.Create(txCtx, &supplier); err != nil {
			return fmt.Errorf("failed to create supplier: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionCreateSupplier, supplier.ID.String(), supplier.Name, req)
	})
	if err != nil {
		return nil, err
	}

	resp := mapSupplierToResponse(&supplier)
	return &resp, nil
}

func (s *catalogService) UpdateSupplier(ctx context.Context, userID, id string, req SupplierRequest) (*SupplierResponse, error) {
	supID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	supplier, err := s.supplierRepo.FindByID(ctx, supID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	supplier.Name = req.Name
	supplier.TaxCode = req.TaxCode
	supplier.ContactPerson = req.ContactPerson
	supplier.Phone = req.Phone
	supplier.Email = req.Email
	supplier.Address = req.Address
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.supplierRepo.Update(txCtx, supplier); err != nil {
			return fmt.Errorf("failed to update supplier: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionUpdateSupplier, supplier.ID.String(), supplier.Name, req)
	})
	if err != nil {
		return nil, err
	}

	resp := mapSupplierToResponse(supplier)
	return &resp, nil
}

func (s *catalogService) DeleteSupplier(ctx context.Context, userID, id string) error {
	supID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	supplier, err := s.supplierRepo.FindByID(ctx, supID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.supplierRepo.Delete(txCtx, supID); err != nil {
			return fmt.Errorf("failed to delete supplier: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionDeleteSupplier, supplier.ID.String(), supplier.Name, nil)
	})
}
