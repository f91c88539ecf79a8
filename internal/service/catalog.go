package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service/search"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

// ProductSearcher answers free-text queries with product ids, best first.
type ProductSearcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error)
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Events mykafka.Publisher
	// Search is optional; without it queries run against the database.
	Search ProductSearcher
}

type NewProduct struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Inventory   int
	ImageURL    string
	CategoryID  *uuid.UUID
}

type inventoryEvent struct {
	ProductID uuid.UUID `json:"product_id"`
	Inventory int       `json:"inventory"`
	Delta     int       `json:"delta"`
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.Repo.GetProduct(ctx, id)
}

func (s *CatalogService) ListProducts(ctx context.Context, f repo.ProductFilter, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.GetProducts(ctx, f, offset, limit)
}

// SearchProducts uses the search index when one is configured and falls
// back to a database match when it is absent or failing.
func (s *CatalogService) SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, []models.Product{}, nil
	}

	if s.Search != nil {
		total, ids, err := s.Search.Search(ctx, query, offset, limit)
		if err == nil {
			items, err := s.Repo.GetProductsByIDs(ctx, ids)
			if err != nil {
				return 0, nil, err
			}
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_error", "error", err)
	}
	return s.Repo.GetProducts(ctx, repo.ProductFilter{Query: query}, offset, limit)
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.GetCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, name, description string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("category name is required: %w", domain.ErrValidation)
	}
	c := &models.Category{Name: name, Description: description}
	if err := s.Repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in NewProduct) (*models.Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("product name is required: %w", domain.ErrValidation)
	}
	if in.Price.IsNegative() {
		return nil, fmt.Errorf("price must not be negative: %w", domain.ErrValidation)
	}
	if in.Inventory < 0 {
		return nil, fmt.Errorf("inventory must not be negative: %w", domain.ErrValidation)
	}

	p := &models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price.Round(2),
		Inventory:   in.Inventory,
		ImageURL:    in.ImageURL,
		CategoryID:  in.CategoryID,
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.publishProduct(ctx, mykafka.ProductCreated, *p)
	return p, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, id uuid.UUID, patch repo.ProductPatch) (*models.Product, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("product name must not be empty: %w", domain.ErrValidation)
	}
	if patch.Price != nil {
		if patch.Price.IsNegative() {
			return nil, fmt.Errorf("price must not be negative: %w", domain.ErrValidation)
		}
		rounded := patch.Price.Round(2)
		patch.Price = &rounded
	}

	p, err := s.Repo.PatchProduct(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.publishProduct(ctx, mykafka.ProductUpdated, *p)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.publishProduct(ctx, mykafka.ProductDeleted, models.Product{ID: id})
	return nil
}

// AdjustInventory restocks or shrinks a product by amount units. direction
// is "increase" or "decrease".
func (s *CatalogService) AdjustInventory(ctx context.Context, id uuid.UUID, amount int, direction string) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive: %w", domain.ErrValidation)
	}
	delta := amount
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "increase":
	case "decrease":
		delta = -amount
	default:
		return 0, fmt.Errorf("direction %q: %w", direction, domain.ErrValidation)
	}

	inv, err := s.Repo.AdjustInventory(ctx, id, delta)
	if err != nil {
		return 0, err
	}
	logging.FromContext(ctx).Info("inventory_adjusted", "product_id", id, "delta", delta, "inventory", inv)
	publish(ctx, s.Events, mykafka.TopicProduct, id.String(), mykafka.InventoryChanged,
		inventoryEvent{ProductID: id, Inventory: inv, Delta: delta})
	return inv, nil
}

func (s *CatalogService) publishProduct(ctx context.Context, typ string, p models.Product) {
	publish(ctx, s.Events, mykafka.TopicProduct, p.ID.String(), typ, search.ProductEvent{Product: search.DocumentFrom(p)})
}
