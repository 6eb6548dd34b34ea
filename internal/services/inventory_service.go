package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"repairshop-backend/internal/cache"
	"repairshop-backend/internal/catalog"
	"repairshop-backend/internal/models"
	"repairshop-backend/internal/realtime"
	"repairshop-backend/internal/reports"
	"repairshop-backend/internal/timeutil"
)

const lowStockTTL = 2 * time.Minute

type InventoryService struct {
	Products          ProductStore
	Events            realtime.Publisher
	LowStockThreshold int
}

func NewInventoryService(products ProductStore, events realtime.Publisher, lowStockThreshold int) *InventoryService {
	return &InventoryService{Products: products, Events: events, LowStockThreshold: lowStockThreshold}
}

func (s *InventoryService) changed(ctx context.Context, event, id string) {
	cache.InvalidateInventoryCaches(ctx)
	if s.Events != nil {
		s.Events.Publish(ctx, realtime.Event{Topic: realtime.TopicInventory, Type: event, ID: id, At: timeutil.Now()})
	}
}

func validateProduct(req models.ProductRequest) error {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case !req.Type.Valid():
		return fmt.Errorf("%w: type must be iPhone, iPad or Watch", ErrInvalidInput)
	case req.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	case req.Stock < 0:
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	}
	return nil
}

func (s *InventoryService) Create(ctx context.Context, req models.ProductRequest) (*models.Product, error) {
	if err := validateProduct(req); err != nil {
		return nil, err
	}
	p := &models.Product{
		Name:     strings.TrimSpace(req.Name),
		Category: strings.TrimSpace(req.Category),
		Model:    strings.TrimSpace(req.Model),
		Color:    strings.TrimSpace(req.Color),
		Price:    req.Price,
		Stock:    req.Stock,
		Type:     req.Type,
	}
	if err := s.Products.Create(ctx, p); err != nil {
		return nil, err
	}
	s.changed(ctx, "created", p.ID.String())
	return p, nil
}

func (s *InventoryService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.Products.Get(ctx, id)
}

func (s *InventoryService) List(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	return s.Products.List(ctx, f, s.LowStockThreshold)
}

// LowStock lists products at or below the threshold, cached briefly.
func (s *InventoryService) LowStock(ctx context.Context) ([]models.Product, error) {
	key := fmt.Sprintf("inventory:low:%d", s.LowStockThreshold)
	var cached []models.Product
	if cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}
	list, err := s.Products.List(ctx, models.ProductFilter{LowStock: true}, s.LowStockThreshold)
	if err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, key, list, lowStockTTL)
	return list, nil
}

// Update edits a product. Stock is only changed here when the client sends
// the version it read; otherwise the stored stock is kept and AdjustStock is
// the way to move it.
func (s *InventoryService) Update(ctx context.Context, id uuid.UUID, req models.ProductRequest) (*models.Product, error) {
	if err := validateProduct(req); err != nil {
		return nil, err
	}
	p, err := s.Products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Name = strings.TrimSpace(req.Name)
	p.Category = strings.TrimSpace(req.Category)
	p.Model = strings.TrimSpace(req.Model)
	p.Color = strings.TrimSpace(req.Color)
	p.Price = req.Price
	p.Type = req.Type
	if req.Version != nil {
		p.Stock = req.Stock
	}
	if err := s.Products.Update(ctx, p, req.Version); err != nil {
		return nil, err
	}
	s.changed(ctx, "updated", p.ID.String())
	return p, nil
}

func (s *InventoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.Products.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, "deleted", id.String())
	return nil
}

// BulkGenerate creates one product per catalogue model in the range and color.
func (s *InventoryService) BulkGenerate(ctx context.Context, req models.BulkGenerateRequest) (int, error) {
	products, err := catalog.Expand(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	n, err := s.Products.BulkCreate(ctx, products)
	if n > 0 {
		s.changed(ctx, "bulk_created", "")
	}
	if err != nil {
		log.Printf("[Inventory] Bulk generate stopped after %d of %d products: %v", n, len(products), err)
		return n, err
	}
	log.Printf("[Inventory] Generated %d %s products", n, req.Type)
	return n, nil
}

func (s *InventoryService) AdjustStock(ctx context.Context, adj models.StockAdjustRequest, actor *models.User) (*models.Product, error) {
	if adj.Delta == 0 {
		return nil, fmt.Errorf("%w: delta must not be zero", ErrInvalidInput)
	}
	p, err := s.Products.AdjustStock(ctx, adj, actorID(actor))
	if err != nil {
		return nil, err
	}
	s.changed(ctx, "stock_changed", p.ID.String())
	return p, nil
}

// BulkAdjustStock pushes stock for many products in batches.
func (s *InventoryService) BulkAdjustStock(ctx context.Context, req models.BulkStockRequest, actor *models.User) (int, error) {
	if len(req.Adjustments) == 0 {
		return 0, fmt.Errorf("%w: no adjustments", ErrInvalidInput)
	}
	n, err := s.Products.BulkAdjustStock(ctx, req.Adjustments, actorID(actor))
	if n > 0 {
		s.changed(ctx, "stock_changed", "")
	}
	return n, err
}

func (s *InventoryService) ExportXLSX(ctx context.Context) ([]byte, error) {
	list, err := s.Products.List(ctx, models.ProductFilter{}, s.LowStockThreshold)
	if err != nil {
		return nil, err
	}
	return reports.InventoryXLSX(list)
}

// ImportXLSX reads a sheet with the export's columns and creates the
// products. Rows without a name are skipped.
func (s *InventoryService) ImportXLSX(ctx context.Context, data []byte) (int, error) {
	rows, err := reports.ReadSheet(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	idx := reports.HeaderIndex(rows[0])
	col := func(name string) int {
		if i, ok := idx[name]; ok {
			return i
		}
		return -1
	}

	var products []models.Product
	for n, row := range rows[1:] {
		name := reports.Cell(row, col("name"))
		if name == "" {
			continue
		}
		line := n + 2
		price, err := decimal.NewFromString(orZero(reports.Cell(row, col("price"))))
		if err != nil {
			return 0, fmt.Errorf("%w: row %d: bad price", ErrInvalidInput, line)
		}
		stock, err := reports.CellInt(row, col("stock"))
		if err != nil {
			return 0, fmt.Errorf("%w: row %d: bad stock", ErrInvalidInput, line)
		}
		req := models.ProductRequest{
			Name:     name,
			Type:     models.ProductType(reports.Cell(row, col("type"))),
			Category: reports.Cell(row, col("category")),
			Model:    reports.Cell(row, col("model")),
			Color:    reports.Cell(row, col("color")),
			Price:    price,
			Stock:    stock,
		}
		if err := validateProduct(req); err != nil {
			return 0, fmt.Errorf("row %d: %w", line, err)
		}
		products = append(products, models.Product{
			ID: uuid.New(), Name: req.Name, Type: req.Type, Category: req.Category,
			Model: req.Model, Color: req.Color, Price: req.Price, Stock: req.Stock,
		})
	}
	if len(products) == 0 {
		return 0, fmt.Errorf("%w: no products in sheet", ErrInvalidInput)
	}
	n, err := s.Products.BulkCreate(ctx, products)
	if n > 0 {
		s.changed(ctx, "bulk_created", "")
	}
	return n, err
}

func orZero(v string) string {
	if v == "" {
		return "0"
	}
	return v
}
