package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"repairshop-backend/internal/cache"
	"repairshop-backend/internal/models"
	"repairshop-backend/internal/reports"
	"repairshop-backend/internal/repositories"
	"repairshop-backend/internal/ticket"
)

func sheet(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestInventoryCreateValidates(t *testing.T) {
	svc := NewInventoryService(newMemProducts(), &recorder{}, 3)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.ProductRequest{Name: "Case", Type: "Android", Price: dec(10)})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Create(ctx, models.ProductRequest{Name: "Case", Type: models.ProductTypeIPhone, Price: dec(-1)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	p, err := svc.Create(ctx, models.ProductRequest{Name: " Case ", Type: models.ProductTypeIPhone, Price: dec(10), Stock: 2})
	require.NoError(t, err)
	assert.Equal(t, "Case", p.Name)
}

func TestInventoryUpdateOnlySetsStockWithVersion(t *testing.T) {
	products := newMemProducts()
	svc := NewInventoryService(products, nil, 3)
	ctx := context.Background()
	p, err := svc.Create(ctx, models.ProductRequest{Name: "Case", Type: models.ProductTypeIPhone, Price: dec(10), Stock: 2})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, p.ID, models.ProductRequest{Name: "Case", Type: models.ProductTypeIPhone, Price: dec(12), Stock: 50})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Stock)
	assert.True(t, updated.Price.Equal(dec(12)))

	updated, err = svc.Update(ctx, p.ID, models.ProductRequest{Name: "Case", Type: models.ProductTypeIPhone, Price: dec(12), Stock: 7, Version: intp(updated.Version)})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Stock)

	_, err = svc.Update(ctx, p.ID, models.ProductRequest{Name: "Case", Type: models.ProductTypeIPhone, Price: dec(12), Stock: 9, Version: intp(1)})
	assert.ErrorIs(t, err, repositories.ErrVersionConflict)
}

// sellingProducts sells one unit right after every Get, the way a checkout
// can commit between an edit's read and its write.
type sellingProducts struct {
	*memProducts
}

func (s sellingProducts) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.memProducts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	_, err = s.memProducts.AdjustStock(ctx, models.StockAdjustRequest{ProductID: id, Delta: -1}, nil)
	return p, err
}

func TestInventoryUpdateKeepsConcurrentSale(t *testing.T) {
	id := uuid.New()
	products := newMemProducts(models.Product{ID: id, Name: "Case", Type: models.ProductTypeIPhone, Price: dec(100), Stock: 5})
	svc := NewInventoryService(sellingProducts{products}, nil, 3)

	updated, err := svc.Update(context.Background(), id, models.ProductRequest{Name: "Case", Type: models.ProductTypeIPhone, Price: dec(120), Stock: 5})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(dec(120)))
	assert.Equal(t, 4, updated.Stock)
	assert.Equal(t, 4, products.stock(id))
}

func TestAdjustStock(t *testing.T) {
	id := uuid.New()
	products := newMemProducts(models.Product{ID: id, Name: "Case", Type: models.ProductTypeIPhone, Price: dec(10), Stock: 2})
	events := &recorder{}
	svc := NewInventoryService(products, events, 3)
	ctx := context.Background()

	_, err := svc.AdjustStock(ctx, models.StockAdjustRequest{ProductID: id}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AdjustStock(ctx, models.StockAdjustRequest{ProductID: id, Delta: -3}, nil)
	assert.ErrorIs(t, err, ticket.ErrInsufficientStock)

	p, err := svc.AdjustStock(ctx, models.StockAdjustRequest{ProductID: id, Delta: 5}, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Stock)
	assert.Equal(t, []string{"inventory/stock_changed"}, events.topics())
}

func TestLowStockUsesLocalCache(t *testing.T) {
	ctx := context.Background()
	cache.InvalidateInventoryCaches(ctx)
	products := newMemProducts(
		models.Product{ID: uuid.New(), Name: "A", Type: models.ProductTypeIPhone, Stock: 1},
		models.Product{ID: uuid.New(), Name: "B", Type: models.ProductTypeIPhone, Stock: 10},
	)
	svc := NewInventoryService(products, nil, 3)

	low, err := svc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)

	// A direct store write is not seen until the cache is dropped.
	require.NoError(t, products.Create(ctx, &models.Product{Name: "C", Type: models.ProductTypeIPad, Stock: 0}))
	low, err = svc.LowStock(ctx)
	require.NoError(t, err)
	assert.Len(t, low, 1)

	_, err = svc.Create(ctx, models.ProductRequest{Name: "D", Type: models.ProductTypeIPad, Stock: 2})
	require.NoError(t, err)
	low, err = svc.LowStock(ctx)
	require.NoError(t, err)
	assert.Len(t, low, 3)
}

func TestImportXLSX(t *testing.T) {
	products := newMemProducts()
	svc := NewInventoryService(products, nil, 3)
	ctx := context.Background()

	data := sheet(t, [][]interface{}{
		{"Name", "Type", "Category", "Model", "Color", "Price", "Stock"},
		{"Case 13", "iPhone", "Cases", "iPhone 13", "Black", 2500, 4},
		{"", "iPhone", "", "", "", "", ""},
		{"Strap", "Watch", "Straps", "Series 9", "Blue", "1200.50", ""},
	})
	n, err := svc.ImportXLSX(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := svc.List(ctx, models.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Case 13", list[0].Name)
	assert.Equal(t, 4, list[0].Stock)
	assert.True(t, list[1].Price.Equal(dec(120050).Shift(-2)))
	assert.Zero(t, list[1].Stock)

	bad := sheet(t, [][]interface{}{
		{"Name", "Type", "Price", "Stock"},
		{"Case", "Android", 10, 1},
	})
	_, err = svc.ImportXLSX(ctx, bad)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.ImportXLSX(ctx, []byte("not a workbook"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newMemProducts(models.Product{ID: uuid.New(), Name: "Case", Type: models.ProductTypeIPhone, Price: dec(100), Stock: 4})
	data, err := NewInventoryService(src, nil, 3).ExportXLSX(context.Background())
	require.NoError(t, err)

	dst := newMemProducts()
	n, err := NewInventoryService(dst, nil, 3).ImportXLSX(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := reports.ReadSheet(data)
	require.NoError(t, err)
	assert.Equal(t, "Name", rows[0][0])
}

func TestBulkAdjustStockNeedsRows(t *testing.T) {
	svc := NewInventoryService(newMemProducts(), nil, 3)
	_, err := svc.BulkAdjustStock(context.Background(), models.BulkStockRequest{}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
