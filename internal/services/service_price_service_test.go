package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairshop-backend/internal/models"
	"repairshop-backend/internal/repositories"
)

func TestPriceUpsertAndLookup(t *testing.T) {
	prices := &memPrices{}
	events := &recorder{}
	svc := NewServicePriceService(prices, events)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, models.ServicePriceRequest{Model: "iPhone 13", Price: dec(10)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	first, err := svc.Upsert(ctx, models.ServicePriceRequest{Model: "iPhone 13", Service: "Screen", Price: dec(1000)})
	require.NoError(t, err)
	second, err := svc.Upsert(ctx, models.ServicePriceRequest{Model: "IPHONE 13", Service: "screen", Price: dec(1200)})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	p, err := svc.Lookup(ctx, "iPhone 13", " SCREEN ")
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(dec(1200)))

	_, err = svc.Lookup(ctx, "iPhone 13", "Battery")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, first.ID))
	assert.ErrorIs(t, svc.Delete(ctx, first.ID), repositories.ErrNotFound)
	assert.Equal(t, []string{"prices/updated", "prices/updated", "prices/deleted"}, events.topics())
}

func TestPriceBulkGenerate(t *testing.T) {
	prices := &memPrices{}
	svc := NewServicePriceService(prices, nil)
	ctx := context.Background()

	n, err := svc.BulkGenerate(ctx, models.BulkServicePriceRequest{
		Type: models.ProductTypeIPhone, FromModel: "iPhone 13", ToModel: "iPhone 13 Pro Max",
		Service: "Battery", Price: dec(450),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	list, err := svc.List(ctx, "iphone 13 pro")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Battery", list[0].Service)

	_, err = svc.BulkGenerate(ctx, models.BulkServicePriceRequest{Type: models.ProductTypeIPhone, Service: "", Price: dec(1)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
