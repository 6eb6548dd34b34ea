package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"repairshop-backend/internal/catalog"
	"repairshop-backend/internal/models"
	"repairshop-backend/internal/realtime"
	"repairshop-backend/internal/repositories"
	"repairshop-backend/internal/timeutil"
)

type ServicePriceService struct {
	Prices PriceStore
	Events realtime.Publisher
}

func NewServicePriceService(prices PriceStore, events realtime.Publisher) *ServicePriceService {
	return &ServicePriceService{Prices: prices, Events: events}
}

func (s *ServicePriceService) changed(ctx context.Context, event string) {
	if s.Events != nil {
		s.Events.Publish(ctx, realtime.Event{Topic: realtime.TopicPrices, Type: event, At: timeutil.Now()})
	}
}

func (s *ServicePriceService) Upsert(ctx context.Context, req models.ServicePriceRequest) (*models.ServicePrice, error) {
	if strings.TrimSpace(req.Model) == "" || strings.TrimSpace(req.Service) == "" {
		return nil, fmt.Errorf("%w: model and service are required", ErrInvalidInput)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	p := &models.ServicePrice{Model: req.Model, Service: req.Service, Price: req.Price}
	if err := s.Prices.Upsert(ctx, p); err != nil {
		return nil, err
	}
	s.changed(ctx, "updated")
	return p, nil
}

func (s *ServicePriceService) List(ctx context.Context, model string) ([]models.ServicePrice, error) {
	return s.Prices.List(ctx, model)
}

// Lookup returns the price for one model and service.
func (s *ServicePriceService) Lookup(ctx context.Context, model, service string) (*models.ServicePrice, error) {
	list, err := s.Prices.List(ctx, model)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if strings.EqualFold(list[i].Service, strings.TrimSpace(service)) {
			return &list[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no price for %s / %s", repositories.ErrNotFound, model, service)
}

func (s *ServicePriceService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.Prices.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, "deleted")
	return nil
}

// BulkGenerate sets one service price across a catalogue model range.
func (s *ServicePriceService) BulkGenerate(ctx context.Context, req models.BulkServicePriceRequest) (int, error) {
	if strings.TrimSpace(req.Service) == "" || req.Price.IsNegative() {
		return 0, fmt.Errorf("%w: service and a non-negative price are required", ErrInvalidInput)
	}
	list, err := catalog.Range(req.Type, req.FromModel, req.ToModel)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	prices := make([]models.ServicePrice, len(list))
	for i, m := range list {
		prices[i] = models.ServicePrice{Model: m, Service: req.Service, Price: req.Price}
	}
	n, err := s.Prices.BulkUpsert(ctx, prices)
	if n > 0 {
		s.changed(ctx, "bulk_updated")
	}
	return n, err
}
