package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"repairshop-backend/internal/imaging"
	"repairshop-backend/internal/models"
	"repairshop-backend/internal/realtime"
	"repairshop-backend/internal/storage"
	"repairshop-backend/internal/timeutil"
)

// MaxPhotoBytes caps a single proof-of-work upload.
const MaxPhotoBytes = 10 << 20

const photoURLTTL = time.Hour

type ProofOfWorkService struct {
	Photos  ProofStore
	Orders  OrderStore
	Storage storage.Store
	Events  realtime.Publisher
}

func NewProofOfWorkService(photos ProofStore, orders OrderStore, store storage.Store, events realtime.Publisher) *ProofOfWorkService {
	return &ProofOfWorkService{Photos: photos, Orders: orders, Storage: store, Events: events}
}

// Upload stores the photo and its thumbnail, then records it against the
// order. Uploaded objects are removed again if the record cannot be written.
func (s *ProofOfWorkService) Upload(ctx context.Context, orderID uuid.UUID, itemID, serviceID, caption string, data []byte, actor *models.User) (*models.ProofOfWork, error) {
	if s.Storage == nil {
		return nil, storage.ErrDisabled
	}
	if len(data) == 0 || len(data) > MaxPhotoBytes {
		return nil, fmt.Errorf("%w: photo must be between 1 byte and %d MB", ErrInvalidInput, MaxPhotoBytes>>20)
	}
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if itemID != "" && o.FindItem(itemID) == nil {
		return nil, fmt.Errorf("%w: item %s is not on ticket %s", ErrInvalidInput, itemID, o.TicketID)
	}

	img, contentType, err := imaging.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	thumb, err := imaging.Thumbnail(img)
	if err != nil {
		return nil, err
	}

	photo := &models.ProofOfWork{
		ID:          uuid.New(),
		OrderID:     o.ID,
		ItemID:      itemID,
		ServiceID:   serviceID,
		ContentType: contentType,
		Caption:     caption,
		UploadedBy:  actorID(actor),
	}
	photo.ObjectKey, photo.ThumbnailKey = storage.ProofKey(o.ID, photo.ID, imaging.Extension(contentType))

	if err := s.Storage.Put(ctx, photo.ObjectKey, data, contentType); err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}
	if err := s.Storage.Put(ctx, photo.ThumbnailKey, thumb, "image/jpeg"); err != nil {
		s.removeObjects(ctx, photo.ObjectKey)
		return nil, fmt.Errorf("store thumbnail: %w", err)
	}
	if err := s.Photos.Create(ctx, photo); err != nil {
		s.removeObjects(ctx, photo.ObjectKey, photo.ThumbnailKey)
		return nil, err
	}
	s.sign(ctx, photo)
	log.Printf("[ProofOfWork] %s added photo to %s", actorName(actor), o.TicketID)
	s.changed(ctx, "created", photo)
	return photo, nil
}

func (s *ProofOfWorkService) removeObjects(ctx context.Context, keys ...string) {
	for _, k := range keys {
		if err := s.Storage.Delete(ctx, k); err != nil {
			log.Printf("[ProofOfWork] Cleanup of %s failed: %v", k, err)
		}
	}
}

// sign fills in short-lived download links.
func (s *ProofOfWorkService) sign(ctx context.Context, p *models.ProofOfWork) {
	if s.Storage == nil {
		return
	}
	if url, err := s.Storage.PresignGet(ctx, p.ObjectKey, photoURLTTL); err == nil {
		p.URL = url
	}
	if p.ThumbnailKey != "" {
		if url, err := s.Storage.PresignGet(ctx, p.ThumbnailKey, photoURLTTL); err == nil {
			p.ThumbnailURL = url
		}
	}
}

func (s *ProofOfWorkService) List(ctx context.Context, orderID uuid.UUID) ([]*models.ProofOfWork, error) {
	photos, err := s.Photos.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	for _, p := range photos {
		s.sign(ctx, p)
	}
	return photos, nil
}

func (s *ProofOfWorkService) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.Photos.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Photos.Delete(ctx, id); err != nil {
		return err
	}
	if s.Storage != nil {
		s.removeObjects(ctx, p.ObjectKey, p.ThumbnailKey)
	}
	s.changed(ctx, "deleted", p)
	return nil
}

func (s *ProofOfWorkService) changed(ctx context.Context, event string, p *models.ProofOfWork) {
	if s.Events != nil {
		s.Events.Publish(ctx, realtime.Event{Topic: realtime.TopicProof, Type: event, ID: p.OrderID.String(), At: timeutil.Now()})
	}
}
