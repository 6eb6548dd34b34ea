package models

import (
	"time"

	"github.com/google/uuid"
)

// ProofOfWork is a photo attached to a repair.
type ProofOfWork struct {
	ID           uuid.UUID  `json:"id"`
	OrderID      uuid.UUID  `json:"order_id"`
	ItemID       string     `json:"item_id,omitempty"`
	ServiceID    string     `json:"service_id,omitempty"`
	ObjectKey    string     `json:"object_key"`
	ThumbnailKey string     `json:"thumbnail_key"`
	ContentType  string     `json:"content_type"`
	Caption      string     `json:"caption,omitempty"`
	UploadedBy   *uuid.UUID `json:"uploaded_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`

	URL          string `json:"url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}
