package storage

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestProofKey(t *testing.T) {
	order := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	photo := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	orig, thumb := ProofKey(order, photo, ".PNG")
	assert.Equal(t, "proof-of-work/11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222.png", orig)
	assert.Equal(t, "proof-of-work/11111111-1111-1111-1111-111111111111/thumb_22222222-2222-2222-2222-222222222222.jpg", thumb)

	orig, _ = ProofKey(order, photo, "")
	assert.Contains(t, orig, ".jpg")
}

func TestExportKey(t *testing.T) {
	at := time.Date(2026, 10, 16, 8, 30, 0, 0, time.UTC)
	assert.Equal(t, "exports/orders/orders_20261016_083000.xlsx", ExportKey("orders", at))
}
