package health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckWithoutDatabase(t *testing.T) {
	h := NewHealthChecker(nil, func() int { return 2 })

	ready := h.CheckReady(context.Background())
	assert.Equal(t, "unhealthy", ready.Status)
	assert.Equal(t, "disabled", ready.Redis.Status)

	d := h.CheckDetailed(context.Background())
	assert.Equal(t, 2, d.WebsocketClients)
	assert.Positive(t, d.Goroutines)
	assert.Positive(t, d.MemoryTotal)
}
