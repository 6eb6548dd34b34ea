package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairshop-backend/internal/models"
	"repairshop-backend/internal/storage"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for x := 0; x < 640; x++ {
		img.Set(x, x%480, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func proofFixture(t *testing.T) (*ProofOfWorkService, *memStore, *models.Order) {
	t.Helper()
	orders := newMemOrders(newMemProducts())
	o := completedRepair("Tunde", fixedNow, fixedNow)
	orders.put(o)
	store := newMemStore()
	return NewProofOfWorkService(&memProofs{}, orders, store, &recorder{}), store, o
}

func TestUploadStoresPhotoAndThumbnail(t *testing.T) {
	svc, store, o := proofFixture(t)
	ctx := context.Background()

	photo, err := svc.Upload(ctx, o.ID, o.Items[0].ID, "", "cracked back", testPNG(t), staff)
	require.NoError(t, err)
	assert.Equal(t, "image/png", photo.ContentType)
	assert.Equal(t, 2, store.count())
	assert.Contains(t, photo.URL, photo.ObjectKey)
	assert.Contains(t, photo.ThumbnailURL, photo.ThumbnailKey)

	list, err := svc.List(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotEmpty(t, list[0].URL)

	require.NoError(t, svc.Delete(ctx, photo.ID))
	assert.Zero(t, store.count())
}

func TestUploadRejects(t *testing.T) {
	svc, _, o := proofFixture(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, o.ID, "", "", "", []byte("plain text"), staff)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Upload(ctx, o.ID, "missing-item", "", "", testPNG(t), staff)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Upload(ctx, uuid.New(), "", "", "", testPNG(t), staff)
	assert.Error(t, err)

	svc.Storage = nil
	_, err = svc.Upload(ctx, o.ID, "", "", "", testPNG(t), staff)
	assert.ErrorIs(t, err, storage.ErrDisabled)
}

func TestUploadCleansUpOnThumbnailFailure(t *testing.T) {
	svc, store, o := proofFixture(t)
	store.failPut = "thumb"

	_, err := svc.Upload(context.Background(), o.ID, "", "", "", testPNG(t), staff)
	require.Error(t, err)
	assert.Zero(t, store.count())
}

func TestIssues(t *testing.T) {
	events := &recorder{}
	svc := NewIssueService(&memIssues{}, events)
	ctx := context.Background()

	_, err := svc.Report(ctx, models.IssueReportRequest{Title: "  "}, staff)
	assert.ErrorIs(t, err, ErrInvalidInput)

	issue, err := svc.Report(ctx, models.IssueReportRequest{Title: "Printer jams", Description: "receipt printer"}, staff)
	require.NoError(t, err)
	assert.Equal(t, "Ada", issue.ReporterName)

	open, err := svc.List(ctx, models.IssueStatusOpen)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	_, err = svc.List(ctx, "closed")
	assert.ErrorIs(t, err, ErrInvalidInput)

	resolved, err := svc.Resolve(ctx, issue.ID, models.ResolveIssueRequest{Resolution: "new roll"}, staff)
	require.NoError(t, err)
	assert.Equal(t, models.IssueStatusResolved, resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, []string{"issues/created", "issues/resolved"}, events.topics())
}
