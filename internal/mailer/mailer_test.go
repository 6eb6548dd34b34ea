package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairshop-backend/internal/config"
)

func TestHTTPMailer(t *testing.T) {
	var got map[string]string
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewHTTPMailer(srv.URL, "key-1", "shop@example.com")
	err := m.Send(context.Background(), InviteEmail("new@example.com", "worker", "Fix Shop", "http://x/accept?token=t"))
	require.NoError(t, err)

	assert.Equal(t, "Bearer key-1", auth)
	assert.Equal(t, "shop@example.com", got["from"])
	assert.Equal(t, "new@example.com", got["to"])
	assert.Contains(t, got["text"], "as worker")
}

func TestHTTPMailerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad sender", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewHTTPMailer(srv.URL, "", "x").Send(context.Background(), Message{To: "a@b.c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestNewFallsBackToMock(t *testing.T) {
	m := New(&config.Config{})
	mock, ok := m.(*MockMailer)
	require.True(t, ok)

	require.NoError(t, mock.Send(context.Background(), SignInLinkEmail("a@b.c", "Shop", "l")))
	require.Len(t, mock.Sent(), 1)
	assert.Equal(t, "Sign in to Shop", mock.Sent()[0].Subject)
}

func TestLink(t *testing.T) {
	assert.Equal(t, "https://shop.test/verify?token=a%2Bb", Link("https://shop.test/", "/verify", "a+b"))
}
