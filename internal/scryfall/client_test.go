package scryfall

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cards/2ed/162", r.URL.Path)
		assert.Equal(t, "cube-drafter/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Lightning Bolt","set":"2ed","collector_number":"162","cmc":1.0}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	card, err := client.GetCard(context.Background(), "2ed", "162")
	require.NoError(t, err)

	assert.Equal(t, "Lightning Bolt", card.Name)
	assert.Equal(t, "2ed", card.Set)
	assert.Equal(t, "162", card.CollectorNumber)
	assert.Equal(t, 1.0, card.CMC)
}

func TestGetCardNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	_, err := client.GetCard(context.Background(), "2ed", "9999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestGetCardRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"name":"Shock","set":"m20","collector_number":"160","cmc":1.0}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	client.httpClient.Timeout = 5 * time.Second

	card, err := client.GetCard(context.Background(), "m20", "160")
	require.NoError(t, err)
	assert.Equal(t, "Shock", card.Name)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetCardBadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	_, err := client.GetCard(context.Background(), "m20", "160")
	assert.Error(t, err)
}
