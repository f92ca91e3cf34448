package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/cube-drafter/internal/app"
	"github.com/ramonehamilton/cube-drafter/internal/cube"
	"github.com/ramonehamilton/cube-drafter/internal/imagecache"
)

type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := m.data[key]
	return value, ok, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *memStore) Clear(_ context.Context) error {
	m.data = map[string][]byte{}
	return nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	loader := func(context.Context) ([]cube.Record, error) {
		records := make([]cube.Record, 400)
		for i := range records {
			records[i] = cube.Record{
				Name:            fmt.Sprintf("Test Card %03d", i),
				Set:             "tst",
				CollectorNumber: fmt.Sprintf("%d", i+1),
				ManaValue:       i % 9,
			}
		}
		return records, nil
	}

	a := app.New(newMemStore(), loader, 8, imagecache.Options{CacheDir: t.TempDir(), MaxEntries: 2})
	require.NoError(t, a.Load(context.Background()))

	server := httptest.NewServer(NewServer(DefaultConfig(), a).Router())
	t.Cleanup(server.Close)
	return server
}

// seatData is the decoded "data" object of a seat response.
type seatData struct {
	Seat       int               `json:"seat"`
	Pack       []map[string]any  `json:"pack"`
	Drafted    []map[string]any  `json:"drafted"`
	Sideboard  []map[string]any  `json:"sideboard"`
	PackNumber int               `json:"pack_number"`
	PickNumber int               `json:"pick_number"`
	Images     map[string]string `json:"images"`
	Done       bool              `json:"done"`
}

func decodeSeat(t *testing.T, resp *http.Response) seatData {
	t.Helper()
	var envelope struct {
		Data seatData `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.Data
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestStatusEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp := get(t, server.URL+"/api/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data struct {
			Digest string `json:"digest"`
			Cards  int    `json:"cards"`
			Seats  []int  `json:"seat_picks"`
			Done   bool   `json:"done"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, 400, envelope.Data.Cards)
	assert.Len(t, envelope.Data.Seats, 8)
	assert.False(t, envelope.Data.Done)
}

func TestGetSeat(t *testing.T) {
	server := newTestServer(t)

	resp := get(t, server.URL+"/api/seat/0")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	seat := decodeSeat(t, resp)
	assert.Equal(t, 0, seat.Seat)
	assert.Len(t, seat.Pack, 15)
	assert.Equal(t, 1, seat.PackNumber)
	assert.Equal(t, 1, seat.PickNumber)
}

func TestGetSeatOutOfRange(t *testing.T) {
	server := newTestServer(t)

	resp := get(t, server.URL+"/api/seat/99")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetSeatNotANumber(t *testing.T) {
	server := newTestServer(t)

	resp := get(t, server.URL+"/api/seat/first")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetSeatToShow(t *testing.T) {
	server := newTestServer(t)

	resp := get(t, server.URL+"/api/seat")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	seat := decodeSeat(t, resp)
	assert.Len(t, seat.Pack, 15)
}

func TestPick(t *testing.T) {
	server := newTestServer(t)

	before := decodeSeat(t, get(t, server.URL+"/api/seat/0"))
	name := before.Pack[0]["name"].(string)

	resp := postJSON(t, server.URL+"/api/seat/0/pick", map[string]any{"query": name})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	seat := decodeSeat(t, resp)
	require.Len(t, seat.Drafted, 1)
	assert.Equal(t, name, seat.Drafted[0]["name"])
	assert.Contains(t, seat.Images, "deck_image")

	// The pack moved on; a second immediate pick has nothing to draw
	// from.
	resp = postJSON(t, server.URL+"/api/seat/0/pick", map[string]any{"query": "anything"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPickAmbiguous(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/seat/0/pick", map[string]any{"query": "test card"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPickMissingQuery(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/seat/0/pick", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPickToSideboard(t *testing.T) {
	server := newTestServer(t)

	before := decodeSeat(t, get(t, server.URL+"/api/seat/2"))
	name := before.Pack[0]["name"].(string)

	resp := postJSON(t, server.URL+"/api/seat/2/pick", map[string]any{"query": name, "sideboard": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	seat := decodeSeat(t, resp)
	assert.Empty(t, seat.Drafted)
	require.Len(t, seat.Sideboard, 1)
	assert.Equal(t, name, seat.Sideboard[0]["name"])
}

func TestSwap(t *testing.T) {
	server := newTestServer(t)

	before := decodeSeat(t, get(t, server.URL+"/api/seat/0"))
	name := before.Pack[0]["name"].(string)
	postJSON(t, server.URL+"/api/seat/0/pick", map[string]any{"query": name})

	resp := postJSON(t, server.URL+"/api/seat/0/swap", map[string]any{"query": name})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	seat := decodeSeat(t, resp)
	assert.Empty(t, seat.Drafted)
	require.Len(t, seat.Sideboard, 1)
	assert.Equal(t, name, seat.Sideboard[0]["name"])
}

func TestSwapUnownedCard(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/seat/0/swap", map[string]any{"query": "Test Card 000"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFixSameCard(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/fix", map[string]any{
		"card1": "Test Card 001",
		"card2": "Test Card 001",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFix(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/fix", map[string]any{
		"card1": "Test Card 001",
		"card2": "Test Card 002",
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestReload(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/reload", map[string]any{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestImageBadToken(t *testing.T) {
	server := newTestServer(t)

	resp := get(t, server.URL+"/image/!!!")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
