// Package imagecache composes and memoizes pile images for encoded
// card sequences. Individual card images are cached on disk; composed
// images are kept in a small in-memory LRU keyed by the request token.
package imagecache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ramonehamilton/cube-drafter/internal/cube"
)

// Scryfall PNG card frame dimensions.
const (
	CardWidth  = 745
	CardHeight = 1040
)

// gridWidth is how many cards wide a plain pile image is.
const gridWidth = 5

// Options configures the image cache.
type Options struct {
	// CacheDir stores downloaded card images between runs.
	CacheDir string

	// MaxEntries bounds the in-memory cache of composed images.
	MaxEntries int

	// Timeout is the per-download HTTP timeout.
	Timeout time.Duration
}

// DefaultOptions returns sensible default cache options.
func DefaultOptions() Options {
	homeDir, _ := os.UserHomeDir()
	return Options{
		CacheDir:   filepath.Join(homeDir, ".cube-drafter", "image-cache"),
		MaxEntries: 15,
		Timeout:    30 * time.Second,
	}
}

// Cache renders composed pile images against one cube. Replace the
// cache together with the cube on reload; tokens encode cube indices
// and do not survive a list change.
type Cache struct {
	cube       *cube.Cube
	cacheDir   string
	httpClient *http.Client

	mu         sync.Mutex
	entries    map[string][]byte
	order      []string // LRU order, least recent first
	maxEntries int
}

// New creates an image cache for the given cube.
func New(c *cube.Cube, options Options) (*Cache, error) {
	if err := os.MkdirAll(options.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	if options.MaxEntries <= 0 {
		options.MaxEntries = DefaultOptions().MaxEntries
	}
	if options.Timeout <= 0 {
		options.Timeout = DefaultOptions().Timeout
	}

	return &Cache{
		cube:       c,
		cacheDir:   options.CacheDir,
		httpClient: &http.Client{Timeout: options.Timeout},
		entries:    map[string][]byte{},
		maxEntries: options.MaxEntries,
	}, nil
}

// Get returns the composed PNG for a request key: an encoded card
// token, optionally suffixed with "?cmc" to lay the cards out in mana
// value piles instead of a grid.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	if img, ok := c.entries[key]; ok {
		c.touch(key)
		c.mu.Unlock()
		return img, nil
	}
	c.mu.Unlock()

	token, byCMC := strings.CutSuffix(key, "?cmc")
	cards, err := c.cube.DecodeCards(token)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, &cube.DecodeError{Token: token, Reason: "empty card list"}
	}

	var img []byte
	if byCMC {
		img, err = c.composePiles(ctx, cards)
	} else {
		img, err = c.composeGrid(ctx, cards)
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	// Another request may have composed the same key while the lock was
	// dropped; inserting again would leave a duplicate in the LRU order.
	if existing, ok := c.entries[key]; ok {
		c.touch(key)
		c.mu.Unlock()
		return existing, nil
	}
	c.entries[key] = img
	c.order = append(c.order, key)
	for len(c.entries) > c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.mu.Unlock()

	return img, nil
}

// touch moves key to the most-recently-used end of the order. Caller
// holds mu.
func (c *Cache) touch(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(append(c.order[:i:i], c.order[i+1:]...), key)
			return
		}
	}
}

// composeGrid lays cards out left to right, five per row.
func (c *Cache) composeGrid(ctx context.Context, cards []*cube.Card) ([]byte, error) {
	rows := (len(cards) + gridWidth - 1) / gridWidth
	canvas := newCanvas(CardWidth*gridWidth, CardHeight*rows)

	for i, card := range cards {
		img, err := c.cardImage(ctx, card)
		if err != nil {
			return nil, err
		}
		place(canvas, img, CardWidth*(i%gridWidth), CardHeight*(i/gridWidth))
	}

	return encodePNG(canvas)
}

// composePiles lays cards out in overlapping vertical piles, one pile
// per mana value bucket.
func (c *Cache) composePiles(ctx context.Context, cards []*cube.Card) ([]byte, error) {
	piles := cube.PileByCMC(cards)
	offset := float64(CardHeight) / 9

	depth := 0
	for _, pile := range piles {
		if len(pile) > depth {
			depth = len(pile)
		}
	}

	canvas := newCanvas(CardWidth*len(piles), CardHeight+int(math.Round(offset*float64(depth-1))))
	for col, pile := range piles {
		for row, card := range pile {
			img, err := c.cardImage(ctx, card)
			if err != nil {
				return nil, err
			}
			place(canvas, img, CardWidth*col, int(math.Round(offset*float64(row))))
		}
	}

	return encodePNG(canvas)
}

// cardImage fetches a card's PNG through the disk cache.
func (c *Cache) cardImage(ctx context.Context, card *cube.Card) (image.Image, error) {
	url := card.ImageURL()
	sum := sha256.Sum256([]byte(url))
	path := filepath.Join(c.cacheDir, hex.EncodeToString(sum[:])+".png")

	raw, err := os.ReadFile(path)
	if err != nil {
		raw, err = c.download(ctx, url)
		if err != nil {
			return nil, err
		}
		// Best effort; a failed write just means a re-download later.
		_ = os.WriteFile(path, raw, 0o644)
	}

	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image for %q: %w", card.Name, err)
	}
	return img, nil
}

func (c *Cache) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download card image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("card image download returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read card image: %w", err)
	}
	return raw, nil
}

func newCanvas(width, height int) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return canvas
}

func place(canvas *image.RGBA, img image.Image, x, y int) {
	bounds := img.Bounds()
	rect := image.Rect(x, y, x+bounds.Dx(), y+bounds.Dy())
	draw.Draw(canvas, rect, img, bounds.Min, draw.Over)
}

func encodePNG(canvas *image.RGBA) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode composed image: %w", err)
	}
	return buf.Bytes(), nil
}
