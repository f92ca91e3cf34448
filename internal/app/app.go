// Package app owns the process-wide draft state: the current cube,
// the current draft, and the image cache built against them. All
// mutating operations serialize through one lock, and reload replaces
// cube and draft wholesale so no operation ever mixes old and new card
// indices.
package app

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/ramonehamilton/cube-drafter/internal/cube"
	"github.com/ramonehamilton/cube-drafter/internal/draft"
	"github.com/ramonehamilton/cube-drafter/internal/imagecache"
)

// digestKey is the store key the cube fingerprint is persisted under.
const digestKey = "digest"

// ListLoader fetches the current cube list from the source feed.
type ListLoader func(ctx context.Context) ([]cube.Record, error)

// App is the application context threaded into request handlers.
type App struct {
	store     draft.Store
	loadList  ListLoader
	seats     int
	imageOpts imagecache.Options

	mu     sync.Mutex
	cube   *cube.Cube
	draft  *draft.Draft
	images *imagecache.Cache
}

// New creates an unloaded context. Call Load before serving.
func New(store draft.Store, loadList ListLoader, seats int, imageOpts imagecache.Options) *App {
	return &App{
		store:     store,
		loadList:  loadList,
		seats:     seats,
		imageOpts: imageOpts,
	}
}

// Load fetches the cube list and loads or creates the draft against
// it. When the list's digest differs from the persisted one the store
// is cleared first, discarding any draft dealt from the old list.
// Load is also the reload path: the previous cube, draft, and image
// cache are replaced wholesale.
func (a *App) Load(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	log.Println("Loading cube list...")
	records, err := a.loadList(ctx)
	if err != nil {
		return fmt.Errorf("load cube list: %w", err)
	}
	c := cube.New(records)

	oldDigest, ok, err := a.store.Get(ctx, digestKey)
	if err != nil {
		return fmt.Errorf("load stored digest: %w", err)
	}
	if ok && string(oldDigest) != c.Digest() {
		log.Println("Cube list outdated, resetting draft")
		if err := a.store.Clear(ctx); err != nil {
			return fmt.Errorf("reset draft state: %w", err)
		}
	}
	if err := a.store.Set(ctx, digestKey, []byte(c.Digest())); err != nil {
		return fmt.Errorf("store digest: %w", err)
	}

	d, err := draft.LoadOrCreate(ctx, c, a.store, a.seats)
	if err != nil {
		return err
	}

	images, err := imagecache.New(c, a.imageOpts)
	if err != nil {
		return err
	}

	a.cube = c
	a.draft = d
	a.images = images
	log.Printf("Cube loaded: %d cards, digest %s", c.Size(), c.Digest())
	return nil
}

// Pick picks a card for a seat. See draft.Draft.Pick.
func (a *App) Pick(ctx context.Context, seat int, query string, toSideboard bool) (*cube.Card, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.draft.Pick(ctx, seat, query, toSideboard)
}

// Swap moves a card between a seat's deck and sideboard. See
// draft.Draft.Swap.
func (a *App) Swap(ctx context.Context, seat int, query string) (*cube.Card, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.draft.Swap(ctx, seat, query)
}

// FixCards substitutes one card for another across the whole draft.
// See draft.Draft.FixCards.
func (a *App) FixCards(ctx context.Context, name1, name2 string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.draft.FixCards(ctx, name1, name2)
}

// SeatToShow picks the seat most in need of attention and stamps it
// shown. See draft.Draft.SeatToShow.
func (a *App) SeatToShow(ctx context.Context) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.draft.SeatToShow(ctx)
}

// CardView is the card shape exposed to rendering layers.
type CardView struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	ManaValue int    `json:"mana_value"`
}

// SeatView is everything a rendering layer needs about one seat.
type SeatView struct {
	Seat       int               `json:"seat"`
	Pack       []CardView        `json:"pack"`
	Drafted    []CardView        `json:"drafted"`
	Sideboard  []CardView        `json:"sideboard"`
	PackNumber int               `json:"pack_number"`
	PickNumber int               `json:"pick_number"`
	Images     map[string]string `json:"images"`
	Done       bool              `json:"done"`
}

// StatusView summarizes the whole draft.
type StatusView struct {
	Digest string `json:"digest"`
	Cards  int    `json:"cards"`
	Seats  []int  `json:"seat_picks"`
	Done   bool   `json:"done"`
}

func cardViews(cards []*cube.Card) []CardView {
	views := make([]CardView, len(cards))
	for i, card := range cards {
		views[i] = CardView{Name: card.Name, URL: card.URL(), ManaValue: card.ManaValue}
	}
	return views
}

// SeatView assembles the full view of one seat.
func (a *App) SeatView(seat int) (*SeatView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	pack, err := a.draft.GetPack(seat)
	if err != nil {
		return nil, err
	}
	drafted, err := a.draft.GetDrafted(seat)
	if err != nil {
		return nil, err
	}
	sideboard, err := a.draft.GetSideboard(seat)
	if err != nil {
		return nil, err
	}
	packNumber, err := a.draft.PackNumber(seat)
	if err != nil {
		return nil, err
	}
	pickNumber, err := a.draft.PickNumber(seat)
	if err != nil {
		return nil, err
	}
	images, err := a.draft.SeatImages(seat)
	if err != nil {
		return nil, err
	}

	return &SeatView{
		Seat:       seat,
		Pack:       cardViews(pack),
		Drafted:    cardViews(drafted),
		Sideboard:  cardViews(sideboard),
		PackNumber: packNumber,
		PickNumber: pickNumber,
		Images:     images,
		Done:       a.draft.IsDone(),
	}, nil
}

// Status assembles the draft-wide status view.
func (a *App) Status() *StatusView {
	a.mu.Lock()
	defer a.mu.Unlock()

	seats := make([]int, a.draft.SeatCount())
	for i := range seats {
		drafted, _ := a.draft.GetDrafted(i)
		sideboard, _ := a.draft.GetSideboard(i)
		seats[i] = len(drafted) + len(sideboard)
	}

	return &StatusView{
		Digest: a.cube.Digest(),
		Cards:  a.cube.Size(),
		Seats:  seats,
		Done:   a.draft.IsDone(),
	}
}

// SeatCount returns the current draft's seat count.
func (a *App) SeatCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.draft.SeatCount()
}

// Image renders (or returns the memoized) composed image for a token
// key.
func (a *App) Image(ctx context.Context, key string) ([]byte, error) {
	a.mu.Lock()
	images := a.images
	a.mu.Unlock()
	return images.Get(ctx, key)
}
