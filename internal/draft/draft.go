// Package draft implements the multi-seat pack rotation and picking
// state machine. All mutable state lives here; the cube and the
// key-value store are read-only collaborators.
package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ramonehamilton/cube-drafter/internal/cube"
)

const (
	// DefaultSeatCount is the number of participants in a standard
	// draft.
	DefaultSeatCount = 8

	// PackSize is the number of cards in each booster.
	PackSize = 15

	// PacksPerSeat is how many boosters each seat opens over the
	// draft.
	PacksPerSeat = 3
)

// seatsKey is the store key the full seat state is persisted under.
const seatsKey = "seats"

// Store is the key-value persistence the draft rewrites itself through
// after every mutation.
type Store interface {
	// Get returns the raw JSON stored under key, or ok=false when the
	// key has never been set.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context) error
}

// seat holds one participant's cards. Across all seats, the union of
// the four containers is always exactly the multiset dealt at draft
// creation; operations move cards between containers but never create
// or drop them.
type seat struct {
	drafted   []*cube.Card
	sideboard []*cube.Card

	// packBacklog is the queue of packs waiting on this seat;
	// packBacklog[0] is the pack being picked from now.
	packBacklog [][]*cube.Card

	// unopenedPacks are boosters not yet introduced into rotation.
	unopenedPacks [][]*cube.Card

	// lastShown is when this seat's pack was last displayed, nil if
	// never.
	lastShown *time.Time
}

func (s *seat) committed() int {
	return len(s.drafted) + len(s.sideboard)
}

// Draft is the state of one running booster draft.
type Draft struct {
	cube  *cube.Cube
	store Store
	seats []*seat

	// now is stubbed in tests.
	now func() time.Time
}

// seatRecord is the persisted form of a seat. Cards are stored by name
// and rebound against the cube on load.
type seatRecord struct {
	Drafted       []string   `json:"drafted"`
	Sideboard     []string   `json:"sideboard"`
	PackBacklog   [][]string `json:"packBacklog"`
	UnopenedPacks [][]string `json:"unopenedPacks"`
	LastShown     *int64     `json:"lastShown"`
}

// LoadOrCreate reconstructs the draft persisted in store, or deals a
// fresh one from the cube when no state exists. seatCount is only used
// when dealing; persisted state keeps its own seat count. Callers must
// have already reset the store if the cube's digest changed, otherwise
// reconstruction fails on the first renamed card.
func LoadOrCreate(ctx context.Context, c *cube.Cube, store Store, seatCount int) (*Draft, error) {
	if seatCount <= 0 {
		seatCount = DefaultSeatCount
	}

	raw, ok, err := store.Get(ctx, seatsKey)
	if err != nil {
		return nil, fmt.Errorf("load draft state: %w", err)
	}

	d := &Draft{cube: c, store: store, now: time.Now}

	if !ok {
		if err := d.deal(seatCount); err != nil {
			return nil, err
		}
		if err := d.save(ctx); err != nil {
			return nil, err
		}
		return d, nil
	}

	var records []seatRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse draft state: %w", err)
	}
	for i, rec := range records {
		st, err := d.rebindSeat(rec)
		if err != nil {
			return nil, fmt.Errorf("rebind seat %d: %w", i, err)
		}
		d.seats = append(d.seats, st)
	}
	return d, nil
}

// deal samples the full draft pool from the cube and splits it into
// three packs of fifteen per seat. The first pack goes straight into
// each seat's backlog; the other two wait unopened.
func (d *Draft) deal(seatCount int) error {
	need := PackSize * PacksPerSeat * seatCount
	if d.cube.Size() < need {
		return fmt.Errorf("cube has %d cards, need %d to deal %d seats", d.cube.Size(), need, seatCount)
	}

	cards := d.cube.RandomCards(need)
	d.seats = make([]*seat, seatCount)
	for i := range d.seats {
		st := &seat{}
		for p := 0; p < PacksPerSeat; p++ {
			start := (i*PacksPerSeat + p) * PackSize
			pack := make([]*cube.Card, PackSize)
			copy(pack, cards[start:start+PackSize])
			if p == 0 {
				st.packBacklog = append(st.packBacklog, pack)
			} else {
				st.unopenedPacks = append(st.unopenedPacks, pack)
			}
		}
		d.seats[i] = st
	}
	return nil
}

func (d *Draft) rebindSeat(rec seatRecord) (*seat, error) {
	rebind := func(names []string) ([]*cube.Card, error) {
		cards := make([]*cube.Card, len(names))
		for i, name := range names {
			card, err := d.cube.GetCard(name)
			if err != nil {
				return nil, err
			}
			cards[i] = card
		}
		return cards, nil
	}
	rebindPacks := func(packs [][]string) ([][]*cube.Card, error) {
		out := make([][]*cube.Card, len(packs))
		for i, names := range packs {
			cards, err := rebind(names)
			if err != nil {
				return nil, err
			}
			out[i] = cards
		}
		return out, nil
	}

	st := &seat{}
	var err error
	if st.drafted, err = rebind(rec.Drafted); err != nil {
		return nil, err
	}
	if st.sideboard, err = rebind(rec.Sideboard); err != nil {
		return nil, err
	}
	if st.packBacklog, err = rebindPacks(rec.PackBacklog); err != nil {
		return nil, err
	}
	if st.unopenedPacks, err = rebindPacks(rec.UnopenedPacks); err != nil {
		return nil, err
	}
	if rec.LastShown != nil {
		t := time.UnixMilli(*rec.LastShown)
		st.lastShown = &t
	}
	return st, nil
}

// save rewrites the full seat state in one atomic store write.
func (d *Draft) save(ctx context.Context) error {
	names := func(cards []*cube.Card) []string {
		out := make([]string, len(cards))
		for i, card := range cards {
			out[i] = card.Name
		}
		return out
	}
	packNames := func(packs [][]*cube.Card) [][]string {
		out := make([][]string, len(packs))
		for i, pack := range packs {
			out[i] = names(pack)
		}
		return out
	}

	records := make([]seatRecord, len(d.seats))
	for i, st := range d.seats {
		rec := seatRecord{
			Drafted:       names(st.drafted),
			Sideboard:     names(st.sideboard),
			PackBacklog:   packNames(st.packBacklog),
			UnopenedPacks: packNames(st.unopenedPacks),
		}
		if st.lastShown != nil {
			ms := st.lastShown.UnixMilli()
			rec.LastShown = &ms
		}
		records[i] = rec
	}

	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("serialize draft state: %w", err)
	}
	if err := d.store.Set(ctx, seatsKey, raw); err != nil {
		return fmt.Errorf("persist draft state: %w", err)
	}
	return nil
}

func (d *Draft) checkSeat(index int) error {
	if index < 0 || index >= len(d.seats) {
		return &InvalidSeatError{Seat: index, SeatCount: len(d.seats)}
	}
	return nil
}

// Pick resolves query against seat's current pack, moves the matched
// card into the seat's drafted pile (or sideboard), and routes the
// remainder of the pack onward. While the picking seat still has two
// unopened packs the pack passes toward the lower-numbered neighbor;
// afterwards it passes toward the higher-numbered one. An emptied pack
// leaves rotation, and the seat opens its next booster if it has one.
func (d *Draft) Pick(ctx context.Context, seatIndex int, query string, toSideboard bool) (*cube.Card, error) {
	if err := d.checkSeat(seatIndex); err != nil {
		return nil, err
	}
	st := d.seats[seatIndex]
	if len(st.packBacklog) == 0 || len(st.packBacklog[0]) == 0 {
		return nil, &NoPackError{Seat: seatIndex}
	}

	pack := st.packBacklog[0]
	card, err := cube.Resolve(pack, query)
	if err != nil {
		return nil, err
	}

	pack = removeCard(pack, card)
	if toSideboard {
		st.sideboard = append(st.sideboard, card)
	} else {
		st.drafted = append(st.drafted, card)
	}

	// Direction depends on the picking seat's remaining unopened packs
	// at the moment of the pick, not on a global round counter. Seats
	// that empty their boosters at different times diverge from a
	// per-round rule, and persisted drafts rely on this exact pattern.
	st.packBacklog = st.packBacklog[1:]
	if len(pack) == 0 {
		if len(st.unopenedPacks) > 0 {
			next := st.unopenedPacks[0]
			st.unopenedPacks = st.unopenedPacks[1:]
			st.packBacklog = append([][]*cube.Card{next}, st.packBacklog...)
		}
	} else {
		target := seatIndex + 1
		if len(st.unopenedPacks) == 2 {
			target = seatIndex - 1
		}
		target = (target + len(d.seats)) % len(d.seats)
		neighbor := d.seats[target]
		neighbor.packBacklog = append(neighbor.packBacklog, pack)
	}

	if err := d.save(ctx); err != nil {
		return nil, err
	}
	return card, nil
}

// Swap resolves query against the union of a seat's drafted and
// sideboard piles and moves the matched card to the opposite pile.
func (d *Draft) Swap(ctx context.Context, seatIndex int, query string) (*cube.Card, error) {
	if err := d.checkSeat(seatIndex); err != nil {
		return nil, err
	}
	st := d.seats[seatIndex]

	pool := make([]*cube.Card, 0, st.committed())
	pool = append(pool, st.drafted...)
	pool = append(pool, st.sideboard...)
	card, err := cube.Resolve(pool, query)
	if err != nil {
		return nil, err
	}

	if containsCard(st.drafted, card) {
		st.drafted = removeCard(st.drafted, card)
		st.sideboard = append(st.sideboard, card)
	} else {
		st.sideboard = removeCard(st.sideboard, card)
		st.drafted = append(st.drafted, card)
	}

	if err := d.save(ctx); err != nil {
		return nil, err
	}
	return card, nil
}

// FixCards swaps every occurrence of two cards across all seats and
// containers, preserving positions. It exists to correct bad catalog
// entries after packs are dealt; pack sizes and seat totals are
// unchanged.
func (d *Draft) FixCards(ctx context.Context, name1, name2 string) error {
	card1, err := cube.Resolve(d.cube.Cards(), name1)
	if err != nil {
		return err
	}
	card2, err := cube.Resolve(d.cube.Cards(), name2)
	if err != nil {
		return err
	}
	if card1 == card2 {
		return &SameCardError{Name: card1.Name}
	}

	for _, st := range d.seats {
		swapInPlace(st.drafted, card1, card2)
		swapInPlace(st.sideboard, card1, card2)
		for _, pack := range st.packBacklog {
			swapInPlace(pack, card1, card2)
		}
		for _, pack := range st.unopenedPacks {
			swapInPlace(pack, card1, card2)
		}
	}

	return d.save(ctx)
}

// SeatToShow selects the seat with the fewest committed cards, breaking
// ties toward the seat shown least recently with never-shown seats
// treated as oldest. The winner's lastShown is stamped and persisted,
// so repeated calls round-robin user attention across tied seats.
func (d *Draft) SeatToShow(ctx context.Context) (int, error) {
	best := 0
	for next := 1; next < len(d.seats); next++ {
		bestSeat, nextSeat := d.seats[best], d.seats[next]
		if bestSeat.committed() < nextSeat.committed() {
			continue
		}
		if nextSeat.committed() < bestSeat.committed() {
			best = next
			continue
		}
		if bestSeat.lastShown == nil {
			continue
		}
		if nextSeat.lastShown != nil && bestSeat.lastShown.Before(*nextSeat.lastShown) {
			continue
		}
		best = next
	}

	t := d.now()
	d.seats[best].lastShown = &t
	if err := d.save(ctx); err != nil {
		return 0, err
	}
	return best, nil
}

// IsDone reports whether every seat has committed all 45 cards.
func (d *Draft) IsDone() bool {
	for _, st := range d.seats {
		if st.committed() != PackSize*PacksPerSeat {
			return false
		}
	}
	return true
}

// SeatCount returns the number of seats in the draft.
func (d *Draft) SeatCount() int {
	return len(d.seats)
}

// GetPack returns the pack seat is currently picking from, or nil when
// the seat has no pack waiting.
func (d *Draft) GetPack(seatIndex int) ([]*cube.Card, error) {
	if err := d.checkSeat(seatIndex); err != nil {
		return nil, err
	}
	if len(d.seats[seatIndex].packBacklog) == 0 {
		return nil, nil
	}
	return d.seats[seatIndex].packBacklog[0], nil
}

// GetDrafted returns the seat's kept cards in pick order.
func (d *Draft) GetDrafted(seatIndex int) ([]*cube.Card, error) {
	if err := d.checkSeat(seatIndex); err != nil {
		return nil, err
	}
	return d.seats[seatIndex].drafted, nil
}

// GetSideboard returns the seat's set-aside cards in pick order.
func (d *Draft) GetSideboard(seatIndex int) ([]*cube.Card, error) {
	if err := d.checkSeat(seatIndex); err != nil {
		return nil, err
	}
	return d.seats[seatIndex].sideboard, nil
}

// PackNumber reports which of a seat's three boosters is in play,
// counting from 1, regardless of how deep the seat's backlog is.
func (d *Draft) PackNumber(seatIndex int) (int, error) {
	if err := d.checkSeat(seatIndex); err != nil {
		return 0, err
	}
	return PacksPerSeat - len(d.seats[seatIndex].unopenedPacks), nil
}

// PickNumber reports which pick of the current pack the seat is on,
// counting from 1. Zero when the seat has no pack.
func (d *Draft) PickNumber(seatIndex int) (int, error) {
	pack, err := d.GetPack(seatIndex)
	if err != nil {
		return 0, err
	}
	if pack == nil {
		return 0, nil
	}
	return PackSize + 1 - len(pack), nil
}

// SeatImages returns image paths for the seat's piles keyed by pile
// name, omitting empty piles. Paths embed the cube's token encoding of
// the pile and are served by the image cache.
func (d *Draft) SeatImages(seatIndex int) (map[string]string, error) {
	if err := d.checkSeat(seatIndex); err != nil {
		return nil, err
	}
	st := d.seats[seatIndex]

	images := map[string]string{}
	if len(st.drafted) > 0 {
		images["deck_image"] = "/image/" + d.cube.EncodeCards(st.drafted)
	}
	if len(st.sideboard) > 0 {
		images["sideboard_image"] = "/image/" + d.cube.EncodeCards(st.sideboard)
	}
	return images, nil
}

// removeCard drops the first occurrence of card, matching by pointer
// identity, and preserves the order of the rest.
func removeCard(cards []*cube.Card, card *cube.Card) []*cube.Card {
	for i, c := range cards {
		if c == card {
			return append(cards[:i:i], cards[i+1:]...)
		}
	}
	return cards
}

func containsCard(cards []*cube.Card, card *cube.Card) bool {
	for _, c := range cards {
		if c == card {
			return true
		}
	}
	return false
}

// swapInPlace replaces every occurrence of card1 with card2 and vice
// versa without moving anything else.
func swapInPlace(cards []*cube.Card, card1, card2 *cube.Card) {
	for i, c := range cards {
		switch c {
		case card1:
			cards[i] = card2
		case card2:
			cards[i] = card1
		}
	}
}
