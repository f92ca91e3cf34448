package cube

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"math/rand"
	"sort"
	"sync"
)

// encoding is standard base64 with '.' and '_' in place of '+' and '/'
// so tokens can ride in URL paths unescaped.
var encoding = base64.NewEncoding("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789._")

// Record is a raw card record from the source feed, before the cube
// assigns indices.
type Record struct {
	Name            string
	Set             string
	CollectorNumber string
	ManaValue       int
}

// Cube is the immutable card pool for a draft. Cards are sorted by
// name, and each card's Index equals its position in Cards.
type Cube struct {
	cards  []*Card
	byName map[string]*Card

	digestOnce sync.Once
	digest     string
}

// New builds a Cube from source records. The feed is assumed to be
// unique by name; records are sorted by name so index assignment is
// stable across loads of the same list.
func New(records []Record) *Cube {
	cards := make([]*Card, len(records))
	for i, rec := range records {
		cards[i] = &Card{
			Name:            rec.Name,
			Set:             rec.Set,
			CollectorNumber: rec.CollectorNumber,
			ManaValue:       rec.ManaValue,
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].Name < cards[j].Name })

	byName := make(map[string]*Card, len(cards))
	for i, card := range cards {
		card.Index = i
		byName[card.Name] = card
	}

	return &Cube{cards: cards, byName: byName}
}

// Cards returns the full pool in index order. Callers must not modify
// the returned slice.
func (c *Cube) Cards() []*Card {
	return c.cards
}

// Size returns the number of cards in the pool.
func (c *Cube) Size() int {
	return len(c.cards)
}

// Digest returns a fingerprint of the card list that is stable under
// reordering of the source feed but changes whenever a name is added,
// removed, or renamed. Computed once and cached.
func (c *Cube) Digest() string {
	c.digestOnce.Do(func() {
		names := make([]string, len(c.cards))
		for i, card := range c.cards {
			names[i] = card.Name
		}
		sort.Strings(names)

		hash := md5.New()
		for _, name := range names {
			hash.Write([]byte(name))
		}
		c.digest = hex.EncodeToString(hash.Sum(nil))
	})
	return c.digest
}

// GetCard looks up a card by exact name.
func (c *Cube) GetCard(name string) (*Card, error) {
	card, ok := c.byName[name]
	if !ok {
		return nil, &NotFoundError{Query: name}
	}
	return card, nil
}

// RandomCards samples count distinct cards uniformly without
// replacement. Counts larger than the pool clamp to the pool size.
func (c *Cube) RandomCards(count int) []*Card {
	if count > len(c.cards) {
		count = len(c.cards)
	}
	if count < 0 {
		count = 0
	}

	// Partial Fisher-Yates over a copy of the pool.
	pool := make([]*Card, len(c.cards))
	copy(pool, c.cards)
	for i := 0; i < count; i++ {
		j := i + rand.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:count]
}

// EncodeCards packs an ordered card sequence into a URL-safe token:
// each card's index as an unsigned varint, concatenated and base64
// encoded. Tokens are stable across restarts as long as the cube's
// digest is unchanged.
func (c *Cube) EncodeCards(cards []*Card) string {
	buf := make([]byte, 0, len(cards)*2)
	var scratch [binary.MaxVarintLen64]byte
	for _, card := range cards {
		n := binary.PutUvarint(scratch[:], uint64(card.Index))
		buf = append(buf, scratch[:n]...)
	}
	return encoding.EncodeToString(buf)
}

// DecodeCards is the inverse of EncodeCards.
func (c *Cube) DecodeCards(token string) ([]*Card, error) {
	buf, err := encoding.DecodeString(token)
	if err != nil {
		return nil, &DecodeError{Token: token, Reason: "invalid base64"}
	}

	var cards []*Card
	for len(buf) > 0 {
		index, n := binary.Uvarint(buf)
		if n <= 0 {
			return nil, &DecodeError{Token: token, Reason: "truncated varint"}
		}
		if index >= uint64(len(c.cards)) {
			return nil, &DecodeError{Token: token, Reason: "card index out of range"}
		}
		cards = append(cards, c.cards[index])
		buf = buf[n:]
	}
	return cards, nil
}
