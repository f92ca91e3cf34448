// Package cube holds the immutable card pool for a draft: the indexed
// card list, name lookup, change detection, and the compact token
// encoding used to reference arbitrary card sequences.
package cube

import "fmt"

// Card is a single printing in the cube list. Cards are allocated once
// when the Cube loads and tracked by pointer identity everywhere else:
// two cards are the same card iff their pointers are equal.
type Card struct {
	// Name is unique within a cube.
	Name string

	// Set is the Scryfall set code, e.g. "2ed".
	Set string

	// CollectorNumber is the printing's number within the set. Kept as
	// a string because promo printings use suffixes like "261a".
	CollectorNumber string

	// ManaValue is the converted mana cost, used only for display
	// grouping.
	ManaValue int

	// Index is the card's position in the sorted cube list. Stable for
	// as long as the cube's digest is unchanged.
	Index int
}

// URL returns the card's Scryfall page.
func (c *Card) URL() string {
	return fmt.Sprintf("https://scryfall.com/card/%s/%s", c.Set, c.CollectorNumber)
}

// ImageURL returns the Scryfall PNG image for the card.
func (c *Card) ImageURL() string {
	return fmt.Sprintf("https://api.scryfall.com/cards/%s/%s?format=image&version=png", c.Set, c.CollectorNumber)
}

// maxPile is the mana value at which PileByCMC stops splitting piles.
const maxPile = 7

// PileByCMC groups cards into piles keyed by mana value for display
// layout. Cards with mana value 7 or greater share the final pile.
// Piles are returned in increasing mana value order with empty piles
// omitted.
func PileByCMC(cards []*Card) [][]*Card {
	piles := make([][]*Card, maxPile+1)
	for _, card := range cards {
		mv := card.ManaValue
		// Feed rows can carry a bogus negative CMC.
		if mv < 0 {
			mv = 0
		}
		if mv > maxPile {
			mv = maxPile
		}
		piles[mv] = append(piles[mv], card)
	}

	grouped := make([][]*Card, 0, len(piles))
	for _, pile := range piles {
		if len(pile) > 0 {
			grouped = append(grouped, pile)
		}
	}
	return grouped
}
