package draft

import "fmt"

// InvalidSeatError reports a seat index outside the draft.
type InvalidSeatError struct {
	Seat      int
	SeatCount int
}

func (e *InvalidSeatError) Error() string {
	return fmt.Sprintf("seat must be between 0 and %d, got %d", e.SeatCount-1, e.Seat)
}

// NoPackError reports a pick attempted while the seat has no pack to
// pick from.
type NoPackError struct {
	Seat int
}

func (e *NoPackError) Error() string {
	return fmt.Sprintf("seat %d has no pack to pick from", e.Seat)
}

// SameCardError reports a card fix whose two names resolved to one
// card.
type SameCardError struct {
	Name string
}

func (e *SameCardError) Error() string {
	return fmt.Sprintf("both names resolve to %q", e.Name)
}
