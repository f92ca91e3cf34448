package cube

import "strings"

// Resolve picks the card a free-text query refers to out of a candidate
// list. An exact case-insensitive name match wins outright. Failing
// that, a candidate whose name contains the query as a contiguous
// substring wins if it is the only one, then a candidate containing the
// query's characters in order wins if it is the only one. Anything else
// is a NotFoundError or an AmbiguousError listing the candidates.
//
// The preference order is the guard against typos during rapid picking
// and must not be reordered.
func Resolve(candidates []*Card, query string) (*Card, error) {
	q := strings.ToLower(query)

	var contiguous, subsequence []*Card
	for _, card := range candidates {
		name := strings.ToLower(card.Name)
		if name == q {
			return card, nil
		}
		if strings.Contains(name, q) {
			contiguous = append(contiguous, card)
			subsequence = append(subsequence, card)
		} else if isSubsequence(q, name) {
			subsequence = append(subsequence, card)
		}
	}

	if len(contiguous) == 1 {
		return contiguous[0], nil
	}
	if len(subsequence) == 1 {
		return subsequence[0], nil
	}
	if len(subsequence) == 0 {
		return nil, &NotFoundError{Query: query}
	}

	matches := subsequence
	if len(contiguous) > 1 {
		matches = contiguous
	}
	names := make([]string, len(matches))
	for i, card := range matches {
		names[i] = card.Name
	}
	return nil, &AmbiguousError{Query: query, Names: names}
}

// isSubsequence reports whether every character of q appears in name in
// order, not necessarily contiguously.
func isSubsequence(q, name string) bool {
	i := 0
	for j := 0; j < len(name) && i < len(q); j++ {
		if name[j] == q[i] {
			i++
		}
	}
	return i == len(q)
}
