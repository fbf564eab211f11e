package app

import (
	"fmt"
	"math/rand"

	"github.com/jonboulle/clockwork"
)

// PermFunc returns a permutation of [0, n). (*rand.Rand).Perm satisfies it.
type PermFunc func(n int) []int

// TimeSeededPerm seeds a fresh generator from the clock, so each run
// produces a different order.
func TimeSeededPerm(clock clockwork.Clock) PermFunc {
	rng := rand.New(rand.NewSource(clock.Now().UnixNano()))
	return rng.Perm
}

// Shuffle returns a reordered copy of doc. The first exclude categories keep
// their position and item order. The remaining categories are permuted, and
// so are the items of each remaining list. Non-list values are not touched.
func Shuffle(doc *Document, exclude int, perm PermFunc) (*Document, error) {
	if exclude < 0 {
		return nil, fmt.Errorf("exclude count must be >= 0, got %d", exclude)
	}
	if perm == nil {
		return nil, fmt.Errorf("%w: no permutation function", ErrInvalidPermutation)
	}

	out := doc.Clone()
	if exclude >= len(out.Categories) {
		return out, nil
	}

	rest, err := permute(out.Categories[exclude:], perm)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	copy(out.Categories[exclude:], rest)

	for i := exclude; i < len(out.Categories); i++ {
		c := &out.Categories[i]
		if !c.IsList() {
			continue
		}
		items, err := permute(c.Items, perm)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", c.Name, err)
		}
		c.Items = items
	}
	return out, nil
}

func permute[T any](in []T, perm PermFunc) ([]T, error) {
	order := perm(len(in))
	if len(order) != len(in) {
		return nil, fmt.Errorf("%w: got %d indexes for %d elements", ErrInvalidPermutation, len(order), len(in))
	}
	seen := make([]bool, len(in))
	out := make([]T, len(in))
	for i, j := range order {
		if j < 0 || j >= len(in) || seen[j] {
			return nil, fmt.Errorf("%w: index %d repeated or out of range", ErrInvalidPermutation, j)
		}
		seen[j] = true
		out[i] = in[j]
	}
	return out, nil
}
