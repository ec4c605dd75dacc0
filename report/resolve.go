package report

import (
	"cmp"
	"slices"

	"github.com/arloliu/cellreport/errs"
)

// Resolve returns the indices such that from[indices[i]] == to[i].
//
// from must hold unique ids; to may be in any order and may repeat ids. Every
// id of to missing from from is listed, in request order, by the returned
// *errs.InvalidIdentifierError.
func Resolve(from, to []uint64) ([]int, error) {
	if len(to) == 1 {
		i, ok := slices.BinarySearch(from, to[0])
		if !ok {
			return nil, &errs.InvalidIdentifierError{GIDs: []uint64{to[0]}}
		}

		return []int{i}, nil
	}

	fromOrder := argsort(from)
	toOrder := argsort(to)

	sortedFrom := make([]uint64, len(from))
	for i, idx := range fromOrder {
		sortedFrom[i] = from[idx]
	}

	// Walk the requested ids in ascending order and scatter each match back
	// to its request position; -1 marks a missing id.
	indices := make([]int, len(to))
	for _, idx := range toOrder {
		p, found := slices.BinarySearch(sortedFrom, to[idx])
		if !found {
			indices[idx] = -1
			continue
		}
		indices[idx] = fromOrder[p]
	}

	var missing []uint64
	for i, idx := range indices {
		if idx < 0 {
			missing = append(missing, to[i])
		}
	}
	if len(missing) > 0 {
		return nil, &errs.InvalidIdentifierError{GIDs: missing}
	}

	return indices, nil
}

// argsort returns the stable permutation that sorts ids ascending.
func argsort[T cmp.Ordered](ids []T) []int {
	order := make([]int, len(ids))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(ids[a], ids[b]) })

	return order
}
